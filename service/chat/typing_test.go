package chat

import "testing"

func TestTypingSetSemantics(t *testing.T) {
	ts := NewTypingState()

	if !ts.Set("general", "Alice", true) {
		t.Fatal("first typing=true should change the set")
	}
	// Repeated signals collapse to one entry.
	if ts.Set("general", "Alice", true) {
		t.Fatal("duplicate typing=true should be a no-op")
	}
	if got := ts.Typing("general"); len(got) != 1 || got[0] != "Alice" {
		t.Fatalf("typing set = %v, want [Alice]", got)
	}

	if !ts.Set("general", "Alice", false) {
		t.Fatal("typing=false should remove the entry")
	}
	if ts.Set("general", "Alice", false) {
		t.Fatal("clearing an absent entry should be a no-op")
	}
	if got := ts.Typing("general"); len(got) != 0 {
		t.Fatalf("typing set = %v, want empty", got)
	}
}

func TestTypingIsPerRoom(t *testing.T) {
	ts := NewTypingState()
	ts.Set("general", "Alice", true)
	ts.Set("random", "Alice", true)

	ts.Set("general", "Alice", false)
	if got := ts.Typing("random"); len(got) != 1 {
		t.Fatalf("random typing set = %v, want [Alice]", got)
	}
	if got := ts.Typing("general"); len(got) != 0 {
		t.Fatalf("general typing set = %v, want empty", got)
	}
}
