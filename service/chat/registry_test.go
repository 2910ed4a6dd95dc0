package chat

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"ChatRelay/tools/errs"
)

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	c := NewClient("c1", "u1", "Alice", nil, 1)

	sess, err := r.Register(c)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.ActiveRoom != "" {
		t.Fatalf("new session should have no active room, got %q", sess.ActiveRoom)
	}
	got, ok := r.Get("c1")
	if !ok || got.UserID != "u1" || got.Username != "Alice" {
		t.Fatalf("get returned %+v ok=%v", got, ok)
	}
}

func TestRegisterDuplicateConnection(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(NewClient("c1", "u1", "Alice", nil, 1)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := r.Register(NewClient("c1", "u2", "Bob", nil, 1))
	if !errors.Is(err, errs.ErrDuplicateConnection) {
		t.Fatalf("want ErrDuplicateConnection, got %v", err)
	}
}

func TestSetActiveRoomMovesAudience(t *testing.T) {
	r := NewRegistry()
	c := NewClient("c1", "u1", "Alice", nil, 1)
	if _, err := r.Register(c); err != nil {
		t.Fatal(err)
	}

	if err := r.SetActiveRoom("c1", "general"); err != nil {
		t.Fatal(err)
	}
	if n := len(r.ConnectionsInRoom("general")); n != 1 {
		t.Fatalf("general audience = %d, want 1", n)
	}

	// Joining another room drops the connection from the previous
	// audience without touching persisted membership.
	if err := r.SetActiveRoom("c1", "random"); err != nil {
		t.Fatal(err)
	}
	if n := len(r.ConnectionsInRoom("general")); n != 0 {
		t.Fatalf("general audience after switch = %d, want 0", n)
	}
	if n := len(r.ConnectionsInRoom("random")); n != 1 {
		t.Fatalf("random audience = %d, want 1", n)
	}

	// Idempotent re-join.
	if err := r.SetActiveRoom("c1", "random"); err != nil {
		t.Fatal(err)
	}
	if n := len(r.ConnectionsInRoom("random")); n != 1 {
		t.Fatalf("random audience after re-join = %d, want 1", n)
	}
}

func TestSetActiveRoomUnknownConnection(t *testing.T) {
	r := NewRegistry()
	err := r.SetActiveRoom("ghost", "general")
	if !errors.Is(err, errs.ErrUnknownConnection) {
		t.Fatalf("want ErrUnknownConnection, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(NewClient("c1", "u1", "Alice", nil, 1)); err != nil {
		t.Fatal(err)
	}
	if err := r.SetActiveRoom("c1", "general"); err != nil {
		t.Fatal(err)
	}

	if !r.Remove("c1") {
		t.Fatal("remove returned false for live connection")
	}
	if _, ok := r.Get("c1"); ok {
		t.Fatal("session still present after remove")
	}
	if n := len(r.ConnectionsInRoom("general")); n != 0 {
		t.Fatalf("audience after remove = %d, want 0", n)
	}
	if r.Remove("c1") {
		t.Fatal("second remove should report missing")
	}
}

// A user may hold several connections, each with its own active room.
func TestMultipleConnectionsPerUser(t *testing.T) {
	r := NewRegistry()
	for i, room := range []string{"general", "random"} {
		c := NewClient(fmt.Sprintf("c%d", i), "u1", "Alice", nil, 1)
		if _, err := r.Register(c); err != nil {
			t.Fatal(err)
		}
		if err := r.SetActiveRoom(c.ConnID, room); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(r.ConnectionsInRoom("general")); n != 1 {
		t.Fatalf("general audience = %d, want 1", n)
	}
	if n := len(r.ConnectionsInRoom("random")); n != 1 {
		t.Fatalf("random audience = %d, want 1", n)
	}
}

func TestConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i)
			c := NewClient(id, fmt.Sprintf("u%d", i%4), "user", nil, 1)
			if _, err := r.Register(c); err != nil {
				t.Errorf("register %s: %v", id, err)
				return
			}
			_ = r.SetActiveRoom(id, "general")
			_ = r.ConnectionsInRoom("general")
			_ = r.SetActiveRoom(id, "random")
			r.Remove(id)
		}(i)
	}
	wg.Wait()
	if n := r.Count(); n != 0 {
		t.Fatalf("registry not empty after churn: %d", n)
	}
}
