package service

import (
	"testing"

	chatmodel "ChatRelay/module/chat/model"
)

func TestReverseMessages(t *testing.T) {
	msgs := []chatmodel.Message{{ID: "m3"}, {ID: "m2"}, {ID: "m1"}}
	reverseMessages(msgs)
	for i, want := range []string{"m1", "m2", "m3"} {
		if msgs[i].ID != want {
			t.Fatalf("msgs[%d] = %s, want %s", i, msgs[i].ID, want)
		}
	}

	// No-ops on the degenerate sizes.
	reverseMessages(nil)
	one := []chatmodel.Message{{ID: "m1"}}
	reverseMessages(one)
	if one[0].ID != "m1" {
		t.Fatal("single-element reverse changed the slice")
	}
}
