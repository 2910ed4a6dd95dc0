package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	usermodel "ChatRelay/module/user/model"
)

type fakeMirror struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (m *fakeMirror) Online(_ context.Context, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "online:"+userID)
	if m.fail {
		return fmt.Errorf("redis down")
	}
	return nil
}

func (m *fakeMirror) Offline(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "offline:"+userID)
	if m.fail {
		return fmt.Errorf("redis down")
	}
	return nil
}

func TestPresenceLifecycle(t *testing.T) {
	us := newFakeUserStore(&usermodel.User{ID: "u1", Username: "Alice"})
	mirror := &fakeMirror{}
	p := NewPresenceTracker(us, mirror)
	ctx := context.Background()

	if err := p.MarkOnline(ctx, "u1"); err != nil {
		t.Fatalf("mark online: %v", err)
	}
	if u, _ := us.FindByID(ctx, "u1"); !u.IsOnline || u.LastSeen.IsZero() {
		t.Fatalf("store not updated: %+v", u)
	}

	if err := p.MarkOffline(ctx, "u1"); err != nil {
		t.Fatalf("mark offline: %v", err)
	}
	if u, _ := us.FindByID(ctx, "u1"); u.IsOnline {
		t.Fatal("user still online after mark offline")
	}

	wantEvents := []string{"online:u1", "offline:u1"}
	got := us.Events()
	if len(got) != 2 || got[0] != wantEvents[0] || got[1] != wantEvents[1] {
		t.Fatalf("store events = %v, want %v", got, wantEvents)
	}
	if len(mirror.calls) != 2 || mirror.calls[0] != "online:u1" || mirror.calls[1] != "offline:u1" {
		t.Fatalf("mirror calls = %v", mirror.calls)
	}
}

// The mirror is best-effort; its failures never fail the operation.
func TestPresenceMirrorFailureIsSwallowed(t *testing.T) {
	us := newFakeUserStore(&usermodel.User{ID: "u1", Username: "Alice"})
	p := NewPresenceTracker(us, &fakeMirror{fail: true})
	ctx := context.Background()

	if err := p.MarkOnline(ctx, "u1"); err != nil {
		t.Fatalf("mark online: %v", err)
	}
	if err := p.MarkOffline(ctx, "u1"); err != nil {
		t.Fatalf("mark offline: %v", err)
	}
}

func TestPresenceWithoutMirror(t *testing.T) {
	us := newFakeUserStore(&usermodel.User{ID: "u1", Username: "Alice"})
	p := NewPresenceTracker(us, nil)
	if err := p.MarkOnline(context.Background(), "u1"); err != nil {
		t.Fatalf("mark online without mirror: %v", err)
	}
}

func TestAnnounceBuilders(t *testing.T) {
	p := NewPresenceTracker(newFakeUserStore(), nil)

	join, err := ParseFrame(p.AnnounceJoin("Alice", JoinedChatNotice("Alice")))
	if err != nil {
		t.Fatal(err)
	}
	if join.Event != EventUserJoined {
		t.Fatalf("event = %q, want userJoined", join.Event)
	}
	if join.Payload["message"] != "Alice joined the chat" || join.Payload["messageType"] != "system" {
		t.Fatalf("join payload = %v", join.Payload)
	}

	left, err := ParseFrame(p.AnnounceLeave("Alice", LeftChatNotice("Alice")))
	if err != nil {
		t.Fatal(err)
	}
	if left.Event != EventUserLeft {
		t.Fatalf("event = %q, want userLeft", left.Event)
	}
	if left.Payload["username"] != "Alice" || left.Payload["message"] != "Alice left the chat" {
		t.Fatalf("left payload = %v", left.Payload)
	}
}
