package chat

import "sync"

// TypingState is the ephemeral per-room set of usernames currently flagged
// as typing. Purely advisory, so plain exclusive access is enough.
type TypingState struct {
	mu    sync.Mutex
	rooms map[string]map[string]struct{} // room -> usernames
}

func NewTypingState() *TypingState {
	return &TypingState{rooms: make(map[string]map[string]struct{})}
}

// Set flags or clears a username in a room and reports whether the set
// actually changed. Duplicate signals are idempotent.
func (t *TypingState) Set(room, username string, typing bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.rooms[room]
	if typing {
		if m == nil {
			m = make(map[string]struct{})
			t.rooms[room] = m
		}
		if _, ok := m[username]; ok {
			return false
		}
		m[username] = struct{}{}
		return true
	}
	if m == nil {
		return false
	}
	if _, ok := m[username]; !ok {
		return false
	}
	delete(m, username)
	if len(m) == 0 {
		delete(t.rooms, room)
	}
	return true
}

// Typing returns the usernames currently flagged in a room.
func (t *TypingState) Typing(room string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.rooms[room]
	out := make([]string, 0, len(m))
	for u := range m {
		out = append(out, u)
	}
	return out
}
