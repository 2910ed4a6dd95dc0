package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	chatmodel "ChatRelay/module/chat/model"
	usermodel "ChatRelay/module/user/model"
	"ChatRelay/tools/security"
)

// In-memory persistence gateway fakes. The coordinator never notices the
// difference; that is the point of the store interfaces.

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]*usermodel.User
	events []string // "online:<id>" / "offline:<id>" in call order
}

func newFakeUserStore(users ...*usermodel.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*usermodel.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (*usermodel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *fakeUserStore) SetOnline(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.users[id]; u != nil {
		u.IsOnline = true
		u.LastSeen = at
	}
	s.events = append(s.events, "online:"+id)
	return nil
}

func (s *fakeUserStore) SetOffline(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.users[id]; u != nil {
		u.IsOnline = false
		u.LastSeen = at
	}
	s.events = append(s.events, "offline:"+id)
	return nil
}

func (s *fakeUserStore) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

type fakeRoomStore struct {
	mu      sync.Mutex
	rooms   map[string]*chatmodel.Room // by name
	cleaned []string                   // users removed from all rooms
	nextID  int
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{rooms: make(map[string]*chatmodel.Room)}
}

func (s *fakeRoomStore) JoinByName(_ context.Context, userID, roomName string) (*chatmodel.Room, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[roomName]
	if room == nil {
		s.nextID++
		room = &chatmodel.Room{
			ID:    fmt.Sprintf("room-%d", s.nextID),
			Name:  roomName,
			Users: []string{userID},
		}
		s.rooms[roomName] = room
		return room, true, nil
	}
	for _, u := range room.Users {
		if u == userID {
			return room, false, nil
		}
	}
	room.Users = append(room.Users, userID)
	return room, false, nil
}

func (s *fakeRoomStore) RemoveUserFromAllRooms(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleaned = append(s.cleaned, userID)
	for _, room := range s.rooms {
		kept := room.Users[:0]
		for _, u := range room.Users {
			if u != userID {
				kept = append(kept, u)
			}
		}
		room.Users = kept
	}
	return nil
}

func (s *fakeRoomStore) members(roomName string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.rooms[roomName]
	if room == nil {
		return nil
	}
	out := make([]string, len(room.Users))
	copy(out, room.Users)
	return out
}

type fakeMessageStore struct {
	mu         sync.Mutex
	msgs       []chatmodel.Message
	failInsert bool
}

func (s *fakeMessageStore) Insert(_ context.Context, msg *chatmodel.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert {
		return fmt.Errorf("store down")
	}
	s.msgs = append(s.msgs, *msg)
	return nil
}

func (s *fakeMessageStore) history(room string) []chatmodel.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []chatmodel.Message
	for _, m := range s.msgs {
		if m.Room == room {
			out = append(out, m)
		}
	}
	return out
}

// ---- server/test plumbing ----

func newTestServer(t *testing.T, users ...*usermodel.User) (*Server, *fakeUserStore, *fakeRoomStore, *fakeMessageStore) {
	t.Helper()
	us := newFakeUserStore(users...)
	rs := newFakeRoomStore()
	ms := &fakeMessageStore{}
	s := NewServer("test-node", Deps{
		Users:    us,
		Rooms:    rs,
		Messages: ms,
		Jwt:      security.DefaultOptions([]byte("test-secret")),
	})
	t.Cleanup(s.Close)
	return s, us, rs, ms
}

// addConn registers a session directly, bypassing the WebSocket handshake.
func addConn(t *testing.T, s *Server, connID, userID, username, room string) *Client {
	t.Helper()
	c := NewClient(connID, userID, username, nil, 16)
	if _, err := s.registry.Register(c); err != nil {
		t.Fatalf("register %s: %v", connID, err)
	}
	if room != "" {
		if err := s.registry.SetActiveRoom(connID, room); err != nil {
			t.Fatalf("set active room %s: %v", connID, err)
		}
	}
	return c
}

func recvFrame(t *testing.T, c *Client) *Frame {
	t.Helper()
	select {
	case b := <-c.Send:
		f, err := ParseFrame(b)
		if err != nil {
			t.Fatalf("bad frame %q: %v", b, err)
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame for conn %s within deadline", c.ConnID)
	}
	return nil
}

func expectNoFrame(t *testing.T, c *Client) {
	t.Helper()
	time.Sleep(50 * time.Millisecond)
	select {
	case b := <-c.Send:
		t.Fatalf("unexpected frame for conn %s: %s", c.ConnID, b)
	default:
	}
}
