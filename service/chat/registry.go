package chat

import (
	"sync"

	"ChatRelay/tools/errs"
)

// Session is the in-memory record of one live connection. ActiveRoom is
// the room whose live events the connection currently receives; it is
// independent of persisted room membership.
type Session struct {
	ConnID     string
	UserID     string
	Username   string
	ActiveRoom string // empty until the first join
	Client     *Client
}

// Registry is the process-wide directory of live connections. Every
// connect, disconnect and join touches it, so reads take the shared lock
// and all Session mutation happens under the exclusive lock — readers get
// value copies, never a half-written Session.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*Session
	byRoom map[string]map[string]*Session // room -> conn_id -> session
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*Session),
		byRoom: make(map[string]map[string]*Session),
	}
}

// Register creates a Session with no active room. A colliding connection
// id is a lifecycle bug, not user error.
func (r *Registry) Register(c *Client) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byConn[c.ConnID]; exists {
		return Session{}, errs.ErrDuplicateConnection.WithDetail(c.ConnID)
	}
	s := &Session{
		ConnID:   c.ConnID,
		UserID:   c.UserID,
		Username: c.Username,
		Client:   c,
	}
	r.byConn[c.ConnID] = s
	return *s, nil
}

// SetActiveRoom points the connection at roomName, implicitly dropping it
// from the previous room's live audience. Idempotent. Persisted membership
// is not touched here.
func (r *Registry) SetActiveRoom(connID, roomName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byConn[connID]
	if !ok {
		return errs.ErrUnknownConnection.WithDetail(connID)
	}
	if s.ActiveRoom == roomName {
		return nil
	}
	if s.ActiveRoom != "" {
		if m := r.byRoom[s.ActiveRoom]; m != nil {
			delete(m, connID)
			if len(m) == 0 {
				delete(r.byRoom, s.ActiveRoom)
			}
		}
	}
	s.ActiveRoom = roomName
	m := r.byRoom[roomName]
	if m == nil {
		m = make(map[string]*Session)
		r.byRoom[roomName] = m
	}
	m[connID] = s
	return nil
}

// Get returns a copy of the session.
func (r *Registry) Get(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byConn[connID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Remove deletes the session. Called exactly once per connection, on
// disconnect.
func (r *Registry) Remove(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byConn[connID]
	if !ok {
		return false
	}
	delete(r.byConn, connID)
	if s.ActiveRoom != "" {
		if m := r.byRoom[s.ActiveRoom]; m != nil {
			delete(m, connID)
			if len(m) == 0 {
				delete(r.byRoom, s.ActiveRoom)
			}
		}
	}
	return true
}

// ConnectionsInRoom returns a snapshot of the room's live audience. The
// snapshot can go stale immediately; callers must tolerate that.
func (r *Registry) ConnectionsInRoom(roomName string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m := r.byRoom[roomName]
	out := make([]*Client, 0, len(m))
	for _, s := range m {
		out = append(out, s.Client)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
