package chat

import (
	"context"
	"fmt"
	"time"

	"ChatRelay/logger"
	"ChatRelay/service/storage"
)

const presenceTTL = 2 * time.Minute

// PresenceTracker maintains online/offline plus last-seen in the durable
// store and mirrors the online flag into redis for cheap lookups. Exactly
// one MarkOnline/MarkOffline pair runs per connection, in that order; a
// user's other connections never suppress either call.
type PresenceTracker struct {
	users  UserStore
	mirror PresenceMirror // nil disables the mirror
	clock  func() time.Time
}

func NewPresenceTracker(users UserStore, mirror PresenceMirror) *PresenceTracker {
	return &PresenceTracker{users: users, mirror: mirror, clock: time.Now}
}

func (p *PresenceTracker) MarkOnline(ctx context.Context, userID string) error {
	if err := p.users.SetOnline(ctx, userID, p.clock()); err != nil {
		return err
	}
	if p.mirror != nil {
		if err := p.mirror.Online(ctx, userID, presenceTTL); err != nil {
			logger.Warnf("[presence] mirror online user=%s err=%v", userID, err)
		}
	}
	return nil
}

func (p *PresenceTracker) MarkOffline(ctx context.Context, userID string) error {
	if err := p.users.SetOffline(ctx, userID, p.clock()); err != nil {
		return err
	}
	if p.mirror != nil {
		if err := p.mirror.Offline(ctx, userID); err != nil {
			logger.Warnf("[presence] mirror offline user=%s err=%v", userID, err)
		}
	}
	return nil
}

// Join/leave notices are live-only system events, never persisted.

func (p *PresenceTracker) AnnounceJoin(username, message string) []byte {
	return BuildUserJoined(username, message)
}

func (p *PresenceTracker) AnnounceLeave(username, message string) []byte {
	return BuildUserLeft(username, message)
}

func JoinedChatNotice(username string) string { return fmt.Sprintf("%s joined the chat", username) }
func JoinedRoomNotice(username string) string { return fmt.Sprintf("%s joined the room", username) }
func LeftChatNotice(username string) string   { return fmt.Sprintf("%s left the chat", username) }

// RedisMirror adapts the storage presence keys to the PresenceMirror
// interface, stamping values with this coordinator's node id.
type RedisMirror struct {
	NodeID string
}

func (m *RedisMirror) Online(ctx context.Context, userID string, ttl time.Duration) error {
	return storage.PresenceOnline(ctx, userID, m.NodeID, ttl)
}

func (m *RedisMirror) Offline(ctx context.Context, userID string) error {
	return storage.PresenceOffline(ctx, userID)
}
