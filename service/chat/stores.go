package chat

import (
	"context"
	"time"

	chatmodel "ChatRelay/module/chat/model"
	usermodel "ChatRelay/module/user/model"
)

// The coordinator takes its persistence gateway as narrow interfaces so
// the core stays testable with in-memory fakes. The mongo-backed stores
// under module/ satisfy them.

type UserStore interface {
	FindByID(ctx context.Context, id string) (*usermodel.User, error)
	SetOnline(ctx context.Context, id string, at time.Time) error
	SetOffline(ctx context.Context, id string, at time.Time) error
}

type RoomStore interface {
	// JoinByName auto-creates a missing room with the joiner as sole
	// member; reports whether it was created.
	JoinByName(ctx context.Context, userID, roomName string) (*chatmodel.Room, bool, error)
	RemoveUserFromAllRooms(ctx context.Context, userID string) error
}

type MessageStore interface {
	Insert(ctx context.Context, msg *chatmodel.Message) error
}

// PresenceMirror is the fast-path online directory (redis). Best-effort:
// mirror failures are logged, never fatal.
type PresenceMirror interface {
	Online(ctx context.Context, userID string, ttl time.Duration) error
	Offline(ctx context.Context, userID string) error
}
