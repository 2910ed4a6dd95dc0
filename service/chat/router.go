package chat

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"ChatRelay/logger"
	chatmodel "ChatRelay/module/chat/model"
	"ChatRelay/tools/errs"
	"ChatRelay/tools/ids"
)

// BroadcastRouter persists messages and fans them out to the room's live
// audience. Persist-then-publish: a recipient never observes a message
// that a history read could not return afterwards.
type BroadcastRouter struct {
	registry *Registry
	messages MessageStore
	clock    func() time.Time

	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

func NewBroadcastRouter(registry *Registry, messages MessageStore) *BroadcastRouter {
	return &BroadcastRouter{
		registry:  registry,
		messages:  messages,
		clock:     time.Now,
		roomLocks: make(map[string]*sync.Mutex),
	}
}

func (r *BroadcastRouter) roomLock(room string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.roomLocks[room]
	if l == nil {
		l = &sync.Mutex{}
		r.roomLocks[room] = l
	}
	return l
}

// SendMessage runs the full send pipeline for one inbound message:
// validate, resolve the sender session, persist, fan out. The room lock
// covers persist and enqueue, so for any one room delivery order equals
// persist order (single writer per room).
func (r *BroadcastRouter) SendMessage(ctx context.Context, connID, content, room string) (*chatmodel.Message, error) {
	if content == "" {
		return nil, errs.ErrValidation.WithDetail("content is empty")
	}
	if utf8.RuneCountInString(content) > chatmodel.MaxContentLen {
		return nil, errs.ErrValidation.WithDetailf("content exceeds %d chars", chatmodel.MaxContentLen)
	}
	if room == "" {
		return nil, errs.ErrValidation.WithDetail("room is empty")
	}

	sess, ok := r.registry.Get(connID)
	if !ok {
		return nil, errs.ErrUnknownConnection.WithDetail(connID)
	}

	lock := r.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	msg := &chatmodel.Message{
		ID:          ids.GenerateString(),
		Sender:      sess.UserID,
		Content:     content,
		Room:        room,
		MessageType: chatmodel.MessageTypeText,
		CreatedAt:   r.clock(),
	}
	if err := r.messages.Insert(ctx, msg); err != nil {
		// Nothing was broadcast; the operation fails atomically.
		return nil, errs.ErrPersistence.WithDetail(err.Error())
	}

	payload := BuildNewMessage(msg, sess.Username)
	conns := r.registry.ConnectionsInRoom(room)

	failed := 0
	for _, c := range conns {
		// One slow connection must not starve the rest.
		if err := c.Enqueue(payload); err != nil {
			failed++
			logger.Warnf("[router] drop delivery room=%s conn=%s err=%v", room, c.ConnID, err)
		}
	}
	if failed > 0 {
		// Surfaced to the sender only, never broadcast.
		_ = sess.Client.Enqueue(BuildError("message delivered partially"))
	}
	return msg, nil
}
