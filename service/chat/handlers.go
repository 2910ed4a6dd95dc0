package chat

import (
	"context"

	"ChatRelay/tools/errs"
)

type sendMessageHandler struct{}

func (sendMessageHandler) Event() string { return EventSendMessage }

func (sendMessageHandler) Handle(ctx context.Context, s *Server, f *Frame, connID string) error {
	p, err := DecodePayload[SendMessagePayload](f.Payload)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	_, err = s.router.SendMessage(ctx, connID, p.Content, p.Room)
	return err
}

type joinRoomHandler struct{}

func (joinRoomHandler) Event() string { return EventJoinRoom }

func (joinRoomHandler) Handle(ctx context.Context, s *Server, f *Frame, connID string) error {
	p, err := DecodePayload[JoinRoomPayload](f.Payload)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	sess, ok := s.registry.Get(connID)
	if !ok {
		return errs.ErrUnknownConnection.WithDetail(connID)
	}
	return s.joinRoom(ctx, connID, p.RoomName, JoinedRoomNotice(sess.Username), true)
}

type typingHandler struct{}

func (typingHandler) Event() string { return EventTyping }

func (typingHandler) Handle(ctx context.Context, s *Server, f *Frame, connID string) error {
	p, err := DecodePayload[TypingPayload](f.Payload)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	sess, ok := s.registry.Get(connID)
	if !ok {
		return errs.ErrUnknownConnection.WithDetail(connID)
	}
	room := p.Room
	if room == "" {
		room = defaultRoom
	}

	// Set semantics: repeated signals collapse in the state, but every
	// signal is still relayed, matching the live protocol.
	s.typing.Set(room, sess.Username, p.IsTyping)

	others := excludeConn(s.registry.ConnectionsInRoom(room), connID)
	s.fanout.Broadcast(others, BuildUserTyping(sess.Username, p.IsTyping))
	return nil
}
