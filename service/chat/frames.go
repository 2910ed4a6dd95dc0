package chat

import (
	"encoding/json"
	"fmt"
	"time"

	chatmodel "ChatRelay/module/chat/model"

	"github.com/mitchellh/mapstructure"
)

// Wire protocol: one JSON frame per WebSocket message,
// {"event": "...", "payload": {...}}.

const (
	// inbound
	EventConnect     = "connect"
	EventSendMessage = "sendMessage"
	EventJoinRoom    = "joinRoom"
	EventTyping      = "typing"

	// outbound
	EventConnected  = "connected"
	EventNewMessage = "newMessage"
	EventUserJoined = "userJoined"
	EventUserLeft   = "userLeft"
	EventUserTyping = "userTyping"
	EventJoinedRoom = "joinedRoom"
	EventError      = "error"
)

type Frame struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	if f.Event == "" {
		return nil, fmt.Errorf("frame missing event")
	}
	return f, nil
}

// DecodePayload maps a frame payload onto a typed struct, honoring the
// json tags and ignoring unknown fields.
func DecodePayload[T any](payload map[string]any) (*T, error) {
	out := new(T)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(payload); err != nil {
		return nil, fmt.Errorf("decode payload failed: %w", err)
	}
	return out, nil
}

type ConnectPayload struct {
	Token string `json:"token"`
}

type SendMessagePayload struct {
	Content string `json:"content"`
	Room    string `json:"room"`
}

type JoinRoomPayload struct {
	RoomName string `json:"roomName"`
}

type TypingPayload struct {
	Room     string `json:"room"`
	IsTyping bool   `json:"isTyping"`
}

// ---- outbound frame builders ----

type outFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

func marshalFrame(event string, payload any) []byte {
	b, _ := json.Marshal(outFrame{Event: event, Payload: payload})
	return b
}

type SenderRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func BuildConnected(connID, userID, username string) []byte {
	return marshalFrame(EventConnected, map[string]any{
		"connectionId": connID,
		"user":         SenderRef{ID: userID, Username: username},
	})
}

func BuildNewMessage(msg *chatmodel.Message, senderUsername string) []byte {
	return marshalFrame(EventNewMessage, struct {
		ID        string    `json:"id"`
		Content   string    `json:"content"`
		Sender    SenderRef `json:"sender"`
		Room      string    `json:"room"`
		CreatedAt time.Time `json:"createdAt"`
	}{
		ID:        msg.ID,
		Content:   msg.Content,
		Sender:    SenderRef{ID: msg.Sender, Username: senderUsername},
		Room:      msg.Room,
		CreatedAt: msg.CreatedAt,
	})
}

type noticePayload struct {
	Username    string `json:"username"`
	Message     string `json:"message"`
	MessageType string `json:"messageType"`
}

func BuildUserJoined(username, message string) []byte {
	return marshalFrame(EventUserJoined, noticePayload{
		Username: username, Message: message, MessageType: chatmodel.MessageTypeSystem,
	})
}

func BuildUserLeft(username, message string) []byte {
	return marshalFrame(EventUserLeft, noticePayload{
		Username: username, Message: message, MessageType: chatmodel.MessageTypeSystem,
	})
}

func BuildUserTyping(username string, isTyping bool) []byte {
	return marshalFrame(EventUserTyping, map[string]any{
		"username": username,
		"isTyping": isTyping,
	})
}

func BuildJoinedRoom(roomName string) []byte {
	return marshalFrame(EventJoinedRoom, map[string]any{"roomName": roomName})
}

func BuildError(message string) []byte {
	return marshalFrame(EventError, map[string]any{"message": message})
}
