package chat

import (
	"testing"
	"time"

	chatmodel "ChatRelay/module/chat/model"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"sendMessage","payload":{"content":"hi","room":"general"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.Event != EventSendMessage || f.Payload["content"] != "hi" {
		t.Fatalf("frame = %+v", f)
	}

	if _, err := ParseFrame([]byte(`{"payload":{}}`)); err == nil {
		t.Fatal("frame without event accepted")
	}
	if _, err := ParseFrame([]byte(`not json`)); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload[SendMessagePayload](map[string]any{
		"content": "hi",
		"room":    "general",
		"extra":   42, // unknown fields are ignored
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Content != "hi" || p.Room != "general" {
		t.Fatalf("payload = %+v", p)
	}

	tp, err := DecodePayload[TypingPayload](map[string]any{"isTyping": true})
	if err != nil {
		t.Fatal(err)
	}
	if !tp.IsTyping || tp.Room != "" {
		t.Fatalf("payload = %+v", tp)
	}
}

func TestBuildNewMessage(t *testing.T) {
	msg := &chatmodel.Message{
		ID:          "m1",
		Sender:      "u1",
		Content:     "hello",
		Room:        "general",
		MessageType: chatmodel.MessageTypeText,
		CreatedAt:   time.Now(),
	}
	f, err := ParseFrame(BuildNewMessage(msg, "Alice"))
	if err != nil {
		t.Fatal(err)
	}
	if f.Event != EventNewMessage {
		t.Fatalf("event = %q", f.Event)
	}
	if f.Payload["id"] != "m1" || f.Payload["content"] != "hello" || f.Payload["room"] != "general" {
		t.Fatalf("payload = %v", f.Payload)
	}
	sender, _ := f.Payload["sender"].(map[string]any)
	if sender["id"] != "u1" || sender["username"] != "Alice" {
		t.Fatalf("sender = %v", sender)
	}
}

func TestBuildConnected(t *testing.T) {
	f, err := ParseFrame(BuildConnected("c1", "u1", "Alice"))
	if err != nil {
		t.Fatal(err)
	}
	if f.Event != EventConnected || f.Payload["connectionId"] != "c1" {
		t.Fatalf("frame = %+v", f)
	}
}

func TestBuildErrorFrame(t *testing.T) {
	f, err := ParseFrame(BuildError("boom"))
	if err != nil {
		t.Fatal(err)
	}
	if f.Event != EventError || f.Payload["message"] != "boom" {
		t.Fatalf("frame = %+v", f)
	}
}
