package model

import "time"

const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"

	// MaxContentLen is the hard limit on message content.
	MaxContentLen = 500
)

// Message is immutable once persisted. Rooms are referenced by name, the
// sender by user id.
type Message struct {
	ID          string    `bson:"_id" json:"id"`
	Sender      string    `bson:"sender" json:"sender"`
	Content     string    `bson:"content" json:"content"`
	Room        string    `bson:"room" json:"room"`
	MessageType string    `bson:"message_type" json:"messageType"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}
