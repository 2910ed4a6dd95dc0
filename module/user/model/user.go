package model

import "time"

// User is the durable identity record. The coordinator core only touches
// IsOnline and LastSeen; everything else belongs to the auth flow.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Username  string    `bson:"username" json:"username"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password" json:"-"` // bcrypt hash, never serialized
	IsOnline  bool      `bson:"is_online" json:"isOnline"`
	LastSeen  time.Time `bson:"last_seen" json:"lastSeen"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// PublicUser is the shape handed to clients and embedded in member listings.
type PublicUser struct {
	ID       string `bson:"_id" json:"id"`
	Username string `bson:"username" json:"username"`
	Email    string `bson:"email" json:"email"`
	IsOnline bool   `bson:"is_online" json:"isOnline"`
}
