package model

import "time"

// Room groups a set of member users and scopes message and typing
// broadcast. Membership is an indexed relation (room -> user ids), not
// embedded user documents, which keeps User and Room free of ownership
// cycles.
type Room struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Users     []string  `bson:"users" json:"users"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
