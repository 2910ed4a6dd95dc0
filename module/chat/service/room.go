package service

import (
	"context"
	"time"

	chatmodel "ChatRelay/module/chat/model"
	"ChatRelay/tools/errs"
	"ChatRelay/tools/ids"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const roomCollection = "rooms"

// RoomStore owns the rooms collection. Membership mutations go through
// $addToSet / $pull so concurrent joins and disconnect cleanup never lose
// an update or duplicate an entry.
type RoomStore struct {
	db *mongo.Database
}

func NewRoomStore(db *mongo.Database) *RoomStore {
	return &RoomStore{db: db}
}

func (s *RoomStore) coll() *mongo.Collection {
	return s.db.Collection(roomCollection)
}

func (s *RoomStore) List(ctx context.Context) ([]chatmodel.Room, error) {
	cur, err := s.coll().Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "list rooms")
	}
	defer cur.Close(ctx)

	var out []chatmodel.Room
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode rooms")
	}
	return out, nil
}

// Create persists a new room with the creator as sole member. Fails with
// ErrRoomAlreadyExists on a name collision.
func (s *RoomStore) Create(ctx context.Context, name, creatorID string) (*chatmodel.Room, error) {
	existing, err := s.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.ErrRoomAlreadyExists.WithDetail(name)
	}
	return s.insert(ctx, name, creatorID)
}

func (s *RoomStore) insert(ctx context.Context, name, creatorID string) (*chatmodel.Room, error) {
	now := time.Now()
	room := &chatmodel.Room{
		ID:        ids.GenerateString(),
		Name:      name,
		Users:     []string{creatorID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.coll().InsertOne(ctx, room); err != nil {
		return nil, errors.Wrapf(err, "insert room name=%s", name)
	}
	return room, nil
}

func (s *RoomStore) FindByName(ctx context.Context, name string) (*chatmodel.Room, error) {
	var room chatmodel.Room
	err := s.coll().FindOne(ctx, bson.M{"name": name}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find room name=%s", name)
	}
	return &room, nil
}

func (s *RoomStore) FindByID(ctx context.Context, id string) (*chatmodel.Room, error) {
	var room chatmodel.Room
	err := s.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find room id=%s", id)
	}
	return &room, nil
}

// JoinExplicit adds the user to an existing room addressed by id. The room
// must already exist; joining twice is a no-op.
func (s *RoomStore) JoinExplicit(ctx context.Context, userID, roomID string) (*chatmodel.Room, error) {
	room, err := s.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, errs.ErrRoomNotFound.WithDetail(roomID)
	}
	if err := s.addMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, roomID)
}

// JoinByName is the live-join policy: the room is created on demand with
// the joiner as sole initial member. Returns whether it was created.
func (s *RoomStore) JoinByName(ctx context.Context, userID, roomName string) (*chatmodel.Room, bool, error) {
	room, err := s.FindByName(ctx, roomName)
	if err != nil {
		return nil, false, err
	}
	if room == nil {
		room, err = s.insert(ctx, roomName, userID)
		if err != nil {
			return nil, false, err
		}
		return room, true, nil
	}
	if err := s.addMember(ctx, room.ID, userID); err != nil {
		return nil, false, err
	}
	return room, false, nil
}

func (s *RoomStore) addMember(ctx context.Context, roomID, userID string) error {
	_, err := s.coll().UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{
			"$addToSet": bson.M{"users": userID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	return errors.Wrapf(err, "add member room=%s user=%s", roomID, userID)
}

// RemoveUserFromAllRooms pulls the user out of every room's membership.
// Disconnect cleanup path.
func (s *RoomStore) RemoveUserFromAllRooms(ctx context.Context, userID string) error {
	_, err := s.coll().UpdateMany(ctx,
		bson.M{"users": userID},
		bson.M{"$pull": bson.M{"users": userID}},
	)
	return errors.Wrapf(err, "remove user=%s from all rooms", userID)
}
