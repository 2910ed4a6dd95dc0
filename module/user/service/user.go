package service

import (
	"context"
	"time"

	usermodel "ChatRelay/module/user/model"
	"ChatRelay/tools/ids"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const userCollection = "users"

// UserStore owns the users collection. The live coordinator only calls
// FindByID/SetOnline/SetOffline; the rest serves the auth routes.
type UserStore struct {
	db *mongo.Database
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) coll() *mongo.Collection {
	return s.db.Collection(userCollection)
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*usermodel.User, error) {
	var u usermodel.User
	err := s.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by id")
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	var u usermodel.User
	err := s.coll().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by email")
	}
	return &u, nil
}

// ExistsByEmailOrUsername backs the registration duplicate check.
func (s *UserStore) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	n, err := s.coll().CountDocuments(ctx, bson.M{
		"$or": bson.A{bson.M{"email": email}, bson.M{"username": username}},
	})
	if err != nil {
		return false, errors.Wrap(err, "count users")
	}
	return n > 0, nil
}

func (s *UserStore) Create(ctx context.Context, username, email, passwordHash string) (*usermodel.User, error) {
	now := time.Now()
	u := &usermodel.User{
		ID:        ids.GenerateString(),
		Username:  username,
		Email:     email,
		Password:  passwordHash,
		IsOnline:  false,
		LastSeen:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.coll().InsertOne(ctx, u); err != nil {
		return nil, errors.Wrap(err, "insert user")
	}
	return u, nil
}

func (s *UserStore) SetOnline(ctx context.Context, id string, at time.Time) error {
	return s.setPresence(ctx, id, true, at)
}

func (s *UserStore) SetOffline(ctx context.Context, id string, at time.Time) error {
	return s.setPresence(ctx, id, false, at)
}

func (s *UserStore) setPresence(ctx context.Context, id string, online bool, at time.Time) error {
	_, err := s.coll().UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"is_online": online, "last_seen": at, "updated_at": at},
	})
	return errors.Wrapf(err, "set presence user=%s online=%v", id, online)
}

// FindPublicByIDs resolves member listings; preserves no particular order.
func (s *UserStore) FindPublicByIDs(ctx context.Context, userIDs []string) ([]usermodel.PublicUser, error) {
	if len(userIDs) == 0 {
		return []usermodel.PublicUser{}, nil
	}
	cur, err := s.coll().Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, errors.Wrap(err, "find users by ids")
	}
	defer cur.Close(ctx)

	var out []usermodel.PublicUser
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	return out, nil
}
