package service

import (
	"context"

	chatmodel "ChatRelay/module/chat/model"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messageCollection = "messages"

// DefaultHistoryLimit is the page size for history reads.
const DefaultHistoryLimit = 50

// MessageStore owns the messages collection. Messages are immutable once
// inserted; there is no update or delete path.
type MessageStore struct {
	db *mongo.Database
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) coll() *mongo.Collection {
	return s.db.Collection(messageCollection)
}

func (s *MessageStore) Insert(ctx context.Context, msg *chatmodel.Message) error {
	_, err := s.coll().InsertOne(ctx, msg)
	return errors.Wrapf(err, "insert message room=%s", msg.Room)
}

// History returns one page of a room's messages in chronological order.
// Page 1 is the most recent page: the read is newest-first, then the page
// is reversed before return.
func (s *MessageStore) History(ctx context.Context, room string, page, limit int) ([]chatmodel.Message, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := s.coll().Find(ctx, bson.M{"room": room}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "history room=%s", room)
	}
	defer cur.Close(ctx)

	var out []chatmodel.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	reverseMessages(out)
	return out, nil
}

func reverseMessages(msgs []chatmodel.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
