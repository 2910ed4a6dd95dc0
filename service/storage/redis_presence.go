package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

var rdb *redis.Client

func InitRedis(c Config) error {
	rdb = redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return rdb.Ping(ctx).Err()
}

func CloseRedis() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}

// presence key: im:presence:<user>
// Value is the coordinator node id, TTL controls the online validity period.
func presenceKey(user string) string { return "im:presence:" + user }

// PresenceOnline sets the user as online and renews the TTL.
func PresenceOnline(ctx context.Context, user, nodeID string, ttl time.Duration) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), nodeID, ttl).Err()
}

// PresenceOffline actively sets the user offline (deletes the key).
func PresenceOffline(ctx context.Context, user string) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup checks whether the user is online.
func PresenceLookup(ctx context.Context, user string) (nodeID string, online bool, err error) {
	if rdb == nil {
		return "", false, fmt.Errorf("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
