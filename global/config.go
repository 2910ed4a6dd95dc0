package global

import (
	"context"
	"os"
	"strconv"
	"time"

	"ChatRelay/data/database/mgo/mongoutil"
	"ChatRelay/service/storage"
	"ChatRelay/tools/ids"
	"ChatRelay/tools/security"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func ConfigIds() {
	node, _ := strconv.ParseInt(env("NODE_ID", "1"), 10, 64)
	ids.SetNodeID(node)
}

func GetJwtSecret() []byte {
	return []byte(env("JWT_SECRET", "mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o="))
}

func JwtOptions() security.Options {
	return security.DefaultOptions(GetJwtSecret())
}

func ConfigRedis() error {
	return storage.InitRedis(storage.Config{
		Addr:     env("REDIS_ADDR", "127.0.0.1:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
}

func ConfigMongo(ctx context.Context) (*mongoutil.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cfg := &mongoutil.Config{
		Uri:         env("MONGODB_URI", "mongodb://localhost:27017"),
		Database:    env("MONGO_DATABASE", "chatrelay"),
		Username:    os.Getenv("MONGO_USERNAME"),
		Password:    os.Getenv("MONGO_PASSWORD"),
		MaxPoolSize: 20,
		MaxRetry:    3,
	}
	return mongoutil.NewMongoDB(ctx, cfg)
}

func HTTPAddr() string {
	return env("HTTP_ADDR", ":8080")
}
