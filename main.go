package main

import (
	"context"
	"log"
	"os"

	"ChatRelay/global"
	"ChatRelay/logger"
	midsec "ChatRelay/middleware/security"
	chatmod "ChatRelay/module/chat"
	chatservice "ChatRelay/module/chat/service"
	usermod "ChatRelay/module/user"
	userservice "ChatRelay/module/user/service"
	"ChatRelay/service/chat"
	"ChatRelay/service/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	global.ConfigIds()

	nodeID := os.Getenv("NODE_ID")
	if nodeID == "" {
		nodeID = "chat-relay-1"
	}

	ctx := context.Background()
	mongo, err := global.ConfigMongo(ctx)
	if err != nil {
		log.Fatalf("mongo connect failed: %v", err)
	}
	defer func() { _ = mongo.Close(context.Background()) }()

	// The redis mirror is a fast-path online directory; the coordinator
	// runs fine without it.
	var mirror chat.PresenceMirror
	if err := global.ConfigRedis(); err != nil {
		logger.Warnf("redis unavailable, presence mirror disabled: %v", err)
	} else {
		mirror = &chat.RedisMirror{NodeID: nodeID}
		defer func() { _ = storage.CloseRedis() }()
	}

	db := mongo.GetDB()
	users := userservice.NewUserStore(db)
	rooms := chatservice.NewRoomStore(db)
	messages := chatservice.NewMessageStore(db)

	jwtOpts := global.JwtOptions()
	srv := chat.NewServer(nodeID, chat.Deps{
		Users:    users,
		Rooms:    rooms,
		Messages: messages,
		Mirror:   mirror,
		Jwt:      jwtOpts,
	})
	defer srv.Close()

	authHandler := usermod.NewAuthHandler(users, jwtOpts)
	roomHandler := chatmod.NewRoomHandler(rooms, users)
	messageHandler := chatmod.NewMessageHandler(messages, users)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", srv.HandleWS)

	api := r.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", midsec.Middleware(jwtOpts, users))
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/rooms", roomHandler.List)
	authed.POST("/rooms", roomHandler.Create)
	authed.POST("/rooms/:roomId/join", roomHandler.Join)
	authed.GET("/rooms/:roomId/users", roomHandler.Members)
	authed.GET("/messages/:room", messageHandler.History)
	authed.POST("/messages", messageHandler.Post)

	addr := global.HTTPAddr()
	logger.Infof("[HTTP] listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
