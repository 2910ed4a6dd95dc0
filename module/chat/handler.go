package chat

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	midsec "ChatRelay/middleware/security"
	chatmodel "ChatRelay/module/chat/model"
	"ChatRelay/module/chat/service"
	usermodel "ChatRelay/module/user/model"
	"ChatRelay/tools/errs"
	"ChatRelay/tools/ids"

	"github.com/gin-gonic/gin"
)

// The handlers take their stores as interfaces so they can be exercised
// against in-memory fakes; the mongo stores satisfy them.

type roomDirectory interface {
	List(ctx context.Context) ([]chatmodel.Room, error)
	Create(ctx context.Context, name, creatorID string) (*chatmodel.Room, error)
	JoinExplicit(ctx context.Context, userID, roomID string) (*chatmodel.Room, error)
	FindByID(ctx context.Context, id string) (*chatmodel.Room, error)
}

type memberResolver interface {
	FindPublicByIDs(ctx context.Context, userIDs []string) ([]usermodel.PublicUser, error)
}

type messageArchive interface {
	Insert(ctx context.Context, msg *chatmodel.Message) error
	History(ctx context.Context, room string, page, limit int) ([]chatmodel.Message, error)
}

// RoomHandler serves the explicit (REST) room surface. Note the policy
// split with the live path: here a join addresses a room by id the client
// got from a listing, so a missing id is a 404, while the live joinRoom
// event auto-creates by name.
type RoomHandler struct {
	rooms roomDirectory
	users memberResolver
}

func NewRoomHandler(rooms roomDirectory, users memberResolver) *RoomHandler {
	return &RoomHandler{rooms: rooms, users: users}
}

func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.rooms.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	out := make([]gin.H, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, gin.H{"id": r.ID, "name": r.Name})
	}
	c.JSON(http.StatusOK, out)
}

func (h *RoomHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Room name required"})
		return
	}
	u := midsec.CurrentUser(c)
	room, err := h.rooms.Create(c.Request.Context(), req.Name, u.ID)
	if errors.Is(err, errs.ErrRoomAlreadyExists) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Room already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) Join(c *gin.Context) {
	u := midsec.CurrentUser(c)
	room, err := h.rooms.JoinExplicit(c.Request.Context(), u.ID, c.Param("roomId"))
	if errors.Is(err, errs.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) Members(c *gin.Context) {
	room, err := h.rooms.FindByID(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		return
	}
	members, err := h.users.FindPublicByIDs(c.Request.Context(), room.Users)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, members)
}

// MessageHandler serves history pagination and the API-path send (no
// broadcast; live delivery is the coordinator's job).
type MessageHandler struct {
	messages messageArchive
	users    memberResolver
}

func NewMessageHandler(messages messageArchive, users memberResolver) *MessageHandler {
	return &MessageHandler{messages: messages, users: users}
}

func (h *MessageHandler) History(c *gin.Context) {
	room := c.Param("room")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultHistoryLimit)))

	msgs, err := h.messages.History(c.Request.Context(), room, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	usernames, err := h.senderUsernames(c, msgs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	out := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, gin.H{
			"id":          m.ID,
			"content":     m.Content,
			"sender":      gin.H{"id": m.Sender, "username": usernames[m.Sender]},
			"room":        m.Room,
			"messageType": m.MessageType,
			"createdAt":   m.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *MessageHandler) senderUsernames(c *gin.Context, msgs []chatmodel.Message) (map[string]string, error) {
	seen := make(map[string]struct{})
	idList := make([]string, 0)
	for _, m := range msgs {
		if _, ok := seen[m.Sender]; !ok {
			seen[m.Sender] = struct{}{}
			idList = append(idList, m.Sender)
		}
	}
	users, err := h.users.FindPublicByIDs(c.Request.Context(), idList)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(users))
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}

func (h *MessageHandler) Post(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
		Room    string `json:"room"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Content required"})
		return
	}
	if utf8.RuneCountInString(req.Content) > chatmodel.MaxContentLen {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Content too long"})
		return
	}
	if req.Room == "" {
		req.Room = "general"
	}

	u := midsec.CurrentUser(c)
	msg := &chatmodel.Message{
		ID:          ids.GenerateString(),
		Sender:      u.ID,
		Content:     req.Content,
		Room:        req.Room,
		MessageType: chatmodel.MessageTypeText,
		CreatedAt:   time.Now(),
	}
	if err := h.messages.Insert(c.Request.Context(), msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, msg)
}
