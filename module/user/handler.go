package user

import (
	"net/http"
	"time"

	midsec "ChatRelay/middleware/security"
	"ChatRelay/module/user/service"
	jwtlib "ChatRelay/tools/security"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// AuthHandler serves registration, login and the session-scoped user
// routes. The live coordinator treats all of this as an external
// collaborator; it only consumes the tokens minted here.
type AuthHandler struct {
	users *service.UserStore
	jwt   jwtlib.Options
}

func NewAuthHandler(users *service.UserStore, jwt jwtlib.Options) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 20 || req.Email == "" || len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid username, email or password"})
		return
	}

	exists, err := h.users.ExistsByEmailOrUsername(c.Request.Context(), req.Email, req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if exists {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists with this email or username"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	u, err := h.users.Create(c.Request.Context(), req.Username, req.Email, string(hash))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	token, _, err := jwtlib.Generate(h.jwt, u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  gin.H{"id": u.ID, "username": u.Username, "email": u.Email},
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	u, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	// Same answer for unknown email and wrong password.
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
		return
	}

	if err := h.users.SetOnline(c.Request.Context(), u.ID, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	token, _, err := jwtlib.Generate(h.jwt, u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": u.ID, "username": u.Username, "email": u.Email},
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	u := midsec.CurrentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{"id": u.ID, "username": u.Username, "email": u.Email},
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	u := midsec.CurrentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
		return
	}
	if err := h.users.SetOffline(c.Request.Context(), u.ID, time.Now()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
