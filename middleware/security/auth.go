package security

import (
	"context"
	"net/http"
	"strings"

	usermodel "ChatRelay/module/user/model"
	jwtlib "ChatRelay/tools/security"

	"github.com/gin-gonic/gin"
)

// CtxUserKey is where the middleware stores the resolved user.
const CtxUserKey = "currentUser"

// UserLoader resolves a verified token subject to a user record.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (*usermodel.User, error)
}

// Middleware authenticates the request from a bearer token and loads the
// user into the gin context. Every failure mode is a 401; no partial
// identity is ever attached.
func Middleware(opts jwtlib.Options, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token provided"})
			return
		}
		userID, err := jwtlib.Verify(opts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}
		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
			return
		}
		c.Set(CtxUserKey, user)
		c.Next()
	}
}

// CurrentUser reads the user the middleware attached.
func CurrentUser(c *gin.Context) *usermodel.User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*usermodel.User)
	return u
}

func bearerToken(c *gin.Context) string {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return authz
}
