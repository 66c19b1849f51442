package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "filevaultUser"

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "filevault_session"

// ContextUser represents the authenticated principal stored in the request context.
type ContextUser struct {
	ID uuid.UUID
}

// Middleware authenticates the request from either the session cookie or an
// Authorization bearer token and injects the authenticated user.
func Middleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(SessionCookieName); err == nil && token != "" {
			userID, err := service.ValidateSession(c.Request.Context(), token)
			if err == nil {
				SetUser(c, ContextUser{ID: userID})
				c.Next()
				return
			}
		}

		bearer := extractBearerToken(c.GetHeader("Authorization"))
		if bearer != "" {
			userID, err := service.ValidateAccessToken(bearer)
			if err == nil {
				SetUser(c, ContextUser{ID: userID})
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
	}
}

// SetUser stores the authenticated principal on the request context.
func SetUser(c *gin.Context, user ContextUser) {
	c.Set(string(userContextKey), user)
}

// CurrentUser extracts the authenticated user from the context.
func CurrentUser(c *gin.Context) (ContextUser, bool) {
	value, exists := c.Get(string(userContextKey))
	if !exists {
		return ContextUser{}, false
	}
	user, ok := value.(ContextUser)
	return user, ok
}

// RequireUser fetches the authenticated user id.
func RequireUser(c *gin.Context) (uuid.UUID, bool) {
	user, ok := CurrentUser(c)
	if !ok || user.ID == uuid.Nil {
		return uuid.Nil, false
	}
	return user.ID, true
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
