package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hadithhub/hadith-backend/internal/logger"
)

const userIDKey = "auth_user_id"

// AuthMiddleware extracts the caller's identity. Token verification lives
// in the upstream gateway; by the time requests land here the user id is
// carried in the X-User-ID header.
type AuthMiddleware struct {
	log *logger.Logger
}

func NewAuthMiddleware(baseLog *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{log: baseLog.With("middleware", "AuthMiddleware")}
}

func (m *AuthMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid user identity"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user for the request; the
// middleware guarantees it is set on protected routes.
func CurrentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
