package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
)

const (
	guestTokenHeader = "X-Guest-Token"
	actorKey         = "actor"
	sessionKeyKey    = "session_key"
)

// Authenticator resolves an access token to its user and session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error)
}

// Authenticate identifies the caller. A Bearer token must be valid when
// present; requests without one continue as anonymous or guest callers.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := domain.Actor{GuestToken: c.GetHeader(guestTokenHeader)}

		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			user, session, err := auth.Authenticate(c.Request.Context(), token)
			if err != nil {
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
			actor.UserID = user.ID
			actor.Role = user.Role
			actor.FullName = user.FullName
			c.Set(sessionKeyKey, session.SessionKey)
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// RequireUser rejects anonymous and guest callers.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ActorFrom(c).IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if !actor.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the caller identified by Authenticate.
func ActorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}

// SessionKeyFrom returns the session key of an authenticated caller.
func SessionKeyFrom(c *gin.Context) string {
	return c.GetString(sessionKeyKey)
}
