package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/scantech/team-tasks/internal/constants"
	apierrors "github.com/scantech/team-tasks/internal/errors"
	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/services"
)

// RequireAuth checks if the user is authenticated via bearer token or session
func RequireAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := authenticate(c, authService)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Store user in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUser, *user)
		c.Next()
	}
}

// RequireTeamLeader rejects users that do not lead the team. It must run after RequireAuth.
func RequireTeamLeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetCurrentUser(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if !user.IsTeamLeader() {
			apierrors.LeaderRequired(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authService *services.AuthService) (*models.User, bool) {
	if token, present, ok := BearerToken(c); present {
		if !ok {
			return nil, false
		}
		user, err := authService.Authenticate(token)
		if err != nil {
			return nil, false
		}
		return user, true
	}

	session := sessions.Default(c)
	userID, ok := toUint64(session.Get(constants.ContextKeyUserID))
	if !ok {
		return nil, false
	}
	user, err := authService.GetUser(userID)
	if err != nil {
		return nil, false
	}
	return user, true
}

// BearerToken extracts the token of an Authorization header. present reports
// whether the header was sent at all, ok whether it is a well-formed bearer.
func BearerToken(c *gin.Context) (token string, present, ok bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true, false
	}
	return strings.TrimSpace(parts[1]), true, true
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUint64(userID)
}

// GetCurrentUser retrieves the authenticated user from context
func GetCurrentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}

func toUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
