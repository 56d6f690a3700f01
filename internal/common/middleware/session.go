package middleware

import (
	"github.com/gin-gonic/gin"

	"accounts-backend/internal/common/errors"
	"accounts-backend/internal/features/session"
	"accounts-backend/internal/features/user/models"
	"accounts-backend/internal/features/user/service"
)

const (
	// ContextIdentity is the gin context key holding the SessionIdentity.
	ContextIdentity = "identity"
	// ContextSessionID is the gin context key holding the session id.
	ContextSessionID = "session_id"
)

// SessionAuth resolves the session cookie into a SessionIdentity and puts
// it on the context. Requests without a valid session pass through
// unauthenticated; RequireSession enforces presence.
func SessionAuth(store session.Store, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cookieName)
		if err != nil || sessionID == "" {
			c.Next()
			return
		}

		identity, err := store.Get(c.Request.Context(), sessionID)
		if err != nil {
			// Expired or unknown session: continue unauthenticated.
			c.Next()
			return
		}

		c.Set(ContextIdentity, identity)
		c.Set(ContextSessionID, sessionID)
		c.Next()
	}
}

// RequireSession aborts with 401 when no session identity is present.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ContextIdentity); !exists {
			AbortWithError(c, errors.NewAuthenticationError("login required"))
			return
		}
		c.Next()
	}
}

// RequireAdmin loads the authenticated user's record and aborts unless
// its role is admin. The session identity carries no role, so the check
// always runs against the current record.
func RequireAdmin(userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := GetIdentity(c)
		if !exists {
			AbortWithError(c, errors.NewAuthenticationError("login required"))
			return
		}

		user, err := userService.GetUser(c.Request.Context(), identity.ID)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		if user.Role != models.RoleAdmin {
			AbortWithError(c, errors.NewForbiddenError("admin access required"))
			return
		}

		c.Next()
	}
}

// GetIdentity returns the SessionIdentity set by SessionAuth, if any.
func GetIdentity(c *gin.Context) (*models.SessionIdentity, bool) {
	value, exists := c.Get(ContextIdentity)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*models.SessionIdentity)
	return identity, ok
}
