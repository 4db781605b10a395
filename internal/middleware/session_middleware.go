package middleware

import (
	"net/http"
	"strings"

	"pos_tables_backend/internal/services"
	"pos_tables_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SessionContextKey is the gin context key holding the *services.Session.
const SessionContextKey = "session"

// SessionMiddleware resolves the bearer session token to a live session.
// It identifies a table screen; it does not authenticate a user.
func SessionMiddleware(secret []byte, sessions services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", ""))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid authorization header format. Use Bearer <token>", ""))
			return
		}

		claims, err := utils.ValidateSessionToken(secret, parts[1])
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired session token", err.Error()))
			return
		}

		session, err := sessions.Get(claims.SessionID)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Session not found or expired", err.Error()))
			return
		}

		c.Set(SessionContextKey, session)
		c.Set("branch", claims.Branch)
		c.Set("posProfile", claims.Profile)

		c.Next()
	}
}

// CurrentSession returns the session stored by SessionMiddleware.
func CurrentSession(c *gin.Context) (*services.Session, bool) {
	value, exists := c.Get(SessionContextKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*services.Session)
	return session, ok
}
