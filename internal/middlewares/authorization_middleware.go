package middlewares

import (
	"net/http"

	"jewelconnect/internal/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole admits callers holding one of roles.
// This middleware should be used after Authenticate.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if actor.Role == "" {
			abort(c, http.StatusUnauthorized, nil, "Unauthorized")
			return
		}
		if !utils.Contains(roles, actor.Role) {
			abort(c, http.StatusForbidden, nil, "Access denied. Insufficient privileges.")
			return
		}
		c.Next()
	}
}
