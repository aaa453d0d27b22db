package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"
	"jewelconnect/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys shared with handlers.
const (
	UserIDKey = "userId"
	ClaimsKey = "claims"
	ActorKey  = "actor"
	APIKeyKey = "apiKey"
)

// Authenticate verifies the bearer access token and loads the caller.
func Authenticate(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, nil, "Missing Authorization header")
			return
		}

		// Expected format: "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, http.StatusUnauthorized, nil, "Invalid Authorization format")
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			abort(c, authStatus(err), err, "Invalid or expired token")
			return
		}
		actor, err := auth.Actor(c.Request.Context(), claims)
		if err != nil {
			abort(c, authStatus(err), err, "Access denied")
			return
		}

		c.Set(UserIDKey, actor.ID)
		c.Set(ClaimsKey, claims)
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// UserID returns the authenticated user id.
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func CurrentActor(c *gin.Context) services.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if a, ok := v.(services.Actor); ok {
			return a
		}
	}
	return services.Actor{}
}

func CurrentClaims(c *gin.Context) *utils.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*utils.Claims); ok {
			return claims
		}
	}
	return nil
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, err error, message string) {
	if status >= http.StatusInternalServerError {
		err = errors.New("internal server error")
	}
	responses.Fail(c, status, err, message)
	c.Abort()
}
