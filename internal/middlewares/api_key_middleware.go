package middlewares

import (
	"net/http"

	"jewelconnect/internal/models"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
)

const APIKeyHeader = "X-API-Key"

// RequireAPIKey admits requests carrying a live developer key.
func RequireAPIKey(keys *services.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(APIKeyHeader)
		if raw == "" {
			abort(c, http.StatusUnauthorized, nil, "Missing X-API-Key header")
			return
		}
		key, err := keys.Authenticate(c.Request.Context(), raw)
		if err != nil {
			abort(c, authStatus(err), err, "Invalid API key")
			return
		}
		c.Set(APIKeyKey, key)
		c.Next()
	}
}

func CurrentAPIKey(c *gin.Context) *models.APIKey {
	if v, ok := c.Get(APIKeyKey); ok {
		if k, ok := v.(*models.APIKey); ok {
			return k
		}
	}
	return nil
}
