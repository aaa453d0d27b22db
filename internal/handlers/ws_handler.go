package handlers

import (
	"net/http"

	"jewelconnect/internal/realtime"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WSHandler struct {
	authService *services.AuthService
	hub         *realtime.Hub
	log         *zap.Logger
}

func NewWSHandler(authService *services.AuthService, hub *realtime.Hub, log *zap.Logger) *WSHandler {
	return &WSHandler{authService: authService, hub: hub, log: log}
}

// Connect handles GET /ws?token=<access token>. Browsers cannot set headers
// on WebSocket requests, so the token travels in the query string.
func (h *WSHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		fail(c, services.ErrInvalidToken, "Missing token")
		return
	}
	claims, err := h.authService.Authenticate(c.Request.Context(), token)
	if err != nil {
		fail(c, err, "Invalid or expired token")
		return
	}
	actor, err := h.authService.Actor(c.Request.Context(), claims)
	if err != nil {
		fail(c, err, "Access denied")
		return
	}

	if err := h.hub.Serve(c.Writer, c.Request, actor.ID); err != nil {
		// The upgrader has already written an HTTP error.
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		if !c.Writer.Written() {
			c.Status(http.StatusBadRequest)
		}
	}
}
