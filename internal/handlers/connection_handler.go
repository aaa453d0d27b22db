package handlers

import (
	"net/http"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConnectionHandler struct {
	connectionService *services.ConnectionService
}

func NewConnectionHandler(connectionService *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

func (h *ConnectionHandler) Request(c *gin.Context) {
	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "user_id is required")
		return
	}

	conn, err := h.connectionService.Request(c.Request.Context(), middlewares.UserID(c), req.UserID)
	if err != nil {
		fail(c, err, "Could not send connection request")
		return
	}
	responses.Success(c, http.StatusCreated, conn, "Connection request sent")
}

func (h *ConnectionHandler) List(c *gin.Context) {
	conns, err := h.connectionService.List(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		fail(c, err, "Failed to retrieve connections")
		return
	}
	responses.Success(c, http.StatusOK, conns, "Connections retrieved successfully")
}

func (h *ConnectionHandler) Pending(c *gin.Context) {
	outgoing := c.Query("direction") == "sent"
	conns, err := h.connectionService.Pending(c.Request.Context(), middlewares.UserID(c), outgoing)
	if err != nil {
		fail(c, err, "Failed to retrieve pending requests")
		return
	}
	responses.Success(c, http.StatusOK, conns, "Pending requests retrieved successfully")
}

func (h *ConnectionHandler) Respond(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action" binding:"required,oneof=accept reject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "action must be accept or reject")
		return
	}

	conn, err := h.connectionService.Respond(c.Request.Context(), middlewares.UserID(c), id, req.Action)
	if err != nil {
		fail(c, err, "Could not respond to connection request")
		return
	}
	responses.Success(c, http.StatusOK, conn, "Connection request "+conn.Status)
}

func (h *ConnectionHandler) Remove(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.connectionService.Remove(c.Request.Context(), middlewares.UserID(c), id); err != nil {
		fail(c, err, "Could not remove connection")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Connection removed")
}
