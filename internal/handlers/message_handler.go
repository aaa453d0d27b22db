package handlers

import (
	"net/http"
	"strconv"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) Conversations(c *gin.Context) {
	convs, err := h.messageService.Conversations(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		fail(c, err, "Failed to retrieve conversations")
		return
	}
	responses.Success(c, http.StatusOK, convs, "Conversations retrieved successfully")
}

func (h *MessageHandler) Thread(c *gin.Context) {
	partnerID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	before, err := queryTime(c, "before")
	if err != nil {
		badRequest(c, err, "Invalid cursor")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	msgs, err := h.messageService.Thread(c.Request.Context(), middlewares.UserID(c), partnerID, before, limit)
	if err != nil {
		fail(c, err, "Failed to retrieve messages")
		return
	}
	responses.Success(c, http.StatusOK, msgs, "Messages retrieved successfully")
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req struct {
		RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
		Body        string    `json:"body"         binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "recipient_id and body are required")
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), middlewares.UserID(c), req.RecipientID, req.Body)
	if err != nil {
		fail(c, err, "Could not send message")
		return
	}
	responses.Success(c, http.StatusCreated, msg, "Message sent")
}

func (h *MessageHandler) UnreadCount(c *gin.Context) {
	n, err := h.messageService.UnreadCount(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		fail(c, err, "Failed to count unread messages")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"unread": n}, "Unread count retrieved successfully")
}
