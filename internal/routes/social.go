package routes

import (
	"jewelconnect/internal/handlers"

	"github.com/gin-gonic/gin"
)

type SocialRoutes struct {
	connectionHandler *handlers.ConnectionHandler
	messageHandler    *handlers.MessageHandler
}

func NewSocialRoutes(connectionHandler *handlers.ConnectionHandler, messageHandler *handlers.MessageHandler) *SocialRoutes {
	return &SocialRoutes{connectionHandler: connectionHandler, messageHandler: messageHandler}
}

func (r *SocialRoutes) RegisterRoutes(router *gin.RouterGroup) {
	connections := router.Group("/connections")
	{
		connections.GET("", r.connectionHandler.List)
		connections.POST("", r.connectionHandler.Request)
		connections.GET("/pending", r.connectionHandler.Pending)
		connections.PATCH("/:id", r.connectionHandler.Respond)
		connections.DELETE("/:id", r.connectionHandler.Remove)
	}

	messages := router.Group("/messages")
	{
		messages.GET("", r.messageHandler.Conversations)
		messages.POST("", r.messageHandler.Send)
		messages.GET("/unread-count", r.messageHandler.UnreadCount)
		messages.GET("/:userId", r.messageHandler.Thread)
	}
}
