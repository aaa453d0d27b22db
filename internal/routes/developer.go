package routes

import (
	"jewelconnect/internal/handlers"

	"github.com/gin-gonic/gin"
)

type DeveloperRoutes struct {
	handler *handlers.DeveloperHandler
}

func NewDeveloperRoutes(handler *handlers.DeveloperHandler) *DeveloperRoutes {
	return &DeveloperRoutes{handler: handler}
}

func (r *DeveloperRoutes) RegisterRoutes(developer *gin.RouterGroup) {
	developer.GET("/keys", r.handler.ListKeys)
	developer.POST("/keys", r.handler.CreateKey)
	developer.DELETE("/keys/:id", r.handler.RevokeKey)
}
