package routes

import (
	"jewelconnect/internal/handlers"

	"github.com/gin-gonic/gin"
)

type UserRoutes struct {
	userHandler      *handlers.UserHandler
	inventoryHandler *handlers.InventoryHandler
	eventHandler     *handlers.EventHandler
}

func NewUserRoutes(userHandler *handlers.UserHandler, inventoryHandler *handlers.InventoryHandler, eventHandler *handlers.EventHandler) *UserRoutes {
	return &UserRoutes{
		userHandler:      userHandler,
		inventoryHandler: inventoryHandler,
		eventHandler:     eventHandler,
	}
}

// RegisterRoutes expects an authenticated group.
func (r *UserRoutes) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		// Caller's own endpoints
		users.GET("/me", r.userHandler.GetMe)
		users.PATCH("/me", r.userHandler.UpdateMe)
		users.DELETE("/me", r.userHandler.DeleteMe)
		users.GET("/me/rsvps", r.eventHandler.MyRSVPs)

		// Directory
		users.GET("", r.userHandler.ListUsers)
		users.GET("/:id", r.userHandler.GetUser)
		users.GET("/:id/inventory", r.inventoryHandler.Showcase)
	}
}
