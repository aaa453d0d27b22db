package routes

import (
	"jewelconnect/internal/handlers"

	"github.com/gin-gonic/gin"
)

type AdminRoutes struct {
	adminHandler *handlers.AdminHandler
	orderHandler *handlers.OrderHandler
}

func NewAdminRoutes(adminHandler *handlers.AdminHandler, orderHandler *handlers.OrderHandler) *AdminRoutes {
	return &AdminRoutes{adminHandler: adminHandler, orderHandler: orderHandler}
}

// RegisterRoutes expects a group already restricted to admins.
func (r *AdminRoutes) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/stats", r.adminHandler.Stats)
	admin.GET("/audit", r.adminHandler.Audit)

	admin.GET("/users", r.adminHandler.ListUsers)
	admin.PATCH("/users/:id", r.adminHandler.UpdateUser)
	admin.DELETE("/users/:id", r.adminHandler.DeleteUser)

	admin.GET("/developers", r.adminHandler.Developers)
	admin.POST("/developers/:id", r.adminHandler.GrantDeveloper)
	admin.DELETE("/developers/:id", r.adminHandler.RevokeDeveloper)

	admin.GET("/api-keys", r.adminHandler.APIKeys)
	admin.DELETE("/api-keys/:id", r.adminHandler.RevokeAPIKey)

	admin.GET("/orders", r.orderHandler.ListAll)
	admin.PATCH("/orders/:id/status", r.orderHandler.UpdateStatus)
}
