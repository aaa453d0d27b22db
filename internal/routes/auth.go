package routes

import (
	"jewelconnect/internal/handlers"

	"github.com/gin-gonic/gin"
)

type AuthRoutes struct {
	handler       *handlers.AuthHandler
	googleHandler *handlers.GoogleAuthHandler
	authenticate  gin.HandlerFunc
}

func NewAuthRoutes(handler *handlers.AuthHandler, googleHandler *handlers.GoogleAuthHandler, authenticate gin.HandlerFunc) *AuthRoutes {
	return &AuthRoutes{handler: handler, googleHandler: googleHandler, authenticate: authenticate}
}

func (r *AuthRoutes) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		// Public routes
		auth.POST("/register", r.handler.Register)
		auth.POST("/login", r.handler.Login)
		auth.POST("/refresh", r.handler.Refresh)
		auth.GET("/google/login", r.googleHandler.Login)
		auth.GET("/google/callback", r.googleHandler.Callback)

		// Protected routes
		auth.POST("/logout", r.authenticate, r.handler.Logout)
	}
}
