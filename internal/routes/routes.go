package routes

import (
	"jewelconnect/internal/handlers"
	"jewelconnect/internal/metrics"
	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/models"

	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler the API serves.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Google        *handlers.GoogleAuthHandler
	User          *handlers.UserHandler
	Connection    *handlers.ConnectionHandler
	Message       *handlers.MessageHandler
	Event         *handlers.EventHandler
	Inventory     *handlers.InventoryHandler
	Gemstone      *handlers.GemstoneHandler
	Cart          *handlers.CartHandler
	Order         *handlers.OrderHandler
	Listing       *handlers.ListingHandler
	GroupPurchase *handlers.GroupPurchaseHandler
	Admin         *handlers.AdminHandler
	Developer     *handlers.DeveloperHandler
	Public        *handlers.PublicHandler
	WS            *handlers.WSHandler
	Health        *handlers.HealthHandler
}

// Guards are the access middlewares applied per route group.
type Guards struct {
	Authenticate gin.HandlerFunc
	APIKey       gin.HandlerFunc
	// RateLimit applies to everything under /api. Nil disables it.
	RateLimit gin.HandlerFunc
}

func RegisterRoutes(router *gin.Engine, h Handlers, g Guards) {
	router.GET("/", h.Health.Root)
	router.GET("/healthz", h.Health.Healthz)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/ws", h.WS.Connect)

	api := router.Group("/api")
	if g.RateLimit != nil {
		api.Use(g.RateLimit)
	}

	NewAuthRoutes(h.Auth, h.Google, g.Authenticate).RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(g.Authenticate)

	NewUserRoutes(h.User, h.Inventory, h.Event).RegisterRoutes(protected)
	NewSocialRoutes(h.Connection, h.Message).RegisterRoutes(protected)
	NewEventRoutes(h.Event).RegisterRoutes(protected)
	NewCommerceRoutes(h.Inventory, h.Gemstone, h.Cart, h.Order).RegisterRoutes(protected)
	NewMarketplaceRoutes(h.Listing, h.GroupPurchase).RegisterRoutes(protected)

	admin := protected.Group("/admin")
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	NewAdminRoutes(h.Admin, h.Order).RegisterRoutes(admin)

	developer := protected.Group("/developer")
	developer.Use(middlewares.RequireRole(models.RoleDeveloper, models.RoleAdmin))
	NewDeveloperRoutes(h.Developer).RegisterRoutes(developer)

	public := api.Group("/public")
	public.Use(g.APIKey)
	{
		public.GET("/gemstones", h.Public.Gemstones)
		public.GET("/marketplace", h.Public.Listings)
	}
}
