package routes

import (
	"jewelconnect/internal/handlers"

	"github.com/gin-gonic/gin"
)

type CommerceRoutes struct {
	inventoryHandler *handlers.InventoryHandler
	gemstoneHandler  *handlers.GemstoneHandler
	cartHandler      *handlers.CartHandler
	orderHandler     *handlers.OrderHandler
}

func NewCommerceRoutes(inventoryHandler *handlers.InventoryHandler, gemstoneHandler *handlers.GemstoneHandler,
	cartHandler *handlers.CartHandler, orderHandler *handlers.OrderHandler) *CommerceRoutes {
	return &CommerceRoutes{
		inventoryHandler: inventoryHandler,
		gemstoneHandler:  gemstoneHandler,
		cartHandler:      cartHandler,
		orderHandler:     orderHandler,
	}
}

func (r *CommerceRoutes) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/inventory")
	{
		inventory.GET("", r.inventoryHandler.Mine)
		inventory.POST("", r.inventoryHandler.Create)
		inventory.PATCH("/:id", r.inventoryHandler.Update)
		inventory.DELETE("/:id", r.inventoryHandler.Delete)
	}

	gemstones := router.Group("/gemstones")
	{
		gemstones.GET("", r.gemstoneHandler.List)
		gemstones.POST("", r.gemstoneHandler.Create)
		gemstones.GET("/:id", r.gemstoneHandler.Get)
		gemstones.PATCH("/:id", r.gemstoneHandler.Update)
		gemstones.DELETE("/:id", r.gemstoneHandler.Delete)
	}

	cart := router.Group("/cart")
	{
		cart.GET("", r.cartHandler.Get)
		cart.POST("", r.cartHandler.Add)
		cart.DELETE("", r.cartHandler.Clear)
		cart.PATCH("/:itemId", r.cartHandler.SetQuantity)
		cart.DELETE("/:itemId", r.cartHandler.Remove)
	}

	orders := router.Group("/orders")
	{
		orders.GET("", r.orderHandler.List)
		orders.POST("", r.orderHandler.Checkout)
		orders.GET("/:id", r.orderHandler.Get)
		orders.POST("/:id/cancel", r.orderHandler.Cancel)
	}
}
