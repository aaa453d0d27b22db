package routes

import (
	"jewelconnect/internal/handlers"

	"github.com/gin-gonic/gin"
)

type MarketplaceRoutes struct {
	listingHandler *handlers.ListingHandler
	groupHandler   *handlers.GroupPurchaseHandler
}

func NewMarketplaceRoutes(listingHandler *handlers.ListingHandler, groupHandler *handlers.GroupPurchaseHandler) *MarketplaceRoutes {
	return &MarketplaceRoutes{listingHandler: listingHandler, groupHandler: groupHandler}
}

func (r *MarketplaceRoutes) RegisterRoutes(router *gin.RouterGroup) {
	listings := router.Group("/marketplace")
	{
		listings.GET("", r.listingHandler.List)
		listings.POST("", r.listingHandler.Create)
		listings.GET("/:id", r.listingHandler.Get)
		listings.PATCH("/:id", r.listingHandler.Update)
		listings.DELETE("/:id", r.listingHandler.Remove)
		listings.POST("/:id/sold", r.listingHandler.MarkSold)
	}

	groups := router.Group("/group-purchases")
	{
		groups.GET("", r.groupHandler.List)
		groups.POST("", r.groupHandler.Create)
		groups.GET("/:id", r.groupHandler.Get)
		groups.POST("/:id/join", r.groupHandler.Join)
		groups.DELETE("/:id/join", r.groupHandler.Leave)
		groups.POST("/:id/cancel", r.groupHandler.Cancel)
	}
}
