package handlers

import (
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PublicHandler serves the read-only catalog to API key holders.
type PublicHandler struct {
	gemstoneService *services.GemstoneService
	listingService  *services.ListingService
}

func NewPublicHandler(gemstoneService *services.GemstoneService, listingService *services.ListingService) *PublicHandler {
	return &PublicHandler{gemstoneService: gemstoneService, listingService: listingService}
}

func (h *PublicHandler) Gemstones(c *gin.Context) {
	f, err := gemstoneFilter(c)
	if err != nil {
		badRequest(c, err, "Invalid filter")
		return
	}
	gems, meta, err := h.gemstoneService.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err, "Failed to retrieve gemstones")
		return
	}
	responses.Paged(c, gems, meta, "Gemstones retrieved successfully")
}

func (h *PublicHandler) Listings(c *gin.Context) {
	f, err := listingFilter(c)
	if err != nil {
		badRequest(c, err, "Invalid filter")
		return
	}
	listings, meta, err := h.listingService.List(c.Request.Context(), uuid.Nil, f)
	if err != nil {
		fail(c, err, "Failed to retrieve listings")
		return
	}
	responses.Paged(c, listings, meta, "Listings retrieved successfully")
}
