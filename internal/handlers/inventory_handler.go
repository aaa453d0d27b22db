package handlers

import (
	"net/http"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService *services.InventoryService
}

func NewInventoryHandler(inventoryService *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

type inventoryRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Category    *string `json:"category"    binding:"omitempty,max=80"`
	Material    *string `json:"material"    binding:"omitempty,max=120"`
	Gemstone    *string `json:"gemstone"    binding:"omitempty,max=120"`
	PriceCents  *int64  `json:"price_cents"`
	ClearPrice  bool    `json:"clear_price"`
	Quantity    *int    `json:"quantity"`
	ImageURL    *string `json:"image_url"   binding:"omitempty,max=500"`
	IsPublic    *bool   `json:"is_public"`
}

func (r inventoryRequest) input() services.InventoryInput {
	return services.InventoryInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Material:    r.Material,
		Gemstone:    r.Gemstone,
		PriceCents:  r.PriceCents,
		ClearPrice:  r.ClearPrice,
		Quantity:    r.Quantity,
		ImageURL:    r.ImageURL,
		IsPublic:    r.IsPublic,
	}
}

func (h *InventoryHandler) Mine(c *gin.Context) {
	items, err := h.inventoryService.Mine(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		fail(c, err, "Failed to retrieve inventory")
		return
	}
	responses.Success(c, http.StatusOK, items, "Inventory retrieved successfully")
}

// Showcase handles GET /api/users/:id/inventory
func (h *InventoryHandler) Showcase(c *gin.Context) {
	ownerID, ok := paramID(c, "id")
	if !ok {
		return
	}
	items, err := h.inventoryService.Showcase(c.Request.Context(), middlewares.UserID(c), ownerID)
	if err != nil {
		fail(c, err, "Failed to retrieve inventory")
		return
	}
	responses.Success(c, http.StatusOK, items, "Inventory retrieved successfully")
}

func (h *InventoryHandler) Create(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid inventory data")
		return
	}
	if req.Name == nil {
		badRequest(c, nil, "name is required")
		return
	}

	item, err := h.inventoryService.Create(c.Request.Context(), middlewares.UserID(c), req.input())
	if err != nil {
		fail(c, err, "Could not create inventory item")
		return
	}
	responses.Success(c, http.StatusCreated, item, "Inventory item created successfully")
}

func (h *InventoryHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid inventory data")
		return
	}

	item, err := h.inventoryService.Update(c.Request.Context(), middlewares.UserID(c), id, req.input())
	if err != nil {
		fail(c, err, "Could not update inventory item")
		return
	}
	responses.Success(c, http.StatusOK, item, "Inventory item updated successfully")
}

func (h *InventoryHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.inventoryService.Delete(c.Request.Context(), middlewares.UserID(c), id); err != nil {
		fail(c, err, "Could not delete inventory item")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Inventory item deleted successfully")
}
