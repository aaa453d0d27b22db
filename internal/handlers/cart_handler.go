package handlers

import (
	"net/http"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.cartService.Get(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		fail(c, err, "Failed to retrieve cart")
		return
	}
	responses.Success(c, http.StatusOK, cart, "Cart retrieved successfully")
}

func (h *CartHandler) Add(c *gin.Context) {
	var req struct {
		GemstoneID uuid.UUID `json:"gemstone_id" binding:"required"`
		Quantity   int       `json:"quantity"    binding:"omitempty,min=1,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "gemstone_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.cartService.Add(c.Request.Context(), middlewares.UserID(c), req.GemstoneID, req.Quantity)
	if err != nil {
		fail(c, err, "Could not add to cart")
		return
	}
	responses.Success(c, http.StatusOK, cart, "Item added to cart")
}

func (h *CartHandler) SetQuantity(c *gin.Context) {
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	var req struct {
		Quantity *int `json:"quantity" binding:"required,min=0,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "quantity is required")
		return
	}

	cart, err := h.cartService.SetQuantity(c.Request.Context(), middlewares.UserID(c), itemID, *req.Quantity)
	if err != nil {
		fail(c, err, "Could not update cart")
		return
	}
	responses.Success(c, http.StatusOK, cart, "Cart updated")
}

func (h *CartHandler) Remove(c *gin.Context) {
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	cart, err := h.cartService.Remove(c.Request.Context(), middlewares.UserID(c), itemID)
	if err != nil {
		fail(c, err, "Could not remove item")
		return
	}
	responses.Success(c, http.StatusOK, cart, "Item removed from cart")
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), middlewares.UserID(c)); err != nil {
		fail(c, err, "Could not clear cart")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Cart cleared")
}
