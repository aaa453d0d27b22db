package handlers

import (
	"net/http"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type OrderHandler struct {
	orderService *services.OrderService
	adminService *services.AdminService
}

func NewOrderHandler(orderService *services.OrderService, adminService *services.AdminService) *OrderHandler {
	return &OrderHandler{orderService: orderService, adminService: adminService}
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	var req struct {
		ShippingAddress string `json:"shipping_address" binding:"required,max=1000"`
		Notes           string `json:"notes"            binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "shipping_address is required")
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > 255 {
		badRequest(c, nil, "Idempotency-Key is too long")
		return
	}

	order, replayed, err := h.orderService.Checkout(c.Request.Context(), middlewares.UserID(c), services.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		IdempotencyKey:  key,
	})
	if err != nil {
		fail(c, err, "Checkout failed")
		return
	}
	if replayed {
		c.Header("Idempotent-Replayed", "true")
		responses.Success(c, http.StatusOK, order, "Order already placed")
		return
	}
	responses.Success(c, http.StatusCreated, order, "Order placed successfully")
}

func (h *OrderHandler) List(c *gin.Context) {
	orders, meta, err := h.orderService.List(c.Request.Context(), middlewares.UserID(c), pageFrom(c))
	if err != nil {
		fail(c, err, "Failed to retrieve orders")
		return
	}
	responses.Paged(c, orders, meta, "Orders retrieved successfully")
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Get(c.Request.Context(), middlewares.CurrentActor(c), id)
	if err != nil {
		fail(c, err, "Failed to retrieve order")
		return
	}
	responses.Success(c, http.StatusOK, order, "Order retrieved successfully")
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Cancel(c.Request.Context(), middlewares.UserID(c), id)
	if err != nil {
		fail(c, err, "Could not cancel order")
		return
	}
	responses.Success(c, http.StatusOK, order, "Order cancelled")
}

// ListAll handles GET /api/admin/orders
func (h *OrderHandler) ListAll(c *gin.Context) {
	orders, meta, err := h.orderService.ListAll(c.Request.Context(), c.Query("status"), pageFrom(c))
	if err != nil {
		fail(c, err, "Failed to retrieve orders")
		return
	}
	responses.Paged(c, orders, meta, "Orders retrieved successfully")
}

// UpdateStatus handles PATCH /api/admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "status is required")
		return
	}

	order, err := h.adminService.UpdateOrderStatus(c.Request.Context(), middlewares.UserID(c), id, req.Status)
	if err != nil {
		fail(c, err, "Could not update order status")
		return
	}
	responses.Success(c, http.StatusOK, order, "Order status updated")
}
