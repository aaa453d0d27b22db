package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GroupPurchaseHandler struct {
	groupService *services.GroupPurchaseService
}

func NewGroupPurchaseHandler(groupService *services.GroupPurchaseService) *GroupPurchaseHandler {
	return &GroupPurchaseHandler{groupService: groupService}
}

func (h *GroupPurchaseHandler) List(c *gin.Context) {
	groups, meta, err := h.groupService.List(c.Request.Context(), c.Query("status"), pageFrom(c))
	if err != nil {
		fail(c, err, "Failed to retrieve group purchases")
		return
	}
	responses.Paged(c, groups, meta, "Group purchases retrieved successfully")
}

func (h *GroupPurchaseHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	gp, err := h.groupService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Failed to retrieve group purchase")
		return
	}
	responses.Success(c, http.StatusOK, gp, "Group purchase retrieved successfully")
}

func (h *GroupPurchaseHandler) Create(c *gin.Context) {
	var req struct {
		GemstoneID     uuid.UUID `json:"gemstone_id"      binding:"required"`
		Title          string    `json:"title"            binding:"required,max=200"`
		Description    string    `json:"description"      binding:"max=5000"`
		TargetQuantity int       `json:"target_quantity"  binding:"required"`
		UnitPriceCents int64     `json:"unit_price_cents" binding:"required,min=1"`
		Deadline       time.Time `json:"deadline"         binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid group purchase data")
		return
	}

	gp, err := h.groupService.Create(c.Request.Context(), middlewares.UserID(c), services.GroupPurchaseInput{
		GemstoneID:     req.GemstoneID,
		Title:          req.Title,
		Description:    req.Description,
		TargetQuantity: req.TargetQuantity,
		UnitPriceCents: req.UnitPriceCents,
		Deadline:       req.Deadline,
	})
	if err != nil {
		fail(c, err, "Could not create group purchase")
		return
	}
	responses.Success(c, http.StatusCreated, gp, "Group purchase created successfully")
}

func (h *GroupPurchaseHandler) Join(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity" binding:"omitempty,min=1,max=10000"`
	}
	// An empty body joins with a quantity of one.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err, "Invalid quantity")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	gp, err := h.groupService.Join(c.Request.Context(), middlewares.UserID(c), id, req.Quantity)
	if err != nil {
		fail(c, err, "Could not join group purchase")
		return
	}
	responses.Success(c, http.StatusOK, gp, "Joined group purchase")
}

func (h *GroupPurchaseHandler) Leave(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.groupService.Leave(c.Request.Context(), middlewares.UserID(c), id); err != nil {
		fail(c, err, "Could not leave group purchase")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Left group purchase")
}

func (h *GroupPurchaseHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	gp, err := h.groupService.Cancel(c.Request.Context(), middlewares.CurrentActor(c), id)
	if err != nil {
		fail(c, err, "Could not cancel group purchase")
		return
	}
	responses.Success(c, http.StatusOK, gp, "Group purchase cancelled")
}
