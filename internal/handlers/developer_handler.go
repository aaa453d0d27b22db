package handlers

import (
	"errors"
	"io"
	"net/http"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
)

type DeveloperHandler struct {
	apiKeyService *services.APIKeyService
}

func NewDeveloperHandler(apiKeyService *services.APIKeyService) *DeveloperHandler {
	return &DeveloperHandler{apiKeyService: apiKeyService}
}

func (h *DeveloperHandler) ListKeys(c *gin.Context) {
	keys, err := h.apiKeyService.List(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		fail(c, err, "Failed to retrieve API keys")
		return
	}
	responses.Success(c, http.StatusOK, keys, "API keys retrieved successfully")
}

func (h *DeveloperHandler) CreateKey(c *gin.Context) {
	var req struct {
		Description   string `json:"description" binding:"max=200"`
		ExpiresInDays *int   `json:"expires_in_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err, "Invalid API key request")
		return
	}

	plain, key, err := h.apiKeyService.Create(c.Request.Context(), middlewares.UserID(c), req.Description, req.ExpiresInDays)
	if err != nil {
		fail(c, err, "Could not create API key")
		return
	}
	responses.Success(c, http.StatusCreated, gin.H{"key": plain, "api_key": key},
		"API key created. Store it now, it will not be shown again")
}

func (h *DeveloperHandler) RevokeKey(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	key, err := h.apiKeyService.Revoke(c.Request.Context(), middlewares.CurrentActor(c), id)
	if err != nil {
		fail(c, err, "Could not revoke API key")
		return
	}
	responses.Success(c, http.StatusOK, key, "API key revoked")
}
