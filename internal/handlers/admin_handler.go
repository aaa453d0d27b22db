package handlers

import (
	"net/http"
	"strconv"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/models"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to compute statistics")
		return
	}
	responses.Success(c, http.StatusOK, stats, "Statistics retrieved successfully")
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, meta, err := h.adminService.Users(c.Request.Context(), models.DirectoryFilter{
		Query:          c.Query("q"),
		Role:           c.Query("role"),
		Status:         c.Query("status"),
		IncludeDeleted: queryBool(c, "include_deleted"),
		Page:           pageFrom(c),
	})
	if err != nil {
		fail(c, err, "Failed to retrieve users")
		return
	}
	responses.Paged(c, users, meta, "Users retrieved successfully")
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role   *string `json:"role"`
		Status *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid user update")
		return
	}
	if req.Role == nil && req.Status == nil {
		badRequest(c, nil, "role or status is required")
		return
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), middlewares.UserID(c), id, services.AdminUserUpdate{
		Role:   req.Role,
		Status: req.Status,
	})
	if err != nil {
		fail(c, err, "Could not update user")
		return
	}
	responses.Success(c, http.StatusOK, user, "User updated successfully")
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteUser(c.Request.Context(), middlewares.UserID(c), id); err != nil {
		fail(c, err, "Could not delete user")
		return
	}
	responses.Success(c, http.StatusOK, nil, "User deleted successfully")
}

func (h *AdminHandler) Developers(c *gin.Context) {
	users, meta, err := h.adminService.Developers(c.Request.Context(), pageFrom(c))
	if err != nil {
		fail(c, err, "Failed to retrieve developers")
		return
	}
	responses.Paged(c, users, meta, "Developers retrieved successfully")
}

func (h *AdminHandler) GrantDeveloper(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.adminService.GrantDeveloper(c.Request.Context(), middlewares.UserID(c), id)
	if err != nil {
		fail(c, err, "Could not grant developer access")
		return
	}
	responses.Success(c, http.StatusOK, user, "Developer access granted")
}

func (h *AdminHandler) RevokeDeveloper(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.adminService.RevokeDeveloper(c.Request.Context(), middlewares.UserID(c), id)
	if err != nil {
		fail(c, err, "Could not revoke developer access")
		return
	}
	responses.Success(c, http.StatusOK, user, "Developer access revoked")
}

func (h *AdminHandler) APIKeys(c *gin.Context) {
	keys, err := h.adminService.APIKeys(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to retrieve API keys")
		return
	}
	responses.Success(c, http.StatusOK, keys, "API keys retrieved successfully")
}

func (h *AdminHandler) RevokeAPIKey(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	key, err := h.adminService.RevokeAPIKey(c.Request.Context(), middlewares.UserID(c), id)
	if err != nil {
		fail(c, err, "Could not revoke API key")
		return
	}
	responses.Success(c, http.StatusOK, key, "API key revoked")
}

func (h *AdminHandler) Audit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.adminService.Audit(c.Request.Context(), limit)
	if err != nil {
		fail(c, err, "Failed to retrieve audit log")
		return
	}
	responses.Success(c, http.StatusOK, entries, "Audit log retrieved successfully")
}
