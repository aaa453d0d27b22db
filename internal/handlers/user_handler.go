package handlers

import (
	"net/http"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/models"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, meta, err := h.userService.Directory(c.Request.Context(), models.DirectoryFilter{
		Query:     c.Query("q"),
		UserType:  c.Query("user_type"),
		Location:  c.Query("location"),
		Specialty: c.Query("specialty"),
		Page:      pageFrom(c),
	})
	if err != nil {
		fail(c, err, "Failed to search directory")
		return
	}
	responses.Paged(c, users, meta, "Users retrieved successfully")
}

// GetMe handles GET /api/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		fail(c, err, "Failed to retrieve user")
		return
	}
	responses.Success(c, http.StatusOK, user, "User retrieved successfully")
}

// GetUser handles GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	profile, err := h.userService.Profile(c.Request.Context(), middlewares.UserID(c), id)
	if err != nil {
		fail(c, err, "Failed to retrieve user")
		return
	}
	responses.Success(c, http.StatusOK, profile, "User retrieved successfully")
}

// UpdateMe handles PATCH /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		FullName     *string  `json:"full_name"     binding:"omitempty,min=1,max=120"`
		BusinessName *string  `json:"business_name" binding:"omitempty,max=160"`
		UserType     *string  `json:"user_type"`
		Bio          *string  `json:"bio"           binding:"omitempty,max=2000"`
		Location     *string  `json:"location"      binding:"omitempty,max=160"`
		Specialties  []string `json:"specialties"   binding:"omitempty,max=20,dive,max=60"`
		Website      *string  `json:"website"       binding:"omitempty,max=255"`
		Phone        *string  `json:"phone"         binding:"omitempty,max=40"`
		AvatarURL    *string  `json:"avatar_url"    binding:"omitempty,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid profile data")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middlewares.UserID(c), services.ProfileUpdate{
		FullName:     req.FullName,
		BusinessName: req.BusinessName,
		UserType:     req.UserType,
		Bio:          req.Bio,
		Location:     req.Location,
		Specialties:  req.Specialties,
		Website:      req.Website,
		Phone:        req.Phone,
		AvatarURL:    req.AvatarURL,
	})
	if err != nil {
		fail(c, err, "Failed to update profile")
		return
	}
	responses.Success(c, http.StatusOK, user, "Profile updated successfully")
}

// DeleteMe handles DELETE /api/users/me
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.userService.DeleteAccount(c.Request.Context(), middlewares.UserID(c)); err != nil {
		fail(c, err, "Failed to delete account")
		return
	}
	clearRefreshCookie(c)
	responses.Success(c, http.StatusOK, nil, "Account deleted successfully")
}
