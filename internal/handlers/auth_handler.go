package handlers

import (
	"net/http"

	"jewelconnect/internal/middlewares"
	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"

	"github.com/gin-gonic/gin"
)

// Cookie configuration
const (
	RefreshTokenCookieName = "refresh_token"
	RefreshTokenMaxAge     = 30 * 24 * 3600 // 30 days in seconds
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshTokenCookieName, token, RefreshTokenMaxAge, "/", "", true, true)
}

func clearRefreshCookie(c *gin.Context) {
	c.SetCookie(RefreshTokenCookieName, "", -1, "/", "", true, true)
}

func sessionBody(s *services.Session) gin.H {
	return gin.H{
		"access_token": s.AccessToken.Token,
		"expires_at":   s.AccessToken.ExpiresAt,
		"user":         s.User,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	// 1. Validate input
	var req struct {
		Email        string `json:"email"     binding:"required,email"`
		Username     string `json:"username"  binding:"required,min=3,max=30"`
		Password     string `json:"password"  binding:"required,min=8,max=128"`
		FullName     string `json:"full_name" binding:"required,max=120"`
		BusinessName string `json:"business_name" binding:"max=160"`
		UserType     string `json:"user_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Please provide your email, username, password and full name correctly")
		return
	}

	// 2. Register user (and get tokens)
	session, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Email:        req.Email,
		Username:     req.Username,
		Password:     req.Password,
		FullName:     req.FullName,
		BusinessName: req.BusinessName,
		UserType:     req.UserType,
	})
	if err != nil {
		fail(c, err, "Could not register user")
		return
	}

	// 3. Refresh token travels only in the HttpOnly cookie
	setRefreshCookie(c, session.RefreshToken.Token)
	responses.Success(c, http.StatusCreated, sessionBody(session), "New user registered successfully!")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Invalid Format")
		return
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" {
		badRequest(c, nil, "Email or username is required")
		return
	}

	session, err := h.authService.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		fail(c, err, "Failed to login")
		return
	}

	setRefreshCookie(c, session.RefreshToken.Token)
	responses.Success(c, http.StatusOK, sessionBody(session), "User Login Successfully!")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshTokenCookieName)
	if err := h.authService.Logout(c.Request.Context(), middlewares.CurrentClaims(c), refreshToken); err != nil {
		fail(c, err, "Could not revoke token")
		return
	}

	clearRefreshCookie(c)
	responses.Success(c, http.StatusOK, nil, "Logged out successfully")
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	// 1. Get refresh token from HttpOnly cookie
	refreshToken, err := c.Cookie(RefreshTokenCookieName)
	if err != nil || refreshToken == "" {
		responses.Fail(c, http.StatusUnauthorized, err, "Missing refresh token")
		return
	}

	// 2. Validate and generate new tokens (with rotation)
	session, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		clearRefreshCookie(c)
		fail(c, err, "Invalid or expired refresh token")
		return
	}

	setRefreshCookie(c, session.RefreshToken.Token)
	responses.Success(c, http.StatusOK, sessionBody(session), "Access token refreshed successfully")
}
