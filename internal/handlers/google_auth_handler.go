package handlers

import (
	"net/http"

	"jewelconnect/internal/responses"
	"jewelconnect/internal/services"
	"jewelconnect/internal/utils"

	"github.com/gin-gonic/gin"
)

const oauthStateCookie = "oauth_state"

type GoogleAuthHandler struct {
	googleAuthService *services.GoogleAuthService
}

func NewGoogleAuthHandler(googleAuthService *services.GoogleAuthService) *GoogleAuthHandler {
	return &GoogleAuthHandler{googleAuthService: googleAuthService}
}

func (h *GoogleAuthHandler) Login(c *gin.Context) {
	oauthState, err := utils.GenerateStateOauthCookie()
	if err != nil {
		fail(c, err, "Failed to generate state")
		return
	}

	authURL, err := h.googleAuthService.AuthCodeURL(oauthState)
	if err != nil {
		fail(c, err, "Google login is unavailable")
		return
	}

	c.SetCookie(oauthStateCookie, oauthState, 600, "/", "", true, true)
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

func (h *GoogleAuthHandler) Callback(c *gin.Context) {
	// Validate state from query parameter against cookie
	queryState := c.Query("state")
	if queryState == "" {
		badRequest(c, nil, "Missing state parameter")
		return
	}
	cookieState, err := c.Cookie(oauthStateCookie)
	if err != nil {
		badRequest(c, err, "Missing state cookie")
		return
	}
	if queryState != cookieState {
		responses.Fail(c, http.StatusForbidden, nil, "State mismatch - possible CSRF attack")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", true, true)

	code := c.Query("code")
	if code == "" {
		badRequest(c, nil, "Missing code")
		return
	}

	session, err := h.googleAuthService.Callback(c.Request.Context(), code)
	if err != nil {
		fail(c, err, "Failed to login")
		return
	}

	setRefreshCookie(c, session.RefreshToken.Token)
	responses.Success(c, http.StatusOK, sessionBody(session), "User Login Successfully!")
}
