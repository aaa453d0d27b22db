package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"jewelconnect/internal/models"
	"jewelconnect/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type GoogleAuthService struct {
	auth   *AuthService
	oauth  *oauth2.Config
	client func(ctx context.Context, token *oauth2.Token) *http.Client
}

// NewGoogleAuthService returns a service whose Enabled reports false when cfg
// is nil.
func NewGoogleAuthService(auth *AuthService, cfg *oauth2.Config) *GoogleAuthService {
	s := &GoogleAuthService{auth: auth, oauth: cfg}
	if cfg != nil {
		s.client = func(ctx context.Context, token *oauth2.Token) *http.Client {
			return cfg.Client(ctx, token)
		}
	}
	return s
}

func (s *GoogleAuthService) Enabled() bool {
	return s.oauth != nil
}

func (s *GoogleAuthService) AuthCodeURL(state string) (string, error) {
	if !s.Enabled() {
		return "", ErrGoogleDisabled
	}
	return s.oauth.AuthCodeURL(state), nil
}

// Callback exchanges the authorization code and signs the Google user in.
func (s *GoogleAuthService) Callback(ctx context.Context, code string) (*Session, error) {
	if !s.Enabled() {
		return nil, ErrGoogleDisabled
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, newError(ErrUnauthorized, "google token exchange failed")
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.auth.LoginWithGoogle(ctx, *profile)
}

func (s *GoogleAuthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}

	resp, err := s.client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned %d", resp.StatusCode)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return &profile, nil
}

var usernameChars = regexp.MustCompile(`[^a-z0-9_]+`)

// LoginWithGoogle signs into the account matching the verified email, creating
// it on first use.
func (s *AuthService) LoginWithGoogle(ctx context.Context, profile GoogleProfile) (*Session, error) {
	if !profile.VerifiedEmail {
		return nil, ErrEmailNotVerified
	}
	email := utils.NormalizeEmail(profile.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if !user.IsActive() {
			return nil, ErrAccountDisabled
		}
		return s.signIn(ctx, user)
	}

	username, err := s.availableUsername(ctx, email)
	if err != nil {
		return nil, err
	}
	user = &models.User{
		Email:     email,
		Username:  username,
		FullName:  utils.CleanText(profile.Name),
		AvatarURL: profile.Picture,
	}
	if err := s.createWithInitialRole(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered via google", zap.String("user_id", user.ID.String()))
	return s.signIn(ctx, user)
}

func (s *AuthService) availableUsername(ctx context.Context, email string) (string, error) {
	local, _, _ := strings.Cut(email, "@")
	base := usernameChars.ReplaceAllString(strings.ToLower(local), "")
	if len(base) < 3 {
		base = "member"
	}

	candidate := base
	for i := 0; i < 5; i++ {
		existing, err := s.users.FindByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		suffix := make([]byte, 2)
		if _, err := rand.Read(suffix); err != nil {
			return "", err
		}
		candidate = base + "_" + hex.EncodeToString(suffix)
	}
	return "", newError(ErrConflict, "could not allocate a username")
}
