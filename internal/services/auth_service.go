package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jewelconnect/internal/models"
	"jewelconnect/internal/repositories"
	"jewelconnect/internal/utils"

	"go.uber.org/zap"
)

const MinPasswordLength = 8

// Session is the result of a successful sign-in.
type Session struct {
	User         *models.User
	AccessToken  utils.IssuedToken
	RefreshToken utils.IssuedToken
}

type RegisterInput struct {
	Email        string
	Username     string
	Password     string
	FullName     string
	BusinessName string
	UserType     string
}

type AuthService struct {
	tx        Transactor
	users     UserStore
	tokens    *utils.TokenManager
	blacklist TokenBlacklist
	log       *zap.Logger
	now       func() time.Time
}

func NewAuthService(tx Transactor, users UserStore, tokens *utils.TokenManager, blacklist TokenBlacklist, log *zap.Logger) *AuthService {
	return &AuthService{
		tx:        tx,
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
		log:       log,
		now:       time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	// 1. Validate input
	email := utils.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("a valid email is required")
	}
	if len(username) < 3 {
		return nil, invalid("username must be at least 3 characters")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, invalid(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if in.UserType != "" && !utils.Contains(models.UserTypes, in.UserType) {
		return nil, invalid("unknown user_type")
	}

	// 2. Check uniqueness
	if existing, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}
	if existing, err := s.users.FindByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}

	// 3. Hash password
	hash, err := utils.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FullName:     utils.CleanText(in.FullName),
		BusinessName: utils.CleanText(in.BusinessName),
		UserType:     in.UserType,
	}

	// 4. Create; the first user becomes admin
	if err := s.createWithInitialRole(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))

	return s.issue(user)
}

// createWithInitialRole inserts the user, making them admin when nobody else
// exists yet. The role lock keeps two concurrent first sign-ups from both
// seeing an empty table.
func (s *AuthService) createWithInitialRole(ctx context.Context, user *models.User) error {
	return s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		if err := s.users.LockRoles(ctx); err != nil {
			return fmt.Errorf("lock roles: %w", err)
		}
		count, err := s.users.Count(ctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if count == 0 {
			user.Role = models.RoleAdmin
		} else {
			user.Role = models.RoleUser
		}
		return s.users.Create(ctx, user)
	})
}

// Login accepts either an email or a username as identifier.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)

	var user *models.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.users.FindByEmail(ctx, utils.NormalizeEmail(identifier))
	} else {
		user, err = s.users.FindByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := utils.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	return s.signIn(ctx, user)
}

func (s *AuthService) signIn(ctx context.Context, user *models.User) (*Session, error) {
	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("failed to update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	user.LastLoginAt = &now
	return s.issue(user)
}

// Refresh rotates both tokens. The presented refresh token is blacklisted so
// it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Logout revokes the access token in use and, when present, the refresh token.
func (s *AuthService) Logout(ctx context.Context, access *utils.Claims, refreshToken string) error {
	if access != nil {
		if err := s.revoke(ctx, access); err != nil {
			return err
		}
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		// Already unusable.
		return nil
	}
	return s.revoke(ctx, claims)
}

// Authenticate resolves an access token to its claims, rejecting revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*utils.Claims, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) revoke(ctx context.Context, claims *utils.Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if err := s.blacklist.Blacklist(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	access, refresh, err := s.tokens.GenerateTokens(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Actor loads the caller behind verified claims. Suspended and deleted
// accounts are refused even while their tokens are still valid.
func (s *AuthService) Actor(ctx context.Context, claims *utils.Claims) (Actor, error) {
	id, err := claims.UserID()
	if err != nil {
		return Actor{}, ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return Actor{}, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return Actor{}, ErrInvalidToken
	}
	if !user.IsActive() {
		return Actor{}, ErrAccountDisabled
	}
	return Actor{ID: user.ID, Role: user.Role}, nil
}
