package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jewelconnect/internal/models"
	"jewelconnect/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	apiKeyDisplayPrefix = 8
	MaxAPIKeyDays       = 365
)

type APIKeyService struct {
	keys  APIKeyStore
	users UserStore
	log   *zap.Logger
	now   func() time.Time
}

func NewAPIKeyService(keys APIKeyStore, users UserStore, log *zap.Logger) *APIKeyService {
	return &APIKeyService{keys: keys, users: users, log: log, now: time.Now}
}

// Create mints a key. The plaintext is returned once and never stored.
func (s *APIKeyService) Create(ctx context.Context, userID uuid.UUID, description string, expiresInDays *int) (string, *models.APIKey, error) {
	key := &models.APIKey{
		UserID:      userID,
		Description: utils.CleanText(description),
		CreatedAt:   s.now(),
	}
	if expiresInDays != nil {
		if *expiresInDays < 1 || *expiresInDays > MaxAPIKeyDays {
			return "", nil, invalid(fmt.Sprintf("expires_in_days must be between 1 and %d", MaxAPIKeyDays))
		}
		exp := key.CreatedAt.Add(time.Duration(*expiresInDays) * 24 * time.Hour)
		key.ExpiresAt = &exp
	}

	plain, hash, err := utils.GenerateAPIKey()
	if err != nil {
		return "", nil, fmt.Errorf("generate api key: %w", err)
	}
	key.KeyHash = hash
	key.Prefix = plain[:len(utils.APIKeyPrefix)+apiKeyDisplayPrefix]

	if err := s.keys.Create(ctx, key); err != nil {
		return "", nil, fmt.Errorf("store api key: %w", err)
	}
	s.log.Info("api key created", zap.String("user_id", userID.String()), zap.String("key_id", key.ID.String()))
	return plain, key, nil
}

func (s *APIKeyService) List(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	return s.keys.ListByUser(ctx, userID)
}

func (s *APIKeyService) ListAll(ctx context.Context) ([]models.APIKey, error) {
	return s.keys.ListAll(ctx)
}

// Revoke disables a key owned by the actor; admins may revoke any key.
func (s *APIKeyService) Revoke(ctx context.Context, actor Actor, id uuid.UUID) (*models.APIKey, error) {
	key, err := s.keys.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if key == nil || !actor.CanManage(key.UserID) {
		return nil, ErrAPIKeyNotFound
	}
	if err := s.keys.Revoke(ctx, id); err != nil {
		return nil, fmt.Errorf("revoke api key: %w", err)
	}
	key.Revoked = true
	return key, nil
}

// Authenticate resolves a presented key. The owner must still be an active
// developer or admin.
func (s *APIKeyService) Authenticate(ctx context.Context, raw string) (*models.APIKey, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, utils.APIKeyPrefix) {
		return nil, ErrInvalidAPIKey
	}

	key, err := s.keys.FindByHash(ctx, utils.HashAPIKey(raw))
	if err != nil {
		return nil, err
	}
	now := s.now()
	if key == nil || !key.IsUsable(now) {
		return nil, ErrInvalidAPIKey
	}

	owner, err := s.users.FindByID(ctx, key.UserID)
	if err != nil {
		return nil, err
	}
	if owner == nil || !owner.IsActive() || (owner.Role != models.RoleDeveloper && owner.Role != models.RoleAdmin) {
		return nil, ErrInvalidAPIKey
	}

	if err := s.keys.TouchLastUsed(ctx, key.ID, now); err != nil {
		s.log.Warn("failed to update api key usage", zap.String("key_id", key.ID.String()), zap.Error(err))
	}
	key.LastUsedAt = &now
	return key, nil
}
