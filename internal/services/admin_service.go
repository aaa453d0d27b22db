package services

import (
	"context"
	"fmt"
	"time"

	"jewelconnect/internal/models"
	"jewelconnect/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Audit actions.
const (
	AuditUserUpdated      = "user.updated"
	AuditUserDeleted      = "user.deleted"
	AuditDeveloperGranted = "developer.granted"
	AuditDeveloperRevoked = "developer.revoked"
	AuditAPIKeyRevoked    = "api_key.revoked"
	AuditOrderStatus      = "order.status_changed"
)

type AdminUserUpdate struct {
	Role   *string
	Status *string
}

type AdminService struct {
	tx     Transactor
	users  UserStore
	keys   APIKeyStore
	audit  AuditStore
	stats  StatsStore
	apiKey *APIKeyService
	orders *OrderService
	log    *zap.Logger
	now    func() time.Time
}

func NewAdminService(tx Transactor, users UserStore, keys APIKeyStore, audit AuditStore, stats StatsStore,
	apiKeys *APIKeyService, orders *OrderService, log *zap.Logger) *AdminService {
	return &AdminService{
		tx:     tx,
		users:  users,
		keys:   keys,
		audit:  audit,
		stats:  stats,
		apiKey: apiKeys,
		orders: orders,
		log:    log,
		now:    time.Now,
	}
}

func (s *AdminService) Stats(ctx context.Context) (*models.AdminStats, error) {
	return s.stats.Stats(ctx, s.now())
}

func (s *AdminService) Users(ctx context.Context, f models.DirectoryFilter) ([]models.User, models.PageMeta, error) {
	if f.Role != "" && !utils.Contains(models.Roles, f.Role) {
		return nil, models.PageMeta{}, invalid("unknown role")
	}
	if f.Status != "" && f.Status != models.StatusActive && f.Status != models.StatusSuspended {
		return nil, models.PageMeta{}, invalid("unknown status")
	}
	users, total, err := s.users.Search(ctx, f)
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("search users: %w", err)
	}
	return users, models.NewPageMeta(f.Page, total), nil
}

func (s *AdminService) UpdateUser(ctx context.Context, actorID, id uuid.UUID, in AdminUserUpdate) (*models.User, error) {
	if in.Role != nil && !utils.Contains(models.Roles, *in.Role) {
		return nil, invalid("unknown role")
	}
	if in.Status != nil && *in.Status != models.StatusActive && *in.Status != models.StatusSuspended {
		return nil, invalid("unknown status")
	}

	var user *models.User
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.target(ctx, id)
		if err != nil {
			return err
		}

		demoting := in.Role != nil && *in.Role != models.RoleAdmin && user.IsAdmin()
		suspending := in.Status != nil && *in.Status == models.StatusSuspended && user.Status == models.StatusActive
		if id == actorID && (demoting || suspending) {
			return ErrSelfModification
		}
		if demoting || (suspending && user.IsAdmin()) {
			if err := ensureNotLastAdmin(ctx, s.users, user); err != nil {
				return err
			}
		}

		details := map[string]any{}
		if in.Role != nil && *in.Role != user.Role {
			details["role"] = map[string]string{"from": user.Role, "to": *in.Role}
			if user.Role == models.RoleDeveloper {
				if _, err := s.keys.RevokeAllForUser(ctx, id); err != nil {
					return err
				}
			}
			user.Role = *in.Role
		}
		if in.Status != nil && *in.Status != user.Status {
			details["status"] = map[string]string{"from": user.Status, "to": *in.Status}
			user.Status = *in.Status
		}
		if len(details) == 0 {
			return nil
		}

		if err := s.users.UpdateAccess(ctx, user); err != nil {
			return err
		}
		return s.record(ctx, actorID, AuditUserUpdated, "user", &id, details)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser soft-deletes a member. Admin accounts must be demoted first.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	return s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		user, err := s.target(ctx, id)
		if err != nil {
			return err
		}
		if id == actorID {
			return ErrSelfModification
		}
		if user.IsAdmin() {
			return ErrAdminProtected
		}
		if err := s.users.SoftDelete(ctx, id, s.now()); err != nil {
			return err
		}
		if _, err := s.keys.RevokeAllForUser(ctx, id); err != nil {
			return err
		}
		return s.record(ctx, actorID, AuditUserDeleted, "user", &id, map[string]any{"email": user.Email})
	})
}

func (s *AdminService) Developers(ctx context.Context, page models.Page) ([]models.User, models.PageMeta, error) {
	return s.Users(ctx, models.DirectoryFilter{Role: models.RoleDeveloper, Page: page})
}

func (s *AdminService) GrantDeveloper(ctx context.Context, actorID, id uuid.UUID) (*models.User, error) {
	var user *models.User
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.target(ctx, id)
		if err != nil {
			return err
		}
		switch user.Role {
		case models.RoleDeveloper:
			return nil
		case models.RoleAdmin:
			return newError(ErrConflict, "admins already have developer access")
		}
		user.Role = models.RoleDeveloper
		if err := s.users.UpdateAccess(ctx, user); err != nil {
			return err
		}
		return s.record(ctx, actorID, AuditDeveloperGranted, "user", &id, nil)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// RevokeDeveloper returns the user to the plain role and disables their keys.
func (s *AdminService) RevokeDeveloper(ctx context.Context, actorID, id uuid.UUID) (*models.User, error) {
	var user *models.User
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.target(ctx, id)
		if err != nil {
			return err
		}
		if user.Role != models.RoleDeveloper {
			return newError(ErrConflict, "user is not a developer")
		}
		user.Role = models.RoleUser
		if err := s.users.UpdateAccess(ctx, user); err != nil {
			return err
		}
		revoked, err := s.keys.RevokeAllForUser(ctx, id)
		if err != nil {
			return err
		}
		return s.record(ctx, actorID, AuditDeveloperRevoked, "user", &id, map[string]any{"keys_revoked": revoked})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AdminService) APIKeys(ctx context.Context) ([]models.APIKey, error) {
	return s.apiKey.ListAll(ctx)
}

func (s *AdminService) RevokeAPIKey(ctx context.Context, actorID, id uuid.UUID) (*models.APIKey, error) {
	key, err := s.apiKey.Revoke(ctx, Actor{ID: actorID, Role: models.RoleAdmin}, id)
	if err != nil {
		return nil, err
	}
	if err := s.record(ctx, actorID, AuditAPIKeyRevoked, "api_key", &id, map[string]any{"owner_id": key.UserID}); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *AdminService) UpdateOrderStatus(ctx context.Context, actorID, id uuid.UUID, status string) (*models.Order, error) {
	before, err := s.orders.Get(ctx, Actor{ID: actorID, Role: models.RoleAdmin}, id)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	details := map[string]any{"from": before.Status, "to": status, "order_number": order.OrderNumber}
	if err := s.record(ctx, actorID, AuditOrderStatus, "order", &id, details); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *AdminService) Audit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.audit.Recent(ctx, limit)
}

// target locks the user row. Call inside RunAtomic.
func (s *AdminService) target(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.LockByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || user.DeletedAt != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AdminService) record(ctx context.Context, actorID uuid.UUID, action, targetType string, targetID *uuid.UUID, details map[string]any) error {
	entry := &models.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  s.now(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	s.log.Info("admin action", zap.String("actor_id", actorID.String()), zap.String("action", action), zap.String("target_type", targetType))
	return nil
}
