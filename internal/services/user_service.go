package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jewelconnect/internal/models"
	"jewelconnect/internal/utils"

	"github.com/google/uuid"
)

// ProfileUpdate carries the self-editable profile fields. Nil leaves a field
// unchanged.
type ProfileUpdate struct {
	FullName     *string
	BusinessName *string
	UserType     *string
	Bio          *string
	Location     *string
	Specialties  []string
	Website      *string
	Phone        *string
	AvatarURL    *string
}

type UserService struct {
	tx          Transactor
	users       UserStore
	connections ConnectionStore
	now         func() time.Time
}

func NewUserService(tx Transactor, users UserStore, connections ConnectionStore) *UserService {
	return &UserService{tx: tx, users: users, connections: connections, now: time.Now}
}

// Directory lists active members matching the filter.
func (s *UserService) Directory(ctx context.Context, f models.DirectoryFilter) ([]models.PublicProfile, models.PageMeta, error) {
	f.Query = strings.TrimSpace(f.Query)
	f.Location = strings.TrimSpace(f.Location)
	f.Specialty = strings.TrimSpace(f.Specialty)
	f.Status = models.StatusActive
	f.Role = ""
	f.IncludeDeleted = false
	if f.UserType != "" && !utils.Contains(models.UserTypes, f.UserType) {
		return nil, models.PageMeta{}, invalid("unknown user_type")
	}

	users, total, err := s.users.Search(ctx, f)
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("search users: %w", err)
	}
	out := make([]models.PublicProfile, len(users))
	for i := range users {
		out[i] = users[i].Public()
	}
	return out, models.NewPageMeta(f.Page, total), nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || user.DeletedAt != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Profile returns another member's profile annotated with the viewer's
// connection state.
func (s *UserService) Profile(ctx context.Context, viewerID, id uuid.UUID) (*models.Profile, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := &models.Profile{PublicProfile: user.Public(), ConnectionStatus: models.RelationNone}
	if viewerID == id {
		profile.ConnectionStatus = models.RelationSelf
		return profile, nil
	}

	conn, err := s.connections.FindBetween(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}
	if conn != nil {
		profile.ConnectionStatus = conn.RelationFor(viewerID)
		if profile.ConnectionStatus != models.RelationNone {
			profile.ConnectionID = &conn.ID
		}
	}
	return profile, nil
}

// UpdateProfile edits the caller's profile under a row lock. Role, status and
// credentials are never written here.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*models.User, error) {
	var user *models.User
	err := s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if user == nil || user.DeletedAt != nil {
			return ErrUserNotFound
		}
		if err := applyProfileUpdate(user, in); err != nil {
			return err
		}
		if err := s.users.UpdateProfile(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func applyProfileUpdate(user *models.User, in ProfileUpdate) error {
	if in.UserType != nil {
		if !utils.Contains(models.UserTypes, *in.UserType) {
			return invalid("unknown user_type")
		}
		user.UserType = *in.UserType
	}
	if in.FullName != nil {
		name := utils.CleanText(*in.FullName)
		if name == "" {
			return invalid("full_name cannot be empty")
		}
		user.FullName = name
	}
	setText(&user.BusinessName, in.BusinessName)
	setText(&user.Bio, in.Bio)
	setText(&user.Location, in.Location)
	setText(&user.Website, in.Website)
	setText(&user.Phone, in.Phone)
	setText(&user.AvatarURL, in.AvatarURL)
	if in.Specialties != nil {
		user.Specialties = utils.CleanList(in.Specialties)
	}
	return nil
}

// DeleteAccount soft-deletes the caller. The last active admin must hand over
// the role first.
func (s *UserService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		user, err := s.users.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if user == nil || user.DeletedAt != nil {
			return ErrUserNotFound
		}
		if err := ensureNotLastAdmin(ctx, s.users, user); err != nil {
			return err
		}
		return s.users.SoftDelete(ctx, id, s.now())
	})
}

// ensureNotLastAdmin must run inside RunAtomic so the role lock is held until
// the change commits.
func ensureNotLastAdmin(ctx context.Context, users UserStore, user *models.User) error {
	if !user.IsAdmin() || !user.IsActive() {
		return nil
	}
	if err := users.LockRoles(ctx); err != nil {
		return fmt.Errorf("lock roles: %w", err)
	}
	admins, err := users.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func setText(dst *string, src *string) {
	if src != nil {
		*dst = utils.CleanText(*src)
	}
}

// summaries resolves profile cards, substituting a placeholder for users that
// no longer exist.
func summaries(ctx context.Context, users UserStore, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error) {
	found, err := users.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load user summaries: %w", err)
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			found[id] = models.UserSummary{ID: id, Username: "deleted"}
		}
	}
	return found, nil
}
