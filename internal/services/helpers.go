package services

import (
	"errors"

	"jewelconnect/internal/models"
	"jewelconnect/internal/repositories"

	"github.com/google/uuid"
)

func mapDuplicate(err, to error) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return to
	}
	return err
}

// Actor identifies the caller for ownership checks.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanManage reports whether the actor owns the resource or is an admin.
func (a Actor) CanManage(ownerID uuid.UUID) bool {
	return a.ID == ownerID || a.IsAdmin()
}
