package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleDeveloper = "developer"
	RoleAdmin     = "admin"

	StatusActive    = "active"
	StatusSuspended = "suspended"
)

var UserTypes = []string{
	"retailer", "wholesaler", "designer", "manufacturer",
	"gemologist", "supplier", "appraiser", "other",
}

var Roles = []string{RoleUser, RoleDeveloper, RoleAdmin}

// User matches the users table. PasswordHash is never serialised.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	BusinessName string     `json:"business_name"`
	UserType     string     `json:"user_type"`
	Bio          string     `json:"bio"`
	Location     string     `json:"location"`
	Specialties  []string   `json:"specialties"`
	Website      string     `json:"website"`
	Phone        string     `json:"phone"`
	AvatarURL    string     `json:"avatar_url"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

func (u *User) Prepare() {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.TrimSpace(u.Username)
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if u.UserType == "" {
		u.UserType = "other"
	}
	if u.Specialties == nil {
		u.Specialties = []string{}
	}
}

// IsActive reports whether the user may sign in and be listed.
func (u *User) IsActive() bool {
	return u.DeletedAt == nil && u.Status == StatusActive
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		BusinessName: u.BusinessName,
		UserType:     u.UserType,
		Location:     u.Location,
		AvatarURL:    u.AvatarURL,
	}
}

// Public drops contact details and account state.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		BusinessName: u.BusinessName,
		UserType:     u.UserType,
		Bio:          u.Bio,
		Location:     u.Location,
		Specialties:  u.Specialties,
		Website:      u.Website,
		AvatarURL:    u.AvatarURL,
		CreatedAt:    u.CreatedAt,
	}
}

// PublicProfile is a member as the directory shows them to other members.
type PublicProfile struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	BusinessName string    `json:"business_name"`
	UserType     string    `json:"user_type"`
	Bio          string    `json:"bio"`
	Location     string    `json:"location"`
	Specialties  []string  `json:"specialties"`
	Website      string    `json:"website"`
	AvatarURL    string    `json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserSummary is the profile card embedded in lists.
type UserSummary struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	BusinessName string    `json:"business_name"`
	UserType     string    `json:"user_type"`
	Location     string    `json:"location"`
	AvatarURL    string    `json:"avatar_url"`
}

// DirectoryFilter narrows user searches. Role, Status and IncludeDeleted are
// only honoured for admin listings.
type DirectoryFilter struct {
	Query          string
	UserType       string
	Location       string
	Specialty      string
	Role           string
	Status         string
	IncludeDeleted bool
	Page           Page
}

// Profile is a directory entry as seen by another user.
type Profile struct {
	PublicProfile
	ConnectionStatus string     `json:"connection_status"`
	ConnectionID     *uuid.UUID `json:"connection_id,omitempty"`
}
