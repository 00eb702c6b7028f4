package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role of a scanner user
type UserRole string

const (
	RoleExplorer UserRole = "explorer"
	RoleCurator  UserRole = "curator"
)

// User is the profile behind an authenticated session
type User struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Subject     string    `json:"subject" db:"subject"` // identity provider user id (token sub)
	Email       string    `json:"email" db:"email"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Role        UserRole  `json:"role" db:"role"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "profiles"
}

// NewUser creates a new User instance
func NewUser(subject, email string, role UserRole) *User {
	now := time.Now()
	return &User{
		ID:        uuid.New(),
		Subject:   subject,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsCurator returns true if the user can edit style and monument content
func (u *User) IsCurator() bool {
	return u.Role == RoleCurator
}
