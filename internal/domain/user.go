package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles understood by the authorization layer.
const (
	RoleAdmin    = "admin"
	RoleUser     = "user"
	RoleEmployee = "employee"
	RoleCompany  = "company"
)

// TokenPurpose selects which of the one-shot token slots on a user row an
// operation works against.
type TokenPurpose string

const (
	TokenConfirm  TokenPurpose = "confirm"
	TokenReset    TokenPurpose = "reset"
	TokenActivate TokenPurpose = "activate"
)

// User is an account holder. PasswordHash is never serialized; the one-shot
// token slots hold sha256 hashes, the raw values are only ever emailed.
type User struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Photo             string     `json:"photo"`
	PasswordHash      string     `json:"-"`
	Role              string     `json:"role"`
	IsConfirmed       bool       `json:"isConfirmed"`
	Active            bool       `json:"-"`
	PasswordChangedAt *time.Time `json:"-"`

	ConfirmTokenHash     *string    `json:"-"`
	ConfirmTokenExpires  *time.Time `json:"-"`
	ResetTokenHash       *string    `json:"-"`
	ResetTokenExpires    *time.Time `json:"-"`
	ActivateTokenHash    *string    `json:"-"`
	ActivateTokenExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PasswordChangedAfter reports whether the password was changed after the
// given instant. Sessions issued before a password change are rejected.
func (u *User) PasswordChangedAfter(t time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.After(t)
}
