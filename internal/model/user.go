package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStatus is the account lifecycle state.
type UserStatus string

const (
	// StatusAwaitsActivation is set on registration and after a login change.
	StatusAwaitsActivation UserStatus = "AWAITS_ACTIVATION"
	// StatusActive is the only status whose session token is honored.
	StatusActive UserStatus = "ACTIVE"
	// StatusBlocked is set by a privileged block action.
	StatusBlocked UserStatus = "BLOCKED"
)

// ReasonPendingVerification is stored while an account waits for activation.
const ReasonPendingVerification = "pending verification"

// Valid reports whether s is one of the known statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case StatusAwaitsActivation, StatusActive, StatusBlocked:
		return true
	}
	return false
}

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByLogin(ctx context.Context, login string) (User, error)
	GetByToken(ctx context.Context, token string) (User, error)
	// Save inserts or updates the user atomically. A login already owned by
	// another row yields ErrLoginTaken.
	Save(ctx context.Context, user User) (User, error)
}

// User represents a stored account.
type User struct {
	ID           uuid.UUID
	Login        string
	PasswordHash string
	// SessionToken is empty while the account never had a token minted.
	SessionToken string
	Status       UserStatus
	StatusReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the user may be authorized by session token.
func (u User) IsActive() bool {
	return u.Status == StatusActive
}
