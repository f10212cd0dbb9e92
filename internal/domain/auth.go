// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// Role distinguishes the two kinds of portal accounts.
type Role string

const (
	// RoleCoach can read and edit every user record.
	RoleCoach Role = "coach"
	// RolePatient can only reach the record named by Account.UserID.
	RolePatient Role = "patient"
)

// Account represents an authenticated portal user.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	UserID       string
	CreatedAt    time.Time
}

// CanAccess reports whether the account may read or write the given user record.
func (a *Account) CanAccess(userID string) bool {
	if a == nil {
		return false
	}
	if a.Role == RoleCoach {
		return true
	}
	return a.UserID != "" && a.UserID == userID
}

// Session represents an active account session.
type Session struct {
	Token     string
	AccountID string
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AccountRepository defines the port for account persistence operations.
type AccountRepository interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, account *Account) (*Account, error)
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
