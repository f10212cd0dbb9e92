// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"nutriportal/internal/domain"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrAccountNotFound indicates that the account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrSetupDone is returned by CreateInitialCoach once any account exists.
	ErrSetupDone = errors.New("accounts already exist")
)

const sessionTTL = 24 * time.Hour

// AuthService handles authentication and session management.
type AuthService struct {
	accounts domain.AccountRepository
	sessions domain.SessionRepository
	now      func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(accounts domain.AccountRepository, sessions domain.SessionRepository) *AuthService {
	return &AuthService{
		accounts: accounts,
		sessions: sessions,
		now:      time.Now,
	}
}

// Login checks a password and opens a session.
func (s *AuthService) Login(ctx context.Context, username, password, userAgent, ip string) (string, error) {
	acct, err := s.accounts.GetByUsername(ctx, username)
	if err != nil || acct == nil || acct.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.openSession(ctx, acct, userAgent, ip)
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid and matches the user agent.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (*domain.Account, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil || session == nil {
		return nil, ErrSessionNotFound
	}

	if s.now().After(session.ExpiresAt) || session.UserAgent != userAgent {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	acct, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil || acct == nil {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

// CreateInitialCoach creates the first account, a coach, if none exist.
func (s *AuthService) CreateInitialCoach(ctx context.Context, username, password string) error {
	count, err := s.accounts.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrSetupDone
	}
	_, err = s.CreateAccount(ctx, username, password, domain.RoleCoach, "")
	return err
}

// CreateAccount registers an account. Patients must name the user record
// they own.
func (s *AuthService) CreateAccount(ctx context.Context, username, password string, role domain.Role, userID string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	switch role {
	case domain.RoleCoach:
	case domain.RolePatient:
		if strings.TrimSpace(userID) == "" {
			return nil, fmt.Errorf("%w: patient accounts need a user id", domain.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.accounts.Create(ctx, &domain.Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		UserID:       userID,
		CreatedAt:    s.now().UTC(),
	})
}

// ValidateForwardAuth resolves the account named by a proxy's Remote-User
// header. Unknown users are provisioned as patients owning the record of
// the same name.
func (s *AuthService) ValidateForwardAuth(ctx context.Context, remoteUser string) (*domain.Account, error) {
	if remoteUser == "" {
		return nil, errors.New("no remote user header")
	}
	return s.findOrProvision(ctx, remoteUser)
}

// LoginWithUser opens a session for a user already authenticated elsewhere
// (e.g. via SSO).
func (s *AuthService) LoginWithUser(ctx context.Context, username, userAgent, ip string) (string, error) {
	acct, err := s.findOrProvision(ctx, username)
	if err != nil {
		return "", err
	}
	return s.openSession(ctx, acct, userAgent, ip)
}

func (s *AuthService) findOrProvision(ctx context.Context, username string) (*domain.Account, error) {
	acct, err := s.accounts.GetByUsername(ctx, username)
	if err == nil && acct != nil {
		return acct, nil
	}
	acct, err = s.accounts.Create(ctx, &domain.Account{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      domain.RolePatient,
		UserID:    username,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		// Lost a race with a concurrent provision.
		return s.accounts.GetByUsername(ctx, username)
	}
	return acct, nil
}

func (s *AuthService) openSession(ctx context.Context, acct *domain.Account, userAgent, ip string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	err = s.sessions.Create(ctx, &domain.Session{
		Token:     token,
		AccountID: acct.ID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: now.Add(sessionTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
