package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"nutriportal/internal/domain"
)

var (
	_ domain.AccountRepository = (*DB)(nil)
	_ domain.SessionRepository = (*SessionRepo)(nil)
)

const accountColumns = "id, username, password_hash, role, user_id, created_at"

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	var role string
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &role, &a.UserID, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	return &a, nil
}

// GetByUsername retrieves an account by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return scanAccount(d.sql.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE username = $1", username))
}

// GetByID retrieves an account by ID.
func (d *DB) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(d.sql.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1", id))
}

// Create inserts a new account.
func (d *DB) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	acct, err := scanAccount(d.sql.QueryRowContext(ctx,
		"INSERT INTO accounts (id, username, password_hash, role, user_id, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING "+accountColumns,
		a.ID, a.Username, a.PasswordHash, string(a.Role), a.UserID, createdAt,
	))
	if isUniqueViolation(err) {
		return nil, domain.ErrAlreadyExists
	}
	return acct, err
}

// Count returns the total number of accounts.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count)
	return count, err
}

// SessionRepo implements session repository operations on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO sessions (token, account_id, user_agent, ip, expires_at, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		s.Token, s.AccountID, s.UserAgent, s.IP, s.ExpiresAt, createdAt,
	)
	return err
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT token, account_id, user_agent, ip, expires_at, created_at FROM sessions WHERE token = $1",
		token,
	).Scan(&s.Token, &s.AccountID, &s.UserAgent, &s.IP, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token)
	return err
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < $1", time.Now())
	return err
}
