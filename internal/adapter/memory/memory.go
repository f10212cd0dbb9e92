// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"nutriportal/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	docs     map[string]*domain.UserDocument
	accounts []*domain.Account
	sessions map[string]*domain.Session
	cache    map[string]cacheEntry

	now func() time.Time
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		docs:     make(map[string]*domain.UserDocument),
		sessions: make(map[string]*domain.Session),
		cache:    make(map[string]cacheEntry),
		now:      time.Now,
	}
}

// Ensure interfaces are met.
var _ domain.DocumentStore = (*DB)(nil)
var _ domain.AccountRepository = (*DB)(nil)
var _ domain.KeyValueCache = (*Cache)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// copyDoc detaches a document from the stored one. Snapshots are replaced
// whole by every writer, so the slices are copied and their elements shared.
func copyDoc(d *domain.UserDocument) *domain.UserDocument {
	cp := *d
	cp.MeasurementHistory = append([]domain.MeasurementSnapshot(nil), d.MeasurementHistory...)
	cp.WeightHistory = append([]domain.ShortSnapshot(nil), d.WeightHistory...)
	if d.WeeklyMenu != nil {
		m := *d.WeeklyMenu
		cp.WeeklyMenu = &m
	}
	return &cp
}

// --- DocumentStore ---

// GetDocument returns a copy of the user document.
func (db *DB) GetDocument(ctx context.Context, userID string) (*domain.UserDocument, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	d, ok := db.docs[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyDoc(d), nil
}

// CreateDocument stores a new user document.
func (db *DB) CreateDocument(ctx context.Context, doc *domain.UserDocument) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if doc.UserID == "" {
		return errors.New("user id is required")
	}
	if _, ok := db.docs[doc.UserID]; ok {
		return domain.ErrAlreadyExists
	}
	db.docs[doc.UserID] = copyDoc(doc)
	return nil
}

// UpdateHistory replaces both history lists.
func (db *DB) UpdateHistory(ctx context.Context, userID string, upd domain.HistoryUpdate) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	d, ok := db.docs[userID]
	if !ok {
		return domain.ErrNotFound
	}
	d.MeasurementHistory = append([]domain.MeasurementSnapshot(nil), upd.MeasurementHistory...)
	d.WeightHistory = append([]domain.ShortSnapshot(nil), upd.WeightHistory...)
	d.UpdatedAt = upd.UpdatedAt
	return nil
}

// UpdateMenu replaces the weekly menu.
func (db *DB) UpdateMenu(ctx context.Context, userID string, menu domain.WeeklyMenu, updatedAt time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	d, ok := db.docs[userID]
	if !ok {
		return domain.ErrNotFound
	}
	d.WeeklyMenu = &menu
	d.UpdatedAt = updatedAt
	return nil
}

// --- AccountRepository ---

// GetByUsername retrieves an account by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, a := range db.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByID retrieves an account by ID.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, a := range db.accounts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Create stores a new account. Usernames are unique.
func (db *DB) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, a := range db.accounts {
		if a.Username == account.Username || a.ID == account.ID {
			return nil, domain.ErrAlreadyExists
		}
	}

	a := *account
	if a.CreatedAt.IsZero() {
		a.CreatedAt = db.now().UTC()
	}
	db.accounts = append(db.accounts, &a)
	cp := a
	return &cp, nil
}

// Count returns the total number of accounts.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.accounts), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cp := *s
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = r.db.now().UTC()
	}
	r.db.sessions[s.Token] = &cp
	return nil
}

// GetByToken retrieves a session by token. Expired sessions are dropped.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.db.now().After(s.ExpiresAt) {
		delete(r.db.sessions, token)
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}

// --- KeyValueCache ---

// Cache is a process-local KeyValueCache with optional expiry.
type Cache struct {
	db *DB
}

// NewCache returns the cache view of the database.
func (db *DB) NewCache() *Cache {
	return &Cache{db: db}
}

// Get returns the value stored under key.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	e, ok := c.db.cache[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && c.db.now().After(e.expiresAt) {
		delete(c.db.cache, key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value under key. A zero ttl never expires.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	e := cacheEntry{value: value}
	if ttl > 0 {
		e.expiresAt = c.db.now().Add(ttl)
	}
	c.db.cache[key] = e
	return nil
}

// Remove deletes key.
func (c *Cache) Remove(ctx context.Context, key string) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	delete(c.db.cache, key)
	return nil
}
