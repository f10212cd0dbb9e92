package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"nutriportal/internal/domain"
)

type mockAccountRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*domain.Account, error)
	getByIDFn       func(ctx context.Context, id string) (*domain.Account, error)
	createFn        func(ctx context.Context, a *domain.Account) (*domain.Account, error)
	countFn         func(ctx context.Context) (int, error)
}

func (m *mockAccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, errors.New("not found")
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, errors.New("not found")
}

func (m *mockAccountRepo) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return a, nil
}

func (m *mockAccountRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, s *domain.Session) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, errors.New("not found")
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

// mockDocs is a DocumentStore whose calls can be overridden one by one. When
// no override is set it serves doc and records every history write.
type mockDocs struct {
	doc *domain.UserDocument

	getFn    func(ctx context.Context, userID string) (*domain.UserDocument, error)
	createFn func(ctx context.Context, doc *domain.UserDocument) error
	updateFn func(ctx context.Context, userID string, upd domain.HistoryUpdate) error
	menuFn   func(ctx context.Context, userID string, menu domain.WeeklyMenu, at time.Time) error

	writes int
}

func (m *mockDocs) GetDocument(ctx context.Context, userID string) (*domain.UserDocument, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	if m.doc == nil {
		return nil, domain.ErrNotFound
	}
	cp := *m.doc
	return &cp, nil
}

func (m *mockDocs) CreateDocument(ctx context.Context, doc *domain.UserDocument) error {
	if m.createFn != nil {
		return m.createFn(ctx, doc)
	}
	m.doc = doc
	return nil
}

func (m *mockDocs) UpdateHistory(ctx context.Context, userID string, upd domain.HistoryUpdate) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, upd)
	}
	if m.doc == nil {
		return domain.ErrNotFound
	}
	m.writes++
	m.doc.MeasurementHistory = upd.MeasurementHistory
	m.doc.WeightHistory = upd.WeightHistory
	m.doc.UpdatedAt = upd.UpdatedAt
	return nil
}

func (m *mockDocs) UpdateMenu(ctx context.Context, userID string, menu domain.WeeklyMenu, at time.Time) error {
	if m.menuFn != nil {
		return m.menuFn(ctx, userID, menu, at)
	}
	if m.doc == nil {
		return domain.ErrNotFound
	}
	m.doc.WeeklyMenu = &menu
	m.doc.UpdatedAt = at
	return nil
}

type entry struct {
	value string
	ttl   time.Duration
}

type fakeCache struct {
	mu    sync.Mutex
	items map[string]entry
	err   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: map[string]entry{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", false, c.err
	}
	e, ok := c.items[key]
	return e.value, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.items[key] = entry{value: value, ttl: ttl}
	return nil
}

func (c *fakeCache) Remove(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	delete(c.items, key)
	return nil
}
