package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"nutriportal/internal/domain"
)

type accountRecord struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"passwordHash,omitempty"`
	Role         string    `bson:"role"`
	UserID       string    `bson:"userId,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func (r accountRecord) account() *domain.Account {
	return &domain.Account{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		UserID:       r.UserID,
		CreatedAt:    r.CreatedAt,
	}
}

func (s *Store) findAccount(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var rec accountRecord
	err := s.db.Collection(accountsCollection).FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.account(), nil
}

// GetByUsername retrieves an account by username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.findAccount(ctx, bson.M{"username": username})
}

// GetByID retrieves an account by ID.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.findAccount(ctx, bson.M{"_id": id})
}

// Create inserts a new account.
func (s *Store) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	rec := accountRecord{
		ID:           a.ID,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		UserID:       a.UserID,
		CreatedAt:    a.CreatedAt.UTC(),
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.Collection(accountsCollection).InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return rec.account(), nil
}

// Count returns the total number of accounts.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.Collection(accountsCollection).CountDocuments(ctx, bson.M{})
	return int(n), err
}

type sessionRecord struct {
	Token     string    `bson:"_id"`
	AccountID string    `bson:"accountId"`
	UserAgent string    `bson:"userAgent"`
	IP        string    `bson:"ip"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// SessionRepo keeps sessions in their own collection. The server removes
// expired sessions through a TTL index.
type SessionRepo struct {
	store *Store
}

// NewSessionRepo wraps a Store as a SessionRepository.
func NewSessionRepo(s *Store) *SessionRepo {
	return &SessionRepo{store: s}
}

func (r *SessionRepo) coll() *mongo.Collection {
	return r.store.db.Collection(sessionsCollection)
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	rec := sessionRecord{
		Token:     s.Token,
		AccountID: s.AccountID,
		UserAgent: s.UserAgent,
		IP:        s.IP,
		ExpiresAt: s.ExpiresAt.UTC(),
		CreatedAt: s.CreatedAt.UTC(),
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.coll().InsertOne(ctx, rec)
	return err
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var rec sessionRecord
	err := r.coll().FindOne(ctx, bson.M{"_id": token}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		Token:     rec.Token,
		AccountID: rec.AccountID,
		UserAgent: rec.UserAgent,
		IP:        rec.IP,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.coll().DeleteOne(ctx, bson.M{"_id": token})
	return err
}

// DeleteExpired deletes sessions the TTL monitor has not reaped yet.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.coll().DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": time.Now().UTC()}})
	return err
}
