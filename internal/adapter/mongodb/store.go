// Package mongodb stores user documents, accounts and sessions in MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nutriportal/internal/domain"
)

const (
	usersCollection    = "users"
	accountsCollection = "accounts"
	sessionsCollection = "sessions"
)

var indexes = map[string][]mongo.IndexModel{
	accountsCollection: {
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("UniqueUsername").SetUnique(true),
		},
	},
	sessionsCollection: {
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("SessionExpiry").SetExpireAfterSeconds(0),
		},
	},
}

// Store is a MongoDB-backed DocumentStore and AccountRepository.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var (
	_ domain.DocumentStore     = (*Store)(nil)
	_ domain.AccountRepository = (*Store)(nil)
	_ domain.SessionRepository = (*SessionRepo)(nil)
)

// Open connects to uri, pings the server and ensures the indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo indexes %s: %w", coll, err)
		}
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) users() *mongo.Collection {
	return s.db.Collection(usersCollection)
}

// GetDocument loads a user document by id.
func (s *Store) GetDocument(ctx context.Context, userID string) (*domain.UserDocument, error) {
	var doc domain.UserDocument
	err := s.users().FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateDocument inserts a new user document.
func (s *Store) CreateDocument(ctx context.Context, doc *domain.UserDocument) error {
	cp := *doc
	if cp.MeasurementHistory == nil {
		cp.MeasurementHistory = []domain.MeasurementSnapshot{}
	}
	if cp.WeightHistory == nil {
		cp.WeightHistory = []domain.ShortSnapshot{}
	}
	_, err := s.users().InsertOne(ctx, cp)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// UpdateHistory sets both history lists in a single update. Other fields
// of the document are untouched.
func (s *Store) UpdateHistory(ctx context.Context, userID string, upd domain.HistoryUpdate) error {
	rich := upd.MeasurementHistory
	if rich == nil {
		rich = []domain.MeasurementSnapshot{}
	}
	short := upd.WeightHistory
	if short == nil {
		short = []domain.ShortSnapshot{}
	}
	return s.setFields(ctx, userID, bson.M{
		"measurementHistory": rich,
		"weightHistory":      short,
		"updatedAt":          upd.UpdatedAt.UTC(),
	})
}

// UpdateMenu sets the weekly menu.
func (s *Store) UpdateMenu(ctx context.Context, userID string, menu domain.WeeklyMenu, updatedAt time.Time) error {
	return s.setFields(ctx, userID, bson.M{
		"weeklyMenu": menu,
		"updatedAt":  updatedAt.UTC(),
	})
}

func (s *Store) setFields(ctx context.Context, userID string, fields bson.M) error {
	res, err := s.users().UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
