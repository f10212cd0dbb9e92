package domain

import (
	"context"
	"time"
)

// UserDocument is the part of a user record this service reads and writes.
// Other fields of the hosted document are left untouched by every update.
type UserDocument struct {
	UserID             string                `json:"userId" bson:"_id"`
	Name               string                `json:"name,omitempty" bson:"name,omitempty"`
	MeasurementHistory []MeasurementSnapshot `json:"measurementHistory" bson:"measurementHistory"`
	WeightHistory      []ShortSnapshot       `json:"weightHistory" bson:"weightHistory"`
	WeeklyMenu         *WeeklyMenu           `json:"weeklyMenu,omitempty" bson:"weeklyMenu,omitempty"`
	UpdatedAt          time.Time             `json:"updatedAt" bson:"updatedAt"`
}

// HistoryUpdate replaces both history lists in a single write.
type HistoryUpdate struct {
	MeasurementHistory []MeasurementSnapshot
	WeightHistory      []ShortSnapshot
	UpdatedAt          time.Time
}

// DocumentStore is the port to the hosting document store. Updates replace
// whole fields; they never patch inside a list.
type DocumentStore interface {
	GetDocument(ctx context.Context, userID string) (*UserDocument, error)
	CreateDocument(ctx context.Context, doc *UserDocument) error
	UpdateHistory(ctx context.Context, userID string, upd HistoryUpdate) error
	UpdateMenu(ctx context.Context, userID string, menu WeeklyMenu, updatedAt time.Time) error
}

// KeyValueCache is a durable, non-authoritative client cache keyed by
// user and item. A zero ttl keeps the value until it is removed.
type KeyValueCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}
