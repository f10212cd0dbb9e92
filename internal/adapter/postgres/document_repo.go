package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nutriportal/internal/domain"
)

var _ domain.DocumentStore = (*DB)(nil)

// GetDocument loads the JSONB user document.
func (d *DB) GetDocument(ctx context.Context, userID string) (*domain.UserDocument, error) {
	var (
		raw       []byte
		updatedAt time.Time
	)
	err := d.sql.QueryRowContext(ctx,
		"SELECT doc, updated_at FROM user_documents WHERE user_id = $1;",
		userID,
	).Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc domain.UserDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode user document %s: %w", userID, err)
	}
	doc.UserID = userID
	doc.UpdatedAt = updatedAt.UTC()
	return &doc, nil
}

// CreateDocument inserts a new user document.
func (d *DB) CreateDocument(ctx context.Context, doc *domain.UserDocument) error {
	cp := *doc
	if cp.MeasurementHistory == nil {
		cp.MeasurementHistory = []domain.MeasurementSnapshot{}
	}
	if cp.WeightHistory == nil {
		cp.WeightHistory = []domain.ShortSnapshot{}
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	res, err := d.sql.ExecContext(ctx,
		"INSERT INTO user_documents(user_id, doc, updated_at) VALUES($1, $2, $3) ON CONFLICT (user_id) DO NOTHING;",
		cp.UserID, string(raw), cp.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// UpdateHistory replaces both history lists in one statement. The other
// keys of the document are kept.
func (d *DB) UpdateHistory(ctx context.Context, userID string, upd domain.HistoryUpdate) error {
	rich := upd.MeasurementHistory
	if rich == nil {
		rich = []domain.MeasurementSnapshot{}
	}
	short := upd.WeightHistory
	if short == nil {
		short = []domain.ShortSnapshot{}
	}
	richJSON, err := json.Marshal(rich)
	if err != nil {
		return err
	}
	shortJSON, err := json.Marshal(short)
	if err != nil {
		return err
	}

	res, err := d.sql.ExecContext(ctx,
		`UPDATE user_documents
		SET doc = doc || jsonb_build_object('measurementHistory', $2::jsonb, 'weightHistory', $3::jsonb, 'updatedAt', $4::text),
			updated_at = $5
		WHERE user_id = $1;`,
		userID, string(richJSON), string(shortJSON), upd.UpdatedAt.UTC().Format(time.RFC3339Nano), upd.UpdatedAt.UTC(),
	)
	return affectedOne(res, err)
}

// UpdateMenu replaces the weekly menu key of the document.
func (d *DB) UpdateMenu(ctx context.Context, userID string, menu domain.WeeklyMenu, updatedAt time.Time) error {
	menuJSON, err := json.Marshal(menu)
	if err != nil {
		return err
	}
	res, err := d.sql.ExecContext(ctx,
		`UPDATE user_documents
		SET doc = doc || jsonb_build_object('weeklyMenu', $2::jsonb, 'updatedAt', $3::text),
			updated_at = $4
		WHERE user_id = $1;`,
		userID, string(menuJSON), updatedAt.UTC().Format(time.RFC3339Nano), updatedAt.UTC(),
	)
	return affectedOne(res, err)
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
