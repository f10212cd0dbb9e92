package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutriportal/internal/domain"
	"nutriportal/internal/grocery"
)

// GroceryService builds shopping lists from stored weekly menus.
type GroceryService struct {
	docs domain.DocumentStore
	now  func() time.Time
}

// NewGroceryService creates a GroceryService backed by docs.
func NewGroceryService(docs domain.DocumentStore) *GroceryService {
	return &GroceryService{docs: docs, now: time.Now}
}

// ListForUser builds the shopping list of the user's current weekly menu.
// A user without a menu gets an empty list.
func (s *GroceryService) ListForUser(ctx context.Context, userID string) (grocery.List, error) {
	doc, err := s.docs.GetDocument(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc.WeeklyMenu == nil {
		return grocery.List{}, nil
	}
	return grocery.Build(*doc.WeeklyMenu), nil
}

// Build derives a shopping list from a menu that is not stored.
func (s *GroceryService) Build(menu domain.WeeklyMenu) grocery.List {
	return grocery.Build(menu)
}

// SetMenu replaces the user's weekly menu.
func (s *GroceryService) SetMenu(ctx context.Context, userID string, menu domain.WeeklyMenu) error {
	if err := menu.Validate(); err != nil {
		return err
	}
	err := s.docs.UpdateMenu(ctx, userID, menu, s.now().UTC())
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return &domain.PersistenceError{Op: "menu", Err: err}
}
