package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nutriportal/internal/domain"
)

// ReminderService keeps per-user client state that survives reloads:
// dismissed reminders and unsent drafts. The cache is not authoritative.
type ReminderService struct {
	cache    domain.KeyValueCache
	draftTTL time.Duration
	now      func() time.Time
}

// NewReminderService creates a ReminderService. Drafts expire after
// draftTTL; zero keeps them until cleared.
func NewReminderService(cache domain.KeyValueCache, draftTTL time.Duration) *ReminderService {
	return &ReminderService{cache: cache, draftTTL: draftTTL, now: time.Now}
}

func cacheKey(kind, userID, itemID string) (string, error) {
	userID, itemID = strings.TrimSpace(userID), strings.TrimSpace(itemID)
	if userID == "" || itemID == "" {
		return "", fmt.Errorf("%w: user and item are required", domain.ErrValidation)
	}
	// ':' separates the key parts.
	if strings.Contains(userID, ":") || strings.Contains(itemID, ":") {
		return "", fmt.Errorf("%w: user and item must not contain ':'", domain.ErrValidation)
	}
	return kind + ":" + userID + ":" + itemID, nil
}

// Dismiss hides a reminder for the user.
func (s *ReminderService) Dismiss(ctx context.Context, userID, itemID string) error {
	key, err := cacheKey("dismissed", userID, itemID)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, s.now().UTC().Format(time.RFC3339), 0)
}

// IsDismissed reports whether the user dismissed the reminder.
func (s *ReminderService) IsDismissed(ctx context.Context, userID, itemID string) (bool, error) {
	key, err := cacheKey("dismissed", userID, itemID)
	if err != nil {
		return false, err
	}
	_, ok, err := s.cache.Get(ctx, key)
	return ok, err
}

// Restore shows a dismissed reminder again.
func (s *ReminderService) Restore(ctx context.Context, userID, itemID string) error {
	key, err := cacheKey("dismissed", userID, itemID)
	if err != nil {
		return err
	}
	return s.cache.Remove(ctx, key)
}

// SaveDraft stores draft text. Blank text clears the draft.
func (s *ReminderService) SaveDraft(ctx context.Context, userID, itemID, text string) error {
	key, err := cacheKey("draft", userID, itemID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return s.cache.Remove(ctx, key)
	}
	return s.cache.Set(ctx, key, text, s.draftTTL)
}

// LoadDraft returns the stored draft, if any.
func (s *ReminderService) LoadDraft(ctx context.Context, userID, itemID string) (string, bool, error) {
	key, err := cacheKey("draft", userID, itemID)
	if err != nil {
		return "", false, err
	}
	return s.cache.Get(ctx, key)
}

// ClearDraft removes the stored draft.
func (s *ReminderService) ClearDraft(ctx context.Context, userID, itemID string) error {
	key, err := cacheKey("draft", userID, itemID)
	if err != nil {
		return err
	}
	return s.cache.Remove(ctx, key)
}
