package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"nutriportal/internal/domain"
)

var measurementOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nutriportal",
	Name:      "measurement_operations_total",
	Help:      "Measurement history operations by kind and outcome.",
}, []string{"op", "result"})

// DeleteResult reports which history lists lost an entry.
type DeleteResult struct {
	RemovedRich  bool `json:"removedRich"`
	RemovedShort bool `json:"removedShort"`
}

// EditResult reports how the edit landed in each history list.
type EditResult struct {
	UpdatedRich   bool `json:"updatedRich"`
	AppendedRich  bool `json:"appendedRich"`
	UpdatedShort  bool `json:"updatedShort"`
	AppendedShort bool `json:"appendedShort"`
}

// MeasurementService keeps the rich and short weigh-in lists of a user
// document in step. Every change is a read of the document followed by a
// single write of both lists.
type MeasurementService struct {
	docs       domain.DocumentStore
	log        logrus.FieldLogger
	now        func() time.Time
	autoCreate bool
}

// MeasurementOption configures a MeasurementService.
type MeasurementOption func(*MeasurementService)

// WithClock replaces the clock used for createdAt and updatedAt.
func WithClock(now func() time.Time) MeasurementOption {
	return func(s *MeasurementService) { s.now = now }
}

// WithAutoCreate makes Append create a missing user document instead of
// failing with domain.ErrNotFound.
func WithAutoCreate(enabled bool) MeasurementOption {
	return func(s *MeasurementService) { s.autoCreate = enabled }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) MeasurementOption {
	return func(s *MeasurementService) { s.log = log }
}

// NewMeasurementService creates a MeasurementService backed by docs.
func NewMeasurementService(docs domain.DocumentStore, opts ...MeasurementOption) *MeasurementService {
	s := &MeasurementService{
		docs: docs,
		log:  logrus.StandardLogger(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History returns the newest-first view of a user's measurements.
func (s *MeasurementService) History(ctx context.Context, userID string) ([]domain.MeasurementSnapshot, error) {
	doc, err := s.docs.GetDocument(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return domain.BuildDescendingView(doc.MeasurementHistory, doc.WeightHistory), nil
}

// Append validates snap and adds it to both lists under one createdAt.
func (s *MeasurementService) Append(ctx context.Context, userID string, snap domain.MeasurementSnapshot) (*domain.MeasurementSnapshot, error) {
	if err := domain.ValidateSnapshot(snap); err != nil {
		measurementOps.WithLabelValues("append", "invalid").Inc()
		return nil, err
	}
	now := s.now()
	snap = snap.WithDerivedFields()
	if !snap.CreatedAt.Valid() {
		snap.CreatedAt = domain.NewTimestamp(now)
	}

	doc, err := s.docs.GetDocument(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) && s.autoCreate {
		return s.createWith(ctx, userID, snap, now)
	}
	if err != nil {
		measurementOps.WithLabelValues("append", "error").Inc()
		return nil, fmt.Errorf("load document: %w", err)
	}

	rich := append(append([]domain.MeasurementSnapshot(nil), doc.MeasurementHistory...), snap)
	short := append(append([]domain.ShortSnapshot(nil), doc.WeightHistory...), snap.Short())

	if err := s.write(ctx, userID, "append", rich, short, now); err != nil {
		return nil, err
	}
	measurementOps.WithLabelValues("append", "ok").Inc()
	return &snap, nil
}

func (s *MeasurementService) createWith(ctx context.Context, userID string, snap domain.MeasurementSnapshot, now time.Time) (*domain.MeasurementSnapshot, error) {
	doc := &domain.UserDocument{
		UserID:             userID,
		MeasurementHistory: []domain.MeasurementSnapshot{snap},
		WeightHistory:      []domain.ShortSnapshot{snap.Short()},
		UpdatedAt:          now.UTC(),
	}
	if err := s.docs.CreateDocument(ctx, doc); err != nil {
		measurementOps.WithLabelValues("append", "error").Inc()
		s.log.WithError(err).WithField("user_id", userID).Error("create user document")
		return nil, &domain.PersistenceError{Op: "create", Err: err}
	}
	s.log.WithField("user_id", userID).Info("created user document")
	measurementOps.WithLabelValues("append", "ok").Inc()
	return &snap, nil
}

// DeleteAt removes the record shown at index of view from both lists. A
// list without a matching record is left as is; when neither list matches,
// nothing is written and domain.ErrNoMatch is returned.
func (s *MeasurementService) DeleteAt(ctx context.Context, userID string, view []domain.MeasurementSnapshot, index int) (DeleteResult, error) {
	var res DeleteResult
	if index < 0 || index >= len(view) {
		return res, fmt.Errorf("%w: %d of %d", domain.ErrIndexOutOfRange, index, len(view))
	}
	target := view[index].Key()

	doc, err := s.docs.GetDocument(ctx, userID)
	if err != nil {
		measurementOps.WithLabelValues("delete", "error").Inc()
		return res, fmt.Errorf("load document: %w", err)
	}

	rich := doc.MeasurementHistory
	if i := domain.FindDeleteTarget(domain.RichKeys(rich), target); i >= 0 {
		rich = append(append([]domain.MeasurementSnapshot(nil), rich[:i]...), rich[i+1:]...)
		res.RemovedRich = true
	}
	short := doc.WeightHistory
	if i := domain.FindDeleteTarget(domain.ShortKeys(short), target); i >= 0 {
		short = append(append([]domain.ShortSnapshot(nil), short[:i]...), short[i+1:]...)
		res.RemovedShort = true
	}

	log := s.log.WithFields(logrus.Fields{"user_id": userID, "index": index, "date": target.Date})
	if !res.RemovedRich && !res.RemovedShort {
		measurementOps.WithLabelValues("delete", "miss").Inc()
		log.Warn("delete matched no record")
		return res, domain.ErrNoMatch
	}
	if !res.RemovedRich || !res.RemovedShort {
		log.WithFields(logrus.Fields{"rich": res.RemovedRich, "short": res.RemovedShort}).Warn("delete matched one list only")
	}

	if err := s.write(ctx, userID, "delete", rich, short, s.now()); err != nil {
		return DeleteResult{}, err
	}
	measurementOps.WithLabelValues("delete", "ok").Inc()
	return res, nil
}

// EditAt replaces the record shown at index of view with values. In each
// list the record is found by createdAt first, then by date and weight; it
// keeps its original createdAt. A non-empty list without a match gets the
// edit appended.
func (s *MeasurementService) EditAt(ctx context.Context, userID string, view []domain.MeasurementSnapshot, index int, values domain.MeasurementSnapshot) (EditResult, error) {
	var res EditResult
	if index < 0 || index >= len(view) {
		return res, fmt.Errorf("%w: %d of %d", domain.ErrIndexOutOfRange, index, len(view))
	}
	if err := domain.ValidateSnapshot(values); err != nil {
		measurementOps.WithLabelValues("edit", "invalid").Inc()
		return res, err
	}
	target := view[index].Key()
	now := s.now()

	doc, err := s.docs.GetDocument(ctx, userID)
	if err != nil {
		measurementOps.WithLabelValues("edit", "error").Inc()
		return res, fmt.Errorf("load document: %w", err)
	}

	fallback := target.CreatedAt
	if !fallback.Valid() {
		fallback = domain.NewTimestamp(now)
	}
	edited := values.WithDerivedFields()

	rich := append([]domain.MeasurementSnapshot(nil), doc.MeasurementHistory...)
	if i := domain.FindEditTarget(domain.RichKeys(rich), target); i >= 0 {
		e := edited
		e.CreatedAt = keepCreatedAt(rich[i].CreatedAt, fallback)
		rich[i] = e
		res.UpdatedRich = true
	} else if len(rich) > 0 {
		e := edited
		e.CreatedAt = fallback
		rich = append(rich, e)
		res.AppendedRich = true
	}

	short := append([]domain.ShortSnapshot(nil), doc.WeightHistory...)
	if i := domain.FindEditTarget(domain.ShortKeys(short), target); i >= 0 {
		e := edited.Short()
		e.CreatedAt = keepCreatedAt(short[i].CreatedAt, fallback)
		short[i] = e
		res.UpdatedShort = true
	} else if len(short) > 0 {
		e := edited.Short()
		e.CreatedAt = fallback
		short = append(short, e)
		res.AppendedShort = true
	}

	if res.AppendedRich || res.AppendedShort {
		s.log.WithFields(logrus.Fields{
			"user_id":        userID,
			"index":          index,
			"appended_rich":  res.AppendedRich,
			"appended_short": res.AppendedShort,
		}).Warn("edit target not found, appended instead")
	}

	if err := s.write(ctx, userID, "edit", rich, short, now); err != nil {
		return EditResult{}, err
	}
	measurementOps.WithLabelValues("edit", "ok").Inc()
	return res, nil
}

func keepCreatedAt(existing, fallback domain.Timestamp) domain.Timestamp {
	if existing.Valid() {
		return existing
	}
	return fallback
}

func (s *MeasurementService) write(ctx context.Context, userID, op string, rich []domain.MeasurementSnapshot, short []domain.ShortSnapshot, now time.Time) error {
	err := s.docs.UpdateHistory(ctx, userID, domain.HistoryUpdate{
		MeasurementHistory: rich,
		WeightHistory:      short,
		UpdatedAt:          now.UTC(),
	})
	if err == nil {
		return nil
	}
	measurementOps.WithLabelValues(op, "error").Inc()
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "op": op}).Error("write measurement history")
	return &domain.PersistenceError{Op: op, Err: err}
}
