package domain

import (
	"sort"
	"strings"
	"time"
)

// MatchToleranceMillis is the createdAt window inside which two records are
// taken to be the same weigh-in.
const MatchToleranceMillis = 1000

// RecordKey is the part of a history entry used to find "the same" record in
// a list that has no stable identifiers.
type RecordKey struct {
	Date      string
	Weight    *float64
	CreatedAt Timestamp
}

// Key returns the matching key of a rich snapshot.
func (s MeasurementSnapshot) Key() RecordKey {
	return RecordKey{Date: s.Date, Weight: s.WeightValue(), CreatedAt: s.CreatedAt}
}

// Key returns the matching key of a short snapshot.
func (s ShortSnapshot) Key() RecordKey {
	return RecordKey{Date: s.Date, Weight: s.WeightValue(), CreatedAt: s.CreatedAt}
}

// EffectiveMillis is the sort clock of a record: the calendar date when it
// parses, else createdAt, else 0.
func EffectiveMillis(date string, createdAt Timestamp) int64 {
	if d := strings.TrimSpace(date); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			return t.UnixMilli()
		}
	}
	return createdAt.Millis()
}

// BuildDescendingView derives the newest-first list the portal displays.
// The rich list wins when it has entries; otherwise the short list is widened.
// Records without a date and without a weight are left out. The inputs are
// never modified.
func BuildDescendingView(rich []MeasurementSnapshot, short []ShortSnapshot) []MeasurementSnapshot {
	var src []MeasurementSnapshot
	if len(rich) > 0 {
		src = make([]MeasurementSnapshot, 0, len(rich))
		src = append(src, rich...)
	} else {
		src = make([]MeasurementSnapshot, 0, len(short))
		for _, s := range short {
			src = append(src, s.Snapshot())
		}
	}

	view := src[:0]
	for _, s := range src {
		if s.Persistable() {
			view = append(view, s)
		}
	}

	sort.SliceStable(view, func(i, j int) bool {
		return EffectiveMillis(view[i].Date, view[i].CreatedAt) > EffectiveMillis(view[j].Date, view[j].CreatedAt)
	})
	return view
}

func createdAtDistance(a, b Timestamp) (int64, bool) {
	if !a.Valid() || !b.Valid() {
		return 0, false
	}
	d := a.Millis() - b.Millis()
	if d < 0 {
		d = -d
	}
	return d, d <= MatchToleranceMillis
}

// closestCreatedAt returns the key whose createdAt is nearest to the
// target's within the tolerance window. Equal distances keep the earlier key.
func closestCreatedAt(keys []RecordKey, target Timestamp) int {
	best, bestD := -1, int64(0)
	for i, k := range keys {
		d, ok := createdAtDistance(k.CreatedAt, target)
		if ok && (best < 0 || d < bestD) {
			best, bestD = i, d
		}
	}
	return best
}

func sameWeight(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameDateAndWeight(a, b RecordKey) bool {
	return a.Date != "" && a.Date == b.Date && sameWeight(a.Weight, b.Weight)
}

// FindDeleteTarget looks for a key sharing the target's date and weight and
// only then for the nearest createdAt within the tolerance window. It
// returns -1 when neither pass finds a record.
func FindDeleteTarget(keys []RecordKey, target RecordKey) int {
	for i, k := range keys {
		if sameDateAndWeight(k, target) {
			return i
		}
	}
	return closestCreatedAt(keys, target.CreatedAt)
}

// FindEditTarget prefers the nearest createdAt match and only then falls back
// to date and weight equality. It returns -1 when neither pass finds a record.
func FindEditTarget(keys []RecordKey, target RecordKey) int {
	if i := closestCreatedAt(keys, target.CreatedAt); i >= 0 {
		return i
	}
	for i, k := range keys {
		if sameDateAndWeight(k, target) {
			return i
		}
	}
	return -1
}

// RichKeys collects the matching keys of a rich list.
func RichKeys(list []MeasurementSnapshot) []RecordKey {
	keys := make([]RecordKey, len(list))
	for i, s := range list {
		keys[i] = s.Key()
	}
	return keys
}

// ShortKeys collects the matching keys of a short list.
func ShortKeys(list []ShortSnapshot) []RecordKey {
	keys := make([]RecordKey, len(list))
	for i, s := range list {
		keys[i] = s.Key()
	}
	return keys
}
