package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutriportal/internal/domain"
)

func at(ms int64) domain.Timestamp {
	return domain.TimestampFromMillis(ms)
}

func dates(view []domain.MeasurementSnapshot) []string {
	out := make([]string, len(view))
	for i, s := range view {
		out[i] = s.Date
	}
	return out
}

func TestBuildDescendingView_OrdersNewestFirst(t *testing.T) {
	rich := []domain.MeasurementSnapshot{
		{Date: "2024-01-01", Weight: domain.Float(80)},
		{Date: "2024-03-01", Weight: domain.Float(78)},
		{Date: "2024-02-01", Weight: domain.Float(79)},
	}
	view := domain.BuildDescendingView(rich, nil)
	assert.Equal(t, []string{"2024-03-01", "2024-02-01", "2024-01-01"}, dates(view))
	assert.Equal(t, "2024-01-01", rich[0].Date, "input must not be reordered")
}

func TestBuildDescendingView_FallsBackToShortList(t *testing.T) {
	short := []domain.ShortSnapshot{
		{Date: "2024-01-01", Weight: domain.Float(80)},
		{Date: "2024-05-01", Peso: domain.Float(75)},
	}
	view := domain.BuildDescendingView(nil, short)
	require.Len(t, view, 2)
	assert.Equal(t, "2024-05-01", view[0].Date)
	assert.Equal(t, 75.0, *view[0].WeightValue())
}

func TestBuildDescendingView_PrefersRichList(t *testing.T) {
	rich := []domain.MeasurementSnapshot{{Date: "2024-01-01", Weight: domain.Float(80)}}
	short := []domain.ShortSnapshot{
		{Date: "2024-01-01", Weight: domain.Float(80)},
		{Date: "2024-02-01", Weight: domain.Float(79)},
	}
	assert.Len(t, domain.BuildDescendingView(rich, short), 1)
}

func TestBuildDescendingView_FiltersEmptyRecords(t *testing.T) {
	rich := []domain.MeasurementSnapshot{
		{Date: "2024-01-01"},
		{Notes: "no date, no weight", CreatedAt: at(5000)},
		{Peso: domain.Float(70), CreatedAt: at(1000)},
	}
	view := domain.BuildDescendingView(rich, nil)
	require.Len(t, view, 2)
	assert.Equal(t, "2024-01-01", view[0].Date)
	assert.Equal(t, 70.0, *view[1].Peso)
}

func TestEffectiveMillis(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, jan, domain.EffectiveMillis("2024-01-01", at(42)))
	assert.Equal(t, int64(42), domain.EffectiveMillis("", at(42)))
	assert.Equal(t, int64(42), domain.EffectiveMillis("not a date", at(42)))
	assert.Equal(t, int64(0), domain.EffectiveMillis("", domain.Timestamp{}))
}

func TestFindDeleteTarget(t *testing.T) {
	keys := []domain.RecordKey{
		{Date: "2024-01-01", Weight: domain.Float(80), CreatedAt: at(10_000)},
		{Date: "2024-02-01", Weight: domain.Float(79), CreatedAt: at(20_000)},
		{Date: "2024-02-01", Weight: domain.Float(79), CreatedAt: at(30_000)},
	}

	tests := []struct {
		name   string
		target domain.RecordKey
		want   int
	}{
		{"createdAt within window", domain.RecordKey{CreatedAt: at(20_900)}, 1},
		{"createdAt outside window", domain.RecordKey{CreatedAt: at(21_500)}, -1},
		{"date and weight, first wins", domain.RecordKey{Date: "2024-02-01", Weight: domain.Float(79)}, 1},
		{"same date other weight", domain.RecordKey{Date: "2024-02-01", Weight: domain.Float(70)}, -1},
		{"empty date never matches by date", domain.RecordKey{Weight: domain.Float(80)}, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.FindDeleteTarget(keys, tc.target))
		})
	}
}

func TestFindDeleteTarget_DateAndWeightBeforeCreatedAt(t *testing.T) {
	keys := []domain.RecordKey{
		{Date: "2024-01-01", Weight: domain.Float(80), CreatedAt: at(1_000)},
		{Date: "2024-03-01", Weight: domain.Float(78), CreatedAt: at(1_100)},
		{Date: "2024-02-01", Weight: domain.Float(79), CreatedAt: at(1_200)},
	}
	target := domain.RecordKey{Date: "2024-02-01", Weight: domain.Float(79), CreatedAt: at(1_200)}
	assert.Equal(t, 2, domain.FindDeleteTarget(keys, target))
}

func TestFindEditTarget_PrefersCreatedAt(t *testing.T) {
	keys := []domain.RecordKey{
		{Date: "2024-02-01", Weight: domain.Float(79), CreatedAt: at(20_000)},
		{Date: "2024-02-01", Weight: domain.Float(79), CreatedAt: at(30_000)},
	}
	target := domain.RecordKey{Date: "2024-02-01", Weight: domain.Float(79), CreatedAt: at(30_400)}
	assert.Equal(t, 1, domain.FindEditTarget(keys, target))
	assert.Equal(t, 0, domain.FindDeleteTarget(keys, target))
}

func TestFindEditTarget_NearestCreatedAtWins(t *testing.T) {
	keys := []domain.RecordKey{
		{Date: "2024-01-01", Weight: domain.Float(80), CreatedAt: at(1_000)},
		{Date: "2024-03-01", Weight: domain.Float(78), CreatedAt: at(1_100)},
		{Date: "2024-02-01", Weight: domain.Float(79), CreatedAt: at(1_200)},
	}
	assert.Equal(t, 2, domain.FindEditTarget(keys, domain.RecordKey{CreatedAt: at(1_200)}))
	assert.Equal(t, 1, domain.FindEditTarget(keys, domain.RecordKey{CreatedAt: at(1_140)}))
	assert.Equal(t, 0, domain.FindEditTarget(keys, domain.RecordKey{CreatedAt: at(1_050)}))
	assert.Equal(t, 2, domain.FindDeleteTarget(keys, domain.RecordKey{Date: "2030-01-01", CreatedAt: at(1_900)}))
}

func TestFindEditTarget_FallsBackToDateAndWeight(t *testing.T) {
	keys := []domain.RecordKey{
		{Date: "2024-01-01", Weight: domain.Float(80)},
		{Date: "2024-02-01", Weight: domain.Float(79)},
	}
	target := domain.RecordKey{Date: "2024-02-01", Weight: domain.Float(79), CreatedAt: at(99_000)}
	assert.Equal(t, 1, domain.FindEditTarget(keys, target))
	assert.Equal(t, -1, domain.FindEditTarget(keys, domain.RecordKey{Date: "2030-01-01"}))
}

func TestKeysReadLegacyWeight(t *testing.T) {
	rich := []domain.MeasurementSnapshot{{Date: "2024-01-01", Peso: domain.Float(80)}}
	short := []domain.ShortSnapshot{{Date: "2024-01-01", Peso: domain.Float(80)}}
	target := domain.MeasurementSnapshot{Date: "2024-01-01", Weight: domain.Float(80)}.Key()
	assert.Equal(t, 0, domain.FindDeleteTarget(domain.RichKeys(rich), target))
	assert.Equal(t, 0, domain.FindDeleteTarget(domain.ShortKeys(short), target))
}
