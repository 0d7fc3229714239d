package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/questlog/internal/migrate"
	"github.com/dshills/questlog/internal/storage"
	"github.com/dshills/questlog/pkg/types"
)

func setupTestTracker(t *testing.T) *Tracker {
	t.Helper()
	ctx := context.Background()

	h, err := storage.Open(ctx, filepath.Join(t.TempDir(), "genshin.db"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	m, err := migrate.New()
	require.NoError(t, err)
	require.NoError(t, m.EnsureReady(ctx, h))

	return New(h, nil)
}

func TestUpsert_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	tr := setupTestTracker(t)

	rec := &types.TaskRecord{
		Kind:       types.KindDaily,
		Date:       20240131,
		Region:     "eu",
		Name:       "commissions",
		Value:      2,
		Currencies: []types.CurrencyValue{{Currency: "primogem", Amount: 20}},
	}
	require.NoError(t, tr.Upsert(ctx, rec))

	rec.Value = 4
	rec.Currencies = []types.CurrencyValue{{Currency: "primogem", Amount: 60}}
	rec.Notes = "done"
	require.NoError(t, tr.Upsert(ctx, rec))

	got, err := tr.Record(ctx, types.KindDaily, 20240131, "eu", "commissions")
	require.NoError(t, err)
	assert.Equal(t, types.KindDaily, got.Kind)
	assert.Equal(t, int64(4), got.Value)
	assert.Equal(t, "done", got.Notes)
	assert.Equal(t, []types.CurrencyValue{{Currency: "primogem", Amount: 60}}, got.Currencies)
	assert.False(t, got.UpdatedAt.IsZero())

	day, err := tr.RecordsForDay(ctx, types.KindDaily, 20240131, "eu")
	require.NoError(t, err)
	assert.Len(t, day, 1, "upsert must not duplicate the record")
}

func TestRecord_NotFound(t *testing.T) {
	tr := setupTestTracker(t)

	_, err := tr.Record(context.Background(), types.KindWeekly, 20240131, "eu", "abyss")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordsForDay_FiltersRegionAndKind(t *testing.T) {
	ctx := context.Background()
	tr := setupTestTracker(t)

	for _, r := range []types.TaskRecord{
		{Kind: types.KindDaily, Date: 20240131, Region: "eu", Name: "b"},
		{Kind: types.KindDaily, Date: 20240131, Region: "eu", Name: "a"},
		{Kind: types.KindDaily, Date: 20240131, Region: "na", Name: "a"},
		{Kind: types.KindDaily, Date: 20240201, Region: "eu", Name: "a"},
		{Kind: types.KindOther, Date: 20240131, Region: "eu", Name: "a"},
	} {
		r := r
		require.NoError(t, tr.Upsert(ctx, &r))
	}

	got, err := tr.RecordsForDay(ctx, types.KindDaily, 20240131, "eu")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
	assert.Empty(t, got[0].Currencies)

	none, err := tr.RecordsForDay(ctx, types.KindEvent, 20240131, "eu")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordsForRange_HalfOpen(t *testing.T) {
	ctx := context.Background()
	tr := setupTestTracker(t)

	for _, d := range []types.Date{20240128, 20240129, 20240204, 20240205} {
		require.NoError(t, tr.Upsert(ctx, &types.TaskRecord{
			Kind: types.KindWeekly, Date: d, Region: "eu", Name: "boss",
		}))
	}

	got, err := tr.RecordsForRange(ctx, types.KindWeekly, 20240129, 20240205, "eu")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.Date(20240129), got[0].Date)
	assert.Equal(t, types.Date(20240204), got[1].Date)

	_, err = tr.RecordsForRange(ctx, types.KindWeekly, 20240205, 20240129, "eu")
	assert.Error(t, err)
}

func TestUpsert_RejectsInvalid(t *testing.T) {
	tr := setupTestTracker(t)

	err := tr.Upsert(context.Background(), &types.TaskRecord{Kind: "monthly", Date: 20240131, Region: "eu", Name: "x"})
	assert.ErrorIs(t, err, types.ErrInvalidTaskKind)

	_, err = tr.RecordsForDay(context.Background(), "monthly", 20240131, "eu")
	assert.ErrorIs(t, err, types.ErrInvalidTaskKind)
}

func TestCurrencyHistory(t *testing.T) {
	ctx := context.Background()
	tr := setupTestTracker(t)

	id1, err := tr.AddCurrencyHistory(ctx, &types.CurrencySnapshot{
		Date: 20240101, Region: "eu",
		Currencies: []types.CurrencyValue{{Currency: "primogem", Amount: 1600}},
	})
	require.NoError(t, err)
	id2, err := tr.AddCurrencyHistory(ctx, &types.CurrencySnapshot{
		Date: 20240102, Region: "eu", Notes: "after pulls",
		Currencies: []types.CurrencyValue{{Currency: "primogem", Amount: 160}},
	})
	require.NoError(t, err)
	_, err = tr.AddCurrencyHistory(ctx, &types.CurrencySnapshot{Date: 20240102, Region: "na"})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	history, err := tr.CurrencyHistory(ctx, "eu", 20240101, 20240201)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, id1, history[0].ID)
	assert.Equal(t, int64(160), history[1].Currencies[0].Amount)
	assert.Equal(t, "after pulls", history[1].Notes)
}

func TestWeekOf(t *testing.T) {
	// 2024-01-31 is a Wednesday
	start, end := WeekOf(20240131, time.Monday)
	assert.Equal(t, types.Date(20240129), start)
	assert.Equal(t, types.Date(20240205), end)

	start, end = WeekOf(20240129, time.Monday)
	assert.Equal(t, types.Date(20240129), start)
	assert.Equal(t, types.Date(20240205), end)

	start, _ = WeekOf(20240131, time.Thursday)
	assert.Equal(t, types.Date(20240125), start)
}
