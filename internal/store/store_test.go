package store

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/costcmp/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func completedAt(s string) *time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestUpsertAndFetchRange(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	records := []model.CostRecord{
		{ID: "1", CompletedAt: completedAt("2024-03-01T00:00:00Z"), TotalActualCost: "100.25", GarageID: "G1"},
		{ID: "2", CompletedAt: completedAt("2024-03-31T23:59:59.999Z"), TotalActualCost: "50", ActualLaborCost: "20"},
		{ID: "3", CompletedAt: completedAt("2024-04-01T00:00:00Z"), TotalActualCost: "999"},
		{ID: "4", TotalActualCost: "7"},
	}
	n, err := s.Upsert(ctx, records, "import")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	march := model.NewDayRange(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	got, err := s.Fetch(ctx, march)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.Key("1"), got[0].ID)
	assert.Equal(t, "100.25", got[0].TotalActualCost.Value().String())
	assert.Equal(t, model.Key("G1"), got[0].GarageID)
	assert.Equal(t, model.Key("2"), got[1].ID)
	assert.True(t, got[1].CompletedAt.Equal(*records[1].CompletedAt))
	assert.Equal(t, model.RawAmount(""), got[1].ActualOutsourceCost)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestUpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	at := completedAt("2024-05-10T12:00:00Z")
	_, err := s.Upsert(ctx, []model.CostRecord{{ID: "wo-1", CompletedAt: at, TotalActualCost: "10"}}, "api")
	require.NoError(t, err)
	_, err = s.Upsert(ctx, []model.CostRecord{{ID: "wo-1", CompletedAt: at, TotalActualCost: "12"}}, "api")
	require.NoError(t, err)

	got, err := s.Fetch(ctx, model.NewDayRange(*at, *at))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "12", got[0].TotalActualCost.Value().String())
}

func TestBoundsAndState(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, _, ok, err := s.Bounds(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Upsert(ctx, []model.CostRecord{
		{ID: "a", CompletedAt: completedAt("2023-01-05T00:00:00Z")},
		{ID: "b", CompletedAt: completedAt("2024-02-05T00:00:00Z")},
	}, "import")
	require.NoError(t, err)

	first, last, ok, err := s.Bounds(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2023, first.Year())
	assert.Equal(t, 2024, last.Year())

	v, err := s.GetState(ctx, "last_sync")
	require.NoError(t, err)
	assert.Empty(t, v)
	require.NoError(t, s.SetState(ctx, "last_sync", "2024-02-05T00:00:00Z"))
	v, err = s.GetState(ctx, "last_sync")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-05T00:00:00Z", v)

	require.NoError(t, s.TrackFile(ctx, "/tmp/a.json", FileInfo{MtimeNs: 1, SizeBytes: 2}))
	tracked, err := s.GetTrackedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, FileInfo{MtimeNs: 1, SizeBytes: 2}, tracked["/tmp/a.json"])
}

func TestRecordKeyWithoutID(t *testing.T) {
	a := model.CostRecord{TotalActualCost: "1"}
	b := model.CostRecord{TotalActualCost: "2"}
	assert.NotEqual(t, recordKey(a), recordKey(b))
	assert.Equal(t, recordKey(a), recordKey(a))
	assert.Equal(t, "id:x", recordKey(model.CostRecord{ID: "x"}))
}

func TestFetchScansNullColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ms := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC).UnixMilli()
	cols := []string{"id", "completed_at_ms", "total_planned_cost", "total_actual_cost",
		"actual_labor_cost", "actual_lubricant_cost", "actual_outsource_cost",
		"garage_id", "workshop_id", "equipment_category_id"}
	rows := sqlmock.NewRows(cols).
		AddRow("wo-9", ms, nil, "40.5", nil, "abc", nil, "G2", nil, nil)

	r := model.NewDayRange(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cost_records")).
		WithArgs(r.Start.UnixMilli(), r.End.UnixMilli()).
		WillReturnRows(rows)

	got, err := New(db).Fetch(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "40.5", got[0].TotalActualCost.Value().String())
	assert.True(t, got[0].TotalPlannedCost.IsZero())
	assert.True(t, got[0].ActualLubricantCost.IsZero())
	assert.Equal(t, model.Key("G2"), got[0].GarageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("disk full")
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT OR REPLACE INTO cost_records"))
	prep.ExpectExec().WillReturnError(boom)
	mock.ExpectRollback()

	_, err = New(db).Upsert(context.Background(), []model.CostRecord{{ID: "1"}}, "import")
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
