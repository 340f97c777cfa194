package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/store"
)

type memorySink struct {
	mu      sync.Mutex
	records []model.CostRecord
	origins []string
	state   map[string]string
	err     error
}

func (m *memorySink) Upsert(_ context.Context, records []model.CostRecord, origin string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.records = append(m.records, records...)
	m.origins = append(m.origins, origin)
	return len(records), nil
}

func (m *memorySink) SetState(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		m.state = map[string]string{}
	}
	m.state[key] = value
	return nil
}

func TestMonthChunks(t *testing.T) {
	chunks := monthChunks(dayRange(t, "2024-01-20", "2024-03-05"))
	want := []string{
		"2024-01-20..2024-01-31",
		"2024-02-01..2024-02-29",
		"2024-03-01..2024-03-05",
	}
	require.Len(t, chunks, len(want))
	for i, w := range want {
		assert.Equal(t, w, chunks[i].String())
	}
	assert.Equal(t, 999_000_000, chunks[0].End.Nanosecond())
	assert.True(t, chunks[1].Start.Equal(chunks[0].End.Add(time.Millisecond)))

	single := monthChunks(dayRange(t, "2024-06-10", "2024-06-10"))
	require.Len(t, single, 1)
}

func TestSyncWindow(t *testing.T) {
	w := SyncWindow(mustTime(t, "2024-03-10T15:00:00Z"), 10)
	assert.Equal(t, "2024-03-01..2024-03-10", w.String())

	w = SyncWindow(mustTime(t, "2024-03-10T15:00:00Z"), 0)
	assert.Equal(t, "2024-03-10..2024-03-10", w.String())
}

func TestSync(t *testing.T) {
	records := []model.CostRecord{
		{ID: "1", CompletedAt: at(t, "2024-01-25T00:00:00Z"), TotalActualCost: "1"},
		{ID: "2", CompletedAt: at(t, "2024-02-14T00:00:00Z"), TotalActualCost: "2"},
		{ID: "3", CompletedAt: at(t, "2024-03-01T00:00:00Z"), TotalActualCost: "3"},
		{ID: "4", CompletedAt: at(t, "2024-03-09T00:00:00Z"), TotalActualCost: "4"},
	}
	sink := &memorySink{}
	now := mustTime(t, "2024-03-05T12:00:00Z")

	result, err := Sync(context.Background(), memoryFetcher(records), sink,
		dayRange(t, "2024-01-20", "2024-03-05"), OriginAPI, now)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Chunks)
	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 3, result.Stored)
	assert.Equal(t, []string{OriginAPI}, sink.origins)
	assert.Equal(t, "2024-03-05T12:00:00Z", sink.state["last_sync:api"])
}

func TestSync_UpstreamError(t *testing.T) {
	boom := errors.New("upstream down")
	f := FetcherFunc(func(_ context.Context, r model.DateRange) ([]model.CostRecord, error) {
		if r.Start.Month() == time.February {
			return nil, boom
		}
		return nil, nil
	})
	sink := &memorySink{}

	_, err := Sync(context.Background(), f, sink, dayRange(t, "2024-01-01", "2024-03-31"), OriginAPI, time.Now())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, sink.state, "state must not advance on failure")
}

func TestImportFiles(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	dir := t.TempDir()
	good := filepath.Join(dir, "march.json")
	bad := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(good, []byte(`[
		{"id":"1","completedAt":"2024-03-02T00:00:00Z","totalActualCost":"10"},
		{"id":"2","completedAt":"2024-03-03T00:00:00Z","totalActualCost":"20"}
	]`), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte(`{"nothing": []}`), 0o600))

	first, err := ImportFiles(ctx, st, []string{dir}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalFiles)
	assert.Equal(t, 1, first.ParsedFiles)
	assert.Equal(t, 1, first.FileErrors)
	assert.Equal(t, 2, first.Stored)

	second, err := ImportFiles(ctx, st, []string{dir}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Unchanged, "tracked file should be skipped")
	assert.Equal(t, 1, second.FileErrors, "failed file should be retried")
	assert.Equal(t, 0, second.Stored)

	forced, err := ImportFiles(ctx, st, []string{dir}, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, forced.Unchanged)
	assert.Equal(t, 2, forced.Stored)

	got, err := st.Fetch(ctx, dayRange(t, "2024-03-01", "2024-03-31"))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
