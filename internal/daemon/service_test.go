package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/pipeline"
)

// memStore is an in-memory Records implementation.
type memStore struct {
	mu       sync.Mutex
	records  []model.CostRecord
	state    map[string]string
	fetchErr error
}

func (m *memStore) Fetch(_ context.Context, r model.DateRange) ([]model.CostRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []model.CostRecord
	for _, rec := range m.records {
		if rec.Completed() && r.Contains(*rec.CompletedAt) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) Upsert(_ context.Context, records []model.CostRecord, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return len(records), nil
}

func (m *memStore) SetState(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		m.state = map[string]string{}
	}
	m.state[key] = value
	return nil
}

func (m *memStore) add(rec model.CostRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func newTestService(t *testing.T, st *memStore, deps Deps) (*Service, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	deps.Store = st
	if deps.Resolver == nil {
		deps.Resolver = fiscal.NewGregorian(time.January, time.UTC)
	}
	deps.Logger = zerolog.New(zerolog.NewTestWriter(t))
	deps.Now = clk.Now
	return New(Config{Mode: model.ModeMonth, EventsBuffer: 10}, deps), clk
}

func seedStore() *memStore {
	return &memStore{records: []model.CostRecord{
		{ID: "1", CompletedAt: ts("2024-02-10T09:00:00Z"), TotalActualCost: "100", TotalPlannedCost: "90", GarageID: "G1"},
		{ID: "2", CompletedAt: ts("2024-03-05T09:00:00Z"), TotalActualCost: "150", TotalPlannedCost: "120", GarageID: "G1"},
		{ID: "3", CompletedAt: ts("2024-03-06T09:00:00Z"), TotalActualCost: "40", GarageID: "G2"},
	}}
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{Interval: time.Second}, Deps{Resolver: fiscal.NewGregorian(time.January, nil)})
	assert.Equal(t, minInterval, s.cfg.Interval)
	assert.Equal(t, defaultBuffer, s.cfg.EventsBuffer)
	assert.Equal(t, defaultAddr, s.cfg.Addr)
	assert.Equal(t, model.ModeMonth, s.cfg.Mode)

	s = New(Config{}, Deps{Resolver: fiscal.NewGregorian(time.January, nil)})
	assert.Equal(t, defaultInterval, s.cfg.Interval)
}

func TestPublishEventRingBuffer(t *testing.T) {
	s, _ := newTestService(t, &memStore{}, Deps{})
	s.cfg.EventsBuffer = 2

	ctx := context.Background()
	s.publishEvent(ctx, Event{ID: 1})
	s.publishEvent(ctx, Event{ID: 2})
	s.publishEvent(ctx, Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	require.Len(t, s.events, 2)
	assert.Equal(t, int64(2), s.events[0].ID)
	assert.Equal(t, int64(3), s.events[1].ID)
}

func TestPollOnce_EventSequence(t *testing.T) {
	st := seedStore()
	pub := &recordingPublisher{}
	s, clk := newTestService(t, st, Deps{Publisher: pub})
	ctx := context.Background()

	s.PollOnce(ctx)
	s.PollOnce(ctx) // unchanged, no event

	st.add(model.CostRecord{ID: "4", CompletedAt: ts("2024-03-14T09:00:00Z"), TotalActualCost: "10", TotalPlannedCost: "5"})
	s.PollOnce(ctx)

	clk.Set(time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC))
	s.PollOnce(ctx)

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	polls := s.pollCount
	s.mu.RUnlock()

	require.Len(t, events, 3)
	assert.Equal(t, EventSnapshot, events[0].Type)
	assert.Equal(t, EventComparisonChanged, events[1].Type)
	assert.Equal(t, EventPeriodRollover, events[2].Type)
	assert.Equal(t, int64(4), polls)

	delta := events[1].Delta
	assert.Equal(t, 1, delta.Records)
	assert.Equal(t, "10", delta.ActualCost.String())
	assert.Equal(t, "5", delta.PlannedCost.String())

	first := events[0].Snapshot.Comparison
	assert.Equal(t, 1, first.Period1.TotalRecords)
	assert.Equal(t, 2, first.Period2.TotalRecords)
	assert.Equal(t, "90", first.Variance.Get(model.MetricActualCost).String())

	assert.Equal(t, "2024-03-01..2024-03-31", events[2].Snapshot.Periods.Period1.String())
	assert.Equal(t, []string{EventSnapshot, EventComparisonChanged, EventPeriodRollover}, pub.types)
}

func TestPollOnce_PublisherErrorIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	s, _ := newTestService(t, seedStore(), Deps{Publisher: pub})

	s.PollOnce(context.Background())

	st := s.snapshotStatus()
	assert.Empty(t, st.LastError)
	assert.Equal(t, 1, st.EventCount)
}

func TestPollOnce_StoreError(t *testing.T) {
	st := seedStore()
	st.fetchErr = errors.New("disk gone")
	s, _ := newTestService(t, st, Deps{})

	s.PollOnce(context.Background())

	status := s.snapshotStatus()
	assert.Contains(t, status.LastError, "disk gone")
	assert.Nil(t, status.Snapshot)
	assert.Equal(t, int64(1), status.PollCount)
	assert.Zero(t, status.EventCount)
}

func TestPollOnce_SyncsUpstream(t *testing.T) {
	upstream := pipeline.FetcherFunc(func(_ context.Context, r model.DateRange) ([]model.CostRecord, error) {
		rec := model.CostRecord{ID: "up", CompletedAt: ts("2024-03-10T00:00:00Z"), TotalActualCost: "70"}
		if r.Contains(*rec.CompletedAt) {
			return []model.CostRecord{rec}, nil
		}
		return nil, nil
	})
	st := &memStore{}
	s, _ := newTestService(t, st, Deps{Upstream: upstream})

	s.PollOnce(context.Background())

	status := s.snapshotStatus()
	require.NotNil(t, status.LastSync)
	assert.Equal(t, 1, status.LastSync.Fetched)
	assert.True(t, status.Upstream)
	require.NotNil(t, status.Snapshot)
	assert.Equal(t, "70", status.Snapshot.Comparison.Period2.TotalActualCost.String())
	assert.Contains(t, st.state, "last_sync:api")
}

func TestPollOnce_UsesResolverZone(t *testing.T) {
	eat := time.FixedZone("EAT", 3*60*60)
	s, clk := newTestService(t, &memStore{}, Deps{Resolver: fiscal.NewGregorian(time.January, eat)})
	// 22:30 UTC on March 31 is already April 1 in EAT.
	clk.Set(time.Date(2024, 3, 31, 22, 30, 0, 0, time.UTC))

	s.PollOnce(context.Background())
	status := s.snapshotStatus()
	require.NotNil(t, status.Snapshot)
	assert.Equal(t, "2024-04-01..2024-04-30", status.Snapshot.Periods.Period2.String())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/v1/periods")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got PeriodsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, status.Snapshot.Periods.Period2.String(), got.Periods.Period2.String())
}

func TestClassify(t *testing.T) {
	base := Snapshot{Periods: model.PeriodPair{
		Period2: model.NewDayRange(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)),
	}}

	typ, ok := classify(Snapshot{}, base, false)
	assert.True(t, ok)
	assert.Equal(t, EventSnapshot, typ)

	_, ok = classify(base, base, true)
	assert.False(t, ok)

	changed := base
	changed.Comparison.Period1.TotalRecords = 1
	typ, ok = classify(base, changed, true)
	assert.True(t, ok)
	assert.Equal(t, EventComparisonChanged, typ)
}

func TestHandlers_StatusAndHealth(t *testing.T) {
	s, _ := newTestService(t, seedStore(), Deps{})
	s.PollOnce(context.Background())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, int64(1), st.PollCount)
	assert.Equal(t, fiscal.CalendarGregorian, st.Calendar)
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, 2, st.Snapshot.Comparison.Period2.TotalRecords)
	assert.Equal(t, 1, st.EventCount)
}

func TestHandlers_CompareMatchesRun(t *testing.T) {
	st := seedStore()
	s, _ := newTestService(t, st, Deps{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/compare?mode=month&garage=G1&now=2024-03-20")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	want, err := pipeline.Run(context.Background(), st, s.deps.Resolver, pipeline.Request{
		Mode:    model.ModeMonth,
		Now:     time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
		Filters: model.Filters{GarageID: "G1"},
	})
	require.NoError(t, err)

	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
	assert.Equal(t, "50", got.Comparison.Variance.Get(model.MetricActualCost).String())
}

func TestHandlers_CompareCustom(t *testing.T) {
	s, _ := newTestService(t, seedStore(), Deps{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/compare?mode=custom&p1=2024-02-01..2024-02-29&p2=2024-03-01..2024-03-05&costType=all")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1, got.Comparison.Period1.TotalRecords)
	assert.Equal(t, 1, got.Comparison.Period2.TotalRecords)
}

func TestHandlers_BadRequests(t *testing.T) {
	s, _ := newTestService(t, seedStore(), Deps{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	for _, path := range []string{
		"/v1/compare?mode=week",
		"/v1/compare?costType=fuel",
		"/v1/compare?mode=custom",
		"/v1/compare?mode=custom&p1=2024-02-01&p2=2024-03-01..2024-03-31",
		"/v1/compare?now=yesterday",
		"/v1/periods?mode=custom",
		"/v1/quarters/next",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		var body apiError
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		assert.NotEmpty(t, body.Error, path)
	}
}

func TestHandlers_Periods(t *testing.T) {
	s, _ := newTestService(t, seedStore(), Deps{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/periods?mode=quarter&now=2024-02-10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got PeriodsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, model.ModeQuarter, got.Mode)
	assert.Equal(t, "2023-10-01..2023-12-31", got.Periods.Period1.String())
	assert.Equal(t, "2024-01-01..2024-03-31", got.Periods.Period2.String())
	assert.Equal(t, [2]string{"FY2023 Q4", "FY2024 Q1"}, got.Labels)
}

func TestHandlers_QuartersEthiopian(t *testing.T) {
	s, _ := newTestService(t, seedStore(), Deps{Resolver: fiscal.NewEthiopian(time.UTC)})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/quarters/2017")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []QuarterRange
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 4)
	assert.Equal(t, "FY2017 Q1", got[0].Label)
	assert.True(t, got[0].Range.Start.Equal(time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)), got[0].Range.Start)
	for i := 1; i < 4; i++ {
		assert.True(t, got[i-1].Range.End.Add(time.Millisecond).Equal(got[i].Range.Start), "quarter %d", i+1)
	}
}

func TestHandlers_EventsAndStream(t *testing.T) {
	s, _ := newTestService(t, seedStore(), Deps{})
	s.PollOnce(context.Background())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/events")
	require.NoError(t, err)
	var events []Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	resp.Body.Close()
	require.Len(t, events, 1)
	assert.Equal(t, EventSnapshot, events[0].Type)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := make([]byte, 64)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "event: snapshot")
}
