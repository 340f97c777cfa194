// Package daemon provides the long-running comparison service: it polls the
// record store, emits events when the comparison moves and serves an HTTP API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/logging"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/notify"
	"github.com/theirongolddev/costcmp/internal/pipeline"
)

// Event types.
const (
	EventSnapshot          = "snapshot"
	EventComparisonChanged = "comparison_changed"
	EventPeriodRollover    = "period_rollover"
)

const (
	defaultInterval = time.Minute
	minInterval     = 5 * time.Second
	defaultBuffer   = 200
	defaultAddr     = "127.0.0.1:8643"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Mode         model.Mode
	Filters      model.Filters
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	// SyncDays is the trailing window pulled from Upstream on every poll.
	SyncDays   int
	SyncOrigin string
}

// Records is the local store the daemon reads from and syncs into.
type Records interface {
	pipeline.Fetcher
	pipeline.Sink
}

// Deps are the collaborators the service runs against.
type Deps struct {
	Store    Records
	Resolver fiscal.Resolver
	// Upstream, when set, is synced into Store before every poll.
	Upstream pipeline.Fetcher
	// Publisher, when set, receives every event.
	Publisher notify.Publisher
	Logger    zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Snapshot is the comparison state after one poll.
type Snapshot struct {
	At         time.Time              `json:"at"`
	Periods    model.PeriodPair       `json:"periods"`
	Comparison model.PeriodComparison `json:"comparison"`
}

// Delta captures period 2 movement between polls.
type Delta struct {
	Records     int             `json:"records"`
	ActualCost  decimal.Decimal `json:"actualCost"`
	PlannedCost decimal.Decimal `json:"plannedCost"`
}

// Event is emitted whenever the comparison snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time     `json:"started_at"`
	LastPollAt      time.Time     `json:"last_poll_at"`
	PollIntervalSec int           `json:"poll_interval_sec"`
	PollCount       int64         `json:"poll_count"`
	Mode            model.Mode    `json:"mode"`
	Calendar        string        `json:"calendar"`
	Filters         model.Filters `json:"filters"`
	Upstream        bool          `json:"upstream"`
	LastSync        *SyncStatus   `json:"last_sync,omitempty"`
	Snapshot        *Snapshot     `json:"snapshot,omitempty"`
	LastError       string        `json:"last_error,omitempty"`
	EventCount      int           `json:"event_count"`
	SubscriberCount int           `json:"subscriber_count"`
}

// SyncStatus reports the most recent upstream sync.
type SyncStatus struct {
	At      time.Time `json:"at"`
	Window  string    `json:"window"`
	Fetched int       `json:"fetched"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	deps   Deps
	log    zerolog.Logger
	router chi.Router

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	lastSync    *SyncStatus
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service with the provided config and collaborators.
func New(cfg Config, deps Deps) *Service {
	if cfg.Interval == 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Interval < minInterval {
		cfg.Interval = minInterval
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = defaultBuffer
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.Mode == "" {
		cfg.Mode = model.ModeMonth
	}
	if cfg.SyncDays < 1 {
		cfg.SyncDays = 400
	}
	if cfg.SyncOrigin == "" {
		cfg.SyncOrigin = pipeline.OriginAPI
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Service{
		cfg:       cfg,
		deps:      deps,
		log:       deps.Logger.With().Str("component", "daemon").Logger(),
		startedAt: deps.Now(),
		subs:      make(map[int]chan Event),
	}
	s.router = s.routes()
	return s
}

func (s *Service) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(logging.Middleware(&s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
		r.Get("/compare", s.handleCompare)
		r.Get("/periods", s.handlePeriods)
		r.Get("/quarters/{fy}", s.handleQuarters)
	})
	return r
}

// Handler exposes the HTTP API.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Dur("interval", s.cfg.Interval).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.PollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("shutdown initiated")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.PollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// PollOnce syncs from upstream when configured, recomputes the comparison
// over the store and emits an event when it moved.
func (s *Service) PollOnce(ctx context.Context) {
	now := s.now()

	var syncErr error
	if s.deps.Upstream != nil {
		syncErr = s.syncUpstream(ctx, now)
	}

	report, err := pipeline.Run(ctx, s.deps.Store, s.deps.Resolver, pipeline.Request{
		Mode:    s.cfg.Mode,
		Now:     now,
		Filters: s.cfg.Filters,
	})
	if err != nil {
		s.recordFailure(now, err)
		return
	}

	snap := Snapshot{At: now, Periods: report.Periods, Comparison: report.Comparison}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""
	if syncErr != nil {
		s.lastError = syncErr.Error()
	}

	if typ, ok := classify(prev, snap, prevExists); ok {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      typ,
			Timestamp: now,
			Snapshot:  snap,
		}
		if typ == EventComparisonChanged {
			ev.Delta = diffSnapshots(prev, snap)
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ctx, ev)
	}
}

// now reads the clock in the resolver's zone so polls and API requests
// agree on which period an instant falls in.
func (s *Service) now() time.Time {
	return s.deps.Now().In(s.location())
}

func (s *Service) syncUpstream(ctx context.Context, now time.Time) error {
	window := pipeline.SyncWindow(now, s.cfg.SyncDays)
	res, err := pipeline.Sync(ctx, s.deps.Upstream, s.deps.Store, window, s.cfg.SyncOrigin, now)
	if err != nil {
		s.log.Error().Err(err).Str("window", window.String()).Msg("upstream sync failed")
		return fmt.Errorf("sync: %w", err)
	}

	s.mu.Lock()
	s.lastSync = &SyncStatus{At: now, Window: window.String(), Fetched: res.Fetched}
	s.mu.Unlock()

	s.log.Debug().Int("fetched", res.Fetched).Int("chunks", res.Chunks).Msg("upstream sync")
	return nil
}

func (s *Service) recordFailure(now time.Time, err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastPollAt = now
	s.pollCount++
	s.mu.Unlock()
	s.log.Error().Err(err).Msg("poll failed")
}

// classify names the event a new snapshot produces, if any.
func classify(prev, curr Snapshot, prevExists bool) (string, bool) {
	switch {
	case !prevExists:
		return EventSnapshot, true
	case !sameRange(prev.Periods.Period2, curr.Periods.Period2):
		return EventPeriodRollover, true
	case !sameSummary(prev.Comparison.Period1, curr.Comparison.Period1) ||
		!sameSummary(prev.Comparison.Period2, curr.Comparison.Period2):
		return EventComparisonChanged, true
	}
	return "", false
}

func sameRange(a, b model.DateRange) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}

func sameSummary(a, b model.CostSummary) bool {
	return a.TotalRecords == b.TotalRecords &&
		a.TotalPlannedCost.Equal(b.TotalPlannedCost) &&
		a.TotalActualCost.Equal(b.TotalActualCost) &&
		a.TotalLaborCost.Equal(b.TotalLaborCost) &&
		a.TotalLubricantCost.Equal(b.TotalLubricantCost) &&
		a.TotalOutsourceCost.Equal(b.TotalOutsourceCost) &&
		a.TotalCostVariance.Equal(b.TotalCostVariance) &&
		a.AvgCostPerOrder.Equal(b.AvgCostPerOrder)
}

func diffSnapshots(prev, curr Snapshot) Delta {
	p, c := prev.Comparison.Period2, curr.Comparison.Period2
	return Delta{
		Records:     c.TotalRecords - p.TotalRecords,
		ActualCost:  c.TotalActualCost.Sub(p.TotalActualCost),
		PlannedCost: c.TotalPlannedCost.Sub(p.TotalPlannedCost),
	}
}

func (s *Service) publishEvent(ctx context.Context, ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()

	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.Publish(ctx, ev.Type, ev); err != nil {
			s.log.Warn().Err(err).Int64("event_id", ev.ID).Msg("publishing event")
		}
	}
	s.log.Info().Int64("event_id", ev.ID).Str("type", ev.Type).Msg("event")
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Mode:            s.cfg.Mode,
		Calendar:        s.deps.Resolver.Name(),
		Filters:         s.cfg.Filters,
		Upstream:        s.deps.Upstream != nil,
		LastSync:        s.lastSync,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if s.hasSnapshot {
		snap := s.snapshot
		st.Snapshot = &snap
	}
	return st
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
