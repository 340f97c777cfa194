package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/pipeline"
)

// PeriodsResponse is served at /v1/periods.
type PeriodsResponse struct {
	Mode    model.Mode       `json:"mode"`
	Now     time.Time        `json:"now"`
	Periods model.PeriodPair `json:"periods"`
	Labels  [2]string        `json:"labels"`
}

// QuarterRange is one entry of /v1/quarters/{fy}.
type QuarterRange struct {
	fiscal.Quarter
	Label string          `json:"label"`
	Range model.DateRange `json:"range"`
}

type apiError struct {
	Error string `json:"error"`
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, r, http.StatusOK, events)
}

func (s *Service) handleCompare(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	report, err := pipeline.Run(r.Context(), s.deps.Store, s.deps.Resolver, req)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (s *Service) handlePeriods(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	pair, err := pipeline.SelectPeriods(s.deps.Resolver, req.Mode, req.Now, req.Custom)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, PeriodsResponse{
		Mode:    req.Mode,
		Now:     req.Now,
		Periods: pair,
		Labels: [2]string{
			pipeline.PeriodLabel(s.deps.Resolver, req.Mode, pair.Period1),
			pipeline.PeriodLabel(s.deps.Resolver, req.Mode, pair.Period2),
		},
	})
}

func (s *Service) handleQuarters(w http.ResponseWriter, r *http.Request) {
	fy, err := strconv.Atoi(chi.URLParam(r, "fy"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid fiscal year %q", chi.URLParam(r, "fy")))
		return
	}

	out := make([]QuarterRange, 0, 4)
	for n := 1; n <= 4; n++ {
		q := fiscal.Quarter{FiscalYear: fy, Number: n}
		rng, err := q.Range(s.deps.Resolver)
		if err != nil {
			writeError(w, r, statusFor(err), err)
			return
		}
		out = append(out, QuarterRange{Quarter: q, Label: q.String(), Range: rng})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// parseRequest reads mode, filters, now and custom ranges from the query,
// falling back to the daemon's configured mode and filters.
func (s *Service) parseRequest(r *http.Request) (pipeline.Request, error) {
	q := r.URL.Query()
	loc := s.location()

	req := pipeline.Request{Mode: s.cfg.Mode, Now: s.now(), Filters: s.cfg.Filters}

	if v := q.Get("mode"); v != "" {
		m, err := model.ParseMode(v)
		if err != nil {
			return req, err
		}
		req.Mode = m
	}
	if v := q.Get("now"); v != "" {
		t, err := model.ParseInstant(v, loc)
		if err != nil {
			return req, err
		}
		req.Now = t
	}
	if q.Has("garage") {
		req.Filters.GarageID = q.Get("garage")
	}
	if q.Has("workshop") {
		req.Filters.WorkshopID = q.Get("workshop")
	}
	if q.Has("category") {
		req.Filters.EquipmentCategoryID = q.Get("category")
	}
	if q.Has("costType") {
		ct, err := model.ParseCostType(q.Get("costType"))
		if err != nil {
			return req, err
		}
		req.Filters.CostType = ct
	}

	if req.Mode == model.ModeCustom {
		p1, p2 := q.Get("p1"), q.Get("p2")
		if p1 == "" || p2 == "" {
			return req, pipeline.ErrNoCustomRanges
		}
		r1, err := model.ParseDayRange(p1, loc)
		if err != nil {
			return req, err
		}
		r2, err := model.ParseDayRange(p2, loc)
		if err != nil {
			return req, err
		}
		req.Custom = &model.PeriodPair{Period1: r1, Period2: r2}
	}
	return req, nil
}

// location is the zone the resolver works in, so date-only inputs land on
// the intended fiscal day.
func (s *Service) location() *time.Location {
	switch res := s.deps.Resolver.(type) {
	case *fiscal.Gregorian:
		return res.Location
	case *fiscal.Ethiopian:
		return res.Location
	}
	return time.UTC
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fiscal.ErrInvalidQuarter),
		errors.Is(err, model.ErrUnknownMode),
		errors.Is(err, model.ErrUnknownCostType),
		errors.Is(err, model.ErrBadRange),
		errors.Is(err, pipeline.ErrNoCustomRanges):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, r, status, apiError{Error: err.Error()})
}
