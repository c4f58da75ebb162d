// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/pkg/logger"
)

const (
	defaultRangeDays = 7
	maxBodyBytes     = 4 << 20
	dateLayout       = "2006-01-02"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SetPreferences(ctx context.Context, userID string, prefs model.AvailabilityPreferences) error
	Preferences(ctx context.Context, userID string) (model.AvailabilityPreferences, error)
	ReplaceEvents(ctx context.Context, userID, calendarID string, events []model.CalendarEvent) error

	AddSource(ctx context.Context, userID string, src model.CalendarSource) error
	Sources(ctx context.Context, userID string) ([]model.CalendarSource, error)
	// RequestSync returns how many jobs were queued; a full queue is reported
	// as an error wrapping queue.ErrFull.
	RequestSync(ctx context.Context, userID string) (int, error)

	LinkPartner(ctx context.Context, userID, partnerID string) error
	Partner(ctx context.Context, userID string) (string, error)
	UnlinkPartner(ctx context.Context, userID string) error

	Windows(ctx context.Context, userID string, from, to time.Time) (model.UserAvailability, error)
	Mutual(ctx context.Context, userID, partnerID string, from, to time.Time) ([]model.MutualAvailability, error)
	Suggest(ctx context.Context, userID, partnerID string, from, to time.Time, limit int) ([]model.DateSuggestion, error)
	ComputeSuggestions(ctx context.Context, req model.ComputeRequest) (model.ComputeResult, error)

	// Location defines how date-only query values are read.
	Location() *time.Location
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps   Dependencies
	logger logger.Logger

	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	profileHandler      *ProfileHandler
	availabilityHandler *AvailabilityHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	log := logger.Get().Named("api")
	return &Server{
		deps:                deps,
		logger:              log,
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		profileHandler:      NewProfileHandler(deps, log),
		availabilityHandler: NewAvailabilityHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.instrument("healthz", s.healthHandler.HandleHealth))
	mux.HandleFunc("GET /metrics", s.instrument("metrics", s.healthHandler.HandleMetrics))
	mux.HandleFunc("GET /stats", s.instrument("stats", s.statsHandler.HandleStats))

	p := s.profileHandler
	mux.HandleFunc("PUT /users/{id}/preferences", s.instrument("preferences", p.HandlePutPreferences))
	mux.HandleFunc("GET /users/{id}/preferences", s.instrument("preferences", p.HandleGetPreferences))
	mux.HandleFunc("PUT /users/{id}/calendars/{calendarId}/events", s.instrument("events", p.HandlePutEvents))
	mux.HandleFunc("POST /users/{id}/sources", s.instrument("sources", p.HandlePostSource))
	mux.HandleFunc("GET /users/{id}/sources", s.instrument("sources", p.HandleGetSources))
	mux.HandleFunc("POST /users/{id}/sync", s.instrument("sync", p.HandlePostSync))
	mux.HandleFunc("PUT /users/{id}/partner", s.instrument("partner", p.HandlePutPartner))
	mux.HandleFunc("GET /users/{id}/partner", s.instrument("partner", p.HandleGetPartner))
	mux.HandleFunc("DELETE /users/{id}/partner", s.instrument("partner", p.HandleDeletePartner))

	a := s.availabilityHandler
	mux.HandleFunc("GET /users/{id}/availability", s.instrument("availability", a.HandleAvailability))
	mux.HandleFunc("GET /users/{id}/mutual", s.instrument("mutual", a.HandleMutual))
	mux.HandleFunc("GET /users/{id}/suggestions", s.instrument("suggestions", a.HandleSuggestions))
	mux.HandleFunc("POST /compute/suggestions", s.instrument("compute", a.HandleCompute))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and logs server-side failures.
func writeFailure(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a bounded JSON body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// parseRange reads from/to as RFC 3339 instants or YYYY-MM-DD dates in loc.
// from defaults to today and to to a week after from.
func parseRange(r *http.Request, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()
	from := midnight(now.In(loc))
	if v := q.Get("from"); v != "" {
		t, err := parseInstant(v, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from: %w", ErrBadQuery, err)
		}
		from = t
	}
	to := from.AddDate(0, 0, defaultRangeDays-1)
	if v := q.Get("to"); v != "" {
		t, err := parseInstant(v, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to: %w", ErrBadQuery, err)
		}
		to = t
	}
	return from, to, nil
}

func parseInstant(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, v, loc)
}

func parseLimit(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", ErrBadQuery)
	}
	return n, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
