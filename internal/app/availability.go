package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/datesync/internal/domain/freewindow"
	"github.com/okian/datesync/internal/domain/memo"
	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/internal/domain/mutual"
	"github.com/okian/datesync/internal/domain/preferences"
	"github.com/okian/datesync/pkg/logger"
	"github.com/okian/datesync/pkg/metrics"
)

// Windows returns a user's free windows for every day in [from, to].
func (s *Service) Windows(ctx context.Context, userID string, from, to time.Time) (model.UserAvailability, error) {
	store, err := s.storeIfStarted()
	if err != nil {
		return model.UserAvailability{}, err
	}
	if to.Before(from) {
		return model.UserAvailability{}, &model.InvalidRangeError{Start: from, End: to}
	}
	prefs, err := store.Preferences(ctx, userID)
	if err != nil {
		return model.UserAvailability{}, err
	}
	// Whole days are built, and buffers reach across midnight, so the
	// event query is a day wider on both sides.
	events, err := store.Events(ctx, userID, from.AddDate(0, 0, -1), to.AddDate(0, 0, 2))
	if err != nil {
		return model.UserAvailability{}, err
	}
	return s.availability(ctx, userID, events, prefs, from, to)
}

// Mutual returns mutual availability of the user and a partner. An empty
// partnerID uses the stored partner link.
func (s *Service) Mutual(ctx context.Context, userID, partnerID string, from, to time.Time) ([]model.MutualAvailability, error) {
	a, b, err := s.pair(ctx, userID, partnerID, from, to)
	if err != nil {
		return nil, err
	}
	return s.intersect(ctx, a, b)
}

// Suggest returns ranked date suggestions for the user and a partner.
// A limit of zero uses the configured default.
func (s *Service) Suggest(ctx context.Context, userID, partnerID string, from, to time.Time, limit int) ([]model.DateSuggestion, error) {
	a, b, err := s.pair(ctx, userID, partnerID, from, to)
	if err != nil {
		return nil, err
	}
	m, err := s.intersect(ctx, a, b)
	if err != nil {
		return nil, err
	}
	return s.rank(m, s.now(), limit), nil
}

// ComputeSuggestions runs windows, intersection and ranking over the
// request payload without touching stored state.
func (s *Service) ComputeSuggestions(ctx context.Context, req model.ComputeRequest) (model.ComputeResult, error) {
	if err := preferences.ValidateStruct(req); err != nil {
		return model.ComputeResult{}, err
	}
	for _, p := range []model.Participant{req.User1, req.User2} {
		if err := validateEvents(p.Events); err != nil {
			return model.ComputeResult{}, err
		}
	}
	if req.End.Before(req.Start) {
		return model.ComputeResult{}, &model.InvalidRangeError{Start: req.Start, End: req.End}
	}

	a, err := s.availability(ctx, req.User1.UserID, req.User1.Events, req.User1.Preferences, req.Start, req.End)
	if err != nil {
		return model.ComputeResult{}, err
	}
	b, err := s.availability(ctx, req.User2.UserID, req.User2.Events, req.User2.Preferences, req.Start, req.End)
	if err != nil {
		return model.ComputeResult{}, err
	}
	m, err := s.intersect(ctx, a, b)
	if err != nil {
		return model.ComputeResult{}, err
	}
	now := req.Now
	if now.IsZero() {
		now = s.now()
	}
	return model.ComputeResult{User1: a, User2: b, Mutual: m, Suggestions: s.rank(m, now, req.MaxResults)}, nil
}

func validateEvents(events []model.CalendarEvent) error {
	for _, ev := range events {
		if ev.EndDate.Before(ev.StartDate) {
			return &model.InvalidRangeError{Start: ev.StartDate, End: ev.EndDate}
		}
	}
	return nil
}

// pair resolves the partner and builds both users' availability.
func (s *Service) pair(ctx context.Context, userID, partnerID string, from, to time.Time) (model.UserAvailability, model.UserAvailability, error) {
	var none model.UserAvailability
	if partnerID == "" {
		store, err := s.storeIfStarted()
		if err != nil {
			return none, none, err
		}
		if partnerID, err = store.Partner(ctx, userID); err != nil {
			return none, none, err
		}
	}
	if partnerID == userID {
		return none, none, ErrSelfLink
	}
	a, err := s.Windows(ctx, userID, from, to)
	if err != nil {
		return none, none, err
	}
	b, err := s.Windows(ctx, partnerID, from, to)
	if err != nil {
		return none, none, err
	}
	return a, b, nil
}

// availability builds windows, consulting the memo cache when enabled.
func (s *Service) availability(ctx context.Context, userID string, events []model.CalendarEvent, prefs model.AvailabilityPreferences, from, to time.Time) (model.UserAvailability, error) {
	out := model.UserAvailability{UserID: userID, Preferences: prefs}

	var key string
	if s.cache != nil {
		key = memo.Key(userID, s.builder.Location(), from, to, prefs, events)
		if windows, ok := s.cache.Get(ctx, key); ok {
			metrics.RecordMemoHit()
			out.Windows = windows
			return out, nil
		}
		metrics.RecordMemoMiss()
	}

	start := time.Now()
	windows, err := s.builder.Build(freewindow.Input{Events: events, Start: from, End: to, Preferences: prefs})
	if err != nil {
		metrics.RecordComputationError(metrics.StageWindows, errorKind(err))
		return out, err
	}
	metrics.RecordComputation(metrics.StageWindows, float64(time.Since(start).Microseconds())/1000)

	if s.cache != nil {
		s.cache.Put(ctx, key, windows)
		metrics.UpdateMemoEntries(s.cache.Size())
	}
	out.Windows = windows
	return out, nil
}

func (s *Service) intersect(ctx context.Context, a, b model.UserAvailability) ([]model.MutualAvailability, error) {
	start := time.Now()
	m, err := mutual.Intersect(a, b)
	if err != nil {
		metrics.RecordComputationError(metrics.StageMutual, errorKind(err))
		return nil, err
	}
	metrics.RecordComputation(metrics.StageMutual, float64(time.Since(start).Microseconds())/1000)
	s.logger.Debug(ctx, "mutual availability computed",
		logger.String("user1", a.UserID),
		logger.String("user2", b.UserID),
		logger.Int("dates", len(m)),
	)
	return m, nil
}

func (s *Service) rank(m []model.MutualAvailability, now time.Time, limit int) []model.DateSuggestion {
	start := time.Now()
	out := s.ranker.Rank(m, now, limit)
	metrics.RecordComputation(metrics.StageSuggestions, float64(time.Since(start).Microseconds())/1000)
	for _, sug := range out {
		metrics.RecordSuggestion(sug.Quality.String())
	}
	return out
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, freewindow.ErrRangeTooLong):
		return "range_too_long"
	default:
		return "internal"
	}
}
