package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/datesync/internal/adapters/mq/queue"
	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/internal/domain/preferences"
	"github.com/okian/datesync/pkg/logger"
	"github.com/okian/datesync/pkg/metrics"
)

// eventSpace namespaces IDs generated for events posted without one.
var eventSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://datesync.local/events"))

// SetPreferences validates and stores a user's preferences.
func (s *Service) SetPreferences(ctx context.Context, userID string, prefs model.AvailabilityPreferences) error {
	store, err := s.storeIfStarted()
	if err != nil {
		return err
	}
	if err := preferences.Validate(prefs); err != nil {
		return err
	}
	return store.PutPreferences(ctx, userID, prefs)
}

// Preferences returns a user's stored preferences.
func (s *Service) Preferences(ctx context.Context, userID string) (model.AvailabilityPreferences, error) {
	store, err := s.storeIfStarted()
	if err != nil {
		return model.AvailabilityPreferences{}, err
	}
	return store.Preferences(ctx, userID)
}

// ReplaceEvents swaps all events of one calendar. Events ending before they
// start are rejected; events without an ID get a deterministic one.
func (s *Service) ReplaceEvents(ctx context.Context, userID, calendarID string, events []model.CalendarEvent) error {
	store, err := s.storeIfStarted()
	if err != nil {
		return err
	}
	if strings.TrimSpace(calendarID) == "" {
		return &model.ValidationError{Field: "calendarId", Reason: "must not be empty"}
	}
	for i := range events {
		ev := &events[i]
		if ev.EndDate.Before(ev.StartDate) {
			return &model.InvalidRangeError{Start: ev.StartDate, End: ev.EndDate}
		}
		if ev.ID == "" {
			ev.ID = uuid.NewSHA1(eventSpace, []byte(calendarID+"|"+ev.Title+"|"+
				ev.StartDate.UTC().Format(time.RFC3339Nano)+"|"+ev.EndDate.UTC().Format(time.RFC3339Nano))).String()
		}
	}
	return store.ReplaceEvents(ctx, userID, calendarID, events)
}

// Events lists a user's stored events overlapping [from, to).
func (s *Service) Events(ctx context.Context, userID string, from, to time.Time) ([]model.CalendarEvent, error) {
	store, err := s.storeIfStarted()
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, &model.InvalidRangeError{Start: from, End: to}
	}
	return store.Events(ctx, userID, from, to)
}

// AddSource registers an ICS subscription for a user.
func (s *Service) AddSource(ctx context.Context, userID string, src model.CalendarSource) error {
	store, err := s.storeIfStarted()
	if err != nil {
		return err
	}
	if err := preferences.ValidateStruct(src); err != nil {
		return err
	}
	return store.AddSource(ctx, userID, src)
}

// Sources lists a user's ICS subscriptions.
func (s *Service) Sources(ctx context.Context, userID string) ([]model.CalendarSource, error) {
	store, err := s.storeIfStarted()
	if err != nil {
		return nil, err
	}
	return store.Sources(ctx, userID)
}

// RequestSync enqueues one job per source of the user and returns how many
// were accepted. A full queue yields ErrBackpressure with the partial count.
func (s *Service) RequestSync(ctx context.Context, userID string) (int, error) {
	store, err := s.storeIfStarted()
	if err != nil {
		return 0, err
	}
	sources, err := store.Sources(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	accepted := 0
	for _, src := range sources {
		if !s.syncQueue.Enqueue(ctx, model.SyncJob{UserID: userID, Source: src, RequestedAt: now}) {
			if s.syncQueue.IsClosed() {
				return accepted, fmt.Errorf("sync %q: %w", userID, queue.ErrClosed)
			}
			return accepted, fmt.Errorf("sync %q: %w", userID, ErrBackpressure)
		}
		accepted++
	}
	s.logger.Debug(ctx, "sync requested", logger.String("user", userID), logger.Int("jobs", accepted))
	return accepted, nil
}

// SyncAll enqueues every registered source. Jobs that do not fit are
// dropped until the next run.
func (s *Service) SyncAll(ctx context.Context) int {
	store, err := s.storeIfStarted()
	if err != nil {
		return 0
	}
	now := s.now()
	accepted, dropped := 0, 0
	for _, us := range store.AllSources(ctx) {
		if s.syncQueue.Enqueue(ctx, model.SyncJob{UserID: us.UserID, Source: us.Source, RequestedAt: now}) {
			accepted++
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Warn(ctx, "scheduled sync dropped jobs", logger.Int("accepted", accepted), logger.Int("dropped", dropped))
	} else {
		s.logger.Info(ctx, "scheduled sync enqueued", logger.Int("jobs", accepted))
	}
	metrics.UpdateQueueSize(s.syncQueue.Len(ctx), s.syncQueue.Cap())
	return accepted
}

// LinkPartner links two users.
func (s *Service) LinkPartner(ctx context.Context, userID, partnerID string) error {
	store, err := s.storeIfStarted()
	if err != nil {
		return err
	}
	return store.LinkPartner(ctx, userID, partnerID)
}

// Partner returns the user's linked partner.
func (s *Service) Partner(ctx context.Context, userID string) (string, error) {
	store, err := s.storeIfStarted()
	if err != nil {
		return "", err
	}
	return store.Partner(ctx, userID)
}

// UnlinkPartner removes the user's partner link.
func (s *Service) UnlinkPartner(ctx context.Context, userID string) error {
	store, err := s.storeIfStarted()
	if err != nil {
		return err
	}
	return store.UnlinkPartner(ctx, userID)
}
