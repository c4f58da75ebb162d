package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

// profile is everything stored for one user.
type profile struct {
	prefs    *model.AvailabilityPreferences
	calendar map[string][]model.CalendarEvent // by calendar ID
	sources  map[string]model.CalendarSource  // by source ID
	partner  string
}

func newProfile() *profile {
	return &profile{
		calendar: make(map[string][]model.CalendarEvent),
		sources:  make(map[string]model.CalendarSource),
	}
}

func (p *profile) eventCount() int {
	n := 0
	for _, evs := range p.calendar {
		n += len(evs)
	}
	return n
}

// MemoryStore is a mutex-guarded in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*profile

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a store and starts its metrics updater, which
// stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		users:                 make(map[string]*profile),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// PutPreferences implements Store.PutPreferences.
func (s *MemoryStore) PutPreferences(_ context.Context, userID string, prefs model.AvailabilityPreferences) error {
	if err := checkID(userID); err != nil {
		return err
	}
	prefs.PreferredDays = slices.Clone(prefs.PreferredDays)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileLocked(userID).prefs = &prefs
	return nil
}

// Preferences implements Store.Preferences.
func (s *MemoryStore) Preferences(_ context.Context, userID string) (model.AvailabilityPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.users[userID]
	if !ok {
		return model.AvailabilityPreferences{}, fmt.Errorf("preferences %q: %w", userID, ErrNotFound)
	}
	if p.prefs == nil {
		return model.DefaultPreferences(), nil
	}
	out := *p.prefs
	out.PreferredDays = slices.Clone(out.PreferredDays)
	return out, nil
}

// ReplaceEvents implements Store.ReplaceEvents.
func (s *MemoryStore) ReplaceEvents(_ context.Context, userID, calendarID string, events []model.CalendarEvent) error {
	if err := checkID(userID); err != nil {
		return err
	}
	stored := make([]model.CalendarEvent, len(events))
	for i, ev := range events {
		ev.CalendarID = calendarID
		stored[i] = ev
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profileLocked(userID)
	if len(stored) == 0 {
		delete(p.calendar, calendarID)
		return nil
	}
	p.calendar[calendarID] = stored
	return nil
}

// Events implements Store.Events.
func (s *MemoryStore) Events(_ context.Context, userID string, from, to time.Time) ([]model.CalendarEvent, error) {
	s.mu.RLock()
	p, ok := s.users[userID]
	if !ok {
		s.mu.RUnlock()
		return nil, fmt.Errorf("events %q: %w", userID, ErrNotFound)
	}
	out := make([]model.CalendarEvent, 0, p.eventCount())
	for _, evs := range p.calendar {
		for _, ev := range evs {
			if ev.StartDate.Before(to) && ev.EndDate.After(from) {
				out = append(out, ev)
			}
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AddSource implements Store.AddSource.
func (s *MemoryStore) AddSource(_ context.Context, userID string, src model.CalendarSource) error {
	if err := checkID(userID); err != nil {
		return err
	}
	if strings.TrimSpace(src.ID) == "" || strings.TrimSpace(src.URL) == "" {
		return fmt.Errorf("add source for %q: %w", userID, ErrInvalidSource)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileLocked(userID).sources[src.ID] = src
	return nil
}

// Sources implements Store.Sources.
func (s *MemoryStore) Sources(_ context.Context, userID string) ([]model.CalendarSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("sources %q: %w", userID, ErrNotFound)
	}
	return sortedSources(p.sources), nil
}

// AllSources implements Store.AllSources.
func (s *MemoryStore) AllSources(_ context.Context) []UserSource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id, p := range s.users {
		if len(p.sources) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var out []UserSource
	for _, id := range ids {
		for _, src := range sortedSources(s.users[id].sources) {
			out = append(out, UserSource{UserID: id, Source: src})
		}
	}
	return out
}

// LinkPartner implements Store.LinkPartner.
func (s *MemoryStore) LinkPartner(_ context.Context, userID, partnerID string) error {
	if userID == partnerID {
		return fmt.Errorf("link %q: %w", userID, ErrSelfLink)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("link %q: %w", userID, ErrNotFound)
	}
	b, ok := s.users[partnerID]
	if !ok {
		return fmt.Errorf("link %q: %w", partnerID, ErrNotFound)
	}
	s.unlinkLocked(a)
	s.unlinkLocked(b)
	a.partner = partnerID
	b.partner = userID
	return nil
}

// Partner implements Store.Partner.
func (s *MemoryStore) Partner(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.users[userID]
	if !ok {
		return "", fmt.Errorf("partner of %q: %w", userID, ErrNotFound)
	}
	if p.partner == "" {
		return "", fmt.Errorf("partner of %q: %w", userID, ErrNoPartner)
	}
	return p.partner, nil
}

// UnlinkPartner implements Store.UnlinkPartner.
func (s *MemoryStore) UnlinkPartner(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("unlink %q: %w", userID, ErrNotFound)
	}
	s.unlinkLocked(p)
	return nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *MemoryStore) profileLocked(userID string) *profile {
	p, ok := s.users[userID]
	if !ok {
		p = newProfile()
		s.users[userID] = p
	}
	return p
}

func (s *MemoryStore) unlinkLocked(p *profile) {
	if p.partner == "" {
		return
	}
	if other, ok := s.users[p.partner]; ok {
		other.partner = ""
	}
	p.partner = ""
}

// startMetricsUpdater starts a background goroutine that publishes store gauges.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	users := len(s.users)
	events := 0
	for _, p := range s.users {
		events += p.eventCount()
	}
	s.mu.RUnlock()

	metrics.UpdateUsersTotal(users)
	metrics.UpdateEventsStored(events)
}

func sortedSources(in map[string]model.CalendarSource) []model.CalendarSource {
	out := make([]model.CalendarSource, 0, len(in))
	for _, src := range in {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func checkID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUserID
	}
	return nil
}
