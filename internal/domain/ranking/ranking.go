// Package ranking flattens mutual availability into ordered date suggestions.
package ranking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/internal/domain/types"
)

// suggestionSpace namespaces deterministic suggestion IDs.
var suggestionSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://datesync.local/suggestions"))

// Ranker orders mutual slots by quality, proximity to now, and duration.
// It is stateless after construction.
type Ranker struct {
	defaultLimit int
	user1Name    string
	user2Name    string
}

// NewRanker creates a Ranker with configuration options.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{
		user1Name: "you",
		user2Name: "your partner",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank uses a default Ranker.
func Rank(in []model.MutualAvailability, now time.Time, maxResults int) []model.DateSuggestion {
	return NewRanker().Rank(in, now, maxResults)
}

type candidate struct {
	date time.Time
	slot model.MutualTimeSlot
}

// Rank returns suggestions ordered by quality (ideal first), then by distance
// of the slot start from now (closest first), then by duration (longest
// first). Remaining ties fall back to date and slot bounds. Identical time
// ranges appear once. The cap applies after ordering.
func (r *Ranker) Rank(in []model.MutualAvailability, now time.Time, maxResults int) []model.DateSuggestion {
	candidates := make([]candidate, 0, len(in)*2)
	for _, day := range in {
		for _, s := range day.Slots {
			candidates = append(candidates, candidate{date: day.Date, slot: s})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].slot, candidates[j].slot
		if a.Quality != b.Quality {
			return a.Quality > b.Quality
		}
		if da, db := distance(a.Start, now), distance(b.Start, now); da != db {
			return da < db
		}
		if a.DurationMinutes() != b.DurationMinutes() {
			return a.DurationMinutes() > b.DurationMinutes()
		}
		if !candidates[i].date.Equal(candidates[j].date) {
			return candidates[i].date.Before(candidates[j].date)
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.End.Before(b.End)
	})

	limit := maxResults
	if limit <= 0 {
		limit = r.defaultLimit
	}

	out := make([]model.DateSuggestion, 0, len(candidates))
	seen := make(map[[2]int64]bool, len(candidates))
	for _, c := range candidates {
		key := [2]int64{c.slot.Start.UnixNano(), c.slot.End.UnixNano()}
		if seen[key] {
			continue
		}
		seen[key] = true
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, model.DateSuggestion{
			ID:      suggestionID(c.slot),
			Rank:    len(out) + 1,
			Date:    c.date,
			Slot:    c.slot,
			Quality: c.slot.Quality,
			Reason:  r.reason(c.slot),
		})
	}
	return out
}

func distance(t, now time.Time) time.Duration {
	d := t.Sub(now)
	if d < 0 {
		return -d
	}
	return d
}

func suggestionID(s model.MutualTimeSlot) string {
	key := s.Start.UTC().Format(time.RFC3339Nano) + "/" + s.End.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(suggestionSpace, []byte(key)).String()
}

func (r *Ranker) reason(s model.MutualTimeSlot) string {
	when := fmt.Sprintf("%s %s-%s (%s)", s.Start.Weekday(), s.Start.Format("15:04"), s.End.Format("15:04"), humanDuration(s.End.Sub(s.Start)))
	m := s.MatchesPreferences
	switch s.Quality {
	case types.QualityIdeal:
		return when + " fits the preferred days and times of both " + r.user1Name + " and " + r.user2Name
	case types.QualityGood:
		fits, misses := r.user1Name, r.user2Name
		if m.User2 && !m.User1 {
			fits, misses = r.user2Name, r.user1Name
		}
		return when + " fits the preferences of " + fits + " but falls outside those of " + misses
	default:
		return when + " is free for both, outside everyone's preferred days or times"
	}
}

func humanDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	var b strings.Builder
	if h > 0 {
		fmt.Fprintf(&b, "%dh", h)
	}
	if m > 0 || h == 0 {
		fmt.Fprintf(&b, "%dm", m)
	}
	return b.String()
}
