// Package mutual intersects two users' free windows into mutual availability.
package mutual

import (
	"sort"
	"time"

	"github.com/okian/datesync/internal/domain/interval"
	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/internal/domain/preferences"
	"github.com/okian/datesync/internal/domain/types"
)

// Intersect computes, for every date both users have a window for, the
// slots free for both. Each slot is tagged with per-user preference matches
// and a quality tier. Dates without a surviving slot are omitted, and the
// result is ordered by date.
func Intersect(a, b model.UserAvailability) ([]model.MutualAvailability, error) {
	prefsA, err := preferences.Compile(a.Preferences)
	if err != nil {
		return nil, err
	}
	prefsB, err := preferences.Compile(b.Preferences)
	if err != nil {
		return nil, err
	}
	minimum := prefsA.MinimumSlot
	if prefsB.MinimumSlot > minimum {
		minimum = prefsB.MinimumSlot
	}

	byDateB := groupByDate(b.Windows)
	byDateA := groupByDate(a.Windows)

	dates := make([]string, 0, len(byDateA))
	for key := range byDateA {
		if _, ok := byDateB[key]; ok {
			dates = append(dates, key)
		}
	}
	sort.Strings(dates)

	out := make([]model.MutualAvailability, 0, len(dates))
	for _, key := range dates {
		wa, wb := byDateA[key], byDateB[key]
		shared := intersectSlots(wa.slots, wb.slots, minimum)
		if len(shared) == 0 {
			continue
		}

		entry := model.MutualAvailability{
			Date:      wa.date,
			DayOfWeek: wa.date.Weekday(),
			Slots:     make([]model.MutualTimeSlot, 0, len(shared)),
		}
		for _, iv := range shared {
			match := model.PreferenceMatch{
				User1: prefsA.Matches(iv.Start, iv.End),
				User2: prefsB.Matches(iv.Start, iv.End),
			}
			slot := model.MutualTimeSlot{
				Start:              iv.Start,
				End:                iv.End,
				Quality:            types.QualityFor(match.User1, match.User2),
				MatchesPreferences: match,
			}
			if slot.Quality == types.QualityIdeal {
				entry.IsIdeal = true
			}
			entry.Slots = append(entry.Slots, slot)
		}
		out = append(out, entry)
	}
	return out, nil
}

type dayWindow struct {
	date  time.Time
	slots []interval.Interval
}

// groupByDate indexes windows by calendar date. Repeated dates are combined.
func groupByDate(windows []model.AvailabilityWindow) map[string]dayWindow {
	out := make(map[string]dayWindow, len(windows))
	for _, w := range windows {
		key := w.DateKey()
		dw, ok := out[key]
		if !ok {
			dw.date = w.Date
		}
		for _, s := range w.Slots {
			dw.slots = append(dw.slots, interval.New(s.Start, s.End))
		}
		out[key] = dw
	}
	return out
}

// intersectSlots pairwise-intersects two slot sets for one day. Both sides
// are sorted first so the inner loop stops once the other side starts past
// the current slot. Intersections shorter than minimum are dropped before
// adjacent survivors are merged.
func intersectSlots(a, b []interval.Interval, minimum time.Duration) []interval.Interval {
	sa, sb := interval.Sort(a), interval.Sort(b)

	hits := make([]interval.Interval, 0, len(sa))
	for _, s1 := range sa {
		for _, s2 := range sb {
			if !s2.Start.Before(s1.End) {
				break
			}
			if iv, ok := s1.Intersect(s2); ok {
				hits = append(hits, iv)
			}
		}
	}
	return interval.Merge(interval.AtLeast(hits, minimum))
}
