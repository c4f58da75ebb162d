package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/okian/datesync/internal/domain/interval"
	"github.com/okian/datesync/internal/domain/model"
)

const defaultMaxOccurrences = 5000

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	// Location is applied to every produced instance. Nil means UTC.
	Location *time.Location
	// RangeStart and RangeEnd select instances that overlap the range.
	RangeStart time.Time
	RangeEnd   time.Time
	// MaxOccurrencesPerEvent caps a single RRULE. Zero uses the default.
	MaxOccurrencesPerEvent int
}

// ExpandResult carries the concrete instances and the UIDs that hit the cap.
type ExpandResult struct {
	Events          []model.CalendarEvent
	TruncatedEvents []string
}

// Expand resolves RRULE, EXDATE and RECURRENCE-ID into concrete
// CalendarEvent instances overlapping the configured range, ordered by start.
func Expand(parsed []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, ErrInvalidRange
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrences
	}

	base := make(map[string][]ParsedEvent)
	overrides := make(map[string][]ParsedEvent)
	uids := make([]string, 0, len(parsed))
	for _, ev := range parsed {
		if ev.IsOverride && ev.Recurrence != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, ok := base[ev.UID]; !ok {
			uids = append(uids, ev.UID)
		}
		base[ev.UID] = append(base[ev.UID], ev)
	}

	for _, uid := range uids {
		for _, ev := range base[uid] {
			events, truncated, err := expandOne(ev, overrides[uid], cfg)
			if err != nil {
				return result, err
			}
			if truncated {
				result.TruncatedEvents = append(result.TruncatedEvents, uid)
			}
			result.Events = append(result.Events, events...)
		}
	}

	sort.SliceStable(result.Events, func(i, j int) bool {
		return result.Events[i].StartDate.Before(result.Events[j].StartDate)
	})
	return result, nil
}

func expandOne(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.CalendarEvent, bool, error) {
	if ev.RawRRule == "" {
		if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
			return nil, false, nil
		}
		return []model.CalendarEvent{toEvent(ev, ev.Start, ev.End, false, cfg.Location)}, false, nil
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, false, fmt.Errorf("%w: uid %s: rrule %q: %w", ErrParse, ev.UID, ev.RawRRule, err)
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound so instances that started before the range but
	// still run into it are kept.
	length := ev.End.Sub(ev.Start)
	starts := set.Between(cfg.RangeStart.Add(-length).In(ev.Start.Location()), cfg.RangeEnd.In(ev.Start.Location()), true)
	truncated := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		truncated = true
	}

	out := make([]model.CalendarEvent, 0, len(starts))
	for _, start := range starts {
		end := start.Add(length)
		inst := ev
		if ov, ok := findOverride(overrides, start); ok {
			if ov.Cancelled {
				continue
			}
			inst, start, end = ov, ov.Start, ov.End
		}
		if !overlaps(start, end, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, toEvent(inst, start, end, true, cfg.Location))
	}
	return out, truncated, nil
}

func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func toEvent(ev ParsedEvent, start, end time.Time, recurring bool, loc *time.Location) model.CalendarEvent {
	id := ev.UID
	if recurring {
		id = ev.UID + "@" + start.UTC().Format("20060102T150405Z")
	}
	return model.CalendarEvent{
		ID:          id,
		CalendarID:  ev.CalendarID,
		Title:       ev.Summary,
		StartDate:   start.In(loc),
		EndDate:     end.In(loc),
		IsAllDay:    ev.AllDay,
		IsRecurring: recurring,
		IsBusy:      ev.Busy,
	}
}

// overlaps keeps zero-length events that fall inside the range.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aEnd.After(aStart) {
		return !aStart.Before(bStart) && !aStart.After(bEnd)
	}
	return interval.New(aStart, aEnd).Overlaps(interval.New(bStart, bEnd))
}
