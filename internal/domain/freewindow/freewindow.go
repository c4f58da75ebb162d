package freewindow

import (
	"fmt"
	"time"

	"github.com/okian/datesync/internal/domain/interval"
	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/internal/domain/preferences"
	"github.com/okian/datesync/internal/domain/types"
)

const defaultMaxDays = 366

// Input is everything needed to compute one user's windows.
type Input struct {
	Events      []model.CalendarEvent
	Start       time.Time
	End         time.Time
	Preferences model.AvailabilityPreferences
}

// Builder turns calendar events into per-day AvailabilityWindows.
// It holds no mutable state and is safe for concurrent use.
type Builder struct {
	loc     *time.Location
	maxDays int
}

// NewBuilder creates a Builder. Days are computed in UTC unless WithLocation is given.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		loc:     time.UTC,
		maxDays: defaultMaxDays,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Location returns the timezone used for day boundaries.
func (b *Builder) Location() *time.Location { return b.loc }

// Build returns one window per calendar day in [in.Start, in.End], including
// days without any free slot. Busy events are padded by the buffers, merged,
// and subtracted from the preferred window minus work hours.
func (b *Builder) Build(in Input) ([]model.AvailabilityWindow, error) {
	prefs, err := preferences.Compile(in.Preferences)
	if err != nil {
		return nil, err
	}
	days, err := b.Days(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	blocks := b.blockedIntervals(in.Events, prefs)

	windows := make([]model.AvailabilityWindow, 0, len(days))
	for _, day := range days {
		windows = append(windows, b.window(day, blocks, prefs))
	}
	return windows, nil
}

// Days returns the midnight of every calendar day in [start, end] in the
// builder's location.
func (b *Builder) Days(start, end time.Time) ([]time.Time, error) {
	if end.Before(start) {
		return nil, &model.InvalidRangeError{Start: start, End: end}
	}
	first := b.midnight(start)
	last := b.midnight(end)

	days := make([]time.Time, 0, 8)
	for d := first; !d.After(last); d = nextDay(d) {
		if len(days) == b.maxDays {
			return nil, fmt.Errorf("%w: more than %d days", ErrRangeTooLong, b.maxDays)
		}
		days = append(days, d)
	}
	return days, nil
}

// blockedIntervals converts busy events into sorted, merged blocked time.
// Timed events are padded by the buffers; all-day events cover whole days.
func (b *Builder) blockedIntervals(events []model.CalendarEvent, prefs preferences.Compiled) []interval.Interval {
	blocks := make([]interval.Interval, 0, len(events))
	for _, ev := range events {
		if !ev.IsBusy {
			continue
		}
		if ev.IsAllDay {
			blocks = append(blocks, b.allDaySpan(ev))
			continue
		}
		iv := interval.New(ev.StartDate.In(b.loc), ev.EndDate.In(b.loc))
		if iv.Empty() {
			continue
		}
		blocks = append(blocks, iv.Pad(prefs.BufferBefore, prefs.BufferAfter))
	}
	return interval.Merge(blocks)
}

// allDaySpan covers every calendar day the event touches. All-day dates are
// floating: they are read in the event's own zone and laid on the builder's
// midnights. An end at exactly midnight is exclusive, as in iCalendar DATE
// values.
func (b *Builder) allDaySpan(ev model.CalendarEvent) interval.Interval {
	start := b.floatingDate(ev.StartDate)
	endDay := b.floatingDate(ev.EndDate)
	h, m, sec := ev.EndDate.Clock()
	switch {
	case !endDay.After(start):
		endDay = nextDay(start)
	case h != 0 || m != 0 || sec != 0 || ev.EndDate.Nanosecond() != 0:
		endDay = nextDay(endDay)
	}
	return interval.New(start, endDay)
}

// floatingDate returns midnight in the builder's location of t's calendar
// date in t's own zone.
func (b *Builder) floatingDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, b.loc)
}

func (b *Builder) window(day time.Time, blocks []interval.Interval, prefs preferences.Compiled) model.AvailabilityWindow {
	dayIv := interval.New(day, nextDay(day))

	candidate, ok := interval.New(prefs.WindowStart.On(day), prefs.WindowEnd.On(day)).Clip(dayIv)
	var free []interval.Interval
	if ok {
		candidates := []interval.Interval{candidate}
		if prefs.ExcludeWork {
			work := interval.New(prefs.WorkStart.On(day), prefs.WorkEnd.On(day))
			candidates = interval.Subtract(candidate, []interval.Interval{work})
		}

		dayBlocks := make([]interval.Interval, 0, 4)
		for _, blk := range blocks {
			if !blk.Start.Before(dayIv.End) {
				break
			}
			if clipped, ok := blk.Clip(dayIv); ok {
				dayBlocks = append(dayBlocks, clipped)
			}
		}
		free = interval.AtLeast(interval.SubtractAll(candidates, dayBlocks), prefs.MinimumSlot)
	}

	slots := make([]model.TimeSlot, 0, len(free))
	for _, iv := range free {
		slots = append(slots, model.TimeSlot{Start: iv.Start, End: iv.End})
	}
	return model.AvailabilityWindow{
		Date:      day,
		DayOfWeek: day.Weekday(),
		Slots:     slots,
		IsWeekend: types.IsWeekend(day.Weekday()),
	}
}

func (b *Builder) midnight(t time.Time) time.Time {
	y, m, d := t.In(b.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, b.loc)
}

func nextDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, day.Location())
}
