package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// ParsedEvent is a normalized VEVENT prior to recurrence expansion.
type ParsedEvent struct {
	CalendarID string
	UID        string
	Summary    string
	Start      time.Time
	End        time.Time
	AllDay     bool
	Busy       bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID of an overridden instance
	IsOverride bool
	Cancelled  bool // only kept for overrides, where it removes the instance
}

// Parse reads an ICS payload. Cancelled events are dropped unless they
// override a recurring instance. TRANSP:TRANSPARENT events are kept as
// non-busy. Date-only values are interpreted in loc. A VEVENT that cannot be
// read is skipped rather than failing the feed.
func Parse(calendarID string, body []byte, loc *time.Location) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrParse)
	}
	if loc == nil {
		loc = time.UTC
	}
	if !bytes.HasPrefix(bytes.TrimLeft(body, "\ufeff \t\r\n"), []byte("BEGIN:VCALENDAR")) {
		return nil, fmt.Errorf("%w: not an iCalendar document", ErrParse)
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	out := make([]ParsedEvent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(calendarID, ve, loc)
		if err != nil {
			continue
		}
		if status := ve.GetProperty(ical.ComponentProperty("STATUS")); status != nil && strings.EqualFold(status.Value, "CANCELLED") {
			if !ev.IsOverride {
				continue
			}
			ev.Cancelled = true
		}
		out = append(out, ev)
	}
	return out, nil
}

func parseVEvent(calendarID string, ve *ical.VEvent, loc *time.Location) (ParsedEvent, error) {
	out := ParsedEvent{CalendarID: calendarID, Busy: true}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentProperty("TRANSP")); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		out.Busy = false
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateValue(dtStart)

	if out.AllDay {
		start, err := parseICSTime(dtStart.Value, locationFor(&dtStart.BaseProperty, loc))
		if err != nil {
			return out, err
		}
		out.Start = start
		out.End = start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := parseICSTime(dtEnd.Value, locationFor(&dtEnd.BaseProperty, loc)); err == nil && end.After(start) {
				out.End = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, err
		}
		out.Start = start
		out.End = start
		if end, err := ve.GetEndAt(); err == nil && end.After(start) {
			out.End = end
		}
	}

	if uid := ve.GetProperty(ical.ComponentPropertyUniqueId); uid != nil && uid.Value != "" {
		out.UID = uid.Value
	} else {
		// Feeds without UIDs still need stable IDs across refreshes.
		out.UID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(calendarID+"|"+out.Summary+"|"+dtStart.Value)).String()
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		exLoc := locationFor(&p.BaseProperty, loc)
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, exLoc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}
	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseICSTime(p.Value, locationFor(&p.BaseProperty, loc)); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}
	return out, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// locationFor resolves a TZID parameter, falling back to def.
func locationFor(p *ical.BaseProperty, def *time.Location) *time.Location {
	if tz, ok := p.ICalParameters["TZID"]; ok && len(tz) > 0 {
		if loc, err := time.LoadLocation(tz[0]); err == nil {
			return loc
		}
	}
	return def
}

// parseICSTime parses DATE, floating DATE-TIME and UTC DATE-TIME values.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
