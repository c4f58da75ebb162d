// Package types contains small tagged value types shared across the domain.
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sentinel kinds for parse failures.
var (
	ErrInvalidClock   = errors.New("invalid HH:mm clock time")
	ErrInvalidQuality = errors.New("invalid quality")
	ErrInvalidWeekday = errors.New("invalid weekday")
)

const (
	minutesPerHour = 60
	hoursPerDay    = 24
	// EndOfDay is the ClockTime for "24:00".
	EndOfDay ClockTime = hoursPerDay * minutesPerHour
)

// Quality ranks a mutual slot. Higher values rank earlier.
type Quality uint8

// Quality tiers.
const (
	QualityPossible Quality = iota // free for both, neither prefers it
	QualityGood                    // exactly one side prefers it
	QualityIdeal                   // both sides prefer it
)

// QualityFor derives the tier from the two preference flags.
func QualityFor(user1, user2 bool) Quality {
	switch {
	case user1 && user2:
		return QualityIdeal
	case user1 || user2:
		return QualityGood
	default:
		return QualityPossible
	}
}

func (q Quality) String() string {
	switch q {
	case QualityIdeal:
		return "ideal"
	case QualityGood:
		return "good"
	case QualityPossible:
		return "possible"
	default:
		return "quality(" + strconv.Itoa(int(q)) + ")"
	}
}

// ParseQuality parses "ideal", "good" or "possible".
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ideal":
		return QualityIdeal, nil
	case "good":
		return QualityGood, nil
	case "possible":
		return QualityPossible, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
}

// MarshalText implements encoding.TextMarshaler.
func (q Quality) MarshalText() ([]byte, error) {
	if q > QualityIdeal {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, q)
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quality) UnmarshalText(b []byte) error {
	v, err := ParseQuality(string(b))
	if err != nil {
		return err
	}
	*q = v
	return nil
}

// ClockTime is a time of day expressed as minutes after midnight.
// Valid values are 0 ("00:00") through EndOfDay ("24:00").
type ClockTime int

// ParseClock parses a strict two-digit "HH:mm" string.
func ParseClock(s string) (ClockTime, error) {
	if len(s) != 5 || s[2] != ':' || !isDigit(s[0]) || !isDigit(s[1]) || !isDigit(s[3]) || !isDigit(s[4]) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if m >= minutesPerHour || h > hoursPerDay || (h == hoursPerDay && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return ClockTime(h*minutesPerHour + m), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/minutesPerHour, int(c)%minutesPerHour)
}

// On returns the instant of c on the calendar day of day, in day's location.
// "24:00" resolves to midnight of the following day.
func (c ClockTime) On(day time.Time) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, int(c)/minutesPerHour, int(c)%minutesPerHour, 0, 0, day.Location())
}

// ParseWeekday accepts full or three-letter English day names, case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// ParseWeekdays parses a list of day names, preserving order and dropping duplicates.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	seen := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out, nil
}

// IsWeekend reports whether d is Saturday or Sunday.
func IsWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
