package model

import (
	"encoding/json"
	"time"

	"github.com/okian/datesync/internal/domain/types"
)

// TimeSlot is a free interval [Start, End). Its duration is always derived.
type TimeSlot struct {
	Start time.Time
	End   time.Time
}

// DurationMinutes returns the whole minutes between Start and End.
func (s TimeSlot) DurationMinutes() int {
	return int(s.End.Sub(s.Start) / time.Minute)
}

// MarshalJSON emits the derived duration next to the bounds.
func (s TimeSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(slotJSON{Start: s.Start, End: s.End, DurationMinutes: s.DurationMinutes()})
}

// UnmarshalJSON reads start and end; any durationMinutes field is ignored.
func (s *TimeSlot) UnmarshalJSON(b []byte) error {
	var v slotJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s.Start, s.End = v.Start, v.End
	return nil
}

type slotJSON struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"durationMinutes"`
}

// AvailabilityWindow holds one calendar day's free slots, ordered and disjoint.
type AvailabilityWindow struct {
	Date      time.Time    `json:"date"`
	DayOfWeek time.Weekday `json:"dayOfWeek"`
	Slots     []TimeSlot   `json:"slots"`
	IsWeekend bool         `json:"isWeekend"`
}

// DateKey returns the window's calendar date as YYYY-MM-DD.
func (w AvailabilityWindow) DateKey() string {
	return w.Date.Format(time.DateOnly)
}

// UserAvailability aggregates one user's windows over a range.
type UserAvailability struct {
	UserID      string                  `json:"userId"`
	Windows     []AvailabilityWindow    `json:"windows"`
	Preferences AvailabilityPreferences `json:"preferences"`
}

// PreferenceMatch records which side's preferences a mutual slot satisfies.
type PreferenceMatch struct {
	User1 bool `json:"user1"`
	User2 bool `json:"user2"`
}

// MutualTimeSlot is a range free for both users.
type MutualTimeSlot struct {
	Start              time.Time
	End                time.Time
	Quality            types.Quality
	MatchesPreferences PreferenceMatch
}

// DurationMinutes returns the whole minutes between Start and End.
func (s MutualTimeSlot) DurationMinutes() int {
	return int(s.End.Sub(s.Start) / time.Minute)
}

type mutualSlotJSON struct {
	Start              time.Time       `json:"start"`
	End                time.Time       `json:"end"`
	DurationMinutes    int             `json:"durationMinutes"`
	Quality            types.Quality   `json:"quality"`
	MatchesPreferences PreferenceMatch `json:"matchesPreferences"`
}

// MarshalJSON emits the derived duration next to the bounds.
func (s MutualTimeSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(mutualSlotJSON{
		Start:              s.Start,
		End:                s.End,
		DurationMinutes:    s.DurationMinutes(),
		Quality:            s.Quality,
		MatchesPreferences: s.MatchesPreferences,
	})
}

// UnmarshalJSON reads the slot; any durationMinutes field is ignored.
func (s *MutualTimeSlot) UnmarshalJSON(b []byte) error {
	var v mutualSlotJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s.Start, s.End = v.Start, v.End
	s.Quality = v.Quality
	s.MatchesPreferences = v.MatchesPreferences
	return nil
}

// MutualAvailability is the intersection of two users' free time on one date.
type MutualAvailability struct {
	Date      time.Time        `json:"date"`
	DayOfWeek time.Weekday     `json:"dayOfWeek"`
	Slots     []MutualTimeSlot `json:"slots"`
	IsIdeal   bool             `json:"isIdeal"`
}

// DateSuggestion is one ranked mutual slot with presentation text.
type DateSuggestion struct {
	ID      string         `json:"id"`
	Rank    int            `json:"rank"`
	Date    time.Time      `json:"date"`
	Slot    MutualTimeSlot `json:"slot"`
	Quality types.Quality  `json:"quality"`
	Reason  string         `json:"reason"`
}
