// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/okian/datesync/internal/domain/types"
)

// CalendarEvent is a concrete event instance supplied by a calendar source.
// Recurring events arrive already expanded; IsRecurring is informational.
type CalendarEvent struct {
	ID          string    `json:"id"`
	CalendarID  string    `json:"calendarId"`
	Title       string    `json:"title"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	IsAllDay    bool      `json:"isAllDay"`
	IsRecurring bool      `json:"isRecurring"`
	IsBusy      bool      `json:"isBusy"`
}

// AvailabilityPreferences are one user's scheduling preferences. Clock fields
// use "HH:mm"; empty PreferredTimeStart/End means the whole day.
type AvailabilityPreferences struct {
	PreferredDays       []time.Weekday `json:"preferredDays" validate:"dive,gte=0,lte=6"`
	PreferredTimeStart  string         `json:"preferredTimeStart,omitempty" validate:"required_with=PreferredTimeEnd,omitempty,hhmm"`
	PreferredTimeEnd    string         `json:"preferredTimeEnd,omitempty" validate:"required_with=PreferredTimeStart,omitempty,hhmm"`
	MinimumSlotMinutes  int            `json:"minimumSlotMinutes" validate:"gt=0"`
	ExcludeWorkHours    bool           `json:"excludeWorkHours"`
	WorkHoursStart      string         `json:"workHoursStart,omitempty" validate:"required_if=ExcludeWorkHours true,omitempty,hhmm"`
	WorkHoursEnd        string         `json:"workHoursEnd,omitempty" validate:"required_if=ExcludeWorkHours true,omitempty,hhmm"`
	BufferBeforeMinutes int            `json:"bufferBeforeMinutes" validate:"gte=0"`
	BufferAfterMinutes  int            `json:"bufferAfterMinutes" validate:"gte=0"`
}

// UnmarshalJSON accepts preferredDays either as day numbers (0 is Sunday)
// or as English day names such as "fri" or "Saturday". Unknown fields are
// rejected.
func (p *AvailabilityPreferences) UnmarshalJSON(b []byte) error {
	type plain AvailabilityPreferences
	aux := struct {
		*plain
		PreferredDays json.RawMessage `json:"preferredDays"`
	}{plain: (*plain)(p)}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&aux); err != nil {
		return err
	}
	if aux.PreferredDays == nil {
		return nil
	}
	days, err := decodeWeekdays(aux.PreferredDays)
	if err != nil {
		return err
	}
	p.PreferredDays = days
	return nil
}

func decodeWeekdays(raw json.RawMessage) ([]time.Weekday, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var nums []time.Weekday
	if err := json.Unmarshal(raw, &nums); err == nil {
		return nums, nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, &ValidationError{Field: "preferredDays", Reason: "must list day numbers or day names"}
	}
	days, err := types.ParseWeekdays(names)
	if err != nil {
		return nil, &ValidationError{Field: "preferredDays", Reason: err.Error()}
	}
	return days, nil
}

// DefaultMinimumSlotMinutes is used for users who never stored preferences.
const DefaultMinimumSlotMinutes = 60

// DefaultPreferences returns preferences that accept any day and time.
func DefaultPreferences() AvailabilityPreferences {
	return AvailabilityPreferences{MinimumSlotMinutes: DefaultMinimumSlotMinutes}
}

// CalendarSource is one ICS subscription belonging to a user. ID doubles as
// the CalendarID of every event read from the feed.
type CalendarSource struct {
	ID  string `json:"id" validate:"required"`
	URL string `json:"url" validate:"required,url"`
}

// SyncJob asks for one calendar source of one user to be refreshed.
type SyncJob struct {
	UserID      string
	Source      CalendarSource
	RequestedAt time.Time
}
