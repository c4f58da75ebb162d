package model

import "time"

// Participant is one side of a stateless computation.
type Participant struct {
	UserID      string                  `json:"userId" validate:"required"`
	Events      []CalendarEvent         `json:"events"`
	Preferences AvailabilityPreferences `json:"preferences"`
}

// ComputeRequest runs the whole pipeline over caller-supplied data.
type ComputeRequest struct {
	User1      Participant `json:"user1"`
	User2      Participant `json:"user2"`
	Start      time.Time   `json:"start" validate:"required"`
	End        time.Time   `json:"end" validate:"required"`
	MaxResults int         `json:"maxResults" validate:"gte=0"`
	// Now anchors proximity ordering; zero means the service clock.
	Now time.Time `json:"now"`
}

// ComputeResult carries every intermediate product of the pipeline.
type ComputeResult struct {
	User1       UserAvailability     `json:"user1"`
	User2       UserAvailability     `json:"user2"`
	Mutual      []MutualAvailability `json:"mutual"`
	Suggestions []DateSuggestion     `json:"suggestions"`
}
