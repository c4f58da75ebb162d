// Package repository defines the profile store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/datesync/internal/domain/model"
)

// UserSource ties a calendar source to its owner.
type UserSource struct {
	UserID string
	Source model.CalendarSource
}

// Store provides read/write access to per-user scheduling state.
type Store interface {
	// PutPreferences stores preferences, creating the user if needed.
	PutPreferences(ctx context.Context, userID string, prefs model.AvailabilityPreferences) error
	// Preferences returns stored preferences, or defaults for a user who has
	// data but never set any. Returns ErrNotFound for unknown users.
	Preferences(ctx context.Context, userID string) (model.AvailabilityPreferences, error)

	// ReplaceEvents swaps every event of one calendar for the given set.
	ReplaceEvents(ctx context.Context, userID, calendarID string, events []model.CalendarEvent) error
	// Events returns events across all calendars overlapping [from, to),
	// ordered by start.
	Events(ctx context.Context, userID string, from, to time.Time) ([]model.CalendarEvent, error)

	// AddSource registers or replaces an ICS source keyed by its ID.
	AddSource(ctx context.Context, userID string, src model.CalendarSource) error
	// Sources lists a user's sources ordered by ID.
	Sources(ctx context.Context, userID string) ([]model.CalendarSource, error)
	// AllSources lists every registered source ordered by user then ID.
	AllSources(ctx context.Context) []UserSource

	// LinkPartner links two existing users symmetrically, dropping any
	// previous link either of them had.
	LinkPartner(ctx context.Context, userID, partnerID string) error
	// Partner returns the linked partner or ErrNoPartner.
	Partner(ctx context.Context, userID string) (string, error)
	// UnlinkPartner removes the link on both sides. Unlinking a user without
	// a partner is a no-op.
	UnlinkPartner(ctx context.Context, userID string) error

	// Count returns the number of known users.
	Count(ctx context.Context) int
}
