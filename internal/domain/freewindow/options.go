// Package freewindow computes one user's daily free windows from calendar events.
package freewindow

import "time"

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithLocation sets the timezone that defines calendar-day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// WithMaxDays caps how many days a single Build call may cover.
func WithMaxDays(days int) Option {
	return func(b *Builder) {
		if days > 0 {
			b.maxDays = days
		}
	}
}
