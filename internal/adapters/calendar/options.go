// Package calendar adapts ICS feeds into concrete CalendarEvent instances.
package calendar

import (
	"net/http"
	"time"

	"github.com/okian/datesync/pkg/logger"
)

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithCacheDir sets the directory holding per-URL body and validator caches.
func WithCacheDir(dir string) Option {
	return func(f *Fetcher) {
		if dir != "" {
			f.cacheDir = dir
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.client.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}
