package calendar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/pkg/logger"
	"github.com/okian/datesync/pkg/metrics"
)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultCacheDir     = "./var/ics-cache"
	cacheDirPerm        = 0o700
	cacheFilePerm       = 0o600
)

// Source is one ICS subscription belonging to a user.
type Source = model.CalendarSource

// FetchResult is the body of one source, fresh or from cache.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool
}

type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads ICS feeds using conditional requests backed by a disk
// cache, falling back to the cached body when the network fails.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	logger   logger.Logger
}

// NewFetcher creates a Fetcher with configuration options.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: defaultFetchTimeout},
		cacheDir: defaultCacheDir,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.Get().Named("calendar")
	}
	return f
}

// Fetch downloads src, honoring ETag and Last-Modified.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (FetchResult, error) {
	const op = "calendar.fetch"
	if src.URL == "" {
		return FetchResult{}, fmt.Errorf("%s: %w", op, ErrEmptySource)
	}

	dir := f.cachePath(src.URL)
	if err := os.MkdirAll(dir, cacheDirPerm); err != nil {
		return FetchResult{}, fmt.Errorf("%s: %w: %w", op, ErrFetch, err)
	}
	meta, _ := loadMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("%s: %w: %w", op, ErrFetch, err)
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	f.logger.Debug(ctx, "ics fetch start", logger.String("source", src.ID), logger.String("url", redactURL(src.URL)))

	resp, err := f.client.Do(req)
	if err != nil {
		return f.fallback(ctx, src, cached, fmt.Errorf("%s: %w: %w", op, ErrFetch, err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return FetchResult{}, fmt.Errorf("%s: %w: %w", op, ErrFetch, err)
		}
		entry := cacheEntry{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(dir, entry, body); err != nil {
			f.logger.Warn(ctx, "ics cache save failed", logger.String("source", src.ID), logger.Error(err))
		}
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return FetchResult{}, fmt.Errorf("%s: %w: 304 without cached body", op, ErrFetch)
		}
		f.logger.Debug(ctx, "ics not modified; using cache", logger.String("source", src.ID))
		return FetchResult{Source: src, Body: cached, FromCache: true}, nil

	default:
		return f.fallback(ctx, src, cached, fmt.Errorf("%s: %w: status %s", op, ErrFetch, resp.Status))
	}
}

func (f *Fetcher) fallback(ctx context.Context, src Source, cached []byte, cause error) (FetchResult, error) {
	metrics.RecordSyncError("fetch")
	if len(cached) == 0 {
		return FetchResult{}, cause
	}
	f.logger.Warn(ctx, "ics fetch failed, using cached body", logger.String("source", src.ID), logger.Error(cause))
	return FetchResult{Source: src, Body: cached, FromCache: true}, nil
}

func (f *Fetcher) cachePath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(dir string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

// saveCache writes the body before the metadata so metadata never points at
// a missing body.
func saveCache(dir string, meta cacheEntry, body []byte) error {
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, cacheFilePerm); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, cacheFilePerm)
}

// redactURL keeps only scheme and host; feed paths often embed secrets.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
