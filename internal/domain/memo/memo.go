// Package memo caches computed free windows keyed by their inputs.
package memo

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/datesync/internal/domain/model"
)

const defaultMaxSize = 4096

// Cache stores free-window results. Keys fingerprint every input, so a
// changed event set or preference set simply misses; entries never go stale.
type Cache interface {
	Get(ctx context.Context, key string) ([]model.AvailabilityWindow, bool)
	Put(ctx context.Context, key string, windows []model.AvailabilityWindow)
	Remove(ctx context.Context, key string)
	Size() int64
}

// node is one entry in the insertion-ordered list.
type node struct {
	key        string
	windows    []model.AvailabilityWindow
	prev, next *node
}

func (n *node) reset() {
	n.key = ""
	n.windows = nil
	n.prev = nil
	n.next = nil
}

// inMemoryCache implements Cache with a map and an insertion-ordered list.
// For bounded mode (maxSize > 0): oldest insert is evicted first, nodes pooled.
// For unbounded mode (maxSize <= 0): entries are only removed explicitly.
type inMemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]*node
	head     *node // newest
	tail     *node // oldest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryCache creates a new in-memory cache with configuration options.
func NewInMemoryCache(opts ...Option) Cache {
	c := &inMemoryCache{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[string]*node)
	c.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return c
}

// Get returns a copy of the cached windows for key.
func (c *inMemoryCache) Get(_ context.Context, key string) ([]model.AvailabilityWindow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return cloneWindows(n.windows), true
}

// Put stores a copy of windows under key, replacing any previous value.
func (c *inMemoryCache) Put(_ context.Context, key string, windows []model.AvailabilityWindow) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		n.windows = cloneWindows(windows)
		return
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node)
	n.key = key
	n.windows = cloneWindows(windows)
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
	c.entries[key] = n
	c.size.Add(1)
}

// Remove drops key if present.
func (c *inMemoryCache) Remove(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		c.unlink(n)
	}
}

// Size returns the current number of entries.
func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}

// evictOldest removes the tail. Must be called with c.mu held.
func (c *inMemoryCache) evictOldest() {
	if c.tail != nil {
		c.unlink(c.tail)
	}
}

// unlink removes n from the list and map. Must be called with c.mu held.
func (c *inMemoryCache) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	delete(c.entries, n.key)
	n.reset()
	c.nodePool.Put(n)
	c.size.Add(-1)
}

func cloneWindows(in []model.AvailabilityWindow) []model.AvailabilityWindow {
	if in == nil {
		return nil
	}
	out := make([]model.AvailabilityWindow, len(in))
	for i, w := range in {
		out[i] = w
		out[i].Slots = append([]model.TimeSlot(nil), w.Slots...)
	}
	return out
}

// Key fingerprints the inputs of one free-window computation. start and end
// are rendered as calendar days in loc, the zone that cuts the windows.
func Key(userID string, loc *time.Location, start, end time.Time, prefs model.AvailabilityPreferences, events []model.CalendarEvent) string {
	return userID + "|" + start.In(loc).Format(time.DateOnly) + "|" + end.In(loc).Format(time.DateOnly) + "|" +
		strconv.FormatUint(PreferencesHash(prefs), 16) + "|" + strconv.FormatUint(EventsHash(events), 16)
}

// PreferencesHash returns a stable hash of the preference values.
func PreferencesHash(p model.AvailabilityPreferences) uint64 {
	d := xxhash.New()
	for _, day := range p.PreferredDays {
		_, _ = d.WriteString(strconv.Itoa(int(day)) + ",")
	}
	for _, s := range []string{
		p.PreferredTimeStart, p.PreferredTimeEnd,
		strconv.Itoa(p.MinimumSlotMinutes),
		strconv.FormatBool(p.ExcludeWorkHours), p.WorkHoursStart, p.WorkHoursEnd,
		strconv.Itoa(p.BufferBeforeMinutes), strconv.Itoa(p.BufferAfterMinutes),
	} {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// EventsHash returns a hash of the fields that affect availability.
// Event order matters; callers pass events in a stable order.
func EventsHash(events []model.CalendarEvent) uint64 {
	d := xxhash.New()
	for _, ev := range events {
		for _, s := range []string{
			ev.ID,
			strconv.FormatInt(ev.StartDate.UnixNano(), 36),
			strconv.FormatInt(ev.EndDate.UnixNano(), 36),
			strconv.FormatBool(ev.IsAllDay),
			strconv.FormatBool(ev.IsBusy),
		} {
			_, _ = d.WriteString(s)
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.Write([]byte{1})
	}
	return d.Sum64()
}
