package cache

import (
	"strings"
	"sync"
	"time"
)

// Key is a hierarchical dotted cache key. "auth" is a prefix of
// "auth.user" but not of "authz.user".
type Key string

// K builds a [Key] from path segments: K("auth","user") == Key("auth.user").
func K(parts ...string) Key {
	return Key(strings.Join(parts, "."))
}

func (k Key) hasPrefix(prefix Key) bool {
	if k == prefix {
		return true
	}
	return strings.HasPrefix(string(k), string(prefix)+".")
}

// Entry is one cached value with its freshness and retention deadlines.
type Entry struct {
	Key     Key
	Value   any
	StaleAt time.Time
	GCAt    time.Time
}

// Fresh reports whether the entry is inside its freshness window.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.StaleAt)
}

// Config controls entry lifetimes and sweeping.
type Config struct {
	// FreshFor is the default freshness window for Set.
	FreshFor time.Duration
	// KeepFor is the default retention for Set; clamped to at least FreshFor.
	KeepFor time.Duration
	// SweepInterval drives the eviction goroutine; zero disables it.
	SweepInterval time.Duration
	// NowFunc overrides the clock in tests. Nil means time.Now.
	NowFunc func() time.Time
}

// Cache is a concurrency-safe keyed store of query results.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Entry

	freshFor time.Duration
	keepFor  time.Duration
	now      func() time.Time

	stopCh    chan struct{}
	closeOnce sync.Once
}

// New creates a cache and, when cfg.SweepInterval is positive, starts the
// background sweeper. Close stops it.
func New(cfg Config) *Cache {
	if cfg.FreshFor <= 0 {
		cfg.FreshFor = 5 * time.Minute
	}
	if cfg.KeepFor < cfg.FreshFor {
		cfg.KeepFor = cfg.FreshFor
	}
	now := cfg.NowFunc
	if now == nil {
		now = time.Now
	}

	c := &Cache{
		entries:  make(map[Key]Entry),
		freshFor: cfg.FreshFor,
		keepFor:  cfg.KeepFor,
		now:      now,
		stopCh:   make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		go c.run(cfg.SweepInterval)
	}

	return c
}

// Close stops the sweeper exactly once. The cache stays readable.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCh)
	})
}

// Set stores value under key with the configured default lifetimes.
func (c *Cache) Set(key Key, value any) {
	c.SetWithTTL(key, value, c.freshFor, c.keepFor)
}

// SetWithTTL stores value with explicit freshness and retention windows.
// keepFor is clamped to at least freshFor.
func (c *Cache) SetWithTTL(key Key, value any, freshFor, keepFor time.Duration) {
	if keepFor < freshFor {
		keepFor = freshFor
	}
	now := c.now()
	entry := Entry{
		Key:     key,
		Value:   value,
		StaleAt: now.Add(freshFor),
		GCAt:    now.Add(keepFor),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Get returns the entry under key. Entries past their retention deadline
// read as absent; stale-but-retained entries are returned so callers can
// serve them while revalidating.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return Entry{}, false
	}
	if !c.now().Before(entry.GCAt) {
		return Entry{}, false
	}
	return entry, true
}

// Invalidate ends key's freshness window immediately. The value is kept
// for stale reuse until its retention deadline; invalidating an absent
// key is a no-op.
func (c *Cache) Invalidate(key Key) {
	now := c.now()

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && entry.StaleAt.After(now) {
		entry.StaleAt = now
		c.entries[key] = entry
	}
	c.mu.Unlock()
}

// InvalidatePrefix marks every entry under prefix stale, skipping any keys
// listed in except.
func (c *Cache) InvalidatePrefix(prefix Key, except ...Key) {
	now := c.now()

	c.mu.Lock()
	for key, entry := range c.entries {
		if !key.hasPrefix(prefix) {
			continue
		}
		if contains(except, key) {
			continue
		}
		if entry.StaleAt.After(now) {
			entry.StaleAt = now
			c.entries[key] = entry
		}
	}
	c.mu.Unlock()
}

// Delete removes key outright, with no stale-reuse grace.
func (c *Cache) Delete(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Restore puts a previously read entry back verbatim, deadlines included.
// Callers use it to undo a speculative Set; an entry already past its
// retention deadline is dropped instead.
func (c *Cache) Restore(e Entry) {
	if !c.now().Before(e.GCAt) {
		c.Delete(e.Key)
		return
	}

	c.mu.Lock()
	c.entries[e.Key] = e
	c.mu.Unlock()
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[Key]Entry)
	c.mu.Unlock()
}

// Len returns the number of retained entries, including stale ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Value extracts a typed value from an entry. ok is false when the entry
// holds a different type.
func Value[T any](e Entry) (T, bool) {
	v, ok := e.Value.(T)
	return v, ok
}

func (c *Cache) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := c.now()

	c.mu.Lock()
	for key, entry := range c.entries {
		if !now.Before(entry.GCAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

func contains(keys []Key, key Key) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
