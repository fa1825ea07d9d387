package cache

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/rivalscope/models"
)

// entry holds a cached page with its expiry.
type entry struct {
	page      *models.Page
	expiresAt time.Time
}

// Cache is an in-memory store of fetched pages keyed by URL.
// Expired entries are evicted lazily when looked up and by an optional
// background sweep. It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Cache holding at most maxEntries pages for ttl each.
func New(ttl time.Duration, maxEntries int) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache{
		store:      make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Key normalises a URL into a cache key. Fragments never reach the
// server so they do not distinguish pages.
func Key(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// Get returns the cached page for rawURL if it has not expired.
// An expired entry is removed on the way out.
func (c *Cache) Get(rawURL string) (*models.Page, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	key := Key(rawURL)

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed it.
		if cur, ok := c.store[key]; ok && cur == e {
			delete(c.store, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	hit := *e.page
	hit.FromCache = true
	return &hit, true
}

// Set stores page under rawURL. If the cache is at capacity, the entry
// closest to expiry is evicted to make room.
func (c *Cache) Set(rawURL string, page *models.Page) {
	if c.ttl <= 0 || page == nil {
		return
	}
	key := Key(rawURL)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		c.evictOldestLocked()
	}

	stored := *page
	stored.FromCache = false
	c.store[key] = &entry{page: &stored, expiresAt: c.now().Add(c.ttl)}
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// StartSweeper evicts expired entries every interval until Stop is called.
func (c *Cache) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

// Stop terminates the background sweeper, if any.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *Cache) sweep() {
	now := c.now()
	c.mu.Lock()
	for k, e := range c.store {
		if now.After(e.expiresAt) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for k, e := range c.store {
		if oldestKey == "" || e.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.expiresAt
		}
	}
	delete(c.store, oldestKey)
}
