package cache

import (
	"fmt"
	"sync"
	"time"

	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
	"marktscan/pkg/models"
)

// ResultCache memoizes scrape results for identical requests so repeated
// calls within the TTL window skip the walk entirely.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	stop    chan struct{}
	logger  types.Logger
}

type entry struct {
	result    *models.ScrapeResult
	expiresAt time.Time
}

// New creates a result cache and starts its expiry janitor.
func New(cfg *config.Config) *ResultCache {
	c := &ResultCache{
		entries: make(map[string]*entry),
		ttl:     cfg.Cache.TTL,
		stop:    make(chan struct{}),
		logger:  logging.GetGlobalLogger().WithField("component", "cache"),
	}

	go c.janitor(cfg.Cache.CleanupInterval)

	return c
}

// Key derives the cache key for a scrape request. Requests differing in any
// pagination parameter get distinct entries.
func Key(url string, pageSize, maxPages int) string {
	return fmt.Sprintf("%s|%d|%d", url, pageSize, maxPages)
}

// Get returns the cached result for the key, or nil when absent or expired.
func (c *ResultCache) Get(key string) *models.ScrapeResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil
	}
	return e.result
}

// Set stores a result under the key with the configured TTL.
func (c *ResultCache) Set(key string, result *models.ScrapeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		result:    result,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Len returns the number of live entries.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop terminates the janitor goroutine.
func (c *ResultCache) Stop() {
	close(c.stop)
}

func (c *ResultCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *ResultCache) evictExpired() {
	now := time.Now()

	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.logger.Debug("Evicted expired cache entries", map[string]interface{}{
			"removed": removed,
		})
	}
}
