package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marktscan/internal/config"
	"marktscan/pkg/models"
)

func newTestCache(ttl time.Duration) *ResultCache {
	cfg := &config.Config{}
	cfg.Cache.TTL = ttl
	cfg.Cache.CleanupInterval = time.Minute
	return New(cfg)
}

func sampleResult(count int) *models.ScrapeResult {
	return &models.ScrapeResult{Count: count, PagesScraped: 1, TotalPages: 1}
}

func TestCacheSetGet(t *testing.T) {
	c := newTestCache(time.Minute)
	defer c.Stop()

	key := Key("https://example.com/results", 30, 5)
	c.Set(key, sampleResult(12))

	got := c.Get(key)
	require.NotNil(t, got)
	assert.Equal(t, 12, got.Count)
	assert.Equal(t, 1, c.Len())
}

func TestCacheMissReturnsNil(t *testing.T) {
	c := newTestCache(time.Minute)
	defer c.Stop()

	assert.Nil(t, c.Get(Key("https://example.com/results", 30, 5)))
}

func TestCacheExpiry(t *testing.T) {
	c := newTestCache(10 * time.Millisecond)
	defer c.Stop()

	key := Key("https://example.com/results", 30, 5)
	c.Set(key, sampleResult(12))

	time.Sleep(25 * time.Millisecond)

	assert.Nil(t, c.Get(key))
}

func TestCacheKeyDistinguishesPagination(t *testing.T) {
	base := Key("https://example.com/results", 30, 5)

	assert.NotEqual(t, base, Key("https://example.com/results", 50, 5))
	assert.NotEqual(t, base, Key("https://example.com/results", 30, 10))
	assert.NotEqual(t, base, Key("https://example.com/other", 30, 5))
	assert.Equal(t, base, Key("https://example.com/results", 30, 5))
}

func TestCacheEvictExpired(t *testing.T) {
	c := newTestCache(10 * time.Millisecond)
	defer c.Stop()

	c.Set(Key("https://example.com/a", 30, 5), sampleResult(1))
	c.Set(Key("https://example.com/b", 30, 5), sampleResult(2))

	time.Sleep(25 * time.Millisecond)
	c.evictExpired()

	assert.Zero(t, c.Len())
}

func TestCacheOverwrite(t *testing.T) {
	c := newTestCache(time.Minute)
	defer c.Stop()

	key := Key("https://example.com/results", 30, 5)
	c.Set(key, sampleResult(1))
	c.Set(key, sampleResult(2))

	got := c.Get(key)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, 1, c.Len())
}
