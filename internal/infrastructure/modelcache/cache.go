// Package modelcache caches fetched model metadata so repeated lookups
// of the same model do not hit the Replicate API.
package modelcache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"
)

// Config tunes the size and lifetime of cached entries.
type Config struct {
	Size int
	TTL  time.Duration
}

// Cache is an expirable LRU keyed by the model's owner/name identifier.
// Entries age out after the configured TTL; updates and deletes
// invalidate eagerly so stale metadata is never served after a write.
type Cache struct {
	lru *expirable.LRU[string, *domainreplicate.Model]
}

// NewCache creates a model cache. Size and TTL fall back to 256 entries
// and one hour when unset.
func NewCache(cfg Config) *Cache {
	size := cfg.Size
	if size <= 0 {
		size = 256
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Cache{
		lru: expirable.NewLRU[string, *domainreplicate.Model](size, nil, ttl),
	}
}

// Get returns the cached model for owner/name, if present and fresh.
func (c *Cache) Get(owner, name string) (*domainreplicate.Model, bool) {
	model, ok := c.lru.Get(cacheKey(owner, name))
	if ok {
		log.Debug().Str("model", cacheKey(owner, name)).Msg("model cache hit")
	}
	return model, ok
}

// Add stores a fetched model.
func (c *Cache) Add(owner, name string, model *domainreplicate.Model) {
	if model == nil {
		return
	}
	c.lru.Add(cacheKey(owner, name), model)
}

// Remove drops a model from the cache, if present.
func (c *Cache) Remove(owner, name string) {
	c.lru.Remove(cacheKey(owner, name))
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

func cacheKey(owner, name string) string {
	return owner + "/" + name
}
