// Package cache provides a small TTL cache used for provider access tokens
// and exchange rates. It is injected into its consumers so a multi-instance
// deployment can swap in a shared backing store behind the same interface.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Store is the lookup-keyed TTL cache consumed by the provider client and
// the exchange-rate service.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Del(key string)
}

// TTLCache is an in-process Store backed by ristretto.
type TTLCache struct {
	cache *ristretto.Cache
}

func New() (*TTLCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return nil, err
	}
	return &TTLCache{cache: c}, nil
}

func (t *TTLCache) Get(key string) (any, bool) {
	return t.cache.Get(key)
}

func (t *TTLCache) Set(key string, value any, ttl time.Duration) {
	t.cache.SetWithTTL(key, value, 1, ttl)
	// Admission is asynchronous; waiting keeps a Set immediately visible
	// to the next Get, which token caching relies on.
	t.cache.Wait()
}

func (t *TTLCache) Del(key string) {
	t.cache.Del(key)
}
