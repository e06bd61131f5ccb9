package example

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of names a CachedStore remembers.
const DefaultCacheSize = 1024

// cached is a remembered lookup result, including misses.
type cached struct {
	text string
	ok   bool
}

// CachedStore remembers lookups of another Store.
type CachedStore struct {
	store Store
	cache *lru.Cache[string, cached]
}

// NewCachedStore wraps store with an LRU cache of size entries.
// A size <= 0 uses DefaultCacheSize.
func NewCachedStore(store Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cached](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{store: store, cache: cache}, nil
}

// Lookup implements Store.
func (s *CachedStore) Lookup(ctx context.Context, name string) (string, bool) {
	if hit, ok := s.cache.Get(name); ok {
		return hit.text, hit.ok
	}
	text, ok := s.store.Lookup(ctx, name)
	s.cache.Add(name, cached{text: text, ok: ok})
	return text, ok
}

// Purge forgets every cached lookup.
func (s *CachedStore) Purge() {
	s.cache.Purge()
}

// Len returns the number of cached names.
func (s *CachedStore) Len() int {
	return s.cache.Len()
}
