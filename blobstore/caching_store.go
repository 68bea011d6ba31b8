package blobstore

import (
	"context"

	"github.com/hupe1980/typedann/internal/cache"
	"github.com/hupe1980/typedann/internal/resource"
)

// CachingStore wraps a Store and keeps recently read blobs in memory.
type CachingStore struct {
	inner Store
	cache cache.Cache
}

// NewCachingStore creates a CachingStore holding up to capacity bytes.
// rc, if non-nil, is charged for cached bytes.
func NewCachingStore(inner Store, capacity int64, rc *resource.Controller) *CachingStore {
	return &CachingStore{
		inner: inner,
		cache: cache.NewLRU(capacity, rc),
	}
}

// Put invalidates the cached copy and writes through.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Get serves from the cache, reading through on a miss. The returned slice
// is a private copy.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if b, ok := s.cache.Get(name); ok {
		return append([]byte(nil), b...), nil
	}

	b, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(name, append([]byte(nil), b...))
	return b, nil
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns cache hits and misses.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(n string) bool { return n == name })
}
