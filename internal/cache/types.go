package cache

// Cache stores immutable byte values by name. Returned slices must be
// treated as read-only.
type Cache interface {
	// Get returns a cached value. ok is false if missing.
	Get(name string) (b []byte, ok bool)
	// Set caches a value. The cache retains b; the caller must not modify it.
	Set(name string, b []byte)
	// Invalidate removes entries whose name matches the predicate.
	Invalidate(predicate func(name string) bool)
	// Stats returns hit and miss counts.
	Stats() (hits, misses int64)
}
