// Package cache provides a byte-bounded LRU for immutable blobs.
//
// Cached entries are charged against an optional resource.Controller, so a
// cache shares the memory budget of the index it serves. When the
// controller refuses a reservation the value is simply not cached.
package cache
