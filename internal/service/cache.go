package service

import (
	"sync"
	"time"

	"ticker_go/internal/settings"
)

// CacheEntry is the last successful result of one feed.
type CacheEntry[T any] struct {
	Fingerprint settings.Fingerprint
	FetchedAt   time.Time
	Items       []T
	Seq         uint64 // sequence of the fetch that produced it; 0 when restored
}

// Matches reports whether the entry was produced by an equivalent request.
func (e CacheEntry[T]) Matches(fp settings.Fingerprint) bool {
	return e.Fingerprint == fp
}

// FreshAt reports whether the entry is younger than ttl at now.
func (e CacheEntry[T]) FreshAt(now time.Time, ttl time.Duration) bool {
	return !e.FetchedAt.IsZero() && now.Sub(e.FetchedAt) < ttl
}

// Cache holds at most one entry. Reads and writes are short critical
// sections; no lock is held across I/O.
type Cache[T any] struct {
	mu    sync.RWMutex
	entry *CacheEntry[T]
	high  uint64 // highest Seq ever stored, kept across Clear
}

// Get returns a copy of the current entry.
func (c *Cache[T]) Get() (CacheEntry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return CacheEntry[T]{}, false
	}
	return *c.entry, true
}

// Store replaces the entry unless the current one came from a newer fetch.
// It reports whether the entry was stored.
func (c *Cache[T]) Store(entry CacheEntry[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry != nil && c.entry.Seq > entry.Seq {
		return false
	}
	c.entry = &entry
	c.high = max(c.high, entry.Seq)
	return true
}

// Seq is the sequence of the newest data the cache has held. Results that
// carry no cached data are stamped with it.
func (c *Cache[T]) Seq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.high
}

// Restore installs an entry loaded from persistence, replacing anything held.
func (c *Cache[T]) Restore(entry CacheEntry[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry.Seq = 0
	c.entry = &entry
}

// Clear drops the entry.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}
