package service

import (
	"time"

	"ticker_go/internal/domain"
)

// GetOptions tunes a feed request.
type GetOptions struct {
	// Force skips the fresh-cache check. Stale fallback still applies.
	Force bool
	// Silent suppresses degraded-result notices.
	Silent bool
}

// Result is what a feed request served. Seq identifies the data, not the
// request: a cache hit carries the seq of the fetch that filled the cache,
// so it never outranks a newer fetch still in flight.
type Result[T any] struct {
	Items       []T
	Outcome     domain.Outcome
	Seq         uint64    // sequence of the fetch that produced Items
	RefreshedAt time.Time // fetch time of the served cache entry; zero if none
	Err         error     // the fetch failure behind a degraded outcome
}

// Refreshed reports whether a new result was obtained.
func (r Result[T]) Refreshed() bool {
	return r.Outcome == domain.OutcomeFresh
}

func truncate[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) < n {
		n = len(items)
	}
	out := make([]T, n)
	copy(out, items[:n])
	return out
}
