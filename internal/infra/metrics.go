package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	fetchesTotal  atomic.Uint64
	cacheHits     atomic.Uint64
	staleServed   atomic.Uint64
	placeholders  atomic.Uint64
	errorsTotal   atomic.Uint64
	updatesPushed atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeConnections atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordFetch records one upstream fetch with its latency.
func (m *Metrics) RecordFetch(latency time.Duration) {
	m.fetchesTotal.Add(1)
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
}

// RecordCacheHit records a request served from a fresh cache entry.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordStale records a stale-cache fallback.
func (m *Metrics) RecordStale() {
	m.staleServed.Add(1)
}

// RecordPlaceholder records a placeholder payload being served.
func (m *Metrics) RecordPlaceholder() {
	m.placeholders.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// RecordUpdate records a feed update delivered to the surfaces.
func (m *Metrics) RecordUpdate() {
	m.updatesPushed.Add(1)
}

// IncrementConnections increments active connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	FetchesTotal      uint64
	CacheHits         uint64
	StaleServed       uint64
	Placeholders      uint64
	ErrorsTotal       uint64
	UpdatesPushed     uint64
	AvgFetchLatency   time.Duration
	ActiveConnections int32
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		FetchesTotal:      m.fetchesTotal.Load(),
		CacheHits:         m.cacheHits.Load(),
		StaleServed:       m.staleServed.Load(),
		Placeholders:      m.placeholders.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		UpdatesPushed:     m.updatesPushed.Load(),
		AvgFetchLatency:   time.Duration(avgLatency),
		ActiveConnections: m.activeConnections.Load(),
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.fetchesTotal.Store(0)
	m.cacheHits.Store(0)
	m.staleServed.Store(0)
	m.placeholders.Store(0)
	m.errorsTotal.Store(0)
	m.updatesPushed.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeConnections.Store(0)
}
