package http

import (
	"sync"
	"time"
)

// Metrics tracks aggregate statistics for API calls.
type Metrics interface {
	// RecordRequest records an API request
	RecordRequest(provider, model string)

	// RecordDuration records request duration
	RecordDuration(provider, model string, duration time.Duration)

	// RecordError records an error
	RecordError(provider, model string, errType ErrorType)

	// GetStats returns current statistics
	GetStats() Stats
}

// Stats contains aggregate statistics.
type Stats struct {
	TotalRequests int
	TotalDuration time.Duration
	ErrorCount    int
	ByProvider    map[string]ProviderStats
}

// ProviderStats contains per-provider statistics.
type ProviderStats struct {
	Requests int
	Duration time.Duration
	Errors   int
}

// DefaultMetrics provides in-memory metrics tracking.
type DefaultMetrics struct {
	mu    sync.RWMutex
	stats Stats
}

// NewDefaultMetrics creates a metrics tracker.
func NewDefaultMetrics() *DefaultMetrics {
	return &DefaultMetrics{
		stats: Stats{
			ByProvider: make(map[string]ProviderStats),
		},
	}
}

// RecordRequest increments request counter.
func (m *DefaultMetrics) RecordRequest(provider, model string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalRequests++

	ps := m.stats.ByProvider[provider]
	ps.Requests++
	m.stats.ByProvider[provider] = ps
}

// RecordDuration records API call duration.
func (m *DefaultMetrics) RecordDuration(provider, model string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalDuration += duration

	ps := m.stats.ByProvider[provider]
	ps.Duration += duration
	m.stats.ByProvider[provider] = ps
}

// RecordError increments error counters.
func (m *DefaultMetrics) RecordError(provider, model string, errType ErrorType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.ErrorCount++

	ps := m.stats.ByProvider[provider]
	ps.Errors++
	m.stats.ByProvider[provider] = ps
}

// GetStats returns a copy of the current statistics.
func (m *DefaultMetrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.stats
	out.ByProvider = make(map[string]ProviderStats, len(m.stats.ByProvider))
	for k, v := range m.stats.ByProvider {
		out.ByProvider[k] = v
	}
	return out
}
