package logging

import "sync"

// Metrics is a concurrency-safe counter/gauge table surfaced on the
// diagnostics endpoint.
type Metrics struct {
	mu     sync.RWMutex
	values map[string]uint64
}

// NewMetrics returns an empty metrics table.
func NewMetrics() *Metrics {
	return &Metrics{values: make(map[string]uint64)}
}

// TelemetryAdd increments a counter.
func (m *Metrics) TelemetryAdd(key string, delta uint64) {
	if m == nil || key == "" {
		return
	}
	m.mu.Lock()
	m.values[key] += delta
	m.mu.Unlock()
}

// TelemetryStore sets a gauge.
func (m *Metrics) TelemetryStore(key string, value uint64) {
	if m == nil || key == "" {
		return
	}
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
}

// Snapshot copies the current values.
func (m *Metrics) Snapshot() map[string]uint64 {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	copied := make(map[string]uint64, len(m.values))
	for k, v := range m.values {
		copied[k] = v
	}
	return copied
}
