// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// MetricsRegistry collects named metric snapshots, pushed (not pulled) on
// every update. ConnectionCounters (bmp.go) pushes its frame/byte totals
// here on every AddSent/AddReceived once RegisterConnection has attached a
// registry, so GetSnapshot always reflects the latest per-connection
// traffic without the registry having to poll anything. cmd/bmpecho logs
// GetSnapshot periodically alongside DebugProbes.DumpState.

package control

import (
	"maps"
	"sync"
	"time"
)

// MetricsRegistry holds named metric values; most recent Set wins.
type MetricsRegistry struct {
	mu      sync.RWMutex
	values  map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{values: make(map[string]any)}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.values[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return maps.Clone(mr.values)
}

// LastUpdated reports when Set was last called, the zero Time if never.
func (mr *MetricsRegistry) LastUpdated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
