// File: control/bmp.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// BMPSettings is the connection-tunable subset of ConfigStore (config.go)
// this module actually reads: max frame payload, compression, and worker
// pool size. RegisterConnection wires a live connection's counters into
// DebugProbes (debug.go) the same way platform_linux.go wires runtime
// counters, and optionally into MetricsRegistry (metrics.go) for push-based
// snapshot export — generalizing the teacher's generic control layer from
// process-wide settings to one BMP connection's observable state.

package control

import "sync/atomic"

// BMPSettings holds the tunables a Connection is constructed with.
type BMPSettings struct {
	MaxFramePayload int
	Compression     bool
	SchedulerWorkers int
}

// DefaultBMPSettings returns the baseline settings new connections use
// absent any ConfigStore override.
func DefaultBMPSettings() BMPSettings {
	return BMPSettings{MaxFramePayload: 16 * 1024, Compression: false, SchedulerWorkers: 0}
}

// BMPSettingsFromStore reads a BMPSettings out of a ConfigStore snapshot,
// falling back to DefaultBMPSettings for any key that is absent or of the
// wrong type.
func BMPSettingsFromStore(cs *ConfigStore) BMPSettings {
	s := DefaultBMPSettings()
	snap := cs.GetSnapshot()
	if v, ok := snap["bmp.max_frame_payload"].(int); ok {
		s.MaxFramePayload = v
	}
	if v, ok := snap["bmp.compression"].(bool); ok {
		s.Compression = v
	}
	if v, ok := snap["bmp.scheduler_workers"].(int); ok {
		s.SchedulerWorkers = v
	}
	return s
}

// ConnectionCounters are the live, atomically-updated counters a
// Connection exposes for metrics/debug export; the connection package
// updates these directly through AddSent/AddReceived (control does not
// import connection). name/metrics are set by RegisterConnection,
// not by the connection package, so AddSent/AddReceived can push a fresh
// snapshot to an attached MetricsRegistry on every update without the
// connection package needing to know MetricsRegistry exists.
type ConnectionCounters struct {
	FramesSent     int64
	FramesReceived int64
	BytesSent      int64
	BytesReceived  int64

	name    string
	metrics *MetricsRegistry
}

func (c *ConnectionCounters) AddSent(frames int, bytes int) {
	atomic.AddInt64(&c.FramesSent, int64(frames))
	atomic.AddInt64(&c.BytesSent, int64(bytes))
	c.publish()
}

func (c *ConnectionCounters) AddReceived(frames int, bytes int) {
	atomic.AddInt64(&c.FramesReceived, int64(frames))
	atomic.AddInt64(&c.BytesReceived, int64(bytes))
	c.publish()
}

func (c *ConnectionCounters) snapshot() map[string]any {
	return map[string]any{
		"frames_sent":     atomic.LoadInt64(&c.FramesSent),
		"frames_received": atomic.LoadInt64(&c.FramesReceived),
		"bytes_sent":      atomic.LoadInt64(&c.BytesSent),
		"bytes_received":  atomic.LoadInt64(&c.BytesReceived),
	}
}

func (c *ConnectionCounters) publish() {
	if c.metrics == nil {
		return
	}
	c.metrics.Set("bmp.connection."+c.name, c.snapshot())
}

// RegisterConnection wires name's counters into dp as a pull-based debug
// probe (DumpState re-invokes the closure below on every call) and, if mr
// is non-nil, attaches it so every subsequent AddSent/AddReceived also
// pushes a fresh snapshot into mr under the same key. Pass a nil mr to
// skip metrics export and use dp alone.
func RegisterConnection(name string, counters *ConnectionCounters, dp *DebugProbes, mr *MetricsRegistry) {
	counters.name = name
	counters.metrics = mr
	dp.RegisterProbe("bmp.connection."+name, func() any {
		return counters.snapshot()
	})
	if mr != nil {
		counters.publish()
	}
}
