// Package control
// Author: momentics <momentics@gmail.com>
//
// Hot-reload, runtime metrics, configuration control, and debug introspection
// layer for BMP connection tunables (max frame payload, compression,
// scheduler worker count — see bmp.go). Part of the bmp protocol engine's
// ambient operational surface, used by cmd/bmpecho to make those tunables
// observable and reloadable without restarting a running peer.
//
// Provides concurrent-safe state handling primitives including:
//   - Immutable snapshot config reads and atomic updates (ConfigStore)
//   - Process-wide hot-reload hooks fired on tunable changes (hotreload.go)
//   - Per-connection frame/byte metrics telemetry (MetricsRegistry)
//   - On-demand state export via debug hooks and probe registration (DebugProbes)
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
