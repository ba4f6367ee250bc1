//go:build linux
// +build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific debug probes, registered once at cmd/bmpecho startup
// alongside each connection's RegisterConnection probe: CPU count (the
// same "hardware_concurrency, floor 2" input actor.NewScheduler's default
// sizing uses) and live goroutine count (one reader goroutine per
// Connection plus the shared actor.Scheduler worker pool).

package control

import (
	"runtime"
)

// RegisterPlatformProbes registers Linux-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
}
