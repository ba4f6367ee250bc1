//go:build windows
// +build windows

// control/platform_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific debug probes, the same CPU/goroutine-count pair
// platform_linux.go registers (affinity pinning itself stays Linux-only,
// see transport/ws/affinity_other.go, but these two counters are cheap and
// portable, so bmpecho gets them on Windows as well as Linux).

package control

import (
	"runtime"
)

// RegisterPlatformProbes registers Windows-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
}
