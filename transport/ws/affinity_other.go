//go:build !linux

// File: transport/ws/affinity_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Adapted from the teacher's transport/tcp/affinity_windows.go: affinity
// pinning is a Linux-only optimization here too.

package ws

func setCPUAffinity(cpu int) {
	// not implemented on this platform
}
