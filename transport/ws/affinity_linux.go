//go:build linux

// File: transport/ws/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// setCPUAffinity's body is carried over from the teacher's
// transport/tcp/affinity_linux.go with one change besides the package
// name, this comment, and the error-message prefix: it passes pid 0 to
// sched_setaffinity(2), which targets the calling thread, where the
// teacher passed getpid(), which targets the process's main thread.

package ws

import (
	"fmt"
	"os"
	"runtime"
	"syscall"
	"unsafe"
)

// setCPUAffinity pins the calling OS thread to cpu.
func setCPUAffinity(cpu int) {
	runtime.LockOSThread()
	var mask [1024 / 64]uint64
	mask[cpu/64] |= 1 << uint(cpu%64)
	_, _, e := syscall.RawSyscall(
		syscall.SYS_SCHED_SETAFFINITY,
		0, // pid 0: the calling thread
		uintptr(unsafe.Sizeof(mask)),
		uintptr(unsafe.Pointer(&mask[0])),
	)
	if e != 0 {
		fmt.Fprintf(os.Stderr, "ws: failed to set CPU affinity: %v\n", e)
	}
}
