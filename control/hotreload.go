// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Process-wide hot-reload hook registry: components with no reference to a
// specific ConfigStore (config.go) but that still need to react whenever
// BMP's connection tunables change register here. ConfigStore.SetConfig
// calls TriggerHotReload in addition to its own store-local listeners, so
// cmd/bmpecho's scheduled tunable reload (see runServe) reaches both.

package control

import "sync"

var (
	reloadMu    sync.Mutex
	reloadHooks []func()
)

// RegisterReloadHook adds a component reload listener.
func RegisterReloadHook(fn func()) {
	reloadMu.Lock()
	reloadHooks = append(reloadHooks, fn)
	reloadMu.Unlock()
}

// TriggerHotReload dispatches all reload hooks.
func TriggerHotReload() {
	reloadMu.Lock()
	hooks := append([]func(){}, reloadHooks...)
	reloadMu.Unlock()
	for _, fn := range hooks {
		go fn()
	}
}
