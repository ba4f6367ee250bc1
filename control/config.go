// control/config.go
// Author: momentics <momentics@gmail.com>
//
// ConfigStore holds BMP's live connection tunables (max frame payload,
// compression on/off, scheduler worker count — read out via
// BMPSettingsFromStore in bmp.go) behind a snapshot-and-reload API.
// cmd/bmpecho seeds one at startup and re-applies it to every newly
// accepted connection, so a SetConfig call changes behavior for
// subsequently accepted peers without a process restart.

package control

import (
	"maps"
	"sync"
)

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	values    map[string]any
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		values: make(map[string]any),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return maps.Clone(cs.values)
}

// SetConfig merges new values and dispatches reload to this store's own
// listeners (OnReload) and to every process-wide hot-reload hook
// (RegisterReloadHook, hotreload.go) — a BMP tunable change is exactly the
// kind of cross-cutting event a component with no reference to this
// particular store may still need to react to.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.values[k] = v
	}
	cs.mu.Unlock()
	cs.dispatchReload()
	TriggerHotReload()
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// dispatchReload invokes all store-local listeners.
func (cs *ConfigStore) dispatchReload() {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for _, fn := range cs.listeners {
		go fn()
	}
}
