// Package flags holds read-only feature flags loaded from the config's
// flags map. Unknown flags read as false.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/agview/internal/log"
)

const (
	// FlagLocalStore reads and writes the local SQLite store instead of the REST API.
	FlagLocalStore = "local-store"

	// FlagWatchStore reloads the handgrading dashboard when the store file changes.
	// Only meaningful together with FlagLocalStore.
	FlagWatchStore = "watch-store"
)

var known = []string{FlagLocalStore, FlagWatchStore}

// Registry holds feature flag state. It is read-only after New.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. A nil map disables everything.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)
	for name := range r.flags {
		if !slices.Contains(known, name) {
			log.Warn(log.CatConfig, "Unknown feature flag in config", "flag", name)
		}
	}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(r.flags), "flags", r.All())
	return r
}

// Enabled reports whether name is on. Nil registries and unknown flags are off.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// LocalStore reports FlagLocalStore.
func (r *Registry) LocalStore() bool { return r.Enabled(FlagLocalStore) }

// WatchStore reports FlagWatchStore. It is false unless the local store is on.
func (r *Registry) WatchStore() bool {
	return r.LocalStore() && r.Enabled(FlagWatchStore)
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return map[string]bool{}
	}
	return maps.Clone(r.flags)
}

// Known lists the flags agview understands.
func Known() []string {
	return slices.Clone(known)
}
