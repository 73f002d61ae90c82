package plugin

import (
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

var (
	ErrSealed      = eris.New("plugin registry is sealed")
	ErrDuplicate   = eris.New("already registered")
	ErrInvalidName = eris.New("invalid plugin")
)

// =============================================================================
// Registry
// =============================================================================

// Registry maps game names to plugins and holds the built-in helpers.
// It is populated at startup, sealed, and read-only afterwards.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]*Plugin
	builtins map[string]HelperFunc
	sealed   bool
}

// NewRegistry returns a registry seeded with the built-in helpers.
func NewRegistry() *Registry {
	r := &Registry{
		plugins:  make(map[string]*Plugin),
		builtins: make(map[string]HelperFunc, len(builtinHelpers)),
	}
	for name, fn := range builtinHelpers {
		r.builtins[name] = fn
	}
	return r
}

// Register adds a game plugin.
func (r *Registry) Register(p *Plugin) error {
	if p == nil || p.Game == "" {
		return eris.Wrap(ErrInvalidName, "plugin needs a game name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return eris.Wrapf(ErrSealed, "register %s", p.Game)
	}
	if _, exists := r.plugins[p.Game]; exists {
		return eris.Wrapf(ErrDuplicate, "game %s", p.Game)
	}
	r.plugins[p.Game] = p
	return nil
}

// MustRegister is Register for startup code; it panics on error.
func (r *Registry) MustRegister(p *Plugin) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// RegisterBuiltin adds a cross-cutting helper available to every game.
func (r *Registry) RegisterBuiltin(name string, fn HelperFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return eris.Wrapf(ErrSealed, "register builtin %s", name)
	}
	if _, exists := r.builtins[name]; exists {
		return eris.Wrapf(ErrDuplicate, "builtin %s", name)
	}
	r.builtins[name] = fn
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Plugin returns the plugin for game.
func (r *Registry) Plugin(game string) (*Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[game]
	return p, ok
}

// Games returns the registered game names, sorted.
func (r *Registry) Games() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	games := make([]string, 0, len(r.plugins))
	for g := range r.plugins {
		games = append(games, g)
	}
	sort.Strings(games)
	return games
}

// Resolve finds the helper for name in game. The order is the plugin's exact
// name, then prefix+name for each plugin prefix in declared order, then the
// built-ins. The resolved name is returned for logging.
func (r *Registry) Resolve(game, name string) (HelperFunc, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.plugins[game]; ok {
		if fn, ok := p.Helpers[name]; ok {
			return fn, name, true
		}
		for _, prefix := range p.Prefixes {
			if fn, ok := p.Helpers[prefix+name]; ok {
				return fn, prefix + name, true
			}
		}
	}
	if fn, ok := r.builtins[name]; ok {
		return fn, name, true
	}
	return nil, "", false
}

// Known reports whether name resolves for game.
func (r *Registry) Known(game, name string) bool {
	_, _, ok := r.Resolve(game, name)
	return ok
}
