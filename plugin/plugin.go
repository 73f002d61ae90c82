// Package plugin defines game-logic plugins and the registry that resolves
// helper names for the evaluator.
package plugin

import (
	"github.com/mxkacsa/worldsync/ast"
	"github.com/mxkacsa/worldsync/world"
)

// Context is the read-only view of one snapshot that helpers evaluate
// against. It never triggers a new solve.
type Context interface {
	// Has reports whether item is held, after progression mapping.
	Has(item string) bool
	// Count returns the progression-aware count of item.
	Count(item string) int
	IsRegionReachable(region string) bool
	// IsLocationAccessible reads the precomputed accessibility map and falls
	// back to a guarded direct evaluation when the location is not in it.
	IsLocationAccessible(location string) bool
	Setting(key string) (any, bool)
	// LocationItem returns the name of the item placed at location.
	LocationItem(location string) (string, bool)
	// Evaluate evaluates rule against this context.
	Evaluate(rule *ast.Rule) any
	// Derived returns a field injected by the game's Wrap function.
	Derived(key string) (any, bool)
	World() *world.Data
}

// HelperFunc is a named predicate or function invoked from a rule tree.
// Args are already evaluated.
type HelperFunc func(ctx Context, args []any) any

// WrapFunc computes derived fields once per evaluation context. It must be
// pure: the returned map is attached to a new view, never to ctx.
type WrapFunc func(ctx Context) map[string]any

// Plugin is a game's helper table and dispatch metadata.
type Plugin struct {
	Game    string
	Helpers map[string]HelperFunc
	// Prefixes are tried in order when no helper matches a name exactly.
	Prefixes []string
	Wrap     WrapFunc
	// Dialect names the legacy rule-string dialect, if any.
	Dialect string
}

// Helper returns the helper registered under exactly name.
func (p *Plugin) Helper(name string) (HelperFunc, bool) {
	if p == nil {
		return nil, false
	}
	fn, ok := p.Helpers[name]
	return fn, ok
}
