package eval

import (
	"slices"

	"github.com/mxkacsa/worldsync/ast"
	"github.com/mxkacsa/worldsync/plugin"
	"github.com/mxkacsa/worldsync/state"
	"github.com/mxkacsa/worldsync/world"
)

// Reachability answers region reachability for a frame.
type Reachability interface {
	IsRegionReachable(region string) bool
}

// Frame is the state a view reads: the snapshot inputs plus whatever the
// solver has derived so far. The solver fills Locations while it settles a
// pass, so the map may change between reads of the same frame.
type Frame struct {
	Inputs    state.Inputs
	Events    map[string]struct{}
	Regions   Reachability
	Locations map[string]bool
}

// View binds one frame and one world into the plugin.Context handed to the
// evaluator and to helpers. A View's fields are never reassigned after
// construction; only the fallback memo grows.
type View struct {
	ev      *Evaluator
	data    *world.Data
	frame   Frame
	derived map[string]any
	// resolving is the chain of locations whose rules are being evaluated
	// through the fallback path. Each step copies it.
	resolving []string
	// memo is shared by every view on one fallback chain and dies with the
	// top-level call.
	memo map[string]bool
}

var _ plugin.Context = (*View)(nil)

// NewView builds a view over frame and applies the game's Wrap function once.
func NewView(ev *Evaluator, data *world.Data, frame Frame) *View {
	v := &View{ev: ev, data: data, frame: frame}
	if data == nil {
		return v
	}
	if p, ok := ev.registry.Plugin(data.Game); ok && p.Wrap != nil {
		derived := p.Wrap(v)
		v = &View{ev: ev, data: data, frame: frame, derived: derived}
	}
	return v
}

// Bind builds a view over a published snapshot.
func Bind(ev *Evaluator, data *world.Data, snap *state.Snapshot) *View {
	return NewView(ev, data, Frame{
		Inputs:    snap.Inputs(),
		Events:    snap.EventSet(),
		Regions:   snap,
		Locations: snap.Locations(),
	})
}

// Has reports whether the progression-aware count of item is positive.
func (v *View) Has(item string) bool { return v.Count(item) > 0 }

// Count resolves item through the progression mapping. Pickups count toward
// their base; a tier counts as one once the base count reaches its level.
// A triggered event counts as one.
func (v *View) Count(item string) int {
	n := v.count(item)
	if n == 0 {
		if _, ok := v.frame.Events[item]; ok {
			return 1
		}
	}
	return n
}

func (v *View) count(item string) int {
	in := v.frame.Inputs
	if v.data == nil {
		return in.Count(item)
	}
	res, ok := v.data.Resolve(item)
	if !ok {
		return in.Count(item)
	}

	total := in.Count(res.Base)
	for _, pickup := range v.data.Pickups(res.Base) {
		if pickup != res.Base {
			total += in.Count(pickup)
		}
	}
	if res.Level == 0 {
		return total
	}
	if total >= res.Level || in.Count(item) > 0 {
		return 1
	}
	return 0
}

func (v *View) IsRegionReachable(region string) bool {
	if v.frame.Regions == nil {
		return false
	}
	return v.frame.Regions.IsRegionReachable(region)
}

// IsLocationAccessible reads the frame's accessibility map. A location not in
// the map is resolved as "region reachable and own rule true" on a child view;
// a location already being resolved on the current chain is false. Fallback
// results are memoized for the rest of the top-level call, so each location's
// rule runs at most once per call.
func (v *View) IsLocationAccessible(location string) bool {
	if acc, ok := v.frame.Locations[location]; ok {
		return acc
	}
	if v.data == nil || slices.Contains(v.resolving, location) {
		return false
	}
	if acc, ok := v.memo[location]; ok {
		return acc
	}
	loc, ok := v.data.Location(location)
	if !ok {
		return false
	}

	child := v.resolve(location)
	acc := v.IsRegionReachable(loc.Region) && v.ev.Bool(loc.Rule, child)
	child.memo[location] = acc
	return acc
}

// resolve returns a child view with location appended to the chain. The
// top-level view starts a fresh memo.
func (v *View) resolve(location string) *View {
	chain := make([]string, len(v.resolving), len(v.resolving)+1)
	copy(chain, v.resolving)
	memo := v.memo
	if memo == nil {
		memo = make(map[string]bool)
	}
	return &View{
		ev:        v.ev,
		data:      v.data,
		frame:     v.frame,
		derived:   v.derived,
		resolving: append(chain, location),
		memo:      memo,
	}
}

func (v *View) Setting(key string) (any, bool) {
	if v.data == nil {
		return nil, false
	}
	return v.data.Setting(key)
}

func (v *View) LocationItem(location string) (string, bool) {
	if v.data == nil {
		return "", false
	}
	loc, ok := v.data.Location(location)
	if !ok || loc.Item == nil {
		return "", false
	}
	return loc.Item.Name, true
}

// Evaluate evaluates rule against this view.
func (v *View) Evaluate(rule *ast.Rule) any { return v.ev.Evaluate(rule, v) }

// Bool evaluates rule at the boolean boundary.
func (v *View) Bool(rule *ast.Rule) bool { return v.ev.Bool(rule, v) }

func (v *View) Derived(key string) (any, bool) {
	d, ok := v.derived[key]
	return d, ok
}

func (v *View) World() *world.Data { return v.data }
