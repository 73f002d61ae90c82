package plugin

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxkacsa/worldsync/ast"
	"github.com/mxkacsa/worldsync/world"
)

func constHelper(v any) HelperFunc {
	return func(Context, []any) any { return v }
}

func TestRegistry_ResolveOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Plugin{
		Game:     "sc2",
		Prefixes: []string{"terran_", "zerg_"},
		Helpers: map[string]HelperFunc{
			"terran_power_rating": constHelper("terran"),
			"zerg_power_rating":   constHelper("zerg"),
			"zerg_only":           constHelper("zerg"),
			"count":               constHelper("shadowed"),
		},
	})

	tests := []struct {
		name     string
		resolved string
		found    bool
	}{
		{"power_rating", "terran_power_rating", true},
		{"only", "zerg_only", true},
		{"zerg_only", "zerg_only", true},
		{"count", "count", true},
		{"has", "has", true},
		{"nothing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got, ok := r.Resolve("sc2", tt.name)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.resolved, got)
		})
	}

	// The plugin's exact name shadows the built-in.
	fn, _, _ := r.Resolve("sc2", "count")
	assert.Equal(t, "shadowed", fn(nil, nil))

	// Other games only see built-ins.
	_, _, ok := r.Resolve("alttp", "power_rating")
	assert.False(t, ok)
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Plugin{Game: "alttp"}))

	err := r.Register(&Plugin{Game: "alttp"})
	assert.True(t, eris.Is(err, ErrDuplicate), "expected duplicate error, got %v", err)

	assert.Error(t, r.Register(&Plugin{}))
	assert.Error(t, r.RegisterBuiltin("has", constHelper(true)))

	r.Seal()
	assert.True(t, r.Sealed())
	err = r.Register(&Plugin{Game: "oot"})
	assert.True(t, eris.Is(err, ErrSealed), "expected sealed error, got %v", err)
	assert.Panics(t, func() { r.MustRegister(&Plugin{Game: "sm"}) })

	assert.Equal(t, []string{"alttp"}, r.Games())
}

func TestCoercion(t *testing.T) {
	assert.True(t, Bool(1))
	assert.False(t, Bool(0.0))
	assert.False(t, Bool(nil))
	assert.True(t, Bool("x"))
	assert.True(t, Bool([]any{"x"}))
	assert.False(t, Bool([]any{}))
	assert.Equal(t, 3, Int(3.9))
	assert.Equal(t, 1, Int(true))
	assert.Equal(t, 12, Int("12"))
	assert.Equal(t, 0, Int("abc"))
	assert.True(t, Equal(3, 3.0))
	assert.True(t, Equal("closed", "closed"))
	assert.False(t, Equal(nil, 0))
	assert.Equal(t, []string{"Bow", "Hammer", "2"}, Strings([]any{[]any{"Bow", "Hammer"}, 2}))
}

// fakeContext is a minimal Context over plain maps.
type fakeContext struct {
	data      *world.Data
	counts    map[string]int
	regions   map[string]bool
	locations map[string]bool
}

func (f *fakeContext) Has(item string) bool               { return f.counts[item] > 0 }
func (f *fakeContext) Count(item string) int              { return f.counts[item] }
func (f *fakeContext) IsRegionReachable(r string) bool    { return f.regions[r] }
func (f *fakeContext) IsLocationAccessible(l string) bool { return f.locations[l] }
func (f *fakeContext) Setting(key string) (any, bool)     { return f.data.Setting(key) }
func (f *fakeContext) Evaluate(*ast.Rule) any             { return nil }
func (f *fakeContext) Derived(string) (any, bool)         { return nil, false }
func (f *fakeContext) World() *world.Data                 { return f.data }
func (f *fakeContext) LocationItem(l string) (string, bool) {
	loc, ok := f.data.Location(l)
	if !ok || loc.Item == nil {
		return "", false
	}
	return loc.Item.Name, true
}

func TestBuiltins(t *testing.T) {
	d := world.NewBuilder("test").
		Item("Crystal 1", "Crystals").
		Item("Crystal 2", "Crystals").
		Item("Pendant", "Pendants").
		Setting("mode", "open").
		Region("Menu").Exit("Tower", nil).Exit("Cave", nil).Exit("Palace", nil).
		Region("Tower").LocationWithItem("Tower Boss", "Bow", nil).Reward("Crystal 1", "Tower Boss").
		Region("Cave").Location("Cave Boss", nil).Reward("Crystal 2", "Cave Boss").
		Region("Palace").Reward("Pendant", "").
		Done().MustBuild()

	ctx := &fakeContext{
		data:      d,
		counts:    map[string]int{"Key": 3, "Crystal 1": 1},
		regions:   map[string]bool{"Menu": true, "Tower": true, "Cave": true, "Palace": true},
		locations: map[string]bool{"Tower Boss": true},
	}
	call := func(name string, args ...any) any { return builtinHelpers[name](ctx, args) }

	assert.Equal(t, true, call("has", "Key"))
	assert.Equal(t, true, call("has", "Key", 3))
	assert.Equal(t, false, call("has", "Key", 4))
	assert.Equal(t, 3, call("count", "Key"))
	assert.Equal(t, false, call("has_all", "Key", "Bow"))
	assert.Equal(t, true, call("has_any", "Key", "Bow"))
	assert.Equal(t, true, call("has_any", []any{"Bow", "Key"}))
	assert.Equal(t, false, call("has_all", []any{"Key", "Bow"}))
	assert.Equal(t, true, call("has_all", []any{"Key"}, "Crystal 1"))
	assert.Equal(t, true, call("has_group", "Crystals"))
	assert.Equal(t, false, call("has_group", "Crystals", 2))

	assert.Equal(t, true, call("can_acquire", "Crystals"))
	assert.Equal(t, false, call("CanAcquireAtLeast", "Crystals", 2))
	assert.Equal(t, true, call("can_acquire", "Pendant"))
	assert.Equal(t, false, call("can_acquire", ""))

	ctx.locations["Cave Boss"] = true
	assert.Equal(t, true, call("can_acquire_at_least", "Crystals", 2))

	assert.Equal(t, "Bow", call("location_item_name", "Tower Boss"))
	assert.Equal(t, true, call("location_item_is", "Tower Boss", "Bow"))
	assert.Equal(t, "", call("location_item_name", "Nowhere"))

	assert.Equal(t, 2, call("int", 2.7))
	assert.Equal(t, 1, call("min", 3, 1, 2))
	assert.Equal(t, 3, call("max", 3, 1, 2))
	assert.Equal(t, 0, call("max"))
	assert.Equal(t, "open", call("setting", "mode"))
	assert.Equal(t, true, call("setting_is", "mode", "open"))
	assert.Equal(t, false, call("setting_is", "missing", "open"))
}

func TestAcquiredRewards_DefaultBoss(t *testing.T) {
	d := world.NewBuilder("test").
		Region("Menu").Exit("Dungeon", nil).Exit("Tower", nil).
		Region("Dungeon").Location("Real Boss", nil).Reward("Crystal", "").
		Region("Tower").Location("Named Boss", nil).Location("Other Boss", nil).Reward("Crystal", "Named Boss").
		Done().MustBuild()
	ctx := &fakeContext{
		data:      d,
		regions:   map[string]bool{"Menu": true, "Dungeon": true, "Tower": true},
		locations: map[string]bool{"Other Boss": true},
	}
	defaults := map[string]string{"Dungeon": "Real Boss", "Tower": "Other Boss"}

	assert.Equal(t, 1, AcquiredRewards(ctx, "Crystal", nil), "a region without a boss counts once reached")
	assert.Equal(t, 0, AcquiredRewards(ctx, "Crystal", defaults), "a declared boss location wins over the default")

	ctx.locations["Real Boss"] = true
	assert.Equal(t, 1, AcquiredRewards(ctx, "Crystal", defaults))
}

func TestAcquireArgs(t *testing.T) {
	tests := []struct {
		name   string
		args   []any
		reward string
		amount int
	}{
		{"reward first", []any{"Crystal", 7}, "Crystal", 7},
		{"amount first", []any{7, "Crystal"}, "Crystal", 7},
		{"float amount first", []any{7.0, "Crystal"}, "Crystal", 7},
		{"numeric-looking reward name", []any{"Crystal 7", 2}, "Crystal 7", 2},
		{"missing amount", []any{"Crystal"}, "Crystal", 1},
		{"zero amount", []any{0, "Crystal"}, "Crystal", 0},
		{"no args", nil, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reward, amount := AcquireArgs(tt.args)
			assert.Equal(t, tt.reward, reward)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

// CanAcquireAtLeast(7, "Crystal") once read the amount as the reward name and
// the reward as amount 0, which opened the gate with nothing acquired.
func TestCanAcquireAtLeast_AmountFirst(t *testing.T) {
	d := world.NewBuilder("test").
		Item("Crystal 1", "Crystal").
		Item("Crystal 2", "Crystal").
		Region("Menu").Exit("Tower", nil).Exit("Cave", nil).
		Region("Tower").Location("Tower Boss", nil).Reward("Crystal 1", "Tower Boss").
		Region("Cave").Location("Cave Boss", nil).Reward("Crystal 2", "Cave Boss").
		Done().MustBuild()
	ctx := &fakeContext{
		data:      d,
		regions:   map[string]bool{"Menu": true, "Tower": true, "Cave": true},
		locations: map[string]bool{},
	}
	call := func(args ...any) any { return builtinHelpers["CanAcquireAtLeast"](ctx, args) }

	assert.Equal(t, false, call(7, "Crystal"))
	assert.Equal(t, false, call(1, "Crystal"))
	assert.Equal(t, true, call(0, "Crystal"))

	ctx.locations["Tower Boss"] = true
	assert.Equal(t, true, call(1, "Crystal"))
	assert.Equal(t, false, call(2, "Crystal"))
	assert.Equal(t, call(2, "Crystal"), call("Crystal", 2), "both orders agree")

	ctx.locations["Cave Boss"] = true
	assert.Equal(t, true, call(2, "Crystal"))
	assert.Equal(t, false, call(7, "Crystal"))
}

// The game-specific boss table goes through the same helper as the built-in.
func TestCanAcquire_DefaultBossTable(t *testing.T) {
	d := world.NewBuilder("test").
		Region("Menu").Exit("Palace", nil).
		Region("Palace").Location("Palace Boss", nil).Reward("Pendant", "").
		Done().MustBuild()
	ctx := &fakeContext{
		data:      d,
		regions:   map[string]bool{"Menu": true, "Palace": true},
		locations: map[string]bool{},
	}
	table := map[string]string{"Palace": "Palace Boss"}

	assert.Equal(t, true, CanAcquire(nil)(ctx, []any{"Pendant"}))
	assert.Equal(t, false, CanAcquire(table)(ctx, []any{"Pendant"}))
	assert.Equal(t, false, CanAcquireAtLeast(table)(ctx, []any{1, "Pendant"}))

	ctx.locations["Palace Boss"] = true
	assert.Equal(t, true, CanAcquire(table)(ctx, []any{"Pendant"}))
	assert.Equal(t, true, CanAcquireAtLeast(table)(ctx, []any{1, "Pendant"}))
}
