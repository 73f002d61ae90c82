package eval

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/mxkacsa/worldsync/ast"
	"github.com/mxkacsa/worldsync/plugin"
	"github.com/mxkacsa/worldsync/state"
	"github.com/mxkacsa/worldsync/world"
)

type regionSet map[string]bool

func (r regionSet) IsRegionReachable(region string) bool { return r[region] }

func testWorld() *world.Data {
	return world.NewBuilder("test").
		Progressive("ProgressiveGlove", "PowerGlove", "TitansMitt").
		Pickups("ProgressiveGlove", "Glove").
		Setting("mode", "open").
		Region("Menu").Exit("Cave", ast.Item("Lamp")).
		Region("Cave").
		LocationWithItem("Cave Chest", "Bow", nil).
		Event("Cave Boss", "Beat Cave Boss", nil).
		Done().
		MustBuild()
}

func newTestView(t *testing.T, reg *plugin.Registry, inv map[string]int) (*View, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	ev := New(reg, WithLogger(zerolog.New(&buf)))
	v := NewView(ev, testWorld(), Frame{
		Inputs:  state.NewInputs(inv, nil),
		Regions: regionSet{"Menu": true},
	})
	return v, &buf
}

func TestEvaluate_Basics(t *testing.T) {
	v, _ := newTestView(t, plugin.NewRegistry(), map[string]int{"Lamp": 1, "Key": 2})

	tests := []struct {
		name string
		rule *ast.Rule
		want any
	}{
		{"nil rule", nil, true},
		{"constant", ast.Const(7), 7},
		{"item present", ast.Item("Lamp"), true},
		{"item absent", ast.Item("Hammer"), false},
		{"empty and", ast.And(), true},
		{"empty or", ast.Or(), false},
		{"not", ast.Not(ast.Item("Lamp")), false},
		{"not without child", ast.Not(nil), true},
		{"region check", ast.RegionCheck("Menu"), true},
		{"unknown region", ast.RegionCheck("Nowhere"), false},
		{"add", ast.BinaryOp("+", ast.Const(2), ast.Const(3)), 5},
		{"integer division", ast.BinaryOp("/", ast.Const(7), ast.Const(2)), 3},
		{"division by zero", ast.BinaryOp("/", ast.Const(7), ast.Const(0)), 0},
		{"modulo by zero", ast.BinaryOp("%", ast.Const(7), ast.Const(0)), 0},
		{"arith over counts", ast.BinaryOp("*", ast.Item("Key"), ast.Const(3)), 6},
		{"conditional true", ast.Conditional(ast.True(), ast.Const(1), ast.Const(2)), 1},
		{"conditional false", ast.Conditional(ast.False(), ast.Const(1), ast.Const(2)), 2},
		{"conditional missing if_true", ast.Conditional(ast.True(), nil, nil), true},
		{"conditional missing if_false", ast.Conditional(ast.False(), nil, nil), false},
		{"compare strings", ast.Compare("==", ast.Helper("setting", "mode"), ast.Const("open")), true},
		{"compare mixed", ast.Compare("!=", ast.Const("a"), ast.Const(1)), true},
		{"unknown helper", ast.Helper("no_such_helper"), false},
		{"function call", ast.Call("state.has", "Lamp"), true},
		{"unknown type", &ast.Rule{Type: "lambda"}, false},
		{"compare bad op", &ast.Rule{Type: ast.TypeCompare, Op: "<>", Left: ast.Const(1), Right: ast.Const(1)}, false},
		{"compare missing operand", &ast.Rule{Type: ast.TypeCompare, Op: ">="}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Evaluate(tt.rule))
		})
	}
}

func TestEvaluate_CompareAgainstCount(t *testing.T) {
	rule := ast.Compare(">=", ast.Item("KeyGT"), ast.Const(3))

	v, _ := newTestView(t, plugin.NewRegistry(), map[string]int{"KeyGT": 2})
	if v.Bool(rule) {
		t.Error("expected false with 2 keys")
	}
	v, _ = newTestView(t, plugin.NewRegistry(), map[string]int{"KeyGT": 3})
	if !v.Bool(rule) {
		t.Error("expected true with 3 keys")
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	calls := 0
	reg := plugin.NewRegistry()
	reg.MustRegister(&plugin.Plugin{
		Game: "test",
		Helpers: map[string]plugin.HelperFunc{
			"boom": func(plugin.Context, []any) any {
				calls++
				panic("must not be evaluated")
			},
		},
	})
	v, _ := newTestView(t, reg, nil)

	if v.Bool(ast.And(ast.False(), ast.Helper("boom"))) {
		t.Error("and with a false child should be false")
	}
	if !v.Bool(ast.Or(ast.True(), ast.Helper("boom"))) {
		t.Error("or with a true child should be true")
	}
	if calls != 0 {
		t.Errorf("expected the second child never to run, got %d calls", calls)
	}
}

func TestEvaluate_HelperPanicRecovered(t *testing.T) {
	reg := plugin.NewRegistry()
	reg.MustRegister(&plugin.Plugin{
		Game: "test",
		Helpers: map[string]plugin.HelperFunc{
			"explode": func(plugin.Context, []any) any { panic("bad table") },
		},
	})
	v, buf := newTestView(t, reg, map[string]int{"Lamp": 1})

	assert.Equal(t, false, v.Evaluate(ast.Helper("explode")))
	assert.True(t, v.Bool(ast.Or(ast.Helper("explode"), ast.Item("Lamp"))),
		"a failing helper must only affect its own node")
	assert.Contains(t, buf.String(), "helper panicked")
}

func TestEvaluate_MalformedIsLogged(t *testing.T) {
	v, buf := newTestView(t, plugin.NewRegistry(), nil)

	v.Evaluate(&ast.Rule{Type: ast.TypeItemCheck})
	v.Evaluate(ast.Helper("mystery"))

	out := buf.String()
	assert.Contains(t, out, "item_check without item")
	assert.Contains(t, out, "unknown helper")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestEvaluate_PrefixResolution(t *testing.T) {
	reg := plugin.NewRegistry()
	reg.MustRegister(&plugin.Plugin{
		Game:     "test",
		Prefixes: []string{"terran_"},
		Helpers: map[string]plugin.HelperFunc{
			"terran_power_rating": func(plugin.Context, []any) any { return 4 },
		},
	})
	v, _ := newTestView(t, reg, nil)

	assert.Equal(t, 4, v.Evaluate(ast.Helper("power_rating")))
	assert.Equal(t, true, v.Evaluate(ast.Compare(">=", ast.Helper("power_rating"), ast.Const(3))))
}

func TestView_ProgressiveCount(t *testing.T) {
	tests := []struct {
		name  string
		inv   map[string]int
		item  string
		count int
	}{
		{"base direct", map[string]int{"ProgressiveGlove": 1}, "ProgressiveGlove", 1},
		{"pickups feed base", map[string]int{"Glove": 2}, "ProgressiveGlove", 2},
		{"pickup name resolves to base", map[string]int{"ProgressiveGlove": 1, "Glove": 1}, "Glove", 2},
		{"tier 1 reached", map[string]int{"ProgressiveGlove": 1}, "PowerGlove", 1},
		{"tier 2 not reached", map[string]int{"ProgressiveGlove": 1}, "TitansMitt", 0},
		{"tier 2 from pickups", map[string]int{"Glove": 2}, "TitansMitt", 1},
		{"tier held directly", map[string]int{"TitansMitt": 1}, "TitansMitt", 1},
		{"unmapped item", map[string]int{"Bow": 3}, "Bow", 3},
		{"missing item", nil, "Hammer", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newTestView(t, plugin.NewRegistry(), tt.inv)
			assert.Equal(t, tt.count, v.Count(tt.item))
		})
	}
}

func TestView_EventsCountAsOne(t *testing.T) {
	ev := New(plugin.NewRegistry())
	v := NewView(ev, testWorld(), Frame{
		Events:  map[string]struct{}{"Beat Cave Boss": {}},
		Regions: regionSet{},
	})
	assert.True(t, v.Has("Beat Cave Boss"))
	assert.Equal(t, 1, v.Count("Beat Cave Boss"))
}

func TestView_WrapAppliedOnce(t *testing.T) {
	wraps := 0
	reg := plugin.NewRegistry()
	reg.MustRegister(&plugin.Plugin{
		Game: "test",
		Wrap: func(ctx plugin.Context) map[string]any {
			wraps++
			return map[string]any{"rating": ctx.Count("Lamp") * 2}
		},
		Helpers: map[string]plugin.HelperFunc{
			"rating": func(ctx plugin.Context, _ []any) any {
				r, _ := ctx.Derived("rating")
				return r
			},
		},
	})
	v, _ := newTestView(t, reg, map[string]int{"Lamp": 1})

	for i := 0; i < 3; i++ {
		assert.Equal(t, 2, v.Evaluate(ast.Helper("rating")))
	}
	assert.Equal(t, 1, wraps)
}

func TestView_LocationAccessAndItem(t *testing.T) {
	ev := New(plugin.NewRegistry())
	v := NewView(ev, testWorld(), Frame{
		Regions:   regionSet{"Menu": true, "Cave": true},
		Locations: map[string]bool{"Cave Chest": false},
	})

	assert.False(t, v.IsLocationAccessible("Cave Chest"), "map entries win over the fallback")
	assert.True(t, v.IsLocationAccessible("Cave Boss"), "unmapped location falls back to its rule")
	assert.False(t, v.IsLocationAccessible("Nowhere"))

	item, ok := v.LocationItem("Cave Chest")
	assert.True(t, ok)
	assert.Equal(t, "Bow", item)
}

func TestView_CircularGuard(t *testing.T) {
	reg := plugin.NewRegistry()
	reg.MustRegister(&plugin.Plugin{
		Game: "loop",
		Helpers: map[string]plugin.HelperFunc{
			"boss_done": func(ctx plugin.Context, args []any) any {
				return ctx.IsLocationAccessible(plugin.String(plugin.Arg(args, 0)))
			},
		},
	})
	d := world.NewBuilder("loop").
		Region("Menu").Exit("East", nil).Exit("West", nil).
		Region("East").Location("East Boss", ast.Helper("boss_done", "West Boss")).
		Region("West").Location("West Boss", ast.Helper("boss_done", "East Boss")).
		Done().MustBuild()

	v := NewView(New(reg), d, Frame{Regions: regionSet{"Menu": true, "East": true, "West": true}})

	assert.False(t, v.IsLocationAccessible("East Boss"))
	assert.False(t, v.IsLocationAccessible("West Boss"))
}

// Without a location map every boss resolves the others through the fallback.
// Each boss rule runs at most once per top-level lookup.
func TestView_FallbackMemoized(t *testing.T) {
	const n = 10
	calls := 0
	gate := plugin.CanAcquireAtLeast(nil)
	reg := plugin.NewRegistry()
	reg.MustRegister(&plugin.Plugin{
		Game: "bosses",
		Helpers: map[string]plugin.HelperFunc{
			"boss_gate": func(ctx plugin.Context, args []any) any {
				calls++
				return gate(ctx, args)
			},
		},
	})

	b := world.NewBuilder("bosses")
	regions := regionSet{"Menu": true}
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("D%d", i)
		regions[name] = true
		b.Region(name).Location(name+" Boss", ast.Helper("boss_gate", "Crystal", n-1)).Reward("Crystal", name+" Boss")
	}
	d := b.Region("Menu").Done().MustBuild()
	v := NewView(New(reg), d, Frame{Regions: regions})

	assert.False(t, v.IsLocationAccessible("D1 Boss"))
	assert.LessOrEqual(t, calls, n)

	calls = 0
	assert.False(t, v.IsLocationAccessible("D1 Boss"))
	assert.LessOrEqual(t, calls, n, "the memo is per lookup, so a second lookup costs the same")
}
