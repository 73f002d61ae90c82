package solver

import (
	"context"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxkacsa/worldsync/ast"
	"github.com/mxkacsa/worldsync/eval"
	"github.com/mxkacsa/worldsync/plugin"
	"github.com/mxkacsa/worldsync/state"
	"github.com/mxkacsa/worldsync/world"
)

// countingSolver registers game "bosses" whose boss_gate helper counts its
// calls before deferring to the built-in can_acquire_at_least.
func countingSolver(t *testing.T) (*Solver, *int) {
	t.Helper()
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
	return New(eval.New(reg)), &calls
}

// bossWorld builds Menu -> D1..Dn. Each Di rewards a Crystal for beating
// "Di Boss", whose rule is rule(i).
func bossWorld(game string, n int, rule func(i int) *ast.Rule) *world.Data {
	b := world.NewBuilder(game)
	menu := b.Region("Menu")
	for i := 1; i <= n; i++ {
		menu.Exit(fmt.Sprintf("D%d", i), nil)
	}
	for i := 1; i <= n; i++ {
		boss := fmt.Sprintf("D%d Boss", i)
		b.Region(fmt.Sprintf("D%d", i)).Location(boss, rule(i)).Reward("Crystal", boss)
	}
	return b.MustBuild()
}

// Every boss reads every other boss. Resolving that through chains of
// fallbacks grew factorially with the number of bosses; each boss rule must
// now run a bounded number of times per solve.
func TestSolve_MutualBossesEvaluateLinearly(t *testing.T) {
	const n = 10
	s, calls := countingSolver(t)
	d := bossWorld("bosses", n, func(int) *ast.Rule { return ast.Helper("boss_gate", "Crystal", n) })

	snap := solve(t, s, d, nil)
	assert.LessOrEqual(t, *calls, 2*n, "boss rules evaluated %d times", *calls)
	for i := 1; i <= n; i++ {
		acc, known := snap.IsLocationAccessible(fmt.Sprintf("D%d Boss", i))
		assert.True(t, known)
		assert.False(t, acc, "no boss can be beaten before all of them are")
	}
}

// Boss i needs the i-1 bosses before it. The sweep reads the crystals already
// settled in the same pass, so each rule runs once.
func TestSolve_OrderedBossesSettleInOneSweep(t *testing.T) {
	const n = 10
	s, calls := countingSolver(t)
	d := bossWorld("bosses", n, func(i int) *ast.Rule { return ast.Helper("boss_gate", "Crystal", i-1) })

	snap := solve(t, s, d, nil)
	assert.Equal(t, n, *calls)
	for i := 1; i <= n; i++ {
		acc, _ := snap.IsLocationAccessible(fmt.Sprintf("D%d Boss", i))
		assert.True(t, acc, "D%d Boss", i)
	}
	assert.Equal(t, 2, snap.Passes(), "location settling does not cost passes")
}

// Listed in reverse, the same chain needs one sweep per boss but still
// settles every boss.
func TestSolve_ReversedBossesStillSettle(t *testing.T) {
	const n = 6
	s, calls := countingSolver(t)
	d := bossWorld("bosses", n, func(i int) *ast.Rule { return ast.Helper("boss_gate", "Crystal", n-i) })

	snap := solve(t, s, d, nil)
	assert.LessOrEqual(t, *calls, n*(n+1)/2)
	for i := 1; i <= n; i++ {
		acc, _ := snap.IsLocationAccessible(fmt.Sprintf("D%d Boss", i))
		assert.True(t, acc, "D%d Boss", i)
	}
}

func TestSolve_BuiltinMutualBosses(t *testing.T) {
	const n = 10
	d := bossWorld("test", n, func(int) *ast.Rule { return ast.Helper("can_acquire_at_least", "Crystal", n) })

	snap := solve(t, newSolver(), d, nil)
	assert.Len(t, snap.ReachableRegions(), n+1)
	assert.Empty(t, snap.AccessibleLocations())
}

// An exit gated on a reward count sees the bosses settled in the same frame.
func TestSolve_AmountFirstRewardGate(t *testing.T) {
	d := world.NewBuilder("test").
		Region("Menu").Exit("Tower", nil).
		Exit("Ganon", ast.Call("state.CanAcquireAtLeast", 7, "Crystal")).
		Exit("Pyramid", ast.Call("state.CanAcquireAtLeast", 1, "Crystal")).
		Region("Tower").Location("Tower Boss", ast.Item("Bow")).Reward("Crystal", "Tower Boss").
		Region("Ganon").
		Region("Pyramid").
		Done().MustBuild()
	s := newSolver()

	snap := solve(t, s, d, nil)
	assert.False(t, snap.IsRegionReachable("Ganon"), "no crystals must not open a seven crystal gate")
	assert.False(t, snap.IsRegionReachable("Pyramid"))

	snap = solve(t, s, d, map[string]int{"Bow": 1})
	assert.False(t, snap.IsRegionReachable("Ganon"))
	assert.True(t, snap.IsRegionReachable("Pyramid"))
}

// A context that expires between sweeps stops the solve. The first boss
// opens and cancels, so a second sweep is needed.
func TestSolve_CancelledWhileSettling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	reg := plugin.NewRegistry()
	reg.MustRegister(&plugin.Plugin{
		Game: "bosses",
		Helpers: map[string]plugin.HelperFunc{
			"boss_gate": func(plugin.Context, []any) any {
				calls++
				cancel()
				return calls == 1
			},
		},
	})
	d := bossWorld("bosses", 3, func(int) *ast.Rule { return ast.Helper("boss_gate") })

	_, err := New(eval.New(reg)).Solve(ctx, d, state.Inputs{})
	require.Error(t, err)
	assert.True(t, eris.Is(eris.Cause(err), context.Canceled), "expected cancellation, got %v", err)
	assert.Equal(t, 3, calls, "the solve stops before a second sweep")
}
