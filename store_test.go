package worldsync

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mxkacsa/worldsync/ast"
	"github.com/mxkacsa/worldsync/eval"
	"github.com/mxkacsa/worldsync/plugin"
	"github.com/mxkacsa/worldsync/solver"
	"github.com/mxkacsa/worldsync/state"
	"github.com/mxkacsa/worldsync/world"
)

// caveWorld: Menu -> Cave needs Key; the lookout sees into the cave.
func caveWorld() *world.Data {
	return world.NewBuilder("test").
		Region("Menu").
		Exit("Cave", ast.Item("Key")).
		Location("Lookout", ast.RegionCheck("Cave")).
		Region("Cave").
		Location("Cave Chest", nil).
		Done().MustBuild()
}

func newStore(opts ...Option) *Store {
	reg := plugin.NewRegistry()
	reg.Seal()
	return New(solver.New(eval.New(reg)), opts...)
}

func TestStore_Empty(t *testing.T) {
	s := newStore()

	assert.Equal(t, uint64(0), s.Latest().Version())
	assert.Nil(t, s.StaticData())
	assert.Nil(t, s.View())

	_, err := s.SetItemCount(context.Background(), "Key", 1)
	assert.True(t, eris.Is(err, ErrNoWorld))
	_, err = s.CheckLocation(context.Background(), "Lookout")
	assert.True(t, eris.Is(err, ErrNoWorld))
}

func TestStore_RegionGate(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	first, err := s.LoadWorld(ctx, caveWorld())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Version())
	assert.False(t, first.IsRegionReachable("Cave"))
	accessible, known := first.IsLocationAccessible("Lookout")
	assert.True(t, known)
	assert.False(t, accessible)

	second, err := s.SetItemCount(ctx, "Key", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.Version())
	assert.True(t, second.IsRegionReachable("Cave"))
	accessible, _ = second.IsLocationAccessible("Lookout")
	assert.True(t, accessible, "region_check flips without touching the location")

	assert.Same(t, second, s.Latest())
	assert.False(t, first.IsRegionReachable("Cave"), "published snapshots never change")

	third, err := s.CheckLocation(ctx, "Cave Chest")
	require.NoError(t, err)
	assert.Equal(t, state.Checked, third.RegionStatus("Cave"))

	fourth, err := s.UncheckLocation(ctx, "Cave Chest")
	require.NoError(t, err)
	assert.Equal(t, state.Reachable, fourth.RegionStatus("Cave"))
}

func TestStore_AddItemClamps(t *testing.T) {
	ctx := context.Background()
	rec := NewTriggerRecorder()
	s := newStore(WithRecorder(rec))
	_, err := s.LoadWorld(ctx, caveWorld())
	require.NoError(t, err)

	snap, err := s.AddItem(ctx, "Key", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Count("Key"))

	snap, err = s.AddItem(ctx, "Key", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Count("Key"))
	assert.NotContains(t, snap.Inventory(), "Key")

	records := rec.Records()
	require.Len(t, records, 3)
	assert.Equal(t, TriggerRecord{Seq: 2, Kind: TriggerSetItemCount, Item: "Key", Count: 2}, withoutTime(records[1]))
	assert.Equal(t, TriggerRecord{Seq: 3, Kind: TriggerSetItemCount, Item: "Key", Count: 0}, withoutTime(records[2]))
}

func TestStore_LoadWorldKeepsInputs(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	_, err := s.LoadWorld(ctx, caveWorld())
	require.NoError(t, err)
	_, err = s.SetItemCount(ctx, "Key", 1)
	require.NoError(t, err)

	reloaded := caveWorld()
	snap, err := s.LoadWorld(ctx, reloaded)
	require.NoError(t, err)
	assert.Equal(t, reloaded.LoadID, snap.LoadID())
	assert.Same(t, reloaded, s.StaticData())
	assert.Equal(t, 1, snap.Count("Key"))
	assert.True(t, snap.IsRegionReachable("Cave"))
}

func TestStore_FailedSolveKeepsSnapshot(t *testing.T) {
	var buf bytes.Buffer
	s := newStore(WithLogger(zerolog.New(&buf)))
	before, err := s.LoadWorld(context.Background(), caveWorld())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SetItemCount(ctx, "Key", 1)
	require.Error(t, err)
	assert.True(t, eris.Is(eris.Cause(err), context.Canceled))

	assert.Same(t, before, s.Latest())
	assert.Contains(t, buf.String(), "keeping previous snapshot")

	next, err := s.SetItemCount(context.Background(), "Key", 1)
	require.NoError(t, err)
	assert.Equal(t, before.Version()+1, next.Version(), "failed triggers do not consume versions")
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	buf := NewUpdateBuffer(0)
	unsubscribe := s.Subscribe(buf.Add)

	_, err := s.LoadWorld(ctx, caveWorld())
	require.NoError(t, err)
	_, err = s.SetItemCount(ctx, "Key", 1)
	require.NoError(t, err)

	updates := buf.Drain()
	require.Len(t, updates, 2)
	assert.Equal(t, TriggerLoadWorld, updates[0].Trigger)
	assert.Equal(t, uint64(0), updates[0].Prev.Version())

	gate := updates[1]
	assert.Equal(t, TriggerSetItemCount, gate.Trigger)
	assert.Same(t, s.Latest(), gate.Next)
	assert.Equal(t, []string{"Cave"}, gate.Changes.NewlyReachable())
	assert.Equal(t, []string{"Cave Chest", "Lookout"}, gate.Changes.NewlyAccessible())
	assert.Equal(t, []ItemChange{{Item: "Key", Op: OpAdd, From: 0, To: 1}}, gate.Changes.Items)

	unsubscribe()
	_, err = s.CheckLocation(ctx, "Cave Chest")
	require.NoError(t, err)
	assert.False(t, buf.HasUpdates())
}

func TestStore_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	_, err := s.LoadWorld(ctx, caveWorld())
	require.NoError(t, err)

	var stop atomic.Bool
	t.Cleanup(func() { stop.Store(true) })
	var g errgroup.Group
	for range 4 {
		g.Go(func() error {
			for !stop.Load() {
				snap := s.Latest()
				// A reachable cave always comes with an accessible lookout.
				if accessible, _ := snap.IsLocationAccessible("Lookout"); accessible != snap.IsRegionReachable("Cave") {
					return eris.Errorf("torn snapshot at version %d", snap.Version())
				}
			}
			return nil
		})
	}
	for i := range 50 {
		_, err := s.SetItemCount(ctx, "Key", i%2)
		require.NoError(t, err)
	}
	stop.Store(true)
	require.NoError(t, g.Wait())
	assert.Equal(t, uint64(51), s.Latest().Version())
}

func TestStore_View(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	_, err := s.LoadWorld(ctx, caveWorld())
	require.NoError(t, err)
	_, err = s.SetItemCount(ctx, "Key", 3)
	require.NoError(t, err)

	v := s.View()
	require.NotNil(t, v)
	assert.True(t, v.Bool(ast.Compare(">=", ast.Item("Key"), ast.Const(3))))
	assert.True(t, v.Bool(ast.RegionCheck("Cave")))
}

func TestReplay_ReproducesSnapshot(t *testing.T) {
	ctx := context.Background()
	data := caveWorld()
	rec := NewTriggerRecorder()
	s := newStore(WithRecorder(rec))

	_, err := s.LoadWorld(ctx, data)
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "Key", 1)
	require.NoError(t, err)
	_, err = s.CheckLocation(ctx, "Cave Chest")
	require.NoError(t, err)
	_, err = s.CheckLocation(ctx, "Lookout")
	require.NoError(t, err)
	_, err = s.UncheckLocation(ctx, "Lookout")
	require.NoError(t, err)

	raw, err := MarshalRecords(rec.Records())
	require.NoError(t, err)
	records, err := UnmarshalRecords(raw)
	require.NoError(t, err)
	require.Len(t, records, 5)

	replayed := newStore()
	require.NoError(t, Replay(ctx, replayed, data, records))
	if diff := cmp.Diff(Document(s.Latest()), Document(replayed.Latest())); diff != "" {
		t.Errorf("replayed snapshot mismatch (-want +got):\n%s", diff)
	}

	partial := newStore()
	require.NoError(t, ReplayRange(ctx, partial, data, records, 1, 2))
	assert.Equal(t, uint64(2), partial.Latest().Version())
	assert.True(t, partial.Latest().IsRegionReachable("Cave"))
}

func TestReplay_Errors(t *testing.T) {
	ctx := context.Background()

	err := Replay(ctx, newStore(), nil, []TriggerRecord{{Seq: 1, Kind: TriggerLoadWorld}})
	assert.ErrorContains(t, err, "no world to load")

	err = Replay(ctx, newStore(), caveWorld(), []TriggerRecord{{Seq: 1, Kind: TriggerLoadWorld, Game: "alttp"}})
	assert.ErrorContains(t, err, "recorded game")

	err = Replay(ctx, newStore(), caveWorld(), []TriggerRecord{{Seq: 1, Kind: "teleport"}})
	assert.ErrorContains(t, err, "unknown trigger kind")
}

func TestTriggerRecorder(t *testing.T) {
	rec := NewTriggerRecorder()
	rec.Record(TriggerRecord{Seq: 1, Kind: TriggerCheckLocation, Location: "A"})
	rec.Record(TriggerRecord{Seq: 2, Kind: TriggerCheckLocation, Location: "B"})
	assert.Equal(t, 2, rec.Len())

	drained := rec.Drain()
	assert.Len(t, drained, 2)
	assert.Equal(t, 0, rec.Len())

	rec.Record(TriggerRecord{Seq: 3})
	rec.Clear()
	assert.Empty(t, rec.Records())
}

func withoutTime(r TriggerRecord) TriggerRecord {
	r.Timestamp = time.Time{}
	return r
}
