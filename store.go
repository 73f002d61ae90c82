// Package worldsync tracks a randomized game world: given the static world
// data, the player's inventory and the checked locations it publishes
// immutable snapshots of which regions are reachable and which locations
// are accessible.
//
// A Store is the single writer. Triggers (LoadWorld, SetItemCount,
// CheckLocation, ...) run the solver synchronously and publish the result
// with one atomic pointer swap, so readers never block and never see a
// partially computed snapshot.
package worldsync

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mxkacsa/worldsync/eval"
	"github.com/mxkacsa/worldsync/internal/metrics"
	"github.com/mxkacsa/worldsync/solver"
	"github.com/mxkacsa/worldsync/state"
	"github.com/mxkacsa/worldsync/world"
)

// ErrNoWorld is returned by triggers applied before LoadWorld.
var ErrNoWorld = eris.New("no world loaded")

// Option configures a Store.
type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithTimeout bounds each recompute. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithRecorder records every applied trigger into r.
func WithRecorder(r *TriggerRecorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Store) { s.tracer = t }
}

// published pairs a snapshot with the world it was solved against so the
// two are always read together.
type published struct {
	data *world.Data
	snap *state.Snapshot
}

// Store holds the current snapshot.
type Store struct {
	solver   *solver.Solver
	log      zerolog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	timeout  time.Duration
	recorder *TriggerRecorder

	mu      sync.Mutex // serialises triggers
	version uint64
	current atomic.Pointer[published]

	subMu   sync.RWMutex
	subs    map[int]func(Update)
	nextSub int
}

// New creates an empty store solving with sv.
func New(sv *solver.Solver, opts ...Option) *Store {
	s := &Store{
		solver: sv,
		log:    zerolog.Nop(),
		tracer: otel.Tracer("github.com/mxkacsa/worldsync"),
		subs:   make(map[int]func(Update)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&published{snap: state.Empty()})
	return s
}

// =============================================================================
// Pull accessors
// =============================================================================

// Latest returns the most recently published snapshot. It never blocks.
func (s *Store) Latest() *state.Snapshot { return s.current.Load().snap }

// StaticData returns the loaded world, or nil before LoadWorld.
func (s *Store) StaticData() *world.Data { return s.current.Load().data }

// View returns an evaluation context over the latest snapshot for ad hoc
// rule evaluation. It returns nil before LoadWorld.
func (s *Store) View() *eval.View {
	p := s.current.Load()
	if p.data == nil {
		return nil
	}
	return eval.Bind(s.solver.Evaluator(), p.data, p.snap)
}

// Subscribe registers fn to be called after every publish, in publish
// order. fn runs on the triggering goroutine and must not call back into
// the store's triggers. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Update)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// =============================================================================
// Triggers
// =============================================================================

// LoadWorld switches to data and recomputes. The current inventory and
// checked locations are kept.
func (s *Store) LoadWorld(ctx context.Context, data *world.Data) (*state.Snapshot, error) {
	if data == nil {
		return nil, eris.New("load nil world")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	in := s.current.Load().snap.Inputs()
	return s.apply(ctx, data, in, TriggerRecord{Kind: TriggerLoadWorld, Game: data.Game, LoadID: data.LoadID})
}

// SetItemCount sets the count of item to n. n <= 0 removes it.
func (s *Store) SetItemCount(ctx context.Context, item string, n int) (*state.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.current.Load()
	if p.data == nil {
		return nil, ErrNoWorld
	}
	n = max(n, 0)
	in := p.snap.Inputs().WithCount(item, n)
	return s.apply(ctx, p.data, in, TriggerRecord{Kind: TriggerSetItemCount, Item: item, Count: n})
}

// AddItem adds delta to the count of item. The count never drops below 0.
func (s *Store) AddItem(ctx context.Context, item string, delta int) (*state.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.current.Load()
	if p.data == nil {
		return nil, ErrNoWorld
	}
	n := max(p.snap.Count(item)+delta, 0)
	in := p.snap.Inputs().WithCount(item, n)
	return s.apply(ctx, p.data, in, TriggerRecord{Kind: TriggerSetItemCount, Item: item, Count: n})
}

// CheckLocation marks location checked.
func (s *Store) CheckLocation(ctx context.Context, location string) (*state.Snapshot, error) {
	return s.setChecked(ctx, location, true)
}

// UncheckLocation undoes CheckLocation.
func (s *Store) UncheckLocation(ctx context.Context, location string) (*state.Snapshot, error) {
	return s.setChecked(ctx, location, false)
}

func (s *Store) setChecked(ctx context.Context, location string, checked bool) (*state.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.current.Load()
	if p.data == nil {
		return nil, ErrNoWorld
	}
	if _, ok := p.data.Location(location); !ok {
		s.log.Debug().Str("location", location).Msg("checking a location the world does not define")
	}
	kind := TriggerCheckLocation
	if !checked {
		kind = TriggerUncheckLocation
	}
	in := p.snap.Inputs().WithChecked(location, checked)
	return s.apply(ctx, p.data, in, TriggerRecord{Kind: kind, Location: location})
}

// apply solves in against data and publishes the result. On error the
// previous snapshot stays current. Callers hold s.mu.
func (s *Store) apply(ctx context.Context, data *world.Data, in state.Inputs, rec TriggerRecord) (*state.Snapshot, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, "store."+string(rec.Kind), trace.WithAttributes(
		attribute.String("game", data.Game),
	))
	defer span.End()

	res, err := s.solver.Solve(ctx, data, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "solve failed")
		s.metrics.Trigger(string(rec.Kind), "error")
		s.log.Error().Err(err).Str("trigger", string(rec.Kind)).Msg("recompute failed, keeping previous snapshot")
		return nil, eris.Wrapf(err, "%s", rec.Kind)
	}

	prev := s.current.Load().snap
	s.version++
	next := state.New(s.version, data.LoadID, in, res)
	s.current.Store(&published{data: data, snap: next})

	s.metrics.SnapshotPublished()
	s.metrics.Trigger(string(rec.Kind), "ok")
	span.SetAttributes(attribute.Int64("version", int64(next.Version())))

	if s.recorder != nil {
		rec.Seq = next.Version()
		rec.Timestamp = time.Now()
		s.recorder.Record(rec)
	}

	changes := Diff(prev, next)
	s.log.Debug().
		Str("trigger", string(rec.Kind)).
		Uint64("version", next.Version()).
		Int("passes", next.Passes()).
		Int("changes", changes.Len()).
		Msg("snapshot published")

	s.notify(Update{Trigger: rec.Kind, Prev: prev, Next: next, Changes: changes})
	return next, nil
}

func (s *Store) notify(u Update) {
	s.subMu.RLock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Update), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(u)
	}
}
