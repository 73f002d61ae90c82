// Package solver computes region reachability and location accessibility
// by fixpoint iteration over the region graph.
package solver

import (
	"context"
	"time"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mxkacsa/worldsync/eval"
	"github.com/mxkacsa/worldsync/internal/metrics"
	"github.com/mxkacsa/worldsync/state"
	"github.com/mxkacsa/worldsync/world"
)

// ErrFixpointExceeded means the pass bound was exceeded without reaching a
// fixpoint. The reachable set only grows, so this is a programming error,
// not a recoverable rule error.
var ErrFixpointExceeded = eris.New("reachability fixpoint not reached within pass bound")

// Option configures a Solver.
type Option func(*Solver)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Solver) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Solver) { s.metrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Solver) { s.tracer = t }
}

// Solver is stateless between calls and safe for concurrent use.
type Solver struct {
	ev      *eval.Evaluator
	log     zerolog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	// maxPasses overrides the computed pass bound when positive.
	maxPasses int
}

// New creates a solver evaluating rules with ev.
func New(ev *eval.Evaluator, opts ...Option) *Solver {
	s := &Solver{
		ev:     ev,
		log:    zerolog.Nop(),
		tracer: otel.Tracer("github.com/mxkacsa/worldsync/solver"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluator returns the evaluator the solver uses.
func (s *Solver) Evaluator() *eval.Evaluator { return s.ev }

// Bound is the maximum number of passes a solve of data may take: one per
// region plus one per event location.
func Bound(data *world.Data) int {
	n := data.NumRegions() + data.NumEvents()
	if n < 1 {
		return 1
	}
	return n
}

// Solve runs the region fixpoint, settling every location along the way.
// Identical inputs always produce identical maps.
func (s *Solver) Solve(ctx context.Context, data *world.Data, in state.Inputs) (*state.Result, error) {
	if data == nil {
		return nil, eris.New("solve without world data")
	}

	ctx, span := s.tracer.Start(ctx, "solver.Solve", trace.WithAttributes(
		attribute.String("game", data.Game),
		attribute.Int("regions", data.NumRegions()),
	))
	defer span.End()
	start := time.Now()

	fp, err := s.fixpoint(ctx, data, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.SolveFault()
		s.log.Error().Err(err).Str("game", data.Game).Int("passes", fp.passes).Msg("solve failed")
		return nil, err
	}

	res := collect(data, in, fp)
	res.Passes = fp.passes

	span.SetAttributes(attribute.Int("passes", fp.passes), attribute.Int("reachable", fp.reached.Count()))
	s.metrics.ObserveSolve(time.Since(start), fp.passes)
	s.log.Debug().
		Str("game", data.Game).
		Int("passes", fp.passes).
		Int("reachable", fp.reached.Count()).
		Int("events", len(fp.events)).
		Dur("took", time.Since(start)).
		Msg("solve complete")
	return res, nil
}

// fixpointState is what the last pass of a solve leaves behind.
type fixpointState struct {
	reached bitmap.Bitmap
	events  map[string]struct{}
	access  map[string]bool
	passes  int
}

// fixpoint grows the reached set and the event set until a pass adds
// nothing. Each pass reads only the state at the start of the pass: the
// locations of that frame are settled first, then exits and events are
// evaluated against the settled frame.
func (s *Solver) fixpoint(ctx context.Context, data *world.Data, in state.Inputs) (fixpointState, error) {
	fp := fixpointState{
		events: make(map[string]struct{}),
		access: make(map[string]bool, len(data.Locations())),
	}
	for _, name := range data.StartRegions() {
		if i, ok := data.RegionIndex(name); ok {
			fp.reached.Set(uint32(i))
		}
	}

	bound := Bound(data)
	if s.maxPasses > 0 {
		bound = s.maxPasses
	}

	for {
		fp.passes++
		if fp.passes > bound {
			fp.passes--
			return fp, eris.Wrapf(ErrFixpointExceeded, "%d passes over %d regions and %d events",
				bound, data.NumRegions(), data.NumEvents())
		}
		if err := ctx.Err(); err != nil {
			fp.passes--
			return fp, eris.Wrap(err, "solve interrupted")
		}

		frame := fp.reached.Clone(nil)
		frameEvents := cloneSet(fp.events)
		view := eval.NewView(s.ev, data, eval.Frame{
			Inputs:    in,
			Events:    frameEvents,
			Regions:   regionSet{data: data, bits: frame},
			Locations: fp.access,
		})
		if err := s.settle(ctx, data, frame, frameEvents, fp.access, view); err != nil {
			return fp, err
		}

		changed := false
		for _, region := range data.Regions() {
			if !frame.Contains(uint32(region.Index)) {
				continue
			}
			for _, exit := range region.Exits {
				target, ok := data.RegionIndex(exit.Target)
				if !ok || fp.reached.Contains(uint32(target)) {
					continue
				}
				if s.ev.Bool(exit.Rule, view) {
					fp.reached.Set(uint32(target))
					changed = true
				}
			}
			for _, loc := range region.Locations {
				name, ok := eventName(loc)
				if !ok {
					continue
				}
				if _, done := fp.events[name]; done {
					continue
				}
				if s.ev.Bool(loc.Rule, view) {
					fp.events[name] = struct{}{}
					changed = true
				}
			}
		}
		if !changed {
			return fp, nil
		}
	}
}

// settle fills access for the frame. Every location starts the pass
// inaccessible; event locations take their value from the frame's events and
// the rest are swept in world order, each sweep re-evaluating only the
// locations still inaccessible, until a sweep flips nothing. A rule that
// reads another location sees the value the sweep has reached so far, so
// the frame never falls back to chain resolution.
func (s *Solver) settle(ctx context.Context, data *world.Data, frame bitmap.Bitmap, events map[string]struct{}, access map[string]bool, view *eval.View) error {
	var pending []*world.Location
	for _, loc := range data.Locations() {
		access[loc.Name] = false
		if name, ok := eventName(loc); ok {
			_, access[loc.Name] = events[name]
			continue
		}
		if i, ok := data.RegionIndex(loc.Region); ok && frame.Contains(uint32(i)) {
			pending = append(pending, loc)
		}
	}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "solve interrupted")
		}
		remaining := pending[:0]
		for _, loc := range pending {
			if s.ev.Bool(loc.Rule, view) {
				access[loc.Name] = true
			} else {
				remaining = append(remaining, loc)
			}
		}
		if len(remaining) == len(pending) {
			return nil
		}
		pending = remaining
	}
	return nil
}

// collect derives region status from the final pass. Locations outside the
// reached set are already inaccessible.
func collect(data *world.Data, in state.Inputs, fp fixpointState) *state.Result {
	status := make(map[string]state.Status, data.NumRegions())
	for _, region := range data.Regions() {
		if !fp.reached.Contains(uint32(region.Index)) {
			status[region.Name] = state.Unreachable
			continue
		}

		manual, checked := 0, 0
		for _, loc := range region.Locations {
			if _, ok := eventName(loc); ok {
				continue
			}
			manual++
			if in.IsChecked(loc.Name) {
				checked++
			}
		}

		if manual > 0 && manual == checked {
			status[region.Name] = state.Checked
		} else {
			status[region.Name] = state.Reachable
		}
	}

	return &state.Result{Regions: status, Locations: fp.access, Events: fp.events}
}

// eventName returns the event an event location triggers. Event locations
// without a placed item trigger an event named after the location.
func eventName(loc *world.Location) (string, bool) {
	if !loc.IsEvent() {
		return "", false
	}
	if loc.Item != nil && loc.Item.Name != "" {
		return loc.Item.Name, true
	}
	return loc.Name, true
}

// regionSet adapts a bitmap of region indices to eval.Reachability.
type regionSet struct {
	data *world.Data
	bits bitmap.Bitmap
}

func (r regionSet) IsRegionReachable(region string) bool {
	i, ok := r.data.RegionIndex(region)
	return ok && r.bits.Contains(uint32(i))
}

func cloneSet(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
