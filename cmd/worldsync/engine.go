package main

import (
	"context"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mxkacsa/worldsync"
	"github.com/mxkacsa/worldsync/eval"
	"github.com/mxkacsa/worldsync/games"
	"github.com/mxkacsa/worldsync/internal/config"
	"github.com/mxkacsa/worldsync/internal/metrics"
	"github.com/mxkacsa/worldsync/parse"
	"github.com/mxkacsa/worldsync/plugin"
	"github.com/mxkacsa/worldsync/solver"
	"github.com/mxkacsa/worldsync/state"
)

// engine wires the registry, loader, solver and store for one process.
type engine struct {
	registry *plugin.Registry
	loader   *parse.Loader
	solver   *solver.Solver
	store    *worldsync.Store
	recorder *worldsync.TriggerRecorder
	gatherer *prometheus.Registry
}

func newEngine(cfg config.Config, log zerolog.Logger) *engine {
	reg := plugin.NewRegistry()
	games.Register(reg)
	reg.Seal()

	gatherer := prometheus.NewRegistry()
	gatherer.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(gatherer)

	sv := solver.New(
		eval.New(reg, eval.WithLogger(log), eval.WithMetrics(m)),
		solver.WithLogger(log),
		solver.WithMetrics(m),
	)

	e := &engine{
		registry: reg,
		solver:   sv,
		gatherer: gatherer,
		loader: parse.NewLoader(reg,
			parse.WithLogger(log),
			parse.WithStrictHelpers(cfg.StrictHelpers),
			parse.WithStartRegions(cfg.StartRegions...),
		),
	}
	opts := []worldsync.Option{
		worldsync.WithLogger(log),
		worldsync.WithMetrics(m),
		worldsync.WithTimeout(cfg.SolveTimeout),
	}
	if cfg.RecordTriggers {
		e.recorder = worldsync.NewTriggerRecorder()
		opts = append(opts, worldsync.WithRecorder(e.recorder))
	}
	e.store = worldsync.New(sv, opts...)
	return e
}

// load reads path and publishes it. The store keeps its inventory across
// reloads.
func (e *engine) load(ctx context.Context, path string) (*state.Snapshot, error) {
	data, err := e.loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return e.store.LoadWorld(ctx, data)
}

// =============================================================================
// State files
// =============================================================================

// stateDoc is the YAML form of tracker inputs:
//
//	inventory:
//	  Progressive Sword: 2
//	  Hookshot: 1
//	checked:
//	  - Link's Uncle
type stateDoc struct {
	Inventory map[string]int `yaml:"inventory"`
	Checked   []string       `yaml:"checked"`
}

func readStateFile(path string) (stateDoc, error) {
	var doc stateDoc
	if path == "" {
		return doc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return doc, eris.Wrapf(err, "read state file %s", path)
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return doc, eris.Wrapf(err, "parse state file %s", path)
	}
	for item, n := range doc.Inventory {
		if n < 0 {
			return doc, eris.Errorf("state file %s: negative count %d for %q", path, n, item)
		}
	}
	return doc, nil
}

func (d stateDoc) inputs() state.Inputs {
	return state.NewInputs(d.Inventory, d.Checked)
}

// apply feeds d into the store as individual triggers, in name order.
func (d stateDoc) apply(ctx context.Context, s *worldsync.Store) error {
	items := make([]string, 0, len(d.Inventory))
	for item := range d.Inventory {
		items = append(items, item)
	}
	sort.Strings(items)
	for _, item := range items {
		if _, err := s.SetItemCount(ctx, item, d.Inventory[item]); err != nil {
			return err
		}
	}
	for _, loc := range d.Checked {
		if _, err := s.CheckLocation(ctx, loc); err != nil {
			return err
		}
	}
	return nil
}
