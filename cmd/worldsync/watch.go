package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mxkacsa/worldsync"
)

const defaultDebounce = 200 * time.Millisecond

// worldWatcher reloads a rules file into the store whenever it changes.
// Bursts of events within the debounce window cause one reload. A file
// that fails to load is logged and the previous world stays published.
type worldWatcher struct {
	path     string
	engine   *engine
	log      zerolog.Logger
	debounce time.Duration
}

func newWorldWatcher(path string, e *engine, log zerolog.Logger) *worldWatcher {
	return &worldWatcher{path: filepath.Clean(path), engine: e, log: log, debounce: defaultDebounce}
}

// Run blocks until ctx is done. The parent directory is watched rather
// than the file so editors that save by rename keep working.
func (w *worldWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return eris.Wrapf(err, "watch %s", filepath.Dir(w.path))
	}
	w.log.Info().Str("path", w.path).Msg("watching rules file")

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")
		case <-fire:
			fire = nil
			w.reload(ctx)
		}
	}
}

func (w *worldWatcher) reload(ctx context.Context) {
	snap, err := w.engine.load(ctx, w.path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("reload failed, keeping previous world")
		return
	}
	w.log.Info().Str("path", w.path).Uint64("version", snap.Version()).Msg("rules file reloaded")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := newEngine(cfg, logger)
	out := cmd.OutOrStdout()
	unsubscribe := e.store.Subscribe(func(u worldsync.Update) {
		fmt.Fprint(out, renderChanges(u))
	})
	defer unsubscribe()

	if _, err := e.load(ctx, args[0]); err != nil {
		return err
	}
	doc, err := readStateFile(stateFile)
	if err != nil {
		return err
	}
	if err := doc.apply(ctx, e.store); err != nil {
		return err
	}
	return newWorldWatcher(args[0], e, logger).Run(ctx)
}
