// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/mxkacsa/worldsync/internal/config"
)

// New returns a logger writing to stderr as configured.
func New(cfg config.Config) (zerolog.Logger, error) {
	return NewWriter(os.Stderr, cfg)
}

// NewWriter returns a logger writing to w.
func NewWriter(w io.Writer, cfg config.Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), eris.Wrapf(err, "log level %q", cfg.LogLevel)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.LogFormat == config.FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
