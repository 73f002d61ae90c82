// Package config reads process configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
)

// Log formats
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config is the host configuration. Command-line flags override it.
type Config struct {
	LogLevel       string        `env:"WORLDSYNC_LOG_LEVEL"      envDefault:"info"`
	LogFormat      string        `env:"WORLDSYNC_LOG_FORMAT"     envDefault:"console"`
	SolveTimeout   time.Duration `env:"WORLDSYNC_SOLVE_TIMEOUT"  envDefault:"2s"`
	StartRegions   []string      `env:"WORLDSYNC_START_REGIONS"  envDefault:"Menu" envSeparator:","`
	HTTPAddr       string        `env:"WORLDSYNC_HTTP_ADDR"      envDefault:":8080"`
	RecordTriggers bool          `env:"WORLDSYNC_RECORD_TRIGGERS"`
	// StrictHelpers turns unknown helper names into load errors.
	StrictHelpers bool `env:"WORLDSYNC_STRICT_HELPERS"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, eris.Wrap(err, "parse env")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the env tags cannot express.
func (c Config) Validate() error {
	switch c.LogFormat {
	case FormatConsole, FormatJSON:
	default:
		return eris.Errorf("WORLDSYNC_LOG_FORMAT must be %q or %q, got %q", FormatConsole, FormatJSON, c.LogFormat)
	}
	if c.SolveTimeout < 0 {
		return eris.Errorf("WORLDSYNC_SOLVE_TIMEOUT must not be negative, got %s", c.SolveTimeout)
	}
	return nil
}
