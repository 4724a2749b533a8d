package purfectest

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds harness timing and buffer tuning. Values are plain data;
// each harness takes its own copy at construction.
type Config struct {
	// PollInterval is the sleep between WaitFor condition checks.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"50ms"`
	// DefaultTimeout bounds WaitForText and the other convenience waits.
	DefaultTimeout time.Duration `envconfig:"DEFAULT_TIMEOUT" default:"5s"`
	// SpawnTimeout bounds process launch.
	SpawnTimeout time.Duration `envconfig:"SPAWN_TIMEOUT" default:"5s"`
	// BufferSize is the PTY read chunk size.
	BufferSize int `envconfig:"BUFFER_SIZE" default:"4096"`
	// CellWidthPx and CellHeightPx set the pixel-per-cell ratio used to
	// size graphics regions in cells.
	CellWidthPx  int `envconfig:"CELL_WIDTH_PX" default:"8"`
	CellHeightPx int `envconfig:"CELL_HEIGHT_PX" default:"6"`
}

// DefaultConfig returns the built-in tuning values.
func DefaultConfig() Config {
	return Config{
		PollInterval:   50 * time.Millisecond,
		DefaultTimeout: 5 * time.Second,
		SpawnTimeout:   5 * time.Second,
		BufferSize:     4096,
		CellWidthPx:    8,
		CellHeightPx:   6,
	}
}

// ConfigFromEnv loads tuning from PURFECTEST_* environment variables,
// falling back to the defaults for unset values.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("purfectest", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) ratio() PixelRatio {
	r := PixelRatio{CellWidthPx: c.CellWidthPx, CellHeightPx: c.CellHeightPx}
	if r.CellWidthPx <= 0 {
		r.CellWidthPx = 8
	}
	if r.CellHeightPx <= 0 {
		r.CellHeightPx = 6
	}
	return r
}
