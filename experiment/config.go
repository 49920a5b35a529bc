package experiment

import (
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"

	"github.com/mlsuite/gorl/rl"
)

// Config holds the shared run parameters of a comparison.
type Config struct {
	Runs                int    `toml:"runs"`
	Episodes            int    `toml:"episodes"`
	Steps               int    `toml:"steps"`
	ActionRepetition    int    `toml:"action_repetition"`
	MaxRandomStartSteps int    `toml:"max_random_start_steps"`
	Verbose             int    `toml:"verbose"`
	Parallelism         int    `toml:"parallelism"`
	RecordPath          string `toml:"record_path"`
	RecordTraces        bool   `toml:"record_traces"`
}

func DefaultConfig() Config {
	return Config{
		Runs:             1,
		ActionRepetition: 1,
		Parallelism:      1,
	}
}

// LoadConfig reads a TOML config from the filesystem, applying defaults
// for omitted fields.
func LoadConfig(fsys fs.FS, path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFS(fsys, path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Runs < 1 {
		return fmt.Errorf("%w: runs must be >= 1, got %d", rl.ErrInvalidArgument, c.Runs)
	}
	if c.Episodes <= 0 && c.Steps <= 0 {
		return fmt.Errorf("%w: config needs an episode or step budget", rl.ErrInvalidArgument)
	}
	if c.ActionRepetition < 1 {
		return fmt.Errorf("%w: action repetition must be >= 1, got %d", rl.ErrInvalidArgument, c.ActionRepetition)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be >= 1, got %d", rl.ErrInvalidArgument, c.Parallelism)
	}
	if c.RecordTraces && c.RecordPath == "" {
		return fmt.Errorf("%w: recording traces needs a record path", rl.ErrInvalidArgument)
	}
	return nil
}
