// Package config loads the understory.toml configuration and sets up the
// process logger.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"fortio.org/safecast"
)

// Config is the understory.toml document.
type Config struct {
	// Workers is the analysis worker pool size. Zero means one per CPU.
	Workers int64 `toml:"workers"`

	// QueueCapacity bounds the incremental dispatch queue. Zero keeps the
	// engine default.
	QueueCapacity int64 `toml:"queue_capacity"`

	// RulesDir holds the *.risor rule scripts.
	RulesDir string `toml:"rules_dir"`

	// DBPath is the profile database. Defaults next to the config file.
	DBPath string `toml:"db_path"`

	Log LogConfig `toml:"log"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		RulesDir: "rules",
		DBPath:   ".understory/profile.db",
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads and validates a config file. A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate(path string) error {
	// Both counts feed int parameters downstream; reject negatives and
	// values that do not fit.
	if _, err := safecast.Conv[uint16](c.Workers); err != nil {
		return fmt.Errorf("%s: workers %d out of range: %w", path, c.Workers, err)
	}
	if _, err := safecast.Conv[uint16](c.QueueCapacity); err != nil {
		return fmt.Errorf("%s: queue_capacity %d out of range: %w", path, c.QueueCapacity, err)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s: unknown log level %q", path, c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%s: unknown log format %q", path, c.Log.Format)
	}
	return nil
}
