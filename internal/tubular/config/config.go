// Package config loads the YAML run configuration that governs tick
// limits and ambient sink wiring for a Tubular run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the run-level configuration loaded from a YAML file.
type Config struct {
	// TickLimit caps the number of ticks a run may execute; zero means
	// unbounded.
	TickLimit uint64 `yaml:"tick_limit"`

	Log     LogConfig     `yaml:"log"`
	Index   IndexConfig   `yaml:"index"`
	Observe ObserveConfig `yaml:"observe"`
}

// LogConfig configures the compressed tick log sink.
type LogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// IndexConfig configures the SQLite run index sink.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObserveConfig configures the live websocket tick broadcaster.
type ObserveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return Config{TickLimit: 1_000_000}
}

// Load reads and parses a YAML config file at path.
func Load(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}
