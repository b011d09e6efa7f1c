// Package config loads the TOML settings of the simulation tools.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Stress     StressConfig     `toml:"stress"`
	Spawners   SpawnersConfig   `toml:"spawners"`
	Inspect    InspectConfig    `toml:"inspect"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Logging    LoggingConfig    `toml:"logging"`
	Profile    ProfileConfig    `toml:"profile"`
}

type SimulationConfig struct {
	TimeScale float32       `toml:"time_scale"`
	FrameTime time.Duration `toml:"frame_time"` // 0 runs frames back to back
}

type StressConfig struct {
	Duration       time.Duration `toml:"duration"`
	Entities       int           `toml:"entities"`
	Workers        int           `toml:"workers"`
	MaxComponents  int           `toml:"max_components"` // largest template spawned, counted in components
	KillRate       float64       `toml:"kill_rate"`      // share of entities respawned per frame (0.0-1.0)
	MessagesPerRun int           `toml:"messages_per_run"`
}

type SpawnersConfig struct {
	File string `toml:"file"` // YAML spawner document, empty uses the built-in set
}

type InspectConfig struct {
	Enabled     bool   `toml:"enabled"`
	RenderEvery uint64 `toml:"render_every"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
	Namespace   string `toml:"namespace"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu", "mem", "block", "mutex" or "trace"
	Path string `toml:"path"`
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Simulation.TimeScale < 0:
		return fmt.Errorf("simulation.time_scale must not be negative")
	case c.Stress.Entities < 0:
		return fmt.Errorf("stress.entities must not be negative")
	case c.Stress.Workers < 1:
		return fmt.Errorf("stress.workers must be at least 1")
	case c.Stress.MaxComponents < 1:
		return fmt.Errorf("stress.max_components must be at least 1")
	case c.Stress.KillRate < 0 || c.Stress.KillRate > 1:
		return fmt.Errorf("stress.kill_rate must be between 0 and 1")
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem", "block", "mutex", "trace":
	default:
		return fmt.Errorf("profile.mode %q is not supported", c.Profile.Mode)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q is not supported", c.Logging.Format)
	}
	return nil
}

// Defaults returns the settings used when no file is given.
func Defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TimeScale: 1,
		},
		Stress: StressConfig{
			Duration:       10 * time.Second,
			Entities:       10000,
			Workers:        4,
			MaxComponents:  5,
			KillRate:       0.01,
			MessagesPerRun: 16,
		},
		Inspect: InspectConfig{
			RenderEvery: 600,
		},
		Metrics: MetricsConfig{
			BindAddress: "127.0.0.1:2112",
			Namespace:   "simcore",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}
