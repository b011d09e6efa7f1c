package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plus3/simcore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := config.Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, float32(1), cfg.Simulation.TimeScale)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[simulation]
time_scale = 2.5
frame_time = "16ms"

[stress]
entities = 500
workers = 2

[metrics]
enabled = true

[logging]
format = "json"
level = "debug"
`))
	require.NoError(t, err)

	assert.Equal(t, float32(2.5), cfg.Simulation.TimeScale)
	assert.Equal(t, 16*time.Millisecond, cfg.Simulation.FrameTime)
	assert.Equal(t, 500, cfg.Stress.Entities)
	assert.Equal(t, 2, cfg.Stress.Workers)
	assert.Equal(t, 5, cfg.Stress.MaxComponents, "untouched keys keep their default")
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:2112", cfg.Metrics.BindAddress)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "[stress\nentities = 1"},
		{"unknown key", "[stress]\nentitys = 1"},
		{"no workers", "[stress]\nworkers = 0"},
		{"kill rate", "[stress]\nkill_rate = 1.5"},
		{"profile mode", "[profile]\nmode = \"gpu\""},
		{"log format", "[logging]\nformat = \"xml\""},
		{"negative time scale", "[simulation]\ntime_scale = -1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stress.toml")
	require.NoError(t, os.WriteFile(path, []byte("[spawners]\nfile = \"units.yaml\"\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "units.yaml", cfg.Spawners.File)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "read config")
}
