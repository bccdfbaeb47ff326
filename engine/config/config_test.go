package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "renderer.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, StrategyForward, c.PipelineStrategy)
	assert.Equal(t, 16, c.MaxDynamicLightsPerDraw)
	assert.Equal(t, 1024, c.InstancingCap)
}

func TestLoadMergesDefaults(t *testing.T) {
	path := writeConfig(t, `
max_dynamic_lights_per_draw = 8
lod_distance_thresholds = [10.0, 50.0, 200.0]
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StrategyForward, c.PipelineStrategy, "unset strategy falls back to the default")
	assert.Equal(t, 8, c.MaxDynamicLightsPerDraw)
	assert.Equal(t, 1024, c.InstancingCap)
	assert.Equal(t, []float32{10, 50, 200}, c.LODDistanceThresholds)
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
pipeline_strategy = "deferred"
max_dynamic_lights_per_draw = 256
instancing_cap = 512
cull_workers = 4
profiling = true
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StrategyDeferred, c.PipelineStrategy)
	assert.Equal(t, 256, c.MaxDynamicLightsPerDraw)
	assert.Equal(t, 512, c.InstancingCap)
	assert.Equal(t, 4, c.CullWorkers)
	assert.True(t, c.Profiling)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, `pipeline_strategy = "raytraced"`)
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(c *Config) {}, true},
		{"deferred", func(c *Config) { c.PipelineStrategy = StrategyDeferred }, true},
		{"unknown strategy", func(c *Config) { c.PipelineStrategy = "hybrid" }, false},
		{"empty strategy", func(c *Config) { c.PipelineStrategy = "" }, false},
		{"negative lights", func(c *Config) { c.MaxDynamicLightsPerDraw = -1 }, false},
		{"negative cap", func(c *Config) { c.InstancingCap = -1 }, false},
		{"negative workers", func(c *Config) { c.CullWorkers = -1 }, false},
		{"ascending thresholds", func(c *Config) { c.LODDistanceThresholds = []float32{10, 50, 200} }, true},
		{"descending thresholds", func(c *Config) { c.LODDistanceThresholds = []float32{50, 10} }, false},
		{"equal thresholds", func(c *Config) { c.LODDistanceThresholds = []float32{10, 10} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}
