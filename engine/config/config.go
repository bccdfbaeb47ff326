// Package config holds the renderer configuration surface: the recognized
// options callers tune once at setup time, loadable from a TOML file.
package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/Carmen-Shannon/prism-go/common"
)

// Strategy names accepted by PipelineStrategy.
const (
	StrategyForward  = "forward"
	StrategyDeferred = "deferred"
)

// ErrInvalidConfig is the configuration-error sentinel. Validation failures
// wrap it; they are fatal at setup and never silently ignored.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the renderer configuration. The zero value is not usable; start
// from Default and override.
type Config struct {
	// PipelineStrategy selects the shading strategy, chosen once per renderer
	// configuration: StrategyForward or StrategyDeferred.
	PipelineStrategy string `toml:"pipeline_strategy"`

	// MaxDynamicLightsPerDraw caps the dynamic light list per draw call.
	// Deferred pipelines tolerate much larger values than forward pipelines.
	// 0 leaves the list uncapped.
	MaxDynamicLightsPerDraw int `toml:"max_dynamic_lights_per_draw"`

	// InstancingCap is the hardware-imposed maximum instance count per draw
	// submission; larger groups are split, never rejected. 0 = uncapped.
	InstancingCap int `toml:"instancing_cap"`

	// LODDistanceThresholds are the level-of-detail distances, near-to-far.
	LODDistanceThresholds []float32 `toml:"lod_distance_thresholds"`

	// CullWorkers is the worker count for parallel culling. 1 forces serial
	// culling; 0 picks a default from the CPU count.
	CullWorkers int `toml:"cull_workers"`

	// Profiling enables per-frame timing summaries in the log.
	Profiling bool `toml:"profiling"`
}

// Default returns the baseline configuration: forward shading, 16 dynamic
// lights per draw, a 1024-instance cap, and no LOD thresholds.
//
// Returns:
//   - Config: the baseline configuration
func Default() Config {
	return Config{
		PipelineStrategy:        StrategyForward,
		MaxDynamicLightsPerDraw: 16,
		InstancingCap:           1024,
	}
}

// Load reads a TOML configuration file, fills unset scalar fields from
// Default, and validates the result.
//
// Parameters:
//   - path: the TOML file path
//
// Returns:
//   - Config: the merged, validated configuration
//   - error: a read/parse error, or a validation failure wrapping ErrInvalidConfig
func Load(path string) (Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	def := Default()
	c.PipelineStrategy = common.Coalesce(c.PipelineStrategy, def.PipelineStrategy)
	c.MaxDynamicLightsPerDraw = common.Coalesce(c.MaxDynamicLightsPerDraw, def.MaxDynamicLightsPerDraw)
	c.InstancingCap = common.Coalesce(c.InstancingCap, def.InstancingCap)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration for setup-time errors.
//
// Returns:
//   - error: a failure wrapping ErrInvalidConfig, or nil
func (c Config) Validate() error {
	switch c.PipelineStrategy {
	case StrategyForward, StrategyDeferred:
	default:
		return fmt.Errorf("%w: unknown pipeline strategy %q", ErrInvalidConfig, c.PipelineStrategy)
	}
	if c.MaxDynamicLightsPerDraw < 0 {
		return fmt.Errorf("%w: max_dynamic_lights_per_draw must be >= 0", ErrInvalidConfig)
	}
	if c.InstancingCap < 0 {
		return fmt.Errorf("%w: instancing_cap must be >= 0", ErrInvalidConfig)
	}
	if c.CullWorkers < 0 {
		return fmt.Errorf("%w: cull_workers must be >= 0", ErrInvalidConfig)
	}
	for i := 1; i < len(c.LODDistanceThresholds); i++ {
		if c.LODDistanceThresholds[i] <= c.LODDistanceThresholds[i-1] {
			return fmt.Errorf("%w: lod_distance_thresholds must be strictly ascending", ErrInvalidConfig)
		}
	}
	return nil
}
