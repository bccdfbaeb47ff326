package engine

import (
	"github.com/Carmen-Shannon/prism-go/engine/batch"
	"github.com/Carmen-Shannon/prism-go/engine/config"
	"github.com/Carmen-Shannon/prism-go/engine/cull"
	"github.com/Carmen-Shannon/prism-go/engine/layer"
	"github.com/Carmen-Shannon/prism-go/engine/light"
	"github.com/Carmen-Shannon/prism-go/engine/pipeline"
	"github.com/Carmen-Shannon/prism-go/engine/profiler"
	"github.com/Carmen-Shannon/prism-go/engine/renderable"
	"github.com/Carmen-Shannon/prism-go/engine/renderer"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engineImpl)

// WithConfig applies a renderer configuration. Stages not explicitly supplied
// through other options are constructed from it.
//
// Parameters:
//   - cfg: the configuration (validated during NewEngine)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engineImpl) {
		e.cfg = cfg
	}
}

// WithStrategy sets the pipeline strategy. Required for deferred rendering,
// whose binding-layer resources the configuration cannot carry.
//
// Parameters:
//   - s: the strategy to dispatch layers through
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStrategy(s pipeline.Strategy) EngineBuilderOption {
	return func(e *engineImpl) {
		e.strategy = s
	}
}

// WithLayerRegistry supplies a pre-populated layer registry.
//
// Parameters:
//   - r: the layer registry
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLayerRegistry(r layer.Registry) EngineBuilderOption {
	return func(e *engineImpl) {
		e.layers = r
	}
}

// WithRenderableRegistry supplies a pre-populated renderable registry.
//
// Parameters:
//   - r: the renderable registry
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderableRegistry(r renderable.Registry) EngineBuilderOption {
	return func(e *engineImpl) {
		e.renderables = r
	}
}

// WithCuller replaces the default culling stage.
//
// Parameters:
//   - c: the culler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCuller(c cull.Culler) EngineBuilderOption {
	return func(e *engineImpl) {
		e.culler = c
	}
}

// WithBatcher replaces the default batching/LOD stage.
//
// Parameters:
//   - b: the draw list builder
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBatcher(b batch.Builder) EngineBuilderOption {
	return func(e *engineImpl) {
		e.batcher = b
	}
}

// WithLightAggregator replaces the default lighting aggregator.
//
// Parameters:
//   - a: the aggregator
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLightAggregator(a light.Aggregator) EngineBuilderOption {
	return func(e *engineImpl) {
		e.lights = a
	}
}

// WithMaterialService replaces the default cache-backed material service.
// When set, MaterialCache returns nil.
//
// Parameters:
//   - s: the material service
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaterialService(s renderer.MaterialService) EngineBuilderOption {
	return func(e *engineImpl) {
		e.materials = s
	}
}

// WithTechniqueRegistry replaces the default technique registry.
//
// Parameters:
//   - r: the technique registry
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTechniqueRegistry(r *pipeline.TechniqueRegistry) EngineBuilderOption {
	return func(e *engineImpl) {
		e.techniques = r
	}
}

// WithProfiler supplies a profiler, overriding the one the Profiling config
// flag would construct.
//
// Parameters:
//   - p: the profiler consuming frame reports
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engineImpl) {
		e.prof = p
	}
}
