package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/batch"
	"github.com/Carmen-Shannon/prism-go/engine/camera"
	"github.com/Carmen-Shannon/prism-go/engine/config"
	"github.com/Carmen-Shannon/prism-go/engine/cull"
	"github.com/Carmen-Shannon/prism-go/engine/layer"
	"github.com/Carmen-Shannon/prism-go/engine/light"
	"github.com/Carmen-Shannon/prism-go/engine/material"
	"github.com/Carmen-Shannon/prism-go/engine/pipeline"
	"github.com/Carmen-Shannon/prism-go/engine/profiler"
	"github.com/Carmen-Shannon/prism-go/engine/renderable"
	"github.com/Carmen-Shannon/prism-go/engine/renderer"
)

// FrameState is the orchestrator's position in its per-frame state machine.
// The machine is cyclic: Idle -> ClearingBuffers -> PerLayer (repeated per
// enabled layer in order) -> PostProcessing -> Idle. There are no terminal
// states and no suspension within a frame.
type FrameState int32

const (
	// StateIdle means no frame is in flight.
	StateIdle FrameState = iota

	// StateClearingBuffers means the frame has started and targets are being cleared.
	StateClearingBuffers

	// StatePerLayer means layers are being culled, lit, batched, and dispatched.
	StatePerLayer

	// StatePostProcessing means all layers are done and composition is running.
	StatePostProcessing
)

// String returns the state's name for logging.
func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClearingBuffers:
		return "clearing"
	case StatePerLayer:
		return "per-layer"
	case StatePostProcessing:
		return "post-processing"
	default:
		return "unknown"
	}
}

// ErrNilCamera is returned by RenderFrame when no camera is supplied. This is
// caller misuse, not frame degradation, so it surfaces as an error.
var ErrNilCamera = errors.New("engine: RenderFrame requires a camera")

// engineImpl is the implementation of the Engine interface.
type engineImpl struct {
	cfg config.Config

	layers      layer.Registry
	renderables renderable.Registry
	culler      cull.Culler
	batcher     batch.Builder
	lights      light.Aggregator

	backend   renderer.Backend
	shaders   renderer.ShaderService
	materials renderer.MaterialService
	matCache  material.Cache // non-nil only when the default cache-backed service is in use

	techniques *pipeline.TechniqueRegistry
	strategy   pipeline.Strategy

	prof *profiler.Profiler

	state atomic.Int32
	frame atomic.Uint64

	techMu    sync.Mutex
	techCache map[common.TechniqueID]pipeline.Technique

	reportMu   sync.RWMutex
	lastReport profiler.FrameReport
}

// Engine is the frame orchestrator: the single renderFrame entry point plus
// access to the registries scene-authoring code mutates between frames. A
// single rendering goroutine drives the state machine to completion once per
// frame; registries may be mutated concurrently from other goroutines and are
// read through consistent snapshots.
type Engine interface {
	// Layers returns the layer registry.
	//
	// Returns:
	//   - layer.Registry: the layer registry
	Layers() layer.Registry

	// Renderables returns the renderable registry.
	//
	// Returns:
	//   - renderable.Registry: the renderable registry
	Renderables() renderable.Registry

	// Lights returns the lighting aggregator.
	//
	// Returns:
	//   - light.Aggregator: the lighting aggregator
	Lights() light.Aggregator

	// MaterialCache returns the engine-owned material cache, or nil when a
	// custom MaterialService was supplied at construction.
	//
	// Returns:
	//   - material.Cache: the cache or nil
	MaterialCache() material.Cache

	// Techniques returns the technique registry used to resolve material
	// technique identities to shaders.
	//
	// Returns:
	//   - *pipeline.TechniqueRegistry: the technique registry
	Techniques() *pipeline.TechniqueRegistry

	// Strategy returns the active pipeline strategy, selected once at
	// construction.
	//
	// Returns:
	//   - pipeline.Strategy: the active strategy
	Strategy() pipeline.Strategy

	// State returns the orchestrator's current frame state.
	//
	// Returns:
	//   - FrameState: the current state
	State() FrameState

	// Report returns the previous frame's report.
	//
	// Returns:
	//   - profiler.FrameReport: the last completed frame's report
	Report() profiler.FrameReport

	// RenderFrame renders one frame with the given camera: clear, then per
	// enabled layer in registry order cull -> light -> batch -> dispatch,
	// then post-process composition and present. Per-layer failures degrade
	// the frame (the layer is skipped and logged) and never fail the call;
	// only caller misuse returns an error.
	//
	// Parameters:
	//   - cam: the frame camera (layers may override with their own)
	//
	// Returns:
	//   - error: ErrNilCamera when cam is nil
	RenderFrame(cam camera.Camera) error
}

// Ensure engineImpl implements Engine interface.
var _ Engine = &engineImpl{}

// NewEngine creates the frame orchestrator. The backend and shader service
// are required; everything else defaults from the configuration.
//
// Parameters:
//   - backend: the graphics binding layer
//   - shaders: the shader-compilation service
//   - options: functional options for config, registries, stages, and strategy
//
// Returns:
//   - Engine: the newly created engine
//   - error: a configuration error (invalid config, missing strategy resources)
func NewEngine(backend renderer.Backend, shaders renderer.ShaderService, options ...EngineBuilderOption) (Engine, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: NewEngine requires a non-nil Backend", config.ErrInvalidConfig)
	}
	if shaders == nil {
		return nil, fmt.Errorf("%w: NewEngine requires a non-nil ShaderService", config.ErrInvalidConfig)
	}

	e := &engineImpl{
		cfg:       config.Default(),
		backend:   backend,
		shaders:   shaders,
		techCache: make(map[common.TechniqueID]pipeline.Technique),
	}
	for _, option := range options {
		option(e)
	}

	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	if e.layers == nil {
		e.layers = layer.NewRegistry()
	}
	if e.renderables == nil {
		e.renderables = renderable.NewRegistry()
	}
	if e.culler == nil {
		cullOpts := []cull.CullerBuilderOption{}
		if e.cfg.CullWorkers > 0 {
			cullOpts = append(cullOpts, cull.WithWorkers(e.cfg.CullWorkers))
		}
		e.culler = cull.NewCuller(cullOpts...)
	}
	if e.batcher == nil {
		e.batcher = batch.NewBuilder(
			batch.WithLODThresholds(e.cfg.LODDistanceThresholds),
			batch.WithInstancingCap(e.cfg.InstancingCap),
		)
	}
	if e.lights == nil {
		e.lights = light.NewAggregator(light.WithMaxPerDraw(e.cfg.MaxDynamicLightsPerDraw))
	}
	if e.materials == nil {
		e.matCache = material.NewCache()
		e.materials = renderer.CacheMaterialService{Cache: e.matCache}
	}
	if e.techniques == nil {
		e.techniques = pipeline.NewTechniqueRegistry()
	}
	if e.strategy == nil {
		if e.cfg.PipelineStrategy == config.StrategyDeferred {
			// Deferred needs binding-layer resources (G-buffer, lighting
			// shader, quad mesh) the config file cannot carry.
			return nil, fmt.Errorf("%w: deferred strategy requires WithStrategy(pipeline.NewDeferred(...))", config.ErrInvalidConfig)
		}
		e.strategy = pipeline.NewForward(backend)
	}
	if e.cfg.Profiling && e.prof == nil {
		e.prof = profiler.NewProfiler(profiler.WithLoggerProvider(Logger))
	}

	Logger().Info("engine configured",
		"strategy", e.strategy.Name(),
		"max_lights_per_draw", e.cfg.MaxDynamicLightsPerDraw,
		"instancing_cap", e.cfg.InstancingCap,
		"lod_thresholds", e.cfg.LODDistanceThresholds,
	)
	return e, nil
}

func (e *engineImpl) Layers() layer.Registry            { return e.layers }
func (e *engineImpl) Renderables() renderable.Registry  { return e.renderables }
func (e *engineImpl) Lights() light.Aggregator          { return e.lights }
func (e *engineImpl) MaterialCache() material.Cache     { return e.matCache }
func (e *engineImpl) Techniques() *pipeline.TechniqueRegistry {
	return e.techniques
}
func (e *engineImpl) Strategy() pipeline.Strategy { return e.strategy }

func (e *engineImpl) State() FrameState {
	return FrameState(e.state.Load())
}

func (e *engineImpl) Report() profiler.FrameReport {
	e.reportMu.RLock()
	defer e.reportMu.RUnlock()
	return e.lastReport
}

func (e *engineImpl) RenderFrame(cam camera.Camera) error {
	if cam == nil {
		return ErrNilCamera
	}

	start := time.Now()
	report := profiler.FrameReport{Frame: e.frame.Add(1)}

	e.state.Store(int32(StateClearingBuffers))
	defer e.state.Store(int32(StateIdle))

	if err := e.backend.ClearTarget(common.DefaultTarget); err != nil {
		Logger().Warn("clearing default target failed", "error", err)
	}

	// Layer order and registry contents are captured once here; mutations
	// during the frame cannot reorder layers or tear renderable state.
	order := e.layers.Order()
	snapshot := e.renderables.Snapshot()

	e.state.Store(int32(StatePerLayer))
	var overrides []common.TargetID
	for _, id := range order {
		if !e.layers.IsEnabled(id) {
			continue
		}
		name := e.layers.Name(id)
		layerCam := e.layers.Camera(id)
		if layerCam == nil {
			layerCam = cam
		}
		frustum := layerCam.Frustum()
		camPos := layerCam.Position()

		candidates := filterByLayer(snapshot, e.layers.MaskOf(id))
		report.Candidates += len(candidates)

		t0 := time.Now()
		visible := e.culler.Cull(frustum, candidates)
		report.CullTime += time.Since(t0)
		report.Visible += len(visible)

		t0 = time.Now()
		static, dynamic := e.lights.ActiveLights(id, frustum, camPos)
		report.LightTime += time.Since(t0)

		t0 = time.Now()
		list := e.batcher.BuildDrawList(visible, camPos, e.shaderResolver(id, name))
		report.BatchTime += time.Since(t0)
		report.SkippedRenderables += list.Skipped

		target := e.layers.Target(id)
		t0 = time.Now()
		if target != common.DefaultTarget {
			if err := e.backend.ClearTarget(target); err != nil {
				Logger().Warn("layer skipped", "layer", name, "error", err)
				report.LayersSkipped++
				report.DispatchTime += time.Since(t0)
				continue
			}
		}
		err := e.strategy.Consume(pipeline.FrameContext{
			Layer:     id,
			LayerName: name,
			Target:    target,
			Static:    static,
		}, list, dynamic)
		report.DispatchTime += time.Since(t0)
		if err != nil {
			Logger().Warn("layer skipped", "layer", name, "error", err)
			report.LayersSkipped++
			continue
		}

		report.LayersDrawn++
		report.DrawCalls += len(list.Groups)
		report.Instances += list.InstanceCount()
		if target != common.DefaultTarget {
			overrides = append(overrides, target)
		}
	}

	e.state.Store(int32(StatePostProcessing))
	if err := e.strategy.Composite(overrides); err != nil {
		Logger().Warn("post-process composition failed", "error", err)
	}
	if err := e.backend.Present(); err != nil {
		Logger().Warn("present failed", "error", err)
	}

	report.Total = time.Since(start)
	e.reportMu.Lock()
	e.lastReport = report
	e.reportMu.Unlock()
	if e.prof != nil {
		e.prof.Observe(report)
	}
	return nil
}

// shaderResolver builds the per-layer resolver handed to the batcher. Results
// (including failures) are cached per technique for the duration of the layer
// so a missing shader logs once, not once per renderable.
func (e *engineImpl) shaderResolver(id layer.ID, layerName string) batch.ShaderResolver {
	type resolved struct {
		shader common.ShaderID
		err    error
	}
	cache := make(map[common.TechniqueID]resolved)

	return func(mid common.MaterialID) (common.ShaderID, error) {
		props, err := e.materials.ResolveMaterial(mid)
		if err != nil {
			Logger().Warn("material resolution failed", "layer", layerName, "material", uint64(mid), "error", err)
			return 0, err
		}
		hint := props.Technique
		if hint == "" {
			hint = common.TechniqueFlat
		}
		if r, ok := cache[hint]; ok {
			return r.shader, r.err
		}

		shader, err := e.resolveTechnique(hint, id)
		cache[hint] = resolved{shader: shader, err: err}
		if err != nil {
			Logger().Warn("shader resolution failed", "layer", layerName, "technique", string(hint), "error", err)
		}
		return shader, err
	}
}

// resolveTechnique constructs (once) and resolves the technique behind a hint.
func (e *engineImpl) resolveTechnique(hint common.TechniqueID, id layer.ID) (common.ShaderID, error) {
	e.techMu.Lock()
	tech, ok := e.techCache[hint]
	if !ok {
		var err error
		tech, err = e.techniques.New(hint, e.shaders)
		if err != nil {
			e.techMu.Unlock()
			return 0, err
		}
		e.techCache[hint] = tech
	}
	e.techMu.Unlock()
	return tech.Resolve(id)
}

// filterByLayer returns the snapshot items whose layer mask overlaps mask,
// preserving snapshot order.
func filterByLayer(items []renderable.Item, mask layer.Mask) []renderable.Item {
	out := make([]renderable.Item, 0, len(items))
	for i := range items {
		if items[i].Layers.Overlaps(mask) {
			out = append(out, items[i])
		}
	}
	return out
}
