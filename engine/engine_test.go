package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/camera"
	"github.com/Carmen-Shannon/prism-go/engine/config"
	"github.com/Carmen-Shannon/prism-go/engine/layer"
	"github.com/Carmen-Shannon/prism-go/engine/material"
	"github.com/Carmen-Shannon/prism-go/engine/pipeline"
	"github.com/Carmen-Shannon/prism-go/engine/renderable"
	"github.com/Carmen-Shannon/prism-go/engine/renderer"
)

// mockShaderService resolves every technique under layer id to shader 100+id.
// Layers listed in fail resolve nothing.
type mockShaderService struct {
	fail map[layer.ID]bool
}

func (m *mockShaderService) ResolveShaderForLayer(id layer.ID, hint common.TechniqueID) (common.ShaderID, error) {
	if m.fail[id] {
		return 0, renderer.ErrShaderNotFound
	}
	return common.ShaderID(100 + uint64(id)), nil
}

// newTestEngine builds an engine on a recording backend with one flat material
// (id 1) pre-cached.
func newTestEngine(t *testing.T, options ...EngineBuilderOption) (Engine, *renderer.Recorder, *mockShaderService) {
	t.Helper()
	rec := renderer.NewRecorder()
	svc := &mockShaderService{fail: make(map[layer.ID]bool)}

	eng, err := NewEngine(rec, svc, options...)
	require.NoError(t, err)
	eng.MaterialCache().Store(1, material.Properties{Name: "flat", Technique: common.TechniqueFlat})
	return eng, rec, svc
}

func testCamera() camera.Camera {
	return camera.NewCamera(camera.WithPosition(0, 0, 5), camera.WithTarget(0, 0, -1))
}

// drawShaders returns the shader of every recorded draw, in order.
func drawShaders(ops []renderer.Op) []common.ShaderID {
	var out []common.ShaderID
	for _, op := range ops {
		if op.Kind == renderer.OpDraw {
			out = append(out, op.Key.Shader)
		}
	}
	return out
}

func TestNewEngineValidation(t *testing.T) {
	rec := renderer.NewRecorder()
	svc := &mockShaderService{}

	_, err := NewEngine(nil, svc)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = NewEngine(rec, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = NewEngine(rec, svc, WithConfig(config.Config{PipelineStrategy: "raytraced"}))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewEngineDeferredRequiresStrategy(t *testing.T) {
	rec := renderer.NewRecorder()
	svc := &mockShaderService{}

	cfg := config.Default()
	cfg.PipelineStrategy = config.StrategyDeferred

	_, err := NewEngine(rec, svc, WithConfig(cfg))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = NewEngine(rec, svc, WithConfig(cfg),
		WithStrategy(pipeline.NewDeferred(rec, 7, 50, 99)))
	assert.NoError(t, err)
}

func TestRenderFrameNilCamera(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	assert.ErrorIs(t, eng.RenderFrame(nil), ErrNilCamera)
}

func TestRenderFrameLayerOrdering(t *testing.T) {
	eng, rec, _ := newTestEngine(t)

	opaque, err := eng.Layers().Declare("opaque")
	require.NoError(t, err)
	ui, err := eng.Layers().Declare("ui")
	require.NoError(t, err)

	eng.Renderables().Register(renderable.NewDescriptor(1, 1,
		renderable.WithLayers(eng.Layers().MaskOf(opaque))))
	eng.Renderables().Register(renderable.NewDescriptor(2, 1,
		renderable.WithLayers(eng.Layers().MaskOf(ui))))

	require.NoError(t, eng.RenderFrame(testCamera()))

	ops := rec.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, renderer.OpClear, ops[0].Kind)
	assert.Equal(t, renderer.OpPresent, ops[len(ops)-1].Kind)
	assert.Equal(t, []common.ShaderID{100, 101}, drawShaders(ops), "opaque draws before ui")

	// Reordering takes effect on the next frame.
	require.NoError(t, eng.Layers().SetOrder([]layer.ID{ui, opaque}))
	rec.Reset()
	require.NoError(t, eng.RenderFrame(testCamera()))
	assert.Equal(t, []common.ShaderID{101, 100}, drawShaders(rec.Ops()))

	report := eng.Report()
	assert.Equal(t, 2, report.LayersDrawn)
	assert.Equal(t, 2, report.DrawCalls)
	assert.Equal(t, 2, report.Instances)
}

func TestRenderFrameMissingShader(t *testing.T) {
	eng, rec, svc := newTestEngine(t)

	opaque, _ := eng.Layers().Declare("opaque")
	broken, _ := eng.Layers().Declare("broken")
	svc.fail[broken] = true

	eng.Renderables().Register(renderable.NewDescriptor(1, 1,
		renderable.WithLayers(eng.Layers().MaskOf(opaque))))
	eng.Renderables().Register(renderable.NewDescriptor(2, 1,
		renderable.WithLayers(eng.Layers().MaskOf(broken))))

	// Resolution failure degrades the layer; the frame itself succeeds.
	require.NoError(t, eng.RenderFrame(testCamera()))

	ops := rec.Ops()
	assert.Equal(t, []common.ShaderID{100}, drawShaders(ops), "broken layer produced draws")
	assert.Equal(t, renderer.OpPresent, ops[len(ops)-1].Kind)
	assert.Equal(t, 1, eng.Report().SkippedRenderables)
}

func TestRenderFrameUnknownMaterial(t *testing.T) {
	eng, rec, _ := newTestEngine(t)

	opaque, _ := eng.Layers().Declare("opaque")
	eng.Renderables().Register(renderable.NewDescriptor(1, 99, // never cached
		renderable.WithLayers(eng.Layers().MaskOf(opaque))))

	require.NoError(t, eng.RenderFrame(testCamera()))
	assert.Empty(t, drawShaders(rec.Ops()))
	assert.Equal(t, 1, eng.Report().SkippedRenderables)
}

func TestRenderFrameDisabledLayer(t *testing.T) {
	eng, rec, _ := newTestEngine(t)

	opaque, _ := eng.Layers().Declare("opaque")
	debug, _ := eng.Layers().Declare("debug")
	require.NoError(t, eng.Layers().SetEnabled(debug, false))

	eng.Renderables().Register(renderable.NewDescriptor(1, 1,
		renderable.WithLayers(eng.Layers().MaskOf(opaque))))
	eng.Renderables().Register(renderable.NewDescriptor(2, 1,
		renderable.WithLayers(eng.Layers().MaskOf(debug))))

	require.NoError(t, eng.RenderFrame(testCamera()))
	assert.Equal(t, []common.ShaderID{100}, drawShaders(rec.Ops()))
}

func TestRenderFrameStaleLayerTarget(t *testing.T) {
	eng, rec, _ := newTestEngine(t)

	opaque, _ := eng.Layers().Declare("opaque")
	offscreen, _ := eng.Layers().Declare("offscreen", layer.WithTarget(5))
	rec.InvalidateTarget(5)

	eng.Renderables().Register(renderable.NewDescriptor(1, 1,
		renderable.WithLayers(eng.Layers().MaskOf(opaque))))
	eng.Renderables().Register(renderable.NewDescriptor(2, 1,
		renderable.WithLayers(eng.Layers().MaskOf(offscreen))))

	require.NoError(t, eng.RenderFrame(testCamera()))

	ops := rec.Ops()
	assert.Equal(t, []common.ShaderID{100}, drawShaders(ops))
	assert.Equal(t, renderer.OpPresent, ops[len(ops)-1].Kind)

	report := eng.Report()
	assert.Equal(t, 1, report.LayersDrawn)
	assert.Equal(t, 1, report.LayersSkipped)
}

func TestRenderFrameCompositesOffscreenLayers(t *testing.T) {
	rec := renderer.NewRecorder()
	svc := &mockShaderService{fail: make(map[layer.ID]bool)}

	eng, err := NewEngine(rec, svc,
		WithStrategy(pipeline.NewForward(rec, pipeline.WithForwardComposition(9, 99))))
	require.NoError(t, err)
	eng.MaterialCache().Store(1, material.Properties{Name: "flat", Technique: common.TechniqueFlat})

	offscreen, _ := eng.Layers().Declare("offscreen", layer.WithTarget(5))
	eng.Renderables().Register(renderable.NewDescriptor(1, 1,
		renderable.WithLayers(eng.Layers().MaskOf(offscreen))))

	require.NoError(t, eng.RenderFrame(testCamera()))

	// Composition runs once, after every layer and before present.
	ops := rec.Ops()
	require.GreaterOrEqual(t, len(ops), 3)
	assert.Equal(t, renderer.OpPresent, ops[len(ops)-1].Kind)
	assert.Equal(t, renderer.OpDraw, ops[len(ops)-2].Kind)
	assert.Equal(t, common.ShaderID(9), ops[len(ops)-2].Key.Shader)
	assert.Equal(t, common.MeshID(99), ops[len(ops)-2].Key.Mesh)
}

func TestRenderFrameFrustumCulls(t *testing.T) {
	eng, rec, _ := newTestEngine(t)

	opaque, _ := eng.Layers().Declare("opaque")
	mask := eng.Layers().MaskOf(opaque)

	// Camera at z=5 looking down -Z: the first sits in view, the second behind.
	eng.Renderables().Register(renderable.NewDescriptor(1, 1,
		renderable.WithLayers(mask), renderable.WithPosition(0, 0, -10)))
	eng.Renderables().Register(renderable.NewDescriptor(2, 1,
		renderable.WithLayers(mask), renderable.WithPosition(0, 0, 50)))

	require.NoError(t, eng.RenderFrame(testCamera()))

	report := eng.Report()
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 1, report.Visible)
	assert.Equal(t, 1, report.Instances)
	assert.Len(t, drawShaders(rec.Ops()), 1)
}

func TestRenderFrameBatchesSameKey(t *testing.T) {
	eng, rec, _ := newTestEngine(t)

	opaque, _ := eng.Layers().Declare("opaque")
	mask := eng.Layers().MaskOf(opaque)
	for i := 0; i < 5; i++ {
		eng.Renderables().Register(renderable.NewDescriptor(1, 1,
			renderable.WithLayers(mask), renderable.WithPosition(float32(i), 0, -10)))
	}

	require.NoError(t, eng.RenderFrame(testCamera()))

	var draws []renderer.Op
	for _, op := range rec.Ops() {
		if op.Kind == renderer.OpDraw {
			draws = append(draws, op)
		}
	}
	require.Len(t, draws, 1, "same-key renderables collapse into one submission")
	assert.Equal(t, 5, draws[0].Instances)
}

func TestRenderFrameAdvancesState(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	require.Equal(t, StateIdle, eng.State())

	require.NoError(t, eng.RenderFrame(testCamera()))
	assert.Equal(t, StateIdle, eng.State(), "state returns to idle after the frame")

	first := eng.Report().Frame
	require.NoError(t, eng.RenderFrame(testCamera()))
	assert.Equal(t, first+1, eng.Report().Frame)
}

func TestLayerCameraOverride(t *testing.T) {
	eng, rec, _ := newTestEngine(t)

	// UI camera: screen-pixel orthographic volume. The widget at (640, 360)
	// is far outside the 3D frame camera's frustum but inside the override's.
	uiCam := camera.NewCamera(camera.WithOrthographic(0, 1280, 720, 0, -1, 1))
	ui, _ := eng.Layers().Declare("ui", layer.WithCamera(uiCam))

	eng.Renderables().Register(renderable.NewDescriptor(1, 1,
		renderable.WithLayers(eng.Layers().MaskOf(ui)),
		renderable.WithPosition(640, 360, 0)))

	require.NoError(t, eng.RenderFrame(testCamera()))
	assert.Len(t, drawShaders(rec.Ops()), 1)
}

func TestEngineAccessors(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	assert.NotNil(t, eng.Layers())
	assert.NotNil(t, eng.Renderables())
	assert.NotNil(t, eng.Lights())
	assert.NotNil(t, eng.MaterialCache())
	assert.NotNil(t, eng.Techniques())
	assert.Equal(t, "forward", eng.Strategy().Name())
}

func TestCustomMaterialServiceDisablesCache(t *testing.T) {
	rec := renderer.NewRecorder()
	svc := &mockShaderService{}

	eng, err := NewEngine(rec, svc,
		WithMaterialService(renderer.CacheMaterialService{Cache: material.NewCache()}))
	require.NoError(t, err)
	assert.Nil(t, eng.MaterialCache())
}

func TestFrameStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "clearing", StateClearingBuffers.String())
	assert.Equal(t, "per-layer", StatePerLayer.String())
	assert.Equal(t, "post-processing", StatePostProcessing.String())
	assert.Equal(t, "unknown", FrameState(99).String())
}
