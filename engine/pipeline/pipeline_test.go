package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/batch"
	"github.com/Carmen-Shannon/prism-go/engine/layer"
	"github.com/Carmen-Shannon/prism-go/engine/light"
	"github.com/Carmen-Shannon/prism-go/engine/renderer"
)

// mockShaderService resolves every technique to a fixed shader per layer.
type mockShaderService struct {
	shaders map[common.TechniqueID]common.ShaderID
}

func (m *mockShaderService) ResolveShaderForLayer(id layer.ID, technique common.TechniqueID) (common.ShaderID, error) {
	if s, ok := m.shaders[technique]; ok {
		return s, nil
	}
	return 0, renderer.ErrShaderNotFound
}

func twoShaderList() batch.DrawList {
	var m [16]float32
	common.Identity(m[:])
	return batch.DrawList{
		Groups: []batch.Group{
			{Key: batch.Key{Shader: 1, Material: 1, Mesh: 1}, Transforms: [][16]float32{m, m}},
			{Key: batch.Key{Shader: 1, Material: 2, Mesh: 1}, Transforms: [][16]float32{m}},
			{Key: batch.Key{Shader: 2, Material: 3, Mesh: 2}, Transforms: [][16]float32{m}},
		},
	}
}

func kinds(ops []renderer.Op) []renderer.OpKind {
	out := make([]renderer.OpKind, len(ops))
	for i, op := range ops {
		out[i] = op.Kind
	}
	return out
}

func TestForwardConsume(t *testing.T) {
	rec := renderer.NewRecorder()
	f := NewForward(rec)

	err := f.Consume(FrameContext{Target: common.DefaultTarget}, twoShaderList(), nil)
	require.NoError(t, err)

	ops := rec.Ops()
	assert.Equal(t, []renderer.OpKind{
		renderer.OpSetTarget,
		renderer.OpBindShader, // shader 1
		renderer.OpDraw,
		renderer.OpDraw, // same shader, no rebind
		renderer.OpBindShader, // shader 2
		renderer.OpDraw,
	}, kinds(ops))

	assert.Equal(t, common.ShaderID(1), ops[1].Shader)
	assert.Equal(t, common.ShaderID(2), ops[4].Shader)
	assert.Equal(t, 2, ops[2].Instances)
}

func TestForwardConsumePropagatesStaleTarget(t *testing.T) {
	rec := renderer.NewRecorder()
	rec.InvalidateTarget(5)
	f := NewForward(rec)

	err := f.Consume(FrameContext{Target: 5}, twoShaderList(), nil)
	assert.ErrorIs(t, err, renderer.ErrStaleHandle)
	assert.Empty(t, rec.Ops())
}

func TestForwardCompositeWithoutResourcesIsNoOp(t *testing.T) {
	rec := renderer.NewRecorder()
	f := NewForward(rec)

	require.NoError(t, f.Composite([]common.TargetID{3}))
	assert.Empty(t, rec.Ops())
}

func TestForwardComposite(t *testing.T) {
	rec := renderer.NewRecorder()
	f := NewForward(rec, WithForwardComposition(9, 99))

	require.NoError(t, f.Composite([]common.TargetID{3, 4}))

	ops := rec.Ops()
	require.Len(t, ops, 5)
	assert.Equal(t, renderer.OpSetTarget, ops[0].Kind)
	assert.Equal(t, common.DefaultTarget, ops[0].Target)
	// One bind and draw per off-screen target.
	assert.Equal(t, []renderer.OpKind{
		renderer.OpBindShader, renderer.OpDraw,
		renderer.OpBindShader, renderer.OpDraw,
	}, kinds(ops[1:]))
	assert.Equal(t, common.MeshID(99), ops[2].Key.Mesh)
}

func TestDeferredGeometryBeforeLighting(t *testing.T) {
	rec := renderer.NewRecorder()
	d := NewDeferred(rec, 7, 50, 99)

	lights := []light.Light{
		light.NewLight(light.LightTypePoint),
		light.NewLight(light.LightTypePoint),
		light.NewLight(light.LightTypeDirectional),
	}

	err := d.Consume(FrameContext{Target: common.DefaultTarget}, twoShaderList(), lights)
	require.NoError(t, err)

	ops := rec.Ops()
	// Geometry pass into the G-buffer first.
	assert.Equal(t, renderer.OpSetTarget, ops[0].Kind)
	assert.Equal(t, common.TargetID(7), ops[0].Target)
	assert.Equal(t, renderer.OpClear, ops[1].Kind)

	// Then the lighting phase: layer target, one full-screen pass per light.
	var lightDraws int
	seenLayerTarget := false
	for _, op := range ops {
		if op.Kind == renderer.OpSetTarget && op.Target == common.DefaultTarget {
			seenLayerTarget = true
		}
		if op.Kind == renderer.OpDraw && op.Key.Shader == 50 {
			require.True(t, seenLayerTarget, "lighting pass before the layer target was set")
			lightDraws++
		}
	}
	assert.Equal(t, len(lights), lightDraws)
}

func TestDeferredAmbientPassPrecedesLights(t *testing.T) {
	rec := renderer.NewRecorder()
	d := NewDeferred(rec, 7, 50, 99, WithAmbientShader(60))

	err := d.Consume(FrameContext{Target: common.DefaultTarget}, batch.DrawList{}, []light.Light{light.NewLight(light.LightTypePoint)})
	require.NoError(t, err)

	var draws []common.ShaderID
	for _, op := range rec.Ops() {
		if op.Kind == renderer.OpDraw {
			draws = append(draws, op.Key.Shader)
		}
	}
	assert.Equal(t, []common.ShaderID{60, 50}, draws)
}

func TestDeferredStaleGBufferFailsLayer(t *testing.T) {
	rec := renderer.NewRecorder()
	rec.InvalidateTarget(7)
	d := NewDeferred(rec, 7, 50, 99)

	err := d.Consume(FrameContext{Target: common.DefaultTarget}, twoShaderList(), nil)
	assert.ErrorIs(t, err, renderer.ErrStaleHandle)
}

func TestStrategyNames(t *testing.T) {
	rec := renderer.NewRecorder()
	assert.Equal(t, "forward", NewForward(rec).Name())
	assert.Equal(t, "deferred", NewDeferred(rec, 1, 2, 3).Name())
}

func TestTechniqueRegistryBuiltins(t *testing.T) {
	reg := NewTechniqueRegistry()
	svc := &mockShaderService{shaders: map[common.TechniqueID]common.ShaderID{
		common.TechniquePBR:  11,
		common.TechniqueFlat: 12,
		common.TechniqueUI:   13,
	}}

	for id, want := range map[common.TechniqueID]common.ShaderID{
		common.TechniquePBR:  11,
		common.TechniqueFlat: 12,
		common.TechniqueUI:   13,
	} {
		tech, err := reg.New(id, svc)
		require.NoError(t, err)
		assert.Equal(t, id, tech.ID())

		shader, err := tech.Resolve(0)
		require.NoError(t, err)
		assert.Equal(t, want, shader)
	}
}

func TestTechniqueRegistryUnknown(t *testing.T) {
	reg := NewTechniqueRegistry()
	_, err := reg.New("toon", &mockShaderService{})
	assert.ErrorIs(t, err, renderer.ErrShaderNotFound)
}

func TestTechniqueRegistryCustomRegistration(t *testing.T) {
	reg := NewTechniqueRegistry()
	reg.Register("toon", func(shaders renderer.ShaderService) Technique {
		return &techniqueImpl{id: "toon", shaders: shaders}
	})

	svc := &mockShaderService{shaders: map[common.TechniqueID]common.ShaderID{"toon": 42}}
	tech, err := reg.New("toon", svc)
	require.NoError(t, err)

	shader, err := tech.Resolve(3)
	require.NoError(t, err)
	assert.Equal(t, common.ShaderID(42), shader)
}

func TestTechniqueResolveMissingShader(t *testing.T) {
	reg := NewTechniqueRegistry()
	tech, err := reg.New(common.TechniquePBR, &mockShaderService{})
	require.NoError(t, err)

	_, err = tech.Resolve(0)
	assert.ErrorIs(t, err, renderer.ErrShaderNotFound)
}
