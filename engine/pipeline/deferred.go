package pipeline

import (
	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/batch"
	"github.com/Carmen-Shannon/prism-go/engine/light"
	"github.com/Carmen-Shannon/prism-go/engine/renderer"
)

// deferredImpl is the implementation of the deferred Strategy.
//
// Deferred shading splits each layer into a geometry pass that writes surface
// attributes into an intermediate buffer set and a lighting phase that runs
// one full-screen pass per dynamic light. Lighting cost scales with screen
// resolution instead of object count, which is why this variant tolerates far
// more lights than forward. Preferred for many-light PBR scenes.
type deferredImpl struct {
	backend renderer.Backend

	gbuffer         common.TargetID
	lightingShader  common.ShaderID
	ambientShader   common.ShaderID
	compositeShader common.ShaderID
	quadMesh        common.MeshID
}

// Ensure deferredImpl implements Strategy interface.
var _ Strategy = &deferredImpl{}

// NewDeferred creates the deferred rendering strategy. The G-buffer target,
// lighting shader, and full-screen quad mesh are binding-layer resources the
// caller allocates once at configuration time.
//
// Parameters:
//   - backend: the graphics binding layer
//   - gbuffer: the intermediate buffer set the geometry pass writes to
//   - lightingShader: the full-screen per-light shading pass
//   - quadMesh: the full-screen quad geometry
//   - options: functional options for ambient and composition resources
//
// Returns:
//   - Strategy: the newly created strategy
func NewDeferred(backend renderer.Backend, gbuffer common.TargetID, lightingShader common.ShaderID, quadMesh common.MeshID, options ...DeferredBuilderOption) Strategy {
	d := &deferredImpl{
		backend:        backend,
		gbuffer:        gbuffer,
		lightingShader: lightingShader,
		quadMesh:       quadMesh,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

func (d *deferredImpl) Name() string { return "deferred" }

func (d *deferredImpl) Consume(frame FrameContext, list batch.DrawList, lights []light.Light) error {
	// Geometry pass: surface attributes into the G-buffer.
	if err := d.backend.SetRenderTarget(d.gbuffer); err != nil {
		return err
	}
	if err := d.backend.ClearTarget(d.gbuffer); err != nil {
		return err
	}
	var bound common.ShaderID
	for i := range list.Groups {
		g := &list.Groups[i]
		if g.Key.Shader != bound {
			if err := d.backend.BindShader(g.Key.Shader); err != nil {
				return err
			}
			bound = g.Key.Shader
		}
		if err := d.backend.SubmitDrawBatch(g.Key, g.Transforms); err != nil {
			return err
		}
	}

	// Lighting phase: accumulate into the layer target, one full-screen pass
	// per dynamic light plus one for the baked static contribution.
	if err := d.backend.SetRenderTarget(frame.Target); err != nil {
		return err
	}
	if d.ambientShader != 0 {
		if err := drawFullscreen(d.backend, d.ambientShader, d.quadMesh); err != nil {
			return err
		}
	}
	for range lights {
		if err := drawFullscreen(d.backend, d.lightingShader, d.quadMesh); err != nil {
			return err
		}
	}
	return nil
}

func (d *deferredImpl) Composite(targets []common.TargetID) error {
	if len(targets) == 0 || d.compositeShader == 0 {
		return nil
	}
	if err := d.backend.SetRenderTarget(common.DefaultTarget); err != nil {
		return err
	}
	for range targets {
		if err := drawFullscreen(d.backend, d.compositeShader, d.quadMesh); err != nil {
			return err
		}
	}
	return nil
}
