package pipeline

import (
	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/batch"
	"github.com/Carmen-Shannon/prism-go/engine/light"
	"github.com/Carmen-Shannon/prism-go/engine/renderer"
)

// forwardImpl is the implementation of the forward Strategy.
//
// Forward shading runs one pass per layer with lighting applied per object in
// a single shading pass. Cost scales linearly with light count, which is why
// the aggregator's per-draw light cap matters most here. Preferred for simple
// and low-light scenes.
type forwardImpl struct {
	backend renderer.Backend

	compositeShader common.ShaderID
	quadMesh        common.MeshID
}

// Ensure forwardImpl implements Strategy interface.
var _ Strategy = &forwardImpl{}

// NewForward creates the forward rendering strategy.
//
// Parameters:
//   - backend: the graphics binding layer
//   - options: functional options for post-process composition resources
//
// Returns:
//   - Strategy: the newly created strategy
func NewForward(backend renderer.Backend, options ...ForwardBuilderOption) Strategy {
	f := &forwardImpl{backend: backend}
	for _, option := range options {
		option(f)
	}
	return f
}

func (f *forwardImpl) Name() string { return "forward" }

func (f *forwardImpl) Consume(frame FrameContext, list batch.DrawList, lights []light.Light) error {
	if err := f.backend.SetRenderTarget(frame.Target); err != nil {
		return err
	}

	// The draw list is sorted by shader first, so rebinds only happen at
	// group boundaries where the shader actually changes. Light and static
	// contribution upload is binding-layer mechanics; the culled light list
	// already honors the per-draw cap.
	var bound common.ShaderID
	for i := range list.Groups {
		g := &list.Groups[i]
		if g.Key.Shader != bound {
			if err := f.backend.BindShader(g.Key.Shader); err != nil {
				return err
			}
			bound = g.Key.Shader
		}
		if err := f.backend.SubmitDrawBatch(g.Key, g.Transforms); err != nil {
			return err
		}
	}
	return nil
}

func (f *forwardImpl) Composite(targets []common.TargetID) error {
	if len(targets) == 0 || f.compositeShader == 0 {
		return nil
	}
	if err := f.backend.SetRenderTarget(common.DefaultTarget); err != nil {
		return err
	}
	// One full-screen pass per off-screen layer target, in layer order, so
	// later layers composite over earlier ones.
	for range targets {
		if err := drawFullscreen(f.backend, f.compositeShader, f.quadMesh); err != nil {
			return err
		}
	}
	return nil
}
