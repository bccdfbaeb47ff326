package pipeline

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/batch"
	"github.com/Carmen-Shannon/prism-go/engine/layer"
	"github.com/Carmen-Shannon/prism-go/engine/light"
	"github.com/Carmen-Shannon/prism-go/engine/renderer"
)

// FrameContext carries the per-layer state a Strategy needs to turn a draw
// list into backend operations.
type FrameContext struct {
	// Layer is the layer being dispatched.
	Layer layer.ID

	// LayerName is the layer's human identity, for logging.
	LayerName string

	// Target is the layer's render target (common.DefaultTarget unless the
	// layer carries a compositing override). Target selection is a per-layer
	// property, never per-renderable.
	Target common.TargetID

	// Static is the layer's baked lighting contribution.
	Static light.StaticContribution
}

// Strategy encapsulates a shading algorithm that turns a batched draw list
// plus active lights into an ordered sequence of backend operations. The
// active variant is selected once per renderer configuration; orchestration
// code never branches on which variant is running.
type Strategy interface {
	// Name returns the strategy's identity ("forward" or "deferred").
	//
	// Returns:
	//   - string: the strategy name
	Name() string

	// Consume dispatches one layer's draw list. Dispatch order within the
	// list is the list order; a non-nil error means the layer failed and is
	// skipped for this frame.
	//
	// Parameters:
	//   - frame: the per-layer context
	//   - list: the layer's ordered draw list
	//   - lights: the layer's culled, prioritized dynamic lights
	//
	// Returns:
	//   - error: a resolution/stale-handle failure for this layer
	Consume(frame FrameContext, list batch.DrawList, lights []light.Light) error

	// Composite runs post-processing composition after every layer has been
	// consumed. It receives the dedicated targets of the layers that rendered
	// off-screen this frame, in layer order.
	//
	// Parameters:
	//   - targets: the off-screen layer targets to composite, in draw order
	//
	// Returns:
	//   - error: a resolution/stale-handle failure during composition
	Composite(targets []common.TargetID) error
}

// TechniqueFactory constructs a Technique bound to a shader service. The
// registry maps technique identity to these constructors; no dynamic
// discovery is involved.
type TechniqueFactory func(shaders renderer.ShaderService) Technique

// Technique is the capability interface behind every shading technique
// variant (PBR, flat, UI, ...). A renderable's material chooses its
// technique; dispatch happens through this interface, never through type
// inspection.
type Technique interface {
	// ID returns the technique identity materials reference.
	//
	// Returns:
	//   - common.TechniqueID: the technique identity
	ID() common.TechniqueID

	// Resolve returns the compiled shader drawing this technique under the
	// given layer.
	//
	// Parameters:
	//   - id: the layer being rendered
	//
	// Returns:
	//   - common.ShaderID: the shader handle
	//   - error: wraps renderer.ErrShaderNotFound when the layer has no such shader
	Resolve(id layer.ID) (common.ShaderID, error)
}

// techniqueImpl is the implementation of the Technique interface used by
// every built-in technique: identity plus shader lookup through the service.
type techniqueImpl struct {
	id      common.TechniqueID
	shaders renderer.ShaderService
}

// Ensure techniqueImpl implements Technique interface.
var _ Technique = &techniqueImpl{}

func (t *techniqueImpl) ID() common.TechniqueID { return t.id }

func (t *techniqueImpl) Resolve(id layer.ID) (common.ShaderID, error) {
	return t.shaders.ResolveShaderForLayer(id, t.id)
}

// TechniqueRegistry maps technique identity to a construction function.
// The set is open: callers may register their own techniques next to the
// built-in ones.
// Thread-safe for concurrent access.
type TechniqueRegistry struct {
	mu        sync.RWMutex
	factories map[common.TechniqueID]TechniqueFactory
}

// NewTechniqueRegistry creates a registry pre-populated with the built-in
// techniques (PBR, flat, UI).
//
// Returns:
//   - *TechniqueRegistry: the newly created registry
func NewTechniqueRegistry() *TechniqueRegistry {
	r := &TechniqueRegistry{
		factories: make(map[common.TechniqueID]TechniqueFactory),
	}
	for _, id := range []common.TechniqueID{common.TechniquePBR, common.TechniqueFlat, common.TechniqueUI} {
		id := id
		r.Register(id, func(shaders renderer.ShaderService) Technique {
			return &techniqueImpl{id: id, shaders: shaders}
		})
	}
	return r
}

// Register adds or replaces a technique constructor.
//
// Parameters:
//   - id: the technique identity
//   - factory: the construction function
func (r *TechniqueRegistry) Register(id common.TechniqueID, factory TechniqueFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = factory
}

// New constructs the technique registered under id.
//
// Parameters:
//   - id: the technique identity
//   - shaders: the shader service the technique resolves through
//
// Returns:
//   - Technique: the constructed technique
//   - error: wraps renderer.ErrShaderNotFound for unregistered identities
func (r *TechniqueRegistry) New(id common.TechniqueID, shaders renderer.ShaderService) (Technique, error) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("technique %q: %w", id, renderer.ErrShaderNotFound)
	}
	return factory(shaders), nil
}

// identityTransform is the single-instance transform list used for
// full-screen passes.
var identityTransform = func() [][16]float32 {
	var m [16]float32
	common.Identity(m[:])
	return [][16]float32{m}
}()

// drawFullscreen submits one full-screen pass with the given shader and quad
// mesh. Used by the deferred lighting pass and by post-process composition.
func drawFullscreen(backend renderer.Backend, shader common.ShaderID, quad common.MeshID) error {
	if err := backend.BindShader(shader); err != nil {
		return err
	}
	return backend.SubmitDrawBatch(batch.Key{Shader: shader, Mesh: quad}, identityTransform)
}
