package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/batch"
	"github.com/Carmen-Shannon/prism-go/engine/layer"
	"github.com/Carmen-Shannon/prism-go/engine/material"
)

// Resource-resolution failures. These are recoverable per frame: the affected
// layer or renderable is skipped and the frame continues.
var (
	// ErrShaderNotFound is returned by a ShaderService when no shader exists
	// for a layer/technique combination.
	ErrShaderNotFound = errors.New("renderer: shader not found")

	// ErrMaterialNotFound is returned by a MaterialService for an unknown
	// material handle.
	ErrMaterialNotFound = errors.New("renderer: material not found")

	// ErrStaleHandle is returned by a Backend when the binding layer has
	// invalidated a resource behind a handle the core still holds. Treated
	// identically to a resolution failure: skip, log, continue.
	ErrStaleHandle = errors.New("renderer: stale resource handle")
)

// Backend is the contract consumed from the graphics binding layer. The core
// holds only opaque handles: buffers, textures, and their lifetimes are owned
// entirely by the implementation behind this interface. Submission order is a
// correctness requirement, so all methods are driven from the single render
// goroutine.
type Backend interface {
	// SetRenderTarget directs subsequent draws at a render target.
	//
	// Parameters:
	//   - target: the target handle (common.DefaultTarget = swapchain)
	//
	// Returns:
	//   - error: wraps ErrStaleHandle when the target was invalidated
	SetRenderTarget(target common.TargetID) error

	// ClearTarget clears a render target's color and depth.
	//
	// Parameters:
	//   - target: the target handle
	//
	// Returns:
	//   - error: wraps ErrStaleHandle when the target was invalidated
	ClearTarget(target common.TargetID) error

	// BindShader makes a compiled shader current for subsequent submissions.
	//
	// Parameters:
	//   - shader: the shader handle
	//
	// Returns:
	//   - error: wraps ErrStaleHandle when the shader was invalidated
	BindShader(shader common.ShaderID) error

	// SubmitDrawBatch draws one instanced batch with the currently bound
	// shader, one instance per transform.
	//
	// Parameters:
	//   - key: the batch identity (shader, material, mesh)
	//   - transforms: per-instance world transforms
	//
	// Returns:
	//   - error: wraps ErrStaleHandle when a referenced resource was invalidated
	SubmitDrawBatch(key batch.Key, transforms [][16]float32) error

	// Present flips the completed frame to the display surface.
	//
	// Returns:
	//   - error: an error if presentation failed
	Present() error
}

// ShaderService is the contract consumed from the shader-compilation service.
// Compilation and linking mechanics live behind it; the core only asks for
// handles.
type ShaderService interface {
	// ResolveShaderForLayer returns the compiled shader used to draw the
	// given technique under the given layer.
	//
	// Parameters:
	//   - id: the layer being rendered
	//   - hint: the shading technique requested by the material
	//
	// Returns:
	//   - common.ShaderID: the compiled shader handle
	//   - error: wraps ErrShaderNotFound when no such shader exists
	ResolveShaderForLayer(id layer.ID, hint common.TechniqueID) (common.ShaderID, error)
}

// MaterialService is the contract consumed from the asset/material service.
type MaterialService interface {
	// ResolveMaterial returns the property bag behind a material handle.
	//
	// Parameters:
	//   - id: the material handle
	//
	// Returns:
	//   - material.Properties: the resolved record
	//   - error: wraps ErrMaterialNotFound for unknown handles
	ResolveMaterial(id common.MaterialID) (material.Properties, error)
}

// StaticShaderService is a table-backed ShaderService: techniques map to
// shader handles, with optional per-layer overrides. It covers applications
// that compile their shader set up front and never recompile.
type StaticShaderService struct {
	// Techniques maps a technique to its default shader.
	Techniques map[common.TechniqueID]common.ShaderID

	// Overrides maps a layer to technique-specific replacement shaders,
	// consulted before Techniques.
	Overrides map[layer.ID]map[common.TechniqueID]common.ShaderID
}

// Ensure StaticShaderService implements ShaderService interface.
var _ ShaderService = StaticShaderService{}

// ResolveShaderForLayer resolves through the override table first, then the
// technique defaults.
//
// Parameters:
//   - id: the layer being rendered
//   - hint: the shading technique requested by the material
//
// Returns:
//   - common.ShaderID: the resolved shader handle
//   - error: wraps ErrShaderNotFound when neither table has an entry
func (s StaticShaderService) ResolveShaderForLayer(id layer.ID, hint common.TechniqueID) (common.ShaderID, error) {
	if perLayer, ok := s.Overrides[id]; ok {
		if shader, ok := perLayer[hint]; ok {
			return shader, nil
		}
	}
	if shader, ok := s.Techniques[hint]; ok {
		return shader, nil
	}
	return 0, ErrShaderNotFound
}

// CacheMaterialService adapts a material.Cache to the MaterialService
// contract, which is how the engine consumes its own cache.
type CacheMaterialService struct {
	Cache material.Cache
}

// Ensure CacheMaterialService implements MaterialService interface.
var _ MaterialService = CacheMaterialService{}

// ResolveMaterial resolves the handle through the wrapped cache.
//
// Parameters:
//   - id: the material handle
//
// Returns:
//   - material.Properties: the resident record
//   - error: wraps ErrMaterialNotFound on a cache miss
func (s CacheMaterialService) ResolveMaterial(id common.MaterialID) (material.Properties, error) {
	props, ok := s.Cache.Resolve(id)
	if !ok {
		return material.Properties{}, ErrMaterialNotFound
	}
	return props, nil
}
