// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// MeshID is an opaque handle to mesh geometry owned by the graphics binding layer.
// The zero value is never a valid mesh.
type MeshID uint64

// MaterialID is an opaque handle to a material record owned by the material cache.
// The zero value is never a valid material.
type MaterialID uint64

// ShaderID is an opaque handle to a compiled shader owned by the shader-compilation
// service. The zero value is never a valid shader.
type ShaderID uint64

// TextureID is an opaque handle to a texture owned by the graphics binding
// layer, e.g. a baked lightmap. The zero value means no texture.
type TextureID uint64

// TargetID is an opaque handle to a render target owned by the graphics binding layer.
// The zero value identifies the default (swapchain) target.
type TargetID uint32

// DefaultTarget is the swapchain target every layer renders to unless it carries
// a dedicated target override.
const DefaultTarget TargetID = 0

// TechniqueID names a shading technique (e.g. PBR, flat, UI). Techniques are
// registered in the pipeline technique registry and referenced by materials.
type TechniqueID string

// Common technique identities. The set is open: callers may register
// additional techniques under their own identifiers.
const (
	TechniquePBR  TechniqueID = "pbr"
	TechniqueFlat TechniqueID = "flat"
	TechniqueUI   TechniqueID = "ui"
)
