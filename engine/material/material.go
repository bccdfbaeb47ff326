package material

import "github.com/Carmen-Shannon/prism-go/common"

// Properties is the property bag for one material: PBR scalar factors,
// texture references, technique identity, and arbitrary shader-specific
// uniforms. Properties are plain values shared by any number of renderables;
// the Cache owns their lifetime.
type Properties struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the albedo/diffuse color (RGBA).
	BaseColor [4]float32

	// Metallic factor (0.0 = dielectric, 1.0 = metal).
	Metallic float32

	// Roughness factor (0.0 = smooth, 1.0 = rough).
	Roughness float32

	// AlbedoTexture references the albedo texture, or 0 when untextured.
	AlbedoTexture common.TextureID

	// NormalTexture references the normal map, or 0 when flat-shaded.
	NormalTexture common.TextureID

	// Technique names the shading technique this material draws with.
	Technique common.TechniqueID

	// Uniforms carries shader-specific scalar uniforms by name.
	Uniforms map[string]float32
}
