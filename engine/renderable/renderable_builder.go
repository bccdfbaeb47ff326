package renderable

import (
	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/layer"
)

// DescriptorOption is a function that configures a Descriptor during construction.
type DescriptorOption func(*Descriptor)

// WithTransform is an option builder that sets the renderable's world transform.
//
// Parameters:
//   - transform: 4x4 world transform, column-major
//
// Returns:
//   - DescriptorOption: a function that applies the transform option to a Descriptor
func WithTransform(transform [16]float32) DescriptorOption {
	return func(d *Descriptor) {
		d.Transform = transform
	}
}

// WithPosition is an option builder that sets the world transform to a pure
// translation. Convenience for the common case of unrotated, unscaled objects.
//
// Parameters:
//   - x, y, z: world-space position components
//
// Returns:
//   - DescriptorOption: a function that applies the position option to a Descriptor
func WithPosition(x, y, z float32) DescriptorOption {
	return func(d *Descriptor) {
		common.Translation(d.Transform[:], x, y, z)
	}
}

// WithBounds is an option builder that sets the object-space bounding sphere
// used for frustum culling.
//
// Parameters:
//   - center: sphere center in object space
//   - radius: sphere radius
//
// Returns:
//   - DescriptorOption: a function that applies the bounds option to a Descriptor
func WithBounds(center [3]float32, radius float32) DescriptorOption {
	return func(d *Descriptor) {
		d.Bounds = common.Sphere{Center: center, Radius: radius}
	}
}

// WithLayers is an option builder that sets the renderable's layer membership.
//
// Parameters:
//   - mask: the layer mask (union of layer bits)
//
// Returns:
//   - DescriptorOption: a function that applies the layers option to a Descriptor
func WithLayers(mask layer.Mask) DescriptorOption {
	return func(d *Descriptor) {
		d.Layers = mask
	}
}

// WithLODs is an option builder that sets the coarser mesh variants selected
// by distance, ordered near-to-far to match the configured thresholds.
//
// Parameters:
//   - meshes: variant mesh handles, nearest threshold first
//
// Returns:
//   - DescriptorOption: a function that applies the LOD option to a Descriptor
func WithLODs(meshes ...common.MeshID) DescriptorOption {
	return func(d *Descriptor) {
		d.LODs = meshes
	}
}

// WithVisible is an option builder that sets the initial visibility flag.
// Descriptors from NewDescriptor are visible by default.
//
// Parameters:
//   - visible: true to draw the renderable
//
// Returns:
//   - DescriptorOption: a function that applies the visibility option to a Descriptor
func WithVisible(visible bool) DescriptorOption {
	return func(d *Descriptor) {
		d.Visible = visible
	}
}
