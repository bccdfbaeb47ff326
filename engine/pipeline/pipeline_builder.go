package pipeline

import "github.com/Carmen-Shannon/prism-go/common"

// ForwardBuilderOption is a function that configures a forward Strategy during construction.
type ForwardBuilderOption func(*forwardImpl)

// WithForwardComposition is an option builder that provides the resources for
// post-process composition of off-screen layer targets. Without it, Composite
// is a no-op and off-screen layers are left in their targets.
//
// Parameters:
//   - shader: the composition shader
//   - quad: the full-screen quad mesh
//
// Returns:
//   - ForwardBuilderOption: a function that applies the composition option to a forwardImpl
func WithForwardComposition(shader common.ShaderID, quad common.MeshID) ForwardBuilderOption {
	return func(f *forwardImpl) {
		f.compositeShader = shader
		f.quadMesh = quad
	}
}

// DeferredBuilderOption is a function that configures a deferred Strategy during construction.
type DeferredBuilderOption func(*deferredImpl)

// WithAmbientShader is an option builder that sets the full-screen pass
// applying the baked static contribution before the per-light passes.
//
// Parameters:
//   - shader: the ambient/static shading pass
//
// Returns:
//   - DeferredBuilderOption: a function that applies the ambient option to a deferredImpl
func WithAmbientShader(shader common.ShaderID) DeferredBuilderOption {
	return func(d *deferredImpl) {
		d.ambientShader = shader
	}
}

// WithDeferredComposition is an option builder that provides the shader for
// post-process composition of off-screen layer targets.
//
// Parameters:
//   - shader: the composition shader
//
// Returns:
//   - DeferredBuilderOption: a function that applies the composition option to a deferredImpl
func WithDeferredComposition(shader common.ShaderID) DeferredBuilderOption {
	return func(d *deferredImpl) {
		d.compositeShader = shader
	}
}
