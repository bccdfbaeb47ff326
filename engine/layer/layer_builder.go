package layer

import (
	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/camera"
)

// DeclareOption is a function that configures a layer record during declaration.
type DeclareOption func(*record)

// WithEnabled is an option builder that sets the layer's initial enabled state.
// Layers are enabled by default.
//
// Parameters:
//   - enabled: true to enable the layer for rendering
//
// Returns:
//   - DeclareOption: a function that applies the enabled option to a layer record
func WithEnabled(enabled bool) DeclareOption {
	return func(rec *record) {
		rec.enabled = enabled
	}
}

// WithTarget is an option builder that gives the layer a dedicated render
// target for compositing instead of the default swapchain target.
//
// Parameters:
//   - target: the render target handle from the graphics binding layer
//
// Returns:
//   - DeclareOption: a function that applies the target option to a layer record
func WithTarget(target common.TargetID) DeclareOption {
	return func(rec *record) {
		rec.target = target
	}
}

// WithCamera is an option builder that sets a camera override for the layer.
// Layers without an override are culled and drawn with the frame camera; a UI
// layer typically overrides with an orthographic identity camera.
//
// Parameters:
//   - cam: the override camera
//
// Returns:
//   - DeclareOption: a function that applies the camera option to a layer record
func WithCamera(cam camera.Camera) DeclareOption {
	return func(rec *record) {
		rec.camera = cam
	}
}
