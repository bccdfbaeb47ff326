package wgpu_backend

import "github.com/cogentcore/webgpu/wgpu"

// BackendBuilderOption is a functional option applied to a backend during construction via NewWGPUBackend.
type BackendBuilderOption func(*wgpuBackendImpl)

// WithPresentMode sets the surface present mode used when the swapchain is configured.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode option to a backend
func WithPresentMode(mode PresentMode) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		switch mode {
		case PresentModeVSync:
			b.presentMode = wgpu.PresentModeFifo
		default:
			b.presentMode = wgpu.PresentModeImmediate
		}
	}
}

// WithClearColor sets the color written when a target is cleared.
//
// Parameters:
//   - r, g, b, a: the clear color components in [0, 1]
//
// Returns:
//   - BackendBuilderOption: a function that applies the clear color option to a backend
func WithClearColor(r, g, bl, a float64) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		b.clearColor = wgpu.Color{R: r, G: g, B: bl, A: a}
	}
}

// WithForceSoftwareRenderer forces adapter selection onto the fallback
// software rasterizer. Useful on headless machines and in CI.
//
// Parameters:
//   - force: true to require the fallback adapter
//
// Returns:
//   - BackendBuilderOption: a function that applies the force software renderer option to a backend
func WithForceSoftwareRenderer(force bool) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		b.forceFallbackAdapter = force
	}
}
