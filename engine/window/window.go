// package window hosts the platform window the renderer draws into. It wraps
// GLFW behind a small interface so the rest of the engine only ever sees a
// surface descriptor, a drawable size, and a handful of input callbacks.
package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event handling for a render loop.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	// The render loop lives here: the callback is expected to advance and
	// draw one frame.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the drawable size changes.
	// The callback receives framebuffer pixels, not window units, so the
	// values can go straight to swapchain configuration.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up, negative = down)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating
	// a WebGPU surface on this window. The descriptor is platform-appropriate
	// (Windows HWND, X11 Xlib, Wayland, macOS Metal).
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform surface descriptor, or nil if the window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// Run drives the window message loop. Blocks until the window is closed,
	// invoking the update callback each iteration.
	Run()

	// Width returns the current drawable width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current drawable height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// appWindow is the implementation of the Window interface.
type appWindow struct {
	title  string
	width  int
	height int

	// platform holds the GLFW-specific window state.
	platform *glfwWindow

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
}

var _ Window = &appWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &appWindow{
		title:  "prism",
		width:  1280,
		height: 720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *appWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *appWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *appWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *appWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *appWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *appWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformSurfaceDescriptor(w)
}

func (w *appWindow) IsRunning() bool {
	return platformIsRunning(w)
}

func (w *appWindow) Close() error {
	return platformClose(w)
}

func (w *appWindow) Run() {
	for w.IsRunning() {
		if ok := platformPollEvents(w); !ok {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *appWindow) Width() int {
	return w.width
}

func (w *appWindow) Height() int {
	return w.height
}
