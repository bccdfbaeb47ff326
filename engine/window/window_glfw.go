package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	window  *glfw.Window
	running bool
}

// newPlatformWindow creates the GLFW window, wires input callbacks, and
// stores the platform state on the appWindow.
func newPlatformWindow(w *appWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// WebGPU brings its own graphics API, so disable OpenGL context creation.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}

	gw := &glfwWindow{
		window:  win,
		running: true,
	}
	w.platform = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			gw.running = false
			win.SetShouldClose(true)
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			if w.onKeyDown != nil {
				w.onKeyDown(uint32(key))
			}
		case glfw.Release:
			if w.onKeyUp != nil {
				w.onKeyUp(uint32(key))
			}
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	// Framebuffer size gives pixel-accurate resize events. On high-DPI
	// displays the framebuffer differs from the window size, and the
	// swapchain needs pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// platformSurfaceDescriptor creates a platform-appropriate
// wgpu.SurfaceDescriptor from the GLFW window via the wgpuglfw bridge.
func platformSurfaceDescriptor(w *appWindow) *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.platform.window)
}

// platformIsRunning reports whether the GLFW window is still active.
func platformIsRunning(w *appWindow) bool {
	if w.platform == nil {
		return false
	}
	return w.platform.running && !w.platform.window.ShouldClose()
}

// platformClose destroys the GLFW window and terminates the GLFW library.
func platformClose(w *appWindow) error {
	if w.platform == nil {
		return fmt.Errorf("window is not initialized")
	}
	w.platform.running = false
	w.platform.window.SetShouldClose(true)
	w.platform.window.Destroy()
	glfw.Terminate()
	return nil
}

// platformPollEvents polls GLFW for pending events without blocking.
func platformPollEvents(w *appWindow) bool {
	glfw.PollEvents()
	return platformIsRunning(w)
}
