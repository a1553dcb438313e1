package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// ErrClosed is returned by Close on a window that is already closed.
var ErrClosed = errors.New("window: closed")

type glfwWindow struct {
	window  *glfw.Window
	running bool

	dragging bool
	button   MouseButton
	lastX    float64
	lastY    float64
}

// openPlatformWindow creates the GLFW window without a client API, since WebGPU owns the surface.
func openPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("window: glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, boolHint(w.resizable))

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("window: create: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, glfw.DontCare, glfw.DontCare)

	gw := &glfwWindow{window: win, running: true}
	w.native = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		if key == glfw.KeyEscape {
			gw.running = false
			win.SetShouldClose(true)
			return
		}
		if w.onKey != nil {
			w.onKey(Key(key))
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		mapped, ok := mouseButton(button)
		if !ok {
			return
		}
		switch action {
		case glfw.Press:
			gw.dragging, gw.button = true, mapped
			gw.lastX, gw.lastY = win.GetCursorPos()
		case glfw.Release:
			if gw.button == mapped {
				gw.dragging = false
			}
		}
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if !gw.dragging {
			return
		}
		dx, dy := x-gw.lastX, y-gw.lastY
		gw.lastX, gw.lastY = x, y
		if w.onDrag != nil {
			w.onDrag(gw.button, float32(dx), float32(dy))
		}
	})

	// Framebuffer size differs from window size on high-DPI displays; the surface needs pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})
	w.width, w.height = win.GetFramebufferSize()
	return nil
}

func mouseButton(b glfw.MouseButton) (MouseButton, bool) {
	switch b {
	case glfw.MouseButtonLeft:
		return MouseLeft, true
	case glfw.MouseButtonRight:
		return MouseRight, true
	case glfw.MouseButtonMiddle:
		return MouseMiddle, true
	}
	return 0, false
}

func boolHint(v bool) int {
	if v {
		return glfw.True
	}
	return glfw.False
}

// platformSurfaceDescriptor delegates to the wgpuglfw bridge, which covers Windows, X11,
// Wayland and Metal.
func platformSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	if w.native == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.native.window)
}

func platformIsRunning(w *engineWindow) bool {
	if w.native == nil {
		return false
	}
	return w.native.running && !w.native.window.ShouldClose()
}

func platformPoll(w *engineWindow) bool {
	if w.native == nil {
		return false
	}
	glfw.PollEvents()
	return platformIsRunning(w)
}

func platformSetTitle(w *engineWindow, title string) {
	if w.native != nil {
		w.native.window.SetTitle(title)
	}
}

func platformClose(w *engineWindow) error {
	if w.native == nil {
		return ErrClosed
	}
	w.native.running = false
	w.native.window.Destroy()
	w.native = nil
	glfw.Terminate()
	return nil
}
