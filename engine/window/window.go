package window

import (
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// MouseButton identifies the button of a drag.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Key is a keyboard key. Printable keys use their upper-case rune, e.g. Key('G').
type Key rune

// Window is the native window the renderer presents to, plus the viewer's input events.
// Callbacks run on the goroutine that calls ProcessMessages.
type Window interface {
	// SetResizeCallback sets the function called with the new framebuffer size in pixels.
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for the vertical scroll wheel.
	//
	// Parameters:
	//   - callback: receives the delta, positive when scrolling up
	SetScrollCallback(callback func(delta float32))

	// SetKeyCallback sets the callback for key presses. Escape always closes the window
	// and is not forwarded.
	SetKeyCallback(callback func(key Key))

	// SetDragCallback sets the callback for cursor motion while a mouse button is held.
	//
	// Parameters:
	//   - callback: receives the held button and the cursor delta in pixels
	SetDragCallback(callback func(button MouseButton, dx, dy float32))

	// SetTitle changes the title bar text. Safe from any goroutine; applied on the next poll.
	SetTitle(title string)

	// SurfaceDescriptor returns the platform surface descriptor for the renderer.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Size returns the current framebuffer size in pixels.
	Size() (width, height int)

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// ProcessMessages polls events until the window closes or onFrame returns false, calling
	// onFrame after every poll. It must run on the main goroutine.
	ProcessMessages(onFrame func() bool)

	// Close destroys the window. Closing twice is an error.
	Close() error
}

type engineWindow struct {
	mu *sync.Mutex

	title        string
	width        int
	height       int
	minWidth     int
	minHeight    int
	resizable    bool
	pendingTitle string

	logger log.Logger

	// native holds the platform window.
	native *glfwWindow

	onResize func(width, height int)
	onScroll func(delta float32)
	onKey    func(key Key)
	onDrag   func(button MouseButton, dx, dy float32)
}

var _ Window = &engineWindow{}

// NewWindow opens a window. It locks the calling goroutine to its OS thread, so call it from main.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: when the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		mu:        &sync.Mutex{},
		title:     "oxy-graph",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 200,
		resizable: true,
		logger:    log.New("window"),
	}
	for _, opt := range options {
		opt(w)
	}
	if err := openPlatformWindow(w); err != nil {
		return nil, err
	}
	w.logger.Infof("window %q open at %dx%d", w.title, w.width, w.height)
	return w, nil
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyCallback(callback func(key Key)) {
	w.onKey = callback
}

func (w *engineWindow) SetDragCallback(callback func(button MouseButton, dx, dy float32)) {
	w.onDrag = callback
}

func (w *engineWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingTitle = title
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformSurfaceDescriptor(w)
}

func (w *engineWindow) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunning(w)
}

func (w *engineWindow) ProcessMessages(onFrame func() bool) {
	for platformPoll(w) {
		w.mu.Lock()
		title := w.pendingTitle
		w.pendingTitle = ""
		w.mu.Unlock()
		if title != "" {
			platformSetTitle(w, title)
		}
		if onFrame != nil && !onFrame() {
			return
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Close() error {
	return platformClose(w)
}

// resized records the new framebuffer size and forwards it. Zero sizes, e.g. while minimised,
// are recorded but not forwarded.
func (w *engineWindow) resized(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
	if width == 0 || height == 0 {
		return
	}
	w.logger.Debugf("resized to %dx%d", width, height)
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
