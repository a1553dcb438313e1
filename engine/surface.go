package engine

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// Surface is the frame target the engine drives: the device passes allocate on, the backend
// frames replay on and the frame brackets. renderer.Renderer satisfies it.
type Surface interface {
	Device() gpu.Device
	Backend() command.Backend

	// RealisePipelines creates backend objects for the library's pipelines.
	RealisePipelines(lib pipeline.Library) (int, error)

	Resize(width, height int) error
	BeginFrame() error
	EndFrame() error
}

// HeadlessSurface is a Surface over the virtual device and a trace backend. Nothing is drawn;
// the trace holds the calls of the last frame.
type HeadlessSurface struct {
	mu     *sync.Mutex
	device *gpu.VirtualDevice
	trace  *command.TraceBackend
	width  int
	height int
	frames int
}

var _ Surface = &HeadlessSurface{}

// NewHeadlessSurface creates a headless surface.
//
// Parameters:
//   - width: the initial width in pixels
//   - height: the initial height in pixels
//
// Returns:
//   - *HeadlessSurface: the surface
func NewHeadlessSurface(width, height int) *HeadlessSurface {
	return &HeadlessSurface{
		mu:     &sync.Mutex{},
		device: gpu.NewVirtualDevice(),
		trace:  command.NewTraceBackend(),
		width:  width,
		height: height,
	}
}

func (h *HeadlessSurface) Device() gpu.Device       { return h.device }
func (h *HeadlessSurface) Backend() command.Backend { return h.trace }

// VirtualDevice exposes the allocation counters of the device.
func (h *HeadlessSurface) VirtualDevice() *gpu.VirtualDevice { return h.device }

// Trace returns the backend recording the last frame.
func (h *HeadlessSurface) Trace() *command.TraceBackend { return h.trace }

// RealisePipelines realises nothing: trace replay only needs the pipeline keys.
func (h *HeadlessSurface) RealisePipelines(pipeline.Library) (int, error) {
	return 0, nil
}

func (h *HeadlessSurface) Resize(width, height int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height = width, height
	return nil
}

// Size returns the size last passed to Resize or the constructor.
func (h *HeadlessSurface) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// BeginFrame clears the trace so it only ever holds one frame.
func (h *HeadlessSurface) BeginFrame() error {
	h.trace.Reset()
	return nil
}

func (h *HeadlessSurface) EndFrame() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames++
	return nil
}

// Frames returns how many frames were ended.
func (h *HeadlessSurface) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}
