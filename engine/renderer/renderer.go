package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultUniformArenaSize is the initial per-frame uniform arena size in bytes.
const DefaultUniformArenaSize = 4 << 20

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend *wgpuBackend
	logger  log.Logger

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	arenaSize            uint64
	shaderOptions        []shader.ShaderBuilderOption
}

// Renderer owns the WebGPU device and swapchain. It exposes the device to the pass renderers
// and the command backend frames are replayed on, and brackets each frame.
type Renderer interface {
	// Device returns the device framebuffers, textures and vertex arrays are created on.
	Device() gpu.Device

	// Backend returns the command backend bound to the current frame.
	Backend() command.Backend

	// RealisePipelines creates the GPU objects of every pipeline in lib that has a source and
	// has not been realised yet. Pipeline variants for specific targets are compiled on first draw.
	//
	// Parameters:
	//   - lib: the pipeline registry
	//
	// Returns:
	//   - int: the number of pipelines realised
	//   - error: the first shader or device failure
	RealisePipelines(lib pipeline.Library) (int, error)

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: a surface configuration failure
	Resize(width, height int) error

	// SetPresentMode changes the present mode; it applies from the next Resize.
	SetPresentMode(mode PresentMode)

	// BeginFrame acquires the next surface image and starts recording.
	//
	// Returns:
	//   - error: when a frame is already open or the surface cannot be acquired
	BeginFrame() error

	// EndFrame submits the recorded work and presents.
	//
	// Returns:
	//   - error: when no frame is open or submission fails
	EndFrame() error

	// Stats returns the backend counters of the last frame.
	Stats() FrameStats

	// Release frees the device and every object created on it.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing to the given surface.
//
// Parameters:
//   - surfaceDescriptor: the native surface, usually from the window
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
//   - error: when no adapter or device is available or the surface cannot be configured
func NewRenderer(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		logger:      log.New("renderer"),
		presentMode: PresentModeVSync,
		arenaSize:   DefaultUniformArenaSize,
	}
	for _, option := range options {
		option(r)
	}

	backend, err := newWGPUBackend(surfaceDescriptor, r.forceFallbackAdapter, r.arenaSize, r.logger)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	r.backend = backend
	r.backend.SetPresentMode(r.presentMode)
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("renderer: %w", err)
	}
	r.logger.Infof("renderer ready: %dx%d, present mode %s", width, height, r.presentMode)
	return r, nil
}

func (r *renderer) Device() gpu.Device {
	return r.backend.objects
}

func (r *renderer) Backend() command.Backend {
	return r.backend
}

func (r *renderer) RealisePipelines(lib pipeline.Library) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.backend.RealisePipelines(lib, r.shaderOptions...)
	if err != nil {
		return n, fmt.Errorf("renderer: %w", err)
	}
	r.logger.Debugf("realised %d pipelines", n)
	return n, nil
}

func (r *renderer) Resize(width, height int) error {
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	r.presentMode = mode
	r.mu.Unlock()
	r.backend.SetPresentMode(mode)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Stats() FrameStats {
	return r.backend.Stats()
}

func (r *renderer) Release() {
	r.backend.Release()
}
