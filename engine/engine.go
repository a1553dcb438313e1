// Package engine runs the frame loop: a fixed-rate tick for application logic and a render loop
// that brackets each frame on a Surface and flushes the scene renderer.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-graph/engine/camera"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/Carmen-Shannon/oxy-graph/engine/profiler"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shaders"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
)

// Frame is what the frame callback receives. Submissions go to Scene between the engine's
// BeginScene and EndScene.
type Frame struct {
	Index     uint64
	DeltaTime float32
	Scene     scene.SceneRenderer
	Camera    camera.Camera
}

type engine struct {
	mu     *sync.Mutex
	logger log.Logger

	surface Surface
	library pipeline.Library
	scene   scene.SceneRenderer
	camera  camera.Camera
	env     light.Environment
	overlay bool

	shaderSet passes.ShaderSet
	settings  scene.Settings
	width     int
	height    int

	// pendingSize is consumed by the render loop so resizes never race a frame.
	pendingSize chan [2]int
	tickRate    chan time.Duration

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate   time.Duration
	renderFrameLimit time.Duration
	tickCallback     func(deltaTime float32)
	frameCallback    func(f Frame)

	frameIndex uint64
	running    bool
	quit       chan struct{}
	quitOnce   sync.Once
}

// Engine owns the pipeline library and scene renderer built on a Surface and drives them.
type Engine interface {
	// Scene returns the scene renderer.
	Scene() scene.SceneRenderer

	// Library returns the pipeline registry the passes look pipelines up in.
	Library() pipeline.Library

	// Camera returns the camera every frame is rendered from.
	Camera() camera.Camera

	// SetEnvironment replaces the lights used from the next frame.
	SetEnvironment(env light.Environment)

	// SetOverlay switches between BeginScene/EndScene and BeginOverlay/EndOverlay framing.
	SetOverlay(overlay bool)

	// ApplySettings installs new renderer settings; they take effect at the next flush.
	ApplySettings(settings scene.Settings)

	// Settings returns the renderer settings currently installed.
	Settings() scene.Settings

	// SetTickRate sets the tick callback rate in ticks per second. Non-positive values mean 60.
	SetTickRate(fps float64)

	// SetTickCallback registers the fixed-rate logic callback.
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the per-frame submission callback.
	SetFrameCallback(callback func(f Frame))

	// SetRenderFrameLimit caps the render loop. 0 uncaps it.
	SetRenderFrameLimit(fps float64)

	EnableProfiler()
	DisableProfiler()

	// Resize queues a new viewport size; the render loop applies it before the next frame.
	//
	// Parameters:
	//   - width: width in pixels
	//   - height: height in pixels
	Resize(width, height int)

	// RenderFrame renders one frame on the calling goroutine.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - error: a surface failure; the scene renderer is left ready for the next frame
	RenderFrame(dt float32) error

	// Run drives the tick loop on its own goroutine and the render loop on the calling one until
	// ctx is done or Quit is called.
	//
	// Parameters:
	//   - ctx: stops both loops when done
	//
	// Returns:
	//   - error: a panic recovered from the render loop
	Run(ctx context.Context) error

	// Quit stops Run. Safe to call more than once.
	Quit()

	// Release frees the scene renderer's GPU objects.
	Release()
}

var _ Engine = &engine{}

// NewEngine builds the standard pipeline library, realises it on surface and creates the scene
// renderer.
//
// Parameters:
//   - surface: the frame target
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine, ready to Run
//   - error: when the shader set cannot be loaded or pipelines fail to realise
func NewEngine(surface Surface, options ...EngineBuilderOption) (Engine, error) {
	if surface == nil {
		panic("engine: NewEngine requires a non-nil Surface")
	}
	e := &engine{
		mu:             &sync.Mutex{},
		logger:         log.New("engine"),
		surface:        surface,
		env:            light.NewEnvironment(),
		settings:       scene.DefaultSettings(),
		width:          1280,
		height:         720,
		pendingSize:    make(chan [2]int, 1),
		tickRate:       make(chan time.Duration, 1),
		engineTickRate: time.Second / 60,
		quit:           make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.shaderSet == nil {
		set, err := shaders.Standard()
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.shaderSet = set
	}
	e.library = pipeline.NewLibrary(passes.StandardPipelines(e.shaderSet)...)
	n, err := surface.RealisePipelines(e.library)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.logger.Infof("%d of %d pipelines realised", n, len(e.library.Keys()))

	if e.camera == nil {
		e.camera = camera.NewCamera(camera.WithController(camera.NewOrbitController()))
	}
	e.camera.SetAspect(float32(e.width) / float32(max(e.height, 1)))

	e.scene = scene.NewSceneRenderer(surface.Device(), e.library, surface.Backend(),
		scene.WithSettings(e.settings),
		scene.WithViewportSize(uint32(e.width), uint32(e.height)),
	)
	e.profiler = profiler.NewProfiler(profiler.WithSource(e.scene))
	return e, nil
}

func (e *engine) Scene() scene.SceneRenderer        { return e.scene }
func (e *engine) Library() pipeline.Library         { return e.library }
func (e *engine) Camera() camera.Camera             { return e.camera }
func (e *engine) Settings() scene.Settings          { return e.scene.Settings() }
func (e *engine) SetFrameCallback(cb func(f Frame)) { e.frameCallback = cb }

func (e *engine) SetEnvironment(env light.Environment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.env = env
}

func (e *engine) SetOverlay(overlay bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overlay = overlay
}

func (e *engine) ApplySettings(settings scene.Settings) {
	e.scene.SetSettings(settings)
	e.logger.Infof("settings applied: %s", settings.RenderMode)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	rate := time.Duration(float64(time.Second) / fps)
	e.mu.Lock()
	running := e.running
	if !running {
		e.engineTickRate = rate
	}
	e.mu.Unlock()
	if !running {
		return
	}
	// Replace a pending update rather than block.
	select {
	case e.tickRate <- rate:
	default:
		select {
		case <-e.tickRate:
		default:
		}
		e.tickRate <- rate
	}
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	size := [2]int{width, height}
	select {
	case e.pendingSize <- size:
	default:
		select {
		case <-e.pendingSize:
		default:
		}
		e.pendingSize <- size
	}
}

// applyResize consumes a queued size, if any.
func (e *engine) applyResize() error {
	var size [2]int
	select {
	case size = <-e.pendingSize:
	default:
		return nil
	}
	if err := e.surface.Resize(size[0], size[1]); err != nil {
		return fmt.Errorf("engine: resize %dx%d: %w", size[0], size[1], err)
	}
	e.width, e.height = size[0], size[1]
	e.scene.SetViewportSize(uint32(size[0]), uint32(size[1]))
	e.camera.SetAspect(float32(size[0]) / float32(size[1]))
	return nil
}

func (e *engine) RenderFrame(dt float32) error {
	if err := e.applyResize(); err != nil {
		return err
	}
	e.camera.Update()

	if err := e.surface.BeginFrame(); err != nil {
		return fmt.Errorf("engine: begin frame: %w", err)
	}

	e.mu.Lock()
	env, overlay, profiling := e.env, e.overlay, e.profilingEnabled
	e.mu.Unlock()

	if overlay {
		e.scene.BeginOverlay(e.camera, env)
	} else {
		e.scene.BeginScene(e.camera, env)
	}
	if e.frameCallback != nil {
		e.frameCallback(Frame{Index: e.frameIndex, DeltaTime: dt, Scene: e.scene, Camera: e.camera})
	}
	if overlay {
		e.scene.EndOverlay()
	} else {
		e.scene.EndScene()
	}

	if err := e.surface.EndFrame(); err != nil {
		return fmt.Errorf("engine: end frame: %w", err)
	}
	e.frameIndex++
	if profiling {
		e.profiler.Tick()
	}
	return nil
}

func (e *engine) Run(ctx context.Context) (err error) {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.tickLoop(ctx)
	}()
	defer wg.Wait()
	defer e.Quit()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: render loop panic: %v", r)
		}
	}()
	e.renderLoop(ctx)
	return nil
}

func (e *engine) tickLoop(ctx context.Context) {
	e.mu.Lock()
	rate := e.engineTickRate
	e.mu.Unlock()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.quit:
			return
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case rate := <-e.tickRate:
			ticker.Reset(rate)
			e.mu.Lock()
			e.engineTickRate = rate
			e.mu.Unlock()
		}
	}
}

func (e *engine) renderLoop(ctx context.Context) {
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.quit:
			return
		default:
		}

		start := time.Now()
		dt := float32(start.Sub(last).Seconds())
		last = start
		if err := e.RenderFrame(dt); err != nil {
			e.logger.Warningf("frame %d: %v", e.frameIndex, err)
		}

		e.mu.Lock()
		limit := e.renderFrameLimit
		e.mu.Unlock()
		if limit > 0 {
			if remaining := limit - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quit)
	})
}

func (e *engine) Release() {
	e.scene.Release()
}
