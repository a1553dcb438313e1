package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-graph/engine/camera"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables the periodic statistics table.
//
// Parameters:
//   - enabled: if true, the profiler ticks every frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the tick callback rate in ticks per second. Non-positive values mean 60.
//
// Parameters:
//   - fps: ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithRenderFrameLimit caps the render loop at fps frames per second. 0 uncaps it.
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps > 0 {
			e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
		}
	}
}

// WithViewportSize sets the initial viewport, normally the window's framebuffer size.
//
// Parameters:
//   - width: width in pixels
//   - height: height in pixels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithViewportSize(width, height int) EngineBuilderOption {
	return func(e *engine) {
		if width > 0 && height > 0 {
			e.width, e.height = width, height
		}
	}
}

// WithSettings sets the renderer settings of the first frame.
func WithSettings(settings scene.Settings) EngineBuilderOption {
	return func(e *engine) {
		e.settings = settings
	}
}

// WithShaderSet replaces the embedded standard shader sources. Keys missing from set stay
// unrealised and their passes record nothing.
func WithShaderSet(set passes.ShaderSet) EngineBuilderOption {
	return func(e *engine) {
		e.shaderSet = set
	}
}

// WithCamera replaces the default orbit camera.
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithEnvironment sets the lights of the first frame.
func WithEnvironment(env light.Environment) EngineBuilderOption {
	return func(e *engine) {
		e.env = env
	}
}

// WithLogger replaces the "engine" logger.
func WithLogger(logger log.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
