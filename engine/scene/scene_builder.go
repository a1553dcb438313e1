package scene

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
)

// SceneRendererBuilderOption is a functional option for configuring a SceneRenderer.
// Use the With* functions to create options.
type SceneRendererBuilderOption func(s *sceneRenderer)

// WithSettings sets the initial renderer settings.
//
// Parameters:
//   - settings: the settings applied from the first frame
//
// Returns:
//   - SceneRendererBuilderOption: option function to apply
func WithSettings(settings Settings) SceneRendererBuilderOption {
	return func(s *sceneRenderer) {
		s.settings = settings
	}
}

// WithWorkerPool shares an existing worker pool for batch culling.
// A shared pool is not stopped by Release.
//
// Parameters:
//   - pool: the pool SubmitMeshes dispatches to
//
// Returns:
//   - SceneRendererBuilderOption: option function to apply
func WithWorkerPool(pool worker.DynamicWorkerPool) SceneRendererBuilderOption {
	return func(s *sceneRenderer) {
		s.pool = pool
		s.ownsPool = false
		if pool != nil {
			s.cullWorkers = max(pool.GetMaxWorkers(), 1)
		}
	}
}

// WithCullWorkers sets how many chunks SubmitMeshes splits a batch into and, when no pool is
// shared, the size of the owned pool.
//
// Parameters:
//   - n: the worker count, clamped to at least 1
//
// Returns:
//   - SceneRendererBuilderOption: option function to apply
func WithCullWorkers(n int) SceneRendererBuilderOption {
	return func(s *sceneRenderer) {
		s.cullWorkers = max(n, 1)
	}
}

// WithTargetFramebuffer renders the final image into fb instead of the swapchain.
func WithTargetFramebuffer(fb gpu.Framebuffer) SceneRendererBuilderOption {
	return func(s *sceneRenderer) {
		s.target = fb
	}
}

// WithLogger replaces the "scene" logger. The graph and every pass renderer log through it.
func WithLogger(logger log.Logger) SceneRendererBuilderOption {
	return func(s *sceneRenderer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithViewportSize sets the initial viewport size.
func WithViewportSize(width, height uint32) SceneRendererBuilderOption {
	return func(s *sceneRenderer) {
		s.width, s.height = width, height
	}
}
