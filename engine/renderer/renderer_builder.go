package renderer

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shader"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithUniformArenaSize sets the initial size of the per-frame uniform arena. The arena doubles
// after any frame that overflowed it.
//
// Parameters:
//   - size: the size in bytes
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithUniformArenaSize(size uint64) RendererBuilderOption {
	return func(r *renderer) {
		if size > 0 {
			r.arenaSize = size
		}
	}
}

// WithShaderOptions sets the options every pipeline source is parsed with, typically the
// pre-processor holding the shared struct registry.
func WithShaderOptions(options ...shader.ShaderBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.shaderOptions = append(r.shaderOptions, options...)
	}
}

// WithLogger replaces the renderer's logger.
func WithLogger(logger log.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
