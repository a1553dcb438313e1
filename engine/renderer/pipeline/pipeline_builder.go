package pipeline

import "github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithShaderSource sets the WGSL source for both stages. A module holding both entry points
// may be passed twice.
//
// Parameters:
//   - vertex: the vertex stage source
//   - fragment: the fragment stage source, "" for depth-only pipelines
//
// Returns:
//   - PipelineBuilderOption: a function that sets the shader sources for this pipeline
func WithShaderSource(vertex, fragment string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexSource = vertex
		p.fragmentSource = fragment
	}
}

// WithEntryPoints overrides the default "vs_main" / "fs_main" entry points.
func WithEntryPoints(vertex, fragment string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexEntry = vertex
		p.fragmentEntry = fragment
	}
}

// WithVertexLayout sets the vertex buffer layout.
//
// Parameters:
//   - layout: the interleaved vertex layout
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex layout for this pipeline
func WithVertexLayout(layout gpu.VertexLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayout = layout
	}
}

// WithTargets sets the color and depth formats the pipeline renders into.
//
// Parameters:
//   - depth: the depth format, gpu.FormatNone for none
//   - colors: the color formats in attachment order
//
// Returns:
//   - PipelineBuilderOption: a function that sets the target formats for this pipeline
func WithTargets(depth gpu.TextureFormat, colors ...gpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthFormat = depth
		p.colorFormats = colors
	}
}

// WithTargetsFromSpec copies the target formats of a framebuffer specification.
func WithTargetsFromSpec(spec gpu.FramebufferSpecification) PipelineBuilderOption {
	return WithTargets(spec.DepthFormat(), spec.ColorFormats()...)
}

// WithDepthTestEnabled sets whether depth testing is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether depth testing should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth test enabled state for this pipeline
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

// WithDepthWriteEnabled sets whether depth writing is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether depth writing should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth write enabled state for this pipeline
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithDepthCompare sets the depth comparison function.
func WithDepthCompare(compare CompareFunction) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthCompare = compare
	}
}

// WithDepthBias sets the depth bias parameters for this pipeline.
//
// Parameters:
//   - bias: the constant depth bias to apply
//   - slopeScale: the slope scale depth bias to apply
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth bias for this pipeline
func WithDepthBias(bias int32, slopeScale float32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthBias = bias
		p.depthBiasSlopeScale = slopeScale
	}
}

// WithBlendEnabled sets whether source-alpha blending is enabled for this pipeline.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithCullMode sets the cull mode for this pipeline.
func WithCullMode(mode CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology for this pipeline.
func WithTopology(topology Topology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithFrontFace sets the front face winding for this pipeline.
func WithFrontFace(face FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = face
	}
}
