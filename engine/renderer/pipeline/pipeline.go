// Package pipeline describes fixed graphics pipeline state by key, independent of any backend.
// Backends realise a Pipeline into a native object and attach it with SetHandle.
package pipeline

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
)

// CompareFunction is the depth comparison used when depth testing is enabled.
type CompareFunction int

const (
	CompareLess CompareFunction = iota
	CompareLessEqual
	CompareAlways
)

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// Topology is the primitive assembly mode.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyLineList
)

// FrontFace is the winding order of front-facing triangles.
type FrontFace int

const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for library lookups
	pipelineKey string

	vertexSource, fragmentSource string
	vertexEntry, fragmentEntry   string
	vertexLayout                 gpu.VertexLayout

	// colorFormats lists the color targets in attachment order; empty means the default surface target.
	colorFormats []gpu.TextureFormat
	depthFormat  gpu.TextureFormat

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthCompare        CompareFunction
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            CullMode
	topology            Topology
	frontFace           FrontFace

	// handle is the backend object created from this description, nil until realised.
	handle any
}

// Pipeline describes one fixed graphics pipeline: shader sources, vertex layout, target formats
// and depth/blend/raster state.
type Pipeline interface {
	gpu.Pipeline

	// VertexSource returns the WGSL source of the vertex stage.
	VertexSource() string

	// FragmentSource returns the WGSL source of the fragment stage, or "" for depth-only pipelines.
	FragmentSource() string

	// VertexEntryPoint returns the vertex entry point name.
	VertexEntryPoint() string

	// FragmentEntryPoint returns the fragment entry point name.
	FragmentEntryPoint() string

	// VertexLayout returns the vertex buffer layout.
	VertexLayout() gpu.VertexLayout

	// ColorFormats returns the color target formats. Empty means the default surface target.
	ColorFormats() []gpu.TextureFormat

	// DepthFormat returns the depth target format, or gpu.FormatNone.
	DepthFormat() gpu.TextureFormat

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// DepthCompare returns the depth comparison function.
	DepthCompare() CompareFunction

	// DepthBias returns the constant depth bias.
	DepthBias() int32

	// DepthBiasSlopeScale returns the slope-scaled depth bias.
	DepthBiasSlopeScale() float32

	// BlendEnabled returns whether source-alpha blending is enabled.
	BlendEnabled() bool

	// CullMode returns the cull mode.
	CullMode() CullMode

	// Topology returns the primitive topology.
	Topology() Topology

	// FrontFace returns the front face winding.
	FrontFace() FrontFace

	// Handle returns the backend object attached with SetHandle, or nil.
	//
	// Returns:
	//   - any: the backend object; callers type assert it to their native type
	Handle() any

	// SetHandle attaches the backend object realised from this description.
	//
	// Parameters:
	//   - h: the backend object
	SetHandle(h any)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a pipeline description.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		vertexEntry:       "vs_main",
		fragmentEntry:     "fs_main",
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      CompareLess,
		cullMode:          CullBack,
		topology:          TopologyTriangleList,
		frontFace:         FrontFaceCCW,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string               { return p.pipelineKey }
func (p *pipeline) VertexSource() string              { return p.vertexSource }
func (p *pipeline) FragmentSource() string            { return p.fragmentSource }
func (p *pipeline) VertexEntryPoint() string          { return p.vertexEntry }
func (p *pipeline) FragmentEntryPoint() string        { return p.fragmentEntry }
func (p *pipeline) VertexLayout() gpu.VertexLayout    { return p.vertexLayout }
func (p *pipeline) ColorFormats() []gpu.TextureFormat { return p.colorFormats }
func (p *pipeline) DepthFormat() gpu.TextureFormat    { return p.depthFormat }
func (p *pipeline) DepthTestEnabled() bool            { return p.depthTestEnabled }
func (p *pipeline) DepthWriteEnabled() bool           { return p.depthWriteEnabled }
func (p *pipeline) DepthCompare() CompareFunction     { return p.depthCompare }
func (p *pipeline) DepthBias() int32                  { return p.depthBias }
func (p *pipeline) DepthBiasSlopeScale() float32      { return p.depthBiasSlopeScale }
func (p *pipeline) BlendEnabled() bool                { return p.blendEnabled }
func (p *pipeline) CullMode() CullMode                { return p.cullMode }
func (p *pipeline) Topology() Topology                { return p.topology }
func (p *pipeline) FrontFace() FrontFace              { return p.frontFace }
func (p *pipeline) Handle() any                       { return p.handle }
func (p *pipeline) SetHandle(h any)                   { p.handle = h }
