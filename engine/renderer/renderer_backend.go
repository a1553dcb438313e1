package renderer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// String returns the config name of the mode.
func (m PresentMode) String() string {
	if m == PresentModeUncapped {
		return "uncapped"
	}
	return "vsync"
}

// ParsePresentMode parses "vsync" or "uncapped", case-insensitively.
func ParsePresentMode(s string) (PresentMode, error) {
	switch strings.ToLower(s) {
	case "", "vsync":
		return PresentModeVSync, nil
	case "uncapped":
		return PresentModeUncapped, nil
	}
	return PresentModeVSync, fmt.Errorf("unknown present mode %q", s)
}

func wgpuPresentMode(mode PresentMode) wgpu.PresentMode {
	if mode == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// surfaceDepthFormat is the depth format of the swapchain depth buffer. Every depth format maps
// to it so depth attachments are copy-compatible with each other.
const surfaceDepthFormat = wgpu.TextureFormatDepth32Float

// textureFormat maps a backend-neutral format to its WebGPU equivalent. Three-channel formats
// have no render target equivalent and are promoted to four channels.
func textureFormat(f gpu.TextureFormat) wgpu.TextureFormat {
	switch f {
	case gpu.FormatRGBA8:
		return wgpu.TextureFormatRGBA8Unorm
	case gpu.FormatRGBA16F, gpu.FormatRGB16F:
		return wgpu.TextureFormatRGBA16Float
	case gpu.FormatRG16F:
		return wgpu.TextureFormatRG16Float
	case gpu.FormatR32I:
		return wgpu.TextureFormatR32Sint
	case gpu.FormatDepth24Stencil8, gpu.FormatDepth32F:
		return surfaceDepthFormat
	}
	return wgpu.TextureFormatUndefined
}

func isDepthFormat(f wgpu.TextureFormat) bool {
	switch f {
	case wgpu.TextureFormatDepth32Float, wgpu.TextureFormatDepth24Plus, wgpu.TextureFormatDepth24PlusStencil8, wgpu.TextureFormatDepth16Unorm:
		return true
	}
	return false
}

func isIntegerFormat(f wgpu.TextureFormat) bool {
	switch f {
	case wgpu.TextureFormatR32Sint, wgpu.TextureFormatR32Uint:
		return true
	}
	return false
}

func isFilterableFormat(f wgpu.TextureFormat) bool {
	return !isDepthFormat(f) && !isIntegerFormat(f)
}

// sampleTypeCompatible reports whether a texture of format f can be bound to a layout entry
// expecting sample type st.
func sampleTypeCompatible(f wgpu.TextureFormat, st wgpu.TextureSampleType) bool {
	switch st {
	case wgpu.TextureSampleTypeDepth:
		return isDepthFormat(f)
	case wgpu.TextureSampleTypeSint:
		return f == wgpu.TextureFormatR32Sint
	case wgpu.TextureSampleTypeUint:
		return f == wgpu.TextureFormatR32Uint
	case wgpu.TextureSampleTypeUnfilterableFloat:
		return !isIntegerFormat(f)
	default:
		return isFilterableFormat(f)
	}
}

func vertexFormat(f gpu.VertexFormat) wgpu.VertexFormat {
	switch f {
	case gpu.VertexFloat32:
		return wgpu.VertexFormatFloat32
	case gpu.VertexFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case gpu.VertexFloat32x3:
		return wgpu.VertexFormatFloat32x3
	case gpu.VertexUint32x4:
		return wgpu.VertexFormatUint32x4
	default:
		return wgpu.VertexFormatFloat32x4
	}
}

// vertexBufferLayouts converts the pipeline's interleaved layout; an empty layout yields no
// vertex buffers, for full-screen passes that generate their vertices.
func vertexBufferLayouts(layout gpu.VertexLayout) []wgpu.VertexBufferLayout {
	if layout.Stride == 0 || len(layout.Attributes) == 0 {
		return nil
	}
	attrs := make([]wgpu.VertexAttribute, len(layout.Attributes))
	for i, a := range layout.Attributes {
		attrs[i] = wgpu.VertexAttribute{
			Format:         vertexFormat(a.Format),
			Offset:         uint64(a.Offset),
			ShaderLocation: a.ShaderLocation,
		}
	}
	return []wgpu.VertexBufferLayout{{
		ArrayStride: uint64(layout.Stride),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}}
}

func compareFunction(c pipeline.CompareFunction) wgpu.CompareFunction {
	switch c {
	case pipeline.CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	case pipeline.CompareAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionLess
	}
}

func cullMode(c pipeline.CullMode) wgpu.CullMode {
	switch c {
	case pipeline.CullBack:
		return wgpu.CullModeBack
	case pipeline.CullFront:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}

func topology(t pipeline.Topology) wgpu.PrimitiveTopology {
	if t == pipeline.TopologyLineList {
		return wgpu.PrimitiveTopologyLineList
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func frontFace(f pipeline.FrontFace) wgpu.FrontFace {
	if f == pipeline.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

// renderTarget is the attachment signature a render pipeline variant is compiled for.
type renderTarget struct {
	colors []wgpu.TextureFormat
	depth  wgpu.TextureFormat
}

// key identifies the signature among a pipeline's variants.
func (t renderTarget) key() string {
	var sb strings.Builder
	for _, c := range t.colors {
		fmt.Fprintf(&sb, "%d,", c)
	}
	fmt.Fprintf(&sb, "|%d", t.depth)
	return sb.String()
}

// blendState is straight alpha blending for color and premultiplied accumulation for alpha.
var blendState = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

// colorTargets builds one target state per attachment. When the pipeline names its color
// formats, attachments past that count are written with an empty mask. Integer targets never blend.
func colorTargets(p pipeline.Pipeline, target renderTarget) []wgpu.ColorTargetState {
	declared := len(p.ColorFormats())
	out := make([]wgpu.ColorTargetState, len(target.colors))
	for i, f := range target.colors {
		state := wgpu.ColorTargetState{Format: f, WriteMask: wgpu.ColorWriteMaskAll}
		if declared > 0 && i >= declared {
			state.WriteMask = wgpu.ColorWriteMask(0)
		}
		if p.BlendEnabled() && !isIntegerFormat(f) {
			blend := blendState
			state.Blend = &blend
		}
		out[i] = state
	}
	return out
}

// depthStencilState returns nil for targets without depth. A pipeline that does not test depth
// still declares the attachment, comparing Always and never writing.
func depthStencilState(p pipeline.Pipeline, target renderTarget) *wgpu.DepthStencilState {
	if target.depth == wgpu.TextureFormatUndefined {
		return nil
	}
	state := &wgpu.DepthStencilState{
		Format:       target.depth,
		DepthCompare: wgpu.CompareFunctionAlways,
		StencilFront: wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		StencilBack:  wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
	}
	if p.DepthTestEnabled() {
		state.DepthCompare = compareFunction(p.DepthCompare())
		state.DepthWriteEnabled = p.DepthWriteEnabled()
		state.DepthBias = p.DepthBias()
		state.DepthBiasSlopeScale = p.DepthBiasSlopeScale()
	}
	return state
}

// renderPipelineDescriptor assembles the descriptor of one variant of p.
//
// Parameters:
//   - p: the pipeline description
//   - module: the shader module holding both entry points
//   - layout: the pipeline layout
//   - target: the attachment signature
//
// Returns:
//   - *wgpu.RenderPipelineDescriptor: the descriptor
func renderPipelineDescriptor(p pipeline.Pipeline, module *wgpu.ShaderModule, layout *wgpu.PipelineLayout, target renderTarget) *wgpu.RenderPipelineDescriptor {
	return &wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.VertexEntryPoint(),
			Buffers:    vertexBufferLayouts(p.VertexLayout()),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.FragmentEntryPoint(),
			Targets:    colorTargets(p, target),
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(p.Topology()),
			FrontFace: frontFace(p.FrontFace()),
			CullMode:  cullMode(p.CullMode()),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencilState(p, target),
	}
}

// fallbackUniformSize is the binding size used for uniform entries whose struct size could not
// be computed from the source.
const fallbackUniformSize = 4096

// dynamicGroupLayouts marks every uniform buffer entry as dynamically offset so draws address
// their block inside the frame's uniform arena.
func dynamicGroupLayouts(descs map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(descs))
	for g, desc := range descs {
		entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
		for i, e := range desc.Entries {
			if e.Buffer.Type == wgpu.BufferBindingTypeUniform {
				e.Buffer.HasDynamicOffset = true
				if e.Buffer.MinBindingSize == 0 {
					e.Buffer.MinBindingSize = fallbackUniformSize
				}
			}
			entries[i] = e
		}
		out[g] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: entries}
	}
	return out
}

// uniformBindingSize returns the size of the group's first uniform entry, or zero when the group
// holds no uniform buffer.
func uniformBindingSize(entries []wgpu.BindGroupLayoutEntry) uint64 {
	for _, e := range entries {
		if e.Buffer.Type == wgpu.BufferBindingTypeUniform {
			return e.Buffer.MinBindingSize
		}
	}
	return 0
}

// viewport is a pixel rectangle within the bound target.
type viewport struct {
	x, y, width, height uint32
}

// clampViewport fits v inside a width×height target; a zero viewport covers the whole target.
func clampViewport(v viewport, width, height uint32) viewport {
	if v.width == 0 || v.height == 0 {
		return viewport{0, 0, width, height}
	}
	x := min(v.x, width)
	y := min(v.y, height)
	return viewport{x, y, min(v.width, width-x), min(v.height, height-y)}
}

// mipExtent returns the size of one mip level.
func mipExtent(width, height, mip uint32) (uint32, uint32) {
	return max(width>>mip, 1), max(height>>mip, 1)
}
