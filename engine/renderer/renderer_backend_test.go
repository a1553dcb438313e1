package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePresentMode(t *testing.T) {
	mode, err := ParsePresentMode("Uncapped")
	require.NoError(t, err)
	assert.Equal(t, PresentModeUncapped, mode)
	assert.Equal(t, wgpu.PresentModeImmediate, wgpuPresentMode(mode))

	mode, err = ParsePresentMode("")
	require.NoError(t, err)
	assert.Equal(t, "vsync", mode.String())
	assert.Equal(t, wgpu.PresentModeFifo, wgpuPresentMode(mode))

	_, err = ParsePresentMode("mailbox")
	assert.Error(t, err)
}

func TestTextureFormatMapping(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, textureFormat(gpu.FormatRGB16F))
	assert.Equal(t, wgpu.TextureFormatR32Sint, textureFormat(gpu.FormatR32I))
	assert.Equal(t, surfaceDepthFormat, textureFormat(gpu.FormatDepth24Stencil8))
	assert.Equal(t, surfaceDepthFormat, textureFormat(gpu.FormatDepth32F))
	assert.Equal(t, wgpu.TextureFormatUndefined, textureFormat(gpu.FormatNone))
}

func TestSampleTypeCompatible(t *testing.T) {
	assert.True(t, sampleTypeCompatible(wgpu.TextureFormatRGBA16Float, wgpu.TextureSampleTypeFloat))
	assert.True(t, sampleTypeCompatible(wgpu.TextureFormatDepth32Float, wgpu.TextureSampleTypeDepth))
	assert.True(t, sampleTypeCompatible(wgpu.TextureFormatDepth32Float, wgpu.TextureSampleTypeUnfilterableFloat))
	assert.False(t, sampleTypeCompatible(wgpu.TextureFormatDepth32Float, wgpu.TextureSampleTypeFloat))
	assert.False(t, sampleTypeCompatible(wgpu.TextureFormatR32Sint, wgpu.TextureSampleTypeFloat))
	assert.True(t, sampleTypeCompatible(wgpu.TextureFormatR32Sint, wgpu.TextureSampleTypeSint))
}

func TestVertexBufferLayouts(t *testing.T) {
	assert.Nil(t, vertexBufferLayouts(gpu.VertexLayout{}))

	layouts := vertexBufferLayouts(gpu.NewVertexLayout(gpu.VertexFloat32x3, gpu.VertexFloat32x2, gpu.VertexUint32x4))
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(36), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 3)
	assert.Equal(t, uint64(20), layouts[0].Attributes[2].Offset)
	assert.Equal(t, wgpu.VertexFormatUint32x4, layouts[0].Attributes[2].Format)
	assert.Equal(t, uint32(2), layouts[0].Attributes[2].ShaderLocation)
}

func TestDepthStencilState(t *testing.T) {
	withDepth := renderTarget{colors: []wgpu.TextureFormat{wgpu.TextureFormatRGBA8Unorm}, depth: surfaceDepthFormat}
	noDepth := renderTarget{colors: []wgpu.TextureFormat{wgpu.TextureFormatRGBA8Unorm}, depth: wgpu.TextureFormatUndefined}

	tested := pipeline.NewPipeline("mesh", pipeline.WithDepthCompare(pipeline.CompareLessEqual), pipeline.WithDepthBias(2, 1.5))
	state := depthStencilState(tested, withDepth)
	require.NotNil(t, state)
	assert.Equal(t, wgpu.CompareFunctionLessEqual, state.DepthCompare)
	assert.True(t, state.DepthWriteEnabled)
	assert.Equal(t, int32(2), state.DepthBias)
	assert.Nil(t, depthStencilState(tested, noDepth))

	untested := pipeline.NewPipeline("overlay", pipeline.WithDepthTestEnabled(false))
	state = depthStencilState(untested, withDepth)
	require.NotNil(t, state)
	assert.Equal(t, wgpu.CompareFunctionAlways, state.DepthCompare)
	assert.False(t, state.DepthWriteEnabled)
}

func TestColorTargets(t *testing.T) {
	target := renderTarget{colors: []wgpu.TextureFormat{
		wgpu.TextureFormatRGBA16Float,
		wgpu.TextureFormatR32Sint,
		wgpu.TextureFormatRGBA8Unorm,
	}}

	blended := pipeline.NewPipeline("forward", pipeline.WithBlendEnabled(true), pipeline.WithTargets(gpu.FormatDepth24Stencil8, gpu.FormatRGBA16F, gpu.FormatR32I))
	targets := colorTargets(blended, target)
	require.Len(t, targets, 3)
	assert.NotNil(t, targets[0].Blend)
	assert.Nil(t, targets[1].Blend, "integer targets never blend")
	assert.Equal(t, wgpu.ColorWriteMaskAll, targets[1].WriteMask)
	assert.Equal(t, wgpu.ColorWriteMask(0), targets[2].WriteMask)

	opaque := pipeline.NewPipeline("lighting")
	for _, ct := range colorTargets(opaque, target) {
		assert.Nil(t, ct.Blend)
		assert.Equal(t, wgpu.ColorWriteMaskAll, ct.WriteMask)
	}
	assert.Empty(t, colorTargets(opaque, renderTarget{depth: surfaceDepthFormat}))
}

func TestRenderPipelineDescriptor(t *testing.T) {
	p := pipeline.NewPipeline("outline.lines",
		pipeline.WithTopology(pipeline.TopologyLineList),
		pipeline.WithCullMode(pipeline.CullNone),
		pipeline.WithFrontFace(pipeline.FrontFaceCW),
		pipeline.WithVertexLayout(gpu.NewVertexLayout(gpu.VertexFloat32x3, gpu.VertexFloat32x4)),
	)
	desc := renderPipelineDescriptor(p, nil, nil, renderTarget{colors: []wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm}, depth: surfaceDepthFormat})
	assert.Equal(t, "outline.lines", desc.Label)
	assert.Equal(t, "vs_main", desc.Vertex.EntryPoint)
	assert.Equal(t, "fs_main", desc.Fragment.EntryPoint)
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, desc.Primitive.Topology)
	assert.Equal(t, wgpu.CullModeNone, desc.Primitive.CullMode)
	assert.Equal(t, wgpu.FrontFaceCW, desc.Primitive.FrontFace)
	assert.Equal(t, uint32(1), desc.Multisample.Count)
	assert.Len(t, desc.Vertex.Buffers, 1)
	assert.NotNil(t, desc.DepthStencil)
}

func TestRenderTargetKey(t *testing.T) {
	a := renderTarget{colors: []wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float}, depth: surfaceDepthFormat}
	b := renderTarget{colors: []wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float}, depth: wgpu.TextureFormatUndefined}
	c := renderTarget{colors: []wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float}, depth: surfaceDepthFormat}
	assert.NotEqual(t, a.key(), b.key())
	assert.Equal(t, a.key(), c.key())
}

func TestDynamicGroupLayouts(t *testing.T) {
	in := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 144}}}},
		1: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}}}},
		3: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat}}}},
	}
	out := dynamicGroupLayouts(in)
	assert.True(t, out[0].Entries[0].Buffer.HasDynamicOffset)
	assert.Equal(t, uint64(144), uniformBindingSize(out[0].Entries))
	assert.Equal(t, uint64(fallbackUniformSize), uniformBindingSize(out[1].Entries))
	assert.Zero(t, uniformBindingSize(out[3].Entries))
	assert.False(t, in[0].Entries[0].Buffer.HasDynamicOffset, "input left untouched")
}

func TestClampViewport(t *testing.T) {
	assert.Equal(t, viewport{0, 0, 800, 600}, clampViewport(viewport{}, 800, 600))
	assert.Equal(t, viewport{100, 50, 700, 550}, clampViewport(viewport{100, 50, 1920, 1080}, 800, 600))
	assert.Equal(t, viewport{0, 0, 256, 256}, clampViewport(viewport{0, 0, 256, 256}, 512, 512))
}

func TestMipExtent(t *testing.T) {
	w, h := mipExtent(128, 64, 3)
	assert.Equal(t, uint32(16), w)
	assert.Equal(t, uint32(8), h)
	w, h = mipExtent(128, 64, 9)
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)
}

func TestPassDescriptor(t *testing.T) {
	colors := []*wgpu.TextureView{{}, {}}
	depth := &wgpu.TextureView{}

	desc := passDescriptor(colors, depth, true, [4]float32{0.1, 0.2, 0.3, 1}, map[int][4]float32{1: {-1, 0, 0, 0}})
	require.Len(t, desc.ColorAttachments, 2)
	assert.Equal(t, wgpu.LoadOpClear, desc.ColorAttachments[0].LoadOp)
	assert.InDelta(t, 0.2, desc.ColorAttachments[0].ClearValue.G, 1e-6)
	assert.Equal(t, -1.0, desc.ColorAttachments[1].ClearValue.R)
	require.NotNil(t, desc.DepthStencilAttachment)
	assert.EqualValues(t, 1, desc.DepthStencilAttachment.DepthClearValue)

	load := passDescriptor(colors[:1], nil, false, [4]float32{}, nil)
	assert.Equal(t, wgpu.LoadOpLoad, load.ColorAttachments[0].LoadOp)
	assert.Nil(t, load.DepthStencilAttachment)
}
