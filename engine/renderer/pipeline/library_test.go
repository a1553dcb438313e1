package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/stretchr/testify/assert"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("Shadow",
		WithTargets(gpu.FormatDepth32F),
		WithDepthBias(2, 2.5),
		WithCullMode(CullFront),
	)
	assert.Equal(t, "Shadow", p.PipelineKey())
	assert.Equal(t, "vs_main", p.VertexEntryPoint())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.Equal(t, CompareLess, p.DepthCompare())
	assert.Equal(t, gpu.FormatDepth32F, p.DepthFormat())
	assert.Empty(t, p.ColorFormats())
	assert.Equal(t, int32(2), p.DepthBias())
	assert.Equal(t, CullFront, p.CullMode())
	assert.Nil(t, p.Handle())

	p.SetHandle("native")
	assert.Equal(t, "native", p.Handle())
}

func TestWithTargetsFromSpec(t *testing.T) {
	spec := gpu.FramebufferSpecification{Attachments: []gpu.TextureFormat{gpu.FormatRGBA8, gpu.FormatDepth24Stencil8, gpu.FormatR32I}}
	p := NewPipeline("GBufferPBR", WithTargetsFromSpec(spec))
	assert.Equal(t, []gpu.TextureFormat{gpu.FormatRGBA8, gpu.FormatR32I}, p.ColorFormats())
	assert.Equal(t, gpu.FormatDepth24Stencil8, p.DepthFormat())
}

func TestLibrary(t *testing.T) {
	lib := NewLibrary(NewPipeline("b"), NewPipeline("a"), nil)
	assert.True(t, lib.Has("a"))
	assert.False(t, lib.Has("c"))
	assert.Nil(t, lib.Pipeline("c"))
	assert.Equal(t, []string{"a", "b"}, lib.Keys())

	replacement := NewPipeline("a", WithBlendEnabled(true))
	lib.Register(replacement)
	assert.Same(t, replacement, lib.Pipeline("a"))
	assert.Len(t, lib.All(), 2)
}
