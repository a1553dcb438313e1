package command

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyedPipeline string

func (k keyedPipeline) PipelineKey() string { return string(k) }

func TestCommandBufferIgnoresNil(t *testing.T) {
	cb := NewCommandBuffer("test")
	cb.Submit(nil)
	cb.Record(nil)
	assert.True(t, cb.Empty())
	assert.Equal(t, 0, cb.Len())

	cb.Submit(Clear{})
	cb.Record(func(Backend) {})
	assert.Equal(t, 2, cb.Len())
	assert.Equal(t, KindCustom, cb.Commands()[1].Kind())
}

func TestCommandBufferExecuteKeepsCommands(t *testing.T) {
	cb := NewCommandBuffer("test")
	cb.Submit(SetViewport{Width: 640, Height: 480})
	cb.Submit(Clear{})

	tb := NewTraceBackend()
	cb.Execute(tb)
	cb.Execute(tb)
	assert.Equal(t, 2, cb.Len())
	assert.Equal(t, []string{
		"SetViewport(0,0,640,480)", "Clear()",
		"SetViewport(0,0,640,480)", "Clear()",
	}, tb.Calls())
}

func TestQueueSkipsNilAndEmptyBuffers(t *testing.T) {
	q := NewQueue()
	q.Submit(nil)
	q.Submit(NewCommandBuffer("empty"))
	assert.True(t, q.Empty())

	cb := NewCommandBuffer("one")
	cb.Submit(Clear{})
	q.Submit(cb)
	assert.Equal(t, 1, q.PendingBufferCount())

	q.Clear()
	assert.True(t, q.Empty())
	assert.Equal(t, 1, cb.Len(), "Clear must not touch the buffer contents")
}

func TestQueueFlushReplaysInSubmissionOrderAndClears(t *testing.T) {
	dev := gpu.NewVirtualDevice()
	fb, err := dev.CreateFramebuffer(gpu.FramebufferSpecification{Label: "gbuffer", Width: 4, Height: 4, Attachments: []gpu.TextureFormat{gpu.FormatRGBA8}})
	require.NoError(t, err)
	va, err := dev.CreateVertexArray(gpu.VertexArrayDescriptor{Label: "cube", Layout: gpu.NewVertexLayout(gpu.VertexFloat32x3), Indices: make([]uint32, 36)})
	require.NoError(t, err)

	first := NewCommandBuffer("first")
	first.Submit(BindFramebuffer{Framebuffer: fb})
	first.Submit(BindPipeline{Pipeline: keyedPipeline("GBufferPBR")})
	first.Submit(DrawIndexed{VertexArray: va, IndexCount: 36})

	second := NewCommandBuffer("second")
	second.Submit(UnbindFramebuffer{})
	second.Submit(SetBlendEnabled{Enabled: true})
	second.Submit(SetLineWidth{Width: 2})
	second.Submit(DrawLines{VertexArray: va, VertexCount: 24})
	second.Submit(DrawIndexedInstanced{VertexArray: va, IndexCount: 36, InstanceCount: 3})
	second.Submit(SetClearColor{Color: [4]float32{0, 0, 0, 1}})
	var ran bool
	second.Record(func(b Backend) {
		ran = true
		SetUniforms(b, 1, make([]byte, 64))
	})

	q := NewQueue()
	q.Submit(first)
	q.Submit(second)

	tb := NewTraceBackend()
	q.Flush(tb)

	assert.True(t, ran)
	assert.True(t, q.Empty())
	assert.True(t, first.Empty())
	assert.True(t, second.Empty())
	assert.Equal(t, []string{
		"BindFramebuffer(gbuffer)",
		"BindPipeline(GBufferPBR)",
		"DrawIndexed(cube,36,0)",
		"UnbindFramebuffer()",
		"SetBlendEnabled(true)",
		"SetLineWidth(2)",
		"DrawLines(cube,24)",
		"DrawIndexedInstanced(cube,36,3)",
		"SetClearColor(0,0,0,1)",
		"SetUniforms(1,64)",
	}, tb.Calls())
	assert.Equal(t, "default", tb.BoundFramebuffer())
}

type bareBackend struct {
	draws int
}

func (b *bareBackend) SetViewport(x, y, width, height uint32)                         {}
func (b *bareBackend) SetClearColor(color [4]float32)                                 {}
func (b *bareBackend) Clear()                                                         {}
func (b *bareBackend) SetBlendEnabled(enabled bool)                                   {}
func (b *bareBackend) SetLineWidth(width float32)                                     {}
func (b *bareBackend) BindPipeline(p gpu.Pipeline)                                    {}
func (b *bareBackend) BindFramebuffer(fb gpu.Framebuffer)                             {}
func (b *bareBackend) UnbindFramebuffer()                                             {}
func (b *bareBackend) DrawIndexed(va gpu.VertexArray, indexCount, indexOffset uint32) { b.draws++ }
func (b *bareBackend) DrawIndexedInstanced(va gpu.VertexArray, indexCount, n uint32)  { b.draws++ }
func (b *bareBackend) DrawLines(va gpu.VertexArray, vertexCount uint32)               { b.draws++ }

func TestCapabilityHelpersDegradeOnBareBackend(t *testing.T) {
	b := &bareBackend{}
	assert.NotPanics(t, func() {
		SetUniforms(b, 0, []byte{1})
		BindTexture(b, 0, 0, nil)
		SetAttachmentClearValue(b, 4, [4]float32{-1})
		BlitDepth(b, nil, nil)
		CopyToTexture(b, nil, nil, 0, 0)
	})
}

func TestCommandKindString(t *testing.T) {
	assert.Equal(t, "DrawIndexed", KindDrawIndexed.String())
	assert.Equal(t, "CommandKind(99)", CommandKind(99).String())
}
