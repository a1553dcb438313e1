package graph

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingPass(name string, inputs, outputs []ResourceHandle, log *[]string) Pass {
	return Pass{
		Name:    name,
		Inputs:  inputs,
		Outputs: outputs,
		Execute: func(ctx *PassContext) {
			*log = append(*log, name)
			ctx.Commands.Submit(command.Clear{})
		},
	}
}

func TestCreateResourceDefaultsAndUniqueness(t *testing.T) {
	g := NewRenderGraph()

	const n = 128
	seen := make(map[ResourceHandle]struct{}, n)
	for i := 0; i < n; i++ {
		h := g.CreateResource()
		require.True(t, h.IsValid())
		seen[h] = struct{}{}
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, g.ResourceCount())

	for h := range seen {
		d, ok := g.Desc(h)
		require.True(t, ok)
		assert.True(t, d.Transient)
		assert.Equal(t, DefaultResourceWidth, d.Width)
		assert.Equal(t, DefaultResourceHeight, d.Height)
		assert.Equal(t, gpu.FormatRGBA8, d.Format)
		break
	}

	g.Reset()
	assert.Equal(t, 0, g.ResourceCount())
	for i := 0; i < n; i++ {
		g.CreateResource()
	}
	assert.Equal(t, n, g.ResourceCount())
}

func TestInvalidHandle(t *testing.T) {
	assert.False(t, InvalidHandle.IsValid())
	assert.Equal(t, "invalid", InvalidHandle.String())
	var zero ResourceHandle
	assert.Equal(t, InvalidHandle, zero)
}

func TestCompileEmptyGraphFails(t *testing.T) {
	g := NewRenderGraph()
	assert.False(t, g.Compile())
	assert.ErrorIs(t, g.LastCompileError(), ErrNoPasses)
	assert.False(t, g.LastCompileSucceeded())

	tb := command.NewTraceBackend()
	q := command.NewQueue()
	g.Execute(q, tb)
	assert.Empty(t, tb.Calls())
	assert.True(t, q.Empty())
}

// Passes generated so that every read refers to a resource written by an earlier pass must
// replay in insertion order unchanged.
func TestCompilePreservesValidInsertionOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		g := NewRenderGraph()
		var written []ResourceHandle
		var want []string

		passes := 2 + rng.Intn(14)
		for i := 0; i < passes; i++ {
			var inputs, outputs []ResourceHandle
			for _, h := range written {
				if rng.Intn(3) == 0 {
					inputs = append(inputs, h)
				}
			}
			if rng.Intn(2) == 0 {
				inputs = append(inputs, g.CreateResource()) // never written
			}
			for k := rng.Intn(3); k > 0; k-- {
				h := g.CreateResource()
				outputs = append(outputs, h)
				written = append(written, h)
			}

			name := fmt.Sprintf("pass%d", i)
			want = append(want, name)
			var sink []string
			g.AddPass(recordingPass(name, inputs, outputs, &sink))
		}

		require.True(t, g.Compile(), "trial %d", trial)
		assert.Equal(t, want, g.Order(), "trial %d", trial)
	}
}

func TestCompileReordersConsumerBeforeProducer(t *testing.T) {
	g := NewRenderGraph()
	gbuffer := g.CreateResource()
	lit := g.CreateResource()

	var ran []string
	g.AddPass(recordingPass("Outline", []ResourceHandle{lit}, nil, &ran))
	g.AddPass(recordingPass("Lighting", []ResourceHandle{gbuffer}, []ResourceHandle{lit}, &ran))
	g.AddPass(recordingPass("GBuffer", nil, []ResourceHandle{gbuffer}, &ran))
	g.AddPass(recordingPass("Independent", nil, nil, &ran))

	require.True(t, g.Compile())
	assert.Equal(t, []string{"GBuffer", "Lighting", "Outline", "Independent"}, g.Order())

	tb := command.NewTraceBackend()
	g.Execute(command.NewQueue(), tb)
	assert.Equal(t, []string{"GBuffer", "Lighting", "Outline", "Independent"}, ran)
	assert.Equal(t, 4, tb.Count("Clear()"))
}

func TestCompileCycleFallsBackToInsertionOrder(t *testing.T) {
	g := NewRenderGraph()
	a := g.CreateResource()
	b := g.CreateResource()

	var ran []string
	g.AddPass(recordingPass("First", []ResourceHandle{b}, []ResourceHandle{a}, &ran))
	g.AddPass(recordingPass("Second", []ResourceHandle{a}, []ResourceHandle{b}, &ran))

	assert.False(t, g.Compile())
	assert.ErrorIs(t, g.LastCompileError(), ErrCycle)
	assert.Contains(t, g.LastCompileError().Error(), "First")
	assert.Equal(t, []string{"First", "Second"}, g.Order())

	g.Execute(command.NewQueue(), command.NewTraceBackend())
	assert.Equal(t, []string{"First", "Second"}, ran)
}

func TestCompileMultipleProducersFails(t *testing.T) {
	g := NewRenderGraph()
	depth := g.CreateResourceDesc(ResourceDesc{Name: "sceneDepth", Format: gpu.FormatDepth24Stencil8})

	var ran []string
	g.AddPass(recordingPass("Reader", []ResourceHandle{depth}, nil, &ran))
	g.AddPass(recordingPass("WriterA", nil, []ResourceHandle{depth}, &ran))
	g.AddPass(recordingPass("WriterB", nil, []ResourceHandle{depth}, &ran))

	assert.False(t, g.Compile())
	assert.ErrorIs(t, g.LastCompileError(), ErrMultipleProducers)
	assert.Contains(t, g.LastCompileError().Error(), "sceneDepth")
	assert.Equal(t, []string{"Reader", "WriterA", "WriterB"}, g.Order())
}

func TestSelfReadAndInvalidHandlesIgnored(t *testing.T) {
	g := NewRenderGraph()
	h := g.CreateResource()

	var ran []string
	g.AddPass(recordingPass("ReadWrite", []ResourceHandle{h, InvalidHandle}, []ResourceHandle{h, InvalidHandle}, &ran))
	g.AddPass(recordingPass("Other", []ResourceHandle{InvalidHandle}, []ResourceHandle{InvalidHandle}, &ran))
	assert.True(t, g.Compile())
}

func TestExecuteSkipsFalseCondition(t *testing.T) {
	g := NewRenderGraph()
	var ran []string
	skip := recordingPass("Skipped", nil, nil, &ran)
	skip.Condition = func() bool { return false }
	keep := recordingPass("Kept", nil, nil, &ran)
	keep.Condition = func() bool { return true }

	g.AddPass(skip)
	g.AddPass(keep)
	g.AddPass(Pass{Name: "NoBody"})

	g.Execute(command.NewQueue(), command.NewTraceBackend())
	assert.Equal(t, []string{"Kept"}, ran)
	assert.Equal(t, 1, g.SkippedPassCount())
}

func TestExecuteCompilesOnlyWhenDirty(t *testing.T) {
	g := NewRenderGraph()
	var ran []string
	g.AddPass(recordingPass("A", nil, nil, &ran))
	require.True(t, g.Compile())

	g.Execute(command.NewQueue(), command.NewTraceBackend())
	g.Execute(command.NewQueue(), command.NewTraceBackend())
	assert.Equal(t, []string{"A", "A"}, ran)

	g.Reset()
	assert.Equal(t, 0, g.PassCount())
	assert.Empty(t, g.Order())
}

func TestImportedFramebufferResolves(t *testing.T) {
	dev := gpu.NewVirtualDevice()
	fb, err := dev.CreateFramebuffer(gpu.FramebufferSpecification{Label: "editor", Width: 800, Height: 600, Attachments: []gpu.TextureFormat{gpu.FormatRGBA8}})
	require.NoError(t, err)

	g := NewRenderGraph()
	target := g.ImportFramebuffer("target", fb)
	other := g.CreateResource()

	d, ok := g.Desc(target)
	require.True(t, ok)
	assert.False(t, d.Transient)
	assert.Equal(t, ResourceFramebuffer, d.Type)
	assert.Equal(t, uint32(800), d.Width)

	var resolved, missing gpu.Framebuffer
	g.AddPass(Pass{
		Name:   "Present",
		Inputs: []ResourceHandle{target},
		Execute: func(ctx *PassContext) {
			resolved = ctx.Framebuffer(target)
			missing = ctx.Framebuffer(other)
			ctx.Commands.Submit(command.BindFramebuffer{Framebuffer: resolved})
		},
	})

	tb := command.NewTraceBackend()
	g.Execute(command.NewQueue(), tb)
	assert.Same(t, fb, resolved)
	assert.Nil(t, missing)
	assert.Equal(t, []string{"BindFramebuffer(editor)"}, tb.Calls())
}
