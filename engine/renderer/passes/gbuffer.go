package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// GBufferPassName is the graph name of the geometry pass.
const GBufferPassName = "GBufferPass"

// G-buffer color attachment indices.
const (
	GBufferAlbedo = iota
	GBufferNormal
	GBufferMaterial
	GBufferEmissive
	GBufferObjectID
)

// GBufferSpecification returns the G-buffer layout: albedo RGBA8, normal, material and emissive
// RGB16F, object id R32I and a DEPTH24STENCIL8 depth attachment.
func GBufferSpecification(label string, width, height uint32) gpu.FramebufferSpecification {
	return gpu.FramebufferSpecification{
		Label:  label,
		Width:  width,
		Height: height,
		Attachments: []gpu.TextureFormat{
			gpu.FormatRGBA8,
			gpu.FormatRGB16F,
			gpu.FormatRGB16F,
			gpu.FormatRGB16F,
			gpu.FormatR32I,
			gpu.FormatDepth24Stencil8,
		},
	}
}

// gbufferRenderer is the implementation of the GBufferRenderer interface.
type gbufferRenderer struct {
	rendererBase

	framebuffer gpu.Framebuffer
}

// GBufferRenderer rasterizes opaque visible geometry into the G-buffer.
type GBufferRenderer interface {
	// EnsureFramebuffer (re)creates the G-buffer at the viewport size. A zero size is a no-op.
	EnsureFramebuffer(width, height uint32)

	// AddPass appends the geometry pass writing gBuffer and sceneDepth. The G-buffer depth is
	// blitted into the target framebuffer, or the swapchain, afterwards.
	//
	// Parameters:
	//   - g: the frame graph
	//   - ctx: the frame context
	//   - gBuffer: the G-buffer handle
	//   - sceneDepth: the scene depth handle
	AddPass(g graph.RenderGraph, ctx *RenderContext, gBuffer, sceneDepth graph.ResourceHandle)

	// Framebuffer returns the G-buffer, or nil before EnsureFramebuffer succeeds.
	Framebuffer() gpu.Framebuffer

	// Release frees the G-buffer.
	Release()
}

var _ GBufferRenderer = &gbufferRenderer{}

// NewGBufferRenderer creates a G-buffer renderer.
func NewGBufferRenderer(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) GBufferRenderer {
	return &gbufferRenderer{rendererBase: newRendererBase(device, library, opts)}
}

func (r *gbufferRenderer) EnsureFramebuffer(width, height uint32) {
	r.framebuffer = r.ensureFramebuffer(r.framebuffer, GBufferSpecification("gbuffer", width, height))
}

func (r *gbufferRenderer) Framebuffer() gpu.Framebuffer {
	return r.framebuffer
}

func (r *gbufferRenderer) AddPass(g graph.RenderGraph, ctx *RenderContext, gBuffer, sceneDepth graph.ResourceHandle) {
	g.AddPass(graph.Pass{
		Name:    GBufferPassName,
		Outputs: handles(gBuffer, sceneDepth),
		Execute: func(pc *graph.PassContext) {
			fb := r.framebuffer
			if fb == nil {
				r.skip(GBufferPassName, "no G-buffer")
				return
			}
			cb := pc.Commands
			cb.Submit(command.BindFramebuffer{Framebuffer: fb})
			cb.Submit(command.SetBlendEnabled{Enabled: false})
			cb.Submit(command.SetClearColor{Color: [4]float32{0, 0, 0, 1}})
			cb.Record(func(b command.Backend) {
				command.SetAttachmentClearValue(b, GBufferObjectID, [4]float32{-1, 0, 0, 0})
			})
			cb.Submit(command.Clear{})

			frame := marshalFrameBlock(ctx)
			var bound pipeline.Pipeline
			for i := range ctx.Commands {
				cmd := &ctx.Commands[i]
				if !cmd.Visible || cmd.Transparent || cmd.VertexArray == nil {
					continue
				}
				p := r.pipeline(meshPipelineKey(cmd.Pipeline, true, false))
				if p == nil {
					continue
				}
				if p != bound {
					bound = p
					cb.Submit(command.BindPipeline{Pipeline: p})
					cb.Record(func(b command.Backend) {
						command.SetUniforms(b, GroupPass, frame)
					})
				}
				draw := marshalDrawBlock(cmd, false, 0)
				cb.Record(func(b command.Backend) {
					command.SetUniforms(b, GroupDraw, draw)
				})
				cb.Submit(command.DrawIndexed{VertexArray: cmd.VertexArray, IndexCount: cmd.IndexCount, IndexOffset: cmd.IndexOffset})
				ctx.countGeometry()
			}

			// A nil target blits into the swapchain depth.
			target := ctx.TargetFramebuffer
			cb.Record(func(b command.Backend) {
				command.BlitDepth(b, fb, target)
			})
			if target != nil {
				cb.Submit(command.BindFramebuffer{Framebuffer: target})
			} else {
				cb.Submit(command.UnbindFramebuffer{})
				cb.Submit(command.SetViewport{Width: ctx.ViewportWidth, Height: ctx.ViewportHeight})
			}
			cb.Submit(command.SetBlendEnabled{Enabled: true})
		},
	})
}

func (r *gbufferRenderer) Release() {
	if r.framebuffer != nil {
		r.framebuffer.Release()
		r.framebuffer = nil
	}
}
