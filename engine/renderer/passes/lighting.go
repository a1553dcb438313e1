package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// LightingPassName is the graph name of the deferred lighting pass.
const LightingPassName = "LightingPass"

// Sources are the renderers whose outputs a shading pass samples. Nil members are features that
// are off this frame.
type Sources struct {
	GBuffer     GBufferRenderer
	Shadow      ShadowRenderer
	SSGI        SSGIRenderer
	GTAO        GTAORenderer
	Environment EnvironmentRenderer
}

// shadowMap returns the shadow texture and light-space matrix when shadows apply this frame.
func (s Sources) shadowMap(ctx *RenderContext) (gpu.Texture, common.Mat4, bool) {
	if !ctx.EnableShadows || s.Shadow == nil || !s.Shadow.HasLight() {
		return nil, common.Identity4(), false
	}
	tex := s.Shadow.ShadowMap()
	if tex == nil {
		return nil, common.Identity4(), false
	}
	return tex, s.Shadow.LightSpaceMatrix(), true
}

// bindIBL binds the environment textures when the environment renderer has baked them.
func (s Sources) bindIBL(b command.Backend) bool {
	if s.Environment == nil {
		return false
	}
	return s.Environment.BindIBL(b)
}

func (s Sources) prefilterMaxLOD() float32 {
	if s.Environment == nil {
		return 0
	}
	return s.Environment.PrefilterMaxLOD()
}

type lightingRenderer struct {
	rendererBase

	quad gpu.VertexArray
}

// LightingRenderer resolves the G-buffer into the lit image with a fullscreen pass.
type LightingRenderer interface {
	// AddPass appends the lighting pass. It samples the G-buffer, the shadow map and, when their
	// renderers are set in src, SSGI, GTAO and the baked IBL, and writes lightingResult.
	//
	// Parameters:
	//   - g: the frame graph
	//   - ctx: the frame context
	//   - src: the renderers sampled by the pass
	//   - res: the frame resources
	AddPass(g graph.RenderGraph, ctx *RenderContext, src Sources, res FrameResources)

	Release()
}

var _ LightingRenderer = &lightingRenderer{}

// NewLightingRenderer creates a deferred lighting renderer.
func NewLightingRenderer(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) LightingRenderer {
	return &lightingRenderer{rendererBase: newRendererBase(device, library, opts)}
}

func (r *lightingRenderer) AddPass(g graph.RenderGraph, ctx *RenderContext, src Sources, res FrameResources) {
	r.quad = r.fullscreenQuad(r.quad, "lighting.quad")

	g.AddPass(graph.Pass{
		Name:    LightingPassName,
		Inputs:  handles(res.GBuffer, res.ShadowMap, res.SceneDepth, res.SSGI, res.GTAO, res.IBL),
		Outputs: handles(res.LightingResult),
		Execute: func(pc *graph.PassContext) {
			p := r.pipeline(KeyDeferredLighting)
			gb := pc.Framebuffer(res.GBuffer)
			if gb == nil && src.GBuffer != nil {
				gb = src.GBuffer.Framebuffer()
			}
			if p == nil || gb == nil || r.quad == nil {
				return
			}

			var ssgi, gtao gpu.Texture
			if src.SSGI != nil {
				ssgi = src.SSGI.Output()
			}
			if src.GTAO != nil {
				gtao = src.GTAO.Output()
			}
			shadow, lightSpace, shadowed := src.shadowMap(ctx)
			lights := ctx.LightBlock(shadowed, lightSpace)
			useIBL := ctx.UseIBL && src.Environment != nil && src.Environment.IBLReady()

			uniforms := common.NewUniformWriter(96).
				Mat4(ctx.Camera.InverseViewProjection()).
				Vec4(ctx.Camera.Position(), 1).
				Bool(ssgi != nil).
				Bool(gtao != nil).
				Bool(useIBL).
				Float32(src.prefilterMaxLOD()).
				Bytes()

			cb := pc.Commands
			ctx.bindTarget(cb)
			cb.Submit(command.SetBlendEnabled{Enabled: false})
			cb.Submit(command.BindPipeline{Pipeline: p})
			cb.Record(func(b command.Backend) {
				command.BindTexture(b, GroupTextures, BindingAlbedo, gb.ColorAttachment(GBufferAlbedo))
				command.BindTexture(b, GroupTextures, BindingNormal, gb.ColorAttachment(GBufferNormal))
				command.BindTexture(b, GroupTextures, BindingMaterial, gb.ColorAttachment(GBufferMaterial))
				command.BindTexture(b, GroupTextures, BindingEmissive, gb.ColorAttachment(GBufferEmissive))
				command.BindTexture(b, GroupTextures, BindingDepth, gb.DepthAttachment())
				command.BindTexture(b, GroupTextures, BindingSSGI, ssgi)
				command.BindTexture(b, GroupTextures, BindingGTAO, gtao)
				command.BindTexture(b, GroupTextures, BindingShadowMap, shadow)
				if useIBL {
					src.bindIBL(b)
				}
				command.SetUniforms(b, GroupPass, uniforms)
				command.SetUniforms(b, GroupLights, lights)
			})
			cb.Submit(command.DrawIndexed{VertexArray: r.quad, IndexCount: 6})
			cb.Submit(command.SetBlendEnabled{Enabled: true})
		},
	})
}

func (r *lightingRenderer) Release() {
	if r.quad != nil {
		r.quad.Release()
		r.quad = nil
	}
}
