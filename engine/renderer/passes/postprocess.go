package passes

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// Graph names of the post-process passes.
const (
	DepthViewPassName    = "DepthViewPass"
	GBufferDebugPassName = "GBufferDebugPass"
)

// GBufferDebugMode selects which intermediate the G-buffer debug view shows.
type GBufferDebugMode int

const (
	DebugNone GBufferDebugMode = iota
	DebugAlbedo
	DebugNormal
	DebugMaterial
	DebugRoughness
	DebugMetallic
	DebugAO
	DebugEmissive
	DebugDepth
	DebugObjectID
	DebugSSGI
	DebugGTAO
)

var debugModeNames = [...]string{
	"none", "albedo", "normal", "material", "roughness", "metallic",
	"ao", "emissive", "depth", "object_id", "ssgi", "gtao",
}

func (m GBufferDebugMode) String() string {
	if m < 0 || int(m) >= len(debugModeNames) {
		return fmt.Sprintf("GBufferDebugMode(%d)", int(m))
	}
	return debugModeNames[m]
}

// ParseGBufferDebugMode resolves a mode by its String name, case-insensitively.
func ParseGBufferDebugMode(name string) (GBufferDebugMode, error) {
	for i, n := range debugModeNames {
		if strings.EqualFold(n, name) {
			return GBufferDebugMode(i), nil
		}
	}
	return DebugNone, fmt.Errorf("passes: unknown G-buffer debug mode %q", name)
}

// MarshalText implements encoding.TextMarshaler so settings files carry the mode by name.
func (m GBufferDebugMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *GBufferDebugMode) UnmarshalText(text []byte) error {
	mode, err := ParseGBufferDebugMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

type postProcessRenderer struct {
	rendererBase

	quad gpu.VertexArray
}

// PostProcessRenderer draws the debug visualisations that replace or overlay the lit image.
type PostProcessRenderer interface {
	// AddDepthViewPass appends the linearised depth view. It needs a target framebuffer; without
	// one nothing is added.
	//
	// Parameters:
	//   - g: the frame graph
	//   - ctx: the frame context
	//   - gbuffer: the G-buffer renderer whose depth is shown in deferred mode, or nil
	//   - power: the depth curve exponent
	//   - res: the frame resources
	//
	// Returns:
	//   - bool: whether a pass was added
	AddDepthViewPass(g graph.RenderGraph, ctx *RenderContext, gbuffer GBufferRenderer, power float32, res FrameResources) bool

	// AddGBufferDebugPass appends the G-buffer debug view writing lightingResult.
	AddGBufferDebugPass(g graph.RenderGraph, ctx *RenderContext, src Sources, mode GBufferDebugMode, depthPower float32, res FrameResources)

	Release()
}

var _ PostProcessRenderer = &postProcessRenderer{}

// NewPostProcessRenderer creates a post-process renderer.
func NewPostProcessRenderer(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) PostProcessRenderer {
	return &postProcessRenderer{rendererBase: newRendererBase(device, library, opts)}
}

func (r *postProcessRenderer) AddDepthViewPass(g graph.RenderGraph, ctx *RenderContext, gbuffer GBufferRenderer, power float32, res FrameResources) bool {
	target := ctx.TargetFramebuffer
	if target == nil {
		return false
	}
	r.quad = r.fullscreenQuad(r.quad, "postprocess.quad")
	uniforms := common.NewUniformWriter(16).Float32(ctx.Camera.Near, ctx.Camera.Far).Uint32(1).Float32(power).Bytes()

	g.AddPass(graph.Pass{
		Name:   DepthViewPassName,
		Inputs: handles(res.SceneDepth, res.LightingResult),
		Execute: func(pc *graph.PassContext) {
			p := r.pipeline(KeyDepthView)
			if p == nil || r.quad == nil {
				return
			}
			depth := target.DepthAttachment()
			if gbuffer != nil && gbuffer.Framebuffer() != nil {
				depth = gbuffer.Framebuffer().DepthAttachment()
			}
			cb := pc.Commands
			cb.Submit(command.BindFramebuffer{Framebuffer: target})
			cb.Submit(command.BindPipeline{Pipeline: p})
			cb.Record(func(b command.Backend) {
				command.BindTexture(b, GroupTextures, BindingDepth, depth)
				command.SetUniforms(b, GroupPass, uniforms)
			})
			cb.Submit(command.DrawIndexed{VertexArray: r.quad, IndexCount: 6})
		},
	})
	return true
}

func (r *postProcessRenderer) AddGBufferDebugPass(g graph.RenderGraph, ctx *RenderContext, src Sources, mode GBufferDebugMode, depthPower float32, res FrameResources) {
	r.quad = r.fullscreenQuad(r.quad, "postprocess.quad")
	uniforms := common.NewUniformWriter(16).Int32(int32(mode)).Float32(ctx.Camera.Near, ctx.Camera.Far, depthPower).Bytes()

	g.AddPass(graph.Pass{
		Name:    GBufferDebugPassName,
		Inputs:  handles(res.GBuffer, res.SceneDepth, res.SSGI, res.GTAO),
		Outputs: handles(res.LightingResult),
		Execute: func(pc *graph.PassContext) {
			p := r.pipeline(KeyGBufferDebug)
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

			cb := pc.Commands
			ctx.bindTarget(cb)
			cb.Submit(command.BindPipeline{Pipeline: p})
			cb.Record(func(b command.Backend) {
				for i := 0; i < gb.ColorAttachmentCount(); i++ {
					command.BindTexture(b, GroupTextures, BindingAlbedo+uint32(i), gb.ColorAttachment(i))
				}
				command.BindTexture(b, GroupTextures, BindingDepth, gb.DepthAttachment())
				command.BindTexture(b, GroupTextures, BindingSSGI, ssgi)
				command.BindTexture(b, GroupTextures, BindingGTAO, gtao)
				command.SetUniforms(b, GroupPass, uniforms)
			})
			cb.Submit(command.DrawIndexed{VertexArray: r.quad, IndexCount: 6})
		},
	})
}

func (r *postProcessRenderer) Release() {
	if r.quad != nil {
		r.quad.Release()
		r.quad = nil
	}
}
