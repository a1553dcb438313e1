package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// Graph names of the forward passes.
const (
	ForwardPassName     = "ForwardPass"
	TransparentPassName = "TransparentPass"
)

type forwardRenderer struct {
	rendererBase
}

// ForwardRenderer shades meshes directly into the target: the whole opaque scene in forward
// mode, and the transparent remainder in both modes.
type ForwardRenderer interface {
	// AddPass appends the opaque forward pass or, when drawTransparent is set, the transparent
	// pass. Only visible commands whose Transparent flag equals drawTransparent are drawn,
	// in submission order.
	//
	// Parameters:
	//   - g: the frame graph
	//   - ctx: the frame context
	//   - drawTransparent: which half of the draw list to draw
	//   - src: the shadow and environment renderers sampled while shading
	//   - res: the frame resources
	AddPass(g graph.RenderGraph, ctx *RenderContext, drawTransparent bool, src Sources, res FrameResources)
}

var _ ForwardRenderer = &forwardRenderer{}

// NewForwardRenderer creates a forward renderer.
func NewForwardRenderer(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) ForwardRenderer {
	return &forwardRenderer{rendererBase: newRendererBase(device, library, opts)}
}

func (r *forwardRenderer) AddPass(g graph.RenderGraph, ctx *RenderContext, drawTransparent bool, src Sources, res FrameResources) {
	pass := graph.Pass{
		Name:    ForwardPassName,
		Inputs:  handles(res.ShadowMap, res.IBL),
		Outputs: handles(res.SceneDepth, res.LightingResult),
	}
	if drawTransparent {
		pass.Name = TransparentPassName
		pass.Inputs = handles(res.ShadowMap, res.IBL, res.SceneDepth, res.LightingResult)
		pass.Outputs = nil
	}

	pass.Execute = func(pc *graph.PassContext) {
		cb := pc.Commands
		ctx.bindTarget(cb)
		if !drawTransparent {
			cb.Submit(command.SetClearColor{Color: ctx.ClearColor})
			cb.Submit(command.Clear{})
		}
		cb.Submit(command.SetBlendEnabled{Enabled: drawTransparent})

		shadow, lightSpace, shadowed := src.shadowMap(ctx)
		lights := ctx.LightBlock(shadowed, lightSpace)
		frame := marshalFrameBlock(ctx)
		maxLOD := src.prefilterMaxLOD()
		iblReady := ctx.UseIBL && src.Environment != nil && src.Environment.IBLReady()

		var bound pipeline.Pipeline
		for i := range ctx.Commands {
			cmd := &ctx.Commands[i]
			if !cmd.Visible || cmd.Transparent != drawTransparent || cmd.VertexArray == nil {
				continue
			}
			p := r.pipeline(meshPipelineKey(cmd.Pipeline, false, drawTransparent))
			if p == nil {
				continue
			}
			if p != bound {
				bound = p
				cb.Submit(command.BindPipeline{Pipeline: p})
				cb.Record(func(b command.Backend) {
					command.SetUniforms(b, GroupPass, frame)
					command.SetUniforms(b, GroupLights, lights)
					command.BindTexture(b, GroupTextures, BindingShadowMap, shadow)
				})
			}
			ibl := iblReady && usesIBL(cmd)
			draw := marshalDrawBlock(cmd, ibl, maxLOD)
			cb.Record(func(b command.Backend) {
				if ibl {
					src.bindIBL(b)
				}
				command.SetUniforms(b, GroupDraw, draw)
			})
			cb.Submit(command.DrawIndexed{VertexArray: cmd.VertexArray, IndexCount: cmd.IndexCount, IndexOffset: cmd.IndexOffset})
			ctx.countGeometry()
		}

		if !drawTransparent {
			cb.Submit(command.SetBlendEnabled{Enabled: true})
		}
	}
	g.AddPass(pass)
}
