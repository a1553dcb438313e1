package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// ShadowPassName is the graph name of the directional shadow pass.
const ShadowPassName = "ShadowPass"

// shadowRenderer is the implementation of the ShadowRenderer interface.
type shadowRenderer struct {
	rendererBase

	framebuffer gpu.Framebuffer
	lightSpace  common.Mat4
	hasLight    bool
}

// ShadowRenderer renders the main directional light's depth into a square shadow map.
type ShadowRenderer interface {
	// EnsureFramebuffer (re)creates the DEPTH32F shadow map when its size differs from size.
	//
	// Parameters:
	//   - size: width and height in texels; zero is a no-op
	EnsureFramebuffer(size uint32)

	// AddPass appends the shadow pass writing shadowMap. Every static command in the draw list is
	// drawn, culled or not, so off-screen casters still shadow visible receivers.
	//
	// Parameters:
	//   - g: the frame graph
	//   - ctx: the frame context
	//   - shadowMap: the handle the pass writes
	AddPass(g graph.RenderGraph, ctx *RenderContext, shadowMap graph.ResourceHandle)

	// LightSpaceMatrix returns the matrix computed by the last AddPass.
	LightSpaceMatrix() common.Mat4

	// HasLight reports whether the last AddPass found a main directional light.
	HasLight() bool

	// ShadowMap returns the depth texture, or nil before EnsureFramebuffer succeeds.
	ShadowMap() gpu.Texture

	// Framebuffer returns the shadow framebuffer, or nil.
	Framebuffer() gpu.Framebuffer

	// Release frees the shadow map.
	Release()
}

var _ ShadowRenderer = &shadowRenderer{}

// NewShadowRenderer creates a shadow renderer. The framebuffer is created by EnsureFramebuffer.
//
// Parameters:
//   - device: the device GPU objects are created on
//   - library: the pipeline registry
//   - opts: renderer options
//
// Returns:
//   - ShadowRenderer: the renderer
func NewShadowRenderer(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) ShadowRenderer {
	return &shadowRenderer{
		rendererBase: newRendererBase(device, library, opts),
		lightSpace:   common.Identity4(),
	}
}

func (s *shadowRenderer) EnsureFramebuffer(size uint32) {
	s.framebuffer = s.ensureFramebuffer(s.framebuffer, gpu.FramebufferSpecification{
		Label:       "shadow",
		Width:       size,
		Height:      size,
		Attachments: []gpu.TextureFormat{gpu.FormatDepth32F},
	})
}

func (s *shadowRenderer) AddPass(g graph.RenderGraph, ctx *RenderContext, shadowMap graph.ResourceHandle) {
	main := ctx.Environment.Main()
	s.hasLight = main != nil
	if s.hasLight {
		s.lightSpace = light.LightSpaceMatrix(main.Direction())
	} else {
		s.lightSpace = common.Identity4()
	}
	lightSpace := s.lightSpace

	g.AddPass(graph.Pass{
		Name:    ShadowPassName,
		Outputs: handles(shadowMap),
		Execute: func(pc *graph.PassContext) {
			p := s.pipeline(KeyShadow)
			if p == nil || s.framebuffer == nil || !s.hasLight {
				return
			}
			cb := pc.Commands
			cb.Submit(command.BindFramebuffer{Framebuffer: s.framebuffer})
			cb.Submit(command.Clear{})
			cb.Submit(command.BindPipeline{Pipeline: p})
			cb.Record(func(b command.Backend) {
				command.SetUniforms(b, GroupPass, common.NewUniformWriter(64).Mat4(lightSpace).Bytes())
			})

			for i := range ctx.Commands {
				cmd := &ctx.Commands[i]
				// The depth-only pipeline reads the static vertex layout; skinned meshes cast no shadow.
				if cmd.VertexArray == nil || cmd.Skinned {
					continue
				}
				model := common.NewUniformWriter(64).Mat4(cmd.Transform).Bytes()
				cb.Record(func(b command.Backend) {
					command.SetUniforms(b, GroupDraw, model)
				})
				cb.Submit(command.DrawIndexed{VertexArray: cmd.VertexArray, IndexCount: cmd.IndexCount, IndexOffset: cmd.IndexOffset})
				ctx.countShadow()
			}

			ctx.bindTarget(cb)
		},
	})
}

func (s *shadowRenderer) LightSpaceMatrix() common.Mat4 {
	return s.lightSpace
}

func (s *shadowRenderer) HasLight() bool {
	return s.hasLight
}

func (s *shadowRenderer) ShadowMap() gpu.Texture {
	if s.framebuffer == nil {
		return nil
	}
	return s.framebuffer.DepthAttachment()
}

func (s *shadowRenderer) Framebuffer() gpu.Framebuffer {
	return s.framebuffer
}

func (s *shadowRenderer) Release() {
	if s.framebuffer != nil {
		s.framebuffer.Release()
		s.framebuffer = nil
	}
}
