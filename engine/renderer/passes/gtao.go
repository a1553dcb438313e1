package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// GTAOPassName is the graph name of the ambient occlusion pass.
const GTAOPassName = "GTAOPass"

// GTAOSettings are the tunables of the GTAO pass.
type GTAOSettings struct {
	Intensity  float32 `toml:"intensity" yaml:"intensity"`
	Radius     float32 `toml:"radius" yaml:"radius"`
	Bias       float32 `toml:"bias" yaml:"bias"`
	Power      float32 `toml:"power" yaml:"power"`
	SliceCount int     `toml:"slice_count" yaml:"slice_count"`
	StepCount  int     `toml:"step_count" yaml:"step_count"`
}

// DefaultGTAOSettings returns intensity 1, radius 1, bias 0.03, power 1.25, 6 slices and 6 steps.
func DefaultGTAOSettings() GTAOSettings {
	return GTAOSettings{Intensity: 1, Radius: 1, Bias: 0.03, Power: 1.25, SliceCount: 6, StepCount: 6}
}

// Clamped returns the settings with slices in [1, 12] and steps in [1, 16].
func (s GTAOSettings) Clamped() GTAOSettings {
	s.SliceCount = common.Clamp(s.SliceCount, 1, 12)
	s.StepCount = common.Clamp(s.StepCount, 1, 16)
	return s
}

type gtaoRenderer struct {
	rendererBase

	framebuffer gpu.Framebuffer
	quad        gpu.VertexArray
}

// GTAORenderer computes ground-truth ambient occlusion into an RG16F target.
type GTAORenderer interface {
	// EnsureFramebuffer (re)creates the occlusion target at the viewport size.
	EnsureFramebuffer(width, height uint32)

	// AddPass appends the GTAO pass reading gBuffer and sceneDepth and writing gtao.
	AddPass(g graph.RenderGraph, ctx *RenderContext, gbuffer GBufferRenderer, settings GTAOSettings, res FrameResources)

	// Output returns the occlusion texture, or nil.
	Output() gpu.Texture

	Release()
}

var _ GTAORenderer = &gtaoRenderer{}

// NewGTAORenderer creates a GTAO renderer.
func NewGTAORenderer(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) GTAORenderer {
	return &gtaoRenderer{rendererBase: newRendererBase(device, library, opts)}
}

func (r *gtaoRenderer) EnsureFramebuffer(width, height uint32) {
	r.framebuffer = r.ensureFramebuffer(r.framebuffer, gpu.FramebufferSpecification{
		Label:       "gtao",
		Width:       width,
		Height:      height,
		Attachments: []gpu.TextureFormat{gpu.FormatRG16F},
	})
}

func (r *gtaoRenderer) Output() gpu.Texture {
	if r.framebuffer == nil {
		return nil
	}
	return r.framebuffer.ColorAttachment(0)
}

func (r *gtaoRenderer) AddPass(g graph.RenderGraph, ctx *RenderContext, gbuffer GBufferRenderer, settings GTAOSettings, res FrameResources) {
	r.quad = r.fullscreenQuad(r.quad, "gtao.quad")
	settings = settings.Clamped()

	g.AddPass(graph.Pass{
		Name:    GTAOPassName,
		Inputs:  handles(res.GBuffer, res.SceneDepth),
		Outputs: handles(res.GTAO),
		Execute: func(pc *graph.PassContext) {
			p := r.pipeline(KeyGTAO)
			gb := gbuffer.Framebuffer()
			if p == nil || gb == nil || r.framebuffer == nil || r.quad == nil {
				return
			}
			uniforms := common.NewUniformWriter(224).
				Mat4(ctx.Camera.Projection).
				Mat4(ctx.Camera.InverseProjection()).
				Mat4(ctx.Camera.View).
				Float32(settings.Radius, settings.Bias, settings.Power, settings.Intensity).
				Int32(int32(settings.SliceCount), int32(settings.StepCount)).
				Align(16).
				Bytes()

			cb := pc.Commands
			cb.Submit(command.BindFramebuffer{Framebuffer: r.framebuffer})
			cb.Submit(command.SetBlendEnabled{Enabled: false})
			cb.Submit(command.SetClearColor{Color: [4]float32{1, 1, 1, 1}})
			cb.Submit(command.Clear{})
			cb.Submit(command.BindPipeline{Pipeline: p})
			cb.Record(func(b command.Backend) {
				command.BindTexture(b, GroupTextures, BindingNormal, gb.ColorAttachment(GBufferNormal))
				command.BindTexture(b, GroupTextures, BindingDepth, gb.DepthAttachment())
				command.SetUniforms(b, GroupPass, uniforms)
			})
			cb.Submit(command.DrawIndexed{VertexArray: r.quad, IndexCount: 6})
			cb.Submit(command.UnbindFramebuffer{})
			cb.Submit(command.SetBlendEnabled{Enabled: true})
		},
	})
}

func (r *gtaoRenderer) Release() {
	if r.framebuffer != nil {
		r.framebuffer.Release()
		r.framebuffer = nil
	}
	if r.quad != nil {
		r.quad.Release()
		r.quad = nil
	}
}
