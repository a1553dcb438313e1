package passes

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/chewxy/math32"
)

// SSGIPassName is the graph name of the screen-space global illumination pass.
const SSGIPassName = "SSGIPass"

// ssgiChangeEpsilon is the tolerance below which view and settings changes keep the history.
const ssgiChangeEpsilon = 1e-4

// SSGISettings are the tunables of the SSGI pass.
type SSGISettings struct {
	Intensity   float32 `toml:"intensity" yaml:"intensity"`
	Radius      float32 `toml:"radius" yaml:"radius"`
	Bias        float32 `toml:"bias" yaml:"bias"`
	SampleCount int     `toml:"sample_count" yaml:"sample_count"`
}

// DefaultSSGISettings returns intensity 1, radius 1, bias 0.05 and 16 samples.
func DefaultSSGISettings() SSGISettings {
	return SSGISettings{Intensity: 1, Radius: 1, Bias: 0.05, SampleCount: 16}
}

// ssgiRenderer is the implementation of the SSGIRenderer interface.
type ssgiRenderer struct {
	rendererBase

	framebuffers [2]gpu.Framebuffer
	quad         gpu.VertexArray

	historyIndex int
	frameIndex   uint32
	historyValid bool
	wasEnabled   bool

	lastViewProj common.Mat4
	lastSettings SSGISettings
}

// SSGIRenderer accumulates screen-space indirect light over frames in a ping-pong pair of
// RGB16F framebuffers. Any camera or settings change restarts the accumulation.
type SSGIRenderer interface {
	// EnsureFramebuffers (re)creates both history framebuffers on a size change, resetting all
	// temporal state. A zero size is a no-op.
	EnsureFramebuffers(width, height uint32)

	// AddPass appends the SSGI pass reading gBuffer and sceneDepth and writing ssgi. The temporal
	// state advances when the pass executes.
	//
	// Parameters:
	//   - g: the frame graph
	//   - ctx: the frame context
	//   - gbuffer: the G-buffer renderer whose attachments are sampled
	//   - settings: the frame's SSGI settings
	//   - res: the frame resources
	AddPass(g graph.RenderGraph, ctx *RenderContext, gbuffer GBufferRenderer, settings SSGISettings, res FrameResources)

	// HasSettingsChanged reports whether vp or settings differ from the ones the history was
	// accumulated with.
	HasSettingsChanged(vp common.Mat4, settings SSGISettings) bool

	// ResetAccumulation restarts accumulation on the next frame.
	ResetAccumulation()

	// SetEnabled records whether the feature is on; disabling it forces a reset when it returns.
	SetEnabled(enabled bool)

	// FrameIndex returns the number of frames accumulated into the current history.
	FrameIndex() uint32

	// HistoryIndex returns which framebuffer of the pair holds the latest result.
	HistoryIndex() int

	// HistoryValid reports whether the latest result may be reprojected into.
	HistoryValid() bool

	// Output returns the color texture holding the latest result, or nil.
	Output() gpu.Texture

	// Release frees both framebuffers and the quad.
	Release()
}

var _ SSGIRenderer = &ssgiRenderer{}

// NewSSGIRenderer creates an SSGI renderer.
func NewSSGIRenderer(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) SSGIRenderer {
	return &ssgiRenderer{rendererBase: newRendererBase(device, library, opts)}
}

func (s *ssgiRenderer) EnsureFramebuffers(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	if s.framebuffers[0] != nil && s.framebuffers[1] != nil &&
		s.framebuffers[0].Width() == width && s.framebuffers[0].Height() == height {
		return
	}
	for i := range s.framebuffers {
		s.framebuffers[i] = s.ensureFramebuffer(s.framebuffers[i], gpu.FramebufferSpecification{
			Label:       fmt.Sprintf("ssgi.history%d", i),
			Width:       width,
			Height:      height,
			Attachments: []gpu.TextureFormat{gpu.FormatRGB16F},
		})
	}
	s.historyIndex = 0
	s.frameIndex = 0
	s.historyValid = false
	s.wasEnabled = false
}

func (s *ssgiRenderer) HasSettingsChanged(vp common.Mat4, settings SSGISettings) bool {
	if !common.MatricesNearlyEqual(vp[:], s.lastViewProj[:], ssgiChangeEpsilon) {
		return true
	}
	last := s.lastSettings
	return math32.Abs(settings.Radius-last.Radius) > ssgiChangeEpsilon ||
		math32.Abs(settings.Bias-last.Bias) > ssgiChangeEpsilon ||
		math32.Abs(settings.Intensity-last.Intensity) > ssgiChangeEpsilon ||
		settings.SampleCount != last.SampleCount
}

func (s *ssgiRenderer) ResetAccumulation() {
	s.frameIndex = 0
	s.historyValid = false
}

func (s *ssgiRenderer) SetEnabled(enabled bool) {
	if !enabled {
		s.wasEnabled = false
	}
}

func (s *ssgiRenderer) FrameIndex() uint32 {
	return s.frameIndex
}

func (s *ssgiRenderer) HistoryIndex() int {
	return s.historyIndex
}

func (s *ssgiRenderer) HistoryValid() bool {
	return s.historyValid
}

func (s *ssgiRenderer) Output() gpu.Texture {
	fb := s.framebuffers[s.historyIndex]
	if fb == nil {
		return nil
	}
	return fb.ColorAttachment(0)
}

func (s *ssgiRenderer) AddPass(g graph.RenderGraph, ctx *RenderContext, gbuffer GBufferRenderer, settings SSGISettings, res FrameResources) {
	s.quad = s.fullscreenQuad(s.quad, "ssgi.quad")

	g.AddPass(graph.Pass{
		Name:    SSGIPassName,
		Inputs:  handles(res.GBuffer, res.SceneDepth),
		Outputs: handles(res.SSGI),
		Execute: func(pc *graph.PassContext) {
			p := s.pipeline(KeySSGI)
			gb := gbuffer.Framebuffer()
			if p == nil || gb == nil || s.quad == nil || s.framebuffers[0] == nil || s.framebuffers[1] == nil {
				return
			}

			vp := ctx.Camera.ViewProjection()
			if !s.historyValid || !s.wasEnabled || s.HasSettingsChanged(vp, settings) {
				s.frameIndex = 0
			}
			samples := common.Clamp(settings.SampleCount, 1, 64)
			current := (s.historyIndex + 1) % 2
			target := s.framebuffers[current]
			history := s.framebuffers[s.historyIndex].ColorAttachment(0)

			uniforms := common.NewUniformWriter(160).
				Mat4(vp).
				Mat4(ctx.Camera.InverseViewProjection()).
				Int32(int32(samples)).
				Float32(settings.Radius, settings.Bias, settings.Intensity).
				Uint32(s.frameIndex).
				Align(16).
				Bytes()

			cb := pc.Commands
			cb.Submit(command.BindFramebuffer{Framebuffer: target})
			cb.Submit(command.SetBlendEnabled{Enabled: false})
			cb.Submit(command.SetClearColor{Color: [4]float32{0, 0, 0, 1}})
			cb.Submit(command.Clear{})
			cb.Submit(command.BindPipeline{Pipeline: p})
			cb.Record(func(b command.Backend) {
				command.BindTexture(b, GroupTextures, BindingAlbedo, gb.ColorAttachment(GBufferAlbedo))
				command.BindTexture(b, GroupTextures, BindingNormal, gb.ColorAttachment(GBufferNormal))
				command.BindTexture(b, GroupTextures, BindingDepth, gb.DepthAttachment())
				command.BindTexture(b, GroupTextures, BindingHistory, history)
				command.SetUniforms(b, GroupPass, uniforms)
			})
			cb.Submit(command.DrawIndexed{VertexArray: s.quad, IndexCount: 6})
			cb.Submit(command.UnbindFramebuffer{})
			cb.Submit(command.SetBlendEnabled{Enabled: true})

			s.historyIndex = current
			s.historyValid = true
			s.wasEnabled = true
			s.lastViewProj = vp
			s.lastSettings = settings
			s.frameIndex++
		},
	})
}

func (s *ssgiRenderer) Release() {
	for i, fb := range s.framebuffers {
		if fb != nil {
			fb.Release()
			s.framebuffers[i] = nil
		}
	}
	if s.quad != nil {
		s.quad.Release()
		s.quad = nil
	}
}
