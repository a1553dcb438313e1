package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// ProceduralSkyPassName is the graph name of the sky generation pass.
const ProceduralSkyPassName = "ProceduralSkyPass"

// ProceduralSkySettings describe an analytic sky with a sun disc.
type ProceduralSkySettings struct {
	SunDirection     common.Vec3 `toml:"sun_direction" yaml:"sun_direction"`
	SunIntensity     float32     `toml:"sun_intensity" yaml:"sun_intensity"`
	SunAngularRadius float32     `toml:"sun_angular_radius" yaml:"sun_angular_radius"`
	ZenithColor      common.Vec3 `toml:"zenith_color" yaml:"zenith_color"`
	HorizonColor     common.Vec3 `toml:"horizon_color" yaml:"horizon_color"`
	GroundColor      common.Vec3 `toml:"ground_color" yaml:"ground_color"`
	Exposure         float32     `toml:"exposure" yaml:"exposure"`
	CubemapSize      uint32      `toml:"cubemap_size" yaml:"cubemap_size"`
}

// DefaultProceduralSkySettings returns a late-afternoon sky rendered into a 512 pixel cubemap.
func DefaultProceduralSkySettings() ProceduralSkySettings {
	return ProceduralSkySettings{
		SunDirection:     common.Normalize3(common.Vec3{0.4, 0.6, 0.3}),
		SunIntensity:     20,
		SunAngularRadius: 0.02,
		ZenithColor:      common.Vec3{0.15, 0.3, 0.6},
		HorizonColor:     common.Vec3{0.6, 0.5, 0.4},
		GroundColor:      common.Vec3{0.1, 0.08, 0.06},
		Exposure:         1.5,
		CubemapSize:      512,
	}
}

type proceduralSky struct {
	rendererBase

	settings  ProceduralSkySettings
	cubemap   gpu.Texture
	capture   gpu.Framebuffer
	cube      gpu.VertexArray
	generated bool
}

// ProceduralSky renders an analytic sky into a cubemap that can stand in for a loaded
// environment map. The cubemap is regenerated only when the settings change.
type ProceduralSky interface {
	// AddPass appends the generation pass when the cubemap is missing or stale.
	//
	// Parameters:
	//   - g: the frame graph
	//   - ctx: the frame context
	//   - settings: the sky description
	//
	// Returns:
	//   - graph.ResourceHandle: the environment cubemap handle, or graph.InvalidHandle on failure
	AddPass(g graph.RenderGraph, ctx *RenderContext, settings ProceduralSkySettings) graph.ResourceHandle

	// Cubemap returns the sky cubemap. Changing the settings replaces it with a new texture.
	Cubemap() gpu.Texture

	// Generated reports whether the cubemap holds the current settings.
	Generated() bool

	Release()
}

var _ ProceduralSky = &proceduralSky{}

// NewProceduralSky creates a procedural sky generator.
func NewProceduralSky(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) ProceduralSky {
	return &proceduralSky{rendererBase: newRendererBase(device, library, opts)}
}

func (s *proceduralSky) Cubemap() gpu.Texture {
	return s.cubemap
}

func (s *proceduralSky) Generated() bool {
	return s.generated
}

func (s *proceduralSky) AddPass(g graph.RenderGraph, ctx *RenderContext, settings ProceduralSkySettings) graph.ResourceHandle {
	if s.device == nil || settings.CubemapSize == 0 {
		return graph.InvalidHandle
	}
	if s.cubemap != nil && settings != s.settings {
		s.releaseTargets()
	}
	if s.cubemap == nil {
		if err := s.createTargets(settings); err != nil {
			s.logger.Warningf("procedural sky: %v", err)
			s.releaseTargets()
			return graph.InvalidHandle
		}
	}

	handle := g.CreateResourceDesc(graph.ResourceDesc{
		Name:   "environment",
		Type:   graph.ResourceTextureCube,
		Width:  settings.CubemapSize,
		Height: settings.CubemapSize,
		Format: gpu.FormatRGBA16F,
	})
	if s.generated {
		return handle
	}

	g.AddPass(graph.Pass{
		Name:      ProceduralSkyPassName,
		Outputs:   handles(handle),
		Condition: func() bool { return !s.generated },
		Execute: func(pc *graph.PassContext) {
			s.record(pc.Commands, ctx)
		},
	})
	return handle
}

func (s *proceduralSky) createTargets(settings ProceduralSkySettings) error {
	var err error
	if s.cubemap, err = s.device.CreateTexture(gpu.TextureDescriptor{
		Label: "sky.cubemap", Width: settings.CubemapSize, Height: settings.CubemapSize,
		Format: gpu.FormatRGBA16F, Cube: true, MipLevels: 1,
	}); err != nil {
		return err
	}
	if s.capture, err = s.device.CreateFramebuffer(gpu.FramebufferSpecification{
		Label: "sky.capture", Width: settings.CubemapSize, Height: settings.CubemapSize,
		Attachments: []gpu.TextureFormat{gpu.FormatRGBA16F},
	}); err != nil {
		return err
	}
	if s.cube == nil {
		if s.cube, err = NewUnitCube(s.device, "sky.cube"); err != nil {
			return err
		}
	}
	s.settings = settings
	return nil
}

func (s *proceduralSky) record(cb command.CommandBuffer, ctx *RenderContext) {
	p := s.pipeline(KeyProceduralSky)
	if p == nil || s.capture == nil {
		return
	}
	st := s.settings
	proj := captureProjection()
	size := s.capture.Width()
	capture, cubemap := s.capture, s.cubemap

	cb.Submit(command.SetBlendEnabled{Enabled: false})
	cb.Submit(command.SetClearColor{Color: [4]float32{0, 0, 0, 1}})
	cb.Submit(command.BindPipeline{Pipeline: p})
	for face := uint32(0); face < 6; face++ {
		uniforms := common.NewUniformWriter(192).
			Mat4(proj).
			Mat4(captureViews[face]).
			Vec4(common.Normalize3(st.SunDirection), st.SunIntensity).
			Vec4(st.ZenithColor, st.SunAngularRadius).
			Vec4(st.HorizonColor, st.Exposure).
			Vec4(st.GroundColor, 0).
			Bytes()
		cb.Submit(command.BindFramebuffer{Framebuffer: capture})
		cb.Submit(command.SetViewport{Width: size, Height: size})
		cb.Submit(command.Clear{})
		cb.Record(func(b command.Backend) {
			command.SetUniforms(b, GroupPass, uniforms)
		})
		cb.Submit(command.DrawIndexed{VertexArray: s.cube, IndexCount: skyboxIndexCount})
		cb.Record(func(b command.Backend) {
			command.CopyToTexture(b, capture, cubemap, face, 0)
		})
	}
	cb.Submit(command.SetBlendEnabled{Enabled: true})
	ctx.bindTarget(cb)
	s.generated = true
	s.logger.Debugf("procedural sky: generated %d cubemap", size)
}

func (s *proceduralSky) releaseTargets() {
	if s.cubemap != nil {
		s.cubemap.Release()
	}
	if s.capture != nil {
		s.capture.Release()
	}
	s.cubemap, s.capture = nil, nil
	s.generated = false
	s.settings = ProceduralSkySettings{}
}

func (s *proceduralSky) Release() {
	s.releaseTargets()
	if s.cube != nil {
		s.cube.Release()
		s.cube = nil
	}
}
