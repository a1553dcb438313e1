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

// Graph names of the environment passes.
const (
	SkyboxPassName  = "SkyboxPass"
	IBLBakePassName = "IBLBakePass"
)

// skyboxIndexCount is the index count of the unit cube.
const skyboxIndexCount = 36

// captureViews are the six cube face views used when baking, in +X, -X, +Y, -Y, +Z, -Z order.
var captureViews = func() [6]common.Mat4 {
	targets := [6][6]float32{
		{1, 0, 0, 0, -1, 0},
		{-1, 0, 0, 0, -1, 0},
		{0, 1, 0, 0, 0, 1},
		{0, -1, 0, 0, 0, -1},
		{0, 0, 1, 0, -1, 0},
		{0, 0, -1, 0, -1, 0},
	}
	var views [6]common.Mat4
	for i, t := range targets {
		common.LookAt(views[i][:], 0, 0, 0, t[0], t[1], t[2], t[3], t[4], t[5])
	}
	return views
}()

func captureProjection() common.Mat4 {
	var proj common.Mat4
	common.Perspective(proj[:], math32.Pi/2, 1, 0.1, 10)
	return proj
}

// environmentRenderer is the implementation of the EnvironmentRenderer interface.
type environmentRenderer struct {
	rendererBase

	environmentMap gpu.Texture
	cube           gpu.VertexArray
	quad           gpu.VertexArray

	baked       IBLSettings
	initialized bool
	irradiance  gpu.Texture
	prefilter   gpu.Texture
	brdfLUT     gpu.Texture

	irradianceCapture gpu.Framebuffer
	prefilterCaptures []gpu.Framebuffer
	brdfCapture       gpu.Framebuffer
}

// EnvironmentRenderer draws the skybox and bakes the image-based lighting textures from the
// environment cubemap once per map and size set.
type EnvironmentRenderer interface {
	// SetEnvironmentMap installs the environment cubemap. A new map invalidates the baked IBL.
	//
	// Parameters:
	//   - cubemap: the environment cube texture, or nil to clear it
	SetEnvironmentMap(cubemap gpu.Texture)

	// EnvironmentMap returns the installed cubemap, or nil.
	EnvironmentMap() gpu.Texture

	// EnsureIBL appends the bake pass when IBL is enabled, a cubemap is installed and the baked
	// textures are missing or were baked at other sizes. The pass is conditioned on the bake
	// still being outstanding when it executes.
	//
	// Parameters:
	//   - g: the frame graph
	//   - ctx: the frame context
	//   - environment: the cubemap handle when the cubemap is generated in the graph, or graph.InvalidHandle
	//
	// Returns:
	//   - graph.ResourceHandle: the IBL handle consumers should read, or graph.InvalidHandle
	EnsureIBL(g graph.RenderGraph, ctx *RenderContext, environment graph.ResourceHandle) graph.ResourceHandle

	// IBLReady reports whether the baked textures can be sampled.
	IBLReady() bool

	// PrefilterMaxLOD returns the highest prefiltered mip level.
	PrefilterMaxLOD() float32

	// BindIBL binds the irradiance, prefilter and BRDF LUT textures when ready.
	//
	// Parameters:
	//   - b: the backend being replayed into
	//
	// Returns:
	//   - bool: whether the textures were bound
	BindIBL(b command.Backend) bool

	// AddSkyboxPass appends the skybox pass drawing behind the lit scene. It reads
	// res.LightingResult and, when valid, res.Environment.
	AddSkyboxPass(g graph.RenderGraph, ctx *RenderContext, res FrameResources)

	Release()
}

var _ EnvironmentRenderer = &environmentRenderer{}

// NewEnvironmentRenderer creates an environment renderer without a cubemap.
func NewEnvironmentRenderer(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) EnvironmentRenderer {
	return &environmentRenderer{rendererBase: newRendererBase(device, library, opts)}
}

func (e *environmentRenderer) SetEnvironmentMap(cubemap gpu.Texture) {
	if cubemap == e.environmentMap {
		return
	}
	e.environmentMap = cubemap
	e.releaseIBL()
}

func (e *environmentRenderer) EnvironmentMap() gpu.Texture {
	return e.environmentMap
}

func (e *environmentRenderer) IBLReady() bool {
	return e.initialized
}

func (e *environmentRenderer) PrefilterMaxLOD() float32 {
	if e.baked.PrefilterMaxMip == 0 {
		return 0
	}
	return float32(e.baked.PrefilterMaxMip - 1)
}

func (e *environmentRenderer) BindIBL(b command.Backend) bool {
	if !e.initialized {
		return false
	}
	command.BindTexture(b, GroupTextures, BindingIrradiance, e.irradiance)
	command.BindTexture(b, GroupTextures, BindingPrefilter, e.prefilter)
	command.BindTexture(b, GroupTextures, BindingBRDFLUT, e.brdfLUT)
	return true
}

func (e *environmentRenderer) EnsureIBL(g graph.RenderGraph, ctx *RenderContext, environment graph.ResourceHandle) graph.ResourceHandle {
	if !ctx.UseIBL || e.environmentMap == nil || e.device == nil {
		return graph.InvalidHandle
	}
	if e.irradiance != nil && e.baked != ctx.IBL {
		e.releaseIBL()
	}
	handle := g.CreateResourceDesc(graph.ResourceDesc{
		Name:   "ibl",
		Type:   graph.ResourceTextureCube,
		Width:  ctx.IBL.PrefilterSize,
		Height: ctx.IBL.PrefilterSize,
		Format: gpu.FormatRGBA16F,
	})
	if e.initialized {
		return handle
	}
	if e.irradiance == nil {
		if err := e.createIBLTargets(ctx.IBL); err != nil {
			e.logger.Warningf("ibl: %v", err)
			e.releaseIBL()
			return graph.InvalidHandle
		}
	}

	g.AddPass(graph.Pass{
		Name:      IBLBakePassName,
		Inputs:    handles(environment),
		Outputs:   handles(handle),
		Condition: func() bool { return !e.initialized },
		Execute: func(pc *graph.PassContext) {
			e.recordBake(pc.Commands, ctx)
		},
	})
	return handle
}

func (e *environmentRenderer) createIBLTargets(s IBLSettings) error {
	if s.IrradianceSize == 0 || s.PrefilterSize == 0 || s.BRDFLUTSize == 0 || s.PrefilterMaxMip == 0 {
		return fmt.Errorf("invalid sizes %+v", s)
	}
	var err error
	if e.irradiance, err = e.device.CreateTexture(gpu.TextureDescriptor{
		Label: "ibl.irradiance", Width: s.IrradianceSize, Height: s.IrradianceSize,
		Format: gpu.FormatRGBA16F, Cube: true, MipLevels: 1,
	}); err != nil {
		return fmt.Errorf("create irradiance map: %w", err)
	}
	if e.prefilter, err = e.device.CreateTexture(gpu.TextureDescriptor{
		Label: "ibl.prefilter", Width: s.PrefilterSize, Height: s.PrefilterSize,
		Format: gpu.FormatRGBA16F, Cube: true, MipLevels: s.PrefilterMaxMip,
	}); err != nil {
		return fmt.Errorf("create prefilter map: %w", err)
	}
	if e.brdfLUT, err = e.device.CreateTexture(gpu.TextureDescriptor{
		Label: "ibl.brdf_lut", Width: s.BRDFLUTSize, Height: s.BRDFLUTSize,
		Format: gpu.FormatRG16F, MipLevels: 1,
	}); err != nil {
		return fmt.Errorf("create BRDF LUT: %w", err)
	}

	capture := func(label string, size uint32, format gpu.TextureFormat) (gpu.Framebuffer, error) {
		return e.device.CreateFramebuffer(gpu.FramebufferSpecification{
			Label: label, Width: size, Height: size, Attachments: []gpu.TextureFormat{format},
		})
	}
	if e.irradianceCapture, err = capture("ibl.capture.irradiance", s.IrradianceSize, gpu.FormatRGBA16F); err != nil {
		return err
	}
	for mip := uint32(0); mip < s.PrefilterMaxMip; mip++ {
		fb, err := capture(fmt.Sprintf("ibl.capture.prefilter%d", mip), max(s.PrefilterSize>>mip, 1), gpu.FormatRGBA16F)
		if err != nil {
			return err
		}
		e.prefilterCaptures = append(e.prefilterCaptures, fb)
	}
	if e.brdfCapture, err = capture("ibl.capture.brdf", s.BRDFLUTSize, gpu.FormatRG16F); err != nil {
		return err
	}
	e.baked = s
	return nil
}

// recordBake renders the six irradiance faces, every prefilter mip face and the BRDF LUT, copying
// each capture into its destination texture.
func (e *environmentRenderer) recordBake(cb command.CommandBuffer, ctx *RenderContext) {
	irradiance := e.pipeline(KeyIrradiance)
	prefilter := e.pipeline(KeyPrefilter)
	brdf := e.pipeline(KeyBRDFLUT)
	if irradiance == nil || prefilter == nil || brdf == nil {
		return
	}
	if e.cube == nil {
		cube, err := NewUnitCube(e.device, "environment.cube")
		if err != nil {
			e.logger.Warningf("ibl: %v", err)
			return
		}
		e.cube = cube
	}
	e.quad = e.fullscreenQuad(e.quad, "environment.quad")
	if e.quad == nil {
		return
	}

	proj := captureProjection()
	env := e.environmentMap
	faces := func(p pipeline.Pipeline, fb gpu.Framebuffer, dst gpu.Texture, mip uint32, roughness float32) {
		size := fb.Width()
		cb.Submit(command.BindPipeline{Pipeline: p})
		for face := uint32(0); face < 6; face++ {
			uniforms := common.NewUniformWriter(144).
				Mat4(proj).
				Mat4(captureViews[face]).
				Float32(roughness, float32(e.baked.PrefilterSize), 0, 0).
				Bytes()
			cb.Submit(command.BindFramebuffer{Framebuffer: fb})
			cb.Submit(command.SetViewport{Width: size, Height: size})
			cb.Submit(command.Clear{})
			cb.Record(func(b command.Backend) {
				command.BindTexture(b, GroupTextures, BindingEnvironment, env)
				command.SetUniforms(b, GroupPass, uniforms)
			})
			cb.Submit(command.DrawIndexed{VertexArray: e.cube, IndexCount: skyboxIndexCount})
			ctx.countIBL()
			cb.Record(func(b command.Backend) {
				command.CopyToTexture(b, fb, dst, face, mip)
			})
		}
	}

	cb.Submit(command.SetBlendEnabled{Enabled: false})
	cb.Submit(command.SetClearColor{Color: [4]float32{0, 0, 0, 1}})
	faces(irradiance, e.irradianceCapture, e.irradiance, 0, 0)

	maxMip := e.baked.PrefilterMaxMip
	for mip := uint32(0); mip < maxMip; mip++ {
		var roughness float32
		if maxMip > 1 {
			roughness = float32(mip) / float32(maxMip-1)
		}
		faces(prefilter, e.prefilterCaptures[mip], e.prefilter, mip, roughness)
	}

	cb.Submit(command.BindPipeline{Pipeline: brdf})
	cb.Submit(command.BindFramebuffer{Framebuffer: e.brdfCapture})
	cb.Submit(command.SetViewport{Width: e.brdfCapture.Width(), Height: e.brdfCapture.Height()})
	cb.Submit(command.Clear{})
	cb.Submit(command.DrawIndexed{VertexArray: e.quad, IndexCount: 6})
	ctx.countIBL()
	brdfCapture, lut := e.brdfCapture, e.brdfLUT
	cb.Record(func(b command.Backend) {
		command.CopyToTexture(b, brdfCapture, lut, 0, 0)
	})

	cb.Submit(command.SetBlendEnabled{Enabled: true})
	ctx.bindTarget(cb)
	e.initialized = true
	e.logger.Debugf("ibl: baked irradiance %d, prefilter %d x%d mips, BRDF LUT %d",
		e.baked.IrradianceSize, e.baked.PrefilterSize, maxMip, e.baked.BRDFLUTSize)
}

func (e *environmentRenderer) AddSkyboxPass(g graph.RenderGraph, ctx *RenderContext, res FrameResources) {
	if e.cube == nil && e.device != nil && e.environmentMap != nil {
		cube, err := NewUnitCube(e.device, "environment.cube")
		if err != nil {
			e.logger.Warningf("skybox: %v", err)
		}
		e.cube = cube
	}

	g.AddPass(graph.Pass{
		Name:   SkyboxPassName,
		Inputs: handles(res.LightingResult, res.Environment),
		Execute: func(pc *graph.PassContext) {
			env := e.environmentMap
			if env == nil {
				return
			}
			p := e.pipeline(KeySkybox)
			if p == nil || e.cube == nil {
				return
			}
			view := ctx.Camera.View
			view[12], view[13], view[14] = 0, 0, 0
			uniforms := common.NewUniformWriter(128).Mat4(view).Mat4(ctx.Camera.Projection).Bytes()

			cb := pc.Commands
			ctx.bindTarget(cb)
			cb.Submit(command.BindPipeline{Pipeline: p})
			cb.Record(func(b command.Backend) {
				command.BindTexture(b, GroupTextures, BindingEnvironment, env)
				command.SetUniforms(b, GroupPass, uniforms)
			})
			cb.Submit(command.DrawIndexed{VertexArray: e.cube, IndexCount: skyboxIndexCount})
			ctx.countSkybox()
		},
	})
}

func (e *environmentRenderer) releaseIBL() {
	for _, t := range []gpu.Texture{e.irradiance, e.prefilter, e.brdfLUT} {
		if t != nil {
			t.Release()
		}
	}
	for _, fb := range append([]gpu.Framebuffer{e.irradianceCapture, e.brdfCapture}, e.prefilterCaptures...) {
		if fb != nil {
			fb.Release()
		}
	}
	e.irradiance, e.prefilter, e.brdfLUT = nil, nil, nil
	e.irradianceCapture, e.brdfCapture, e.prefilterCaptures = nil, nil, nil
	e.initialized = false
	e.baked = IBLSettings{}
}

func (e *environmentRenderer) Release() {
	e.releaseIBL()
	for _, va := range []gpu.VertexArray{e.cube, e.quad} {
		if va != nil {
			va.Release()
		}
	}
	e.cube, e.quad = nil, nil
}
