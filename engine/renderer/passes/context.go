// Package passes holds the pass renderers that make up a frame: shadow, G-buffer, SSGI, GTAO,
// deferred lighting, forward, environment, outline, post-process, grid and the 2D overlay.
// Each renderer owns its GPU objects, looks its pipelines up by key, and appends one pass to a
// render graph per call. A renderer whose pipeline or framebuffer is missing records nothing.
package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
)

// PipelineKind selects the mesh pipeline variant a draw command uses.
type PipelineKind int

const (
	PipelinePhong PipelineKind = iota
	PipelinePBR
	PipelineSkinnedPBR
)

func (k PipelineKind) String() string {
	switch k {
	case PipelinePhong:
		return "Phong"
	case PipelinePBR:
		return "PBR"
	case PipelineSkinnedPBR:
		return "SkinnedPBR"
	default:
		return "Unknown"
	}
}

// MaxBones caps the bone palette uploaded with a skinned draw.
const MaxBones = 64

// MeshDrawCommand is one submesh queued for the frame.
type MeshDrawCommand struct {
	Pipeline    PipelineKind
	VertexArray gpu.VertexArray
	Material    *material.Material
	Transform   common.Mat4
	IndexCount  uint32
	IndexOffset uint32
	ObjectID    int32

	// Visible is false when the world bounds fell outside the camera frustum.
	// Culled commands stay in the list so the shadow pass still sees them.
	Visible     bool
	Transparent bool
	DrawOutline bool

	// Bounds is the world-space AABB of the whole mesh.
	Bounds common.AABB

	Skinned      bool
	BoneMatrices [][16]float32
}

// Camera is the view a frame is rendered from.
type Camera struct {
	View       common.Mat4
	Projection common.Mat4
	Near       float32
	Far        float32
}

// ViewProjection returns projection * view.
func (c Camera) ViewProjection() common.Mat4 {
	return common.Multiply(c.Projection, c.View)
}

// InverseViewProjection returns the inverse of projection * view, or identity when singular.
func (c Camera) InverseViewProjection() common.Mat4 {
	vp := c.ViewProjection()
	var inv common.Mat4
	if !common.Invert4(inv[:], vp[:]) {
		return common.Identity4()
	}
	return inv
}

// InverseProjection returns the inverse projection, or identity when singular.
func (c Camera) InverseProjection() common.Mat4 {
	var inv common.Mat4
	if !common.Invert4(inv[:], c.Projection[:]) {
		return common.Identity4()
	}
	return inv
}

// Position returns the world-space eye position recovered from the view matrix.
func (c Camera) Position() common.Vec3 {
	var inv common.Mat4
	if !common.Invert4(inv[:], c.View[:]) {
		return common.Vec3{}
	}
	return common.Vec3{inv[12], inv[13], inv[14]}
}

// IBLSettings sizes the image-based lighting textures baked from the environment map.
type IBLSettings struct {
	IrradianceSize  uint32 `toml:"irradiance_size" yaml:"irradiance_size"`
	PrefilterSize   uint32 `toml:"prefilter_size" yaml:"prefilter_size"`
	BRDFLUTSize     uint32 `toml:"brdf_lut_size" yaml:"brdf_lut_size"`
	PrefilterMaxMip uint32 `toml:"prefilter_max_mip" yaml:"prefilter_max_mip"`
}

// DefaultIBLSettings returns irradiance 32, prefilter 128, BRDF LUT 512 and 5 prefilter mips.
func DefaultIBLSettings() IBLSettings {
	return IBLSettings{
		IrradianceSize:  32,
		PrefilterSize:   128,
		BRDFLUTSize:     512,
		PrefilterMaxMip: 5,
	}
}

// Statistics are the 3D counters the pass renderers increment while recording.
type Statistics struct {
	MeshCount         uint32
	GeometryDrawCalls uint32
	ShadowDrawCalls   uint32
	SkyboxDrawCalls   uint32
	IBLDrawCalls      uint32
}

// TotalDrawCalls returns the sum of the four draw call counters.
func (s Statistics) TotalDrawCalls() uint32 {
	return s.GeometryDrawCalls + s.ShadowDrawCalls + s.SkyboxDrawCalls + s.IBLDrawCalls
}

// RenderContext is the per-frame state every pass renderer reads. It is rebuilt by the scene
// renderer at the start of each flush.
type RenderContext struct {
	Camera      Camera
	Environment light.Environment

	ViewportWidth  uint32
	ViewportHeight uint32

	// TargetFramebuffer is the final color target; nil renders to the swapchain.
	TargetFramebuffer gpu.Framebuffer

	// ClearColor is the background the forward pass clears the target to.
	ClearColor [4]float32

	// Commands is the frame's draw list in submission order.
	Commands []MeshDrawCommand

	// Stats receives draw call counts; may be nil.
	Stats *Statistics

	AmbientIntensity  float32
	EnableShadows     bool
	ShadowBias        float32
	ShadowSoftness    float32
	NormalMapStrength float32
	ToksvigStrength   float32
	UseIBL            bool
	IBL               IBLSettings
}

// NewRenderContext returns a context carrying the default scalar settings.
func NewRenderContext() RenderContext {
	return RenderContext{
		Camera:            Camera{View: common.Identity4(), Projection: common.Identity4(), Near: 0.1, Far: 1000},
		ClearColor:        [4]float32{0.1, 0.1, 0.1, 1},
		AmbientIntensity:  0.1,
		EnableShadows:     true,
		ShadowBias:        light.DefaultShadowBias,
		ShadowSoftness:    light.DefaultShadowSoftness,
		NormalMapStrength: 1,
		ToksvigStrength:   1,
		UseIBL:            true,
		IBL:               DefaultIBLSettings(),
	}
}

// LightBlock marshals the environment with the context's lighting scalars.
//
// Parameters:
//   - shadowed: whether a shadow map is bound for this draw
//   - lightSpace: the shadow light-space matrix
//
// Returns:
//   - []byte: the light uniform block
func (c *RenderContext) LightBlock(shadowed bool, lightSpace common.Mat4) []byte {
	return light.MarshalLightBlock(c.Environment, light.BlockParams{
		AmbientIntensity:  c.AmbientIntensity,
		ShadowsEnabled:    shadowed,
		LightSpace:        lightSpace,
		ShadowBias:        c.ShadowBias,
		ShadowSoftness:    c.ShadowSoftness,
		NormalMapStrength: c.NormalMapStrength,
		ToksvigStrength:   c.ToksvigStrength,
	})
}

func (c *RenderContext) countGeometry() {
	if c.Stats != nil {
		c.Stats.GeometryDrawCalls++
	}
}

func (c *RenderContext) countShadow() {
	if c.Stats != nil {
		c.Stats.ShadowDrawCalls++
	}
}

func (c *RenderContext) countSkybox() {
	if c.Stats != nil {
		c.Stats.SkyboxDrawCalls++
	}
}

func (c *RenderContext) countIBL() {
	if c.Stats != nil {
		c.Stats.IBLDrawCalls++
	}
}

// bindTarget binds the target framebuffer, or falls back to the swapchain with the frame viewport.
func (c *RenderContext) bindTarget(cb command.CommandBuffer) {
	if c.TargetFramebuffer != nil {
		cb.Submit(command.BindFramebuffer{Framebuffer: c.TargetFramebuffer})
		return
	}
	cb.Submit(command.UnbindFramebuffer{})
	cb.Submit(command.SetViewport{Width: c.ViewportWidth, Height: c.ViewportHeight})
}

// FrameResources are the logical handles of one frame. A handle is invalid when its feature is off.
type FrameResources struct {
	ShadowMap      graph.ResourceHandle
	GBuffer        graph.ResourceHandle
	LightingResult graph.ResourceHandle
	SceneDepth     graph.ResourceHandle
	SSGI           graph.ResourceHandle
	GTAO           graph.ResourceHandle

	// Environment is valid when the environment cubemap is produced in the graph.
	Environment graph.ResourceHandle

	// IBL is valid only when the environment renderer has image-based lighting for this frame.
	IBL graph.ResourceHandle
}

// FrameFlags are the per-frame feature switches derived from settings and the draw list.
type FrameFlags struct {
	UseDeferred      bool
	UseSSGI          bool
	UseGTAO          bool
	ShowGBufferDebug bool
	HasTransparent   bool
}

// handles filters the invalid handles out of a list.
func handles(hs ...graph.ResourceHandle) []graph.ResourceHandle {
	out := make([]graph.ResourceHandle, 0, len(hs))
	for _, h := range hs {
		if h.IsValid() {
			out = append(out, h)
		}
	}
	return out
}
