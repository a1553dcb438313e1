package passes

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// Uniform groups shared by every pass. Group 0 carries pass-level data, group 1 per-draw data,
// group 2 the light block and group 3 the sampled textures.
const (
	GroupPass     uint32 = 0
	GroupDraw     uint32 = 1
	GroupLights   uint32 = 2
	GroupTextures uint32 = 3
)

// Texture bindings within GroupTextures.
const (
	BindingAlbedo uint32 = iota
	BindingNormal
	BindingMaterial
	BindingEmissive
	BindingObjectID
	BindingDepth
	BindingSSGI
	BindingGTAO
	BindingShadowMap
	BindingIrradiance
	BindingPrefilter
	BindingBRDFLUT
	BindingHistory
	BindingEnvironment
	BindingSprite
)

// rendererBase is embedded by every pass renderer: device, library and once-per-key skip logging.
type rendererBase struct {
	device  gpu.Device
	library pipeline.Library
	logger  log.Logger

	mu      *sync.Mutex
	skipped map[string]bool
}

// RendererBuilderOption is a functional option shared by the pass renderer constructors.
type RendererBuilderOption func(*rendererBase)

// WithLogger replaces the renderer's logger.
//
// Parameters:
//   - logger: the logger skip and failure messages go to
//
// Returns:
//   - RendererBuilderOption: a function that sets the logger
func WithLogger(logger log.Logger) RendererBuilderOption {
	return func(b *rendererBase) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func newRendererBase(device gpu.Device, library pipeline.Library, opts []RendererBuilderOption) rendererBase {
	b := rendererBase{
		device:  device,
		library: library,
		logger:  log.New("passes"),
		mu:      &sync.Mutex{},
		skipped: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// pipeline looks a pipeline up by key. A miss is logged once per key.
func (b *rendererBase) pipeline(key string) pipeline.Pipeline {
	if b.library == nil {
		b.skip(key, "no pipeline library")
		return nil
	}
	p := b.library.Pipeline(key)
	if p == nil {
		b.skip(key, "pipeline not registered")
	}
	return p
}

func (b *rendererBase) skip(key, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.skipped[key] {
		return
	}
	b.skipped[key] = true
	b.logger.Debugf("%s: %s, recording nothing", key, reason)
}

// ensureFramebuffer recreates fb for a new size and logs creation failures.
func (b *rendererBase) ensureFramebuffer(current gpu.Framebuffer, spec gpu.FramebufferSpecification) gpu.Framebuffer {
	if b.device == nil {
		b.skip(spec.Label, "no device")
		return current
	}
	fb, created, err := gpu.EnsureFramebuffer(b.device, current, spec)
	if err != nil {
		b.logger.Warningf("%s: %v", spec.Label, err)
		return current
	}
	if created {
		b.logger.Debugf("%s: created %dx%d", spec.Label, spec.Width, spec.Height)
	}
	return fb
}

// fullscreenQuad lazily creates the shared-shape quad used by screen-space passes.
func (b *rendererBase) fullscreenQuad(current gpu.VertexArray, label string) gpu.VertexArray {
	if current != nil {
		return current
	}
	if b.device == nil {
		return nil
	}
	va, err := NewFullscreenQuad(b.device, label)
	if err != nil {
		b.logger.Warningf("%s: %v", label, err)
		return nil
	}
	return va
}

// QuadVertexLayout is the fullscreen quad layout: position vec3, uv vec2.
func QuadVertexLayout() gpu.VertexLayout {
	return gpu.NewVertexLayout(gpu.VertexFloat32x3, gpu.VertexFloat32x2)
}

// NewFullscreenQuad creates a four-vertex clip-space quad with indices 0,1,2,2,3,0.
//
// Parameters:
//   - device: the device that owns the vertex array
//   - label: debug label
//
// Returns:
//   - gpu.VertexArray: the quad
//   - error: creation failure
func NewFullscreenQuad(device gpu.Device, label string) (gpu.VertexArray, error) {
	vertices := []float32{
		-1, -1, 0, 0, 1,
		1, -1, 0, 1, 1,
		1, 1, 0, 1, 0,
		-1, 1, 0, 0, 0,
	}
	va, err := device.CreateVertexArray(gpu.VertexArrayDescriptor{
		Label:    label,
		Layout:   QuadVertexLayout(),
		Vertices: common.SliceToBytes(vertices),
		Indices:  []uint32{0, 1, 2, 2, 3, 0},
	})
	if err != nil {
		return nil, fmt.Errorf("passes: create fullscreen quad: %w", err)
	}
	return va, nil
}

// CubeVertexLayout is the unit cube layout used by the skybox and IBL capture: position vec3.
func CubeVertexLayout() gpu.VertexLayout {
	return gpu.NewVertexLayout(gpu.VertexFloat32x3)
}

// NewUnitCube creates an eight-vertex cube spanning [-1, 1] with 36 indices, faces wound inward.
func NewUnitCube(device gpu.Device, label string) (gpu.VertexArray, error) {
	vertices := []float32{
		-1, -1, -1,
		1, -1, -1,
		1, 1, -1,
		-1, 1, -1,
		-1, -1, 1,
		1, -1, 1,
		1, 1, 1,
		-1, 1, 1,
	}
	indices := []uint32{
		0, 1, 2, 2, 3, 0,
		4, 6, 5, 6, 4, 7,
		0, 3, 7, 7, 4, 0,
		1, 5, 6, 6, 2, 1,
		3, 2, 6, 6, 7, 3,
		0, 4, 5, 5, 1, 0,
	}
	va, err := device.CreateVertexArray(gpu.VertexArrayDescriptor{
		Label:    label,
		Layout:   CubeVertexLayout(),
		Vertices: common.SliceToBytes(vertices),
		Indices:  indices,
	})
	if err != nil {
		return nil, fmt.Errorf("passes: create cube: %w", err)
	}
	return va, nil
}

// Embedded WGSL structs of the mesh uniforms. The draw blocks reference the material struct.
var (
	//go:embed assets/frame.wgsl
	FrameBlockSource string

	//go:embed assets/draw.wgsl
	DrawBlockSource string

	//go:embed assets/skinned_draw.wgsl
	SkinnedDrawBlockSource string
)

// drawBlockSize is the per-draw uniform: model, normal matrix, an id row (object id, bone count,
// IBL switch, prefilter max LOD) and the material.
const drawBlockSize = 64 + 64 + 16 + material.GPUMaterialBlockSize

// marshalDrawBlock packs the per-draw uniform of a mesh command. Skinned commands append their
// bone palette, capped at MaxBones.
func marshalDrawBlock(cmd *MeshDrawCommand, ibl bool, maxLOD float32) []byte {
	bones := 0
	if cmd.Skinned {
		bones = min(len(cmd.BoneMatrices), MaxBones)
	}
	w := common.NewUniformWriter(drawBlockSize + bones*64)
	w.Mat4(cmd.Transform)
	w.Mat4(common.NormalMatrix(cmd.Transform))
	w.Int32(cmd.ObjectID)
	w.Uint32(uint32(bones))
	w.Bool(ibl)
	w.Float32(maxLOD)
	buf := append(w.Bytes(), cmd.Material.Marshal()...)
	for i := 0; i < bones; i++ {
		buf = append(buf, common.SliceToBytes(cmd.BoneMatrices[i][:])...)
	}
	return buf
}

// frameBlockSize is the mesh pass uniform: view-projection, view, camera position.
const frameBlockSize = 64 + 64 + 16

func marshalFrameBlock(ctx *RenderContext) []byte {
	w := common.NewUniformWriter(frameBlockSize)
	w.Mat4(ctx.Camera.ViewProjection())
	w.Mat4(ctx.Camera.View)
	w.Vec4(ctx.Camera.Position(), 1)
	return w.Bytes()
}

// meshPipelineKey maps a command kind onto the deferred or forward pipeline family.
func meshPipelineKey(kind PipelineKind, deferred, transparent bool) string {
	if deferred {
		switch kind {
		case PipelinePBR:
			return KeyGBufferPBR
		case PipelineSkinnedPBR:
			return KeyGBufferSkinned
		default:
			return KeyGBufferPhong
		}
	}
	switch kind {
	case PipelinePBR:
		if transparent {
			return KeyForwardPBRTransparent
		}
		return KeyForwardPBR
	case PipelineSkinnedPBR:
		if transparent {
			return KeyForwardSkinnedTransparent
		}
		return KeyForwardSkinned
	default:
		if transparent {
			return KeyForwardPhongTransparent
		}
		return KeyForwardPhong
	}
}

// usesIBL reports whether a command is shaded with image-based lighting.
func usesIBL(cmd *MeshDrawCommand) bool {
	return cmd.Pipeline == PipelinePBR || cmd.Pipeline == PipelineSkinnedPBR
}
