package model

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
)

// GPUVertexSource is the WGSL VertexInput struct read by static mesh pipelines. Attribute
// locations follow VertexLayout.
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertex is the GPU-aligned representation of a single mesh vertex for static models.
// Size: 64 bytes (no padding required).
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space
	Normal   [3]float32 // offset 12: vertex normal
	TexCoord [2]float32 // offset 24: UV texture coordinate
	Color    [4]float32 // offset 32: per-vertex RGBA color
	Tangent  [4]float32 // offset 48: tangent (xyz) + handedness (w)
}

// VertexLayout returns the interleaved layout matching GPUVertex.
func VertexLayout() gpu.VertexLayout {
	return gpu.NewVertexLayout(
		gpu.VertexFloat32x3,
		gpu.VertexFloat32x3,
		gpu.VertexFloat32x2,
		gpu.VertexFloat32x4,
		gpu.VertexFloat32x4,
	)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes
func (g *GPUVertex) Size() int {
	return 64
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPUVertex) Marshal() []byte {
	return g.appendTo(common.NewUniformWriter(64)).Bytes()
}

func (g *GPUVertex) appendTo(w *common.UniformWriter) *common.UniformWriter {
	return w.Float32(g.Position[:]...).
		Float32(g.Normal[:]...).
		Float32(g.TexCoord[:]...).
		Float32(g.Color[:]...).
		Float32(g.Tangent[:]...)
}

// GPUSkinnedVertexSource is the WGSL SkinnedVertexInput struct matching SkinnedVertexLayout.
//
//go:embed assets/skinned_vertex.wgsl
var GPUSkinnedVertexSource string

// GPUSkinnedVertex extends GPUVertex with per-vertex bone skinning data.
// Size: 96 bytes (64 base vertex + 32 skinning data).
type GPUSkinnedVertex struct {
	GPUVertex
	BoneIndices [4]uint32  // offset 64: indices of up to 4 influencing bones
	BoneWeights [4]float32 // offset 80: blend weights, summing to 1
}

// SkinnedVertexLayout returns the interleaved layout matching GPUSkinnedVertex.
func SkinnedVertexLayout() gpu.VertexLayout {
	return gpu.NewVertexLayout(
		gpu.VertexFloat32x3,
		gpu.VertexFloat32x3,
		gpu.VertexFloat32x2,
		gpu.VertexFloat32x4,
		gpu.VertexFloat32x4,
		gpu.VertexUint32x4,
		gpu.VertexFloat32x4,
	)
}

// Size returns the size of the GPUSkinnedVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes
func (g *GPUSkinnedVertex) Size() int {
	return 96
}

// Marshal serializes the GPUSkinnedVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload
func (g *GPUSkinnedVertex) Marshal() []byte {
	w := g.GPUVertex.appendTo(common.NewUniformWriter(96))
	return w.Uint32(g.BoneIndices[:]...).Float32(g.BoneWeights[:]...).Bytes()
}

// MarshalSkinnedVertices packs a skinned vertex slice into one contiguous buffer.
func MarshalSkinnedVertices(vertices []GPUSkinnedVertex) []byte {
	w := common.NewUniformWriter(len(vertices) * 96)
	for i := range vertices {
		v := &vertices[i]
		v.GPUVertex.appendTo(w).Uint32(v.BoneIndices[:]...).Float32(v.BoneWeights[:]...)
	}
	return w.Bytes()
}

// MarshalVertices packs a vertex slice into one contiguous buffer.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices) * 64 bytes
func MarshalVertices(vertices []GPUVertex) []byte {
	w := common.NewUniformWriter(len(vertices) * 64)
	for i := range vertices {
		vertices[i].appendTo(w)
	}
	return w.Bytes()
}

// ComputeBounds returns the model-space AABB enclosing the given vertices.
// An empty slice yields a zero box at the origin.
//
// Parameters:
//   - vertices: the vertex data to bound
//
// Returns:
//   - common.AABB: the enclosing box
func ComputeBounds(vertices []GPUVertex) common.AABB {
	if len(vertices) == 0 {
		return common.AABB{}
	}
	box := common.AABB{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		box = box.Union(common.AABB{Min: v.Position, Max: v.Position})
	}
	return box
}
