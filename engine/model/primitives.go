package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
)

// cubeFaces lists normal, tangent and bitangent per face.
var cubeFaces = [6][3][3]float32{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

// CubeGeometry returns the vertices and indices of an axis-aligned cube centred at the origin.
//
// Parameters:
//   - size: edge length
//
// Returns:
//   - []GPUVertex: 24 vertices (4 per face)
//   - []uint32: 36 indices
func CubeGeometry(size float32) ([]GPUVertex, []uint32) {
	h := size / 2
	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	signs := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, face := range cubeFaces {
		n, t, b := face[0], face[1], face[2]
		base := uint32(len(vertices))
		for i, s := range signs {
			var p [3]float32
			for k := 0; k < 3; k++ {
				p[k] = (n[k] + s[0]*t[k] + s[1]*b[k]) * h
			}
			vertices = append(vertices, GPUVertex{
				Position: p,
				Normal:   n,
				TexCoord: uvs[i],
				Color:    [4]float32{1, 1, 1, 1},
				Tangent:  [4]float32{t[0], t[1], t[2], 1},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// PlaneGeometry returns an XZ plane centred at the origin facing +Y.
//
// Parameters:
//   - size: edge length
//
// Returns:
//   - []GPUVertex: 4 vertices
//   - []uint32: 6 indices
func PlaneGeometry(size float32) ([]GPUVertex, []uint32) {
	h := size / 2
	up := [3]float32{0, 1, 0}
	tangent := [4]float32{1, 0, 0, 1}
	white := [4]float32{1, 1, 1, 1}
	vertices := []GPUVertex{
		{Position: [3]float32{-h, 0, h}, Normal: up, TexCoord: [2]float32{0, 1}, Color: white, Tangent: tangent},
		{Position: [3]float32{h, 0, h}, Normal: up, TexCoord: [2]float32{1, 1}, Color: white, Tangent: tangent},
		{Position: [3]float32{h, 0, -h}, Normal: up, TexCoord: [2]float32{1, 0}, Color: white, Tangent: tangent},
		{Position: [3]float32{-h, 0, -h}, Normal: up, TexCoord: [2]float32{0, 0}, Color: white, Tangent: tangent},
	}
	return vertices, []uint32{0, 1, 2, 0, 2, 3}
}

// NewCube uploads a cube through device and wraps it in a Model.
//
// Parameters:
//   - device: the device used to create the vertex array
//   - size: edge length
//   - options: additional model options (materials, name, ...)
//
// Returns:
//   - Model: the cube model
//   - error: vertex array creation failure
func NewCube(device gpu.Device, size float32, options ...ModelBuilderOption) (Model, error) {
	vertices, indices := CubeGeometry(size)
	return newPrimitive(device, "cube", vertices, indices, options)
}

// NewPlane uploads an XZ plane through device and wraps it in a Model.
//
// Parameters:
//   - device: the device used to create the vertex array
//   - size: edge length
//   - options: additional model options
//
// Returns:
//   - Model: the plane model
//   - error: vertex array creation failure
func NewPlane(device gpu.Device, size float32, options ...ModelBuilderOption) (Model, error) {
	vertices, indices := PlaneGeometry(size)
	return newPrimitive(device, "plane", vertices, indices, options)
}

func newPrimitive(device gpu.Device, label string, vertices []GPUVertex, indices []uint32, options []ModelBuilderOption) (Model, error) {
	va, err := device.CreateVertexArray(gpu.VertexArrayDescriptor{
		Label:    label,
		Layout:   VertexLayout(),
		Vertices: MarshalVertices(vertices),
		Indices:  indices,
	})
	if err != nil {
		return nil, fmt.Errorf("model: create %s vertex array: %w", label, err)
	}
	bounds := ComputeBounds(vertices)
	opts := append([]ModelBuilderOption{WithName(label), WithBounds(bounds)}, options...)
	return NewModel(va, opts...), nil
}

// SkinnedColumnGeometry returns an open-bottomed square prism standing on the origin. Vertices
// blend from the root bone at the base to the bend bone above mid height.
//
// Parameters:
//   - width: edge length of the cross-section
//   - height: column height
//   - segments: subdivisions along Y, at least 1
//
// Returns:
//   - []GPUSkinnedVertex: (segments+1)*8 side vertices plus 4 cap vertices
//   - []uint32: the triangle list
func SkinnedColumnGeometry(width, height float32, segments int) ([]GPUSkinnedVertex, []uint32) {
	segments = max(segments, 1)
	h := width / 2
	white := [4]float32{1, 1, 1, 1}
	var vertices []GPUSkinnedVertex
	var indices []uint32

	vertex := func(p, n [3]float32, t [3]float32, uv [2]float32, bend float32) GPUSkinnedVertex {
		return GPUSkinnedVertex{
			GPUVertex: GPUVertex{
				Position: p,
				Normal:   n,
				TexCoord: uv,
				Color:    white,
				Tangent:  [4]float32{t[0], t[1], t[2], 1},
			},
			BoneIndices: [4]uint32{0, 1, 0, 0},
			BoneWeights: [4]float32{1 - bend, bend, 0, 0},
		}
	}

	for _, face := range cubeFaces {
		n, t := face[0], face[1]
		if n[1] != 0 {
			continue
		}
		base := uint32(len(vertices))
		for s := 0; s <= segments; s++ {
			v := float32(s) / float32(segments)
			for _, u := range [2]float32{-1, 1} {
				p := [3]float32{(n[0] + u*t[0]) * h, v * height, (n[2] + u*t[2]) * h}
				vertices = append(vertices, vertex(p, n, t, [2]float32{(u + 1) / 2, 1 - v}, bendWeight(v)))
			}
		}
		for s := range segments {
			i := base + uint32(s*2)
			indices = append(indices, i, i+1, i+3, i, i+3, i+2)
		}
	}

	base := uint32(len(vertices))
	for _, c := range [4][2]float32{{-1, 1}, {1, 1}, {1, -1}, {-1, -1}} {
		p := [3]float32{c[0] * h, height, c[1] * h}
		vertices = append(vertices, vertex(p, [3]float32{0, 1, 0}, [3]float32{1, 0, 0}, [2]float32{(c[0] + 1) / 2, (c[1] + 1) / 2}, 1))
	}
	indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	return vertices, indices
}

// bendWeight is a smoothstep from 0.3 to 0.7 of the column height.
func bendWeight(v float32) float32 {
	x := min(max((v-0.3)/0.4, 0), 1)
	return x * x * (3 - 2*x)
}

// ColumnSkeleton is the two-bone rig of SkinnedColumnGeometry: a root at the base and a bend
// bone at mid height.
func ColumnSkeleton(height float32) *Skeleton {
	bend := IdentityTransform()
	bend.Translation = [3]float32{0, height / 2, 0}
	return &Skeleton{Bones: []Bone{
		{Name: "root", ParentIndex: -1, InverseBindMatrix: common.Identity4(), LocalTransform: IdentityTransform()},
		{Name: "bend", ParentIndex: 0, InverseBindMatrix: common.Translation(0, -height/2, 0), LocalTransform: bend},
	}}
}

// NewSkinnedColumn uploads a skinned column with its skeleton. The bounds are widened by half
// the height on X and Z so a bent pose stays inside them.
//
// Parameters:
//   - device: the device used to create the vertex array
//   - width: edge length of the cross-section
//   - height: column height
//   - segments: subdivisions along Y
//   - options: additional model options
//
// Returns:
//   - Model: the skinned model
//   - error: vertex array creation failure
func NewSkinnedColumn(device gpu.Device, width, height float32, segments int, options ...ModelBuilderOption) (Model, error) {
	vertices, indices := SkinnedColumnGeometry(width, height, segments)
	va, err := device.CreateVertexArray(gpu.VertexArrayDescriptor{
		Label:    "column",
		Layout:   SkinnedVertexLayout(),
		Vertices: MarshalSkinnedVertices(vertices),
		Indices:  indices,
	})
	if err != nil {
		return nil, fmt.Errorf("model: create column vertex array: %w", err)
	}
	r := width/2 + height/2
	bounds := common.NewAABB(common.Vec3{-r, 0, -r}, common.Vec3{r, height, r})
	opts := append([]ModelBuilderOption{WithName("column"), WithBounds(bounds), WithSkeleton(ColumnSkeleton(height))}, options...)
	return NewModel(va, opts...), nil
}
