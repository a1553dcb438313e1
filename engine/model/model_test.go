package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCube(t *testing.T) {
	device := gpu.NewVirtualDevice()
	red := material.NewMaterial(material.WithPhong([4]float32{1, 0, 0, 1}, [3]float32{}, 16))

	cube, err := NewCube(device, 2, WithMaterials(red))
	require.NoError(t, err)

	assert.Equal(t, "cube", cube.Name())
	assert.Equal(t, uint32(24), cube.VertexArray().VertexCount())
	assert.Equal(t, uint32(36), cube.VertexArray().IndexCount())
	require.Len(t, cube.Submeshes(), 1)

	sub := cube.Submeshes()[0]
	assert.Equal(t, uint32(36), sub.IndexCount)
	assert.Same(t, red, cube.Material(sub))
	assert.Equal(t, common.Vec3{-1, -1, -1}, cube.Bounds().Min)
	assert.Equal(t, common.Vec3{1, 1, 1}, cube.Bounds().Max)
	assert.Equal(t, cube.Bounds(), sub.Bounds)
	assert.False(t, cube.Skinned())
}

func TestModel_BoundsFromSubmeshes(t *testing.T) {
	device := gpu.NewVirtualDevice()
	va, err := device.CreateVertexArray(gpu.VertexArrayDescriptor{Label: "two", Layout: VertexLayout(), Indices: make([]uint32, 12)})
	require.NoError(t, err)

	m := NewModel(va,
		WithSubmesh(Submesh{IndexCount: 6, Bounds: common.NewAABB(common.Vec3{0, 0, 0}, common.Vec3{1, 1, 1})}),
		WithSubmesh(Submesh{IndexOffset: 6, IndexCount: 6, MaterialIndex: 3, Bounds: common.NewAABB(common.Vec3{-2, 0, 0}, common.Vec3{0, 5, 0})}),
	)
	assert.Equal(t, common.Vec3{-2, 0, 0}, m.Bounds().Min)
	assert.Equal(t, common.Vec3{1, 5, 1}, m.Bounds().Max)
	assert.Nil(t, m.Material(m.Submeshes()[1]))
}

func TestVertexMarshal(t *testing.T) {
	v := GPUSkinnedVertex{GPUVertex: GPUVertex{Position: [3]float32{1, 2, 3}}, BoneIndices: [4]uint32{1, 2, 3, 4}}
	assert.Len(t, v.Marshal(), v.Size())
	assert.Len(t, v.GPUVertex.Marshal(), v.GPUVertex.Size())
	assert.Equal(t, uint32(64), VertexLayout().Stride)
	assert.Equal(t, uint32(96), SkinnedVertexLayout().Stride)
}

func TestSkeleton_Pose(t *testing.T) {
	root := IdentityTransform()
	root.Translation = [3]float32{0, 1, 0}
	child := IdentityTransform()
	child.Translation = [3]float32{2, 0, 0}

	s := &Skeleton{Bones: []Bone{
		{Name: "root", ParentIndex: -1, InverseBindMatrix: common.Identity4(), LocalTransform: root},
		{Name: "child", ParentIndex: 0, InverseBindMatrix: common.Translation(-2, -1, 0), LocalTransform: child},
	}}
	pose := s.Pose()
	require.Len(t, pose, 2)
	assert.Equal(t, float32(1), pose[0][13])
	// Bind pose: world * inverse bind is the identity.
	assert.True(t, common.MatricesNearlyEqual(pose[1][:], func() []float32 { m := common.Identity4(); return m[:] }(), 1e-6))
	assert.Nil(t, (*Skeleton)(nil).Pose())
}

func TestSkinnedColumnGeometry(t *testing.T) {
	vertices, indices := SkinnedColumnGeometry(1, 4, 3)
	require.Len(t, vertices, 4*2*4+4)
	assert.Len(t, indices, 4*3*6+6)

	for _, v := range vertices {
		assert.InDelta(t, 1, v.BoneWeights[0]+v.BoneWeights[1], 1e-6)
		assert.Equal(t, [4]uint32{0, 1, 0, 0}, v.BoneIndices)
	}
	// Base rows follow the root, the cap follows the bend bone.
	assert.Equal(t, float32(1), vertices[0].BoneWeights[0])
	assert.Equal(t, float32(1), vertices[len(vertices)-1].BoneWeights[1])
	assert.Equal(t, float32(4), vertices[len(vertices)-1].Position[1])
}

func TestNewSkinnedColumn(t *testing.T) {
	device := gpu.NewVirtualDevice()
	column, err := NewSkinnedColumn(device, 1, 4, 2)
	require.NoError(t, err)
	defer column.Release()

	assert.True(t, column.Skinned())
	assert.Equal(t, SkinnedVertexLayout(), column.VertexArray().Layout())
	assert.Equal(t, uint32(4*2*3+4), column.VertexArray().VertexCount())
	assert.Equal(t, common.Vec3{-2.5, 0, -2.5}, column.Bounds().Min)

	pose := column.Skeleton().Clone()
	pose.Bones[1].LocalTransform.Rotation = AxisAngle(common.Vec3{0, 0, 1}, 0.5)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, column.Skeleton().Bones[1].LocalTransform.Rotation)

	bones := pose.Pose()
	require.Len(t, bones, 2)
	identity := common.Identity4()
	assert.True(t, common.MatricesNearlyEqual(bones[0][:], identity[:], 1e-6))
	assert.False(t, common.MatricesNearlyEqual(bones[1][:], identity[:], 1e-3))
}

func TestAxisAngle(t *testing.T) {
	q := AxisAngle(common.Vec3{0, 2, 0}, math32.Pi)
	assert.InDelta(t, 1, q[1], 1e-6)
	assert.InDelta(t, 0, q[3], 1e-6)
}
