package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutOf(t *testing.T) {
	r, err := reflectSource(`
struct Inner { a: vec3<f32>, b: f32 };
struct Outer {
    m: mat3x3<f32>,
    inner: Inner,
    ids: array<vec4<i32>, 4>,
    h: vec2h,
};
struct Runtime { count: u32, items: array<vec4f> };
`)
	require.NoError(t, err)

	tests := []struct {
		typ   string
		size  uint64
		align uint64
	}{
		{"f32", 4, 4},
		{"vec3f", 12, 16},
		{"vec3<u32>", 12, 16},
		{"mat4x4<f32>", 64, 16},
		{"mat3x2f", 24, 8},
		{"atomic<u32>", 4, 4},
		{"array<mat4x4<f32>, 64>", 4096, 16},
		{"Inner", 16, 16},
		{"Outer", 48 + 16 + 64 + 16, 16},
		{"Runtime", 32, 16},
	}
	for _, tt := range tests {
		l, ok := r.layoutOf(tt.typ)
		require.True(t, ok, tt.typ)
		assert.Equal(t, typeLayout{tt.size, tt.align}, l, tt.typ)
	}

	for _, typ := range []string{"vec5f", "mat4x4<i32>", "Missing", "array<f32, 0>"} {
		_, ok := r.layoutOf(typ)
		assert.False(t, ok, typ)
	}
}

func TestStructLayoutRejectsCycles(t *testing.T) {
	r, err := reflectSource("struct A { b: B };\nstruct B { a: A };")
	require.NoError(t, err)
	_, ok := r.layoutOf("A")
	assert.False(t, ok)
}

func TestReflectAttributesInAnyOrder(t *testing.T) {
	r, err := reflectSource(`
@binding(2) @group(1) var<storage, read_write> counts: array<u32>;
@group(1) @binding(0) var<storage> items: array<vec4f, 2>;
@group(0) @binding(1) var shadow: texture_depth_2d;
@group(0) @binding(0) var cmp: sampler_comparison;
@group(0) @binding(3) var ids: texture_2d<i32>;
@group(0) @binding(4) var sky: texture_cube<f32>;
`)
	require.NoError(t, err)
	layouts, names := r.bindGroupLayouts(wgpu.ShaderStageFragment)

	storage := layouts[1].Entries
	require.Len(t, storage, 2)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, storage[0].Buffer.Type)
	assert.Equal(t, uint64(32), storage[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, storage[1].Buffer.Type)
	assert.Equal(t, uint64(4), storage[1].Buffer.MinBindingSize)

	handles := layouts[0].Entries
	require.Len(t, handles, 4)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, handles[0].Sampler.Type)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, handles[1].Texture.SampleType)
	assert.Equal(t, wgpu.TextureSampleTypeSint, handles[2].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimensionCube, handles[3].Texture.ViewDimension)
	assert.Equal(t, "counts", names[1][2])
}

func TestReflectRejectsUnsupportedResources(t *testing.T) {
	for _, src := range []string{
		"@group(0) @binding(0) var out: texture_storage_2d<rgba8unorm, write>;",
		"@group(0) @binding(0) var t: texture_2d;",
		"@group(0) @binding(0) var<uniform> u: Unknown;",
		"@group(0) @binding(0) var<workgroup> w: f32;",
	} {
		_, err := reflectSource(src)
		assert.Error(t, err, src)
	}
}

func TestReflectSkipsCommentsAndInterStageStructs(t *testing.T) {
	r, err := reflectSource(`
/* @group(0) @binding(0) var<uniform> a: f32; /* nested */ */
// @group(0) @binding(1) var<uniform> b: f32;
struct In { @location(0) pos: vec3f, @location(1) id: u32, @location(2) w: vec4h };
struct Out { @builtin(position) clip: vec4f, @location(0) uv: vec2f };
@vertex
fn vs_main(in: In) -> Out { var o: Out; return o; }
@fragment fn fs_main() -> @location(0) vec4f { return vec4f(); }
`)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", r.entryPoint(StageVertex))
	assert.Equal(t, "fs_main", r.entryPoint(StageFragment))

	layouts, _ := r.bindGroupLayouts(wgpu.ShaderStageVertex)
	assert.Empty(t, layouts)

	vertex := r.vertexLayouts()
	require.Len(t, vertex, 1)
	layout := vertex[0][0]
	assert.Equal(t, uint64(24), layout.ArrayStride)
	require.Len(t, layout.Attributes, 3)
	assert.Equal(t, wgpu.VertexFormatUint32, layout.Attributes[1].Format)
	assert.Equal(t, uint64(12), layout.Attributes[1].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat16x4, layout.Attributes[2].Format)
}
