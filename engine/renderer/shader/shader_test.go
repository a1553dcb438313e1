package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaterial = `struct Material {
    base_color: vec4<f32>,
    params: vec4<f32>,
};`

const testDraw = `struct DrawUniform {
    model: mat4x4<f32>,
    material: Material,
};`

const testSource = `//@oxy:include draw
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2<f32>,
};
struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
};
//@oxy:group 1 0 uniform draw draw
@group(3) @binding(0) var albedo_tex: texture_2d<f32>;
@group(3) @binding(32) var albedo_sampler: sampler;
@group(3) @binding(5) var depth_tex: texture_depth_2d;

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = draw.model * vec4<f32>(in.position, 1.0);
    out.uv = in.uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(albedo_tex, albedo_sampler, in.uv) * draw.material.base_color;
}
`

func testPreProcessor() PreProcessor {
	return NewPreProcessor(
		WithStruct("material", "Material", testMaterial),
		WithStruct("draw", "DrawUniform", testDraw, "material"),
	)
}

func TestPreProcessorIncludesDependenciesOnce(t *testing.T) {
	pp := testPreProcessor()
	out, err := pp.Process("//@oxy:include material\n//@oxy:include draw\n")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "struct Material"))
	assert.Less(t, strings.Index(out, "struct Material"), strings.Index(out, "struct DrawUniform"))
}

func TestPreProcessorGeneratesDeclarations(t *testing.T) {
	pp := testPreProcessor()
	out, err := pp.Process("//@oxy:group 1 0 uniform draw draw")
	require.NoError(t, err)
	assert.Contains(t, out, "@group(1) @binding(0) var<uniform> draw: DrawUniform;")

	decls := pp.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, 1, *decls[0].Group)
	assert.Equal(t, AnnotationArg("draw"), decls[0].Args[1])
}

func TestPreProcessorErrors(t *testing.T) {
	pp := testPreProcessor()
	for name, src := range map[string]string{
		"unknown include": "//@oxy:include camera",
		"unknown struct":  "//@oxy:group 0 0 uniform cam camera",
		"bad space":       "//@oxy:group 0 0 private draw draw",
		"bad group":       "//@oxy:group x 0 uniform draw draw",
		"unknown type":    "//@oxy:provider 0 0 material",
		"empty":           "//@oxy:",
	} {
		_, err := pp.Process(src)
		assert.Error(t, err, name)
	}

	cyclic := NewPreProcessor(WithStruct("a", "A", "struct A { x: f32 };", "b"), WithStruct("b", "B", "struct B { x: f32 };", "a"))
	_, err := cyclic.Process("//@oxy:include a")
	assert.ErrorContains(t, err, "cycle")
}

func TestPreProcessorChunks(t *testing.T) {
	pp := NewPreProcessor(
		WithStruct("material", "Material", testMaterial),
		WithChunk("tint", "fn tint(m: Material) -> vec4<f32> { return m.base_color; }", "material"),
	)
	out, err := pp.Process("//@oxy:include tint")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "struct Material"), strings.Index(out, "fn tint"))

	_, err = pp.Process("//@oxy:group 0 0 uniform t tint")
	assert.Error(t, err)
}

func TestNewShaderParsesPipelineSource(t *testing.T) {
	s, err := NewShader("forward.pbr", StageVertexFragment, testSource, WithPreProcessor(testPreProcessor()))
	require.NoError(t, err)

	assert.Equal(t, "vs_main", s.VertexEntryPoint())
	assert.Equal(t, "fs_main", s.FragmentEntryPoint())
	assert.Equal(t, 4, s.GroupCount())
	assert.Contains(t, s.Module().WGSLDescriptor.Code, "struct Material")

	draw := s.BindGroupLayoutDescriptor(1)
	require.Len(t, draw.Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, draw.Entries[0].Buffer.Type)
	// mat4 (64) + Material (32)
	assert.Equal(t, uint64(96), draw.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, draw.Entries[0].Visibility)

	textures := s.BindGroupLayoutDescriptor(3).Entries
	require.Len(t, textures, 3)
	assert.Equal(t, []uint32{0, 5, 32}, []uint32{textures[0].Binding, textures[1].Binding, textures[2].Binding})
	assert.Equal(t, wgpu.TextureSampleTypeDepth, textures[1].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, textures[2].Sampler.Type)

	binding, ok := s.BindGroupFromVarName(3, "depth_tex")
	assert.True(t, ok)
	assert.Equal(t, 5, binding)
	assert.Empty(t, s.BindGroupVarName(0, 0))

	require.Len(t, s.VertexLayouts(), 1)
	assert.Equal(t, uint64(20), s.VertexLayouts()[0][0].ArrayStride)
	assert.Len(t, s.Declarations(), 1)
}

func TestNewShaderErrors(t *testing.T) {
	_, err := NewShader("empty", StageVertexFragment, "")
	assert.Error(t, err)

	_, err = NewShader("no-fragment", StageVertexFragment, "@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }")
	assert.ErrorContains(t, err, "@fragment")

	s, err := NewShader("vertex-only", StageVertex, "@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }")
	require.NoError(t, err)
	assert.Empty(t, s.FragmentEntryPoint())
}

func TestMergeLayoutsOrsVisibility(t *testing.T) {
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageVertex}}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageFragment}, {Binding: 1, Visibility: wgpu.ShaderStageFragment}}},
		3: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 2, Visibility: wgpu.ShaderStageFragment}}},
	}

	merged := MergeLayouts(vertex, fragment)
	require.Len(t, merged, 2)
	require.Len(t, merged[0].Entries, 2)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, merged[0].Entries[0].Visibility)
	assert.Equal(t, uint32(1), merged[0].Entries[1].Binding)
	assert.Len(t, merged[3].Entries, 1)
}
