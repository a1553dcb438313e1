package shaders

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformSize(t *testing.T, entries []wgpu.BindGroupLayoutEntry) uint64 {
	t.Helper()
	for _, e := range entries {
		if e.Buffer.Type == wgpu.BufferBindingTypeUniform {
			return e.Buffer.MinBindingSize
		}
	}
	return 0
}

func entry(entries []wgpu.BindGroupLayoutEntry, binding uint32) (wgpu.BindGroupLayoutEntry, bool) {
	for _, e := range entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return wgpu.BindGroupLayoutEntry{}, false
}

func TestEveryStandardPipelineHasSource(t *testing.T) {
	set, err := Standard()
	require.NoError(t, err)
	for _, p := range passes.StandardPipelines(set) {
		assert.NotEmpty(t, p.VertexSource(), p.PipelineKey())
	}
	assert.Len(t, Keys(), len(set))
}

func TestEveryStandardSourceParses(t *testing.T) {
	for _, key := range Keys() {
		s, err := Parse(key)
		require.NoError(t, err, key)
		assert.Equal(t, "vs_main", s.VertexEntryPoint(), key)
		assert.Equal(t, "fs_main", s.FragmentEntryPoint(), key)
		assert.NotContains(t, s.Source(), "@oxy:", key)
	}
}

// Uniform block sizes must match what the pass renderers marshal.
func TestUniformSizesMatchMarshalLayouts(t *testing.T) {
	cases := []struct {
		key   string
		group int
		size  uint64
	}{
		{passes.KeyShadow, 0, 64},
		{passes.KeyShadow, 1, 64},
		{passes.KeyGBufferPBR, 0, 144},
		{passes.KeyGBufferPBR, 1, 208},
		{passes.KeyGBufferSkinned, 1, 208 + 64*64},
		{passes.KeyForwardPhong, 1, 208},
		{passes.KeyForwardPhong, 2, light.LightBlockSize},
		{passes.KeyForwardSkinnedTransparent, 1, 208 + 64*64},
		{passes.KeyDeferredLighting, 0, 96},
		{passes.KeyDeferredLighting, 2, light.LightBlockSize},
		{passes.KeySSGI, 0, 160},
		{passes.KeyGTAO, 0, 224},
		{passes.KeyOutline, 0, 48 + passes.MaxOutlineIDs*16},
		{passes.KeyOutlineLines, 0, 64},
		{passes.KeyDepthView, 0, 16},
		{passes.KeyGBufferDebug, 0, 16},
		{passes.KeySkybox, 0, 128},
		{passes.KeyIrradiance, 0, 144},
		{passes.KeyPrefilter, 0, 144},
		{passes.KeyProceduralSky, 0, 192},
		{passes.KeyInfiniteGrid, 0, 208},
		{passes.KeyBatchQuad, 0, 64},
		{passes.KeyBatchCircle, 0, 64},
	}
	for _, c := range cases {
		s, err := Parse(c.key)
		require.NoError(t, err, c.key)
		assert.Equal(t, c.size, uniformSize(t, s.BindGroupLayoutDescriptor(c.group).Entries), "%s group %d", c.key, c.group)
	}
}

func TestTextureBindingsFollowPassConstants(t *testing.T) {
	s, err := Parse(passes.KeyDeferredLighting)
	require.NoError(t, err)
	textures := s.BindGroupLayoutDescriptor(int(passes.GroupTextures)).Entries

	depth, ok := entry(textures, passes.BindingDepth)
	require.True(t, ok)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, depth.Texture.SampleType)

	shadow, ok := entry(textures, passes.BindingShadowMap)
	require.True(t, ok)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, shadow.Texture.SampleType)

	prefilter, ok := entry(textures, passes.BindingPrefilter)
	require.True(t, ok)
	assert.Equal(t, wgpu.TextureViewDimensionCube, prefilter.Texture.ViewDimension)

	for _, b := range []uint32{passes.BindingAlbedo, passes.BindingNormal, passes.BindingMaterial, passes.BindingEmissive, passes.BindingSSGI, passes.BindingGTAO, passes.BindingBRDFLUT} {
		e, ok := entry(textures, b)
		require.True(t, ok, "binding %d", b)
		assert.Equal(t, wgpu.TextureSampleTypeFloat, e.Texture.SampleType, "binding %d", b)
	}

	outline, err := Parse(passes.KeyOutline)
	require.NoError(t, err)
	id, ok := entry(outline.BindGroupLayoutDescriptor(int(passes.GroupTextures)).Entries, passes.BindingObjectID)
	require.True(t, ok)
	assert.Equal(t, wgpu.TextureSampleTypeSint, id.Texture.SampleType)

	sprite, err := Parse(passes.KeyBatchQuad)
	require.NoError(t, err)
	_, ok = entry(sprite.BindGroupLayoutDescriptor(int(passes.GroupTextures)).Entries, passes.BindingSprite)
	assert.True(t, ok)
}

func TestSharedSourcesExpandOnce(t *testing.T) {
	s, err := Parse(passes.KeyForwardSkinned)
	require.NoError(t, err)
	src := s.Source()
	assert.Equal(t, 1, countOf(src, "struct Material {"))
	assert.Equal(t, 1, countOf(src, "struct MeshOutput {"))
	assert.Equal(t, 1, countOf(src, "fn distribution_ggx"))
}

func TestBRDFLUTBindsNothing(t *testing.T) {
	s, err := Parse(passes.KeyBRDFLUT)
	require.NoError(t, err)
	assert.Zero(t, s.GroupCount())
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse("nope")
	assert.ErrorContains(t, err, "unknown pipeline")
}

func countOf(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
