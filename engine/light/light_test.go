package light

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manyLights(t LightType, n int) []Light {
	out := make([]Light, n)
	for i := range out {
		out[i] = NewLight(t, WithPosition(float32(i), 0, 0))
	}
	return out
}

func TestNewEnvironmentPartitions(t *testing.T) {
	sun := NewLight(LightTypeDirectional, WithCastsShadows(true))
	fill := NewLight(LightTypeDirectional)
	off := NewLight(LightTypePoint, WithEnabled(false))

	env := NewEnvironment(fill, NewLight(LightTypePoint), nil, off, sun, NewLight(LightTypeSpot))
	require.Len(t, env.Directionals, 2)
	// Input order wins over the caster flag.
	assert.Same(t, fill, env.Main())
	assert.Same(t, sun, env.Directionals[1])
	assert.Len(t, env.Points, 1)
	assert.Len(t, env.Spots, 1)
	assert.Equal(t, 1, env.ExtraDirectionalCount())

	assert.Nil(t, NewEnvironment().Main())
	assert.Equal(t, 0, NewEnvironment().ExtraDirectionalCount())
}

func TestLightCountsAreCapped(t *testing.T) {
	var lights []Light
	lights = append(lights, manyLights(LightTypePoint, 40)...)
	lights = append(lights, manyLights(LightTypeSpot, 17)...)
	lights = append(lights, manyLights(LightTypeDirectional, 9)...)
	env := NewEnvironment(lights...)

	assert.Equal(t, MaxPointLights, env.PointCount())
	assert.Equal(t, MaxSpotLights, env.SpotCount())
	assert.Equal(t, MaxDirectionalLights, env.ExtraDirectionalCount())

	block := MarshalLightBlock(env, BlockParams{AmbientIntensity: 0.1})
	require.Len(t, block, LightBlockSize)
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(block[48:52]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(block[52:56]))
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(block[56:60]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(block[60:64]), "shadows flag")
}

func TestMarshalLightBlockEmpty(t *testing.T) {
	block := MarshalLightBlock(NewEnvironment(), BlockParams{ShadowsEnabled: true})
	require.Len(t, block, LightBlockSize)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(block[60:64]), "no main light means no shadows")
}

func TestLightSpaceMatrixMapsOriginIntoVolume(t *testing.T) {
	m := LightSpaceMatrix([3]float32{-0.3, -1, -0.2})
	p := common.TransformPoint(m[:], common.Vec3{0, 0, 0})
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 0, p[1], 1e-5)
	assert.Greater(t, p[2], float32(0))
	assert.Less(t, p[2], float32(1))

	edge := common.TransformPoint(m[:], common.Vec3{0, 0, 19})
	assert.LessOrEqual(t, edge[0]*edge[0]+edge[1]*edge[1], float32(2.0))
}

func TestLightSpaceMatrixStraightDownUsesXUp(t *testing.T) {
	m := LightSpaceMatrix([3]float32{0, -1, 0})
	for _, v := range m {
		assert.False(t, v != v, "matrix contains NaN")
	}
	p := common.TransformPoint(m[:], common.Vec3{1, 0, 0})
	assert.InDelta(t, 1.0/ShadowHalfExtent, p[1], 1e-5, "world X maps to light-space up")

	assert.Equal(t, LightSpaceMatrix([3]float32{0, -1, 0}), LightSpaceMatrix([3]float32{}))
}

func TestNewLightDefaultsAndSetters(t *testing.T) {
	l := NewLight(LightTypeSpot, WithDirection(0, 0, -4), WithRange(-3), WithSpotCone(40, 30))
	assert.Equal(t, "spot", l.Type().String())
	assert.Equal(t, common.Vec3{0, 0, -1}, l.Direction())
	assert.Equal(t, float32(0), l.Range())
	assert.Equal(t, l.OuterCone(), l.InnerCone(), "inner cone narrowed to outer")
	assert.True(t, l.Enabled())
	assert.False(t, l.CastsShadows())

	l.SetSpotCone(10, 20)
	assert.Greater(t, l.InnerCone(), l.OuterCone())
	l.SetDirection(0, 0, 0)
	assert.Equal(t, common.Vec3{}, l.Direction())
	l.SetRange(5)
	assert.Equal(t, float32(5), l.Range())
	l.SetEnabled(false)
	assert.Empty(t, NewEnvironment(l).Spots)
}
