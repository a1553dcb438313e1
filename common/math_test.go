package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMul4Identity(t *testing.T) {
	m := Translation(1, 2, 3)
	got := Multiply(Identity4(), m)
	assert.Equal(t, m, got)
}

func TestInvert4RoundTrip(t *testing.T) {
	var m Mat4
	BuildModelMatrix(m[:], 1, -2, 3, 0.3, 0.7, -0.2, 2, 2, 2)

	var inv Mat4
	require.True(t, Invert4(inv[:], m[:]))

	p := TransformPoint(m[:], Vec3{0.5, 0.25, -1})
	back := TransformPoint(inv[:], p)
	assert.InDelta(t, 0.5, back[0], 1e-4)
	assert.InDelta(t, 0.25, back[1], 1e-4)
	assert.InDelta(t, -1, back[2], 1e-4)
}

func TestInvert4Singular(t *testing.T) {
	var zero, out Mat4
	assert.False(t, Invert4(out[:], zero[:]))
}

func TestOrthoMapsDepthToUnitRange(t *testing.T) {
	var m Mat4
	Ortho(m[:], -20, 20, -20, 20, 0.1, 60)

	near := TransformPoint(m[:], Vec3{0, 0, -0.1})
	far := TransformPoint(m[:], Vec3{0, 0, -60})
	assert.InDelta(t, 0, near[2], 1e-5)
	assert.InDelta(t, 1, far[2], 1e-5)

	edge := TransformPoint(m[:], Vec3{20, -20, -1})
	assert.InDelta(t, 1, edge[0], 1e-5)
	assert.InDelta(t, -1, edge[1], 1e-5)
}

func TestNormalize3(t *testing.T) {
	v := Normalize3(Vec3{3, 0, 4})
	assert.InDelta(t, 1, math32.Sqrt(Dot3(v, v)), 1e-6)
	assert.Equal(t, Vec3{}, Normalize3(Vec3{}))
}

func TestMatricesNearlyEqual(t *testing.T) {
	a := Identity4()
	b := a
	b[5] += 5e-5
	assert.True(t, MatricesNearlyEqual(a[:], b[:], 1e-4))
	b[5] += 1e-3
	assert.False(t, MatricesNearlyEqual(a[:], b[:], 1e-4))
	assert.False(t, MatricesNearlyEqual(a[:], b[:4], 1e-4))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(0, 1, 64))
	assert.Equal(t, 64, Clamp(100, 1, 64))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}
