package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func testViewProjection() Mat4 {
	var proj, view Mat4
	Perspective(proj[:], math32.Pi/2, 1, 0.1, 100)
	LookAt(view[:], 0, 0, 5, 0, 0, 0, 0, 1, 0)
	return Multiply(proj, view)
}

func TestFrustumIntersectsAABB(t *testing.T) {
	vp := testViewProjection()
	f := FrustumFromViewProjection(vp)

	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"origin", NewAABB(Vec3{-1, -1, -1}, Vec3{1, 1, 1}), true},
		{"behind camera", NewAABB(Vec3{-1, -1, 48}, Vec3{1, 1, 52}), false},
		{"far right", NewAABB(Vec3{999, -1, -1}, Vec3{1001, 1, 1}), false},
		{"beyond far plane", NewAABB(Vec3{-1, -1, -500}, Vec3{1, 1, -400}), false},
		{"straddling left plane", NewAABB(Vec3{-10, -1, -1}, Vec3{0, 1, 1}), true},
		{"closer than near plane", NewAABB(Vec3{-0.01, -0.01, 4.92}, Vec3{0.01, 0.01, 4.98}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IntersectsAABB(tt.box))
		})
	}
}

func TestAABBTransform(t *testing.T) {
	box := NewAABB(Vec3{1, 1, 1}, Vec3{-1, -1, -1})
	assert.Equal(t, Vec3{-1, -1, -1}, box.Min)

	moved := box.Transform(Translation(10, 0, 0))
	assert.InDelta(t, 9, moved.Min[0], 1e-6)
	assert.InDelta(t, 11, moved.Max[0], 1e-6)

	var rot Mat4
	BuildModelMatrix(rot[:], 0, 0, 0, 0, math32.Pi/4, 0, 1, 1, 1)
	spun := box.Transform(rot)
	assert.InDelta(t, math32.Sqrt(2), spun.Max[0], 1e-5)
	assert.InDelta(t, 1, spun.Max[1], 1e-5)
}

func TestAABBEdges(t *testing.T) {
	box := NewAABB(Vec3{0, 0, 0}, Vec3{1, 1, 1})
	edges := box.Edges()
	for i := 0; i < len(edges); i += 2 {
		a, b := edges[i], edges[i+1]
		diff := 0
		for k := 0; k < 3; k++ {
			if a[k] != b[k] {
				diff++
			}
		}
		assert.Equal(t, 1, diff, "edge %d should differ along one axis", i/2)
	}
}
