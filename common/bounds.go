package common

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// NewAABB returns a box spanning the given corners, sorted per axis.
func NewAABB(a, b Vec3) AABB {
	var box AABB
	for i := 0; i < 3; i++ {
		box.Min[i] = math32.Min(a[i], b[i])
		box.Max[i] = math32.Max(a[i], b[i])
	}
	return box
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// Transform returns the box enclosing all eight corners of b after transforming them by m.
//
// Parameters:
//   - m: column-major 4x4 transform
//
// Returns:
//   - AABB: the transformed box
func (b AABB) Transform(m Mat4) AABB {
	corners := b.Corners()
	first := TransformPoint(m[:], corners[0])
	out := AABB{Min: first, Max: first}
	for _, c := range corners[1:] {
		p := TransformPoint(m[:], c)
		for i := 0; i < 3; i++ {
			out.Min[i] = math32.Min(out.Min[i], p[i])
			out.Max[i] = math32.Max(out.Max[i], p[i])
		}
	}
	return out
}

// Union returns the smallest box containing both a and b.
func (b AABB) Union(o AABB) AABB {
	var out AABB
	for i := 0; i < 3; i++ {
		out.Min[i] = math32.Min(b.Min[i], o.Min[i])
		out.Max[i] = math32.Max(b.Max[i], o.Max[i])
	}
	return out
}

// Edges returns the 12 edges of the box as 24 line endpoints.
func (b AABB) Edges() [24]Vec3 {
	c := b.Corners()
	idx := [24]int{
		0, 1, 1, 3, 3, 2, 2, 0,
		4, 5, 5, 7, 7, 6, 6, 4,
		0, 4, 1, 5, 2, 6, 3, 7,
	}
	var out [24]Vec3
	for i, k := range idx {
		out[i] = c[k]
	}
	return out
}
