package common

import "github.com/chewxy/math32"

// Plane is the set of points p with Dot3(Normal, p) + Distance = 0. Points with a positive
// value are on the inside.
type Plane struct {
	Normal   Vec3
	Distance float32
}

// SignedDistance returns the distance of p from the plane, positive on the inside.
func (p Plane) SignedDistance(v Vec3) float32 {
	return Dot3(p.Normal, v) + p.Distance
}

// Frustum is the six clip planes of a camera in world space, ordered left, right, bottom, top,
// near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromViewProjection extracts normalized world-space planes from a column-major
// view-projection matrix with clip depth in [0, w].
//
// Parameters:
//   - vp: the combined projection * view matrix
//
// Returns:
//   - Frustum: the planes facing inward
func FrustumFromViewProjection(vp Mat4) Frustum {
	row := func(r int) [4]float32 {
		return [4]float32{vp[r], vp[4+r], vp[8+r], vp[12+r]}
	}
	x, y, z, w := row(0), row(1), row(2), row(3)

	// The near plane is z >= 0 alone; the others bound a clip coordinate by w.
	rows := [6][4]float32{}
	for i := range 4 {
		rows[0][i] = w[i] + x[i]
		rows[1][i] = w[i] - x[i]
		rows[2][i] = w[i] + y[i]
		rows[3][i] = w[i] - y[i]
		rows[4][i] = z[i]
		rows[5][i] = w[i] - z[i]
	}

	var f Frustum
	for i, r := range rows {
		n := Vec3{r[0], r[1], r[2]}
		l := math32.Sqrt(Dot3(n, n))
		if l == 0 {
			continue
		}
		f.Planes[i] = Plane{Normal: Vec3{n[0] / l, n[1] / l, n[2] / l}, Distance: r[3] / l}
	}
	return f
}

// IntersectsAABB reports whether box is at least partly inside. It is conservative: a box
// near a frustum corner may pass while lying outside.
func (f Frustum) IntersectsAABB(box AABB) bool {
	for _, p := range f.Planes {
		// Furthest corner along the plane normal.
		far := box.Min
		for i := range 3 {
			if p.Normal[i] >= 0 {
				far[i] = box.Max[i]
			}
		}
		if p.SignedDistance(far) < 0 {
			return false
		}
	}
	return true
}
