package model

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/chewxy/math32"
)

// Transform represents a decomposed local bone transform.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a unit quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns a transform with no translation, no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}
}

// AxisAngle returns the unit quaternion rotating by angle radians about axis.
func AxisAngle(axis common.Vec3, angle float32) [4]float32 {
	a := common.Normalize3(axis)
	sin, cos := math32.Sin(angle/2), math32.Cos(angle/2)
	return [4]float32{a[0] * sin, a[1] * sin, a[2] * sin, cos}
}

// Matrix composes T * R * S into a column-major matrix.
func (t Transform) Matrix() common.Mat4 {
	x, y, z, w := t.Rotation[0], t.Rotation[1], t.Rotation[2], t.Rotation[3]
	sx, sy, sz := t.Scale[0], t.Scale[1], t.Scale[2]
	return common.Mat4{
		(1 - 2*(y*y+z*z)) * sx, 2 * (x*y + z*w) * sx, 2 * (x*z - y*w) * sx, 0,
		2 * (x*y - z*w) * sy, (1 - 2*(x*x+z*z)) * sy, 2 * (y*z + x*w) * sy, 0,
		2 * (x*z + y*w) * sz, 2 * (y*z - x*w) * sz, (1 - 2*(x*x+y*y)) * sz, 0,
		t.Translation[0], t.Translation[1], t.Translation[2], 1,
	}
}

// Bone represents a single bone in a skeleton hierarchy.
type Bone struct {
	// Name is the bone's identifier.
	Name string

	// ParentIndex is the index of the parent bone (-1 for root bones).
	// Parents must precede their children.
	ParentIndex int32

	// InverseBindMatrix transforms from model space to bone space at bind pose.
	InverseBindMatrix common.Mat4

	// LocalTransform is the bone's transform relative to its parent.
	LocalTransform Transform
}

// Skeleton represents a bone hierarchy for skinned meshes.
type Skeleton struct {
	Bones []Bone
}

// Pose computes the skinning matrix of every bone: the accumulated parent chain of local
// transforms multiplied by the bone's inverse bind matrix. A bone whose parent index is out
// of range is treated as a root.
//
// Returns:
//   - [][16]float32: one matrix per bone, in bone order
func (s *Skeleton) Pose() [][16]float32 {
	if s == nil {
		return nil
	}
	world := make([]common.Mat4, len(s.Bones))
	out := make([][16]float32, len(s.Bones))
	for i, b := range s.Bones {
		local := b.LocalTransform.Matrix()
		if p := b.ParentIndex; p >= 0 && int(p) < i {
			world[i] = common.Multiply(world[p], local)
		} else {
			world[i] = local
		}
		out[i] = common.Multiply(world[i], b.InverseBindMatrix)
	}
	return out
}

// Clone returns a deep copy, so a pose can be animated without touching the model's skeleton.
func (s *Skeleton) Clone() *Skeleton {
	if s == nil {
		return nil
	}
	return &Skeleton{Bones: append([]Bone(nil), s.Bones...)}
}
