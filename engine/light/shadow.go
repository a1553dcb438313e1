package light

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/chewxy/math32"
)

// ShadowMapResolution is the default width and height in texels of the shadow depth texture.
const ShadowMapResolution uint32 = 2048

// ShadowHalfExtent is the orthographic half-extent (in world units) of the directional shadow volume.
// The volume is centered on the scene origin, not fitted to the camera frustum.
const ShadowHalfExtent float32 = 20.0

// ShadowNear is the near plane of the directional light's orthographic projection.
const ShadowNear float32 = 0.1

// ShadowFarScale multiplies ShadowHalfExtent to give the far plane.
const ShadowFarScale float32 = 3.0

// DefaultShadowBias is the depth comparison bias applied in the lighting shaders.
const DefaultShadowBias float32 = 0.01

// DefaultShadowSoftness is the PCF kernel radius multiplier.
const DefaultShadowSoftness float32 = 1.0

// LightSpaceMatrix builds the orthographic view-projection used for the shadow pass of a
// directional light. The eye sits ShadowHalfExtent units behind the origin, opposite the light
// direction, and looks at the origin. When the direction is nearly parallel to +Y the X axis is
// used as up.
//
// Parameters:
//   - direction: the direction the light travels (from light toward scene); need not be normalized
//
// Returns:
//   - common.Mat4: projection * view
func LightSpaceMatrix(direction [3]float32) common.Mat4 {
	dir := common.Normalize3(direction)
	if dir == [3]float32{} {
		dir = [3]float32{0, -1, 0}
	}

	s := ShadowHalfExtent
	up := common.Vec3{0, 1, 0}
	if math32.Abs(common.Dot3(dir, up)) > 0.99 {
		up = common.Vec3{1, 0, 0}
	}

	var view, proj common.Mat4
	common.LookAt(view[:],
		-dir[0]*s, -dir[1]*s, -dir[2]*s,
		0, 0, 0,
		up[0], up[1], up[2],
	)
	common.Ortho(proj[:], -s, s, -s, s, ShadowNear, ShadowFarScale*s)

	return common.Multiply(proj, view)
}
