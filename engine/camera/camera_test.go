package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
	"github.com/stretchr/testify/assert"
)

var _ scene.CameraView = NewCamera()

func TestCamera_NoControllerKeepsIdentityView(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, common.Identity4(), c.ViewMatrix())
	assert.Equal(t, common.Vec3{}, c.Position())
	assert.Equal(t, c.ProjectionMatrix(), c.ViewProjectionMatrix())
}

func TestCamera_ControllerDrivesView(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(50), WithAngles(0, 0))
	c := NewCamera(WithController(ctrl), WithAspect(16.0/9.0))

	pos := c.Position()
	assert.InDelta(t, 0, pos[0], 1e-4)
	assert.InDelta(t, 0, pos[1], 1e-4)
	assert.InDelta(t, 50, pos[2], 1e-4)

	// The view translates the eye to the origin.
	assert.InDelta(t, -50, c.ViewMatrix()[14], 1e-3)

	// The eye keeps its offset from the target.
	ctrl.SetTarget(common.Vec3{0, 0, 10})
	c.Update()
	assert.InDelta(t, 60, c.Position()[2], 1e-4)
	assert.InDelta(t, -60, c.ViewMatrix()[14], 1e-3)
}

func TestCamera_SettersRecomputeProjection(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()
	c.SetAspect(2)
	assert.NotEqual(t, before, c.ProjectionMatrix())
	assert.Equal(t, float32(2), c.Aspect())

	c.SetAspect(0)
	assert.Equal(t, float32(2), c.Aspect())

	c.SetClip(0.5, 0.25)
	assert.Equal(t, float32(0.5), c.Near())
	assert.Equal(t, float32(1), c.Far())
}

func TestCamera_FovDegrees(t *testing.T) {
	c := NewCamera(WithFovDegrees(90))
	assert.InDelta(t, 1.5707963, c.Fov(), 1e-5)
	// f = 1 / tan(45deg) = 1 with aspect 1.
	assert.InDelta(t, 1, c.ProjectionMatrix()[5], 1e-5)
}

func TestOrbit_ZoomClampsToBounds(t *testing.T) {
	o := NewOrbitController(WithRadius(10), WithRadiusBounds(5, 20), WithSensitivity(0, 0, 0.5))
	o.Zoom(1)
	assert.InDelta(t, 5, o.Radius(), 1e-5)
	o.Zoom(-10)
	assert.InDelta(t, 20, o.Radius(), 1e-5)
}

func TestOrbit_RotateClampsElevation(t *testing.T) {
	o := NewOrbitController(WithRadius(1), WithAngles(0, 0), WithSensitivity(1, 0, 0))
	o.Rotate(0, 100)
	pos := o.Position()
	assert.Less(t, pos[1], float32(1))
	assert.Greater(t, pos[1], float32(0.99))
}

func TestOrbit_PanMovesTargetAndEyeTogether(t *testing.T) {
	o := NewOrbitController(WithRadius(10), WithAngles(0, 0), WithSensitivity(0, 0.1, 0))
	eyeBefore := o.Position()
	o.Pan(1, 0)

	target := o.Target()
	assert.InDelta(t, -1, target[0], 1e-4)
	assert.InDelta(t, 0, target[1], 1e-4)

	eye := o.Position()
	assert.InDelta(t, eyeBefore[0]+target[0], eye[0], 1e-4)
	assert.InDelta(t, eyeBefore[2], eye[2], 1e-4)
}
