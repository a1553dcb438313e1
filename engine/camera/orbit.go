package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/chewxy/math32"
)

// OrbitController places the eye on a sphere around a target using radius, azimuth and
// elevation. Panning moves the target and the eye together.
type OrbitController interface {
	// Position returns the eye position derived from the target and the spherical coordinates.
	Position() common.Vec3

	// Target returns the point the eye looks at.
	Target() common.Vec3

	// SetTarget moves the pivot.
	SetTarget(target common.Vec3)

	// Radius returns the distance from eye to target.
	Radius() float32

	// Rotate turns the eye around the target. Deltas are in input units and scaled by the
	// rotate sensitivity; elevation is clamped short of the poles.
	//
	// Parameters:
	//   - dx: horizontal input, positive turns right
	//   - dy: vertical input, positive tilts up
	Rotate(dx, dy float32)

	// Pan shifts the target along the view's right and up axes. The step grows with the radius.
	//
	// Parameters:
	//   - dx: horizontal input
	//   - dy: vertical input
	Pan(dx, dy float32)

	// Zoom moves the eye toward the target for positive delta, clamped to the radius bounds.
	Zoom(delta float32)
}

type orbitController struct {
	mu *sync.Mutex

	target    common.Vec3
	radius    float32
	azimuth   float32
	elevation float32

	minRadius float32
	maxRadius float32

	rotateSpeed float32
	panSpeed    float32
	zoomSpeed   float32
}

var _ OrbitController = &orbitController{}

// maxElevation keeps the eye off the poles where the look-at basis degenerates.
const maxElevation = math32.Pi/2 - 0.01

// NewOrbitController creates a controller 10 units from the origin, 30 degrees above the horizon.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - OrbitController: the controller
func NewOrbitController(options ...OrbitBuilderOption) OrbitController {
	o := &orbitController{
		mu:          &sync.Mutex{},
		radius:      10,
		elevation:   math32.Pi / 6,
		minRadius:   0.5,
		maxRadius:   1000,
		rotateSpeed: 0.005,
		panSpeed:    0.001,
		zoomSpeed:   0.1,
	}
	for _, option := range options {
		option(o)
	}
	o.radius = common.Clamp(o.radius, o.minRadius, o.maxRadius)
	o.elevation = common.Clamp(o.elevation, -maxElevation, maxElevation)
	return o
}

func (o *orbitController) Position() common.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.eye()
}

func (o *orbitController) Target() common.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.target
}

func (o *orbitController) SetTarget(target common.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.target = target
}

func (o *orbitController) Radius() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.radius
}

func (o *orbitController) Rotate(dx, dy float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.azimuth += dx * o.rotateSpeed
	o.elevation = common.Clamp(o.elevation+dy*o.rotateSpeed, -maxElevation, maxElevation)
}

func (o *orbitController) Pan(dx, dy float32) {
	o.mu.Lock()
	defer o.mu.Unlock()

	eye := o.eye()
	forward := common.Normalize3(common.Vec3{o.target[0] - eye[0], o.target[1] - eye[1], o.target[2] - eye[2]})
	right := common.Normalize3(common.Cross3(forward, common.Vec3{0, 1, 0}))
	up := common.Cross3(right, forward)

	step := o.panSpeed * o.radius
	for i := range 3 {
		o.target[i] += (-right[i]*dx + up[i]*dy) * step
	}
}

func (o *orbitController) Zoom(delta float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.radius = common.Clamp(o.radius*(1-delta*o.zoomSpeed), o.minRadius, o.maxRadius)
}

// eye converts the spherical coordinates to a world position. Caller must hold the mutex.
func (o *orbitController) eye() common.Vec3 {
	cosE := math32.Cos(o.elevation)
	return common.Vec3{
		o.target[0] + o.radius*cosE*math32.Sin(o.azimuth),
		o.target[1] + o.radius*math32.Sin(o.elevation),
		o.target[2] + o.radius*cosE*math32.Cos(o.azimuth),
	}
}
