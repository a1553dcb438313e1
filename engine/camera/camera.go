// Package camera provides the perspective viewer camera the scene renderer is driven from and the
// orbit controller that moves it.
package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/chewxy/math32"
)

type cameraImpl struct {
	mu *sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	view           common.Mat4
	projection     common.Mat4
	viewProjection common.Mat4

	controller OrbitController
}

// Camera is a perspective camera whose eye and target come from an OrbitController.
// It satisfies scene.CameraView.
type Camera interface {
	// ViewMatrix returns the world-to-view matrix (column-major).
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the view-to-clip matrix (column-major, depth 0..1).
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns ProjectionMatrix * ViewMatrix.
	ViewProjectionMatrix() [16]float32

	Near() float32
	Far() float32

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns width / height.
	Aspect() float32

	// Position returns the eye position, or the origin without a controller.
	//
	// Returns:
	//   - common.Vec3: the world-space eye
	Position() common.Vec3

	// Controller returns the attached controller, nil if none.
	Controller() OrbitController

	// SetController attaches ctrl and recomputes the matrices from it.
	SetController(ctrl OrbitController)

	// SetAspect updates the aspect ratio, typically on a window resize. Non-positive values are ignored.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float32)

	// SetFov sets the vertical field of view in radians.
	SetFov(fov float32)

	// SetClip sets the near and far planes. far is raised above near when needed.
	//
	// Parameters:
	//   - near: near plane distance, clamped to a small positive value
	//   - far: far plane distance
	SetClip(near, far float32)

	// Update recomputes the matrices from the controller. Call once per frame after input.
	Update()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera with a 45 degree field of view and a 0.1..100 clip range.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the camera, with matrices already computed
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:             &sync.Mutex{},
		fov:            45 * math32.Pi / 180,
		aspect:         1,
		near:           0.1,
		far:            100,
		view:           common.Identity4(),
		projection:     common.Identity4(),
		viewProjection: common.Identity4(),
	}
	for _, option := range options {
		option(c)
	}
	c.recompute()
	return c
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjection
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Position() common.Vec3 {
	c.mu.Lock()
	ctrl := c.controller
	c.mu.Unlock()
	if ctrl == nil {
		return common.Vec3{}
	}
	return ctrl.Position()
}

func (c *cameraImpl) Controller() OrbitController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl OrbitController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.recompute()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.recompute()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.recompute()
}

func (c *cameraImpl) SetClip(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near, c.far = clip(near, far)
	c.recompute()
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recompute()
}

func clip(near, far float32) (float32, float32) {
	near = max(near, 1e-4)
	if far <= near {
		far = near * 2
	}
	return near, far
}

// recompute rebuilds the matrices. The view stays identity without a controller.
// Caller must hold the mutex.
func (c *cameraImpl) recompute() {
	common.Perspective(c.projection[:], c.fov, c.aspect, c.near, c.far)
	if c.controller != nil {
		eye, target := c.controller.Position(), c.controller.Target()
		common.LookAt(c.view[:], eye[0], eye[1], eye[2], target[0], target[1], target[2], 0, 1, 0)
	}
	common.Mul4(c.viewProjection[:], c.projection[:], c.view[:])
}
