package camera

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/chewxy/math32"
)

// OrbitBuilderOption is a functional option for NewOrbitController.
type OrbitBuilderOption func(*orbitController)

// WithTarget sets the initial pivot.
func WithTarget(target common.Vec3) OrbitBuilderOption {
	return func(o *orbitController) {
		o.target = target
	}
}

// WithRadius sets the initial eye distance, clamped to the radius bounds.
func WithRadius(radius float32) OrbitBuilderOption {
	return func(o *orbitController) {
		o.radius = radius
	}
}

// WithAngles sets the initial azimuth and elevation.
//
// Parameters:
//   - azimuthDeg: rotation around +Y in degrees, 0 looks down -Z
//   - elevationDeg: angle above the horizon in degrees
//
// Returns:
//   - OrbitBuilderOption: a function that sets both angles
func WithAngles(azimuthDeg, elevationDeg float32) OrbitBuilderOption {
	return func(o *orbitController) {
		o.azimuth = azimuthDeg * math32.Pi / 180
		o.elevation = elevationDeg * math32.Pi / 180
	}
}

// WithRadiusBounds limits zooming. Bounds are swapped when given in the wrong order.
func WithRadiusBounds(minRadius, maxRadius float32) OrbitBuilderOption {
	return func(o *orbitController) {
		if minRadius > maxRadius {
			minRadius, maxRadius = maxRadius, minRadius
		}
		o.minRadius, o.maxRadius = max(minRadius, 1e-3), maxRadius
	}
}

// WithSensitivity scales the input deltas of Rotate, Pan and Zoom. Zero keeps the default.
//
// Parameters:
//   - rotate: radians per input unit
//   - pan: world units per input unit and unit of radius
//   - zoom: fraction of the radius per input unit
//
// Returns:
//   - OrbitBuilderOption: a function that sets the speeds
func WithSensitivity(rotate, pan, zoom float32) OrbitBuilderOption {
	return func(o *orbitController) {
		o.rotateSpeed = common.Coalesce(rotate, o.rotateSpeed)
		o.panSpeed = common.Coalesce(pan, o.panSpeed)
		o.zoomSpeed = common.Coalesce(zoom, o.zoomSpeed)
	}
}
