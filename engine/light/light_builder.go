package light

import "github.com/Carmen-Shannon/oxy-graph/common"

// LightBuilderOption configures a light in NewLight.
type LightBuilderOption func(*sceneLight)

// WithPosition sets the world-space position of a point or spot light.
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *sceneLight) {
		l.position = common.Vec3{x, y, z}
	}
}

// WithDirection sets the light direction. The vector is normalized.
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *sceneLight) {
		l.direction = common.Normalize3(common.Vec3{x, y, z})
	}
}

func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *sceneLight) {
		l.color = common.Vec3{r, g, b}
	}
}

func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *sceneLight) {
		l.intensity = intensity
	}
}

// WithRange sets the distance at which point and spot lights reach zero. Negative values
// become zero.
func WithRange(r float32) LightBuilderOption {
	return func(l *sceneLight) {
		l.reach = max(r, 0)
	}
}

// WithSpotCone sets the spot cone half-angles in degrees.
//
// Parameters:
//   - innerDeg: the half-angle of full intensity
//   - outerDeg: the half-angle past which the light contributes nothing
//
// Returns:
//   - LightBuilderOption: the option
func WithSpotCone(innerDeg, outerDeg float32) LightBuilderOption {
	return func(l *sceneLight) {
		l.cosInner, l.cosOuter = spotCone(innerDeg, outerDeg)
	}
}

func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *sceneLight) {
		l.enabled = enabled
	}
}

// WithCastsShadows marks a directional light as a shadow caster. The shadow pass always uses the
// first directional light of an Environment.
func WithCastsShadows(casts bool) LightBuilderOption {
	return func(l *sceneLight) {
		l.shadows = casts
	}
}
