package light

import "github.com/Carmen-Shannon/oxy-graph/common"

// Caps on the number of lights the lighting uniform block carries. Lights beyond a cap are
// dropped silently.
const (
	MaxPointLights       = 16
	MaxSpotLights        = 16
	MaxDirectionalLights = 4
)

// Environment is the set of lights affecting one frame, grouped by type.
// Directionals[0] is the main directional light: it drives the shadow map and the primary sun
// term. Further directional lights are extra, unshadowed lights.
type Environment struct {
	Directionals []Light
	Points       []Light
	Spots        []Light

	// AmbientColor is the ambient radiance; scaled by the per-scene ambient intensity.
	AmbientColor [3]float32
}

// NewEnvironment partitions lights by type, dropping disabled and nil lights. Each group keeps
// input order, so the first directional light is the main light.
//
// Parameters:
//   - lights: the scene's lights in any order
//
// Returns:
//   - Environment: the grouped light set with a white ambient color
func NewEnvironment(lights ...Light) Environment {
	env := Environment{AmbientColor: [3]float32{1, 1, 1}}
	for _, l := range lights {
		if l == nil || !l.Enabled() {
			continue
		}
		switch l.Type() {
		case LightTypeDirectional:
			env.Directionals = append(env.Directionals, l)
		case LightTypePoint:
			env.Points = append(env.Points, l)
		case LightTypeSpot:
			env.Spots = append(env.Spots, l)
		}
	}
	return env
}

// Main returns the main directional light, or nil.
func (e Environment) Main() Light {
	if len(e.Directionals) == 0 {
		return nil
	}
	return e.Directionals[0]
}

// PointCount returns the number of point lights carried by the uniform block.
func (e Environment) PointCount() int {
	return min(MaxPointLights, len(e.Points))
}

// SpotCount returns the number of spot lights carried by the uniform block.
func (e Environment) SpotCount() int {
	return min(MaxSpotLights, len(e.Spots))
}

// ExtraDirectionalCount returns the number of directional lights beyond the main one carried by the uniform block.
func (e Environment) ExtraDirectionalCount() int {
	return common.Clamp(len(e.Directionals)-1, 0, MaxDirectionalLights)
}
