package light

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/chewxy/math32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional has a direction and no position or falloff.
	LightTypeDirectional LightType = iota
	// LightTypePoint radiates from a position and fades to zero at its range.
	LightTypePoint
	// LightTypeSpot is a point light restricted to a cone around its direction.
	LightTypeSpot
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	default:
		return fmt.Sprintf("LightType(%d)", int(t))
	}
}

// Light is a scene light. Setters may run on the tick goroutine while the render goroutine
// marshals the light block, so every accessor is synchronized. Fields that do not apply to a
// type (cone angles of a point light, position of a directional light) are kept but ignored.
type Light interface {
	Type() LightType
	Position() common.Vec3
	// Direction is unit length, or zero when set from a zero vector.
	Direction() common.Vec3
	Color() common.Vec3
	Intensity() float32
	Range() float32
	// InnerCone and OuterCone are the cosines of the spot cone half-angles.
	InnerCone() float32
	OuterCone() float32
	Enabled() bool
	// CastsShadows marks a directional light as a shadow map candidate. Only the main
	// directional light of an Environment renders one.
	CastsShadows() bool

	SetPosition(x, y, z float32)
	SetDirection(x, y, z float32)
	SetColor(r, g, b float32)
	SetIntensity(intensity float32)
	// SetRange clamps negative ranges to zero.
	SetRange(r float32)
	// SetSpotCone takes half-angles in degrees. An inner angle wider than the outer one is
	// narrowed to it.
	SetSpotCone(innerDeg, outerDeg float32)
	SetEnabled(enabled bool)
	SetCastsShadows(casts bool)
}

type sceneLight struct {
	mu *sync.RWMutex

	kind      LightType
	position  common.Vec3
	direction common.Vec3
	color     common.Vec3
	intensity float32
	reach     float32
	cosInner  float32
	cosOuter  float32
	enabled   bool
	shadows   bool
}

var _ Light = &sceneLight{}

// NewLight creates a white, unit-intensity light pointing down with a range of 10 and a
// 25/35 degree spot cone.
//
// Parameters:
//   - kind: the light type
//   - options: builder options applied in order
//
// Returns:
//   - Light: the new light, enabled and not casting shadows
func NewLight(kind LightType, options ...LightBuilderOption) Light {
	l := &sceneLight{
		mu:        &sync.RWMutex{},
		kind:      kind,
		direction: common.Vec3{0, -1, 0},
		color:     common.Vec3{1, 1, 1},
		intensity: 1,
		reach:     10,
		enabled:   true,
	}
	l.cosInner, l.cosOuter = spotCone(25, 35)
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *sceneLight) Type() LightType { return l.kind }

func (l *sceneLight) Position() common.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position
}

func (l *sceneLight) Direction() common.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.direction
}

func (l *sceneLight) Color() common.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.color
}

func (l *sceneLight) Intensity() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.intensity
}

func (l *sceneLight) Range() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reach
}

func (l *sceneLight) InnerCone() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cosInner
}

func (l *sceneLight) OuterCone() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cosOuter
}

func (l *sceneLight) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

func (l *sceneLight) CastsShadows() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.shadows
}

func (l *sceneLight) SetPosition(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = common.Vec3{x, y, z}
}

func (l *sceneLight) SetDirection(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = common.Normalize3(common.Vec3{x, y, z})
}

func (l *sceneLight) SetColor(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = common.Vec3{r, g, b}
}

func (l *sceneLight) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *sceneLight) SetRange(r float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reach = max(r, 0)
}

func (l *sceneLight) SetSpotCone(innerDeg, outerDeg float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cosInner, l.cosOuter = spotCone(innerDeg, outerDeg)
}

func (l *sceneLight) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *sceneLight) SetCastsShadows(casts bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shadows = casts
}

// spotCone returns the cosines of the cone half-angles with inner no wider than outer.
func spotCone(innerDeg, outerDeg float32) (cosInner, cosOuter float32) {
	innerDeg = min(innerDeg, outerDeg)
	return math32.Cos(innerDeg * math32.Pi / 180), math32.Cos(outerDeg * math32.Pi / 180)
}
