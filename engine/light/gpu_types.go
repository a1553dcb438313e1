package light

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-graph/common"
)

// LightBlockSource is the WGSL LightBlock struct and its light arrays, matching MarshalLightBlock.
//
//go:embed assets/light_block.wgsl
var LightBlockSource string

// LightBlockSize is the byte size of the WGSL LightBlock uniform produced by MarshalLightBlock.
//
// Layout:
//
//	vec4<f32>  ambient            (rgb, intensity)                 offset    0
//	vec4<f32>  main_direction     (xyz, has_main)                  offset   16
//	vec4<f32>  main_color         (rgb, intensity)                 offset   32
//	vec4<u32>  counts             (points, spots, extra_dirs, shadows) offset 48
//	mat4x4<f32> light_space                                        offset   64
//	vec4<f32>  shadow_params      (bias, softness, normal_strength, toksvig) offset 128
//	array<DirLight, 4>    (32 bytes each)                          offset  144
//	array<PointLight, 16> (32 bytes each)                          offset  272
//	array<SpotLight, 16>  (64 bytes each)                          offset  784
const LightBlockSize = 144 + MaxDirectionalLights*32 + MaxPointLights*32 + MaxSpotLights*64

// BlockParams carries the per-frame scalars marshaled alongside the lights.
type BlockParams struct {
	AmbientIntensity  float32
	ShadowsEnabled    bool
	LightSpace        common.Mat4
	ShadowBias        float32
	ShadowSoftness    float32
	NormalMapStrength float32
	ToksvigStrength   float32
}

// MarshalLightBlock serializes the environment into the lighting uniform block. Point and spot
// lights beyond 16 and directional lights beyond the main one plus 4 are dropped.
//
// Parameters:
//   - env: the frame's lights
//   - params: per-frame scalar settings
//
// Returns:
//   - []byte: LightBlockSize bytes ready for GPU upload
func MarshalLightBlock(env Environment, params BlockParams) []byte {
	w := common.NewUniformWriter(LightBlockSize)

	w.Vec4(env.AmbientColor, params.AmbientIntensity)

	if main := env.Main(); main != nil {
		// The shader expects the direction toward the light.
		d := main.Direction()
		w.Vec4(common.Vec3{-d[0], -d[1], -d[2]}, 1)
		w.Vec4(main.Color(), main.Intensity())
	} else {
		w.Zero(32)
	}

	pointCount := env.PointCount()
	spotCount := env.SpotCount()
	extraDirs := env.ExtraDirectionalCount()
	w.Uint32(uint32(pointCount), uint32(spotCount), uint32(extraDirs))
	w.Bool(params.ShadowsEnabled && env.Main() != nil)

	if params.ShadowsEnabled {
		w.Mat4(params.LightSpace)
	} else {
		w.Mat4(common.Identity4())
	}
	w.Float32(params.ShadowBias, params.ShadowSoftness, params.NormalMapStrength, params.ToksvigStrength)

	for i := 0; i < MaxDirectionalLights; i++ {
		if i < extraDirs {
			l := env.Directionals[i+1]
			d := l.Direction()
			w.Vec4(common.Vec3{-d[0], -d[1], -d[2]}, l.Intensity())
			w.Vec4(l.Color(), 0)
			continue
		}
		w.Zero(32)
	}

	for i := 0; i < MaxPointLights; i++ {
		if i < pointCount {
			l := env.Points[i]
			w.Vec4(l.Position(), l.Range())
			w.Vec4(l.Color(), l.Intensity())
			continue
		}
		w.Zero(32)
	}

	for i := 0; i < MaxSpotLights; i++ {
		if i < spotCount {
			l := env.Spots[i]
			w.Vec4(l.Position(), l.Range())
			w.Vec4(l.Direction(), l.InnerCone())
			w.Vec4(l.Color(), l.Intensity())
			w.Float32(l.OuterCone(), 0, 0, 0)
			continue
		}
		w.Zero(64)
	}

	return w.Bytes()
}
