package scene

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
)

// RenderMode selects the shading path of the 3D scene.
type RenderMode int

const (
	// RenderModeForward shades every mesh directly into the target.
	RenderModeForward RenderMode = iota
	// RenderModeDeferredHybrid rasterizes opaque meshes into the G-buffer, resolves them with a
	// fullscreen lighting pass and draws transparent meshes forward on top.
	RenderModeDeferredHybrid
)

func (m RenderMode) String() string {
	switch m {
	case RenderModeForward:
		return "forward"
	case RenderModeDeferredHybrid:
		return "deferred_hybrid"
	default:
		return fmt.Sprintf("RenderMode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m RenderMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. "deferred" is accepted as a short form.
func (m *RenderMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "forward":
		*m = RenderModeForward
	case "deferred_hybrid", "deferred":
		*m = RenderModeDeferredHybrid
	default:
		return fmt.Errorf("scene: unknown render mode %q", text)
	}
	return nil
}

// DebugSettings toggle the depth visualisation.
type DebugSettings struct {
	ShowDepth      bool    `toml:"show_depth" yaml:"show_depth"`
	DepthViewPower float32 `toml:"depth_view_power" yaml:"depth_view_power"`
}

// LightingSettings are copied into the render context every frame.
type LightingSettings struct {
	AmbientIntensity  float32            `toml:"ambient_intensity" yaml:"ambient_intensity"`
	EnableShadows     bool               `toml:"enable_shadows" yaml:"enable_shadows"`
	ShadowBias        float32            `toml:"shadow_bias" yaml:"shadow_bias"`
	ShadowSoftness    float32            `toml:"shadow_softness" yaml:"shadow_softness"`
	ShadowMapSize     uint32             `toml:"shadow_map_size" yaml:"shadow_map_size"`
	NormalMapStrength float32            `toml:"normal_map_strength" yaml:"normal_map_strength"`
	ToksvigStrength   float32            `toml:"toksvig_strength" yaml:"toksvig_strength"`
	UseIBL            bool               `toml:"use_ibl" yaml:"use_ibl"`
	IBL               passes.IBLSettings `toml:"ibl" yaml:"ibl"`
}

// SSGISettings switch and tune screen-space global illumination.
type SSGISettings struct {
	Enable              bool `toml:"enable" yaml:"enable"`
	passes.SSGISettings `toml:",inline" yaml:",inline"`
}

// GTAOSettings switch and tune ground-truth ambient occlusion.
type GTAOSettings struct {
	Enable              bool `toml:"enable" yaml:"enable"`
	passes.GTAOSettings `toml:",inline" yaml:",inline"`
}

// GridSettings switch and style the editor grid.
type GridSettings struct {
	ShowInfiniteGrid    bool `toml:"show_infinite_grid" yaml:"show_infinite_grid"`
	passes.GridSettings `toml:",inline" yaml:",inline"`
}

// SkyboxSettings control the environment background. When no environment map has been set and
// Procedural is on, the procedural sky is generated and used as the environment map.
type SkyboxSettings struct {
	ShowSkybox bool                         `toml:"show_skybox" yaml:"show_skybox"`
	Procedural bool                         `toml:"procedural" yaml:"procedural"`
	Sky        passes.ProceduralSkySettings `toml:"sky" yaml:"sky"`
}

// Settings are every switch the scene renderer reads when it builds a frame.
type Settings struct {
	RenderMode       RenderMode              `toml:"render_mode" yaml:"render_mode"`
	GBufferDebugMode passes.GBufferDebugMode `toml:"gbuffer_debug_mode" yaml:"gbuffer_debug_mode"`
	ClearColor       [4]float32              `toml:"clear_color" yaml:"clear_color"`

	Debug    DebugSettings          `toml:"debug" yaml:"debug"`
	Outline  passes.OutlineSettings `toml:"outline" yaml:"outline"`
	Lighting LightingSettings       `toml:"lighting" yaml:"lighting"`
	SSGI     SSGISettings           `toml:"ssgi" yaml:"ssgi"`
	GTAO     GTAOSettings           `toml:"gtao" yaml:"gtao"`
	Grid     GridSettings           `toml:"grid" yaml:"grid"`
	Skybox   SkyboxSettings         `toml:"skybox" yaml:"skybox"`
}

// DefaultSettings returns the deferred-hybrid defaults: shadows and IBL on, SSGI and GTAO off,
// the grid and skybox shown.
func DefaultSettings() Settings {
	return Settings{
		RenderMode:       RenderModeDeferredHybrid,
		GBufferDebugMode: passes.DebugNone,
		ClearColor:       [4]float32{0.1, 0.1, 0.1, 1},
		Debug:            DebugSettings{DepthViewPower: 3},
		Outline:          passes.DefaultOutlineSettings(),
		Lighting: LightingSettings{
			AmbientIntensity:  0.1,
			EnableShadows:     true,
			ShadowBias:        light.DefaultShadowBias,
			ShadowSoftness:    light.DefaultShadowSoftness,
			ShadowMapSize:     light.ShadowMapResolution,
			NormalMapStrength: 1,
			ToksvigStrength:   1,
			UseIBL:            true,
			IBL:               passes.DefaultIBLSettings(),
		},
		SSGI:   SSGISettings{SSGISettings: passes.DefaultSSGISettings()},
		GTAO:   GTAOSettings{GTAOSettings: passes.DefaultGTAOSettings()},
		Grid:   GridSettings{ShowInfiniteGrid: true, GridSettings: passes.DefaultGridSettings()},
		Skybox: SkyboxSettings{ShowSkybox: true, Sky: passes.DefaultProceduralSkySettings()},
	}
}

// frameFlags derives the per-frame feature switches.
func (s Settings) frameFlags() passes.FrameFlags {
	deferred := s.RenderMode == RenderModeDeferredHybrid
	return passes.FrameFlags{
		UseDeferred:      deferred,
		UseSSGI:          deferred && (s.SSGI.Enable || s.GBufferDebugMode == passes.DebugSSGI),
		UseGTAO:          deferred && (s.GTAO.Enable || s.GBufferDebugMode == passes.DebugGTAO),
		ShowGBufferDebug: deferred && s.GBufferDebugMode != passes.DebugNone,
	}
}
