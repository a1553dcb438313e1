package main

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-graph/engine/config"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
	"github.com/urfave/cli"
)

type windowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
}

type rendererConfig struct {
	PresentMode     string  `toml:"present_mode" yaml:"present_mode"`
	SoftwareAdapter bool    `toml:"software_adapter" yaml:"software_adapter"`
	FrameLimit      float64 `toml:"frame_limit" yaml:"frame_limit"`
	TickRate        float64 `toml:"tick_rate" yaml:"tick_rate"`
	Profile         bool    `toml:"profile" yaml:"profile"`
}

type cameraConfig struct {
	FovDegrees float32 `toml:"fov_degrees" yaml:"fov_degrees"`
	Near       float32 `toml:"near" yaml:"near"`
	Far        float32 `toml:"far" yaml:"far"`
	Radius     float32 `toml:"radius" yaml:"radius"`
	Azimuth    float32 `toml:"azimuth" yaml:"azimuth"`
	Elevation  float32 `toml:"elevation" yaml:"elevation"`
}

type demoConfig struct {
	Meshes       int     `toml:"meshes" yaml:"meshes"`
	Spacing      float32 `toml:"spacing" yaml:"spacing"`
	SpinDegrees  float32 `toml:"spin_degrees" yaml:"spin_degrees"`
	PointLights  int     `toml:"point_lights" yaml:"point_lights"`
	Transparent  bool    `toml:"transparent" yaml:"transparent"`
	OutlineEvery int     `toml:"outline_every" yaml:"outline_every"`
	Column       bool    `toml:"column" yaml:"column"`
}

// viewerConfig is the settings file of the run and plan commands. Only Scene is hot-reloaded.
type viewerConfig struct {
	Window   windowConfig   `toml:"window" yaml:"window"`
	Renderer rendererConfig `toml:"renderer" yaml:"renderer"`
	Camera   cameraConfig   `toml:"camera" yaml:"camera"`
	Demo     demoConfig     `toml:"demo" yaml:"demo"`
	Scene    scene.Settings `toml:"scene" yaml:"scene"`
}

func defaultViewerConfig() viewerConfig {
	return viewerConfig{
		Window: windowConfig{Title: "oxy-graph", Width: 1280, Height: 720},
		Renderer: rendererConfig{
			PresentMode: "vsync",
			TickRate:    60,
		},
		Camera: cameraConfig{
			FovDegrees: 45,
			Near:       0.1,
			Far:        200,
			Radius:     18,
			Azimuth:    35,
			Elevation:  25,
		},
		Demo: demoConfig{
			Meshes:       16,
			Spacing:      2.5,
			SpinDegrees:  30,
			PointLights:  4,
			Transparent:  true,
			OutlineEvery: 5,
			Column:       true,
		},
		Scene: scene.DefaultSettings(),
	}
}

// loadViewerConfig decodes path over the defaults. An empty path yields the defaults.
func loadViewerConfig(path string) (viewerConfig, error) {
	cfg := defaultViewerConfig()
	if path == "" {
		return cfg, nil
	}
	if err := config.Load(path, &cfg); err != nil {
		return viewerConfig{}, err
	}
	return cfg, nil
}

func writeDefaultConfig(ctx *cli.Context) error {
	setupLogging(ctx)
	if ctx.NArg() != 1 {
		return errors.New("missing output file argument")
	}
	path := ctx.Args().First()
	if err := config.Save(path, defaultViewerConfig()); err != nil {
		return err
	}
	logger.Noticef("wrote default settings to %s", path)
	return nil
}
