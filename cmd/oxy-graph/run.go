package main

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-graph/engine"
	"github.com/Carmen-Shannon/oxy-graph/engine/camera"
	"github.com/Carmen-Shannon/oxy-graph/engine/config"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shaders"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
	"github.com/Carmen-Shannon/oxy-graph/engine/window"
	"github.com/urfave/cli"
)

func newCamera(cfg cameraConfig) camera.Camera {
	ctrl := camera.NewOrbitController(
		camera.WithRadius(cfg.Radius),
		camera.WithAngles(cfg.Azimuth, cfg.Elevation),
		camera.WithRadiusBounds(1, cfg.Far/2),
	)
	return camera.NewCamera(
		camera.WithFovDegrees(cfg.FovDegrees),
		camera.WithClip(cfg.Near, cfg.Far),
		camera.WithController(ctrl),
	)
}

// runViewer renders the demo scene in a window until it is closed.
func runViewer(ctx *cli.Context) error {
	setupLogging(ctx)

	path := ctx.String("config")
	cfg, err := loadViewerConfig(path)
	if err != nil {
		return err
	}
	if w := ctx.Int("width"); w > 0 {
		cfg.Window.Width = w
	}
	if h := ctx.Int("height"); h > 0 {
		cfg.Window.Height = h
	}
	if ctx.Bool("forward") {
		cfg.Scene.RenderMode = scene.RenderModeForward
	}

	mode, err := renderer.ParsePresentMode(cfg.Renderer.PresentMode)
	if err != nil {
		return err
	}
	shaderOptions, err := shaders.Options()
	if err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	width, height := win.Size()
	r, err := renderer.NewRenderer(win.SurfaceDescriptor(), width, height,
		renderer.WithPresentMode(mode),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.SoftwareAdapter),
		renderer.WithShaderOptions(shaderOptions...),
	)
	if err != nil {
		return err
	}
	defer r.Release()

	cam := newCamera(cfg.Camera)
	eng, err := engine.NewEngine(r,
		engine.WithViewportSize(width, height),
		engine.WithSettings(cfg.Scene),
		engine.WithCamera(cam),
		engine.WithTickRate(cfg.Renderer.TickRate),
		engine.WithRenderFrameLimit(cfg.Renderer.FrameLimit),
		engine.WithProfiling(cfg.Renderer.Profile),
	)
	if err != nil {
		return err
	}
	defer eng.Release()

	demo, err := newDemoScene(r.Device(), cfg.Demo)
	if err != nil {
		return err
	}
	defer demo.Release()

	eng.SetEnvironment(demo.Environment())
	eng.SetTickCallback(demo.Tick)
	eng.SetFrameCallback(demo.Submit)
	win.SetResizeCallback(eng.Resize)
	bindInput(win, eng, cam.Controller(), cfg.Renderer.Profile)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if path != "" {
		err := config.Watch(runCtx, path, func() error {
			next, err := loadViewerConfig(path)
			if err != nil {
				return err
			}
			eng.ApplySettings(next.Scene)
			return nil
		})
		if err != nil {
			logger.Warningf("settings hot reload disabled: %v", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- eng.Run(runCtx)
	}()

	var runErr error
	stopped := false
	win.ProcessMessages(func() bool {
		select {
		case runErr = <-done:
			stopped = true
			return false
		default:
			return true
		}
	})

	cancel()
	if !stopped {
		runErr = <-done
	}
	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}
	return nil
}
