package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/engine"
	"github.com/Carmen-Shannon/oxy-graph/engine/profiler"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// planOptions are the plan command's inputs after flags are applied to the config.
type planOptions struct {
	cfg    viewerConfig
	width  int
	height int
	frames int
	trace  bool
}

func planFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := loadViewerConfig(ctx.String("config"))
	if err != nil {
		return err
	}
	if ctx.IsSet("meshes") || ctx.String("config") == "" {
		cfg.Demo.Meshes = ctx.Int("meshes")
	}
	if ctx.Bool("forward") {
		cfg.Scene.RenderMode = scene.RenderModeForward
	}
	if ctx.Bool("ssgi") {
		cfg.Scene.SSGI.Enable = true
	}
	if ctx.Bool("gtao") {
		cfg.Scene.GTAO.Enable = true
	}
	return runPlan(os.Stdout, planOptions{
		cfg:    cfg,
		width:  ctx.Int("width"),
		height: ctx.Int("height"),
		frames: max(ctx.Int("frames"), 1),
		trace:  ctx.Bool("trace"),
	})
}

// runPlan renders opts.frames headless frames of the demo scene and writes the report of the last.
func runPlan(out io.Writer, opts planOptions) error {
	surface := engine.NewHeadlessSurface(opts.width, opts.height)
	eng, err := engine.NewEngine(surface,
		engine.WithViewportSize(opts.width, opts.height),
		engine.WithSettings(opts.cfg.Scene),
		engine.WithCamera(newCamera(opts.cfg.Camera)),
	)
	if err != nil {
		return err
	}
	defer eng.Release()

	demo, err := newDemoScene(surface.Device(), opts.cfg.Demo)
	if err != nil {
		return err
	}
	defer demo.Release()
	eng.SetEnvironment(demo.Environment())
	eng.SetFrameCallback(demo.Submit)

	for range opts.frames {
		demo.Tick(1.0 / 60)
		if err := eng.RenderFrame(1.0 / 60); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%s, %dx%d, %d meshes, %d frame(s)\n\n",
		opts.cfg.Scene.RenderMode, opts.width, opts.height, opts.cfg.Demo.Meshes, opts.frames)
	fmt.Fprintln(out, profiler.PassOrderTable(eng.Scene().LastPassOrder()))
	fmt.Fprintln(out, traceSummaryTable(surface.Trace().Calls()))
	fmt.Fprintln(out, profiler.StatisticsTable(eng.Scene().Statistics()))

	device := surface.VirtualDevice()
	fmt.Fprintf(out, "framebuffers: %d created, %d released; textures: %d; vertex arrays: %d\n",
		device.FramebuffersCreated(), device.FramebuffersReleased(), device.TexturesCreated(), device.VertexArraysCreated())

	if opts.trace {
		fmt.Fprintln(out)
		for i, call := range surface.Trace().Calls() {
			fmt.Fprintf(out, "%5d %s\n", i, call)
		}
	}
	return nil
}

// traceSummaryTable counts backend calls by method name.
func traceSummaryTable(calls []string) string {
	counts := make(map[string]int)
	for _, call := range calls {
		name, _, _ := strings.Cut(call, "(")
		counts[name]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.Sort(names)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Backend call", "Count"})
	for _, name := range names {
		table.Append([]string{name, fmt.Sprint(counts[name])})
	}
	table.SetFooter([]string{"Total", fmt.Sprint(len(calls))})
	table.Render()
	return buf.String()
}
