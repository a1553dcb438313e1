package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadViewerConfigDefaults(t *testing.T) {
	cfg, err := loadViewerConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultViewerConfig(), cfg)
	assert.Equal(t, scene.RenderModeDeferredHybrid, cfg.Scene.RenderMode)
}

func TestLoadViewerConfigOverlaysFile(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "viewer.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
[demo]
meshes = 3

[scene]
render_mode = "forward"
`), 0o644))
	cfg, err := loadViewerConfig(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Demo.Meshes)
	assert.Equal(t, scene.RenderModeForward, cfg.Scene.RenderMode)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, float32(2.5), cfg.Demo.Spacing)

	yamlPath := filepath.Join(dir, "viewer.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("window:\n  width: 800\n"), 0o644))
	cfg, err = loadViewerConfig(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)

	_, err = loadViewerConfig(filepath.Join(dir, "viewer.ini"))
	assert.Error(t, err)
}

func TestDemoSubmissions(t *testing.T) {
	cfg := defaultViewerConfig().Demo
	cfg.Meshes = 10
	cfg.OutlineEvery = 3
	demo, err := newDemoScene(gpu.NewVirtualDevice(), cfg)
	require.NoError(t, err)
	defer demo.Release()

	items := demo.Submissions()
	require.Len(t, items, 10)

	var outlined []int32
	for i, item := range items {
		assert.Equal(t, int32(i+1), item.ObjectID)
		if item.DrawOutline {
			outlined = append(outlined, item.ObjectID)
		}
	}
	assert.Equal(t, []int32{1, 4, 7, 10}, outlined)
	env := demo.Environment()
	assert.Len(t, env.Directionals, 1)
	assert.Len(t, env.Points, cfg.PointLights)
}

func TestDemoTickSpins(t *testing.T) {
	demo, err := newDemoScene(gpu.NewVirtualDevice(), demoConfig{Meshes: 1, SpinDegrees: 90})
	require.NoError(t, err)
	defer demo.Release()

	before := demo.Submissions()[0].Transform
	demo.Tick(1)
	assert.NotEqual(t, before, demo.Submissions()[0].Transform)
}

func TestToggleSettings(t *testing.T) {
	s := scene.DefaultSettings()
	require.True(t, toggle(&s, 'M'))
	assert.Equal(t, scene.RenderModeForward, s.RenderMode)

	grid := s.Grid.ShowInfiniteGrid
	require.True(t, toggle(&s, 'G'))
	assert.Equal(t, !grid, s.Grid.ShowInfiniteGrid)

	for range debugModeCount {
		require.True(t, toggle(&s, 'B'))
	}
	assert.Equal(t, passes.DebugNone, s.GBufferDebugMode)

	assert.False(t, toggle(&s, 'Z'))
}

func TestRunPlanReportsFrame(t *testing.T) {
	cfg := defaultViewerConfig()
	cfg.Demo.Meshes = 4

	var out bytes.Buffer
	require.NoError(t, runPlan(&out, planOptions{cfg: cfg, width: 320, height: 240, frames: 2}))

	report := out.String()
	assert.Contains(t, report, "deferred")
	assert.Contains(t, report, passes.GBufferPassName)
	assert.Contains(t, report, passes.LightingPassName)
	assert.Contains(t, report, "DrawIndexed")
	assert.Contains(t, report, "Total")
}

func TestRunPlanForwardWithTrace(t *testing.T) {
	cfg := defaultViewerConfig()
	cfg.Demo.Meshes = 1
	cfg.Scene.RenderMode = scene.RenderModeForward

	var out bytes.Buffer
	require.NoError(t, runPlan(&out, planOptions{cfg: cfg, width: 64, height: 64, frames: 1, trace: true}))

	report := out.String()
	assert.Contains(t, report, passes.ForwardPassName)
	assert.NotContains(t, report, passes.GBufferPassName)
	assert.Contains(t, report, "    0 ")
}

func TestTraceSummaryTable(t *testing.T) {
	table := traceSummaryTable([]string{"Draw(a)", "Draw(b)", "BindPipeline(x)"})
	assert.Contains(t, table, "Draw")
	assert.Contains(t, table, "BindPipeline")
	assert.Contains(t, table, "3")
}

func TestWriteShaderTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeShaderTable(&out, []string{passes.KeyShadow, passes.KeyBRDFLUT}))
	assert.Contains(t, out.String(), "uniform 64 B")
	assert.Contains(t, out.String(), "none")

	assert.Error(t, writeShaderTable(&out, []string{"missing"}))
}

func TestDemoColumnBends(t *testing.T) {
	demo, err := newDemoScene(gpu.NewVirtualDevice(), demoConfig{Meshes: 1, SpinDegrees: 90, Column: true})
	require.NoError(t, err)
	defer demo.Release()

	rest := demo.bones()
	require.Len(t, rest, 2)
	demo.Tick(1)
	assert.NotEqual(t, rest[1], demo.bones()[1])
	assert.Equal(t, [4]float32{0, 0, 0, 1}, demo.column.Skeleton().Bones[1].LocalTransform.Rotation)
}
