package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/model"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
	"github.com/Carmen-Shannon/oxy-graph/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, options ...EngineBuilderOption) (Engine, *HeadlessSurface) {
	t.Helper()
	surface := NewHeadlessSurface(640, 480)
	options = append([]EngineBuilderOption{WithViewportSize(640, 480)}, options...)
	e, err := NewEngine(surface, options...)
	require.NoError(t, err)
	t.Cleanup(e.Release)
	return e, surface
}

func TestNewEngineRegistersStandardPipelines(t *testing.T) {
	e, _ := newTestEngine(t)
	for _, p := range passes.StandardPipelines(nil) {
		assert.True(t, e.Library().Has(p.PipelineKey()), p.PipelineKey())
	}
	assert.NotEmpty(t, e.Library().Pipeline(passes.KeyGBufferPBR).VertexSource())
}

func TestRenderFrameBracketsScene(t *testing.T) {
	e, surface := newTestEngine(t)
	cube, err := model.NewCube(surface.Device(), 1)
	require.NoError(t, err)
	e.SetEnvironment(light.NewEnvironment(light.NewLight(light.LightTypeDirectional, light.WithDirection(0, -1, -1))))

	var frames []uint64
	e.SetFrameCallback(func(f Frame) {
		frames = append(frames, f.Index)
		f.Scene.SubmitMesh(cube, common.Identity4(), 1, false)
	})

	require.NoError(t, e.RenderFrame(0.016))
	require.NoError(t, e.RenderFrame(0.016))

	assert.Equal(t, []uint64{0, 1}, frames)
	assert.Equal(t, 2, surface.Frames())
	assert.Contains(t, e.Scene().LastPassOrder(), passes.GBufferPassName)
	assert.Positive(t, surface.Trace().Count("DrawIndexed"))
	assert.Equal(t, uint32(2), e.Scene().Statistics().Frames)
}

func TestResizeAppliesBeforeNextFrame(t *testing.T) {
	e, surface := newTestEngine(t)
	e.Resize(1000, 500)
	e.Resize(800, 400)
	w, h := surface.Size()
	assert.Equal(t, 640, w, "resize must wait for the render loop")
	assert.Equal(t, 480, h)

	require.NoError(t, e.RenderFrame(0))
	w, h = surface.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 400, h)
	assert.InDelta(t, 2, e.Camera().Aspect(), 1e-6)

	e.Resize(0, 100)
	require.NoError(t, e.RenderFrame(0))
	w, _ = surface.Size()
	assert.Equal(t, 800, w)
}

func TestApplySettingsTakesEffectAtNextFlush(t *testing.T) {
	e, surface := newTestEngine(t)
	cube, err := model.NewCube(surface.Device(), 1)
	require.NoError(t, err)
	e.SetFrameCallback(func(f Frame) {
		f.Scene.SubmitMesh(cube, common.Identity4(), 1, false)
	})

	settings := e.Settings()
	settings.RenderMode = scene.RenderModeForward
	e.ApplySettings(settings)
	require.NoError(t, e.RenderFrame(0))

	order := e.Scene().LastPassOrder()
	assert.Contains(t, order, passes.ForwardPassName)
	assert.NotContains(t, order, passes.GBufferPassName)
	assert.Equal(t, scene.RenderModeForward, e.Settings().RenderMode)
}

func TestOverlayFramingDrawsOutlineBounds(t *testing.T) {
	e, surface := newTestEngine(t)
	cube, err := model.NewCube(surface.Device(), 1)
	require.NoError(t, err)
	e.SetOverlay(true)
	e.SetFrameCallback(func(f Frame) {
		f.Scene.SubmitMesh(cube, common.Identity4(), 7, true)
	})
	require.NoError(t, e.RenderFrame(0))
	assert.Positive(t, e.Scene().Statistics().Renderer2D.LineCount)
}

type failingSurface struct {
	*HeadlessSurface
}

func (failingSurface) BeginFrame() error { return errors.New("surface lost") }

func TestRenderFrameReportsSurfaceFailure(t *testing.T) {
	e, err := NewEngine(failingSurface{NewHeadlessSurface(64, 64)})
	require.NoError(t, err)
	defer e.Release()

	called := false
	e.SetFrameCallback(func(Frame) { called = true })
	assert.ErrorContains(t, e.RenderFrame(0), "surface lost")
	assert.False(t, called)
}

func TestRunStopsOnQuitAndTicks(t *testing.T) {
	e, surface := newTestEngine(t, WithTickRate(500), WithRenderFrameLimit(1000))

	var ticks atomic.Int32
	e.SetTickCallback(func(float32) { ticks.Add(1) })
	e.SetFrameCallback(func(f Frame) {
		if f.Index >= 5 && ticks.Load() > 0 {
			e.Quit()
		}
	})

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
	assert.GreaterOrEqual(t, surface.Frames(), 6)
	assert.Positive(t, ticks.Load())
}

func TestRunStopsOnContextAndRecoversPanics(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetFrameCallback(func(f Frame) {
		if f.Index == 2 {
			panic("boom")
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := e.Run(ctx)
	assert.ErrorContains(t, err, "boom")
}
