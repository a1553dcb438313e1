package scene

import (
	"encoding/binary"
	"slices"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/model"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testView struct {
	view, proj common.Mat4
}

func newTestView() testView {
	var v testView
	common.LookAt(v.view[:], 0, 0, 5, 0, 0, 0, 0, 1, 0)
	common.Perspective(v.proj[:], 1.0, 800.0/600.0, 0.1, 100)
	return v
}

func (v testView) ViewMatrix() [16]float32       { return v.view }
func (v testView) ProjectionMatrix() [16]float32 { return v.proj }
func (v testView) Near() float32                 { return 0.1 }
func (v testView) Far() float32                  { return 100 }

type sceneFixture struct {
	device   *gpu.VirtualDevice
	trace    *command.TraceBackend
	renderer *sceneRenderer
	env      light.Environment
	view     testView
	opaque   model.Model
	glass    model.Model
}

func newSceneFixture(t *testing.T, options ...SceneRendererBuilderOption) *sceneFixture {
	t.Helper()
	device := gpu.NewVirtualDevice()
	trace := command.NewTraceBackend()
	library := pipeline.NewLibrary(passes.StandardPipelines(passes.ShaderSet{})...)

	opaque, err := model.NewCube(device, 1,
		model.WithMaterials(material.NewMaterial(material.WithPBR([3]float32{0.8, 0.2, 0.2}, 0, 0.5))))
	require.NoError(t, err)
	glass, err := model.NewCube(device, 1,
		model.WithMaterials(material.NewMaterial(material.WithPhong([4]float32{1, 1, 1, 0.4}, [3]float32{1, 1, 1}, 32))))
	require.NoError(t, err)

	options = append([]SceneRendererBuilderOption{WithViewportSize(800, 600), WithCullWorkers(2)}, options...)
	r := NewSceneRenderer(device, library, trace, options...).(*sceneRenderer)
	t.Cleanup(r.Release)

	return &sceneFixture{
		device:   device,
		trace:    trace,
		renderer: r,
		env:      light.NewEnvironment(light.NewLight(light.LightTypeDirectional, light.WithDirection(0, -1, -1))),
		view:     newTestView(),
		opaque:   opaque,
		glass:    glass,
	}
}

func (f *sceneFixture) frame(submit func(r SceneRenderer)) []string {
	f.trace.Reset()
	f.renderer.BeginScene(f.view, f.env)
	submit(f.renderer)
	f.renderer.EndScene()
	return f.renderer.LastPassOrder()
}

// before asserts that a runs before b in order.
func before(t *testing.T, order []string, a, b string) {
	t.Helper()
	ia, ib := slices.Index(order, a), slices.Index(order, b)
	require.NotEqual(t, -1, ia, "%s missing from %v", a, order)
	require.NotEqual(t, -1, ib, "%s missing from %v", b, order)
	assert.Less(t, ia, ib, "%s should run before %s in %v", a, b, order)
}

func TestDeferredFrameRunsGeometryLightingAndTransparent(t *testing.T) {
	f := newSceneFixture(t)

	order := f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
		r.SubmitMesh(f.opaque, common.Translation(1, 0, 0), 2, false)
		r.SubmitMesh(f.glass, common.Translation(-1, 0, 0), 3, false)
	})

	before(t, order, passes.ShadowPassName, passes.LightingPassName)
	before(t, order, passes.GBufferPassName, passes.LightingPassName)
	before(t, order, passes.LightingPassName, passes.TransparentPassName)
	assert.NotContains(t, order, passes.ForwardPassName)
	assert.Contains(t, order, passes.InfiniteGridPassName)

	stats := f.renderer.Statistics()
	assert.Equal(t, uint32(3), stats.Renderer3D.GeometryDrawCalls)
	assert.Equal(t, uint32(3), stats.Renderer3D.ShadowDrawCalls)
	assert.Equal(t, uint32(3), stats.Renderer3D.MeshCount)
	assert.Equal(t, uint32(1), stats.Frames)
	assert.Equal(t, uint32(6), stats.TotalDrawCalls())
	assert.True(t, f.renderer.graph.LastCompileSucceeded())
}

// drawRecorder is a TraceBackend that also notes the object id of every mesh draw uniform under
// the bound pipeline key.
type drawRecorder struct {
	*command.TraceBackend
	pipeline string
	ids      map[string][]int32
}

func newDrawRecorder() *drawRecorder {
	return &drawRecorder{TraceBackend: command.NewTraceBackend(), ids: map[string][]int32{}}
}

func (d *drawRecorder) BindPipeline(p gpu.Pipeline) {
	d.TraceBackend.BindPipeline(p)
	d.pipeline = ""
	if p != nil {
		d.pipeline = p.PipelineKey()
	}
}

func (d *drawRecorder) SetUniforms(group uint32, data []byte) {
	d.TraceBackend.SetUniforms(group, data)
	mesh := strings.HasPrefix(d.pipeline, "gbuffer.") || strings.HasPrefix(d.pipeline, "forward.")
	// The object id follows the model and normal matrices.
	if group == passes.GroupDraw && mesh && len(data) >= 132 {
		d.ids[d.pipeline] = append(d.ids[d.pipeline], int32(binary.LittleEndian.Uint32(data[128:132])))
	}
}

func TestDeferredFrameWithoutShadowsOrSSGI(t *testing.T) {
	settings := DefaultSettings()
	settings.Lighting.EnableShadows = false
	settings.SSGI.Enable = false
	f := newSceneFixture(t)

	recorder := newDrawRecorder()
	library := pipeline.NewLibrary(passes.StandardPipelines(passes.ShaderSet{})...)
	r := NewSceneRenderer(f.device, library, recorder, WithViewportSize(800, 600), WithSettings(settings))
	t.Cleanup(r.Release)

	r.BeginScene(f.view, f.env)
	r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
	r.SubmitMesh(f.opaque, common.Translation(1, 0, 0), 2, false)
	r.SubmitMesh(f.glass, common.Translation(-1, 0, 0), 3, false)
	r.EndScene()

	assert.Equal(t, []string{
		passes.GBufferPassName,
		passes.LightingPassName,
		passes.TransparentPassName,
		passes.InfiniteGridPassName,
	}, r.LastPassOrder())

	assert.Equal(t, []int32{1, 2}, recorder.ids[passes.KeyGBufferPBR])
	assert.Equal(t, []int32{3}, recorder.ids[passes.KeyForwardPhongTransparent])
	assert.Len(t, recorder.ids, 2)
	assert.Zero(t, recorder.Count("BindPipeline("+passes.KeyShadow+")"))
	assert.Equal(t, 1, recorder.Count("BindPipeline("+passes.KeyDeferredLighting+")"))

	stats := r.Statistics()
	assert.Equal(t, uint32(3), stats.Renderer3D.GeometryDrawCalls)
	assert.Zero(t, stats.Renderer3D.ShadowDrawCalls)
}

func TestForwardFrameSkipsGBuffer(t *testing.T) {
	settings := DefaultSettings()
	settings.RenderMode = RenderModeForward
	f := newSceneFixture(t, WithSettings(settings))

	order := f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
		r.SubmitMesh(f.glass, common.Identity4(), 2, false)
	})

	before(t, order, passes.ForwardPassName, passes.TransparentPassName)
	assert.NotContains(t, order, passes.GBufferPassName)
	assert.NotContains(t, order, passes.LightingPassName)
	assert.Equal(t, uint32(2), f.renderer.Statistics().Renderer3D.GeometryDrawCalls)
}

func TestTransparentPassOnlyWithTransparentMeshes(t *testing.T) {
	f := newSceneFixture(t)
	order := f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
	})
	assert.NotContains(t, order, passes.TransparentPassName)
}

func TestCulledMeshesAreCountedButStillCastShadows(t *testing.T) {
	f := newSceneFixture(t)
	f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
		r.SubmitMesh(f.opaque, common.Translation(1000, 0, 0), 2, false)
	})

	stats := f.renderer.Statistics()
	assert.Equal(t, uint32(1), stats.CulledMeshes)
	assert.Equal(t, uint32(1), stats.Renderer3D.GeometryDrawCalls)
	assert.Equal(t, uint32(2), stats.Renderer3D.ShadowDrawCalls)
}

func TestSubmissionOutsideSceneIsDropped(t *testing.T) {
	f := newSceneFixture(t)

	f.renderer.SubmitMesh(f.opaque, common.Identity4(), 1, false)
	f.renderer.EndScene()
	assert.Empty(t, f.renderer.commands)
	assert.Zero(t, f.renderer.Statistics().Frames)

	f.frame(func(SceneRenderer) {})
	f.renderer.SubmitMesh(f.opaque, common.Identity4(), 1, false)
	assert.Empty(t, f.renderer.commands)
}

func TestDrawListIsClearedAfterFlush(t *testing.T) {
	f := newSceneFixture(t)
	f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
		r.SetOutlineIDs([]int32{1})
		r.DrawLine(common.Vec3{}, common.Vec3{1, 0, 0}, [4]float32{1, 1, 1, 1})
	})
	assert.Empty(t, f.renderer.commands)
	assert.Empty(t, f.renderer.outlineIDs)

	order := f.frame(func(SceneRenderer) {})
	assert.NotContains(t, order, passes.OutlinePassName)
	assert.NotContains(t, order, passes.Renderer2DPassName)
}

func TestSubmitMeshesKeepsInputOrder(t *testing.T) {
	f := newSceneFixture(t, WithCullWorkers(4))

	items := make([]MeshSubmission, 37)
	for i := range items {
		items[i] = MeshSubmission{Model: f.opaque, Transform: common.Translation(float32(i%5), 0, 0), ObjectID: int32(i)}
	}
	items[10].Transform = common.Translation(0, 1000, 0)

	f.renderer.BeginScene(f.view, f.env)
	f.renderer.SubmitMeshes(items)

	require.Len(t, f.renderer.commands, len(items))
	for i, cmd := range f.renderer.commands {
		assert.Equal(t, int32(i), cmd.ObjectID)
		assert.Equal(t, i != 10, cmd.Visible, "command %d", i)
	}
	assert.Equal(t, uint32(1), f.renderer.Statistics().CulledMeshes)
	f.renderer.EndScene()
}

func TestSkinnedSubmissionUsesSkinnedPipeline(t *testing.T) {
	f := newSceneFixture(t)
	bones := [][16]float32{common.Identity4()}

	f.renderer.BeginScene(f.view, f.env)
	f.renderer.SubmitSkinnedMesh(f.opaque, common.Identity4(), 4, bones, false)
	require.Len(t, f.renderer.commands, 1)
	cmd := f.renderer.commands[0]
	assert.Equal(t, passes.PipelineSkinnedPBR, cmd.Pipeline)
	assert.True(t, cmd.Skinned)
	assert.Equal(t, bones, cmd.BoneMatrices)
	f.renderer.EndScene()

	assert.Zero(t, f.renderer.Statistics().Renderer3D.ShadowDrawCalls)
}

func TestMissingMaterialFallsBackToWhitePBR(t *testing.T) {
	f := newSceneFixture(t)
	bare, err := model.NewCube(f.device, 1)
	require.NoError(t, err)

	f.renderer.BeginScene(f.view, f.env)
	f.renderer.SubmitMesh(bare, common.Identity4(), -1, false)
	require.Len(t, f.renderer.commands, 1)
	cmd := f.renderer.commands[0]
	assert.Equal(t, passes.PipelinePBR, cmd.Pipeline)
	assert.Equal(t, [3]float32{1, 1, 1}, cmd.Material.Albedo)
	assert.Equal(t, float32(1), cmd.Material.Roughness)
	f.renderer.EndScene()
}

func TestSSGIFollowsSettings(t *testing.T) {
	settings := DefaultSettings()
	settings.SSGI.Enable = true
	f := newSceneFixture(t, WithSettings(settings))

	order := f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
	})
	before(t, order, passes.GBufferPassName, passes.SSGIPassName)
	before(t, order, passes.SSGIPassName, passes.LightingPassName)
	f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
	})
	assert.Equal(t, uint32(2), f.renderer.ssgi.FrameIndex())

	settings.SSGI.Enable = false
	f.renderer.SetSettings(settings)
	order = f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
	})
	assert.NotContains(t, order, passes.SSGIPassName)
	assert.Zero(t, f.renderer.ssgi.FrameIndex())
}

func TestGBufferDebugReplacesLighting(t *testing.T) {
	settings := DefaultSettings()
	settings.GBufferDebugMode = passes.DebugGTAO
	f := newSceneFixture(t, WithSettings(settings))

	order := f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
		r.SubmitMesh(f.glass, common.Identity4(), 2, false)
	})
	before(t, order, passes.GTAOPassName, passes.GBufferDebugPassName)
	assert.NotContains(t, order, passes.LightingPassName)
	assert.NotContains(t, order, passes.TransparentPassName)
}

func TestGridHiddenWhileSceneRunning(t *testing.T) {
	f := newSceneFixture(t)
	f.renderer.SetSceneRunning(true)
	order := f.frame(func(SceneRenderer) {})
	assert.NotContains(t, order, passes.InfiniteGridPassName)
}

func TestOutlineIDsProduceOutlinePass(t *testing.T) {
	f := newSceneFixture(t)
	order := f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 7, false)
		r.SetOutlineIDs([]int32{7})
	})
	before(t, order, passes.LightingPassName, passes.OutlinePassName)
	assert.Positive(t, f.trace.Count("BindTexture(3,4,gbuffer.color4)"))
}

func TestEndOverlayDrawsBoundsOfOutlinedMeshes(t *testing.T) {
	f := newSceneFixture(t)

	f.renderer.BeginOverlay(f.view, f.env)
	f.renderer.SubmitMesh(f.opaque, common.Identity4(), 1, true)
	f.renderer.SubmitMesh(f.opaque, common.Translation(0, 1000, 0), 2, true)
	f.renderer.EndOverlay()

	order := f.renderer.LastPassOrder()
	assert.Contains(t, order, passes.Renderer2DPassName)
	stats := f.renderer.Statistics()
	assert.Equal(t, uint32(12), stats.Renderer2D.LineCount)
	assert.Equal(t, uint32(1), stats.Renderer2D.DrawCalls)

	f.renderer.ResetStatistics()
	assert.Equal(t, Statistics{}, f.renderer.Statistics())
}

func TestProceduralSkyFeedsIBLAndSkybox(t *testing.T) {
	settings := DefaultSettings()
	settings.Skybox.Procedural = true
	f := newSceneFixture(t, WithSettings(settings))

	order := f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
	})
	before(t, order, passes.ProceduralSkyPassName, passes.IBLBakePassName)
	before(t, order, passes.IBLBakePassName, passes.LightingPassName)
	before(t, order, passes.LightingPassName, passes.SkyboxPassName)
	assert.Positive(t, f.renderer.Statistics().Renderer3D.IBLDrawCalls)

	order = f.frame(func(SceneRenderer) {})
	assert.NotContains(t, order, passes.ProceduralSkyPassName)
	assert.NotContains(t, order, passes.IBLBakePassName)
	assert.Contains(t, order, passes.SkyboxPassName)
}

func TestExplicitEnvironmentMapOverridesProceduralSky(t *testing.T) {
	settings := DefaultSettings()
	settings.Skybox.Procedural = true
	f := newSceneFixture(t, WithSettings(settings))

	cubemap, err := f.device.CreateTexture(gpu.TextureDescriptor{
		Label: "studio", Width: 64, Height: 64, Format: gpu.FormatRGBA16F, Cube: true, MipLevels: 1,
	})
	require.NoError(t, err)
	f.renderer.SetEnvironmentMap(cubemap)

	order := f.frame(func(SceneRenderer) {})
	assert.NotContains(t, order, passes.ProceduralSkyPassName)
	assert.Contains(t, order, passes.IBLBakePassName)
	assert.Equal(t, cubemap, f.renderer.environment.EnvironmentMap())
}

func TestTargetFramebufferReceivesFinalImage(t *testing.T) {
	f := newSceneFixture(t)
	target, err := f.device.CreateFramebuffer(gpu.FramebufferSpecification{
		Label: "viewport", Width: 800, Height: 600,
		Attachments: []gpu.TextureFormat{gpu.FormatRGBA8, gpu.FormatDepth24Stencil8},
	})
	require.NoError(t, err)
	f.renderer.SetTargetFramebuffer(target)

	f.frame(func(r SceneRenderer) {
		r.SubmitMesh(f.opaque, common.Identity4(), 1, false)
	})
	assert.Positive(t, f.trace.Count("BindFramebuffer(viewport)"))
}
