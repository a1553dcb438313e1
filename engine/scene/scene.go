package scene

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/Carmen-Shannon/oxy-graph/engine/model"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// CameraView is the part of a camera BeginScene reads. camera.Camera satisfies it.
type CameraView interface {
	ViewMatrix() [16]float32
	ProjectionMatrix() [16]float32
	Near() float32
	Far() float32
}

// MeshSubmission is one mesh instance for SubmitMeshes.
type MeshSubmission struct {
	Model       model.Model
	Transform   common.Mat4
	ObjectID    int32
	DrawOutline bool

	// Skinned selects the skinned pipeline; Bones is the palette uploaded with each submesh.
	Skinned bool
	Bones   [][16]float32
}

// defaultMaterial is used for submeshes without a material: white PBR, metallic 0, roughness 1.
var defaultMaterial = material.NewMaterial(material.WithPBR([3]float32{1, 1, 1}, 0, 1), material.WithAO(1))

// SceneRenderer turns a frame's mesh submissions into a render graph of shadow, geometry,
// lighting and post passes and replays it on a backend. Thread-safe: settings may be changed
// from another goroutine and apply at the next flush.
type SceneRenderer interface {
	// BeginScene starts a frame: it installs the camera and lights and extracts the frustum
	// used to cull submissions.
	//
	// Parameters:
	//   - cam: the view the frame is rendered from
	//   - env: the frame's lights
	BeginScene(cam CameraView, env light.Environment)

	// BeginOverlay starts a frame like BeginScene. EndOverlay additionally draws the bounding
	// boxes of outlined visible meshes as lines.
	BeginOverlay(cam CameraView, env light.Environment)

	// SubmitMesh queues one draw command per submesh of m.
	//
	// Parameters:
	//   - m: the mesh
	//   - transform: model-to-world matrix
	//   - objectID: the id written to the G-buffer, -1 for none
	//   - drawOutline: whether the mesh is outlined when visible
	SubmitMesh(m model.Model, transform common.Mat4, objectID int32, drawOutline bool)

	// SubmitSkinnedMesh queues a mesh drawn with the skinned pipeline and the given bone palette.
	SubmitSkinnedMesh(m model.Model, transform common.Mat4, objectID int32, bones [][16]float32, drawOutline bool)

	// SubmitMeshes culls a batch on the worker pool and queues its commands in input order.
	SubmitMeshes(items []MeshSubmission)

	// DrawLine adds a world-space line to the 2D overlay.
	DrawLine(p0, p1 common.Vec3, color [4]float32)

	// DrawQuad adds a filled quad to the 2D overlay.
	DrawQuad(transform common.Mat4, color [4]float32)

	// DrawRect adds a quad outline to the 2D overlay.
	DrawRect(transform common.Mat4, color [4]float32)

	// DrawCircle adds a circle to the 2D overlay.
	DrawCircle(transform common.Mat4, color [4]float32, thickness, fade float32)

	// DrawSprite adds a textured quad to the 2D overlay.
	DrawSprite(transform common.Mat4, texture gpu.Texture, tint [4]float32, tiling float32)

	// SetOutlineIDs sets the object ids outlined this frame, in addition to DrawOutline meshes.
	SetOutlineIDs(ids []int32)

	// EndScene flushes the frame started by BeginScene. Without a BeginScene it does nothing.
	EndScene()

	// EndOverlay draws the outline boxes and flushes the frame started by BeginOverlay.
	EndOverlay()

	// FlushDrawList builds, compiles and executes the frame graph, then clears the draw list,
	// the outline ids and the 2D batch.
	FlushDrawList()

	// Statistics returns a snapshot of the counters.
	Statistics() Statistics

	// ResetStatistics zeroes the 2D and 3D counters.
	ResetStatistics()

	// Settings returns a copy of the installed settings.
	Settings() Settings

	// SetSettings replaces the settings. They apply at the next flush.
	SetSettings(settings Settings)

	// SetViewportSize resizes the frame. Framebuffers follow at the next flush.
	SetViewportSize(width, height uint32)

	// SetSceneRunning hides the editor grid while the scene is running.
	SetSceneRunning(running bool)

	// SetEnvironmentMap installs the skybox cubemap, replacing the procedural sky. Nil clears it.
	SetEnvironmentMap(cubemap gpu.Texture)

	// SetTargetFramebuffer sets the final color target. Nil renders to the swapchain.
	SetTargetFramebuffer(fb gpu.Framebuffer)

	// LastPassOrder returns the pass names of the last flushed frame in execution order.
	LastPassOrder() []string

	// Release frees every framebuffer and vertex array and stops an owned worker pool.
	Release()
}

type sceneRenderer struct {
	mu *sync.Mutex

	device  gpu.Device
	library pipeline.Library
	backend command.Backend
	queue   command.Queue
	graph   graph.RenderGraph
	logger  log.Logger

	shadow      passes.ShadowRenderer
	gbuffer     passes.GBufferRenderer
	ssgi        passes.SSGIRenderer
	gtao        passes.GTAORenderer
	lighting    passes.LightingRenderer
	forward     passes.ForwardRenderer
	environment passes.EnvironmentRenderer
	sky         passes.ProceduralSky
	outline     passes.OutlineRenderer
	post        passes.PostProcessRenderer
	grid        passes.GridRenderer
	batch       passes.Batch2D

	settings     Settings
	camera       passes.Camera
	frustum      common.Frustum
	env          light.Environment
	inScene      bool
	overlay      bool
	sceneRunning bool
	width        uint32
	height       uint32
	target       gpu.Framebuffer
	envMap       gpu.Texture

	commands   []passes.MeshDrawCommand
	outlineIDs []int32
	stats      Statistics
	lastOrder  []string

	pool        worker.DynamicWorkerPool
	ownsPool    bool
	cullWorkers int
}

var _ SceneRenderer = &sceneRenderer{}

// NewSceneRenderer creates a scene renderer and every pass renderer it drives. All GPU objects
// are created through device; pipelines are looked up in library by key.
//
// Parameters:
//   - device: the device framebuffers and vertex arrays are created on
//   - library: the pipeline registry
//   - backend: the backend frames are replayed on
//   - options: functional options
//
// Returns:
//   - SceneRenderer: the renderer
func NewSceneRenderer(device gpu.Device, library pipeline.Library, backend command.Backend, options ...SceneRendererBuilderOption) SceneRenderer {
	if backend == nil {
		panic("scene: NewSceneRenderer requires a non-nil Backend")
	}
	s := &sceneRenderer{
		mu:          &sync.Mutex{},
		device:      device,
		library:     library,
		backend:     backend,
		queue:       command.NewQueue(),
		logger:      log.New("scene"),
		settings:    DefaultSettings(),
		camera:      passes.NewRenderContext().Camera,
		env:         light.NewEnvironment(),
		cullWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}

	s.graph = graph.NewRenderGraph(graph.WithLogger(s.logger))
	if s.pool == nil {
		s.pool = worker.NewDynamicWorkerPool(s.cullWorkers, 256, 1*time.Second)
		s.ownsPool = true
	}

	opts := []passes.RendererBuilderOption{passes.WithLogger(s.logger)}
	s.shadow = passes.NewShadowRenderer(device, library, opts...)
	s.gbuffer = passes.NewGBufferRenderer(device, library, opts...)
	s.ssgi = passes.NewSSGIRenderer(device, library, opts...)
	s.gtao = passes.NewGTAORenderer(device, library, opts...)
	s.lighting = passes.NewLightingRenderer(device, library, opts...)
	s.forward = passes.NewForwardRenderer(device, library, opts...)
	s.environment = passes.NewEnvironmentRenderer(device, library, opts...)
	s.sky = passes.NewProceduralSky(device, library, opts...)
	s.outline = passes.NewOutlineRenderer(device, library, opts...)
	s.post = passes.NewPostProcessRenderer(device, library, opts...)
	s.grid = passes.NewGridRenderer(device, library, opts...)
	s.batch = passes.NewBatch2D(device, library, opts...)
	return s
}

func (s *sceneRenderer) BeginScene(cam CameraView, env light.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin(cam, env, false)
}

func (s *sceneRenderer) BeginOverlay(cam CameraView, env light.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin(cam, env, true)
}

func (s *sceneRenderer) begin(cam CameraView, env light.Environment, overlay bool) {
	if cam != nil {
		s.camera = passes.Camera{
			View:       cam.ViewMatrix(),
			Projection: cam.ProjectionMatrix(),
			Near:       cam.Near(),
			Far:        cam.Far(),
		}
	}
	vp := s.camera.ViewProjection()
	s.frustum = common.FrustumFromViewProjection(vp)
	s.env = env
	s.inScene = true
	s.overlay = overlay
}

func (s *sceneRenderer) SubmitMesh(m model.Model, transform common.Mat4, objectID int32, drawOutline bool) {
	s.submit(MeshSubmission{Model: m, Transform: transform, ObjectID: objectID, DrawOutline: drawOutline})
}

func (s *sceneRenderer) SubmitSkinnedMesh(m model.Model, transform common.Mat4, objectID int32, bones [][16]float32, drawOutline bool) {
	s.submit(MeshSubmission{Model: m, Transform: transform, ObjectID: objectID, DrawOutline: drawOutline, Skinned: true, Bones: bones})
}

func (s *sceneRenderer) submit(item MeshSubmission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inScene {
		s.logger.Debug("submission outside BeginScene/EndScene dropped")
		return
	}
	s.appendCommands(buildCommands(item, s.frustum))
}

func (s *sceneRenderer) SubmitMeshes(items []MeshSubmission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inScene {
		s.logger.Debug("submission outside BeginScene/EndScene dropped")
		return
	}
	if len(items) < 2 || s.pool == nil {
		for _, item := range items {
			s.appendCommands(buildCommands(item, s.frustum))
		}
		return
	}

	// Each task fills its own slots; the WaitGroup is the per-batch barrier.
	results := make([][]passes.MeshDrawCommand, len(items))
	chunk := (len(items) + s.cullWorkers - 1) / s.cullWorkers
	frustum := s.frustum
	var wg sync.WaitGroup
	for id, start := 0, 0; start < len(items); id, start = id+1, start+chunk {
		end := min(start+chunk, len(items))
		wg.Add(1)
		s.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := start; i < end; i++ {
					results[i] = buildCommands(items[i], frustum)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	for _, cmds := range results {
		s.appendCommands(cmds)
	}
}

func (s *sceneRenderer) appendCommands(cmds []passes.MeshDrawCommand) {
	for i := range cmds {
		if !cmds[i].Visible {
			s.stats.CulledMeshes++
		}
	}
	s.commands = append(s.commands, cmds...)
}

// buildCommands expands a submission into one command per submesh. It reads nothing but its
// arguments so it can run on the worker pool.
func buildCommands(item MeshSubmission, frustum common.Frustum) []passes.MeshDrawCommand {
	m := item.Model
	if m == nil || m.VertexArray() == nil {
		return nil
	}
	world := m.Bounds().Transform(item.Transform)
	visible := frustum.IntersectsAABB(world)

	subs := m.Submeshes()
	cmds := make([]passes.MeshDrawCommand, 0, len(subs))
	for _, sub := range subs {
		mat := m.Material(sub)
		if mat == nil {
			mat = defaultMaterial
		}
		kind := passes.PipelinePhong
		switch {
		case item.Skinned:
			kind = passes.PipelineSkinnedPBR
		case mat.IsPBR():
			kind = passes.PipelinePBR
		}
		cmd := passes.MeshDrawCommand{
			Pipeline:    kind,
			VertexArray: m.VertexArray(),
			Material:    mat,
			Transform:   item.Transform,
			IndexCount:  sub.IndexCount,
			IndexOffset: sub.IndexOffset,
			ObjectID:    item.ObjectID,
			Visible:     visible,
			Transparent: mat.IsTransparent(),
			DrawOutline: item.DrawOutline,
			Bounds:      world,
			Skinned:     item.Skinned,
		}
		if item.Skinned {
			cmd.BoneMatrices = item.Bones
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (s *sceneRenderer) DrawLine(p0, p1 common.Vec3, color [4]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch.DrawLine(p0, p1, color)
}

func (s *sceneRenderer) DrawQuad(transform common.Mat4, color [4]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch.DrawQuad(transform, color)
}

func (s *sceneRenderer) DrawRect(transform common.Mat4, color [4]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch.DrawRect(transform, color)
}

func (s *sceneRenderer) DrawCircle(transform common.Mat4, color [4]float32, thickness, fade float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch.DrawCircle(transform, color, thickness, fade)
}

func (s *sceneRenderer) DrawSprite(transform common.Mat4, texture gpu.Texture, tint [4]float32, tiling float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch.DrawSprite(transform, texture, tint, tiling)
}

func (s *sceneRenderer) SetOutlineIDs(ids []int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outlineIDs = append(s.outlineIDs[:0], ids...)
}

func (s *sceneRenderer) EndScene() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inScene {
		return
	}
	s.flush()
	s.inScene = false
}

func (s *sceneRenderer) EndOverlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inScene {
		return
	}
	if s.overlay {
		color := s.settings.Outline.Color
		s.batch.SetLineWidth(s.settings.Outline.Thickness)
		for i := range s.commands {
			cmd := &s.commands[i]
			if !cmd.DrawOutline || !cmd.Visible {
				continue
			}
			edges := cmd.Bounds.Edges()
			for e := 0; e < len(edges); e += 2 {
				s.batch.DrawLine(edges[e], edges[e+1], color)
			}
		}
	}
	s.flush()
	s.inScene = false
	s.overlay = false
}

func (s *sceneRenderer) FlushDrawList() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flush()
}

func (s *sceneRenderer) renderContext() *passes.RenderContext {
	l := s.settings.Lighting
	ctx := passes.NewRenderContext()
	ctx.Camera = s.camera
	ctx.Environment = s.env
	ctx.ViewportWidth, ctx.ViewportHeight = s.width, s.height
	ctx.TargetFramebuffer = s.target
	ctx.ClearColor = s.settings.ClearColor
	ctx.Commands = s.commands
	ctx.Stats = &s.stats.Renderer3D
	ctx.AmbientIntensity = l.AmbientIntensity
	ctx.EnableShadows = l.EnableShadows
	ctx.ShadowBias = l.ShadowBias
	ctx.ShadowSoftness = l.ShadowSoftness
	ctx.NormalMapStrength = l.NormalMapStrength
	ctx.ToksvigStrength = l.ToksvigStrength
	ctx.UseIBL = l.UseIBL
	ctx.IBL = l.IBL
	return &ctx
}

// flush builds and runs the frame graph. Callers hold s.mu.
func (s *sceneRenderer) flush() {
	g := s.graph
	g.Reset()
	s.stats.Frames++
	s.stats.Renderer3D.MeshCount += uint32(len(s.commands))

	settings := s.settings
	ctx := s.renderContext()
	flags := settings.frameFlags()
	for i := range s.commands {
		if s.commands[i].Transparent {
			flags.HasTransparent = true
			break
		}
	}

	res := s.frameResources(ctx, flags)
	src := passes.Sources{Environment: s.environment}
	if ctx.EnableShadows {
		src.Shadow = s.shadow
	}

	if s.envMap == nil && settings.Skybox.Procedural {
		res.Environment = s.sky.AddPass(g, ctx, settings.Skybox.Sky)
		s.environment.SetEnvironmentMap(s.sky.Cubemap())
	} else {
		s.environment.SetEnvironmentMap(s.envMap)
	}
	res.IBL = s.environment.EnsureIBL(g, ctx, res.Environment)
	showSkybox := settings.Skybox.ShowSkybox && s.environment.EnvironmentMap() != nil

	if ctx.EnableShadows {
		s.shadow.AddPass(g, ctx, res.ShadowMap)
	}

	var gbuffer passes.GBufferRenderer
	if flags.UseDeferred {
		gbuffer = s.gbuffer
		src.GBuffer = s.gbuffer
		s.gbuffer.AddPass(g, ctx, res.GBuffer, res.SceneDepth)
		if flags.UseSSGI {
			src.SSGI = s.ssgi
			s.ssgi.AddPass(g, ctx, s.gbuffer, settings.SSGI.SSGISettings, res)
		}
		if flags.UseGTAO {
			src.GTAO = s.gtao
			s.gtao.AddPass(g, ctx, s.gbuffer, settings.GTAO.GTAOSettings, res)
		}
		if flags.ShowGBufferDebug {
			s.post.AddGBufferDebugPass(g, ctx, src, settings.GBufferDebugMode, settings.Debug.DepthViewPower, res)
		} else {
			s.lighting.AddPass(g, ctx, src, res)
			if showSkybox {
				s.environment.AddSkyboxPass(g, ctx, res)
			}
			if flags.HasTransparent {
				s.forward.AddPass(g, ctx, true, src, res)
			}
		}
	} else {
		s.forward.AddPass(g, ctx, false, src, res)
		if showSkybox {
			s.environment.AddSkyboxPass(g, ctx, res)
		}
		if flags.HasTransparent {
			s.forward.AddPass(g, ctx, true, src, res)
		}
	}

	if settings.Grid.ShowInfiniteGrid && !s.sceneRunning {
		s.grid.AddPass(g, ctx, settings.Grid.GridSettings, res.LightingResult, res.SceneDepth)
	}
	if settings.Debug.ShowDepth && !flags.ShowGBufferDebug {
		s.post.AddDepthViewPass(g, ctx, gbuffer, settings.Debug.DepthViewPower, res)
	}
	s.outline.AddPass(g, ctx, gbuffer, s.outlineIDs, settings.Outline, res)
	if !s.batch.Empty() {
		s.batch.AddPass(g, ctx, res.LightingResult, res.SceneDepth)
	}

	if !g.Compile() {
		s.logger.Warningf("frame graph: %v, executing in insertion order", g.LastCompileError())
	}
	g.Execute(s.queue, s.backend)
	s.lastOrder = g.Order()

	s.commands = s.commands[:0]
	s.outlineIDs = s.outlineIDs[:0]
	s.batch.Reset()
}

// frameResources ensures the frame's framebuffers and declares their graph handles.
func (s *sceneRenderer) frameResources(ctx *passes.RenderContext, flags passes.FrameFlags) passes.FrameResources {
	g := s.graph
	w, h := s.width, s.height
	res := passes.FrameResources{
		ShadowMap:   graph.InvalidHandle,
		SSGI:        graph.InvalidHandle,
		GTAO:        graph.InvalidHandle,
		Environment: graph.InvalidHandle,
		IBL:         graph.InvalidHandle,
	}

	if ctx.EnableShadows {
		size := max(s.settings.Lighting.ShadowMapSize, 1)
		s.shadow.EnsureFramebuffer(size)
		res.ShadowMap = g.CreateResourceDesc(graph.ResourceDesc{
			Name: "shadowMap", Type: graph.ResourceTexture2D, Width: size, Height: size, Format: gpu.FormatDepth32F,
		})
	}

	if flags.UseDeferred {
		s.gbuffer.EnsureFramebuffer(w, h)
	}
	if fb := s.gbuffer.Framebuffer(); flags.UseDeferred && fb != nil {
		res.GBuffer = g.ImportFramebuffer("gBuffer", fb)
	} else {
		res.GBuffer = g.CreateResourceDesc(graph.ResourceDesc{
			Name: "gBuffer", Type: graph.ResourceFramebuffer, Width: w, Height: h, Format: gpu.FormatRGBA8, Transient: true,
		})
	}

	if s.target != nil {
		res.LightingResult = g.ImportFramebuffer("lightingResult", s.target)
	} else {
		res.LightingResult = g.CreateResourceDesc(graph.ResourceDesc{
			Name: "lightingResult", Type: graph.ResourceTexture2D, Width: w, Height: h, Format: gpu.FormatRGBA8, Transient: true,
		})
	}
	res.SceneDepth = g.CreateResourceDesc(graph.ResourceDesc{
		Name: "sceneDepth", Type: graph.ResourceTexture2D, Width: w, Height: h, Format: gpu.FormatDepth24Stencil8, Transient: true,
	})

	if flags.UseSSGI {
		s.ssgi.EnsureFramebuffers(w, h)
		res.SSGI = g.CreateResourceDesc(graph.ResourceDesc{
			Name: "ssgi", Type: graph.ResourceTexture2D, Width: w, Height: h, Format: gpu.FormatRGB16F, Transient: true,
		})
	} else {
		s.ssgi.SetEnabled(false)
		s.ssgi.ResetAccumulation()
	}
	if flags.UseGTAO {
		s.gtao.EnsureFramebuffer(w, h)
		res.GTAO = g.CreateResourceDesc(graph.ResourceDesc{
			Name: "gtao", Type: graph.ResourceTexture2D, Width: w, Height: h, Format: gpu.FormatRG16F, Transient: true,
		})
	}
	return res
}

func (s *sceneRenderer) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.Renderer2D = s.batch.Statistics()
	return stats
}

func (s *sceneRenderer) ResetStatistics() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = Statistics{}
	s.batch.ResetStatistics()
}

func (s *sceneRenderer) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *sceneRenderer) SetSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

func (s *sceneRenderer) SetViewportSize(width, height uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

func (s *sceneRenderer) SetSceneRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sceneRunning = running
}

func (s *sceneRenderer) SetEnvironmentMap(cubemap gpu.Texture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envMap = cubemap
}

func (s *sceneRenderer) SetTargetFramebuffer(fb gpu.Framebuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = fb
}

func (s *sceneRenderer) LastPassOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lastOrder...)
}

func (s *sceneRenderer) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shadow.Release()
	s.gbuffer.Release()
	s.ssgi.Release()
	s.gtao.Release()
	s.lighting.Release()
	s.environment.Release()
	s.sky.Release()
	s.outline.Release()
	s.post.Release()
	s.grid.Release()
	s.batch.Release()
	if s.ownsPool && s.pool != nil {
		s.pool.Stop()
		s.pool = nil
	}
}
