package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// OutlinePassName is the graph name of both outline variants.
const OutlinePassName = "OutlinePass"

// MaxOutlineIDs caps how many objects are outlined in one frame.
const MaxOutlineIDs = 32

// OutlineSettings style the selection outline.
type OutlineSettings struct {
	Color           [4]float32 `toml:"color" yaml:"color"`
	Thickness       float32    `toml:"thickness" yaml:"thickness"`
	DepthThreshold  float32    `toml:"depth_threshold" yaml:"depth_threshold"`
	NormalThreshold float32    `toml:"normal_threshold" yaml:"normal_threshold"`
}

// DefaultOutlineSettings returns a red outline, 2 pixels thick.
func DefaultOutlineSettings() OutlineSettings {
	return OutlineSettings{
		Color:           [4]float32{1, 0, 0, 1},
		Thickness:       2,
		DepthThreshold:  1,
		NormalThreshold: 2,
	}
}

// CollectOutlineIDs merges the explicit ids with the ids of visible commands flagged DrawOutline.
// Negative ids are skipped, duplicates dropped, and the result is capped at MaxOutlineIDs.
//
// Parameters:
//   - explicit: ids requested by the caller
//   - commands: the frame's draw list
//
// Returns:
//   - []int32: the unique ids in first-seen order
func CollectOutlineIDs(explicit []int32, commands []MeshDrawCommand) []int32 {
	all := make([]int32, 0, len(explicit)+len(commands))
	all = append(all, explicit...)
	for i := range commands {
		if commands[i].DrawOutline && commands[i].Visible {
			all = append(all, commands[i].ObjectID)
		}
	}

	seen := make(map[int32]struct{}, len(all))
	unique := make([]int32, 0, min(len(all), MaxOutlineIDs))
	for _, id := range all {
		if id < 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		if len(unique) >= MaxOutlineIDs {
			break
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

type outlineRenderer struct {
	rendererBase

	quad  gpu.VertexArray
	lines gpu.DynamicVertexArray

	lineCapacity uint32
}

// OutlineRenderer highlights selected objects, either as a screen-space edge on the G-buffer
// object ids or, without a G-buffer, as wireframe bounding boxes.
type OutlineRenderer interface {
	// AddPass appends the outline pass when there is anything to outline.
	//
	// Parameters:
	//   - g: the frame graph
	//   - ctx: the frame context
	//   - gbuffer: the G-buffer renderer, nil or without a framebuffer in forward mode
	//   - ids: explicit outline ids
	//   - settings: outline style
	//   - res: the frame resources
	//
	// Returns:
	//   - bool: whether a pass was added
	AddPass(g graph.RenderGraph, ctx *RenderContext, gbuffer GBufferRenderer, ids []int32, settings OutlineSettings, res FrameResources) bool

	Release()
}

var _ OutlineRenderer = &outlineRenderer{}

// NewOutlineRenderer creates an outline renderer.
func NewOutlineRenderer(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) OutlineRenderer {
	return &outlineRenderer{rendererBase: newRendererBase(device, library, opts)}
}

func (r *outlineRenderer) AddPass(g graph.RenderGraph, ctx *RenderContext, gbuffer GBufferRenderer, ids []int32, settings OutlineSettings, res FrameResources) bool {
	unique := CollectOutlineIDs(ids, ctx.Commands)

	var gb gpu.Framebuffer
	if gbuffer != nil {
		gb = gbuffer.Framebuffer()
	}
	if gb != nil && len(unique) > 0 && r.library != nil && r.library.Has(KeyOutline) {
		r.addGBufferPass(g, ctx, gb, unique, settings, res)
		return true
	}

	boxes := outlineBoxes(unique, ctx.Commands)
	if len(boxes) == 0 {
		return false
	}
	r.addLinePass(g, ctx, boxes, settings, res)
	return true
}

func (r *outlineRenderer) addGBufferPass(g graph.RenderGraph, ctx *RenderContext, gb gpu.Framebuffer, ids []int32, settings OutlineSettings, res FrameResources) {
	r.quad = r.fullscreenQuad(r.quad, "outline.quad")

	w := common.NewUniformWriter(48 + MaxOutlineIDs*16)
	w.Float32(settings.Color[:]...)
	w.Int32(int32(len(ids)))
	w.Float32(ctx.Camera.Near, ctx.Camera.Far, settings.DepthThreshold)
	w.Float32(settings.NormalThreshold, settings.Thickness, 0, 0)
	// WGSL array<vec4<i32>> stride: one id per 16 bytes.
	for i := 0; i < MaxOutlineIDs; i++ {
		if i < len(ids) {
			w.Int32(ids[i], 0, 0, 0)
			continue
		}
		w.Int32(-1, 0, 0, 0)
	}
	uniforms := w.Bytes()

	g.AddPass(graph.Pass{
		Name:   OutlinePassName,
		Inputs: handles(res.GBuffer, res.SceneDepth, res.LightingResult),
		Execute: func(pc *graph.PassContext) {
			p := r.pipeline(KeyOutline)
			if p == nil || r.quad == nil {
				return
			}
			cb := pc.Commands
			ctx.bindTarget(cb)
			cb.Submit(command.BindPipeline{Pipeline: p})
			cb.Record(func(b command.Backend) {
				command.BindTexture(b, GroupTextures, BindingNormal, gb.ColorAttachment(GBufferNormal))
				command.BindTexture(b, GroupTextures, BindingDepth, gb.DepthAttachment())
				command.BindTexture(b, GroupTextures, BindingObjectID, gb.ColorAttachment(GBufferObjectID))
				command.SetUniforms(b, GroupPass, uniforms)
			})
			cb.Submit(command.DrawIndexed{VertexArray: r.quad, IndexCount: 6})
		},
	})
}

// outlineBoxes unions the world bounds of the visible commands of each id, in id order.
func outlineBoxes(ids []int32, commands []MeshDrawCommand) []common.AABB {
	var boxes []common.AABB
	for _, id := range ids {
		var box common.AABB
		found := false
		for i := range commands {
			cmd := &commands[i]
			if cmd.ObjectID != id || !cmd.Visible {
				continue
			}
			if !found {
				box, found = cmd.Bounds, true
				continue
			}
			box = box.Union(cmd.Bounds)
		}
		if found {
			boxes = append(boxes, box)
		}
	}
	return boxes
}

func (r *outlineRenderer) addLinePass(g graph.RenderGraph, ctx *RenderContext, boxes []common.AABB, settings OutlineSettings, res FrameResources) {
	vertices := make([]float32, 0, len(boxes)*24*7)
	for _, box := range boxes {
		for _, p := range box.Edges() {
			vertices = append(vertices, p[0], p[1], p[2])
			vertices = append(vertices, settings.Color[:]...)
		}
	}
	data := common.SliceToBytes(vertices)
	vertexCount := uint32(len(boxes) * 24)
	r.ensureLineBuffer(uint32(len(data)))
	if r.lines != nil {
		if err := r.lines.Write(data); err != nil {
			r.logger.Warningf("outline: %v", err)
		}
	}
	frame := common.NewUniformWriter(64).Mat4(ctx.Camera.ViewProjection()).Bytes()
	lines := r.lines

	g.AddPass(graph.Pass{
		Name:   OutlinePassName,
		Inputs: handles(res.LightingResult),
		Execute: func(pc *graph.PassContext) {
			p := r.pipeline(KeyOutlineLines)
			if p == nil || lines == nil {
				return
			}
			cb := pc.Commands
			ctx.bindTarget(cb)
			cb.Submit(command.SetLineWidth{Width: settings.Thickness})
			cb.Submit(command.BindPipeline{Pipeline: p})
			cb.Record(func(b command.Backend) {
				command.SetUniforms(b, GroupPass, frame)
			})
			cb.Submit(command.DrawLines{VertexArray: lines, VertexCount: vertexCount})
			cb.Submit(command.SetLineWidth{Width: 1})
		},
	})
}

// ensureLineBuffer grows the dynamic line buffer to hold at least size bytes.
func (r *outlineRenderer) ensureLineBuffer(size uint32) {
	if r.lines != nil && r.lineCapacity >= size {
		return
	}
	if r.device == nil {
		return
	}
	capacity := max(size, 24*MaxOutlineIDs*LineVertexSize)
	va, err := r.device.CreateVertexArray(gpu.VertexArrayDescriptor{
		Label:          "outline.lines",
		Layout:         LineVertexLayout(),
		Dynamic:        true,
		VertexCapacity: capacity,
	})
	if err != nil {
		r.logger.Warningf("outline: create line buffer: %v", err)
		return
	}
	dyn, ok := va.(gpu.DynamicVertexArray)
	if !ok {
		va.Release()
		return
	}
	if r.lines != nil {
		r.lines.Release()
	}
	r.lines, r.lineCapacity = dyn, capacity
}

func (r *outlineRenderer) Release() {
	if r.quad != nil {
		r.quad.Release()
		r.quad = nil
	}
	if r.lines != nil {
		r.lines.Release()
		r.lines = nil
	}
}
