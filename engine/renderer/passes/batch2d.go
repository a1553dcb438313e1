package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// Renderer2DPassName is the graph name of the 2D overlay pass.
const Renderer2DPassName = "Renderer2DPass"

// Per-frame capacities of the 2D batch. Primitives beyond a cap are dropped.
const (
	MaxBatchQuads   = 10000
	MaxBatchCircles = 10000
	MaxBatchLines   = 20000
)

// Vertex sizes in bytes of the 2D layouts.
const (
	BatchVertexSize = 44
	LineVertexSize  = 28
)

// BatchVertexLayout is the quad and circle layout: position vec3, color vec4, local uv vec2,
// params vec2 (thickness and fade for circles, tiling for sprites).
func BatchVertexLayout() gpu.VertexLayout {
	return gpu.NewVertexLayout(gpu.VertexFloat32x3, gpu.VertexFloat32x4, gpu.VertexFloat32x2, gpu.VertexFloat32x2)
}

// LineVertexLayout is the line layout: position vec3, color vec4.
func LineVertexLayout() gpu.VertexLayout {
	return gpu.NewVertexLayout(gpu.VertexFloat32x3, gpu.VertexFloat32x4)
}

// Renderer2DStatistics count the 2D primitives and draw calls since the last reset.
type Renderer2DStatistics struct {
	DrawCalls   uint32
	QuadCount   uint32
	LineCount   uint32
	CircleCount uint32
}

// VertexCount returns quads*4 + lines*2 + circles*4.
func (s Renderer2DStatistics) VertexCount() uint32 {
	return s.QuadCount*4 + s.LineCount*2 + s.CircleCount*4
}

// IndexCount returns quads*6 + circles*6.
func (s Renderer2DStatistics) IndexCount() uint32 {
	return s.QuadCount*6 + s.CircleCount*6
}

// unitQuad is the local quad, centered, with its uv.
var unitQuad = [4][5]float32{
	{-0.5, -0.5, 0, 0, 1},
	{0.5, -0.5, 0, 1, 1},
	{0.5, 0.5, 0, 1, 0},
	{-0.5, 0.5, 0, 0, 0},
}

// spriteRun is a run of consecutive quads sharing one texture (nil for flat color).
type spriteRun struct {
	texture gpu.Texture
	first   uint32
	count   uint32
}

type batch2D struct {
	rendererBase

	quadVertices   []float32
	circleVertices []float32
	lineVertices   []float32
	runs           []spriteRun
	lineWidth      float32

	quadVA   gpu.DynamicVertexArray
	circleVA gpu.DynamicVertexArray
	lineVA   gpu.DynamicVertexArray

	stats Renderer2DStatistics
}

// Batch2D accumulates quads, sprites, circles and lines for one frame and draws them as an
// overlay pass with one draw call per primitive kind and sprite texture run.
type Batch2D interface {
	// DrawLine adds a world-space line segment.
	DrawLine(p0, p1 common.Vec3, color [4]float32)

	// DrawQuad adds a filled unit quad placed by transform.
	DrawQuad(transform common.Mat4, color [4]float32)

	// DrawRect adds the four outline edges of the unit quad placed by transform.
	DrawRect(transform common.Mat4, color [4]float32)

	// DrawCircle adds a circle inscribed in the unit quad placed by transform.
	//
	// Parameters:
	//   - transform: the quad transform
	//   - color: fill color
	//   - thickness: ring thickness in [0, 1], 1 is a filled disc
	//   - fade: edge softness
	DrawCircle(transform common.Mat4, color [4]float32, thickness, fade float32)

	// DrawSprite adds a textured quad. A nil texture draws a flat quad.
	DrawSprite(transform common.Mat4, texture gpu.Texture, tint [4]float32, tiling float32)

	// SetLineWidth sets the width used for lines drawn this frame.
	SetLineWidth(width float32)

	// Empty reports whether nothing was drawn since the last Reset.
	Empty() bool

	// AddPass uploads the batch and appends the overlay pass reading colorTarget and depthTarget.
	AddPass(g graph.RenderGraph, ctx *RenderContext, colorTarget, depthTarget graph.ResourceHandle)

	// Reset drops the accumulated geometry; statistics are kept.
	Reset()

	// Statistics returns the counters since the last ResetStatistics.
	Statistics() Renderer2DStatistics

	// ResetStatistics zeroes the counters.
	ResetStatistics()

	Release()
}

var _ Batch2D = &batch2D{}

// NewBatch2D creates an empty 2D batch.
func NewBatch2D(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) Batch2D {
	return &batch2D{rendererBase: newRendererBase(device, library, opts), lineWidth: 1}
}

func (b *batch2D) appendQuad(dst []float32, transform common.Mat4, color [4]float32, params [2]float32) []float32 {
	for _, v := range unitQuad {
		p := common.TransformPoint(transform[:], common.Vec3{v[0], v[1], v[2]})
		dst = append(dst, p[0], p[1], p[2])
		dst = append(dst, color[:]...)
		dst = append(dst, v[3], v[4], params[0], params[1])
	}
	return dst
}

func (b *batch2D) DrawLine(p0, p1 common.Vec3, color [4]float32) {
	if len(b.lineVertices)/14 >= MaxBatchLines {
		return
	}
	b.lineVertices = append(b.lineVertices, p0[0], p0[1], p0[2])
	b.lineVertices = append(b.lineVertices, color[:]...)
	b.lineVertices = append(b.lineVertices, p1[0], p1[1], p1[2])
	b.lineVertices = append(b.lineVertices, color[:]...)
	b.stats.LineCount++
}

func (b *batch2D) DrawQuad(transform common.Mat4, color [4]float32) {
	b.DrawSprite(transform, nil, color, 1)
}

func (b *batch2D) DrawRect(transform common.Mat4, color [4]float32) {
	var corners [4]common.Vec3
	for i, v := range unitQuad {
		corners[i] = common.TransformPoint(transform[:], common.Vec3{v[0], v[1], v[2]})
	}
	for i := range corners {
		b.DrawLine(corners[i], corners[(i+1)%4], color)
	}
}

func (b *batch2D) DrawCircle(transform common.Mat4, color [4]float32, thickness, fade float32) {
	if len(b.circleVertices)/(4*11) >= MaxBatchCircles {
		return
	}
	b.circleVertices = b.appendQuad(b.circleVertices, transform, color, [2]float32{thickness, fade})
	b.stats.CircleCount++
}

func (b *batch2D) DrawSprite(transform common.Mat4, texture gpu.Texture, tint [4]float32, tiling float32) {
	quads := uint32(len(b.quadVertices) / (4 * 11))
	if quads >= MaxBatchQuads {
		return
	}
	b.quadVertices = b.appendQuad(b.quadVertices, transform, tint, [2]float32{tiling, 0})
	if n := len(b.runs); n > 0 && b.runs[n-1].texture == texture {
		b.runs[n-1].count++
	} else {
		b.runs = append(b.runs, spriteRun{texture: texture, first: quads, count: 1})
	}
	b.stats.QuadCount++
}

func (b *batch2D) SetLineWidth(width float32) {
	b.lineWidth = width
}

func (b *batch2D) Empty() bool {
	return len(b.quadVertices) == 0 && len(b.circleVertices) == 0 && len(b.lineVertices) == 0
}

func (b *batch2D) Reset() {
	b.quadVertices = b.quadVertices[:0]
	b.circleVertices = b.circleVertices[:0]
	b.lineVertices = b.lineVertices[:0]
	b.runs = b.runs[:0]
}

func (b *batch2D) Statistics() Renderer2DStatistics {
	return b.stats
}

func (b *batch2D) ResetStatistics() {
	b.stats = Renderer2DStatistics{}
}

// quadIndices builds the 0,1,2,2,3,0 pattern for n quads.
func quadIndices(n int) []uint32 {
	indices := make([]uint32, 0, n*6)
	for i := 0; i < n; i++ {
		base := uint32(i * 4)
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return indices
}

func (b *batch2D) dynamicArray(current gpu.DynamicVertexArray, label string, layout gpu.VertexLayout, capacity uint32, indices []uint32) gpu.DynamicVertexArray {
	if current != nil || b.device == nil {
		return current
	}
	va, err := b.device.CreateVertexArray(gpu.VertexArrayDescriptor{
		Label:          label,
		Layout:         layout,
		Indices:        indices,
		Dynamic:        true,
		VertexCapacity: capacity,
	})
	if err != nil {
		b.logger.Warningf("%s: %v", label, err)
		return nil
	}
	dyn, ok := va.(gpu.DynamicVertexArray)
	if !ok {
		va.Release()
		return nil
	}
	return dyn
}

func (b *batch2D) upload(va gpu.DynamicVertexArray, vertices []float32) bool {
	if va == nil || len(vertices) == 0 {
		return false
	}
	if err := va.Write(common.SliceToBytes(vertices)); err != nil {
		b.logger.Warningf("%s: %v", va.Label(), err)
		return false
	}
	return true
}

func (b *batch2D) AddPass(g graph.RenderGraph, ctx *RenderContext, colorTarget, depthTarget graph.ResourceHandle) {
	if len(b.quadVertices) > 0 {
		b.quadVA = b.dynamicArray(b.quadVA, "batch2d.quads", BatchVertexLayout(), MaxBatchQuads*4*BatchVertexSize, quadIndices(MaxBatchQuads))
	}
	if len(b.circleVertices) > 0 {
		b.circleVA = b.dynamicArray(b.circleVA, "batch2d.circles", BatchVertexLayout(), MaxBatchCircles*4*BatchVertexSize, quadIndices(MaxBatchCircles))
	}
	if len(b.lineVertices) > 0 {
		b.lineVA = b.dynamicArray(b.lineVA, "batch2d.lines", LineVertexLayout(), MaxBatchLines*2*LineVertexSize, nil)
	}

	hasQuads := b.upload(b.quadVA, b.quadVertices)
	hasCircles := b.upload(b.circleVA, b.circleVertices)
	hasLines := b.upload(b.lineVA, b.lineVertices)
	runs := append([]spriteRun(nil), b.runs...)
	circleCount := uint32(len(b.circleVertices) / (4 * 11))
	lineVertexCount := uint32(len(b.lineVertices) / 7)
	lineWidth := b.lineWidth
	frame := common.NewUniformWriter(64).Mat4(ctx.Camera.ViewProjection()).Bytes()

	g.AddPass(graph.Pass{
		Name:   Renderer2DPassName,
		Inputs: handles(colorTarget, depthTarget),
		Execute: func(pc *graph.PassContext) {
			cb := pc.Commands
			ctx.bindTarget(cb)
			cb.Submit(command.SetBlendEnabled{Enabled: true})

			if p := b.pipeline(KeyBatchQuad); p != nil && hasQuads {
				cb.Submit(command.BindPipeline{Pipeline: p})
				cb.Record(func(be command.Backend) {
					command.SetUniforms(be, GroupPass, frame)
				})
				for _, run := range runs {
					tex := run.texture
					cb.Record(func(be command.Backend) {
						command.BindTexture(be, GroupTextures, BindingSprite, tex)
					})
					cb.Submit(command.DrawIndexed{VertexArray: b.quadVA, IndexCount: run.count * 6, IndexOffset: run.first * 6})
					b.stats.DrawCalls++
				}
			}
			if p := b.pipeline(KeyBatchCircle); p != nil && hasCircles {
				cb.Submit(command.BindPipeline{Pipeline: p})
				cb.Record(func(be command.Backend) {
					command.SetUniforms(be, GroupPass, frame)
				})
				cb.Submit(command.DrawIndexed{VertexArray: b.circleVA, IndexCount: circleCount * 6})
				b.stats.DrawCalls++
			}
			if p := b.pipeline(KeyBatchLine); p != nil && hasLines {
				cb.Submit(command.SetLineWidth{Width: lineWidth})
				cb.Submit(command.BindPipeline{Pipeline: p})
				cb.Record(func(be command.Backend) {
					command.SetUniforms(be, GroupPass, frame)
				})
				cb.Submit(command.DrawLines{VertexArray: b.lineVA, VertexCount: lineVertexCount})
				b.stats.DrawCalls++
			}
		},
	})
}

func (b *batch2D) Release() {
	for _, va := range []gpu.DynamicVertexArray{b.quadVA, b.circleVA, b.lineVA} {
		if va != nil {
			va.Release()
		}
	}
	b.quadVA, b.circleVA, b.lineVA = nil, nil, nil
}
