package passes

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/graph"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// InfiniteGridPassName is the graph name of the editor grid pass.
const InfiniteGridPassName = "InfiniteGrid"

// GridPlane is the orientation of the editor grid.
type GridPlane int

const (
	GridPlaneXZ GridPlane = iota
	GridPlaneXY
	GridPlaneYZ
)

func (p GridPlane) String() string {
	switch p {
	case GridPlaneXZ:
		return "xz"
	case GridPlaneXY:
		return "xy"
	case GridPlaneYZ:
		return "yz"
	default:
		return fmt.Sprintf("GridPlane(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p GridPlane) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *GridPlane) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "xz":
		*p = GridPlaneXZ
	case "xy":
		*p = GridPlaneXY
	case "yz":
		*p = GridPlaneYZ
	default:
		return fmt.Errorf("passes: unknown grid plane %q", text)
	}
	return nil
}

// GridSettings style the infinite grid.
type GridSettings struct {
	Plane          GridPlane  `toml:"plane" yaml:"plane"`
	Scale          float32    `toml:"scale" yaml:"scale"`
	FadeDistance   float32    `toml:"fade_distance" yaml:"fade_distance"`
	MinorColor     [4]float32 `toml:"minor_color" yaml:"minor_color"`
	MajorColor     [4]float32 `toml:"major_color" yaml:"major_color"`
	AxisColorFirst [4]float32 `toml:"axis_color_first" yaml:"axis_color_first"`
	AxisColorLast  [4]float32 `toml:"axis_color_last" yaml:"axis_color_last"`
}

// DefaultGridSettings returns the XZ grid at scale 3 fading out at 500 units, with red X and blue
// Z axes.
func DefaultGridSettings() GridSettings {
	return GridSettings{
		Plane:          GridPlaneXZ,
		Scale:          3,
		FadeDistance:   500,
		MinorColor:     [4]float32{0.5, 0.5, 0.5, 0.4},
		MajorColor:     [4]float32{0.5, 0.5, 0.5, 0.6},
		AxisColorFirst: [4]float32{0.9, 0.2, 0.2, 1},
		AxisColorLast:  [4]float32{0.2, 0.2, 0.9, 1},
	}
}

type gridRenderer struct {
	rendererBase

	quad gpu.VertexArray
}

// GridRenderer draws an analytic, distance-faded grid over the scene.
type GridRenderer interface {
	// AddPass appends the grid pass reading colorTarget and depthTarget.
	AddPass(g graph.RenderGraph, ctx *RenderContext, settings GridSettings, colorTarget, depthTarget graph.ResourceHandle)

	Release()
}

var _ GridRenderer = &gridRenderer{}

// NewGridRenderer creates an infinite grid renderer.
func NewGridRenderer(device gpu.Device, library pipeline.Library, opts ...RendererBuilderOption) GridRenderer {
	return &gridRenderer{rendererBase: newRendererBase(device, library, opts)}
}

func (r *gridRenderer) AddPass(g graph.RenderGraph, ctx *RenderContext, settings GridSettings, colorTarget, depthTarget graph.ResourceHandle) {
	r.quad = r.fullscreenQuad(r.quad, "grid.quad")

	w := common.NewUniformWriter(208)
	w.Mat4(ctx.Camera.InverseViewProjection())
	w.Mat4(ctx.Camera.ViewProjection())
	w.Int32(int32(settings.Plane))
	w.Float32(settings.Scale, settings.FadeDistance, 0)
	w.Float32(settings.MinorColor[:]...)
	w.Float32(settings.MajorColor[:]...)
	w.Float32(settings.AxisColorFirst[:]...)
	w.Float32(settings.AxisColorLast[:]...)
	uniforms := w.Bytes()

	g.AddPass(graph.Pass{
		Name:   InfiniteGridPassName,
		Inputs: handles(colorTarget, depthTarget),
		Execute: func(pc *graph.PassContext) {
			p := r.pipeline(KeyInfiniteGrid)
			if p == nil || r.quad == nil {
				return
			}
			cb := pc.Commands
			ctx.bindTarget(cb)
			cb.Submit(command.SetBlendEnabled{Enabled: true})
			cb.Submit(command.BindPipeline{Pipeline: p})
			cb.Record(func(b command.Backend) {
				command.SetUniforms(b, GroupPass, uniforms)
			})
			cb.Submit(command.DrawIndexed{VertexArray: r.quad, IndexCount: 6})
		},
	})
}

func (r *gridRenderer) Release() {
	if r.quad != nil {
		r.quad.Release()
		r.quad = nil
	}
}
