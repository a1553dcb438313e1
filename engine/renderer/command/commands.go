// Package command records backend-agnostic render commands into buffers and replays them,
// in order, against a Backend.
package command

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
)

// CommandKind tags a RenderCmd variant.
type CommandKind int

const (
	KindSetViewport CommandKind = iota
	KindSetClearColor
	KindClear
	KindSetBlendEnabled
	KindSetLineWidth
	KindBindPipeline
	KindBindFramebuffer
	KindUnbindFramebuffer
	KindDrawIndexed
	KindDrawIndexedInstanced
	KindDrawLines
	KindCustom
)

var kindNames = [...]string{
	"SetViewport",
	"SetClearColor",
	"Clear",
	"SetBlendEnabled",
	"SetLineWidth",
	"BindPipeline",
	"BindFramebuffer",
	"UnbindFramebuffer",
	"DrawIndexed",
	"DrawIndexedInstanced",
	"DrawLines",
	"Custom",
}

func (k CommandKind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
	return kindNames[k]
}

// RenderCmd is one recorded backend operation. The set of variants is closed; Apply dispatches
// on the concrete type.
type RenderCmd interface {
	Kind() CommandKind
}

type SetViewport struct {
	X, Y, Width, Height uint32
}

type SetClearColor struct {
	Color [4]float32
}

type Clear struct{}

type SetBlendEnabled struct {
	Enabled bool
}

type SetLineWidth struct {
	Width float32
}

type BindPipeline struct {
	Pipeline gpu.Pipeline
}

type BindFramebuffer struct {
	Framebuffer gpu.Framebuffer
}

type UnbindFramebuffer struct{}

// DrawIndexed draws IndexCount indices starting at IndexOffset.
type DrawIndexed struct {
	VertexArray gpu.VertexArray
	IndexCount  uint32
	IndexOffset uint32
}

type DrawIndexedInstanced struct {
	VertexArray   gpu.VertexArray
	IndexCount    uint32
	InstanceCount uint32
}

type DrawLines struct {
	VertexArray gpu.VertexArray
	VertexCount uint32
}

// Custom runs Fn against the backend at replay time. It carries uniform uploads, texture
// binds and anything else the structured variants do not model.
type Custom struct {
	Fn func(Backend)
}

func (SetViewport) Kind() CommandKind          { return KindSetViewport }
func (SetClearColor) Kind() CommandKind        { return KindSetClearColor }
func (Clear) Kind() CommandKind                { return KindClear }
func (SetBlendEnabled) Kind() CommandKind      { return KindSetBlendEnabled }
func (SetLineWidth) Kind() CommandKind         { return KindSetLineWidth }
func (BindPipeline) Kind() CommandKind         { return KindBindPipeline }
func (BindFramebuffer) Kind() CommandKind      { return KindBindFramebuffer }
func (UnbindFramebuffer) Kind() CommandKind    { return KindUnbindFramebuffer }
func (DrawIndexed) Kind() CommandKind          { return KindDrawIndexed }
func (DrawIndexedInstanced) Kind() CommandKind { return KindDrawIndexedInstanced }
func (DrawLines) Kind() CommandKind            { return KindDrawLines }
func (Custom) Kind() CommandKind               { return KindCustom }

// Apply performs a single command against the backend.
//
// Parameters:
//   - cmd: the command to apply
//   - backend: the backend receiving the call
func Apply(cmd RenderCmd, backend Backend) {
	switch c := cmd.(type) {
	case SetViewport:
		backend.SetViewport(c.X, c.Y, c.Width, c.Height)
	case SetClearColor:
		backend.SetClearColor(c.Color)
	case Clear:
		backend.Clear()
	case SetBlendEnabled:
		backend.SetBlendEnabled(c.Enabled)
	case SetLineWidth:
		backend.SetLineWidth(c.Width)
	case BindPipeline:
		backend.BindPipeline(c.Pipeline)
	case BindFramebuffer:
		backend.BindFramebuffer(c.Framebuffer)
	case UnbindFramebuffer:
		backend.UnbindFramebuffer()
	case DrawIndexed:
		backend.DrawIndexed(c.VertexArray, c.IndexCount, c.IndexOffset)
	case DrawIndexedInstanced:
		backend.DrawIndexedInstanced(c.VertexArray, c.IndexCount, c.InstanceCount)
	case DrawLines:
		backend.DrawLines(c.VertexArray, c.VertexCount)
	case Custom:
		if c.Fn != nil {
			c.Fn(backend)
		}
	}
}
