package command

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
)

// TraceBackend is a Backend that records every call as a readable line instead of issuing it.
// It implements every optional capability so traces show uniform uploads and texture binds too.
type TraceBackend struct {
	mu    *sync.Mutex
	calls []string

	framebuffer string
	pipeline    string
}

var (
	_ Backend           = &TraceBackend{}
	_ UniformBackend    = &TraceBackend{}
	_ TextureBackend    = &TraceBackend{}
	_ ClearValueBackend = &TraceBackend{}
	_ BlitBackend       = &TraceBackend{}
	_ CopyBackend       = &TraceBackend{}
)

// NewTraceBackend creates an empty trace backend.
func NewTraceBackend() *TraceBackend {
	return &TraceBackend{mu: &sync.Mutex{}, framebuffer: "default"}
}

func (t *TraceBackend) record(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, fmt.Sprintf(format, args...))
}

// Calls returns a copy of the recorded call lines.
func (t *TraceBackend) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.calls))
	copy(out, t.calls)
	return out
}

// Count returns how many recorded lines start with the given call name, e.g. "DrawIndexed(".
//
// Parameters:
//   - prefix: the line prefix to match
//
// Returns:
//   - int: number of matching lines
func (t *TraceBackend) Count(prefix string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Reset drops the recorded calls and the tracked binding state.
func (t *TraceBackend) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
	t.framebuffer = "default"
	t.pipeline = ""
}

// BoundFramebuffer returns the label of the currently bound framebuffer ("default" for the swapchain).
func (t *TraceBackend) BoundFramebuffer() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.framebuffer
}

func (t *TraceBackend) SetViewport(x, y, width, height uint32) {
	t.record("SetViewport(%d,%d,%d,%d)", x, y, width, height)
}

func (t *TraceBackend) SetClearColor(color [4]float32) {
	t.record("SetClearColor(%g,%g,%g,%g)", color[0], color[1], color[2], color[3])
}

func (t *TraceBackend) Clear() {
	t.record("Clear()")
}

func (t *TraceBackend) SetBlendEnabled(enabled bool) {
	t.record("SetBlendEnabled(%t)", enabled)
}

func (t *TraceBackend) SetLineWidth(width float32) {
	t.record("SetLineWidth(%g)", width)
}

func (t *TraceBackend) BindPipeline(p gpu.Pipeline) {
	key := "<nil>"
	if p != nil {
		key = p.PipelineKey()
	}
	t.mu.Lock()
	t.pipeline = key
	t.mu.Unlock()
	t.record("BindPipeline(%s)", key)
}

func (t *TraceBackend) BindFramebuffer(fb gpu.Framebuffer) {
	label := "default"
	if fb != nil {
		label = fb.Label()
	}
	t.mu.Lock()
	t.framebuffer = label
	t.mu.Unlock()
	t.record("BindFramebuffer(%s)", label)
}

func (t *TraceBackend) UnbindFramebuffer() {
	t.mu.Lock()
	t.framebuffer = "default"
	t.mu.Unlock()
	t.record("UnbindFramebuffer()")
}

func (t *TraceBackend) DrawIndexed(va gpu.VertexArray, indexCount, indexOffset uint32) {
	t.record("DrawIndexed(%s,%d,%d)", vertexArrayLabel(va), indexCount, indexOffset)
}

func (t *TraceBackend) DrawIndexedInstanced(va gpu.VertexArray, indexCount, instanceCount uint32) {
	t.record("DrawIndexedInstanced(%s,%d,%d)", vertexArrayLabel(va), indexCount, instanceCount)
}

func (t *TraceBackend) DrawLines(va gpu.VertexArray, vertexCount uint32) {
	t.record("DrawLines(%s,%d)", vertexArrayLabel(va), vertexCount)
}

func (t *TraceBackend) SetUniforms(group uint32, data []byte) {
	t.record("SetUniforms(%d,%d)", group, len(data))
}

func (t *TraceBackend) BindTexture(group, binding uint32, tex gpu.Texture) {
	t.record("BindTexture(%d,%d,%s)", group, binding, tex.Label())
}

func (t *TraceBackend) SetAttachmentClearValue(attachment int, value [4]float32) {
	t.record("SetAttachmentClearValue(%d,%g)", attachment, value[0])
}

func (t *TraceBackend) BlitDepth(src, dst gpu.Framebuffer) {
	target := "default"
	if dst != nil {
		target = dst.Label()
	}
	t.record("BlitDepth(%s,%s)", src.Label(), target)
}

func (t *TraceBackend) CopyToTexture(src gpu.Framebuffer, dst gpu.Texture, layer, mip uint32) {
	t.record("CopyToTexture(%s,%s,%d,%d)", src.Label(), dst.Label(), layer, mip)
}

func vertexArrayLabel(va gpu.VertexArray) string {
	if va == nil {
		return "<nil>"
	}
	return va.Label()
}
