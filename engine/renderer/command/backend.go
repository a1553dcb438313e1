package command

import "github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"

// Backend is the immediate-mode surface the queue replays against. Binding state
// (framebuffer, pipeline, viewport, clear color) is ambient: it persists from one
// command to the next until changed.
type Backend interface {
	SetViewport(x, y, width, height uint32)
	SetClearColor(color [4]float32)
	Clear()
	SetBlendEnabled(enabled bool)
	SetLineWidth(width float32)
	BindPipeline(p gpu.Pipeline)
	BindFramebuffer(fb gpu.Framebuffer)
	UnbindFramebuffer()
	DrawIndexed(va gpu.VertexArray, indexCount, indexOffset uint32)
	DrawIndexedInstanced(va gpu.VertexArray, indexCount, instanceCount uint32)
	DrawLines(va gpu.VertexArray, vertexCount uint32)
}

// UniformBackend uploads a uniform block to a bind group of the bound pipeline.
type UniformBackend interface {
	SetUniforms(group uint32, data []byte)
}

// TextureBackend binds a texture for sampling by the bound pipeline.
type TextureBackend interface {
	BindTexture(group, binding uint32, tex gpu.Texture)
}

// ClearValueBackend overrides the clear value of a single color attachment for the next Clear.
type ClearValueBackend interface {
	SetAttachmentClearValue(attachment int, value [4]float32)
}

// BlitBackend copies the depth attachment of src into dst. A nil dst means the default target.
type BlitBackend interface {
	BlitDepth(src, dst gpu.Framebuffer)
}

// CopyBackend copies the first color attachment of src into one layer and mip of dst.
type CopyBackend interface {
	CopyToTexture(src gpu.Framebuffer, dst gpu.Texture, layer, mip uint32)
}

// SetUniforms uploads data when the backend supports uniform blocks and is a no-op otherwise.
func SetUniforms(b Backend, group uint32, data []byte) {
	if ub, ok := b.(UniformBackend); ok {
		ub.SetUniforms(group, data)
	}
}

// BindTexture binds tex when the backend supports texture binding and tex is not nil.
func BindTexture(b Backend, group, binding uint32, tex gpu.Texture) {
	if tex == nil {
		return
	}
	if tb, ok := b.(TextureBackend); ok {
		tb.BindTexture(group, binding, tex)
	}
}

// SetAttachmentClearValue forwards to ClearValueBackend when supported.
func SetAttachmentClearValue(b Backend, attachment int, value [4]float32) {
	if cb, ok := b.(ClearValueBackend); ok {
		cb.SetAttachmentClearValue(attachment, value)
	}
}

// BlitDepth forwards to BlitBackend when supported.
func BlitDepth(b Backend, src, dst gpu.Framebuffer) {
	if src == nil {
		return
	}
	if bb, ok := b.(BlitBackend); ok {
		bb.BlitDepth(src, dst)
	}
}

// CopyToTexture forwards to CopyBackend when supported.
func CopyToTexture(b Backend, src gpu.Framebuffer, dst gpu.Texture, layer, mip uint32) {
	if src == nil || dst == nil {
		return
	}
	if cb, ok := b.(CopyBackend); ok {
		cb.CopyToTexture(src, dst, layer, mip)
	}
}
