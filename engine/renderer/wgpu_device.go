package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuDevice creates framebuffers, textures and vertex arrays on a WebGPU device.
type wgpuDevice struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue
}

var _ gpu.Device = &wgpuDevice{}

// textureUsage is shared by every texture the device creates: any of them may be rendered to,
// sampled, or used as either end of a copy.
const textureUsage = wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding |
	wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst

func (d *wgpuDevice) CreateFramebuffer(spec gpu.FramebufferSpecification) (gpu.Framebuffer, error) {
	if spec.Width == 0 || spec.Height == 0 {
		return nil, fmt.Errorf("framebuffer %q: zero size %dx%d", spec.Label, spec.Width, spec.Height)
	}
	fb := &wgpuFramebuffer{spec: spec}
	for i, f := range spec.ColorFormats() {
		tex, err := d.newTexture(gpu.TextureDescriptor{
			Label:     fmt.Sprintf("%s.color%d", spec.Label, i),
			Width:     spec.Width,
			Height:    spec.Height,
			Format:    f,
			MipLevels: 1,
		})
		if err != nil {
			fb.Release()
			return nil, fmt.Errorf("framebuffer %q: %w", spec.Label, err)
		}
		fb.colors = append(fb.colors, tex)
	}
	if depth := spec.DepthFormat(); depth != gpu.FormatNone {
		tex, err := d.newTexture(gpu.TextureDescriptor{
			Label:     spec.Label + ".depth",
			Width:     spec.Width,
			Height:    spec.Height,
			Format:    depth,
			MipLevels: 1,
		})
		if err != nil {
			fb.Release()
			return nil, fmt.Errorf("framebuffer %q: %w", spec.Label, err)
		}
		fb.depth = tex
	}
	return fb, nil
}

func (d *wgpuDevice) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("texture %q: zero size", desc.Label)
	}
	return d.newTexture(desc)
}

func (d *wgpuDevice) newTexture(desc gpu.TextureDescriptor) (*wgpuTexture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	desc.MipLevels = max(desc.MipLevels, 1)
	format := textureFormat(desc.Format)
	if format == wgpu.TextureFormatUndefined {
		return nil, fmt.Errorf("texture %q: unsupported format %s", desc.Label, desc.Format)
	}
	layers, dimension := uint32(1), wgpu.TextureViewDimension2D
	if desc.Cube {
		layers, dimension = 6, wgpu.TextureViewDimensionCube
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: desc.MipLevels,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         textureUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", desc.Label, err)
	}
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          format,
		Dimension:       dimension,
		BaseMipLevel:    0,
		MipLevelCount:   desc.MipLevels,
		BaseArrayLayer:  0,
		ArrayLayerCount: layers,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("texture %q view: %w", desc.Label, err)
	}
	return &wgpuTexture{desc: desc, format: format, dimension: dimension, texture: tex, view: view}, nil
}

func (d *wgpuDevice) CreateVertexArray(desc gpu.VertexArrayDescriptor) (gpu.VertexArray, error) {
	if desc.Layout.Stride == 0 {
		return nil, fmt.Errorf("vertex array %q: empty layout", desc.Label)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	size := uint64(len(desc.Vertices))
	if desc.Dynamic {
		size = max(size, uint64(desc.VertexCapacity))
	}
	vb, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label + " Vertex Buffer",
		Size:  align4(max(size, 4)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("vertex array %q: %w", desc.Label, err)
	}
	va := &wgpuVertexArray{
		label:    desc.Label,
		layout:   desc.Layout,
		vertex:   vb,
		queue:    d.queue,
		capacity: align4(max(size, 4)),
	}
	if len(desc.Vertices) > 0 {
		d.queue.WriteBuffer(vb, 0, padded(desc.Vertices))
		va.vertexCount = uint32(len(desc.Vertices)) / desc.Layout.Stride
	}

	if len(desc.Indices) > 0 {
		ib, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: desc.Label + " Index Buffer",
			Size:  uint64(len(desc.Indices)) * 4,
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			vb.Release()
			return nil, fmt.Errorf("vertex array %q indices: %w", desc.Label, err)
		}
		d.queue.WriteBuffer(ib, 0, wgpu.ToBytes(desc.Indices))
		va.index = ib
		va.indexCount = uint32(len(desc.Indices))
	}

	if desc.Dynamic {
		return &wgpuDynamicVertexArray{wgpuVertexArray: va}, nil
	}
	return va, nil
}

func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}

// padded extends data to a multiple of four bytes, the queue write granularity.
func padded(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, align4(uint64(len(data))))
	copy(out, data)
	return out
}

// wgpuTexture is a texture with its default sampling view.
type wgpuTexture struct {
	desc      gpu.TextureDescriptor
	format    wgpu.TextureFormat
	dimension wgpu.TextureViewDimension
	texture   *wgpu.Texture
	view      *wgpu.TextureView
}

func (t *wgpuTexture) Label() string                     { return t.desc.Label }
func (t *wgpuTexture) Descriptor() gpu.TextureDescriptor { return t.desc }

func (t *wgpuTexture) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// wgpuFramebuffer owns one texture per attachment.
type wgpuFramebuffer struct {
	spec   gpu.FramebufferSpecification
	colors []*wgpuTexture
	depth  *wgpuTexture
}

func (f *wgpuFramebuffer) Label() string                               { return f.spec.Label }
func (f *wgpuFramebuffer) Specification() gpu.FramebufferSpecification { return f.spec }
func (f *wgpuFramebuffer) Width() uint32                               { return f.spec.Width }
func (f *wgpuFramebuffer) Height() uint32                              { return f.spec.Height }
func (f *wgpuFramebuffer) ColorAttachmentCount() int                   { return len(f.colors) }

func (f *wgpuFramebuffer) ColorAttachment(index int) gpu.Texture {
	if index < 0 || index >= len(f.colors) {
		return nil
	}
	return f.colors[index]
}

func (f *wgpuFramebuffer) DepthAttachment() gpu.Texture {
	if f.depth == nil {
		return nil
	}
	return f.depth
}

// target returns the attachment signature of the framebuffer.
func (f *wgpuFramebuffer) target() renderTarget {
	t := renderTarget{depth: wgpu.TextureFormatUndefined}
	for _, c := range f.colors {
		t.colors = append(t.colors, c.format)
	}
	if f.depth != nil {
		t.depth = f.depth.format
	}
	return t
}

// owns reports whether tex is one of the framebuffer's attachments.
func (f *wgpuFramebuffer) owns(tex *wgpuTexture) bool {
	if tex == nil {
		return false
	}
	if tex == f.depth {
		return true
	}
	for _, c := range f.colors {
		if c == tex {
			return true
		}
	}
	return false
}

func (f *wgpuFramebuffer) Release() {
	for _, c := range f.colors {
		c.Release()
	}
	f.colors = nil
	if f.depth != nil {
		f.depth.Release()
		f.depth = nil
	}
}

// wgpuVertexArray is a vertex buffer with an optional 32-bit index buffer.
type wgpuVertexArray struct {
	label       string
	layout      gpu.VertexLayout
	vertex      *wgpu.Buffer
	index       *wgpu.Buffer
	queue       *wgpu.Queue
	vertexCount uint32
	indexCount  uint32
	capacity    uint64
}

func (v *wgpuVertexArray) Label() string            { return v.label }
func (v *wgpuVertexArray) Layout() gpu.VertexLayout { return v.layout }
func (v *wgpuVertexArray) VertexCount() uint32      { return v.vertexCount }
func (v *wgpuVertexArray) IndexCount() uint32       { return v.indexCount }

func (v *wgpuVertexArray) Release() {
	if v.vertex != nil {
		v.vertex.Release()
		v.vertex = nil
	}
	if v.index != nil {
		v.index.Release()
		v.index = nil
	}
}

type wgpuDynamicVertexArray struct {
	*wgpuVertexArray
}

func (v *wgpuDynamicVertexArray) Write(vertices []byte) error {
	if uint64(len(vertices)) > v.capacity {
		return fmt.Errorf("vertex array %q: %d bytes exceed capacity %d", v.label, len(vertices), v.capacity)
	}
	if len(vertices) > 0 {
		v.queue.WriteBuffer(v.vertex, 0, padded(vertices))
	}
	v.vertexCount = uint32(len(vertices)) / v.layout.Stride
	return nil
}

// unwrapVertexArray returns the wgpu buffers behind a gpu.VertexArray, or nil for arrays created
// by another device.
func unwrapVertexArray(va gpu.VertexArray) *wgpuVertexArray {
	switch v := va.(type) {
	case *wgpuVertexArray:
		return v
	case *wgpuDynamicVertexArray:
		return v.wgpuVertexArray
	}
	return nil
}

func unwrapTexture(tex gpu.Texture) *wgpuTexture {
	t, _ := tex.(*wgpuTexture)
	return t
}

func unwrapFramebuffer(fb gpu.Framebuffer) *wgpuFramebuffer {
	f, _ := fb.(*wgpuFramebuffer)
	return f
}
