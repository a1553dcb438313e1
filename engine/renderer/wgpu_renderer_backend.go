package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// FrameStats counts the backend work recorded in one frame.
type FrameStats struct {
	RenderPasses   int
	Draws          int
	SkippedDraws   int
	Copies         int
	UniformBytes   uint64
	ArenaCapacity  uint64
	PipelineCount  int
	VariantsCached int
}

// uniformSlot is the latest block uploaded to a group and, once a draw used it, its place in the
// frame's uniform arena.
type uniformSlot struct {
	data     []byte
	offset   uint32
	reserved uint64
	placed   bool
}

type fallbackKey struct {
	dimension  wgpu.TextureViewDimension
	sampleType wgpu.TextureSampleType
}

// wgpuBackend replays command buffers onto a WebGPU device. Binding state is ambient as the
// command model requires; render passes open lazily on the first draw or Clear and close when
// the target changes or the frame ends.
type wgpuBackend struct {
	mu     *sync.Mutex
	logger log.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue
	objects  *wgpuDevice

	surfaceFormat wgpu.TextureFormat
	surfaceWidth  uint32
	surfaceHeight uint32
	surfaceDepth  *wgpuTexture
	presentMode   wgpu.PresentMode

	arena     *bind_group_provider.UniformArena
	samplers  map[wgpu.SamplerBindingType]*wgpu.Sampler
	fallbacks map[fallbackKey]*wgpuTexture
	realised  []*realisedPipeline

	// Frame state, valid between BeginFrame and EndFrame.
	encoder      *wgpu.CommandEncoder
	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
	pass         *wgpu.RenderPassEncoder
	passPipeline *wgpu.RenderPipeline

	target      *wgpuFramebuffer
	bound       *realisedPipeline
	viewport    viewport
	clearColor  [4]float32
	clearValues map[int][4]float32
	uniforms    map[uint32]uniformSlot
	textures    map[uint32]map[uint32]*wgpuTexture

	stats  FrameStats
	warned map[string]bool
}

var (
	_ command.Backend           = &wgpuBackend{}
	_ command.UniformBackend    = &wgpuBackend{}
	_ command.TextureBackend    = &wgpuBackend{}
	_ command.ClearValueBackend = &wgpuBackend{}
	_ command.BlitBackend       = &wgpuBackend{}
	_ command.CopyBackend       = &wgpuBackend{}
)

// newWGPUBackend creates the instance, surface, adapter and device. The calling goroutine is
// locked to its OS thread for the lifetime of the backend.
func newWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, arenaSize uint64, logger log.Logger) (*wgpuBackend, error) {
	runtime.LockOSThread()
	b := &wgpuBackend{
		mu:          &sync.Mutex{},
		logger:      logger,
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		arena:       bind_group_provider.NewUniformArena(arenaSize),
		samplers:    make(map[wgpu.SamplerBindingType]*wgpu.Sampler),
		fallbacks:   make(map[fallbackKey]*wgpuTexture),
		clearValues: make(map[int][4]float32),
		uniforms:    make(map[uint32]uniformSlot),
		textures:    make(map[uint32]map[uint32]*wgpuTexture),
		warned:      make(map[string]bool),
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()
	b.objects = &wgpuDevice{mu: &sync.Mutex{}, device: d, queue: b.queue}
	return b, nil
}

// warnOnce logs a warning the first time key is seen.
func (b *wgpuBackend) warnOnce(key string, format string, args ...any) {
	if b.warned[key] {
		return
	}
	b.warned[key] = true
	b.logger.Warningf(format, args...)
}

// ConfigureSurface (re)configures the swapchain and its depth buffer for a new size.
func (b *wgpuBackend) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return nil
	}
	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("surface reports no formats")
	}
	b.surfaceFormat = capabilities.Formats[0]
	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
	}
	if len(capabilities.AlphaModes) > 0 {
		config.AlphaMode = capabilities.AlphaModes[0]
	}
	b.surface.Configure(b.adapter, b.device, config)
	b.surfaceWidth, b.surfaceHeight = uint32(width), uint32(height)

	if b.surfaceDepth != nil {
		b.surfaceDepth.Release()
	}
	depth, err := b.objects.newTexture(gpu.TextureDescriptor{
		Label:  "Surface Depth",
		Width:  uint32(width),
		Height: uint32(height),
		Format: gpu.FormatDepth32F,
	})
	if err != nil {
		return err
	}
	b.surfaceDepth = depth
	return nil
}

func (b *wgpuBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = wgpuPresentMode(mode)
}

// BeginFrame acquires the next swapchain image and starts recording.
func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder != nil {
		return errors.New("frame already begun")
	}
	previous := b.arena.Buffer()
	if b.arena.Reset() && previous != nil {
		previous.Release()
		b.logger.Noticef("uniform arena grown to %d bytes", b.arena.Capacity())
	}
	if b.arena.Buffer() == nil {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Uniform Arena",
			Size:  b.arena.Capacity(),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("uniform arena: %w", err)
		}
		b.arena.SetBuffer(buf)
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("surface view: %w", err)
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("command encoder: %w", err)
	}
	b.frameTexture, b.frameView, b.encoder = surfaceTexture, view, encoder

	b.target = nil
	b.bound = nil
	b.viewport = viewport{}
	clear(b.clearValues)
	clear(b.uniforms)
	clear(b.textures)
	b.stats = FrameStats{ArenaCapacity: b.arena.Capacity()}
	return nil
}

// EndFrame closes the open pass, uploads the frame's uniforms, submits and presents.
func (b *wgpuBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder == nil {
		return errors.New("no frame begun")
	}
	b.endPass()
	defer b.releaseFrame()

	if w, ok := b.arena.Flush(); ok {
		b.queue.WriteBuffer(w.Buffer, w.Offset, w.Data)
	}
	b.stats.UniformBytes = b.arena.Used()
	b.stats.PipelineCount = len(b.realised)
	for _, rp := range b.realised {
		b.stats.VariantsCached += len(rp.variants)
	}

	commandBuffer, err := b.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish frame: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.surface.Present()
	return nil
}

func (b *wgpuBackend) releaseFrame() {
	if b.encoder != nil {
		b.encoder.Release()
		b.encoder = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameTexture != nil {
		b.frameTexture.Release()
		b.frameTexture = nil
	}
}

// Stats returns the counters of the last completed or current frame.
func (b *wgpuBackend) Stats() FrameStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func (b *wgpuBackend) recording(op string) bool {
	if b.encoder == nil {
		b.warnOnce("outside:"+op, "%s outside a frame ignored", op)
		return false
	}
	return true
}

func (b *wgpuBackend) endPass() {
	if b.pass != nil {
		b.pass.End()
		b.pass = nil
		b.passPipeline = nil
	}
}

// targetSize returns the size of the bound target.
func (b *wgpuBackend) targetSize() (uint32, uint32) {
	if b.target != nil {
		return b.target.Width(), b.target.Height()
	}
	return b.surfaceWidth, b.surfaceHeight
}

// currentTarget returns the attachment signature of the bound target.
func (b *wgpuBackend) currentTarget() renderTarget {
	if b.target != nil {
		return b.target.target()
	}
	return renderTarget{colors: []wgpu.TextureFormat{b.surfaceFormat}, depth: surfaceDepthFormat}
}

// beginPass opens a render pass on the bound target, clearing or loading every attachment.
func (b *wgpuBackend) beginPass(clearAttachments bool) {
	var colors []*wgpu.TextureView
	var depth *wgpu.TextureView
	if b.target != nil {
		for _, c := range b.target.colors {
			colors = append(colors, c.view)
		}
		if b.target.depth != nil {
			depth = b.target.depth.view
		}
	} else {
		colors = []*wgpu.TextureView{b.frameView}
		if b.surfaceDepth != nil {
			depth = b.surfaceDepth.view
		}
	}
	b.pass = b.encoder.BeginRenderPass(passDescriptor(colors, depth, clearAttachments, b.clearColor, b.clearValues))
	b.passPipeline = nil
	b.stats.RenderPasses++

	w, h := b.targetSize()
	vp := clampViewport(b.viewport, w, h)
	b.pass.SetViewport(float32(vp.x), float32(vp.y), float32(vp.width), float32(vp.height), 0, 1)
}

// passDescriptor builds a render pass over the given views. When clearing, attachment i uses its
// override from clearValues or clearColor, and depth clears to 1.
func passDescriptor(colors []*wgpu.TextureView, depth *wgpu.TextureView, clearAttachments bool, clearColor [4]float32, clearValues map[int][4]float32) *wgpu.RenderPassDescriptor {
	load := wgpu.LoadOpLoad
	if clearAttachments {
		load = wgpu.LoadOpClear
	}
	desc := &wgpu.RenderPassDescriptor{}
	for i, view := range colors {
		c := clearColor
		if v, ok := clearValues[i]; ok {
			c = v
		}
		desc.ColorAttachments = append(desc.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:       view,
			LoadOp:     load,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])},
		})
	}
	if depth != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     load,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}
	return desc
}

func (b *wgpuBackend) SetViewport(x, y, width, height uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.viewport = viewport{x, y, width, height}
	if b.pass != nil {
		w, h := b.targetSize()
		vp := clampViewport(b.viewport, w, h)
		b.pass.SetViewport(float32(vp.x), float32(vp.y), float32(vp.width), float32(vp.height), 0, 1)
	}
}

func (b *wgpuBackend) SetClearColor(color [4]float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = color
}

func (b *wgpuBackend) SetAttachmentClearValue(attachment int, value [4]float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearValues[attachment] = value
}

// Clear restarts the pass on the bound target with every attachment cleared. Per-attachment
// clear values apply to this Clear only.
func (b *wgpuBackend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.recording("Clear") {
		return
	}
	b.endPass()
	b.beginPass(true)
	clear(b.clearValues)
}

// SetBlendEnabled is pipeline state on WebGPU; the bound pipeline's blend setting applies.
func (b *wgpuBackend) SetBlendEnabled(bool) {}

// SetLineWidth has no WebGPU equivalent; lines are one pixel wide.
func (b *wgpuBackend) SetLineWidth(float32) {}

func (b *wgpuBackend) BindPipeline(p gpu.Pipeline) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bound = nil
	desc, ok := p.(pipeline.Pipeline)
	if !ok || desc == nil {
		return
	}
	rp, ok := desc.Handle().(*realisedPipeline)
	if !ok {
		b.warnOnce("unrealised:"+desc.PipelineKey(), "pipeline %s is not realised; its draws are skipped", desc.PipelineKey())
		return
	}
	b.bound = rp
}

// BindFramebuffer retargets subsequent passes. The viewport is reset to cover the new target.
func (b *wgpuBackend) BindFramebuffer(fb gpu.Framebuffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endPass()
	b.viewport = viewport{}
	b.target = unwrapFramebuffer(fb)
	if b.target == nil && fb != nil {
		b.warnOnce("foreign:"+fb.Label(), "framebuffer %s was not created by this device; drawing to the surface", fb.Label())
	}
}

func (b *wgpuBackend) UnbindFramebuffer() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endPass()
	b.viewport = viewport{}
	b.target = nil
}

// SetUniforms stores a copy of data as the group's block. It is placed in the uniform arena by
// the next draw that uses the group.
func (b *wgpuBackend) SetUniforms(group uint32, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uniforms[group] = uniformSlot{data: append([]byte(nil), data...)}
}

func (b *wgpuBackend) BindTexture(group, binding uint32, tex gpu.Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := unwrapTexture(tex)
	if t == nil {
		return
	}
	if b.textures[group] == nil {
		b.textures[group] = make(map[uint32]*wgpuTexture)
	}
	b.textures[group][binding] = t
}

func (b *wgpuBackend) DrawIndexed(va gpu.VertexArray, indexCount, indexOffset uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := unwrapVertexArray(va)
	if v == nil || v.index == nil || indexCount == 0 || !b.prepareDraw() {
		b.stats.SkippedDraws++
		return
	}
	b.pass.SetVertexBuffer(0, v.vertex, 0, wgpu.WholeSize)
	b.pass.SetIndexBuffer(v.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.pass.DrawIndexed(indexCount, 1, indexOffset, 0, 0)
	b.stats.Draws++
}

func (b *wgpuBackend) DrawIndexedInstanced(va gpu.VertexArray, indexCount, instanceCount uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := unwrapVertexArray(va)
	if v == nil || v.index == nil || indexCount == 0 || instanceCount == 0 || !b.prepareDraw() {
		b.stats.SkippedDraws++
		return
	}
	b.pass.SetVertexBuffer(0, v.vertex, 0, wgpu.WholeSize)
	b.pass.SetIndexBuffer(v.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
	b.stats.Draws++
}

func (b *wgpuBackend) DrawLines(va gpu.VertexArray, vertexCount uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := unwrapVertexArray(va)
	if v == nil || vertexCount == 0 || !b.prepareDraw() {
		b.stats.SkippedDraws++
		return
	}
	b.pass.SetVertexBuffer(0, v.vertex, 0, wgpu.WholeSize)
	b.pass.Draw(vertexCount, 1, 0, 0)
	b.stats.Draws++
}

// prepareDraw opens a pass if needed, sets the bound pipeline's variant for the current target
// and binds every group. It returns false when the draw must be skipped.
func (b *wgpuBackend) prepareDraw() bool {
	if !b.recording("draw") || b.bound == nil {
		return false
	}
	if b.pass == nil {
		b.beginPass(false)
	}
	rp := b.bound
	v, err := b.variant(rp, b.currentTarget())
	if err != nil {
		b.warnOnce("variant:"+rp.desc.PipelineKey(), "%v", err)
		return false
	}
	if v != b.passPipeline {
		b.pass.SetPipeline(v)
		b.passPipeline = v
	}

	for g, provider := range rp.groups {
		var offsets []uint32
		if size := uniformBindingSize(provider.Entries()); size > 0 {
			offset, ok := b.placeUniforms(uint32(g), size)
			if !ok {
				return false
			}
			for _, e := range provider.Entries() {
				if e.Buffer.Type == wgpu.BufferBindingTypeUniform {
					provider.SetBuffer(int(e.Binding), b.arena.Buffer(), e.Buffer.MinBindingSize)
				}
			}
			offsets = provider.DynamicOffsets(offset)
		}
		b.bindGroupTextures(uint32(g), provider)

		bg, err := provider.BindGroup(b.device)
		if err != nil {
			b.warnOnce(fmt.Sprintf("group:%s:%d", rp.desc.PipelineKey(), g), "%v", err)
			return false
		}
		b.pass.SetBindGroup(uint32(g), bg, offsets)
	}
	return true
}

// placeUniforms returns the arena offset of the group's block, placing it on first use. A group
// without an uploaded block reads zeros.
func (b *wgpuBackend) placeUniforms(group uint32, size uint64) (uint32, bool) {
	slot := b.uniforms[group]
	if slot.placed && slot.reserved >= size {
		return slot.offset, true
	}
	if slot.data == nil {
		b.warnOnce(fmt.Sprintf("nouniform:%d", group), "group %d drawn without uniforms; using zeros", group)
	}
	offset, ok := b.arena.Allocate(slot.data, size)
	if !ok {
		b.warnOnce("arena", "uniform arena of %d bytes is full; draws dropped until next frame", b.arena.Capacity())
		return 0, false
	}
	slot.offset, slot.reserved, slot.placed = offset, max(size, uint64(len(slot.data))), true
	b.uniforms[group] = slot
	return offset, true
}

// bindGroupTextures points every texture and sampler entry of the group at a resource. Textures
// that are missing, of the wrong kind, or attached to the current target are replaced by a
// 1×1 fallback.
func (b *wgpuBackend) bindGroupTextures(group uint32, provider bind_group_provider.BindGroupProvider) {
	for _, e := range provider.Entries() {
		switch {
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			if s := b.sampler(e.Sampler.Type); s != nil {
				provider.SetSampler(int(e.Binding), s)
			}
		case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			dim := e.Texture.ViewDimension
			if dim == wgpu.TextureViewDimensionUndefined {
				dim = wgpu.TextureViewDimension2D
			}
			tex := b.textures[group][e.Binding]
			if !usableTexture(tex, dim, e.Texture.SampleType) || (b.target != nil && b.target.owns(tex)) {
				tex = b.fallback(dim, e.Texture.SampleType)
			}
			if tex != nil {
				provider.SetTextureView(int(e.Binding), tex.view)
			}
		}
	}
}

func usableTexture(tex *wgpuTexture, dim wgpu.TextureViewDimension, st wgpu.TextureSampleType) bool {
	return tex != nil && tex.view != nil && tex.dimension == dim && sampleTypeCompatible(tex.format, st)
}

// sampler returns the shared sampler for a binding type.
func (b *wgpuBackend) sampler(t wgpu.SamplerBindingType) *wgpu.Sampler {
	if s, ok := b.samplers[t]; ok {
		return s
	}
	desc := &wgpu.SamplerDescriptor{
		Label:         "Linear Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
	switch t {
	case wgpu.SamplerBindingTypeNonFiltering:
		desc.Label = "Nearest Sampler"
		desc.MagFilter, desc.MinFilter, desc.MipmapFilter = wgpu.FilterModeNearest, wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest
	case wgpu.SamplerBindingTypeComparison:
		desc.Label = "Shadow Comparison Sampler"
		desc.MipmapFilter = wgpu.MipmapFilterModeNearest
		desc.Compare = wgpu.CompareFunctionLess
	}
	s, err := b.device.CreateSampler(desc)
	if err != nil {
		b.warnOnce("sampler", "create sampler: %v", err)
		return nil
	}
	b.samplers[t] = s
	return s
}

// fallback returns the 1×1 texture bound in place of a missing one.
func (b *wgpuBackend) fallback(dim wgpu.TextureViewDimension, st wgpu.TextureSampleType) *wgpuTexture {
	key := fallbackKey{dimension: dim, sampleType: st}
	if t, ok := b.fallbacks[key]; ok {
		return t
	}
	format := gpu.FormatRGBA8
	switch st {
	case wgpu.TextureSampleTypeDepth:
		format = gpu.FormatDepth32F
	case wgpu.TextureSampleTypeSint:
		format = gpu.FormatR32I
	case wgpu.TextureSampleTypeUint:
		return nil
	}
	t, err := b.objects.newTexture(gpu.TextureDescriptor{
		Label:  fmt.Sprintf("Fallback %d/%d", dim, st),
		Width:  1,
		Height: 1,
		Format: format,
		Cube:   dim == wgpu.TextureViewDimensionCube,
	})
	if err != nil {
		b.warnOnce("fallback", "create fallback texture: %v", err)
		return nil
	}
	if format == gpu.FormatRGBA8 {
		// Color fallbacks read as opaque white so untextured sprites keep their tint.
		layers := uint32(1)
		if t.desc.Cube {
			layers = 6
		}
		white := make([]byte, 4*layers)
		for i := range white {
			white[i] = 0xff
		}
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{Texture: t.texture, Aspect: wgpu.TextureAspectAll},
			white,
			&wgpu.TextureDataLayout{BytesPerRow: 4, RowsPerImage: 1},
			&wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: layers},
		)
	}
	b.fallbacks[key] = t
	return t
}

// BlitDepth copies the depth of src into dst, or into the surface depth when dst is nil. Sizes
// must match; mismatched copies are skipped.
func (b *wgpuBackend) BlitDepth(src, dst gpu.Framebuffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.recording("BlitDepth") {
		return
	}
	s := unwrapFramebuffer(src)
	if s == nil || s.depth == nil {
		return
	}
	to := b.surfaceDepth
	if dst != nil {
		d := unwrapFramebuffer(dst)
		if d == nil {
			return
		}
		to = d.depth
	}
	if to == nil || to.desc.Width != s.depth.desc.Width || to.desc.Height != s.depth.desc.Height {
		b.warnOnce("blit:"+s.Label(), "depth blit from %s skipped: size mismatch", s.Label())
		return
	}
	b.endPass()
	b.copyTexture(s.depth, to, 0, 0)
}

// CopyToTexture copies the first color attachment of src into one layer and mip of dst. The
// source must match the mip's size and format.
func (b *wgpuBackend) CopyToTexture(src gpu.Framebuffer, dst gpu.Texture, layer, mip uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.recording("CopyToTexture") {
		return
	}
	s, d := unwrapFramebuffer(src), unwrapTexture(dst)
	if s == nil || d == nil || len(s.colors) == 0 {
		return
	}
	color := s.colors[0]
	w, h := mipExtent(d.desc.Width, d.desc.Height, mip)
	if mip >= d.desc.MipLevels || color.desc.Width != w || color.desc.Height != h || color.format != d.format {
		b.warnOnce(fmt.Sprintf("copy:%s:%d", d.Label(), mip), "copy %s -> %s mip %d skipped: incompatible size or format", s.Label(), d.Label(), mip)
		return
	}
	b.endPass()
	b.copyTexture(color, d, layer, mip)
}

func (b *wgpuBackend) copyTexture(src, dst *wgpuTexture, layer, mip uint32) {
	b.encoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{
			Texture:  src.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyTexture{
			Texture:  dst.texture,
			MipLevel: mip,
			Origin:   wgpu.Origin3D{Z: layer},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.Extent3D{
			Width:              src.desc.Width,
			Height:             src.desc.Height,
			DepthOrArrayLayers: 1,
		},
	)
	b.stats.Copies++
}

// Release frees every object the backend created.
func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endPass()
	b.releaseFrame()
	for _, rp := range b.realised {
		rp.release()
		rp.desc.SetHandle(nil)
	}
	b.realised = nil
	for _, s := range b.samplers {
		s.Release()
	}
	clear(b.samplers)
	for _, t := range b.fallbacks {
		t.Release()
	}
	clear(b.fallbacks)
	if buf := b.arena.Buffer(); buf != nil {
		buf.Release()
		b.arena.SetBuffer(nil)
	}
	if b.surfaceDepth != nil {
		b.surfaceDepth.Release()
		b.surfaceDepth = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
