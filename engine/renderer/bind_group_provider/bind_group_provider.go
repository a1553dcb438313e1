package bind_group_provider

import (
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupFactory creates bind groups. *wgpu.Device satisfies it.
type BindGroupFactory interface {
	CreateBindGroup(descriptor *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error)
}

// bufferBinding is a buffer bound at a fixed offset and size.
type bufferBinding struct {
	buffer *wgpu.Buffer
	size   uint64
}

type bindGroupProvider struct {
	label string

	// bindGroup is the cached group, rebuilt when a binding changes.
	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout

	// entries is the layout the group is built against, sorted by binding.
	entries []wgpu.BindGroupLayoutEntry

	buffers      map[int]bufferBinding
	textureViews map[int]*wgpu.TextureView
	samplers     map[int]*wgpu.Sampler

	dirty   bool
	rebuilt int

	release func(*wgpu.BindGroup)
}

// BindGroupProvider caches the bind group of one group of one pipeline. Resources are set per
// binding; the group is rebuilt only when a binding changed since the last BindGroup call.
// Buffers are not owned: Release frees the bind group only.
type BindGroupProvider interface {
	// Release frees the cached bind group.
	Release()

	// Label returns the debug label.
	Label() string

	// BindGroupLayout returns the layout object the group is created against.
	BindGroupLayout() *wgpu.BindGroupLayout

	// Entries returns the layout entries, sorted by binding.
	Entries() []wgpu.BindGroupLayoutEntry

	// SetBuffer binds size bytes of buf at the given binding. With a dynamic offset entry the
	// offset is supplied per draw through DynamicOffsets.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer
	//   - size: the bound range in bytes
	SetBuffer(binding int, buf *wgpu.Buffer, size uint64)

	// SetTextureView binds a texture view at the given binding.
	SetTextureView(binding int, tv *wgpu.TextureView)

	// TextureView returns the view currently bound at binding, or nil.
	TextureView(binding int) *wgpu.TextureView

	// SetSampler binds a sampler at the given binding.
	SetSampler(binding int, s *wgpu.Sampler)

	// Dirty reports whether a binding changed since the group was last built.
	Dirty() bool

	// Rebuilds returns how many times the group was built.
	Rebuilds() int

	// BindGroup returns the cached group, building it first when dirty.
	//
	// Parameters:
	//   - factory: the device used to create the group
	//
	// Returns:
	//   - *wgpu.BindGroup: the group
	//   - error: a layout entry without a resource, or a creation failure
	BindGroup(factory BindGroupFactory) (*wgpu.BindGroup, error)

	// DynamicOffsets returns offset once for every dynamic-offset entry, in binding order.
	//
	// Parameters:
	//   - offset: the byte offset of this draw's block
	//
	// Returns:
	//   - []uint32: the offsets for SetBindGroup, nil when the layout has no dynamic entries
	DynamicOffsets(offset uint32) []uint32
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a provider for one bind group.
//
// Parameters:
//   - label: debug label, used for the created bind groups
//   - options: variadic list of BindGroupProviderOption functions
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]bufferBinding),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
		dirty:        true,
		release:      (*wgpu.BindGroup).Release,
	}
	for _, opt := range options {
		opt(p)
	}
	slices.SortFunc(p.entries, func(a, b wgpu.BindGroupLayoutEntry) int { return int(a.Binding) - int(b.Binding) })
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Entries() []wgpu.BindGroupLayoutEntry {
	return p.entries
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer, size uint64) {
	next := bufferBinding{buffer: buf, size: size}
	if p.buffers[binding] != next {
		p.buffers[binding] = next
		p.dirty = true
	}
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	if p.textureViews[binding] != tv {
		p.textureViews[binding] = tv
		p.dirty = true
	}
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	if p.samplers[binding] != s {
		p.samplers[binding] = s
		p.dirty = true
	}
}

func (p *bindGroupProvider) Dirty() bool {
	return p.dirty || p.bindGroup == nil
}

func (p *bindGroupProvider) Rebuilds() int {
	return p.rebuilt
}

func (p *bindGroupProvider) BindGroup(factory BindGroupFactory) (*wgpu.BindGroup, error) {
	if !p.Dirty() {
		return p.bindGroup, nil
	}
	desc, err := p.descriptor()
	if err != nil {
		return nil, err
	}
	bg, err := factory.CreateBindGroup(desc)
	if err != nil {
		return nil, fmt.Errorf("bind group %s: %w", p.label, err)
	}
	if p.bindGroup != nil {
		p.release(p.bindGroup)
	}
	p.bindGroup = bg
	p.dirty = false
	p.rebuilt++
	return bg, nil
}

// descriptor builds the bind group descriptor from the current bindings.
func (p *bindGroupProvider) descriptor() (*wgpu.BindGroupDescriptor, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(p.entries))
	for _, e := range p.entries {
		binding := int(e.Binding)
		switch {
		case e.Buffer.Type != wgpu.BufferBindingTypeUndefined:
			b, ok := p.buffers[binding]
			if !ok || b.buffer == nil {
				return nil, fmt.Errorf("bind group %s: no buffer at binding %d", p.label, binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Buffer: b.buffer, Offset: 0, Size: b.size})
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			s := p.samplers[binding]
			if s == nil {
				return nil, fmt.Errorf("bind group %s: no sampler at binding %d", p.label, binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Sampler: s})
		default:
			tv := p.textureViews[binding]
			if tv == nil {
				return nil, fmt.Errorf("bind group %s: no texture at binding %d", p.label, binding)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, TextureView: tv})
		}
	}
	return &wgpu.BindGroupDescriptor{
		Label:   p.label,
		Layout:  p.bindGroupLayout,
		Entries: entries,
	}, nil
}

func (p *bindGroupProvider) DynamicOffsets(offset uint32) []uint32 {
	var out []uint32
	for _, e := range p.entries {
		if e.Buffer.HasDynamicOffset {
			out = append(out, offset)
		}
	}
	return out
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.release(p.bindGroup)
		p.bindGroup = nil
	}
	p.dirty = true
}
