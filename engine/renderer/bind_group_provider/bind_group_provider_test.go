package bind_group_provider

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFactory struct {
	created []*wgpu.BindGroupDescriptor
	err     error
}

func (f *fakeFactory) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, desc)
	return &wgpu.BindGroup{}, nil
}

func textureEntries() []wgpu.BindGroupLayoutEntry {
	return []wgpu.BindGroupLayoutEntry{
		{Binding: 32, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}},
		{Binding: 0, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D}},
	}
}

func newTestProvider(entries []wgpu.BindGroupLayoutEntry, released *int) BindGroupProvider {
	return NewBindGroupProvider("test", WithEntries(entries), WithReleaser(func(*wgpu.BindGroup) { *released++ }))
}

func TestProviderSortsEntries(t *testing.T) {
	var released int
	p := newTestProvider(textureEntries(), &released)
	assert.Equal(t, uint32(0), p.Entries()[0].Binding)
	assert.Equal(t, uint32(32), p.Entries()[1].Binding)
}

func TestProviderRebuildsOnlyWhenDirty(t *testing.T) {
	var released int
	p := newTestProvider(textureEntries(), &released)
	f := &fakeFactory{}
	view := &wgpu.TextureView{}
	p.SetTextureView(0, view)
	p.SetSampler(32, &wgpu.Sampler{})

	first, err := p.BindGroup(f)
	require.NoError(t, err)
	require.Len(t, f.created, 1)
	assert.Equal(t, "test", f.created[0].Label)
	assert.Len(t, f.created[0].Entries, 2)

	p.SetTextureView(0, view)
	again, err := p.BindGroup(f)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, p.Rebuilds())

	p.SetTextureView(0, &wgpu.TextureView{})
	assert.True(t, p.Dirty())
	_, err = p.BindGroup(f)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Rebuilds())
	assert.Equal(t, 1, released)

	p.Release()
	assert.Equal(t, 2, released)
	assert.True(t, p.Dirty())
}

func TestProviderMissingResource(t *testing.T) {
	var released int
	p := newTestProvider(textureEntries(), &released)
	p.SetTextureView(0, &wgpu.TextureView{})

	_, err := p.BindGroup(&fakeFactory{})
	assert.ErrorContains(t, err, "no sampler at binding 32")

	p.SetSampler(32, &wgpu.Sampler{})
	_, err = p.BindGroup(&fakeFactory{err: errors.New("device lost")})
	assert.ErrorContains(t, err, "device lost")
}

func TestProviderDynamicOffsets(t *testing.T) {
	var released int
	p := newTestProvider([]wgpu.BindGroupLayoutEntry{
		{Binding: 0, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, HasDynamicOffset: true}},
	}, &released)
	assert.Equal(t, []uint32{512}, p.DynamicOffsets(512))

	f := &fakeFactory{}
	p.SetBuffer(0, &wgpu.Buffer{}, 144)
	_, err := p.BindGroup(f)
	require.NoError(t, err)
	assert.Equal(t, uint64(144), f.created[0].Entries[0].Size)

	plain := newTestProvider(textureEntries(), &released)
	assert.Nil(t, plain.DynamicOffsets(512))
}
