package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gbufferSpec(w, h uint32) FramebufferSpecification {
	return FramebufferSpecification{
		Label:       "gbuffer",
		Width:       w,
		Height:      h,
		Attachments: []TextureFormat{FormatRGBA8, FormatRGB16F, FormatR32I, FormatDepth24Stencil8},
	}
}

func TestEnsureFramebufferZeroSizeIsNoop(t *testing.T) {
	dev := NewVirtualDevice()

	fb, created, err := EnsureFramebuffer(dev, nil, gbufferSpec(0, 720))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, fb)
	assert.Equal(t, 0, dev.FramebuffersCreated())
}

func TestEnsureFramebufferReusesMatchingSize(t *testing.T) {
	dev := NewVirtualDevice()

	first, created, err := EnsureFramebuffer(dev, nil, gbufferSpec(1280, 720))
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := EnsureFramebuffer(dev, first, gbufferSpec(1280, 720))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, again)

	resized, created, err := EnsureFramebuffer(dev, first, gbufferSpec(640, 360))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotSame(t, first, resized)
	assert.Equal(t, 2, dev.FramebuffersCreated())
	assert.Equal(t, 1, dev.FramebuffersReleased())
}

func TestEnsureFramebufferKeepsCurrentOnFailure(t *testing.T) {
	dev := NewVirtualDevice()
	first, _, err := EnsureFramebuffer(dev, nil, gbufferSpec(64, 64))
	require.NoError(t, err)

	dev.FailFramebuffers(true)
	got, created, err := EnsureFramebuffer(dev, first, gbufferSpec(128, 128))
	assert.Error(t, err)
	assert.False(t, created)
	assert.Same(t, first, got)
}

func TestVirtualFramebufferAttachments(t *testing.T) {
	dev := NewVirtualDevice()
	fb, err := dev.CreateFramebuffer(gbufferSpec(32, 16))
	require.NoError(t, err)

	assert.Equal(t, 3, fb.ColorAttachmentCount())
	require.NotNil(t, fb.DepthAttachment())
	assert.Equal(t, FormatDepth24Stencil8, fb.DepthAttachment().Descriptor().Format)
	assert.Equal(t, FormatR32I, fb.ColorAttachment(2).Descriptor().Format)
	assert.Nil(t, fb.ColorAttachment(3))
}

func TestDynamicVertexArrayCapacity(t *testing.T) {
	dev := NewVirtualDevice()
	layout := NewVertexLayout(VertexFloat32x3, VertexFloat32x4)
	assert.Equal(t, uint32(28), layout.Stride)

	va, err := dev.CreateVertexArray(VertexArrayDescriptor{Label: "lines", Layout: layout, Dynamic: true, VertexCapacity: 56})
	require.NoError(t, err)
	dyn, ok := va.(DynamicVertexArray)
	require.True(t, ok)

	require.NoError(t, dyn.Write(make([]byte, 56)))
	assert.Equal(t, uint32(2), dyn.VertexCount())
	assert.Error(t, dyn.Write(make([]byte, 84)))
}
