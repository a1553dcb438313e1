package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformArenaAlignsAllocations(t *testing.T) {
	a := NewUniformArena(1000)
	assert.Equal(t, uint64(1024), a.Capacity())

	off, ok := a.Allocate(make([]byte, 144), 0)
	require.True(t, ok)
	assert.Equal(t, uint32(0), off)

	off, ok = a.Allocate([]byte{1, 2, 3}, 300)
	require.True(t, ok)
	assert.Equal(t, uint32(256), off)
	assert.Equal(t, uint64(768), a.Used())
}

func TestUniformArenaOverflowGrows(t *testing.T) {
	a := NewUniformArena(512)
	_, ok := a.Allocate(make([]byte, 256), 0)
	require.True(t, ok)
	_, ok = a.Allocate(make([]byte, 256), 0)
	require.True(t, ok)
	_, ok = a.Allocate(make([]byte, 16), 0)
	assert.False(t, ok)
	assert.True(t, a.Overflowed())

	a.SetBuffer(&wgpu.Buffer{})
	assert.True(t, a.Reset())
	assert.Equal(t, uint64(1024), a.Capacity())
	assert.Nil(t, a.Buffer())
	assert.Zero(t, a.Used())
	assert.False(t, a.Reset())
}

func TestUniformArenaFlush(t *testing.T) {
	a := NewUniformArena(1024)
	_, ok := a.Flush()
	assert.False(t, ok)

	a.Allocate([]byte{7}, 0)
	_, ok = a.Flush()
	assert.False(t, ok, "no buffer attached")

	buf := &wgpu.Buffer{}
	a.SetBuffer(buf)
	w, ok := a.Flush()
	require.True(t, ok)
	assert.Same(t, buf, w.Buffer)
	assert.Len(t, w.Data, 256)
	assert.Equal(t, byte(7), w.Data[0])
}
