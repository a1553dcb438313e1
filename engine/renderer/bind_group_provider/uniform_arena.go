package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// UniformAlignment is the dynamic offset alignment every allocation honours.
const UniformAlignment = 256

// UniformArena packs the per-draw uniform blocks of one frame into a single staging slice. Each
// allocation is addressed through a dynamic offset, so one bind group per pipeline group serves
// every draw. The staging bytes reach the GPU in one write per frame.
type UniformArena struct {
	buffer   *wgpu.Buffer
	staging  []byte
	used     uint64
	overflow bool
}

// NewUniformArena creates an arena with the given capacity in bytes, rounded up to the alignment.
//
// Parameters:
//   - capacity: the staging and buffer size
//
// Returns:
//   - *UniformArena: the arena, without a GPU buffer until SetBuffer
func NewUniformArena(capacity uint64) *UniformArena {
	return &UniformArena{staging: make([]byte, align(max(capacity, UniformAlignment)))}
}

func align(n uint64) uint64 {
	return (n + UniformAlignment - 1) &^ (UniformAlignment - 1)
}

// SetBuffer attaches the GPU buffer the staging bytes are written to.
func (a *UniformArena) SetBuffer(buf *wgpu.Buffer) {
	a.buffer = buf
}

// Buffer returns the attached GPU buffer.
func (a *UniformArena) Buffer() *wgpu.Buffer {
	return a.buffer
}

// Capacity returns the arena size in bytes.
func (a *UniformArena) Capacity() uint64 {
	return uint64(len(a.staging))
}

// Used returns the bytes allocated this frame, including alignment padding.
func (a *UniformArena) Used() uint64 {
	return a.used
}

// Overflowed reports whether an allocation was refused since the last Reset.
func (a *UniformArena) Overflowed() bool {
	return a.overflow
}

// Allocate copies data into the next aligned slot. The slot spans at least reserve bytes so a
// binding with a larger minimum size still reads inside the arena.
//
// Parameters:
//   - data: the uniform block bytes
//   - reserve: the minimum slot size
//
// Returns:
//   - uint32: the slot's byte offset, for use as a dynamic offset
//   - bool: false when the arena is full; the data is dropped
func (a *UniformArena) Allocate(data []byte, reserve uint64) (uint32, bool) {
	size := max(uint64(len(data)), reserve)
	offset := a.used
	if offset+size > uint64(len(a.staging)) {
		a.overflow = true
		return 0, false
	}
	copy(a.staging[offset:], data)
	clear(a.staging[offset+uint64(len(data)) : offset+size])
	a.used = align(offset + size)
	return uint32(offset), true
}

// Reset discards every allocation. An arena that overflowed doubles its capacity and drops its buffer;
// the caller must then attach a new one.
//
// Returns:
//   - bool: true when the capacity changed
func (a *UniformArena) Reset() bool {
	grew := false
	if a.overflow {
		a.staging = make([]byte, len(a.staging)*2)
		a.buffer = nil
		grew = true
	}
	a.used = 0
	a.overflow = false
	return grew
}

// Flush returns the write uploading this frame's allocations, or false when nothing was allocated
// or no buffer is attached.
func (a *UniformArena) Flush() (BufferWrite, bool) {
	if a.used == 0 || a.buffer == nil {
		return BufferWrite{}, false
	}
	n := min(a.used, uint64(len(a.staging)))
	return BufferWrite{Buffer: a.buffer, Offset: 0, Data: a.staging[:n]}, true
}
