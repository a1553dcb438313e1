package common

import (
	"encoding/binary"
	"math"
)

// UniformWriter appends little-endian values into a byte buffer laid out for a WGSL uniform block.
// Callers are responsible for padding vec3 members to 16 bytes.
type UniformWriter struct {
	buf []byte
}

// NewUniformWriter creates a writer with the given capacity hint in bytes.
func NewUniformWriter(capacity int) *UniformWriter {
	return &UniformWriter{buf: make([]byte, 0, capacity)}
}

// Float32 appends one or more f32 values.
func (w *UniformWriter) Float32(values ...float32) *UniformWriter {
	for _, v := range values {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
	}
	return w
}

// Uint32 appends one or more u32 values.
func (w *UniformWriter) Uint32(values ...uint32) *UniformWriter {
	for _, v := range values {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	}
	return w
}

// Int32 appends one or more i32 values.
func (w *UniformWriter) Int32(values ...int32) *UniformWriter {
	for _, v := range values {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
	}
	return w
}

// Bool appends a boolean as a u32 (0 or 1).
func (w *UniformWriter) Bool(v bool) *UniformWriter {
	if v {
		return w.Uint32(1)
	}
	return w.Uint32(0)
}

// Vec4 appends xyz followed by w.
func (w *UniformWriter) Vec4(v Vec3, fourth float32) *UniformWriter {
	return w.Float32(v[0], v[1], v[2], fourth)
}

// Mat4 appends a column-major 4x4 matrix.
func (w *UniformWriter) Mat4(m Mat4) *UniformWriter {
	return w.Float32(m[:]...)
}

// Zero appends n zero bytes.
func (w *UniformWriter) Zero(n int) *UniformWriter {
	w.buf = append(w.buf, make([]byte, n)...)
	return w
}

// Align pads the buffer with zeros up to a multiple of n bytes.
func (w *UniformWriter) Align(n int) *UniformWriter {
	if rem := len(w.buf) % n; rem != 0 {
		w.Zero(n - rem)
	}
	return w
}

// Len returns the number of bytes written.
func (w *UniformWriter) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes.
func (w *UniformWriter) Bytes() []byte {
	return w.buf
}
