package common

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniformWriterLayout(t *testing.T) {
	w := NewUniformWriter(64)
	w.Vec4(Vec3{1, 2, 3}, 4).Int32(-1).Bool(true).Align(16)

	b := w.Bytes()
	assert.Equal(t, 32, w.Len())
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])))
	assert.Equal(t, uint32(0xFFFFFFFF), binary.LittleEndian.Uint32(b[16:20]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(b[20:24]))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, b[24:32])

	w.Mat4(Identity4())
	assert.Equal(t, 96, w.Len())
}
