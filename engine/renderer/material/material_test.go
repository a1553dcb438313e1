package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterial_Transparency(t *testing.T) {
	tests := []struct {
		name     string
		material *Material
		want     bool
	}{
		{"nil is opaque", nil, false},
		{"default phong", NewMaterial(), false},
		{"translucent phong", NewMaterial(WithPhong([4]float32{1, 0, 0, 0.5}, [3]float32{}, 8)), true},
		{"pbr ignores alpha", NewMaterial(WithPBR([3]float32{1, 1, 1}, 0, 0.5), func(m *Material) { m.Alpha = 0.2 }), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.material.IsTransparent())
		})
	}
}

func TestMaterial_Marshal(t *testing.T) {
	m := NewMaterial(WithPBR([3]float32{0.2, 0.4, 0.6}, 1, 0.25), WithAO(0.5))
	buf := m.Marshal()
	require.Len(t, buf, GPUMaterialBlockSize)

	f32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	assert.Equal(t, float32(0.2), f32(0))
	assert.Equal(t, float32(1), f32(12))
	assert.Equal(t, float32(0.5), f32(44))
	assert.Equal(t, float32(1), f32(48))
	assert.Equal(t, float32(0.25), f32(52))
	assert.Equal(t, uint32(KindPBR), binary.LittleEndian.Uint32(buf[56:]))

	assert.Len(t, (*Material)(nil).Marshal(), GPUMaterialBlockSize)
}
