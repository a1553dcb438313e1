package material

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-graph/common"
)

// GPUMaterialSource is the WGSL Material struct matching Marshal, with the kind constants.
//
//go:embed assets/material.wgsl
var GPUMaterialSource string

// GPUMaterialBlockSize is the byte size of the material uniform block.
const GPUMaterialBlockSize = 64

// Marshal serializes the material into its uniform block.
// Layout (WGSL aligned, 64 bytes):
//
//	offset  0: base color        vec4<f32>
//	offset 16: specular.rgb, shininess
//	offset 32: emissive.rgb, ao
//	offset 48: metallic, roughness, kind (u32), pad
//
// A nil material marshals as the default white Phong block.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (m *Material) Marshal() []byte {
	if m == nil {
		m = NewMaterial()
	}
	base := m.BaseColor()
	w := common.NewUniformWriter(GPUMaterialBlockSize)
	w.Float32(base[:]...).
		Vec4(m.Specular, m.Shininess).
		Vec4(m.Emissive, m.AO).
		Float32(m.Metallic, m.Roughness).
		Uint32(uint32(m.Kind)).
		Zero(4)
	return w.Bytes()
}
