// Package gpu declares the backend-agnostic GPU objects the render core consumes:
// textures, framebuffers, vertex arrays and the Device that creates them.
// Concrete objects are produced by a backend (wgpu) or by the headless virtual device.
package gpu

// TextureFormat identifies the pixel format of a texture or framebuffer attachment.
type TextureFormat int

const (
	FormatNone TextureFormat = iota
	FormatRGBA8
	FormatRGBA16F
	// FormatRGB16F is promoted to a four-channel format by backends without three-channel targets.
	FormatRGB16F
	FormatRG16F
	// FormatR32I is the integer object-id format, cleared to -1 for "no object".
	FormatR32I
	FormatDepth24Stencil8
	FormatDepth32F
)

var formatNames = map[TextureFormat]string{
	FormatNone:            "None",
	FormatRGBA8:           "RGBA8",
	FormatRGBA16F:         "RGBA16F",
	FormatRGB16F:          "RGB16F",
	FormatRG16F:           "RG16F",
	FormatR32I:            "R32I",
	FormatDepth24Stencil8: "DEPTH24STENCIL8",
	FormatDepth32F:        "DEPTH32F",
}

// String returns the conventional name of the format.
func (f TextureFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "Unknown"
}

// IsDepth reports whether the format is a depth (or depth-stencil) format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth24Stencil8 || f == FormatDepth32F
}

// IsInteger reports whether the format stores integer texels.
func (f TextureFormat) IsInteger() bool {
	return f == FormatR32I
}

// VertexFormat identifies the type of a single vertex attribute.
type VertexFormat int

const (
	VertexFloat32 VertexFormat = iota
	VertexFloat32x2
	VertexFloat32x3
	VertexFloat32x4
	VertexUint32x4
)

// Size returns the byte size of the attribute.
func (f VertexFormat) Size() uint32 {
	switch f {
	case VertexFloat32:
		return 4
	case VertexFloat32x2:
		return 8
	case VertexFloat32x3:
		return 12
	default:
		return 16
	}
}
