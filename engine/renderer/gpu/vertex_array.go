package gpu

// VertexAttribute describes one attribute inside an interleaved vertex.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint32
	ShaderLocation uint32
}

// VertexLayout describes the interleaved layout of a vertex buffer.
type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

// NewVertexLayout packs the given formats tightly, assigning shader locations in order.
//
// Parameters:
//   - formats: attribute formats in declaration order
//
// Returns:
//   - VertexLayout: the packed layout
func NewVertexLayout(formats ...VertexFormat) VertexLayout {
	var layout VertexLayout
	for i, f := range formats {
		layout.Attributes = append(layout.Attributes, VertexAttribute{
			Format:         f,
			Offset:         layout.Stride,
			ShaderLocation: uint32(i),
		})
		layout.Stride += f.Size()
	}
	return layout
}

// VertexArrayDescriptor describes a vertex array created through a Device.
// When Dynamic is set, VertexCapacity bytes are reserved and the contents are written later
// through DynamicVertexArray.Write.
type VertexArrayDescriptor struct {
	Label          string
	Layout         VertexLayout
	Vertices       []byte
	Indices        []uint32
	Dynamic        bool
	VertexCapacity uint32
}

// VertexArray is a vertex buffer with an optional index buffer.
type VertexArray interface {
	// Label returns the debug label.
	Label() string

	// Layout returns the vertex layout.
	Layout() VertexLayout

	// VertexCount returns the number of vertices currently stored.
	VertexCount() uint32

	// IndexCount returns the number of indices, zero for non-indexed arrays.
	IndexCount() uint32

	// Release frees the backend buffers.
	Release()
}

// DynamicVertexArray is a VertexArray whose vertex contents are rewritten every frame.
type DynamicVertexArray interface {
	VertexArray

	// Write replaces the vertex contents.
	//
	// Parameters:
	//   - vertices: raw interleaved vertex bytes, at most the reserved capacity
	//
	// Returns:
	//   - error: when the data exceeds the reserved capacity
	Write(vertices []byte) error
}
