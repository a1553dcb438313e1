package gpu

// TextureDescriptor describes a sampled texture created through a Device.
type TextureDescriptor struct {
	Label     string
	Width     uint32
	Height    uint32
	Format    TextureFormat
	Cube      bool
	MipLevels uint32
}

// Texture is a GPU texture owned by a backend.
type Texture interface {
	// Label returns the debug label of the texture.
	Label() string

	// Descriptor returns the description the texture was created from.
	//
	// Returns:
	//   - TextureDescriptor: the creation descriptor
	Descriptor() TextureDescriptor

	// Release frees the backend object. Using the texture afterwards is undefined.
	Release()
}
