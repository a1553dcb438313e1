package gpu

// Pipeline is the backend-neutral view of a pipeline, identified by its key.
type Pipeline interface {
	PipelineKey() string
}

// Device creates backend GPU objects. Every pass renderer receives it at construction
// and creates its framebuffers, textures and vertex arrays through it.
type Device interface {
	// CreateFramebuffer allocates a framebuffer.
	//
	// Parameters:
	//   - spec: size and attachment formats
	//
	// Returns:
	//   - Framebuffer: the new framebuffer
	//   - error: allocation failure
	CreateFramebuffer(spec FramebufferSpecification) (Framebuffer, error)

	// CreateTexture allocates a sampled texture without initial contents.
	//
	// Parameters:
	//   - desc: the texture description
	//
	// Returns:
	//   - Texture: the new texture
	//   - error: allocation failure
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// CreateVertexArray uploads (or reserves) vertex and index data.
	//
	// Parameters:
	//   - desc: the vertex array description
	//
	// Returns:
	//   - VertexArray: the new array; a DynamicVertexArray when desc.Dynamic is set
	//   - error: allocation failure
	CreateVertexArray(desc VertexArrayDescriptor) (VertexArray, error)
}
