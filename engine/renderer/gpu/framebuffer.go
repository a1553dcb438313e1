package gpu

// FramebufferSpecification describes the size and attachment list of a framebuffer.
// Attachments are listed in binding order; depth formats are split off as the depth attachment.
type FramebufferSpecification struct {
	Label       string
	Width       uint32
	Height      uint32
	Attachments []TextureFormat
	Samples     uint32
}

// ColorFormats returns the non-depth attachment formats in order.
func (s FramebufferSpecification) ColorFormats() []TextureFormat {
	out := make([]TextureFormat, 0, len(s.Attachments))
	for _, f := range s.Attachments {
		if !f.IsDepth() {
			out = append(out, f)
		}
	}
	return out
}

// DepthFormat returns the depth attachment format, or FormatNone.
func (s FramebufferSpecification) DepthFormat() TextureFormat {
	for _, f := range s.Attachments {
		if f.IsDepth() {
			return f
		}
	}
	return FormatNone
}

// Framebuffer is a set of render targets sharing one size.
type Framebuffer interface {
	// Label returns the debug label of the framebuffer.
	Label() string

	// Specification returns the specification the framebuffer was created from.
	//
	// Returns:
	//   - FramebufferSpecification: the creation specification
	Specification() FramebufferSpecification

	// Width returns the framebuffer width in pixels.
	Width() uint32

	// Height returns the framebuffer height in pixels.
	Height() uint32

	// ColorAttachment returns the color attachment at index, or nil when out of range.
	//
	// Parameters:
	//   - index: color attachment index in specification order (depth excluded)
	//
	// Returns:
	//   - Texture: the attachment texture or nil
	ColorAttachment(index int) Texture

	// ColorAttachmentCount returns the number of color attachments.
	ColorAttachmentCount() int

	// DepthAttachment returns the depth attachment, or nil when the framebuffer has none.
	DepthAttachment() Texture

	// Release frees every attachment.
	Release()
}

// EnsureFramebuffer returns a framebuffer matching spec, reusing current when its size already matches.
// A zero-sized specification is a no-op that keeps current as is. A size mismatch releases current
// and creates a replacement; this must only happen before any pass of the frame is recorded.
//
// Parameters:
//   - device: the device used to create a replacement
//   - current: the framebuffer currently held by the caller, may be nil
//   - spec: the wanted specification
//
// Returns:
//   - Framebuffer: the framebuffer to use from now on
//   - bool: true when a new framebuffer was created
//   - error: creation failure, in which case current is returned unchanged
func EnsureFramebuffer(device Device, current Framebuffer, spec FramebufferSpecification) (Framebuffer, bool, error) {
	if spec.Width == 0 || spec.Height == 0 {
		return current, false, nil
	}
	if current != nil && current.Width() == spec.Width && current.Height() == spec.Height {
		return current, false, nil
	}

	fb, err := device.CreateFramebuffer(spec)
	if err != nil {
		return current, false, err
	}
	if current != nil {
		current.Release()
	}
	return fb, true, nil
}
