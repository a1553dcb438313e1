package gpu

import (
	"fmt"
	"sync"
)

// VirtualDevice is a headless Device whose objects carry only their descriptions.
// It backs the plan command and every test that needs GPU objects without a GPU.
type VirtualDevice struct {
	mu *sync.Mutex

	framebuffersCreated  int
	framebuffersReleased int
	texturesCreated      int
	vertexArraysCreated  int
	failFramebuffers     bool
}

var _ Device = &VirtualDevice{}

// NewVirtualDevice creates an empty headless device.
func NewVirtualDevice() *VirtualDevice {
	return &VirtualDevice{mu: &sync.Mutex{}}
}

// FailFramebuffers makes subsequent CreateFramebuffer calls fail, to exercise degraded paths.
func (d *VirtualDevice) FailFramebuffers(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failFramebuffers = fail
}

// FramebuffersCreated returns how many framebuffers were created so far.
func (d *VirtualDevice) FramebuffersCreated() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.framebuffersCreated
}

// FramebuffersReleased returns how many framebuffers were released so far.
func (d *VirtualDevice) FramebuffersReleased() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.framebuffersReleased
}

// TexturesCreated returns how many standalone textures were created so far.
func (d *VirtualDevice) TexturesCreated() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.texturesCreated
}

// VertexArraysCreated returns how many vertex arrays were created so far.
func (d *VirtualDevice) VertexArraysCreated() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vertexArraysCreated
}

func (d *VirtualDevice) CreateFramebuffer(spec FramebufferSpecification) (Framebuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failFramebuffers {
		return nil, fmt.Errorf("virtual device: framebuffer %q: creation disabled", spec.Label)
	}
	if spec.Width == 0 || spec.Height == 0 {
		return nil, fmt.Errorf("virtual device: framebuffer %q: zero size %dx%d", spec.Label, spec.Width, spec.Height)
	}
	d.framebuffersCreated++

	fb := &virtualFramebuffer{device: d, spec: spec}
	for i, f := range spec.ColorFormats() {
		fb.colors = append(fb.colors, &virtualTexture{desc: TextureDescriptor{
			Label:     fmt.Sprintf("%s.color%d", spec.Label, i),
			Width:     spec.Width,
			Height:    spec.Height,
			Format:    f,
			MipLevels: 1,
		}})
	}
	if depth := spec.DepthFormat(); depth != FormatNone {
		fb.depth = &virtualTexture{desc: TextureDescriptor{
			Label:     spec.Label + ".depth",
			Width:     spec.Width,
			Height:    spec.Height,
			Format:    depth,
			MipLevels: 1,
		}}
	}
	return fb, nil
}

func (d *VirtualDevice) CreateTexture(desc TextureDescriptor) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("virtual device: texture %q: zero size", desc.Label)
	}
	if desc.MipLevels == 0 {
		desc.MipLevels = 1
	}
	d.texturesCreated++
	return &virtualTexture{desc: desc}, nil
}

func (d *VirtualDevice) CreateVertexArray(desc VertexArrayDescriptor) (VertexArray, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if desc.Layout.Stride == 0 {
		return nil, fmt.Errorf("virtual device: vertex array %q: empty layout", desc.Label)
	}
	d.vertexArraysCreated++

	va := &virtualVertexArray{
		label:      desc.Label,
		layout:     desc.Layout,
		indexCount: uint32(len(desc.Indices)),
		capacity:   desc.VertexCapacity,
	}
	if !desc.Dynamic {
		va.vertexCount = uint32(len(desc.Vertices)) / desc.Layout.Stride
		return va, nil
	}
	return &virtualDynamicVertexArray{virtualVertexArray: va}, nil
}

type virtualTexture struct {
	desc TextureDescriptor
}

func (t *virtualTexture) Label() string                 { return t.desc.Label }
func (t *virtualTexture) Descriptor() TextureDescriptor { return t.desc }
func (t *virtualTexture) Release()                      {}

type virtualFramebuffer struct {
	device *VirtualDevice
	spec   FramebufferSpecification
	colors []*virtualTexture
	depth  *virtualTexture
}

func (f *virtualFramebuffer) Label() string                           { return f.spec.Label }
func (f *virtualFramebuffer) Specification() FramebufferSpecification { return f.spec }
func (f *virtualFramebuffer) Width() uint32                           { return f.spec.Width }
func (f *virtualFramebuffer) Height() uint32                          { return f.spec.Height }
func (f *virtualFramebuffer) ColorAttachmentCount() int               { return len(f.colors) }

func (f *virtualFramebuffer) ColorAttachment(index int) Texture {
	if index < 0 || index >= len(f.colors) {
		return nil
	}
	return f.colors[index]
}

func (f *virtualFramebuffer) DepthAttachment() Texture {
	if f.depth == nil {
		return nil
	}
	return f.depth
}

func (f *virtualFramebuffer) Release() {
	f.device.mu.Lock()
	defer f.device.mu.Unlock()
	f.device.framebuffersReleased++
}

type virtualVertexArray struct {
	label       string
	layout      VertexLayout
	vertexCount uint32
	indexCount  uint32
	capacity    uint32
}

func (v *virtualVertexArray) Label() string        { return v.label }
func (v *virtualVertexArray) Layout() VertexLayout { return v.layout }
func (v *virtualVertexArray) VertexCount() uint32  { return v.vertexCount }
func (v *virtualVertexArray) IndexCount() uint32   { return v.indexCount }
func (v *virtualVertexArray) Release()             {}

type virtualDynamicVertexArray struct {
	*virtualVertexArray
}

func (v *virtualDynamicVertexArray) Write(vertices []byte) error {
	if uint32(len(vertices)) > v.capacity {
		return fmt.Errorf("virtual device: vertex array %q: %d bytes exceeds capacity %d", v.label, len(vertices), v.capacity)
	}
	v.vertexCount = uint32(len(vertices)) / v.layout.Stride
	return nil
}
