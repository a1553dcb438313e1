package graph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/google/uuid"
)

// ResourceType is the kind of GPU object a handle stands for.
type ResourceType int

const (
	ResourceTexture2D ResourceType = iota
	ResourceTextureCube
	ResourceBuffer
	ResourceFramebuffer
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTexture2D:
		return "Texture2D"
	case ResourceTextureCube:
		return "TextureCube"
	case ResourceBuffer:
		return "Buffer"
	case ResourceFramebuffer:
		return "Framebuffer"
	default:
		return fmt.Sprintf("ResourceType(%d)", int(t))
	}
}

// Default descriptor values used by CreateResource.
const (
	DefaultResourceWidth  uint32 = 1920
	DefaultResourceHeight uint32 = 1080
)

// ResourceDesc describes a logical render resource. Sizes are informational: the
// backing object is owned and sized by the pass renderer that writes it.
type ResourceDesc struct {
	Name      string
	Type      ResourceType
	Width     uint32
	Height    uint32
	Format    gpu.TextureFormat
	Transient bool
}

// ResourceHandle is an opaque per-frame identifier for a logical resource.
// The zero value is the invalid sentinel.
type ResourceHandle struct {
	id uuid.UUID
}

// InvalidHandle is the sentinel returned for resources a frame does not use.
var InvalidHandle = ResourceHandle{}

func newHandle() ResourceHandle {
	return ResourceHandle{id: uuid.New()}
}

// IsValid reports whether h refers to a declared resource.
func (h ResourceHandle) IsValid() bool {
	return h.id != uuid.Nil
}

func (h ResourceHandle) String() string {
	if !h.IsValid() {
		return "invalid"
	}
	return h.id.String()[:8]
}

// registry tracks the resources declared during one frame.
type registry struct {
	descs   map[ResourceHandle]ResourceDesc
	imports map[ResourceHandle]gpu.Framebuffer
}

func newRegistry() *registry {
	return &registry{
		descs:   make(map[ResourceHandle]ResourceDesc),
		imports: make(map[ResourceHandle]gpu.Framebuffer),
	}
}

func (r *registry) declare(desc ResourceDesc) ResourceHandle {
	h := newHandle()
	r.descs[h] = desc
	return h
}

func (r *registry) importFramebuffer(name string, fb gpu.Framebuffer) ResourceHandle {
	desc := ResourceDesc{Name: name, Type: ResourceFramebuffer}
	if fb != nil {
		desc.Width, desc.Height = fb.Width(), fb.Height()
	}
	h := r.declare(desc)
	r.imports[h] = fb
	return h
}

func (r *registry) reset() {
	clear(r.descs)
	clear(r.imports)
}
