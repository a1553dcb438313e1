package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindGroupLayout sets the layout object bind groups are created against.
//
// Parameters:
//   - bgl: the bind group layout
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
	}
}

// WithEntries sets the layout entries the group must satisfy.
//
// Parameters:
//   - entries: the layout entries, in any order
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithEntries(entries []wgpu.BindGroupLayoutEntry) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.entries = append([]wgpu.BindGroupLayoutEntry(nil), entries...)
	}
}

// WithBuffer binds a buffer range at construction.
func WithBuffer(binding int, buf *wgpu.Buffer, size uint64) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = bufferBinding{buffer: buf, size: size}
	}
}

// WithReleaser replaces the function that frees superseded bind groups.
func WithReleaser(release func(*wgpu.BindGroup)) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		if release != nil {
			p.release = release
		}
	}
}
