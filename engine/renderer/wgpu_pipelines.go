package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// realisedPipeline is the backend handle attached to a pipeline.Pipeline. Render pipeline
// objects depend on the bound target's formats, so they are compiled lazily per target signature.
type realisedPipeline struct {
	desc   pipeline.Pipeline
	shader shader.Shader
	module *wgpu.ShaderModule
	layout *wgpu.PipelineLayout

	// groupLayouts is indexed by group; unused groups hold an empty layout.
	groupLayouts []*wgpu.BindGroupLayout
	groupEntries [][]wgpu.BindGroupLayoutEntry

	// groups caches one bind group per group index.
	groups []bind_group_provider.BindGroupProvider

	variants map[string]*wgpu.RenderPipeline
}

// realisePipeline parses the pipeline's source and creates its module and layouts.
//
// Parameters:
//   - p: the pipeline description
//   - options: shader options, e.g. the struct pre-processor
//
// Returns:
//   - *realisedPipeline: the handle, without compiled variants
//   - error: a parse failure or a device error
func (b *wgpuBackend) realisePipeline(p pipeline.Pipeline, options ...shader.ShaderBuilderOption) (*realisedPipeline, error) {
	s, err := shader.NewShader(p.PipelineKey(), shader.StageVertexFragment, p.VertexSource(), options...)
	if err != nil {
		return nil, err
	}
	if fs := p.FragmentSource(); fs != "" && fs != p.VertexSource() {
		return nil, fmt.Errorf("pipeline %s: vertex and fragment entry points must share one source", p.PipelineKey())
	}

	module, err := b.device.CreateShaderModule(s.Module())
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: shader module: %w", p.PipelineKey(), err)
	}

	layouts := dynamicGroupLayouts(s.BindGroupLayoutDescriptors())
	count := s.GroupCount()
	rp := &realisedPipeline{
		desc:         p,
		shader:       s,
		module:       module,
		groupLayouts: make([]*wgpu.BindGroupLayout, count),
		groupEntries: make([][]wgpu.BindGroupLayoutEntry, count),
		groups:       make([]bind_group_provider.BindGroupProvider, count),
		variants:     make(map[string]*wgpu.RenderPipeline),
	}
	for g := range count {
		desc := layouts[g]
		desc.Label = fmt.Sprintf("%s group %d", p.PipelineKey(), g)
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			rp.release()
			return nil, fmt.Errorf("pipeline %s: bind group layout %d: %w", p.PipelineKey(), g, err)
		}
		rp.groupLayouts[g] = layout
		rp.groupEntries[g] = desc.Entries
		rp.groups[g] = bind_group_provider.NewBindGroupProvider(desc.Label,
			bind_group_provider.WithBindGroupLayout(layout),
			bind_group_provider.WithEntries(desc.Entries),
		)
	}

	rp.layout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: rp.groupLayouts,
	})
	if err != nil {
		rp.release()
		return nil, fmt.Errorf("pipeline %s: layout: %w", p.PipelineKey(), err)
	}
	return rp, nil
}

// variant returns the render pipeline compiled for target, compiling it on first use.
func (b *wgpuBackend) variant(rp *realisedPipeline, target renderTarget) (*wgpu.RenderPipeline, error) {
	key := target.key()
	if v, ok := rp.variants[key]; ok {
		return v, nil
	}
	v, err := b.device.CreateRenderPipeline(renderPipelineDescriptor(rp.desc, rp.module, rp.layout, target))
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: variant %s: %w", rp.desc.PipelineKey(), key, err)
	}
	rp.variants[key] = v
	b.logger.Debugf("compiled pipeline %s for target %s", rp.desc.PipelineKey(), key)
	return v, nil
}

func (rp *realisedPipeline) release() {
	for _, v := range rp.variants {
		v.Release()
	}
	rp.variants = nil
	for _, g := range rp.groups {
		if g != nil {
			g.Release()
		}
	}
	if rp.layout != nil {
		rp.layout.Release()
		rp.layout = nil
	}
	for _, l := range rp.groupLayouts {
		if l != nil {
			l.Release()
		}
	}
	rp.groupLayouts = nil
	if rp.module != nil {
		rp.module.Release()
		rp.module = nil
	}
}

// RealisePipelines creates the backend objects of every pipeline in lib that has a source and
// no handle yet. Pipelines without a source stay unrealised and their draws are skipped.
//
// Parameters:
//   - lib: the pipeline registry
//   - options: shader options applied when parsing each source
//
// Returns:
//   - int: the number of pipelines realised by this call
//   - error: the first failure; pipelines realised before it keep their handles
func (b *wgpuBackend) RealisePipelines(lib pipeline.Library, options ...shader.ShaderBuilderOption) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, p := range lib.All() {
		if p.Handle() != nil {
			continue
		}
		if p.VertexSource() == "" {
			b.logger.Debugf("pipeline %s has no source; left unrealised", p.PipelineKey())
			continue
		}
		rp, err := b.realisePipeline(p, options...)
		if err != nil {
			return n, err
		}
		p.SetHandle(rp)
		b.realised = append(b.realised, rp)
		n++
	}
	return n, nil
}
