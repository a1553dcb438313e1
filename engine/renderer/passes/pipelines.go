package passes

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/model"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/pipeline"
)

// Pipeline keys the pass renderers look up in the library.
const (
	KeyShadow = "shadow"

	KeyGBufferPhong   = "gbuffer.phong"
	KeyGBufferPBR     = "gbuffer.pbr"
	KeyGBufferSkinned = "gbuffer.pbr_skinned"

	KeyForwardPhong              = "forward.phong"
	KeyForwardPBR                = "forward.pbr"
	KeyForwardSkinned            = "forward.pbr_skinned"
	KeyForwardPhongTransparent   = "forward.phong.transparent"
	KeyForwardPBRTransparent     = "forward.pbr.transparent"
	KeyForwardSkinnedTransparent = "forward.pbr_skinned.transparent"

	KeyDeferredLighting = "deferred.lighting"
	KeySSGI             = "ssgi"
	KeyGTAO             = "gtao"

	KeySkybox        = "environment.skybox"
	KeyIrradiance    = "environment.irradiance"
	KeyPrefilter     = "environment.prefilter"
	KeyBRDFLUT       = "environment.brdf_lut"
	KeyProceduralSky = "environment.procedural_sky"
	KeyOutline       = "outline.gbuffer"
	KeyOutlineLines  = "outline.lines"
	KeyDepthView     = "post.depth_view"
	KeyGBufferDebug  = "post.gbuffer_debug"
	KeyInfiniteGrid  = "grid.infinite"
	KeyBatchQuad     = "batch2d.quad"
	KeyBatchCircle   = "batch2d.circle"
	KeyBatchLine     = "batch2d.line"
)

// SwapchainDepthFormat is the depth format of the swapchain and every target framebuffer the
// forward, skybox and grid pipelines draw into.
const SwapchainDepthFormat = gpu.FormatDepth24Stencil8

// ShaderSet maps pipeline keys to WGSL modules exposing vs_main and fs_main.
type ShaderSet map[string]string

// StandardPipelines describes the full pipeline set with the state each pass expects. Keys
// without an entry in shaders get an empty source; backends skip realising those.
//
// Parameters:
//   - shaders: WGSL sources by pipeline key
//
// Returns:
//   - []pipeline.Pipeline: one description per key
func StandardPipelines(shaders ShaderSet) []pipeline.Pipeline {
	src := func(key string) pipeline.PipelineBuilderOption {
		return pipeline.WithShaderSource(shaders[key], shaders[key])
	}
	mesh := model.VertexLayout()
	skinned := model.SkinnedVertexLayout()
	quad := QuadVertexLayout()
	gbuffer := GBufferSpecification("gbuffer", 1, 1)

	screen := func(key string, opts ...pipeline.PipelineBuilderOption) pipeline.Pipeline {
		base := []pipeline.PipelineBuilderOption{
			src(key),
			pipeline.WithVertexLayout(quad),
			pipeline.WithTargets(SwapchainDepthFormat),
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithCullMode(pipeline.CullNone),
		}
		return pipeline.NewPipeline(key, append(base, opts...)...)
	}
	forward := func(key string, layout gpu.VertexLayout, transparent bool) pipeline.Pipeline {
		return pipeline.NewPipeline(key,
			src(key),
			pipeline.WithVertexLayout(layout),
			pipeline.WithTargets(SwapchainDepthFormat),
			pipeline.WithDepthCompare(pipeline.CompareLess),
			pipeline.WithDepthWriteEnabled(!transparent),
			pipeline.WithBlendEnabled(transparent),
			pipeline.WithCullMode(pipeline.CullBack),
		)
	}
	geometry := func(key string, layout gpu.VertexLayout) pipeline.Pipeline {
		return pipeline.NewPipeline(key,
			src(key),
			pipeline.WithVertexLayout(layout),
			pipeline.WithTargetsFromSpec(gbuffer),
			pipeline.WithDepthCompare(pipeline.CompareLess),
			pipeline.WithCullMode(pipeline.CullBack),
		)
	}

	return []pipeline.Pipeline{
		pipeline.NewPipeline(KeyShadow,
			src(KeyShadow),
			pipeline.WithVertexLayout(mesh),
			pipeline.WithTargets(gpu.FormatDepth32F),
			pipeline.WithDepthCompare(pipeline.CompareLess),
			pipeline.WithDepthBias(2, 2),
			pipeline.WithCullMode(pipeline.CullBack),
		),

		geometry(KeyGBufferPhong, mesh),
		geometry(KeyGBufferPBR, mesh),
		geometry(KeyGBufferSkinned, skinned),

		forward(KeyForwardPhong, mesh, false),
		forward(KeyForwardPBR, mesh, false),
		forward(KeyForwardSkinned, skinned, false),
		forward(KeyForwardPhongTransparent, mesh, true),
		forward(KeyForwardPBRTransparent, mesh, true),
		forward(KeyForwardSkinnedTransparent, skinned, true),

		screen(KeyDeferredLighting),
		screen(KeySSGI, pipeline.WithTargets(gpu.FormatNone, gpu.FormatRGB16F)),
		screen(KeyGTAO, pipeline.WithTargets(gpu.FormatNone, gpu.FormatRG16F)),
		screen(KeyOutline, pipeline.WithBlendEnabled(true)),
		screen(KeyDepthView),
		screen(KeyGBufferDebug),
		screen(KeyBRDFLUT, pipeline.WithTargets(gpu.FormatNone, gpu.FormatRG16F)),

		pipeline.NewPipeline(KeySkybox,
			src(KeySkybox),
			pipeline.WithVertexLayout(CubeVertexLayout()),
			pipeline.WithTargets(SwapchainDepthFormat),
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithDepthCompare(pipeline.CompareLessEqual),
			pipeline.WithCullMode(pipeline.CullNone),
		),
		pipeline.NewPipeline(KeyIrradiance,
			src(KeyIrradiance),
			pipeline.WithVertexLayout(CubeVertexLayout()),
			pipeline.WithTargets(gpu.FormatNone, gpu.FormatRGBA16F),
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithCullMode(pipeline.CullNone),
		),
		pipeline.NewPipeline(KeyProceduralSky,
			src(KeyProceduralSky),
			pipeline.WithVertexLayout(CubeVertexLayout()),
			pipeline.WithTargets(gpu.FormatNone, gpu.FormatRGBA16F),
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithCullMode(pipeline.CullNone),
		),
		pipeline.NewPipeline(KeyPrefilter,
			src(KeyPrefilter),
			pipeline.WithVertexLayout(CubeVertexLayout()),
			pipeline.WithTargets(gpu.FormatNone, gpu.FormatRGBA16F),
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithCullMode(pipeline.CullNone),
		),

		pipeline.NewPipeline(KeyOutlineLines,
			src(KeyOutlineLines),
			pipeline.WithVertexLayout(LineVertexLayout()),
			pipeline.WithTargets(SwapchainDepthFormat),
			pipeline.WithDepthCompare(pipeline.CompareAlways),
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithTopology(pipeline.TopologyLineList),
			pipeline.WithCullMode(pipeline.CullNone),
		),
		pipeline.NewPipeline(KeyInfiniteGrid,
			src(KeyInfiniteGrid),
			pipeline.WithVertexLayout(quad),
			pipeline.WithTargets(SwapchainDepthFormat),
			pipeline.WithDepthCompare(pipeline.CompareLess),
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithBlendEnabled(true),
			pipeline.WithCullMode(pipeline.CullNone),
		),

		pipeline.NewPipeline(KeyBatchQuad,
			src(KeyBatchQuad),
			pipeline.WithVertexLayout(BatchVertexLayout()),
			pipeline.WithTargets(SwapchainDepthFormat),
			pipeline.WithDepthCompare(pipeline.CompareLessEqual),
			pipeline.WithBlendEnabled(true),
			pipeline.WithCullMode(pipeline.CullNone),
		),
		pipeline.NewPipeline(KeyBatchCircle,
			src(KeyBatchCircle),
			pipeline.WithVertexLayout(BatchVertexLayout()),
			pipeline.WithTargets(SwapchainDepthFormat),
			pipeline.WithDepthCompare(pipeline.CompareLessEqual),
			pipeline.WithBlendEnabled(true),
			pipeline.WithCullMode(pipeline.CullNone),
		),
		pipeline.NewPipeline(KeyBatchLine,
			src(KeyBatchLine),
			pipeline.WithVertexLayout(LineVertexLayout()),
			pipeline.WithTargets(SwapchainDepthFormat),
			pipeline.WithDepthCompare(pipeline.CompareLessEqual),
			pipeline.WithBlendEnabled(true),
			pipeline.WithTopology(pipeline.TopologyLineList),
			pipeline.WithCullMode(pipeline.CullNone),
		),
	}
}
