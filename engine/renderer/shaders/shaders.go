// Package shaders holds the WGSL sources of the standard pipeline set and the pre-processor
// registry their @oxy: annotations resolve against. Uniform structs live next to the Go types that
// marshal them; this package only wires them together.
package shaders

import (
	"embed"
	"fmt"
	"maps"
	"path"
	"slices"

	"github.com/Carmen-Shannon/oxy-graph/engine/light"
	"github.com/Carmen-Shannon/oxy-graph/engine/model"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/passes"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shader"
)

//go:embed assets
var assets embed.FS

// pipelineFiles maps every standard pipeline key to its source. Variants that differ only in
// pipeline state share a file.
var pipelineFiles = map[string]string{
	passes.KeyShadow: "shadow.wgsl",

	passes.KeyGBufferPhong:   "gbuffer.wgsl",
	passes.KeyGBufferPBR:     "gbuffer.wgsl",
	passes.KeyGBufferSkinned: "gbuffer_skinned.wgsl",

	passes.KeyForwardPhong:              "forward.wgsl",
	passes.KeyForwardPBR:                "forward.wgsl",
	passes.KeyForwardSkinned:            "forward_skinned.wgsl",
	passes.KeyForwardPhongTransparent:   "forward.wgsl",
	passes.KeyForwardPBRTransparent:     "forward.wgsl",
	passes.KeyForwardSkinnedTransparent: "forward_skinned.wgsl",

	passes.KeyDeferredLighting: "lighting.wgsl",
	passes.KeySSGI:             "ssgi.wgsl",
	passes.KeyGTAO:             "gtao.wgsl",

	passes.KeySkybox:        "skybox.wgsl",
	passes.KeyIrradiance:    "irradiance.wgsl",
	passes.KeyPrefilter:     "prefilter.wgsl",
	passes.KeyBRDFLUT:       "brdf_lut.wgsl",
	passes.KeyProceduralSky: "procedural_sky.wgsl",

	passes.KeyOutline:      "outline.wgsl",
	passes.KeyOutlineLines: "lines.wgsl",
	passes.KeyDepthView:    "depth_view.wgsl",
	passes.KeyGBufferDebug: "gbuffer_debug.wgsl",
	passes.KeyInfiniteGrid: "grid.wgsl",

	passes.KeyBatchQuad:   "batch_quad.wgsl",
	passes.KeyBatchCircle: "batch_circle.wgsl",
	passes.KeyBatchLine:   "lines.wgsl",
}

// chunk is an include-only source under assets/chunks.
type chunk struct {
	key      string
	requires []string
}

var chunks = []chunk{
	{key: "screen"},
	{key: "brdf"},
	{key: "capture"},
	{key: "sampling", requires: []string{"brdf"}},
	{key: "mesh", requires: []string{"material"}},
	{key: "skinning", requires: []string{"skinned_vertex", "skinned_draw", "mesh"}},
	{key: "shading", requires: []string{"lights", "material", "brdf"}},
}

// PreProcessor returns a pre-processor with every uniform struct and chunk registered.
//
// Returns:
//   - shader.PreProcessor: the registry the standard sources expand against
//   - error: an embedded chunk could not be read
func PreProcessor() (shader.PreProcessor, error) {
	options := []shader.PreProcessorOption{
		shader.WithStruct("vertex", "VertexInput", model.GPUVertexSource),
		shader.WithStruct("skinned_vertex", "SkinnedVertexInput", model.GPUSkinnedVertexSource),
		shader.WithStruct("material", "Material", material.GPUMaterialSource),
		shader.WithStruct("lights", "LightBlock", light.LightBlockSource),
		shader.WithStruct("frame", "FrameBlock", passes.FrameBlockSource),
		shader.WithStruct("draw", "DrawBlock", passes.DrawBlockSource, "material"),
		shader.WithStruct("skinned_draw", "SkinnedDrawBlock", passes.SkinnedDrawBlockSource, "material"),
	}
	for _, c := range chunks {
		src, err := assets.ReadFile(path.Join("assets", "chunks", c.key+".wgsl"))
		if err != nil {
			return nil, fmt.Errorf("shaders: chunk %s: %w", c.key, err)
		}
		options = append(options, shader.WithChunk(c.key, string(src), c.requires...))
	}
	return shader.NewPreProcessor(options...), nil
}

// Options returns the shader options that realising Standard sources needs.
func Options() ([]shader.ShaderBuilderOption, error) {
	pp, err := PreProcessor()
	if err != nil {
		return nil, err
	}
	return []shader.ShaderBuilderOption{shader.WithPreProcessor(pp)}, nil
}

// Standard returns the unexpanded source of every standard pipeline.
//
// Returns:
//   - passes.ShaderSet: sources keyed by pipeline key
//   - error: an embedded source could not be read
func Standard() (passes.ShaderSet, error) {
	set := make(passes.ShaderSet, len(pipelineFiles))
	for key, file := range pipelineFiles {
		src, err := assets.ReadFile(path.Join("assets", file))
		if err != nil {
			return nil, fmt.Errorf("shaders: %s: %w", key, err)
		}
		set[key] = string(src)
	}
	return set, nil
}

// Keys returns the standard pipeline keys in sorted order.
func Keys() []string {
	return slices.Sorted(maps.Keys(pipelineFiles))
}

// Parse expands and parses the standard source of key.
//
// Parameters:
//   - key: a pipeline key
//
// Returns:
//   - shader.Shader: the parsed shader with its bind group layouts
//   - error: an unknown key or a pre-processor or parse failure
func Parse(key string) (shader.Shader, error) {
	file, ok := pipelineFiles[key]
	if !ok {
		return nil, fmt.Errorf("shaders: unknown pipeline %q", key)
	}
	src, err := assets.ReadFile(path.Join("assets", file))
	if err != nil {
		return nil, fmt.Errorf("shaders: %s: %w", key, err)
	}
	options, err := Options()
	if err != nil {
		return nil, err
	}
	return shader.NewShader(key, shader.StageVertexFragment, string(src), options...)
}
