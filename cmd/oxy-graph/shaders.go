package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/shaders"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

func listShaders(ctx *cli.Context) error {
	setupLogging(ctx)
	keys := []string(ctx.Args())
	if len(keys) == 0 {
		keys = shaders.Keys()
	}
	return writeShaderTable(os.Stdout, keys)
}

// writeShaderTable parses each pipeline source and writes its bind group layout.
func writeShaderTable(out io.Writer, keys []string) error {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoMergeCells(true)
	table.SetRowLine(true)
	table.SetHeader([]string{"Pipeline", "Group", "Binding", "Variable", "Resource"})

	for _, key := range keys {
		s, err := shaders.Parse(key)
		if err != nil {
			return err
		}
		layouts := s.BindGroupLayoutDescriptors()
		groups := make([]int, 0, len(layouts))
		for g := range layouts {
			groups = append(groups, g)
		}
		slices.Sort(groups)
		if len(groups) == 0 {
			table.Append([]string{key, "-", "-", "-", "none"})
			continue
		}
		for _, g := range groups {
			for _, e := range layouts[g].Entries {
				table.Append([]string{
					key,
					fmt.Sprint(g),
					fmt.Sprint(e.Binding),
					s.BindGroupVarName(g, int(e.Binding)),
					describeEntry(e),
				})
			}
		}
	}
	table.Render()
	_, err := out.Write(buf.Bytes())
	return err
}

func describeEntry(e wgpu.BindGroupLayoutEntry) string {
	switch {
	case e.Buffer.Type == wgpu.BufferBindingTypeUniform:
		return fmt.Sprintf("uniform %d B", e.Buffer.MinBindingSize)
	case e.Buffer.Type != wgpu.BufferBindingTypeUndefined:
		return fmt.Sprintf("storage %d B", e.Buffer.MinBindingSize)
	case e.Sampler.Type == wgpu.SamplerBindingTypeComparison:
		return "sampler (comparison)"
	case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		return "sampler"
	case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		return fmt.Sprintf("texture %s %s", viewDimensionName(e.Texture.ViewDimension), sampleTypeName(e.Texture.SampleType))
	}
	return "unknown"
}

func sampleTypeName(t wgpu.TextureSampleType) string {
	switch t {
	case wgpu.TextureSampleTypeFloat:
		return "float"
	case wgpu.TextureSampleTypeUnfilterableFloat:
		return "unfilterable-float"
	case wgpu.TextureSampleTypeDepth:
		return "depth"
	case wgpu.TextureSampleTypeSint:
		return "sint"
	case wgpu.TextureSampleTypeUint:
		return "uint"
	}
	return "?"
}

func viewDimensionName(d wgpu.TextureViewDimension) string {
	switch d {
	case wgpu.TextureViewDimension1D:
		return "1d"
	case wgpu.TextureViewDimension2D:
		return "2d"
	case wgpu.TextureViewDimension2DArray:
		return "2d-array"
	case wgpu.TextureViewDimensionCube:
		return "cube"
	case wgpu.TextureViewDimensionCubeArray:
		return "cube-array"
	case wgpu.TextureViewDimension3D:
		return "3d"
	}
	return "?"
}
