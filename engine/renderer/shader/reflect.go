package shader

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	structDeclRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	attributeRegex  = regexp.MustCompile(`@(\w+)(?:\(\s*([^)]*?)\s*\))?`)
	// Attributes, then var with an optional address space, a name and a type.
	resourceRegex = regexp.MustCompile(`((?:@\w+\(\s*\d+\s*\)\s*)+)var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
	entryRegex    = regexp.MustCompile(`@(vertex|fragment)\b(?:\s*@\w+(?:\([^)]*\))?)*\s*fn\s+(\w+)`)
)

// typeLayout is the size and alignment of a host-shareable WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

func (l typeLayout) stride() uint64 {
	return alignUp(l.size, l.align)
}

type structField struct {
	name     string
	typ      string
	location int
	builtin  bool
}

type structDecl struct {
	name   string
	fields []structField
}

// vertexInput reports whether every field is a @location and none is a @builtin, which is
// what separates vertex inputs from inter-stage structs.
func (s structDecl) vertexInput() bool {
	if len(s.fields) == 0 {
		return false
	}
	for _, f := range s.fields {
		if f.builtin || f.location < 0 {
			return false
		}
	}
	return true
}

type resourceDecl struct {
	group   int
	binding int
	space   string
	name    string
	typ     string
}

// reflection is what pipeline creation needs from one expanded WGSL source: entry points,
// vertex input layouts and bind group layouts.
type reflection struct {
	entries   map[Stage]string
	structs   []structDecl
	byName    map[string]structDecl
	resources []resourceDecl

	layouts  map[string]typeLayout
	visiting map[string]bool
}

// reflectSource scans source once. It fails on resource declarations the bind group layouts
// cannot express.
func reflectSource(source string) (*reflection, error) {
	code := stripComments(source)
	r := &reflection{
		entries:  make(map[Stage]string),
		byName:   make(map[string]structDecl),
		layouts:  make(map[string]typeLayout),
		visiting: make(map[string]bool),
	}

	for _, m := range entryRegex.FindAllStringSubmatch(code, -1) {
		stage := StageVertex
		if m[1] == "fragment" {
			stage = StageFragment
		}
		if _, seen := r.entries[stage]; !seen {
			r.entries[stage] = m[2]
		}
	}

	for _, m := range structDeclRegex.FindAllStringSubmatch(code, -1) {
		decl := structDecl{name: m[1], fields: parseFields(m[2])}
		r.structs = append(r.structs, decl)
		r.byName[decl.name] = decl
	}

	for _, m := range resourceRegex.FindAllStringSubmatch(code, -1) {
		decl := resourceDecl{group: -1, binding: -1, space: strings.TrimSpace(m[2]), name: m[3], typ: m[4]}
		for _, attr := range attributeRegex.FindAllStringSubmatch(m[1], -1) {
			n, _ := strconv.Atoi(attr[2])
			switch attr[1] {
			case "group":
				decl.group = n
			case "binding":
				decl.binding = n
			}
		}
		if decl.group < 0 || decl.binding < 0 {
			continue
		}
		r.resources = append(r.resources, decl)
	}
	for _, res := range r.resources {
		if _, err := r.layoutEntry(res, 0); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *reflection) entryPoint(stage Stage) string {
	return r.entries[stage]
}

// vertexLayouts returns one buffer layout per vertex input struct, keyed in declaration order.
// Structs with a field no vertex format can carry are skipped.
func (r *reflection) vertexLayouts() map[int][]wgpu.VertexBufferLayout {
	out := make(map[int][]wgpu.VertexBufferLayout)
	for _, decl := range r.structs {
		if !decl.vertexInput() {
			continue
		}
		layout := wgpu.VertexBufferLayout{StepMode: wgpu.VertexStepModeVertex}
		ok := true
		for _, f := range decl.fields {
			format, size, known := vertexFormat(f.typ)
			if !known {
				ok = false
				break
			}
			layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
				Format:         format,
				Offset:         layout.ArrayStride,
				ShaderLocation: uint32(f.location),
			})
			layout.ArrayStride += size
		}
		if ok {
			out[len(out)] = []wgpu.VertexBufferLayout{layout}
		}
	}
	return out
}

// bindGroupLayouts groups the declared resources into layout descriptors with entries sorted by
// binding, and returns the variable name of every binding.
func (r *reflection) bindGroupLayouts(visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	layouts := make(map[int]wgpu.BindGroupLayoutDescriptor)
	names := make(map[int]map[int]string)
	for _, res := range r.resources {
		entry, _ := r.layoutEntry(res, visibility)
		desc := layouts[res.group]
		desc.Entries = append(desc.Entries, entry)
		layouts[res.group] = desc

		if names[res.group] == nil {
			names[res.group] = make(map[int]string)
		}
		names[res.group][res.binding] = res.name
	}
	for g, desc := range layouts {
		slices.SortFunc(desc.Entries, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
		layouts[g] = desc
	}
	return layouts, names
}

func (r *reflection) layoutEntry(res resourceDecl, visibility wgpu.ShaderStage) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{Binding: uint32(res.binding), Visibility: visibility}
	where := fmt.Sprintf("@group(%d) @binding(%d) %s", res.group, res.binding, res.name)

	switch space, access, _ := strings.Cut(res.space, ","); strings.TrimSpace(space) {
	case "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case "storage":
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.TrimSpace(access) == "read_write" {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case "":
		if err := classifyHandle(res.typ, &entry); err != nil {
			return entry, fmt.Errorf("%s: %w", where, err)
		}
		return entry, nil
	default:
		return entry, fmt.Errorf("%s: unsupported address space %q", where, res.space)
	}

	layout, ok := r.layoutOf(res.typ)
	if !ok {
		return entry, fmt.Errorf("%s: cannot size type %q", where, res.typ)
	}
	entry.Buffer.MinBindingSize = layout.size
	return entry, nil
}

// layoutOf sizes typ with the WGSL host-shareable layout rules. A runtime-sized array counts
// one element, which is the smallest buffer a binding accepts.
func (r *reflection) layoutOf(typ string) (typeLayout, bool) {
	typ = strings.TrimSpace(typ)
	if s, ok := scalarSize(typ); ok {
		return typeLayout{s, s}, true
	}
	if n, scalar, ok := vectorShape(typ); ok {
		return vectorLayout(n, scalar), true
	}
	if cols, rows, scalar, ok := matrixShape(typ); ok {
		column := vectorLayout(rows, scalar)
		return typeLayout{uint64(cols) * column.stride(), column.align}, true
	}

	base, params := splitTypeParams(typ)
	switch base {
	case "atomic":
		return r.layoutOf(params)
	case "array":
		elemType, count, sized := cutTopLevel(params)
		elem, ok := r.layoutOf(elemType)
		if !ok {
			return typeLayout{}, false
		}
		n := uint64(1)
		if sized {
			c, err := strconv.ParseUint(strings.TrimSpace(count), 10, 64)
			if err != nil || c == 0 {
				return typeLayout{}, false
			}
			n = c
		}
		return typeLayout{n * elem.stride(), elem.align}, true
	}
	return r.structLayout(typ)
}

func (r *reflection) structLayout(name string) (typeLayout, bool) {
	if l, ok := r.layouts[name]; ok {
		return l, true
	}
	decl, ok := r.byName[name]
	if !ok || r.visiting[name] {
		return typeLayout{}, false
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	var offset uint64
	align := uint64(1)
	for _, f := range decl.fields {
		if f.builtin {
			continue
		}
		l, ok := r.layoutOf(f.typ)
		if !ok {
			return typeLayout{}, false
		}
		offset = alignUp(offset, l.align) + l.size
		align = max(align, l.align)
	}
	layout := typeLayout{alignUp(offset, align), align}
	r.layouts[name] = layout
	return layout, true
}

func scalarSize(typ string) (uint64, bool) {
	switch typ {
	case "f32", "i32", "u32", "bool":
		return 4, true
	case "f16":
		return 2, true
	}
	return 0, false
}

var scalarSuffix = map[byte]string{'f': "f32", 'i': "i32", 'u': "u32", 'h': "f16"}

// vectorShape parses vecN<T> and the vecNf, vecNi, vecNu and vecNh aliases.
func vectorShape(typ string) (n int, scalar string, ok bool) {
	rest, found := strings.CutPrefix(typ, "vec")
	if !found || len(rest) < 2 {
		return 0, "", false
	}
	n = int(rest[0] - '0')
	if n < 2 || n > 4 {
		return 0, "", false
	}
	scalar, ok = elementType(rest[1:])
	return n, scalar, ok
}

// matrixShape parses matCxR<T> and its f and h aliases.
func matrixShape(typ string) (cols, rows int, scalar string, ok bool) {
	rest, found := strings.CutPrefix(typ, "mat")
	if !found || len(rest) < 4 || rest[1] != 'x' {
		return 0, 0, "", false
	}
	cols, rows = int(rest[0]-'0'), int(rest[2]-'0')
	if cols < 2 || cols > 4 || rows < 2 || rows > 4 {
		return 0, 0, "", false
	}
	scalar, ok = elementType(rest[3:])
	if scalar != "f32" && scalar != "f16" {
		return 0, 0, "", false
	}
	return cols, rows, scalar, ok
}

// elementType reads the "<T>" or one-letter alias suffix of a vector or matrix type.
func elementType(suffix string) (string, bool) {
	var scalar string
	switch {
	case len(suffix) == 1:
		scalar = scalarSuffix[suffix[0]]
	case strings.HasPrefix(suffix, "<") && strings.HasSuffix(suffix, ">"):
		scalar = strings.TrimSpace(suffix[1 : len(suffix)-1])
	}
	_, ok := scalarSize(scalar)
	return scalar, ok && scalar != "bool"
}

func vectorLayout(n int, scalar string) typeLayout {
	s, _ := scalarSize(scalar)
	alignCount := uint64(n)
	if n == 3 {
		alignCount = 4
	}
	return typeLayout{uint64(n) * s, alignCount * s}
}

var vertexFormats = map[string]map[int]wgpu.VertexFormat{
	"f32": {1: wgpu.VertexFormatFloat32, 2: wgpu.VertexFormatFloat32x2, 3: wgpu.VertexFormatFloat32x3, 4: wgpu.VertexFormatFloat32x4},
	"i32": {1: wgpu.VertexFormatSint32, 2: wgpu.VertexFormatSint32x2, 3: wgpu.VertexFormatSint32x3, 4: wgpu.VertexFormatSint32x4},
	"u32": {1: wgpu.VertexFormatUint32, 2: wgpu.VertexFormatUint32x2, 3: wgpu.VertexFormatUint32x3, 4: wgpu.VertexFormatUint32x4},
	"f16": {2: wgpu.VertexFormatFloat16x2, 4: wgpu.VertexFormatFloat16x4},
}

// vertexFormat maps a scalar or vector type to its attribute format and byte size.
func vertexFormat(typ string) (wgpu.VertexFormat, uint64, bool) {
	n, scalar := 1, typ
	if vn, vs, ok := vectorShape(typ); ok {
		n, scalar = vn, vs
	}
	format, ok := vertexFormats[scalar][n]
	if !ok {
		return format, 0, false
	}
	s, _ := scalarSize(scalar)
	return format, uint64(n) * s, true
}

var viewDimensions = map[string]wgpu.TextureViewDimension{
	"1d":         wgpu.TextureViewDimension1D,
	"2d":         wgpu.TextureViewDimension2D,
	"2d_array":   wgpu.TextureViewDimension2DArray,
	"3d":         wgpu.TextureViewDimension3D,
	"cube":       wgpu.TextureViewDimensionCube,
	"cube_array": wgpu.TextureViewDimensionCubeArray,
}

// classifyHandle fills the sampler or texture half of entry. Storage textures are rejected;
// no pass writes one.
func classifyHandle(typ string, entry *wgpu.BindGroupLayoutEntry) error {
	switch typ {
	case "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		return nil
	case "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
		return nil
	}

	base, param := splitTypeParams(typ)
	rest, ok := strings.CutPrefix(base, "texture_")
	if !ok || strings.HasPrefix(rest, "storage_") {
		return fmt.Errorf("unsupported type %q", typ)
	}
	if r, depth := strings.CutPrefix(rest, "depth_"); depth {
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		rest = r
	} else {
		switch param {
		case "f32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		case "i32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeSint
		case "u32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeUint
		default:
			return fmt.Errorf("texture %q has no sample type", typ)
		}
	}
	if r, ms := strings.CutPrefix(rest, "multisampled_"); ms {
		entry.Texture.Multisampled = true
		rest = r
	}
	dim, ok := viewDimensions[rest]
	if !ok {
		return fmt.Errorf("unknown texture dimension in %q", typ)
	}
	entry.Texture.ViewDimension = dim
	return nil
}

// splitTypeParams splits "texture_2d<f32>" into "texture_2d" and "f32".
func splitTypeParams(typ string) (base, params string) {
	base, params, ok := strings.Cut(typ, "<")
	if !ok {
		return typ, ""
	}
	return strings.TrimSpace(base), strings.TrimSpace(strings.TrimSuffix(params, ">"))
}

// cutTopLevel splits s at its first comma outside angle brackets.
func cutTopLevel(s string) (before, after string, found bool) {
	parts := splitTopLevel(s)
	if len(parts) == 1 {
		return strings.TrimSpace(s), "", false
	}
	return strings.TrimSpace(parts[0]), strings.Join(parts[1:], ","), true
}

// splitTopLevel splits s at commas outside angle brackets, so "a: array<T, 4>, b: f32" keeps
// the array type whole.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := range len(s) {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func parseFields(body string) []structField {
	var fields []structField
	for _, raw := range splitTopLevel(body) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		field := structField{location: -1}
		for _, attr := range attributeRegex.FindAllStringSubmatch(raw, -1) {
			switch attr[1] {
			case "builtin":
				field.builtin = true
			case "location":
				if n, err := strconv.Atoi(attr[2]); err == nil {
					field.location = n
				}
			}
		}
		decl := strings.TrimSpace(attributeRegex.ReplaceAllString(raw, ""))
		name, typ, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		field.name = strings.TrimSpace(name)
		field.typ = strings.TrimSpace(typ)
		fields = append(fields, field)
	}
	return fields
}

// stripComments removes line comments and nested block comments in one scan. Newlines are
// kept so declarations stay on their lines.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		next := byte(0)
		if i+1 < len(source) {
			next = source[i+1]
		}
		switch {
		case source[i] == '/' && next == '*':
			depth++
			i++
		case depth > 0 && source[i] == '*' && next == '/':
			depth--
			i++
		case depth > 0:
			if source[i] == '\n' {
				sb.WriteByte('\n')
			}
		case source[i] == '/' && next == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}
