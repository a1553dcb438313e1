package shader

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// Stage identifies which entry points a shader source carries.
type Stage int

const (
	// StageVertex is a source with only a @vertex entry point.
	StageVertex Stage = iota

	// StageFragment is a source with only a @fragment entry point.
	StageFragment

	// StageVertexFragment is a single module carrying both entry points, the usual pipeline shape.
	StageVertexFragment
)

func (s Stage) visibility() wgpu.ShaderStage {
	switch s {
	case StageVertex:
		return wgpu.ShaderStageVertex
	case StageFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	stage                      Stage
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              map[int][]wgpu.VertexBufferLayout
	vertexEntry                string
	fragmentEntry              string
	module                     *wgpu.ShaderModuleDescriptor

	pp PreProcessor
}

// Shader is a parsed WGSL module: its expanded source, entry points and the bind group layouts
// a pipeline built from it needs.
type Shader interface {
	// Key retrieves the pipeline key the shader was parsed for.
	Key() string

	// Source retrieves the expanded WGSL source.
	Source() string

	// Stage returns which entry points the source was parsed for.
	Stage() Stage

	// VertexEntryPoint returns the @vertex function name, or "" for fragment-only sources.
	VertexEntryPoint() string

	// FragmentEntryPoint returns the @fragment function name, or "" for vertex-only sources.
	FragmentEntryPoint() string

	// BindGroupLayoutDescriptor retrieves the layout descriptor of one group.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty one if the group is unused
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed layout descriptors keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// GroupCount returns the highest declared group index plus one.
	GroupCount() int

	// BindGroupVarName retrieves the variable name declared at group and binding, or "".
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index of a variable within a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index, or -1 if not found
	//   - bool: true if the variable name was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// VertexLayouts retrieves the vertex input layouts found in the source, keyed by declaration order.
	VertexLayouts() map[int][]wgpu.VertexBufferLayout

	// Module returns the shader module descriptor built from the expanded source.
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the @oxy:group declarations expanded from the source.
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader expands and parses an in-memory WGSL source.
//
// Parameters:
//   - key: the pipeline key, used as the module label
//   - stage: which entry points the source carries
//   - source: the WGSL source, possibly containing @oxy: annotations
//   - options: functional options, e.g. WithPreProcessor
//
// Returns:
//   - Shader: the parsed shader
//   - error: an empty source, a pre-processing failure or a missing entry point
func NewShader(key string, stage Stage, source string, options ...ShaderBuilderOption) (Shader, error) {
	if source == "" {
		return nil, fmt.Errorf("shader: %s: empty source", key)
	}
	s := &shader{
		key:                        key,
		stage:                      stage,
		bindGroupLayoutDescriptors: make(map[int]wgpu.BindGroupLayoutDescriptor),
		bindingVarNames:            make(map[int]map[int]string),
		vertexLayouts:              make(map[int][]wgpu.VertexBufferLayout),
		pp:                         NewPreProcessor(),
	}
	for _, option := range options {
		option(s)
	}
	if err := s.parseSource(source); err != nil {
		return nil, fmt.Errorf("shader: %s: %w", key, err)
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Stage() Stage {
	return s.stage
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntry
}

func (s *shader) FragmentEntryPoint() string {
	return s.fragmentEntry
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) GroupCount() int {
	n := 0
	for g := range s.bindGroupLayoutDescriptors {
		n = max(n, g+1)
	}
	return n
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	if s.bindingVarNames[group] == nil {
		return -1, false
	}
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) VertexLayouts() map[int][]wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}

// parseSource expands the annotations, builds the module descriptor, and extracts the entry
// points, vertex layouts and bind group layouts the stage needs.
func (s *shader) parseSource(raw string) error {
	var err error
	s.source, err = s.pp.Process(raw)
	if err != nil {
		return fmt.Errorf("pre-process: %w", err)
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}

	r, err := reflectSource(s.source)
	if err != nil {
		return err
	}
	if s.stage != StageFragment {
		s.vertexEntry = r.entryPoint(StageVertex)
		if s.vertexEntry == "" {
			return fmt.Errorf("no @vertex entry point")
		}
		s.vertexLayouts = r.vertexLayouts()
	}
	if s.stage != StageVertex {
		s.fragmentEntry = r.entryPoint(StageFragment)
		if s.fragmentEntry == "" {
			return fmt.Errorf("no @fragment entry point")
		}
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = r.bindGroupLayouts(s.stage.visibility())
	return nil
}

// MergeLayouts combines the bind group layouts of two shaders that feed one pipeline. Entries
// declared by both keep the first declaration and OR the visibility flags.
//
// Parameters:
//   - a, b: layout descriptors keyed by group index
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors, entries sorted by binding
func MergeLayouts(a, b map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	groups := slices.Sorted(maps.Keys(a))
	for g := range b {
		if _, ok := a[g]; !ok {
			groups = append(groups, g)
		}
	}

	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for _, g := range groups {
		byBinding := make(map[uint32]wgpu.BindGroupLayoutEntry)
		for _, e := range a[g].Entries {
			byBinding[e.Binding] = e
		}
		for _, e := range b[g].Entries {
			if existing, ok := byBinding[e.Binding]; ok {
				existing.Visibility |= e.Visibility
				byBinding[e.Binding] = existing
				continue
			}
			byBinding[e.Binding] = e
		}
		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(byBinding))
		for _, e := range byBinding {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
		out[g] = wgpu.BindGroupLayoutDescriptor{Label: a[g].Label, Entries: entries}
	}
	return out
}
