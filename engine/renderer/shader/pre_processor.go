// pre_processor.go implements the WGSL pre-processor. It scans shader source for @oxy:
// annotations, replaces them with registered struct sources or generated declarations,
// and records the generated declarations for inspection.
//
// The struct registry is filled with WithStruct by the package that owns the GPU types,
// so this package stays free of any domain imports.
package shader

import (
	"fmt"
	"strings"
)

// registryEntry pairs a WGSL struct source with the type name used in generated declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations (e.g. "FrameUniform").
	Type string

	// Requires lists struct keys whose sources must precede this one.
	Requires []AnnotationArg
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry map[AnnotationArg]registryEntry

	// declarations accumulates group annotations during a Process call.
	declarations []Annotation
}

// PreProcessor expands @oxy: annotations in WGSL source.
type PreProcessor interface {
	// Process replaces include annotations with the registered struct sources (dependencies
	// first, each struct at most once) and group annotations with @group/@binding declarations.
	//
	// Parameters:
	//   - source: WGSL source containing annotations
	//
	// Returns:
	//   - string: the expanded source
	//   - error: a malformed annotation or an unknown struct key
	Process(source string) (string, error)

	// Declarations returns the group annotations of the most recent Process call in source order.
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// PreProcessorOption configures a PreProcessor.
type PreProcessorOption func(p *preProcessor)

// WithStruct registers a WGSL struct under key.
//
// Parameters:
//   - key: the annotation argument naming the struct
//   - typeName: the WGSL type name declared by source
//   - source: the WGSL struct definition
//   - requires: keys of structs referenced by source
//
// Returns:
//   - PreProcessorOption: option function to apply
func WithStruct(key, typeName, source string, requires ...string) PreProcessorOption {
	return func(p *preProcessor) {
		entry := registryEntry{Source: source, Type: typeName}
		for _, r := range requires {
			entry.Requires = append(entry.Requires, AnnotationArg(r))
		}
		p.structRegistry[AnnotationArg(key)] = entry
	}
}

// WithChunk registers WGSL functions or constants under key. Chunks can be included but not used
// as the type of a group declaration.
//
// Parameters:
//   - key: the annotation argument naming the chunk
//   - source: the WGSL text
//   - requires: keys of structs or chunks that must precede this one
//
// Returns:
//   - PreProcessorOption: option function to apply
func WithChunk(key, source string, requires ...string) PreProcessorOption {
	return WithStruct(key, "", source, requires...)
}

// NewPreProcessor creates a pre-processor with the given struct registrations.
//
// Parameters:
//   - options: WithStruct registrations
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(options ...PreProcessorOption) PreProcessor {
	p := &preProcessor{structRegistry: make(map[AnnotationArg]registryEntry)}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]
	included := make(map[AnnotationArg]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			out, err = p.include(out, a.Args[0], included, nil)
			if err != nil {
				return "", fmt.Errorf("line %d: %w", i+1, err)
			}
		case AnnotationTypeBindingGroup:
			entry, ok := p.structRegistry[a.Args[2]]
			if !ok || entry.Type == "" {
				return "", fmt.Errorf("line %d: unknown struct %q in @oxy group annotation", i+1, a.Args[2])
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				*a.Group, *a.Binding, addressSpaces[a.Args[0]], a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

// include appends the source of key after its requirements. chain detects cycles.
func (p *preProcessor) include(out []string, key AnnotationArg, included map[AnnotationArg]bool, chain []AnnotationArg) ([]string, error) {
	if included[key] {
		return out, nil
	}
	for _, k := range chain {
		if k == key {
			return nil, fmt.Errorf("include cycle through %q", key)
		}
	}
	entry, ok := p.structRegistry[key]
	if !ok {
		return nil, fmt.Errorf("unknown @oxy include argument %q", key)
	}
	var err error
	for _, req := range entry.Requires {
		if out, err = p.include(out, req, included, append(chain, key)); err != nil {
			return nil, err
		}
	}
	included[key] = true
	return append(out, strings.TrimRight(entry.Source, "\n")), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
