package model

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
)

// Submesh is an index range of a mesh's shared vertex array drawn with one material.
type Submesh struct {
	IndexOffset   uint32
	IndexCount    uint32
	MaterialIndex int
	Bounds        common.AABB
}

// model is the implementation of the Model interface.
type model struct {
	name        string
	vertexArray gpu.VertexArray
	submeshes   []Submesh
	materials   []*material.Material
	bounds      common.AABB
	hasBounds   bool
	skeleton    *Skeleton
}

// Model defines the interface for a GPU-ready mesh: one vertex array split into submeshes,
// each with its own material and model-space bounds. It is what the scene renderer's
// SubmitMesh and SubmitSkinnedMesh consume.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// VertexArray retrieves the shared vertex/index buffers.
	//
	// Returns:
	//   - gpu.VertexArray: the vertex array
	VertexArray() gpu.VertexArray

	// Submeshes retrieves the index ranges of the model.
	//
	// Returns:
	//   - []Submesh: the submeshes in draw order
	Submeshes() []Submesh

	// Material returns the material referenced by a submesh, or nil when the index is out of range.
	//
	// Parameters:
	//   - sub: the submesh
	//
	// Returns:
	//   - *material.Material: the material or nil
	Material(sub Submesh) *material.Material

	// Materials retrieves every material of the model.
	Materials() []*material.Material

	// Bounds retrieves the model-space AABB enclosing every submesh.
	//
	// Returns:
	//   - common.AABB: the model bounds
	Bounds() common.AABB

	// Skinned reports whether the model carries a skeleton.
	//
	// Returns:
	//   - bool: true if the model has bone data
	Skinned() bool

	// Skeleton retrieves the bone hierarchy. Returns nil for static models.
	//
	// Returns:
	//   - *Skeleton: the skeleton or nil
	Skeleton() *Skeleton

	// Release frees the vertex array.
	Release()
}

var _ Model = &model{}

// NewModel creates a Model over an existing vertex array.
// Without any WithSubmesh option the whole index buffer becomes one submesh using material 0.
// Without WithBounds the model bounds are the union of the submesh bounds.
//
// Parameters:
//   - va: the vertex array holding the geometry
//   - options: variadic list of ModelBuilderOption functions
//
// Returns:
//   - Model: the new model
func NewModel(va gpu.VertexArray, options ...ModelBuilderOption) Model {
	m := &model{vertexArray: va}
	for _, opt := range options {
		opt(m)
	}
	if len(m.submeshes) == 0 && va != nil {
		m.submeshes = []Submesh{{IndexCount: va.IndexCount(), Bounds: m.bounds}}
	}
	if !m.hasBounds && len(m.submeshes) > 0 {
		m.bounds = m.submeshes[0].Bounds
		for _, s := range m.submeshes[1:] {
			m.bounds = m.bounds.Union(s.Bounds)
		}
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) VertexArray() gpu.VertexArray {
	return m.vertexArray
}

func (m *model) Submeshes() []Submesh {
	return m.submeshes
}

func (m *model) Material(sub Submesh) *material.Material {
	if sub.MaterialIndex < 0 || sub.MaterialIndex >= len(m.materials) {
		return nil
	}
	return m.materials[sub.MaterialIndex]
}

func (m *model) Materials() []*material.Material {
	return m.materials
}

func (m *model) Bounds() common.AABB {
	return m.bounds
}

func (m *model) Skinned() bool {
	return m.skeleton != nil
}

func (m *model) Skeleton() *Skeleton {
	return m.skeleton
}

func (m *model) Release() {
	if m.vertexArray != nil {
		m.vertexArray.Release()
	}
}
