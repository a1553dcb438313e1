package model

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/material"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithSubmesh appends a submesh.
//
// Parameters:
//   - sub: the index range, material index and model-space bounds
//
// Returns:
//   - ModelBuilderOption: a function that appends the submesh
func WithSubmesh(sub Submesh) ModelBuilderOption {
	return func(m *model) {
		m.submeshes = append(m.submeshes, sub)
	}
}

// WithMaterials sets the materials referenced by submesh material indices.
//
// Parameters:
//   - materials: the materials in index order
//
// Returns:
//   - ModelBuilderOption: a function that applies the materials option to a model
func WithMaterials(materials ...*material.Material) ModelBuilderOption {
	return func(m *model) {
		m.materials = materials
	}
}

// WithBounds overrides the computed model bounds. A default single submesh inherits it too.
//
// Parameters:
//   - bounds: the model-space AABB
//
// Returns:
//   - ModelBuilderOption: a function that applies the bounds option to a model
func WithBounds(bounds common.AABB) ModelBuilderOption {
	return func(m *model) {
		m.bounds = bounds
		m.hasBounds = true
	}
}

// WithSkeleton is an option builder that sets the bone hierarchy, making the model skinned.
//
// Parameters:
//   - skeleton: the skeleton to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the skeleton option to a model
func WithSkeleton(skeleton *Skeleton) ModelBuilderOption {
	return func(m *model) {
		m.skeleton = skeleton
	}
}
