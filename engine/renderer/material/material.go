package material

// Kind is the closed set of surface models a material can describe.
type Kind uint8

const (
	// KindPhong is the classic diffuse/specular model.
	KindPhong Kind = iota
	// KindPBR is the metallic/roughness model.
	KindPBR
)

func (k Kind) String() string {
	switch k {
	case KindPhong:
		return "phong"
	case KindPBR:
		return "pbr"
	default:
		return "unknown"
	}
}

// Material describes the surface properties of a submesh. Only the fields belonging to
// Kind are meaningful; the rest keep their defaults.
//
// Phong materials use Diffuse, Specular and Shininess. PBR materials use Albedo, Metallic,
// Roughness, AO and Emissive. Alpha applies to both.
type Material struct {
	Name string
	Kind Kind

	Diffuse   [4]float32
	Specular  [3]float32
	Shininess float32

	Albedo    [3]float32
	Metallic  float32
	Roughness float32
	AO        float32
	Emissive  [3]float32

	Alpha float32
}

// NewMaterial creates a new Material configured with the provided options.
// Defaults to an opaque white Phong material.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - *Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) *Material {
	m := &Material{
		Kind:      KindPhong,
		Diffuse:   [4]float32{1, 1, 1, 1},
		Specular:  [3]float32{0.5, 0.5, 0.5},
		Shininess: 32,
		Albedo:    [3]float32{1, 1, 1},
		Roughness: 1,
		AO:        1,
		Alpha:     1,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// IsPBR reports whether the material uses the metallic/roughness model.
func (m *Material) IsPBR() bool {
	return m != nil && m.Kind == KindPBR
}

// IsTransparent reports whether draws using this material go through the transparent pass.
// Only Phong materials with a diffuse alpha below one are transparent; a nil material is opaque.
//
// Returns:
//   - bool: true when the material needs blending
func (m *Material) IsTransparent() bool {
	if m == nil {
		return false
	}
	switch m.Kind {
	case KindPhong:
		return m.Diffuse[3] < 1
	default:
		return false
	}
}

// BaseColor returns the RGBA color written to the albedo channel for either kind.
//
// Returns:
//   - [4]float32: the base color
func (m *Material) BaseColor() [4]float32 {
	if m == nil {
		return [4]float32{1, 1, 1, 1}
	}
	switch m.Kind {
	case KindPBR:
		return [4]float32{m.Albedo[0], m.Albedo[1], m.Albedo[2], m.Alpha}
	default:
		return m.Diffuse
	}
}
