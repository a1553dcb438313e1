package material

// MaterialBuilderOption is a function that configures a material during construction.
type MaterialBuilderOption func(*Material)

// WithName sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *Material) {
		m.Name = name
	}
}

// WithPhong switches the material to the Phong model with the given diffuse color.
// A diffuse alpha below one makes the material transparent.
//
// Parameters:
//   - diffuse: RGBA diffuse color
//   - specular: RGB specular color
//   - shininess: specular exponent
//
// Returns:
//   - MaterialBuilderOption: a function that applies the Phong parameters
func WithPhong(diffuse [4]float32, specular [3]float32, shininess float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Kind = KindPhong
		m.Diffuse = diffuse
		m.Specular = specular
		m.Shininess = shininess
		m.Alpha = diffuse[3]
	}
}

// WithPBR switches the material to the metallic/roughness model.
//
// Parameters:
//   - albedo: RGB base color
//   - metallic: 0 = dielectric, 1 = metal
//   - roughness: 0 = smooth, 1 = rough
//
// Returns:
//   - MaterialBuilderOption: a function that applies the PBR parameters
func WithPBR(albedo [3]float32, metallic, roughness float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Kind = KindPBR
		m.Albedo = albedo
		m.Metallic = metallic
		m.Roughness = roughness
	}
}

// WithAO sets the ambient occlusion factor.
func WithAO(ao float32) MaterialBuilderOption {
	return func(m *Material) {
		m.AO = ao
	}
}

// WithEmissive sets the emissive color.
func WithEmissive(emissive [3]float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Emissive = emissive
	}
}
