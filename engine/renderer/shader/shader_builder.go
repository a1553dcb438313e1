package shader

// ShaderBuilderOption is a functional option for configuring a Shader.
type ShaderBuilderOption func(s *shader)

// WithPreProcessor expands the source with pp instead of an empty pre-processor.
//
// Parameters:
//   - pp: the pre-processor holding the struct registry
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithPreProcessor(pp PreProcessor) ShaderBuilderOption {
	return func(s *shader) {
		if pp != nil {
			s.pp = pp
		}
	}
}
