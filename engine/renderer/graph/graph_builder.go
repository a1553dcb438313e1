package graph

import "github.com/Carmen-Shannon/oxy-graph/engine/log"

// RenderGraphBuilderOption is a functional option used to configure a RenderGraph during construction.
type RenderGraphBuilderOption func(*renderGraph)

// WithLogger replaces the graph's logger.
//
// Parameters:
//   - logger: the logger compile failures are reported to
//
// Returns:
//   - RenderGraphBuilderOption: a function that sets the logger
func WithLogger(logger log.Logger) RenderGraphBuilderOption {
	return func(g *renderGraph) {
		if logger != nil {
			g.logger = logger
		}
	}
}
