package graph

import (
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
)

// Pass is one unit of GPU work. Inputs and Outputs declare the resources the pass reads and
// writes; Compile orders passes so that every writer of a resource runs before its readers.
// Execute records commands into the pass's own buffer; it never touches the backend directly.
type Pass struct {
	Name    string
	Inputs  []ResourceHandle
	Outputs []ResourceHandle
	Execute func(ctx *PassContext)

	// Condition, when set, is evaluated at execution time; a false result skips the pass.
	Condition func() bool
}

// PassContext is handed to a pass while it records.
type PassContext struct {
	// Commands is the buffer the pass records into. It is submitted to the queue after Execute returns.
	Commands command.CommandBuffer

	graph *renderGraph
}

// Framebuffer resolves a handle declared with ImportFramebuffer.
//
// Parameters:
//   - h: the imported handle
//
// Returns:
//   - gpu.Framebuffer: the imported framebuffer, or nil when h was not imported
func (c *PassContext) Framebuffer(h ResourceHandle) gpu.Framebuffer {
	if c.graph == nil {
		return nil
	}
	return c.graph.resources.imports[h]
}

// Desc returns the descriptor of a resource declared in the current frame.
func (c *PassContext) Desc(h ResourceHandle) (ResourceDesc, bool) {
	if c.graph == nil {
		return ResourceDesc{}, false
	}
	return c.graph.Desc(h)
}
