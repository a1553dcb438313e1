// Package graph implements the per-frame render graph: a resource registry issuing opaque
// handles and a list of passes that is compiled into a dependency-respecting order and
// replayed through a command queue.
package graph

import (
	"container/heap"
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"
)

var (
	// ErrNoPasses is returned by Compile when the graph holds no pass.
	ErrNoPasses = errors.New("render graph has no passes")
	// ErrMultipleProducers is returned when two passes write the same resource.
	ErrMultipleProducers = errors.New("resource has multiple producers")
	// ErrCycle is returned when the pass dependencies form a cycle.
	ErrCycle = errors.New("render graph contains a cycle")
)

// renderGraph is the implementation of RenderGraph.
type renderGraph struct {
	logger    log.Logger
	resources *registry
	passes    []Pass

	order       []int
	dirty       bool
	lastOK      bool
	lastErr     error
	lastSkipped int
}

// RenderGraph is rebuilt every frame: Reset, declare resources, add passes, Execute.
type RenderGraph interface {
	// CreateResource declares a transient 1920x1080 RGBA8 texture resource.
	//
	// Returns:
	//   - ResourceHandle: a fresh, valid handle
	CreateResource() ResourceHandle

	// CreateResourceDesc declares a resource with an explicit descriptor.
	//
	// Parameters:
	//   - desc: the resource description
	//
	// Returns:
	//   - ResourceHandle: a fresh, valid handle
	CreateResourceDesc(desc ResourceDesc) ResourceHandle

	// ImportFramebuffer declares a non-transient handle bound to an existing framebuffer.
	// Passes resolve it through PassContext.Framebuffer.
	//
	// Parameters:
	//   - name: debug name of the resource
	//   - fb: the framebuffer to import, may be nil for the default target
	//
	// Returns:
	//   - ResourceHandle: a fresh, valid handle
	ImportFramebuffer(name string, fb gpu.Framebuffer) ResourceHandle

	// Desc returns the descriptor of a declared resource.
	//
	// Parameters:
	//   - h: the handle to look up
	//
	// Returns:
	//   - ResourceDesc: the descriptor
	//   - bool: false if h is not declared in this frame
	Desc(h ResourceHandle) (ResourceDesc, bool)

	// AddPass appends a pass. Passes may be added in any order; Compile restores dependency order.
	//
	// Parameters:
	//   - pass: the pass to append
	AddPass(pass Pass)

	// Compile computes the execution order. On failure the order falls back to insertion order.
	//
	// Returns:
	//   - bool: true if a dependency-respecting order was found
	Compile() bool

	// Execute compiles if needed, records every pass whose condition holds into its own
	// command buffer, submits the buffers to queue, and flushes the queue against backend.
	//
	// Parameters:
	//   - queue: the command queue collecting the pass buffers
	//   - backend: the backend the queue replays against
	Execute(queue command.Queue, backend command.Backend)

	// Reset drops every pass and resource. It must be called once per frame before adding passes.
	Reset()

	// LastCompileSucceeded reports the outcome of the most recent Compile.
	LastCompileSucceeded() bool

	// LastCompileError returns the error of the most recent Compile, or nil.
	LastCompileError() error

	// Order returns the pass names in execution order.
	Order() []string

	// PassCount returns the number of passes added since the last Reset.
	PassCount() int

	// ResourceCount returns the number of resources declared since the last Reset.
	ResourceCount() int

	// SkippedPassCount returns how many passes the last Execute skipped because of their condition.
	SkippedPassCount() int
}

var _ RenderGraph = &renderGraph{}

// NewRenderGraph creates an empty render graph.
//
// Parameters:
//   - opts: builder options
//
// Returns:
//   - RenderGraph: the new graph
func NewRenderGraph(opts ...RenderGraphBuilderOption) RenderGraph {
	g := &renderGraph{
		logger:    log.New("graph"),
		resources: newRegistry(),
		dirty:     true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *renderGraph) CreateResource() ResourceHandle {
	return g.resources.declare(ResourceDesc{
		Type:      ResourceTexture2D,
		Width:     DefaultResourceWidth,
		Height:    DefaultResourceHeight,
		Format:    gpu.FormatRGBA8,
		Transient: true,
	})
}

func (g *renderGraph) CreateResourceDesc(desc ResourceDesc) ResourceHandle {
	return g.resources.declare(desc)
}

func (g *renderGraph) ImportFramebuffer(name string, fb gpu.Framebuffer) ResourceHandle {
	return g.resources.importFramebuffer(name, fb)
}

func (g *renderGraph) Desc(h ResourceHandle) (ResourceDesc, bool) {
	d, ok := g.resources.descs[h]
	return d, ok
}

func (g *renderGraph) AddPass(pass Pass) {
	g.passes = append(g.passes, pass)
	g.dirty = true
}

func (g *renderGraph) Compile() bool {
	g.dirty = false

	order, err := g.schedule()
	if err != nil {
		g.order = g.insertionOrder()
		g.lastOK = false
		g.lastErr = err
		if !errors.Is(err, ErrNoPasses) {
			g.logger.Warningf("compile failed, falling back to insertion order: %v", err)
		}
		return false
	}

	g.order = order
	g.lastOK = true
	g.lastErr = nil
	return true
}

func (g *renderGraph) Execute(queue command.Queue, backend command.Backend) {
	if g.dirty {
		g.Compile()
	}

	g.lastSkipped = 0
	for _, idx := range g.order {
		pass := &g.passes[idx]
		if pass.Condition != nil && !pass.Condition() {
			g.lastSkipped++
			continue
		}
		if pass.Execute == nil {
			continue
		}

		ctx := &PassContext{Commands: command.NewCommandBuffer(pass.Name), graph: g}
		pass.Execute(ctx)
		queue.Submit(ctx.Commands)
	}
	queue.Flush(backend)
}

func (g *renderGraph) Reset() {
	clear(g.passes)
	g.passes = g.passes[:0]
	g.order = g.order[:0]
	g.resources.reset()
	g.dirty = true
}

func (g *renderGraph) LastCompileSucceeded() bool {
	return g.lastOK
}

func (g *renderGraph) LastCompileError() error {
	return g.lastErr
}

func (g *renderGraph) Order() []string {
	names := make([]string, 0, len(g.order))
	for _, idx := range g.order {
		names = append(names, g.passes[idx].Name)
	}
	return names
}

func (g *renderGraph) PassCount() int {
	return len(g.passes)
}

func (g *renderGraph) ResourceCount() int {
	return len(g.resources.descs)
}

func (g *renderGraph) SkippedPassCount() int {
	return g.lastSkipped
}

func (g *renderGraph) insertionOrder() []int {
	order := make([]int, len(g.passes))
	for i := range order {
		order[i] = i
	}
	return order
}

// schedule runs Kahn's algorithm, always picking the ready pass with the lowest insertion index.
// An insertion order that already respects every dependency is returned unchanged.
func (g *renderGraph) schedule() ([]int, error) {
	n := len(g.passes)
	if n == 0 {
		return nil, ErrNoPasses
	}

	producers := make(map[ResourceHandle]int)
	for i, p := range g.passes {
		for _, out := range p.Outputs {
			if !out.IsValid() {
				continue
			}
			if prev, ok := producers[out]; ok && prev != i {
				return nil, fmt.Errorf("%w: %s written by %q and %q",
					ErrMultipleProducers, g.resourceName(out), g.passes[prev].Name, p.Name)
			}
			producers[out] = i
		}
	}

	edges := make([][]int, n)
	inDegree := make([]int, n)
	seen := make(map[[2]int]struct{})
	for i, p := range g.passes {
		for _, in := range p.Inputs {
			if !in.IsValid() {
				continue
			}
			prod, ok := producers[in]
			if !ok || prod == i {
				continue
			}
			edge := [2]int{prod, i}
			if _, dup := seen[edge]; dup {
				continue
			}
			seen[edge] = struct{}{}
			edges[prod] = append(edges[prod], i)
			inDegree[i]++
		}
	}

	ready := &indexHeap{}
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]int, 0, n)
	for ready.Len() > 0 {
		cur := heap.Pop(ready).(int)
		order = append(order, cur)
		for _, next := range edges[cur] {
			inDegree[next]--
			if inDegree[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}

	if len(order) != n {
		var stuck []string
		for i, d := range inDegree {
			if d > 0 {
				stuck = append(stuck, g.passes[i].Name)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return order, nil
}

func (g *renderGraph) resourceName(h ResourceHandle) string {
	if d, ok := g.resources.descs[h]; ok && d.Name != "" {
		return d.Name
	}
	return h.String()
}

// indexHeap is a min-heap of pass insertion indices.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
