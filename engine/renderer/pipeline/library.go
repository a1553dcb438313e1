package pipeline

import (
	"sort"
	"sync"
)

// library is the implementation of Library.
type library struct {
	mu        *sync.RWMutex
	pipelines map[string]Pipeline
}

// Library is the registry of pipelines keyed by PipelineKey. It is created once and injected
// into the scene renderer and the backend; there is no process-wide instance.
type Library interface {
	// Register adds or replaces a pipeline under its key.
	//
	// Parameters:
	//   - p: the pipeline to register; nil is ignored
	Register(p Pipeline)

	// Pipeline returns the pipeline registered under key, or nil.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - Pipeline: the pipeline or nil
	Pipeline(key string) Pipeline

	// Has reports whether a pipeline is registered under key.
	Has(key string) bool

	// Keys returns every registered key in sorted order.
	Keys() []string

	// All returns every registered pipeline ordered by key.
	All() []Pipeline
}

var _ Library = &library{}

// NewLibrary creates a library holding the given pipelines.
//
// Parameters:
//   - pipelines: initial pipelines
//
// Returns:
//   - Library: the new library
func NewLibrary(pipelines ...Pipeline) Library {
	l := &library{
		mu:        &sync.RWMutex{},
		pipelines: make(map[string]Pipeline),
	}
	for _, p := range pipelines {
		l.Register(p)
	}
	return l
}

func (l *library) Register(p Pipeline) {
	if p == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pipelines[p.PipelineKey()] = p
}

func (l *library) Pipeline(key string) Pipeline {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pipelines[key]
}

func (l *library) Has(key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.pipelines[key]
	return ok
}

func (l *library) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.pipelines))
	for k := range l.pipelines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *library) All() []Pipeline {
	keys := l.Keys()
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Pipeline, 0, len(keys))
	for _, k := range keys {
		out = append(out, l.pipelines[k])
	}
	return out
}
