// Package chunkers implements the pluggable document-splitting strategies
// a knowledge base can select, registered by name factory-style.
package chunkers

import (
	"fmt"
	"sync"

	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// Registry is a factory-keyed registry of chunker builders, mirroring the
// teacher's RetrieveEngineRegistry shape applied to chunkers instead.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]interfaces.ChunkerFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]interfaces.ChunkerFactory)}
}

// Register adds a named chunker factory. Registering the same name twice
// is an error so startup wiring fails loudly rather than silently
// shadowing.
func (r *Registry) Register(name string, factory interfaces.ChunkerFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("chunker %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Build constructs a Chunker of the named type with params.
func (r *Registry) Build(name string, params map[string]any) (interfaces.Chunker, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("chunker %q not registered", name)
	}
	return factory(params)
}

// NewDefaultRegistry returns a Registry with all six built-in chunkers
// registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("simple", func(params map[string]any) (interfaces.Chunker, error) {
		return NewSimpleChunker(params), nil
	})
	_ = r.Register("sliding_window", func(params map[string]any) (interfaces.Chunker, error) {
		return NewSlidingWindowChunker(params), nil
	})
	_ = r.Register("recursive", func(params map[string]any) (interfaces.Chunker, error) {
		return NewRecursiveChunker(params), nil
	})
	_ = r.Register("markdown", func(params map[string]any) (interfaces.Chunker, error) {
		return NewMarkdownChunker(params), nil
	})
	_ = r.Register("code", func(params map[string]any) (interfaces.Chunker, error) {
		return NewCodeChunker(params), nil
	})
	_ = r.Register("parent_child", func(params map[string]any) (interfaces.Chunker, error) {
		return NewParentChildChunker(params), nil
	})
	return r
}
