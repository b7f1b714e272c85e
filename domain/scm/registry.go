package scm

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Kind names an SCM adapter, e.g. "git".
type Kind string

// Built-in kinds.
const (
	KindGit    Kind = "git"
	KindGitHub Kind = "github"
)

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// Constructor builds an adapter for a source.
type Constructor func(ctx context.Context, source Source) (Adapter, error)

// Registry maps kinds to adapter constructors.
type Registry struct {
	mu           sync.RWMutex
	constructors map[Kind]Constructor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[Kind]Constructor),
	}
}

// Register adds a constructor for kind, replacing any existing one.
func (r *Registry) Register(kind Kind, constructor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[kind] = constructor
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[kind]
	return ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.constructors))
	for k := range r.constructors {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Validate checks that every named kind is registered.
func (r *Registry) Validate(kinds []string) error {
	for _, k := range kinds {
		if !r.Has(Kind(k)) {
			return fmt.Errorf("%w: %s", ErrUnknownKind, k)
		}
	}
	return nil
}

// New builds an adapter of kind for source.
func (r *Registry) New(ctx context.Context, kind Kind, source Source) (Adapter, error) {
	r.mu.RLock()
	constructor, ok := r.constructors[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	adapter, err := constructor(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("create %s adapter: %w", kind, err)
	}
	return adapter, nil
}
