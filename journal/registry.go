package journal

import (
	"fmt"
	"slices"
	"sync"
)

// Type names a journal backend.
type Type string

const (
	// MemoryType keeps receipts in process memory
	MemoryType Type = "memory"
	// DBType stores receipts in a sqlite database
	DBType Type = "db"
)

// Constructor opens a journal backend with backend specific params.
type Constructor func(params map[string]any) (Journal, error)

// Registry manages the available journal backends.
type Registry interface {
	// Register adds a backend
	Register(t Type, constructor Constructor) error
	// SetDefault sets the backend opened for an empty Type
	SetDefault(t Type) error
	// Open opens a journal of type t
	Open(t Type, params map[string]any) (Journal, error)
	// DefaultType returns the current default backend
	DefaultType() Type
	// ListRegistered returns the registered backends in name order
	ListRegistered() []Type
}

type registry struct {
	mu          sync.RWMutex
	backends    map[Type]Constructor
	defaultType Type
}

var defaultRegistry Registry = NewRegistry()

// NewRegistry returns an empty backend registry.
func NewRegistry() Registry {
	return &registry{backends: make(map[Type]Constructor)}
}

// GetRegistry returns the process wide registry backends add themselves to.
func GetRegistry() Registry {
	return defaultRegistry
}

func (r *registry) Register(t Type, constructor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t == "" || constructor == nil {
		return fmt.Errorf("journal type and constructor are required")
	}
	if _, exists := r.backends[t]; exists {
		return fmt.Errorf("journal type %s already registered", t)
	}
	r.backends[t] = constructor
	return nil
}

func (r *registry) SetDefault(t Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[t]; !exists {
		return fmt.Errorf("journal type %s not registered", t)
	}
	r.defaultType = t
	return nil
}

func (r *registry) Open(t Type, params map[string]any) (Journal, error) {
	if t == "" {
		t = r.DefaultType()
	}

	r.mu.RLock()
	constructor, exists := r.backends[t]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("journal type %s not found", t)
	}
	if params == nil {
		params = make(map[string]any)
	}
	j, err := constructor(params)
	if err != nil {
		return nil, fmt.Errorf("open %s journal: %w", t, err)
	}
	return j, nil
}

func (r *registry) DefaultType() Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultType == "" {
		return MemoryType
	}
	return r.defaultType
}

func (r *registry) ListRegistered() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Type, 0, len(r.backends))
	for t := range r.backends {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Package level functions that delegate to the default registry

// Register adds a backend to the default registry.
func Register(t Type, constructor Constructor) error {
	return GetRegistry().Register(t, constructor)
}

// SetDefault sets the default backend of the default registry.
func SetDefault(t Type) error {
	return GetRegistry().SetDefault(t)
}

// Open opens a journal from the default registry.
func Open(t Type, params map[string]any) (Journal, error) {
	return GetRegistry().Open(t, params)
}

// ListRegistered lists the backends of the default registry.
func ListRegistered() []Type {
	return GetRegistry().ListRegistered()
}
