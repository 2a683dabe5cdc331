package nimcheck

import (
	"context"
	"errors"
	"sync"
)

var defaultRegistry = NewRegistry()

type NewClientFunc func(context.Context, *EndpointConfig) (Client, error)

// Registry is a registry of backend constructors, keyed by kind.
type Registry struct {
	mu       sync.RWMutex
	newFuncs map[string]NewClientFunc
}

// NewRegistry creates a new registry.
func NewRegistry() *Registry {
	return &Registry{
		newFuncs: make(map[string]NewClientFunc),
	}
}

// Errors returned by the registry.
var (
	ErrBackendKindEmpty         = errors.New("backend kind is empty")
	ErrBackendAlreadyRegistered = errors.New("backend already registered")
	ErrBackendNotFound          = errors.New("backend not found")
)

// Register registers a new backend constructor.
func (r *Registry) Register(kind string, f NewClientFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind == "" {
		return ErrBackendKindEmpty
	}
	if _, ok := r.newFuncs[kind]; ok {
		return ErrBackendAlreadyRegistered
	}
	r.newFuncs[kind] = f
	return nil
}

// Exists returns true if the backend kind is registered.
func (r *Registry) Exists(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.newFuncs[kind]
	return ok
}

// NewClient constructs the client selected by cfg.Kind.
func (r *Registry) NewClient(ctx context.Context, cfg *EndpointConfig) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	f, ok := r.newFuncs[cfg.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrBackendNotFound
	}
	return f(ctx, cfg)
}

// RegisterBackend registers a new backend constructor to the default registry.
func RegisterBackend(kind string, f NewClientFunc) error {
	return defaultRegistry.Register(kind, f)
}

// NewClient constructs a client from the default registry.
func NewClient(ctx context.Context, cfg *EndpointConfig) (Client, error) {
	return defaultRegistry.NewClient(ctx, cfg)
}

// DefaultRegistry returns the default registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
