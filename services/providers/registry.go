package providers

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrProviderNotFound is returned when no builder is registered under a name
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate builder
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Builder creates a remote summarizer from its configuration
type Builder func(config ProviderConfig) (RemoteSummarizer, error)

// Registry maps remote provider names to their builders.
// Exactly one remote summarizer is built per process, chosen by configuration.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// RegisterBuilder registers a builder under name
func (r *Registry) RegisterBuilder(name string, builder Builder) error {
	if name == "" {
		return errors.New("provider name cannot be empty")
	}
	if builder == nil {
		return errors.New("provider builder cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[name]; exists {
		return ErrProviderAlreadyRegistered
	}
	r.builders[name] = builder
	return nil
}

// Build creates the remote summarizer registered under name
func (r *Registry) Build(name string, config ProviderConfig) (RemoteSummarizer, error) {
	r.mu.RLock()
	builder, exists := r.builders[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}

	summarizer, err := builder(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider %s: %w", name, err)
	}
	return summarizer, nil
}

// ListProviders returns all registered provider names in sorted order
func (r *Registry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a builder is registered under name
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.builders[name]
	return exists
}
