// internal/transport/registry.go
package transport

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// Registry holds the transports enabled in this process
type Registry struct {
	transports  map[model.TransportKind]Transport
	defaultKind model.TransportKind
	mu          sync.RWMutex
	logger      *zap.Logger
}

// NewRegistry creates a registry whose lookups fall back to defaultKind
func NewRegistry(defaultKind model.TransportKind, logger *zap.Logger) *Registry {
	return &Registry{
		transports:  make(map[model.TransportKind]Transport),
		defaultKind: defaultKind,
		logger:      logger,
	}
}

// Register adds or replaces the transport for its kind
func (r *Registry) Register(t Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transports[t.Name()] = t

	_, discovers := t.(Discoverer)
	r.logger.Info("Transport registered",
		zap.String("transport", string(t.Name())),
		zap.Bool("discovery", discovers),
	)
}

// Get returns the transport for kind. An empty kind selects the default.
func (r *Registry) Get(kind model.TransportKind) (Transport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if kind == "" {
		kind = r.defaultKind
	}
	if t, ok := r.transports[kind]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("transport %q is not enabled: %w", kind, ErrUnavailable)
}

// Default is the kind used for printers saved without one
func (r *Registry) Default() model.TransportKind {
	return r.defaultKind
}

// Kinds lists the registered transport kinds, sorted
func (r *Registry) Kinds() []model.TransportKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]model.TransportKind, 0, len(r.transports))
	for k := range r.transports {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Discoverers returns the registered transports that support scanning
func (r *Registry) Discoverers() []Discoverer {
	var out []Discoverer
	for _, k := range r.Kinds() {
		t, _ := r.Get(k)
		if d, ok := t.(Discoverer); ok {
			out = append(out, d)
		}
	}
	return out
}
