// Package registry provides the node type registry: the process-wide,
// read-only-after-startup mapping from node type names to contract
// factories.
package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
)

type Adapter struct {
	factories map[string]ports.NodeFactory
	mu        sync.RWMutex
	logger    *slog.Logger
}

func NewAdapter(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{
		factories: make(map[string]ports.NodeFactory),
		logger:    logger.With("component", "node-registry"),
	}
}

func (r *Adapter) Register(nodeType string, factory ports.NodeFactory) error {
	if factory == nil {
		r.logger.Error("attempted to register nil factory", "node_type", nodeType)
		return &ports.NodeRegistrationError{
			NodeType: nodeType,
			Reason:   "factory cannot be nil",
		}
	}

	if nodeType == "" {
		r.logger.Error("attempted to register factory with empty node type")
		return &ports.NodeRegistrationError{
			NodeType: nodeType,
			Reason:   "node type cannot be empty",
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[nodeType]; exists {
		r.logger.Debug("node type registration failed - already exists", "node_type", nodeType)
		return &ports.NodeRegistrationError{
			NodeType: nodeType,
			Reason:   "node type already registered",
		}
	}

	r.factories[nodeType] = factory
	r.logger.Debug("node type registered", "node_type", nodeType, "total_types", len(r.factories))
	return nil
}

func (r *Adapter) Lookup(nodeType string) (ports.NodeFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[nodeType]
	if !exists {
		r.logger.Debug("node type not found", "node_type", nodeType)
		return nil, domain.NewUnknownNodeTypeError(nodeType)
	}

	return factory, nil
}

func (r *Adapter) Has(nodeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[nodeType]
	return exists
}

func (r *Adapter) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for nodeType := range r.factories {
		types = append(types, nodeType)
	}
	sort.Strings(types)
	return types
}

func (r *Adapter) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.factories)
}
