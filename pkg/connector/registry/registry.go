// Package registry maps backend kinds to connector constructors.
//
// Backend packages register themselves from init(); importing
// pkg/connector/sources pulls in all of them.
package registry

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/seaschema/pkg/config"
	"github.com/ajitpratap0/seaschema/pkg/connector/base"
	"github.com/ajitpratap0/seaschema/pkg/connector/core"
	"github.com/ajitpratap0/seaschema/pkg/logger"
)

// Factory builds a Disconnected connector. It must not perform I/O.
type Factory func(cfg config.ConnectionConfig, logger *zap.Logger, opts ...base.Option) core.Connector

// Registry manages connector registration and instantiation
type Registry struct {
	factories map[core.Kind]Factory
	aliases   map[core.Kind]core.Kind
	mu        sync.RWMutex
	logger    *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry(nil)

// NewRegistry creates an empty connector registry
func NewRegistry(l *zap.Logger) *Registry {
	return &Registry{
		factories: make(map[core.Kind]Factory),
		aliases:   make(map[core.Kind]core.Kind),
		logger:    logger.OrNop(l).With(zap.String("component", "connector_registry")),
	}
}

// Register adds or replaces the factory for kind. Aliases resolve to kind.
func (r *Registry) Register(kind core.Kind, factory Factory, aliases ...string) {
	kind = core.NormalizeKind(string(kind))

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[kind] = factory
	for _, a := range aliases {
		r.aliases[core.NormalizeKind(a)] = kind
	}
}

// resolve returns the canonical kind for a kind or alias
func (r *Registry) resolve(kind string) (core.Kind, Factory, bool) {
	k := core.NormalizeKind(kind)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if target, ok := r.aliases[k]; ok {
		k = target
	}
	factory, ok := r.factories[k]
	return k, factory, ok
}

// Create returns a Disconnected connector for kind, or nil when the kind is
// not supported. Matching is case-insensitive and accepts aliases.
func (r *Registry) Create(kind string, cfg config.ConnectionConfig, l *zap.Logger, opts ...base.Option) core.Connector {
	k, factory, ok := r.resolve(kind)
	if !ok {
		r.logger.Error("unsupported database type",
			zap.String("kind", kind),
			zap.Strings("supported", r.Kinds()))
		return nil
	}
	r.logger.Debug("creating connector",
		zap.String("kind", kind),
		zap.String("resolved", string(k)))
	if l == nil {
		l = r.logger
	}
	return factory(cfg, l, opts...)
}

// Supports reports whether kind (or an alias) is registered
func (r *Registry) Supports(kind string) bool {
	_, _, ok := r.resolve(kind)
	return ok
}

// Kinds returns the registered canonical kinds, sorted
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	return kinds
}

// Aliases returns alias to kind mappings
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.aliases))
	for a, k := range r.aliases {
		out[string(a)] = string(k)
	}
	return out
}

// Global registry functions

// RegisterConnector registers a factory in the global registry
func RegisterConnector(kind core.Kind, factory Factory, aliases ...string) {
	globalRegistry.Register(kind, factory, aliases...)
}

// Create creates a connector from the global registry
func Create(kind string, cfg config.ConnectionConfig, l *zap.Logger, opts ...base.Option) core.Connector {
	return globalRegistry.Create(kind, cfg, l, opts...)
}

// Kinds returns kinds registered in the global registry
func Kinds() []string {
	return globalRegistry.Kinds()
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}
