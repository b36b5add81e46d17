// Package cache provides KVStore backends for the incident read-through
// cache. Backends register themselves with the factory from init(); the
// bootstrap selects one by configured type.
package cache

import (
	"fmt"
	"sync"

	"incidentcore/internal/config"
	"incidentcore/internal/core"
)

// Factory is the Strategy interface for creating KV store implementations.
// Each backend (Redis, DynamoDB) implements this interface to provide its
// own factory method.
type Factory interface {
	// Create creates a new KV store instance from the cache configuration.
	Create(cfg *config.CacheConfig) (core.KVStore, error)

	// Type returns the type identifier for this factory (e.g., "redis").
	Type() string
}

var (
	// factoryRegistry stores all registered KV store factories.
	factoryRegistry = make(map[string]Factory)

	// registryMutex protects the registry from concurrent access.
	registryMutex sync.RWMutex
)

// RegisterFactory registers a KV store factory.
// This is called automatically by each implementation's init() function.
func RegisterFactory(factory Factory) {
	if factory == nil {
		panic("factory cannot be nil")
	}
	if factory.Type() == "" {
		panic("factory type cannot be empty")
	}

	registryMutex.Lock()
	defer registryMutex.Unlock()

	if _, exists := factoryRegistry[factory.Type()]; exists {
		panic(fmt.Sprintf("factory for type %q is already registered", factory.Type()))
	}

	factoryRegistry[factory.Type()] = factory
}

// Create creates a KV store instance using the factory registered for
// cfg.Type.
func Create(cfg *config.CacheConfig) (core.KVStore, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("cache type is required")
	}

	registryMutex.RLock()
	factory, exists := factoryRegistry[cfg.Type]
	registryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}

	return factory.Create(cfg)
}

// RegisteredTypes returns a list of all registered cache backend types.
func RegisteredTypes() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	types := make([]string, 0, len(factoryRegistry))
	for t := range factoryRegistry {
		types = append(types, t)
	}
	return types
}
