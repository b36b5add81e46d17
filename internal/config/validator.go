package config

import (
	"fmt"
	"sync"
)

// CacheValidator is the Strategy interface for validating cache backend
// configuration. Each backend (Redis, DynamoDB) provides its own validator,
// registered from its implementation package's init().
type CacheValidator interface {
	// Validate validates the cache section for this backend type.
	Validate(cfg *CacheConfig) error

	// Type returns the type identifier for this validator (e.g., "redis").
	Type() string
}

var (
	// validatorRegistry stores all registered cache validators.
	validatorRegistry = make(map[string]CacheValidator)

	// validatorRegistryMutex protects the validator registry from concurrent access.
	validatorRegistryMutex sync.RWMutex
)

// RegisterCacheValidator registers a cache validator. This is called
// automatically by each backend's init() function. Panics if the validator
// is nil, its type is empty, or the type is already registered.
func RegisterCacheValidator(validator CacheValidator) {
	if validator == nil {
		panic("validator cannot be nil")
	}
	if validator.Type() == "" {
		panic("validator type cannot be empty")
	}

	validatorRegistryMutex.Lock()
	defer validatorRegistryMutex.Unlock()

	if _, exists := validatorRegistry[validator.Type()]; exists {
		panic(fmt.Sprintf("validator for type %q is already registered", validator.Type()))
	}

	validatorRegistry[validator.Type()] = validator
}

// GetCacheValidator retrieves a validator by backend type.
func GetCacheValidator(validatorType string) (CacheValidator, bool) {
	validatorRegistryMutex.RLock()
	defer validatorRegistryMutex.RUnlock()

	validator, exists := validatorRegistry[validatorType]
	return validator, exists
}
