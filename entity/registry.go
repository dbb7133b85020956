package entity

import (
	"fmt"
	"sync"
)

var globalRegistry = &Registry{
	byName:       make(map[string]*Type),
	byCollection: make(map[string]*Type),
}

// Registry maintains a mapping from schema type names and collection names
// to declared entity types. It is used to resolve navigation targets during
// hydration and to bind types to a service root.
type Registry struct {
	mu           sync.RWMutex
	byName       map[string]*Type
	byCollection map[string]*Type
}

// Register adds a declared entity type to the global registry.
func Register(t *Type) error {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if existing, ok := globalRegistry.byName[t.Name()]; ok && existing != t {
		return fmt.Errorf("type name %q already registered", t.Name())
	}
	if existing, ok := globalRegistry.byCollection[t.Collection()]; ok && existing != t {
		return fmt.Errorf("collection %q already registered to %s", t.Collection(), existing.Name())
	}

	globalRegistry.byName[t.Name()] = t
	globalRegistry.byCollection[t.Collection()] = t
	return nil
}

// MustRegister is a helper that calls Register and panics on error.
// It is intended for use during application initialization.
func MustRegister(t *Type) {
	if err := Register(t); err != nil {
		panic(err)
	}
}

// Lookup retrieves a registered entity type by its schema type name.
func Lookup(name string) (*Type, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	t, ok := globalRegistry.byName[name]
	return t, ok
}

// LookupCollection retrieves a registered entity type by its collection name.
func LookupCollection(name string) (*Type, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	t, ok := globalRegistry.byCollection[name]
	return t, ok
}

// RegisteredTypes returns all registered entity types.
func RegisteredTypes() []*Type {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	result := make([]*Type, 0, len(globalRegistry.byName))
	for _, t := range globalRegistry.byName {
		result = append(result, t)
	}
	return result
}

// ClearRegistry resets the global registry, removing all registered types.
// This is primarily used for testing purposes.
func ClearRegistry() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.byName = make(map[string]*Type)
	globalRegistry.byCollection = make(map[string]*Type)
}
