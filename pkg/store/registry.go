package store

import (
	"fmt"
	"sync"
)

// Factory constructs a Store backend from configuration.
type Factory func(cfg Config) (Store, error)

var (
	// factories is the package-level backend registry
	factories = make(map[string]Factory)
	// mu protects concurrent access to factories
	mu sync.RWMutex
)

// Register adds a backend factory under the given name. Registering a
// duplicate name is an error.
func Register(name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for backend %q", name)
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		return fmt.Errorf("backend already registered: %s", name)
	}

	factories[name] = factory
	return nil
}

// Open resolves cfg.Backend against the registry and constructs the store.
func Open(cfg Config) (Store, error) {
	mu.RLock()
	factory, exists := factories[cfg.Backend]
	mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown store backend: %s (registered: %v)", cfg.Backend, Backends())
	}

	return factory(cfg)
}

// Backends returns the names of all registered backends.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

func mustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}
