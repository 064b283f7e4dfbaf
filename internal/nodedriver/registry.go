package nodedriver

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the node drivers known to the engine, by name.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]NodeDriver
}

// NewRegistry creates an empty driver registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]NodeDriver)}
}

// Register adds a driver to the registry
func (r *Registry) Register(driver NodeDriver) error {
	if driver == nil {
		return fmt.Errorf("cannot register nil node driver")
	}
	name := driver.Name()
	if name == "" {
		return fmt.Errorf("node driver has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("node driver %s already registered", name)
	}
	r.drivers[name] = driver
	return nil
}

// Get returns a driver by name, or an error wrapping ErrDriverNotFound.
func (r *Registry) Get(name string) (NodeDriver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	driver, ok := r.drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDriverNotFound, name)
	}
	return driver, nil
}

// HasNodeDriver reports whether a driver is registered under name.
func (r *Registry) HasNodeDriver(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.drivers[name]
	return ok
}

// Names returns the registered driver names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset removes all drivers.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers = make(map[string]NodeDriver)
}
