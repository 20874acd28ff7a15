package command

import (
	"fmt"
	"sort"
	"sync"
)

// BackendConfig carries the parameters a factory needs to open a backend.
type BackendConfig struct {
	// Width and Height size the backend's default surface.
	Width, Height int
}

// BackendFactory opens a backend. Factories are registered via Register and
// called by OpenBackend.
type BackendFactory func(cfg BackendConfig) (Backend, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]BackendFactory)
)

func init() {
	Register("recorder", func(BackendConfig) (Backend, error) {
		return NewRecorder(), nil
	})
}

// Register makes a backend available by name. It is typically called from
// init() in backend packages:
//
//	func init() {
//	    command.Register("canvas", func(cfg command.BackendConfig) (command.Backend, error) {
//	        return New(cfg.Width, cfg.Height), nil
//	    })
//	}
//
// Register panics if factory is nil or the name is already registered.
func Register(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("command: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("command: Register called twice for " + name)
	}
	factories[name] = factory
}

// Unregister removes a backend from the registry. Unknown names are ignored.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// OpenBackend opens the backend registered under name.
func OpenBackend(name string, cfg BackendConfig) (Backend, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("command: unknown backend %q (forgotten import?)", name)
	}
	return factory(cfg)
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}
