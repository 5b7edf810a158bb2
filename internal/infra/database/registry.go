package database

import "sync"

// Registry holds the single Manager of a process. The manager is built on first Get.
type Registry struct {
	mu      sync.Mutex
	once    sync.Once
	factory func() *Manager
	manager *Manager
}

// NewRegistry creates a registry that builds its manager with factory.
func NewRegistry(factory func() *Manager) *Registry {
	return &Registry{factory: factory}
}

// Get returns the manager, building it on the first call. Concurrent callers all
// receive the same instance.
func (r *Registry) Get() *Manager {
	r.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.manager = r.factory()
	})
	return r.manager
}

// SetFactory replaces the factory. It fails once the manager has been built.
func (r *Registry) SetFactory(factory func() *Manager) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.manager != nil {
		return ErrRegistryInitialized
	}
	r.factory = factory
	return nil
}

var defaultRegistry = NewRegistry(func() *Manager {
	return NewManager(ConfigFromEnv())
})

// Instance returns the process-wide Manager. Without a prior Configure it is
// configured from DATABASE_URL.
func Instance() *Manager {
	return defaultRegistry.Get()
}

// Configure sets the configuration Instance builds the manager with. It must be
// called before the first Instance call.
func Configure(cfg Config, opts ...Option) error {
	return defaultRegistry.SetFactory(func() *Manager {
		return NewManager(cfg, opts...)
	})
}
