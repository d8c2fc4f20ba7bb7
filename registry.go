package w3o

import (
	"context"
	"fmt"
	"sync"

	"github.com/layer-3/w3o/core"
)

// Registry holds the registered modules by id, in registration order.
// It is owned by one Octopus; nothing about it is process-global.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*moduleEntry
	order   []string
	sealed  bool
}

type moduleEntry struct {
	module Module
	state  ModuleState
	err    error
	// settled is closed once state becomes initialized or failed.
	settled chan struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*moduleEntry)}
}

// Register adds m. The first module registered under an id is kept.
func (r *Registry) Register(m Module) error {
	id := m.ModuleID()
	if err := id.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("register module %s: %w", id, core.ErrAlreadyInitialized)
	}
	if _, ok := r.entries[id.String()]; ok {
		return fmt.Errorf("module %s: %w", id, core.ErrModuleAlreadyRegistered)
	}
	r.entries[id.String()] = &moduleEntry{module: m, settled: make(chan struct{})}
	r.order = append(r.order, id.String())
	return nil
}

// Get returns the module registered under id.
func (r *Registry) Get(id string) (Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("module %s: %w", id, core.ErrModuleNotFound)
	}
	return e.module, nil
}

// List returns every module in registration order.
func (r *Registry) List() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Module, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.entries[id].module)
	}
	return list
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// State returns the initialization state of the module under id.
func (r *Registry) State(id string) (ModuleState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return ModuleUninitialized, fmt.Errorf("module %s: %w", id, core.ErrModuleNotFound)
	}
	return e.state, nil
}

// WaitInitialized blocks until the module under id is initialized. It
// returns the module failure if it failed, or ctx.Err().
func (r *Registry) WaitInitialized(ctx context.Context, id string) error {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("module %s: %w", id, core.ErrModuleNotFound)
	}

	select {
	case <-e.settled:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return e.err
}

// seal rejects further registrations.
func (r *Registry) seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

func (r *Registry) entry(id string) *moduleEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

// failures returns the errors of failed modules in registration order.
func (r *Registry) failures() []error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var errs []error
	for _, id := range r.order {
		if err := r.entries[id].err; err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// advance moves the module under id forward to state. Backward moves and
// moves out of a settled state are ignored and reported as false.
func (r *Registry) advance(id string, state ModuleState, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || state <= e.state || e.state >= ModuleInitialized {
		return false
	}
	e.state = state
	if state >= ModuleInitialized {
		e.err = err
		close(e.settled)
	}
	return true
}
