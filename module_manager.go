package w3o

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/layer-3/w3o/core"
)

// ModuleManager resolves module requirements and drives initialization in
// dependency order.
type ModuleManager struct {
	registry *Registry
	logger   *zap.Logger

	mu         sync.Mutex
	initCalled bool
	unresolved map[string][]string
	ready      chan struct{}
	settled    chan struct{}
}

// NewModuleManager creates a manager over registry.
func NewModuleManager(registry *Registry, logger *zap.Logger) *ModuleManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleManager{
		registry:   registry,
		logger:     logger.Named("modules"),
		unresolved: make(map[string][]string),
		ready:      make(chan struct{}),
		settled:    make(chan struct{}),
	}
}

// Register adds a module to the underlying registry.
func (m *ModuleManager) Register(module Module) error {
	m.logger.Debug("register module", zap.Stringer("w3oId", module.ModuleID()))
	return m.registry.Register(module)
}

// Get returns the module registered under id.
func (m *ModuleManager) Get(id string) (Module, error) {
	return m.registry.Get(id)
}

// List returns the registered modules in registration order.
func (m *ModuleManager) List() []Module {
	return m.registry.List()
}

// State returns the initialization state of the module under id.
func (m *ModuleManager) State(id string) (ModuleState, error) {
	return m.registry.State(id)
}

// WaitInitialized blocks until the module under id is initialized.
func (m *ModuleManager) WaitInitialized(ctx context.Context, id string) error {
	return m.registry.WaitInitialized(ctx, id)
}

// Init resolves every registered module and starts its initialization.
// It does not wait for the modules; use Ready or WaitReady for that.
// ctx bounds the waiting between modules and is passed to each Init.
func (m *ModuleManager) Init(ctx context.Context, octopus Instance) error {
	m.mu.Lock()
	if m.initCalled {
		m.mu.Unlock()
		return fmt.Errorf("module manager: %w", core.ErrAlreadyInitialized)
	}
	m.initCalled = true
	m.mu.Unlock()

	m.registry.seal()
	modules := m.registry.List()
	m.logger.Debug("init", zap.Int("modules", len(modules)))

	resolved := make(map[string][]Module, len(modules))
	for _, module := range modules {
		id := module.ModuleID().String()
		deps, missing := m.resolve(module, modules)
		if len(missing) > 0 {
			err := fmt.Errorf("module %s requires %v: %w", id, missing, core.ErrModuleRequirementsNotMet)
			m.logger.Error("requirements not met", zap.String("w3oId", id), zap.Strings("missing", missing))
			m.mu.Lock()
			m.unresolved[id] = missing
			m.mu.Unlock()
			m.registry.advance(id, ModuleFailed, err)
			continue
		}
		resolved[id] = deps
	}

	for id, cycle := range findCycles(resolved) {
		delete(resolved, id)
		m.fail(id, fmt.Errorf("module %s: requirement cycle %v: %w", id, cycle, core.ErrModuleRequirementsNotMet))
	}

	for _, module := range modules {
		id := module.ModuleID().String()
		deps, ok := resolved[id]
		if !ok {
			continue
		}
		if len(deps) == 0 {
			m.registry.advance(id, ModuleInitializing, nil)
			go m.initModule(ctx, octopus, module, nil)
			continue
		}
		go m.awaitAndInit(ctx, octopus, module, deps)
	}

	go m.watch(ctx, modules)
	return nil
}

// resolve matches the requirements of module against candidates. For each
// requirement the highest satisfying version wins.
func (m *ModuleManager) resolve(module Module, candidates []Module) ([]Module, []string) {
	var deps []Module
	var missing []string
	for _, raw := range module.Requires() {
		req, err := core.ParseRequirement(raw)
		if err != nil {
			missing = append(missing, raw)
			continue
		}

		var best Module
		var bestVersion core.Version
		for _, c := range candidates {
			cid := c.ModuleID()
			if !req.Matches(cid) {
				continue
			}
			v, _ := core.ParseVersion(cid.Version)
			if best == nil || v.Compare(bestVersion) > 0 {
				best, bestVersion = c, v
			}
		}
		if best == nil {
			missing = append(missing, raw)
			continue
		}
		m.logger.Debug("requirement resolved",
			zap.Stringer("w3oId", module.ModuleID()),
			zap.String("requirement", raw),
			zap.Stringer("candidate", best.ModuleID()))
		deps = append(deps, best)
	}
	return deps, missing
}

// findCycles returns, for every module that can reach itself through its
// resolved requirements, the path back to it.
func findCycles(resolved map[string][]Module) map[string][]string {
	cycles := make(map[string][]string)
	for start := range resolved {
		seen := map[string]bool{}
		var walk func(id string, path []string) []string
		walk = func(id string, path []string) []string {
			for _, dep := range resolved[id] {
				did := dep.ModuleID().String()
				if did == start {
					return append(path, did)
				}
				if seen[did] {
					continue
				}
				seen[did] = true
				if found := walk(did, append(path, did)); found != nil {
					return found
				}
			}
			return nil
		}
		if path := walk(start, []string{start}); path != nil {
			cycles[start] = path
		}
	}
	return cycles
}

// awaitAndInit waits for every dependency to settle, checks they are all
// initialized and then initializes module.
func (m *ModuleManager) awaitAndInit(ctx context.Context, octopus Instance, module Module, deps []Module) {
	id := module.ModuleID().String()
	for _, dep := range deps {
		if err := m.registry.WaitInitialized(ctx, dep.ModuleID().String()); err != nil {
			m.fail(id, fmt.Errorf("module %s: dependency %s: %w: %w", id, dep.ModuleID(), core.ErrModuleRequirementsNotMet, err))
			return
		}
	}

	var notInitialized []string
	for _, dep := range deps {
		if state, _ := m.registry.State(dep.ModuleID().String()); state != ModuleInitialized {
			notInitialized = append(notInitialized, dep.ModuleID().String())
		}
	}
	if len(notInitialized) > 0 {
		m.fail(id, fmt.Errorf("module %s requires %v to be initialized: %w", id, notInitialized, core.ErrModuleRequirementsNotMet))
		return
	}

	m.registry.advance(id, ModuleInitializing, nil)
	m.initModule(ctx, octopus, module, deps)
}

func (m *ModuleManager) initModule(ctx context.Context, octopus Instance, module Module, deps []Module) {
	id := module.ModuleID().String()
	if init, ok := module.(Initializer); ok {
		if err := init.Init(ctx, octopus, deps); err != nil {
			m.fail(id, fmt.Errorf("module %s: %w: %w", id, core.ErrModuleInitFailed, err))
			return
		}
	}
	m.registry.advance(id, ModuleInitialized, nil)
	m.logger.Debug("module initialized", zap.String("w3oId", id))
}

func (m *ModuleManager) fail(id string, err error) {
	m.logger.Error("module failed", zap.String("w3oId", id), zap.Error(err))
	m.registry.advance(id, ModuleFailed, err)
}

// watch closes settled once every module settled, and ready if all of
// them are initialized.
func (m *ModuleManager) watch(ctx context.Context, modules []Module) {
	for _, module := range modules {
		e := m.registry.entry(module.ModuleID().String())
		select {
		case <-e.settled:
		case <-ctx.Done():
			return
		}
	}
	close(m.settled)

	if m.failures() == nil {
		m.logger.Info("module manager ready", zap.Int("modules", len(modules)))
		close(m.ready)
	}
}

func (m *ModuleManager) failures() error {
	return errors.Join(m.registry.failures()...)
}

// Ready is closed once every registered module is initialized.
func (m *ModuleManager) Ready() <-chan struct{} {
	return m.ready
}

// WaitReady blocks until every module is initialized. It returns early with
// the joined module failures once no module can make progress.
func (m *ModuleManager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-m.settled:
		select {
		case <-m.ready:
			return nil
		default:
		}
		return m.failures()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unresolved returns, per module id, the requirements nothing matched.
func (m *ModuleManager) Unresolved() map[string][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]string, len(m.unresolved))
	for id, reqs := range m.unresolved {
		out[id] = append([]string(nil), reqs...)
	}
	return out
}

// Snapshot implements Snapshotter.
func (m *ModuleManager) Snapshot() any {
	type moduleState struct {
		ModuleSnapshot
		State string `json:"state"`
	}
	modules := m.registry.List()
	out := make([]moduleState, 0, len(modules))
	for _, module := range modules {
		state, _ := m.registry.State(module.ModuleID().String())
		out = append(out, moduleState{ModuleSnapshot: SnapshotModule(module), State: state.String()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
