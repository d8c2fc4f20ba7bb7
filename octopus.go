package w3o

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/layer-3/w3o/core"
	"github.com/layer-3/w3o/ports"
)

// ConceptVersion is the version of the concept modules registered per
// network type.
const ConceptVersion = "1.0.0"

// Options are the collaborators of an Octopus. Every field is optional.
type Options struct {
	Store     ports.Store
	Publisher ports.EventPublisher
	Logger    *zap.Logger
}

// Octopus owns the module registry and the managers of one runtime.
type Octopus struct {
	logger   *zap.Logger
	registry *Registry
	modules  *ModuleManager
	networks *NetworkManager
	auth     *AuthManager
	sessions *SessionManager

	mu          sync.RWMutex
	initialized bool
	settings    core.Settings
	supports    map[string]NetworkSupport
	pending     []Service
	services    *ServiceTree
}

var _ Instance = (*Octopus)(nil)

// New wires a runtime around opts.
func New(opts Options) *Octopus {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := NewRegistry()
	networks := NewNetworkManager(opts.Publisher, logger)
	sessions := NewSessionManager(opts.Store, opts.Publisher, logger)
	return &Octopus{
		logger:   logger.Named("octopus"),
		registry: registry,
		modules:  NewModuleManager(registry, logger),
		networks: networks,
		auth:     NewAuthManager(networks, sessions, logger),
		sessions: sessions,
		settings: core.DefaultSettings(),
		supports: make(map[string]NetworkSupport),
	}
}

// AddNetworkSupport registers the networks and auth backends of one
// network type, plus its concept modules. The first network becomes
// current when none is selected.
func (o *Octopus) AddNetworkSupport(ctx context.Context, support NetworkSupport) error {
	o.logger.Debug("add network support",
		zap.String("type", support.Type),
		zap.Int("networks", len(support.Networks)),
		zap.Int("auth", len(support.Auth)))

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		return fmt.Errorf("add network support %s: %w", support.Type, core.ErrAlreadyInitialized)
	}

	for _, network := range support.Networks {
		if err := o.networks.AddNetwork(network); err != nil {
			return err
		}
		if network.ModuleID().Version == "" {
			o.logger.Info("network has no module version, not registered as module",
				zap.String("network", network.Settings().Name))
			continue
		}
		if err := o.modules.Register(network); err != nil {
			return fmt.Errorf("network %s: %w", network.Settings().Name, err)
		}
	}
	for _, auth := range support.Auth {
		if err := o.auth.AddAuthSupport(auth); err != nil {
			return err
		}
		if err := o.modules.Register(auth); err != nil {
			return fmt.Errorf("auth support %s: %w", auth.Name(), err)
		}
	}

	networkConcept := support.Type + ".network.support"
	authConcept := support.Type + ".auth.support"
	var global []string
	if len(support.Networks) > 0 {
		if err := o.modules.Register(NewModuleConcept(networkConcept, ConceptVersion, support)); err != nil {
			return err
		}
		global = append(global, networkConcept)
	}
	if len(support.Auth) > 0 {
		if err := o.modules.Register(NewModuleConcept(authConcept, ConceptVersion, support.Auth, networkConcept)); err != nil {
			return err
		}
		global = append(global, authConcept)
	}
	if err := o.modules.Register(NewModuleConcept(support.Type+".global.support", ConceptVersion, support, global...)); err != nil {
		return err
	}

	o.supports[support.Type] = support
	if o.networks.CurrentNetworkName() == "" && len(support.Networks) > 0 {
		return o.networks.SetCurrentNetwork(ctx, support.Networks[0].Settings().Name)
	}
	return nil
}

// RegisterServices registers application services before Init.
func (o *Octopus) RegisterServices(services ...Service) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		return fmt.Errorf("register services: %w", core.ErrAlreadyInitialized)
	}
	for _, s := range services {
		if _, err := splitPath(s.Path()); err != nil {
			return err
		}
		if err := o.modules.Register(s); err != nil {
			return fmt.Errorf("service %s: %w", s.Path(), err)
		}
		o.logger.Debug("register service", zap.String("path", s.Path()), zap.Stringer("w3oId", s.ModuleID()))
		o.pending = append(o.pending, s)
	}
	return nil
}

// Init initializes the managers and starts module initialization. It can
// only be called once.
func (o *Octopus) Init(ctx context.Context, settings core.Settings) error {
	o.mu.Lock()
	if o.initialized {
		o.mu.Unlock()
		return fmt.Errorf("octopus: %w", core.ErrAlreadyInitialized)
	}
	services, err := NewServiceTree(o.pending...)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.initialized = true
	o.settings = settings
	o.services = services
	o.mu.Unlock()

	o.logger.Info("init",
		zap.String("appName", settings.AppName),
		zap.Bool("multiSession", settings.MultiSession),
		zap.Bool("autoLogin", settings.AutoLogin))

	if err := o.networks.Init(ctx, o); err != nil {
		return err
	}
	if err := o.auth.Init(ctx, o); err != nil {
		return err
	}
	if err := o.sessions.Init(ctx, o); err != nil {
		return err
	}
	return o.modules.Init(ctx, o)
}

// Boot initializes the runtime, waits for every module and restores the
// persisted sessions.
func (o *Octopus) Boot(ctx context.Context, settings core.Settings) error {
	if err := o.Init(ctx, settings); err != nil {
		return err
	}
	if err := o.WaitReady(ctx); err != nil {
		return err
	}
	return o.sessions.LoadSessions(ctx)
}

// Initialized reports whether Init was called.
func (o *Octopus) Initialized() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.initialized
}

// Ready is closed once every module is initialized.
func (o *Octopus) Ready() <-chan struct{} {
	return o.modules.Ready()
}

// WaitReady implements Instance.
func (o *Octopus) WaitReady(ctx context.Context) error {
	if !o.Initialized() {
		return fmt.Errorf("octopus: %w", core.ErrNotInitialized)
	}
	return o.modules.WaitReady(ctx)
}

// Settings implements Instance.
func (o *Octopus) Settings() core.Settings {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.settings
}

// Networks implements Instance.
func (o *Octopus) Networks() *NetworkManager { return o.networks }

// Auth implements Instance.
func (o *Octopus) Auth() *AuthManager { return o.auth }

// Sessions implements Instance.
func (o *Octopus) Sessions() *SessionManager { return o.sessions }

// Modules implements Instance.
func (o *Octopus) Modules() *ModuleManager { return o.modules }

// SupportFor implements Instance.
func (o *Octopus) SupportFor(networkType string) (NetworkSupport, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	support, ok := o.supports[networkType]
	if !ok {
		return NetworkSupport{}, fmt.Errorf("network type %s: %w", networkType, core.ErrSupportNotFound)
	}
	return support, nil
}

// Services returns the service tree built at Init.
func (o *Octopus) Services() (*ServiceTree, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.services == nil {
		return nil, fmt.Errorf("services: %w", core.ErrNotInitialized)
	}
	return o.services, nil
}

// Snapshot describes the whole runtime. It fails before Init.
func (o *Octopus) Snapshot() (map[string]any, error) {
	services, err := o.Services()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", core.ErrNotInitialized)
	}
	return map[string]any{
		"settings": o.Settings(),
		"modules":  o.modules.Snapshot(),
		"auth":     o.auth.Snapshot(),
		"networks": o.networks.Snapshot(),
		"sessions": o.sessions.Snapshot(),
		"services": services.Snapshot(),
	}, nil
}
