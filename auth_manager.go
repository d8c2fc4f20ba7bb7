package w3o

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/layer-3/w3o/core"
)

// AuthManager holds the auth backends and runs the login flows.
type AuthManager struct {
	logger   *zap.Logger
	networks *NetworkManager
	sessions *SessionManager

	mu         sync.RWMutex
	byName     map[string]AuthSupport
	byType     map[string][]AuthSupport
	initCalled bool
	octopus    Instance
}

// NewAuthManager creates a manager logging in on networks and opening
// sessions in sessions.
func NewAuthManager(networks *NetworkManager, sessions *SessionManager, logger *zap.Logger) *AuthManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthManager{
		logger:   logger.Named("auth"),
		networks: networks,
		sessions: sessions,
		byName:   make(map[string]AuthSupport),
		byType:   make(map[string][]AuthSupport),
	}
}

// Init closes the registration phase.
func (m *AuthManager) Init(_ context.Context, octopus Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initCalled {
		return fmt.Errorf("auth manager: %w", core.ErrAlreadyInitialized)
	}
	m.initCalled = true
	m.octopus = octopus
	m.logger.Debug("init", zap.Int("supports", len(m.byName)))
	return nil
}

// AddAuthSupport registers support by name and groups it by network type.
func (m *AuthManager) AddAuthSupport(support AuthSupport) error {
	name := support.Name()
	m.logger.Debug("add auth support", zap.String("name", name), zap.String("type", support.NetworkType()))

	if err := core.ValidateSessionPart("auth support name", name); err != nil {
		return fmt.Errorf("add auth support: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initCalled {
		return fmt.Errorf("add auth support %s: %w", name, core.ErrAlreadyInitialized)
	}
	if _, ok := m.byName[name]; ok {
		return fmt.Errorf("auth support %s: %w", name, core.ErrAuthSupportExists)
	}
	m.byName[name] = support
	m.byType[support.NetworkType()] = append(m.byType[support.NetworkType()], support)
	return nil
}

// Get returns the backend called name.
func (m *AuthManager) Get(name string) (AuthSupport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	support, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("auth support %s: %w", name, core.ErrAuthSupportNotFound)
	}
	return support, nil
}

// List returns the backends of networkType in registration order.
func (m *AuthManager) List(networkType string) []AuthSupport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]AuthSupport(nil), m.byType[networkType]...)
}

// CreateAuthenticator binds a new authenticator of backend name to network.
func (m *AuthManager) CreateAuthenticator(name string, network Network) (*Authenticator, error) {
	m.logger.Debug("create authenticator", zap.String("name", name), zap.String("network", network.Settings().Name))
	support, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	if f, ok := support.(AuthenticatorFactory); ok {
		return f.CreateAuthenticator(network), nil
	}
	return NewAuthenticator(support, network), nil
}

// Login logs in on networkName through backend authName and makes the
// resulting session current. No session is left behind on failure.
func (m *AuthManager) Login(ctx context.Context, networkName, networkType, authName string) (*Session, error) {
	m.logger.Debug("login", zap.String("network", networkName), zap.String("type", networkType), zap.String("auth", authName))
	return m.authenticate(ctx, networkName, networkType, authName, func(a *Authenticator) (*Account, error) {
		return a.Login(ctx)
	})
}

// LoginDefault logs in on the current network with the first backend of
// its type.
func (m *AuthManager) LoginDefault(ctx context.Context) (*Session, error) {
	settings, authName, err := m.defaultTarget()
	if err != nil {
		return nil, err
	}
	return m.Login(ctx, settings.Name, settings.Type, authName)
}

// AutoLoginDefault restores address on the current network with the first
// backend of its type.
func (m *AuthManager) AutoLoginDefault(ctx context.Context, address core.Address) (*Session, error) {
	settings, authName, err := m.defaultTarget()
	if err != nil {
		return nil, err
	}
	return m.AutoLogin(ctx, settings.Name, settings.Type, authName, address)
}

func (m *AuthManager) defaultTarget() (core.NetworkSettings, string, error) {
	network, err := m.networks.Current()
	if err != nil {
		return core.NetworkSettings{}, "", err
	}
	settings := network.Settings()
	supports := m.List(settings.Type)
	if len(supports) == 0 {
		return core.NetworkSettings{}, "", fmt.Errorf("no auth support for network type %s: %w", settings.Type, core.ErrAuthSupportNotFound)
	}
	return settings, supports[0].Name(), nil
}

// AutoLogin waits for the runtime to be ready and then restores address on
// networkName through backend authName.
func (m *AuthManager) AutoLogin(ctx context.Context, networkName, networkType, authName string, address core.Address) (*Session, error) {
	m.logger.Debug("auto login",
		zap.String("network", networkName), zap.String("type", networkType),
		zap.String("auth", authName), zap.String("address", string(address)))

	m.mu.RLock()
	octopus := m.octopus
	m.mu.RUnlock()
	if octopus == nil {
		return nil, fmt.Errorf("auth manager: %w", core.ErrNotInitialized)
	}
	if err := octopus.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("auto login: %w", err)
	}

	return m.authenticate(ctx, networkName, networkType, authName, func(a *Authenticator) (*Account, error) {
		return a.AutoLogin(ctx, address)
	})
}

func (m *AuthManager) authenticate(
	ctx context.Context,
	networkName, networkType, authName string,
	login func(*Authenticator) (*Account, error),
) (*Session, error) {
	support, err := m.Get(authName)
	if err != nil {
		return nil, err
	}
	if networkType != "" && support.NetworkType() != networkType {
		return nil, fmt.Errorf("auth support %s serves %s, not %s: %w",
			authName, support.NetworkType(), networkType, core.ErrAuthSupportNotFound)
	}
	network, err := m.networks.GetNetwork(networkName)
	if err != nil {
		return nil, err
	}
	authenticator, err := m.CreateAuthenticator(authName, network)
	if err != nil {
		return nil, err
	}

	account, err := login(authenticator)
	if err != nil {
		m.logger.Error("login failed", zap.String("network", networkName), zap.String("auth", authName), zap.Error(err))
		return nil, err
	}

	session, err := m.sessions.CreateCurrentSession(account.Address(), authenticator, network)
	if err != nil {
		authenticator.reset()
		m.logger.Error("create session failed", zap.String("address", string(account.Address())), zap.Error(err))
		return nil, err
	}
	m.logger.Info("logged in", zap.String("session", session.ID()))
	return session, nil
}

// Logout ends the current session. The returned channel is closed once
// the session logged out.
func (m *AuthManager) Logout(ctx context.Context) (<-chan struct{}, error) {
	session, err := m.sessions.CurrentSession()
	if err != nil {
		return nil, err
	}
	m.logger.Debug("logout", zap.String("session", session.ID()))
	if err := session.Logout(ctx); err != nil {
		m.logger.Warn("logout", zap.String("session", session.ID()), zap.Error(err))
		return session.Done(), err
	}
	return session.Done(), nil
}

// Snapshot implements Snapshotter.
func (m *AuthManager) Snapshot() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byType := make(map[string][]any, len(m.byType))
	for t, supports := range m.byType {
		for _, s := range supports {
			if sn, ok := s.(Snapshotter); ok {
				byType[t] = append(byType[t], sn.Snapshot())
				continue
			}
			byType[t] = append(byType[t], SnapshotModule(s))
		}
	}
	names := make([]string, 0, len(m.byName))
	for name := range m.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return map[string]any{"byType": byType, "byName": names}
}
