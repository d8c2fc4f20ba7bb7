package w3o

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/layer-3/w3o/core"
	"github.com/layer-3/w3o/ports"
)

// NetworkManager holds the configured networks and the current selection.
type NetworkManager struct {
	logger    *zap.Logger
	publisher ports.EventPublisher

	mu         sync.RWMutex
	networks   []Network
	initCalled bool

	current *State[string]
}

// NewNetworkManager creates an empty manager. publisher may be nil.
func NewNetworkManager(publisher ports.EventPublisher, logger *zap.Logger) *NetworkManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NetworkManager{
		logger:    logger.Named("networks"),
		publisher: publisher,
		current:   NewState(""),
	}
}

// Init closes the registration phase.
func (m *NetworkManager) Init(context.Context, Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initCalled {
		return fmt.Errorf("network manager: %w", core.ErrAlreadyInitialized)
	}
	m.initCalled = true
	m.logger.Debug("init", zap.Int("networks", len(m.networks)))
	return nil
}

// AddNetwork registers network. It fails once the manager is initialized,
// when a network with the same name exists, or when the name cannot be
// part of a session id.
func (m *NetworkManager) AddNetwork(network Network) error {
	name := network.Settings().Name
	m.logger.Debug("add network", zap.String("name", name), zap.String("type", network.Settings().Type))

	if err := core.ValidateSessionPart("network name", name); err != nil {
		return fmt.Errorf("add network: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initCalled {
		return fmt.Errorf("add network %s: %w", name, core.ErrAlreadyInitialized)
	}
	for _, n := range m.networks {
		if n.Settings().Name == name {
			return fmt.Errorf("network %s: %w", name, core.ErrNetworkAlreadyExists)
		}
	}
	m.networks = append(m.networks, network)
	return nil
}

// GetNetwork returns the network called name.
func (m *NetworkManager) GetNetwork(name string) (Network, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.networks {
		if n.Settings().Name == name {
			return n, nil
		}
	}
	return nil, fmt.Errorf("network %s: %w", name, core.ErrNetworkNotFound)
}

// List returns the networks in registration order.
func (m *NetworkManager) List() []Network {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Network(nil), m.networks...)
}

// SetCurrentNetwork selects the network called name. Change listeners run
// before it returns; the change is then published.
func (m *NetworkManager) SetCurrentNetwork(ctx context.Context, name string) error {
	m.logger.Debug("set current network", zap.String("name", name))
	if _, err := m.GetNetwork(name); err != nil {
		return err
	}
	m.current.Set(name)

	if m.publisher != nil {
		if err := m.publisher.PublishNetworkChange(ctx, name); err != nil {
			m.logger.Warn("publish network change failed", zap.String("name", name), zap.Error(err))
		}
	}
	return nil
}

// CurrentNetworkName returns the selected network name, or "".
func (m *NetworkManager) CurrentNetworkName() string {
	return m.current.Get()
}

// Current returns the selected network.
func (m *NetworkManager) Current() (Network, error) {
	name := m.current.Get()
	if name == "" {
		return nil, fmt.Errorf("no current network: %w", core.ErrNetworkNotFound)
	}
	return m.GetNetwork(name)
}

// OnChange registers fn for every future network selection.
func (m *NetworkManager) OnChange(fn func(name string)) (cancel func()) {
	return m.current.OnChange(fn)
}

// Subscribe streams the current network name, starting with the present one.
func (m *NetworkManager) Subscribe(ctx context.Context) <-chan string {
	return m.current.Subscribe(ctx)
}

// UpdateState refreshes every network in parallel and returns the first
// error.
func (m *NetworkManager) UpdateState(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, n := range m.List() {
		g.Go(func() error {
			if err := n.UpdateState(ctx); err != nil {
				m.logger.Error("update network state", zap.String("name", n.Settings().Name), zap.Error(err))
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Snapshot implements Snapshotter.
func (m *NetworkManager) Snapshot() any {
	networks := m.List()
	list := make([]any, 0, len(networks))
	for _, n := range networks {
		if s, ok := n.(Snapshotter); ok {
			list = append(list, s.Snapshot())
			continue
		}
		list = append(list, n.Settings())
	}
	return map[string]any{
		"networks":           list,
		"currentNetworkName": m.CurrentNetworkName(),
	}
}
