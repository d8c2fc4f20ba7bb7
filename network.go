package w3o

import (
	"context"
	"fmt"

	"github.com/layer-3/w3o/core"
	"github.com/layer-3/w3o/ports"
)

// BaseNetwork implements Network for networks without contract state.
// Concrete networks embed it and override what their chain supports.
type BaseNetwork struct {
	settings  core.NetworkSettings
	tokens    *TokenList
	contracts *ContractManager
}

var _ Network = (*BaseNetwork)(nil)

// NewBaseNetwork returns a network for settings whose tokens are fetched
// from settings.TokensURL through source.
func NewBaseNetwork(settings core.NetworkSettings, source ports.TokenSource) *BaseNetwork {
	tokens := NewTokenList(source, settings.TokensURL)
	return &BaseNetwork{settings: settings, tokens: tokens, contracts: NewContractManager(nil, tokens)}
}

// WithContracts makes the network fetch unknown contracts through fetcher.
// It must be called before the network is shared.
func (n *BaseNetwork) WithContracts(fetcher ports.ContractFetcher) *BaseNetwork {
	n.contracts = NewContractManager(fetcher, n.tokens)
	return n
}

// ModuleID implements Module.
func (n *BaseNetwork) ModuleID() core.ModuleID { return n.settings.ModuleID() }

// Requires implements Module.
func (n *BaseNetwork) Requires() []string {
	return append([]string(nil), n.settings.ModuleRequires...)
}

// Settings implements Network.
func (n *BaseNetwork) Settings() core.NetworkSettings { return n.settings }

// Type returns the network type.
func (n *BaseNetwork) Type() string { return n.settings.Type }

// Name returns the network name.
func (n *BaseNetwork) Name() string { return n.settings.Name }

// Tokens implements Network.
func (n *BaseNetwork) Tokens() *TokenList { return n.tokens }

// Contracts implements Network.
func (n *BaseNetwork) Contracts() *ContractManager { return n.contracts }

// GetToken looks a token up by symbol or address.
func (n *BaseNetwork) GetToken(symbolOrAddress string) (core.Token, bool) {
	return n.tokens.Get(symbolOrAddress)
}

// Init implements Initializer by loading the token list.
func (n *BaseNetwork) Init(ctx context.Context, _ Instance, _ []Module) error {
	if _, err := n.tokens.Load(ctx); err != nil {
		return fmt.Errorf("network %s: %w", n.settings.Name, err)
	}
	return nil
}

// UpdateState implements Network by reloading the token list.
func (n *BaseNetwork) UpdateState(ctx context.Context) error {
	if _, err := n.tokens.Load(ctx); err != nil {
		return fmt.Errorf("network %s: %w", n.settings.Name, err)
	}
	return nil
}

// QueryContract implements Network.
func (n *BaseNetwork) QueryContract(context.Context, ContractQuery) ([]byte, error) {
	return nil, fmt.Errorf("query contract on %s: %w", n.settings.Name, core.ErrNotSupported)
}

// ValidateAccount implements Network. Networks without account
// registration accept every address.
func (n *BaseNetwork) ValidateAccount(context.Context, core.Address) (bool, error) {
	return true, nil
}

// Snapshot implements Snapshotter.
func (n *BaseNetwork) Snapshot() any {
	return map[string]any{
		"module":    SnapshotModule(n),
		"settings":  n.settings,
		"tokens":    n.tokens.List(),
		"contracts": n.contracts.List(),
	}
}
