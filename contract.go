package w3o

import (
	"context"
	"fmt"
	"sync"

	"github.com/layer-3/w3o/core"
	"github.com/layer-3/w3o/ports"
)

// ContractManager caches the contracts of one network. Contracts are
// fetched on first request; addresses with nothing deployed are
// remembered as misses.
type ContractManager struct {
	fetcher ports.ContractFetcher
	tokens  *TokenList

	mu        sync.RWMutex
	contracts map[string]*core.Contract
	order     []string
}

// NewContractManager returns an empty cache. A nil fetcher only serves
// contracts added with AddContract.
func NewContractManager(fetcher ports.ContractFetcher, tokens *TokenList) *ContractManager {
	return &ContractManager{
		fetcher:   fetcher,
		tokens:    tokens,
		contracts: make(map[string]*core.Contract),
	}
}

// AddContract stores contract under address. A nil contract is ignored.
func (m *ContractManager) AddContract(address string, contract *core.Contract) {
	if contract == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(address, contract)
}

func (m *ContractManager) put(address string, contract *core.Contract) {
	if _, ok := m.contracts[address]; !ok {
		m.order = append(m.order, address)
	}
	m.contracts[address] = contract
}

// GetContract returns the contract at address, fetching it on a cache miss.
func (m *ContractManager) GetContract(ctx context.Context, address string) (*core.Contract, error) {
	m.mu.RLock()
	contract, cached := m.contracts[address]
	m.mu.RUnlock()
	if cached {
		if contract == nil {
			return nil, fmt.Errorf("contract %s: %w", address, core.ErrContractNotFound)
		}
		return contract, nil
	}

	if m.fetcher == nil {
		return nil, fmt.Errorf("fetch contract %s: %w", address, core.ErrNotSupported)
	}
	contract, err := m.fetcher.FetchContract(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch contract %s: %w", address, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.contracts[address]; ok && existing != nil {
		return existing, nil
	}
	m.put(address, contract)
	if contract == nil {
		return nil, fmt.Errorf("contract %s: %w", address, core.ErrContractNotFound)
	}
	return contract, nil
}

// GetTokenContract returns the contract of the token listed under symbol.
func (m *ContractManager) GetTokenContract(ctx context.Context, symbol string) (*core.Contract, error) {
	if m.tokens == nil {
		return nil, fmt.Errorf("token %s: %w", symbol, core.ErrTokenNotFound)
	}
	token, ok := m.tokens.Get(symbol)
	if !ok || token.Address == "" {
		return nil, fmt.Errorf("token %s: %w", symbol, core.ErrTokenNotFound)
	}
	return m.GetContract(ctx, token.Address)
}

// List returns the cached contracts in insertion order, skipping misses.
func (m *ContractManager) List() []core.Contract {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Contract, 0, len(m.order))
	for _, address := range m.order {
		if c := m.contracts[address]; c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// Addresses returns every address looked up so far, misses included.
func (m *ContractManager) Addresses() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Snapshot implements Snapshotter.
func (m *ContractManager) Snapshot() any {
	return map[string]any{"contracts": m.List()}
}
