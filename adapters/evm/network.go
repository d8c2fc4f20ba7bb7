package evm

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/w3o"
	"github.com/layer-3/w3o/core"
	"github.com/layer-3/w3o/ports"
)

// NetworkType is the network type served by this package
const NetworkType = "evm"

// ChainClient is the part of an RPC client the network reads from.
// *ethclient.Client satisfies it.
type ChainClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// Network is an EVM chain reachable through a ChainClient
type Network struct {
	*w3o.BaseNetwork
	client ChainClient
	block  atomic.Uint64
}

var _ w3o.Network = (*Network)(nil)

// NewNetwork creates an EVM network. settings.Type is forced to "evm".
func NewNetwork(settings core.NetworkSettings, client ChainClient, source ports.TokenSource) *Network {
	settings.Type = NetworkType
	n := &Network{BaseNetwork: w3o.NewBaseNetwork(settings, source), client: client}
	n.WithContracts(n)
	return n
}

// BlockNumber returns the last block seen by UpdateState
func (n *Network) BlockNumber() uint64 {
	return n.block.Load()
}

// UpdateState reloads the token list and records the latest block
func (n *Network) UpdateState(ctx context.Context) error {
	if err := n.BaseNetwork.UpdateState(ctx); err != nil {
		return err
	}
	if n.client == nil {
		return nil
	}
	block, err := n.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("network %s: block number: %w", n.Name(), err)
	}
	n.block.Store(block)
	return nil
}

// QueryContract performs an eth_call of query.Data against query.Contract
// at the latest block, or at Params["block"] when it holds a *big.Int
func (n *Network) QueryContract(ctx context.Context, query w3o.ContractQuery) ([]byte, error) {
	if n.client == nil {
		return nil, fmt.Errorf("network %s has no rpc client: %w", n.Name(), core.ErrNotSupported)
	}
	if !common.IsHexAddress(query.Contract) {
		return nil, fmt.Errorf("contract %q: %w", query.Contract, core.ErrInvalidAddress)
	}

	to := common.HexToAddress(query.Contract)
	var block *big.Int
	if b, ok := query.Params["block"].(*big.Int); ok {
		block = b
	}
	out, err := n.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: query.Data}, block)
	if err != nil {
		return nil, fmt.Errorf("network %s: call %s: %w", n.Name(), to.Hex(), err)
	}
	return out, nil
}

// FetchContract implements ports.ContractFetcher. Accounts without code
// yield a nil contract. Listed tokens lend the contract their symbol.
func (n *Network) FetchContract(ctx context.Context, address string) (*core.Contract, error) {
	if n.client == nil {
		return nil, fmt.Errorf("network %s has no rpc client: %w", n.Name(), core.ErrNotSupported)
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("contract %q: %w", address, core.ErrInvalidAddress)
	}

	account := common.HexToAddress(address)
	code, err := n.client.CodeAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("network %s: code at %s: %w", n.Name(), account.Hex(), err)
	}
	if len(code) == 0 {
		return nil, nil
	}

	contract := &core.Contract{Address: account.Hex(), Code: code}
	for _, token := range n.Tokens().List() {
		if common.IsHexAddress(token.Address) && common.HexToAddress(token.Address) == account {
			contract.Name = token.Symbol
			break
		}
	}
	return contract, nil
}

// ValidateAccount reports whether address is a hex EVM address
func (n *Network) ValidateAccount(_ context.Context, address core.Address) (bool, error) {
	return common.IsHexAddress(string(address)), nil
}

// Snapshot implements w3o.Snapshotter
func (n *Network) Snapshot() any {
	snap := n.BaseNetwork.Snapshot().(map[string]any)
	snap["block"] = n.BlockNumber()
	return snap
}
