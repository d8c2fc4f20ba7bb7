package w3o

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/w3o/core"
)

type mapFetcher struct {
	contracts map[string]*core.Contract
	err       error
	calls     int
}

func (f *mapFetcher) FetchContract(_ context.Context, address string) (*core.Contract, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.contracts[address], nil
}

func TestContractManagerCachesFetches(t *testing.T) {
	ctx := context.Background()
	fetcher := &mapFetcher{contracts: map[string]*core.Contract{
		"eosio.token": {Address: "eosio.token", Name: "token"},
	}}
	m := NewContractManager(fetcher, nil)

	contract, err := m.GetContract(ctx, "eosio.token")
	require.NoError(t, err)
	assert.Equal(t, "token", contract.Name)
	again, err := m.GetContract(ctx, "eosio.token")
	require.NoError(t, err)
	assert.Same(t, contract, again)
	assert.Equal(t, 1, fetcher.calls)

	_, err = m.GetContract(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrContractNotFound)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
	_, err = m.GetContract(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrContractNotFound)
	assert.Equal(t, 2, fetcher.calls, "a miss is fetched once")

	assert.Equal(t, []string{"eosio.token", "nobody"}, m.Addresses())
	require.Len(t, m.List(), 1)
	assert.Equal(t, "eosio.token", m.List()[0].Address)
}

func TestContractManagerFetchErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	fetcher := &mapFetcher{err: errors.New("rpc down")}
	m := NewContractManager(fetcher, nil)

	_, err := m.GetContract(ctx, "eosio.token")
	assert.ErrorContains(t, err, "rpc down")
	assert.Empty(t, m.Addresses())

	fetcher.err = nil
	fetcher.contracts = map[string]*core.Contract{"eosio.token": {Address: "eosio.token"}}
	_, err = m.GetContract(ctx, "eosio.token")
	assert.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestContractManagerWithoutFetcher(t *testing.T) {
	ctx := context.Background()
	m := NewContractManager(nil, nil)

	_, err := m.GetContract(ctx, "eosio.token")
	assert.ErrorIs(t, err, core.ErrNotSupported)

	m.AddContract("eosio.token", &core.Contract{Address: "eosio.token", Name: "token"})
	m.AddContract("ignored", nil)
	contract, err := m.GetContract(ctx, "eosio.token")
	require.NoError(t, err)
	assert.Equal(t, "token", contract.Name)
	assert.Equal(t, []string{"eosio.token"}, m.Addresses())
}

func TestGetTokenContract(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokenList(nil, "")
	tokens.Set([]core.Token{
		{Symbol: "TLOS", Address: "eosio.token", Decimals: 4, System: true},
		{Symbol: "NOADDR"},
	})
	fetcher := &mapFetcher{contracts: map[string]*core.Contract{
		"eosio.token": {Address: "eosio.token", Name: "token"},
	}}
	m := NewContractManager(fetcher, tokens)

	contract, err := m.GetTokenContract(ctx, "TLOS")
	require.NoError(t, err)
	assert.Equal(t, "eosio.token", contract.Address)

	_, err = m.GetTokenContract(ctx, "USDT")
	assert.ErrorIs(t, err, core.ErrTokenNotFound)
	_, err = m.GetTokenContract(ctx, "NOADDR")
	assert.ErrorIs(t, err, core.ErrTokenNotFound)
}

func TestBaseNetworkContracts(t *testing.T) {
	ctx := context.Background()
	n := NewBaseNetwork(core.NetworkSettings{Type: "antelope", Name: "telos", ModuleVersion: "1.0.0"}, nil)
	_, err := n.Contracts().GetContract(ctx, "eosio.token")
	assert.ErrorIs(t, err, core.ErrNotSupported)

	fetcher := &mapFetcher{contracts: map[string]*core.Contract{"eosio.token": {Address: "eosio.token"}}}
	n.WithContracts(fetcher)
	_, err = n.Contracts().GetContract(ctx, "eosio.token")
	require.NoError(t, err)

	snap := n.Snapshot().(map[string]any)
	assert.Len(t, snap["contracts"], 1)
}
