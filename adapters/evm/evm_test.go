package evm

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/w3o"
	"github.com/layer-3/w3o/adapters/store"
	"github.com/layer-3/w3o/adapters/tokenizer"
	"github.com/layer-3/w3o/adapters/tokens"
	"github.com/layer-3/w3o/core"
)

type keyWallet struct {
	key  *ecdsa.PrivateKey
	sent []core.Transaction
}

func newKeyWallet(t *testing.T) *keyWallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &keyWallet{key: key}
}

func (w *keyWallet) address() string {
	return crypto.PubkeyToAddress(w.key.PublicKey).Hex()
}

func (w *keyWallet) Accounts(context.Context) ([]string, error) {
	return []string{w.address()}, nil
}

func (w *keyWallet) PersonalSign(_ context.Context, _ string, message string) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), w.key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (w *keyWallet) SendTransaction(_ context.Context, _ string, trx core.Transaction) (core.TransactionResponse, error) {
	w.sent = append(w.sent, trx)
	return core.TransactionResponse{Hash: "0xfeed"}, nil
}

type fakeChain struct {
	block     uint64
	call      ethereum.CallMsg
	code      map[common.Address][]byte
	codeCalls int
}

func (c *fakeChain) BlockNumber(context.Context) (uint64, error) { return c.block, nil }

func (c *fakeChain) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.call = call
	return []byte{0x01}, nil
}

func (c *fakeChain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	c.codeCalls++
	return c.code[account], nil
}

func newTestAuth(t *testing.T, wallet Wallet, readOnly bool) (*Auth, *store.MemoryStore) {
	t.Helper()
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	s := store.NewMemoryStore()
	auth := NewAuth(AuthConfig{Name: "metamask", AppName: "w3o-test", ReadOnly: readOnly, HandleTTL: time.Hour},
		wallet, s, tokenizer.NewJWTTokenizer(signKey, "w3o-test"), nil)
	return auth, s
}

func testNetwork(chain ChainClient) *Network {
	return NewNetwork(core.NetworkSettings{Name: "sepolia", ChainID: "11155111", TokensURL: "static://sepolia", ModuleVersion: "1.0.0"}, chain,
		tokens.StaticSource{{Symbol: "ETH", Decimals: 18, System: true}})
}

func TestRecoverAddress(t *testing.T) {
	w := newKeyWallet(t)
	sig, err := w.PersonalSign(context.Background(), w.address(), "hello")
	require.NoError(t, err)

	signer, err := RecoverAddress("hello", sig)
	require.NoError(t, err)
	assert.Equal(t, w.address(), signer.Hex())

	other, err := RecoverAddress("tampered", sig)
	require.NoError(t, err)
	assert.NotEqual(t, w.address(), other.Hex())

	_, err = RecoverAddress("hello", sig[:10])
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestLoginAutoLoginLogout(t *testing.T) {
	ctx := context.Background()
	w := newKeyWallet(t)
	auth, s := newTestAuth(t, w, false)
	network := testNetwork(nil)

	a := w3o.NewAuthenticator(auth, network)
	address, err := auth.Login(ctx, a, "sepolia")
	require.NoError(t, err)
	assert.Equal(t, core.Address(w.address()), address)

	handle, err := w3o.AttachedAs[*core.WalletHandle](a)
	require.NoError(t, err)
	assert.Equal(t, "metamask", handle.Authenticator)
	assert.Equal(t, 1, s.Len())

	restored := w3o.NewAuthenticator(auth, network)
	got, err := auth.AutoLogin(ctx, restored, "sepolia", address)
	require.NoError(t, err)
	assert.Equal(t, address, got)
	restoredHandle, err := w3o.AttachedAs[*core.WalletHandle](restored)
	require.NoError(t, err)
	assert.Equal(t, handle.ID, restoredHandle.ID)

	require.NoError(t, auth.Logout(ctx, restored))
	_, err = restored.Attached()
	assert.ErrorIs(t, err, core.ErrAttachmentNotFound)

	_, err = auth.AutoLogin(ctx, w3o.NewAuthenticator(auth, network), "sepolia", address)
	assert.ErrorIs(t, err, core.ErrKeyNotFound)
}

func TestAutoLoginRejectsOtherNetwork(t *testing.T) {
	ctx := context.Background()
	w := newKeyWallet(t)
	auth, _ := newTestAuth(t, w, false)
	network := testNetwork(nil)

	address, err := auth.Login(ctx, w3o.NewAuthenticator(auth, network), "sepolia")
	require.NoError(t, err)

	_, err = auth.AutoLogin(ctx, w3o.NewAuthenticator(auth, network), "mainnet", address)
	assert.ErrorIs(t, err, core.ErrKeyNotFound)

	_, err = auth.AutoLogin(ctx, w3o.NewAuthenticator(auth, network), "sepolia", "not-hex")
	assert.ErrorIs(t, err, core.ErrInvalidAddress)
}

type wrongSigner struct{ *keyWallet }

func (w wrongSigner) Accounts(context.Context) ([]string, error) {
	return []string{"0x0000000000000000000000000000000000000001"}, nil
}

func TestLoginRejectsForeignSignature(t *testing.T) {
	auth, _ := newTestAuth(t, wrongSigner{newKeyWallet(t)}, false)
	_, err := auth.Login(context.Background(), w3o.NewAuthenticator(auth, testNetwork(nil)), "sepolia")
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestSignTransaction(t *testing.T) {
	ctx := context.Background()
	w := newKeyWallet(t)
	auth, _ := newTestAuth(t, w, false)
	a := w3o.NewAuthenticator(auth, testNetwork(nil))

	_, err := a.SignTransaction(ctx, "trx")
	assert.ErrorIs(t, err, core.ErrAccountNotLogged)

	_, err = a.Login(ctx)
	require.NoError(t, err)
	resp, err := a.SignTransaction(ctx, "trx")
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", resp.Hash)
	assert.Equal(t, []core.Transaction{"trx"}, w.sent)

	readOnly, _ := newTestAuth(t, w, true)
	_, err = w3o.NewAuthenticator(readOnly, testNetwork(nil)).SignTransaction(ctx, "trx")
	assert.ErrorIs(t, err, core.ErrReadOnlyAuthenticator)
}

func TestNetwork(t *testing.T) {
	ctx := context.Background()
	chain := &fakeChain{block: 42}
	n := testNetwork(chain)

	assert.Equal(t, NetworkType, n.Settings().Type)
	assert.Equal(t, "evm.network.sepolia@1.0.0", n.ModuleID().String())

	require.NoError(t, n.UpdateState(ctx))
	assert.Equal(t, uint64(42), n.BlockNumber())
	token, ok := n.GetToken("ETH")
	require.True(t, ok)
	assert.True(t, token.System)

	out, err := n.QueryContract(ctx, w3o.ContractQuery{Contract: "0x71C7656EC7ab88b098defB751B7401B5f6d8976F", Data: []byte{0xaa}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, out)
	assert.Equal(t, []byte{0xaa}, chain.call.Data)

	_, err = n.QueryContract(ctx, w3o.ContractQuery{Contract: "eosio.token"})
	assert.ErrorIs(t, err, core.ErrInvalidAddress)

	ok, err = n.ValidateAccount(ctx, "0x71C7656EC7ab88b098defB751B7401B5f6d8976F")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = n.ValidateAccount(ctx, "alice")
	assert.False(t, ok)

	_, err = testNetwork(nil).QueryContract(ctx, w3o.ContractQuery{})
	assert.True(t, errors.Is(err, core.ErrNotSupported))
}

func TestLocalWallet(t *testing.T) {
	ctx := context.Background()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w := NewLocalWallet(key)

	accs, err := w.Accounts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{w.Address()}, accs)

	sig, err := w.PersonalSign(ctx, strings.ToLower(w.Address()), "hello")
	require.NoError(t, err)
	signer, err := RecoverAddress("hello", sig)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), signer.Hex())

	_, err = w.PersonalSign(ctx, "0x0000000000000000000000000000000000000001", "hello")
	assert.ErrorIs(t, err, core.ErrInvalidAddress)

	_, err = w.SendTransaction(ctx, w.Address(), nil)
	assert.ErrorIs(t, err, core.ErrNotSupported)
}

func TestNetworkContracts(t *testing.T) {
	ctx := context.Background()
	usdc := common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	chain := &fakeChain{code: map[common.Address][]byte{usdc: {0x60, 0x80}}}
	n := NewNetwork(core.NetworkSettings{Name: "sepolia", TokensURL: "static://sepolia", ModuleVersion: "1.0.0"}, chain,
		tokens.StaticSource{{Symbol: "USDC", Address: usdc.Hex(), Decimals: 6}})
	require.NoError(t, n.Init(ctx, nil, nil))

	contract, err := n.Contracts().GetTokenContract(ctx, "USDC")
	require.NoError(t, err)
	assert.Equal(t, usdc.Hex(), contract.Address)
	assert.Equal(t, "USDC", contract.Name)
	assert.Equal(t, []byte{0x60, 0x80}, contract.Code)

	_, err = n.Contracts().GetContract(ctx, usdc.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, chain.codeCalls, "second lookup is served from cache")

	eoa := "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
	_, err = n.Contracts().GetContract(ctx, eoa)
	assert.ErrorIs(t, err, core.ErrContractNotFound)
	_, err = n.Contracts().GetContract(ctx, eoa)
	assert.ErrorIs(t, err, core.ErrContractNotFound)
	assert.Equal(t, 2, chain.codeCalls, "misses are cached")

	_, err = n.Contracts().GetContract(ctx, "eosio.token")
	assert.ErrorIs(t, err, core.ErrInvalidAddress)

	assert.Equal(t, []string{usdc.Hex(), eoa}, n.Contracts().Addresses())
	snap := n.Snapshot().(map[string]any)
	assert.Len(t, snap["contracts"], 1)
}
