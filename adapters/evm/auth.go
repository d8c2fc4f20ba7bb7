package evm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/layer-3/w3o"
	"github.com/layer-3/w3o/core"
	"github.com/layer-3/w3o/ports"
)

// Wallet is the user wallet an Auth talks to, e.g. an injected provider
// bridged over RPC
type Wallet interface {
	// Accounts returns the addresses the wallet exposes, selected first
	Accounts(ctx context.Context) ([]string, error)

	// PersonalSign signs message with the key of address (EIP-191)
	PersonalSign(ctx context.Context, address string, message string) ([]byte, error)

	// SendTransaction signs and broadcasts trx from address
	SendTransaction(ctx context.Context, address string, trx core.Transaction) (core.TransactionResponse, error)
}

// AuthConfig configures an Auth
type AuthConfig struct {
	Name      string        // Auth support name, used in session ids
	Version   string        // Module version
	AppName   string        // Shown in the sign-in message
	ReadOnly  bool          // Refuse to sign transactions
	HandleTTL time.Duration // Lifetime of the stored wallet handle
}

// Auth logs EVM accounts in by personal-sign challenge and keeps a signed
// wallet handle in the store for auto-login
type Auth struct {
	w3o.BaseAuthSupport
	cfg       AuthConfig
	wallet    Wallet
	store     ports.Store
	tokenizer ports.HandleTokenizer
	logger    *zap.Logger
	now       func() time.Time
}

var _ w3o.AuthSupport = (*Auth)(nil)

// NewAuth creates an auth support served by wallet
func NewAuth(cfg AuthConfig, wallet Wallet, store ports.Store, tokenizer ports.HandleTokenizer, logger *zap.Logger) *Auth {
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.HandleTTL <= 0 {
		cfg.HandleTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auth{
		BaseAuthSupport: w3o.NewBaseAuthSupport(cfg.Name, NetworkType, cfg.Version, cfg.ReadOnly,
			NetworkType+".network.support@^1.0.0"),
		cfg:       cfg,
		wallet:    wallet,
		store:     store,
		tokenizer: tokenizer,
		logger:    logger.Named("evm." + cfg.Name),
		now:       time.Now,
	}
}

// HandleKey is the store key of the handle of address on network
func (a *Auth) HandleKey(network string, address core.Address) string {
	return fmt.Sprintf("handle:%s:%s:%s", a.Name(), network, common.HexToAddress(string(address)).Hex())
}

// Login runs the challenge flow and returns the checksummed address
func (a *Auth) Login(ctx context.Context, auth *w3o.Authenticator, networkName string) (core.Address, error) {
	accounts, err := a.wallet.Accounts(ctx)
	if err != nil {
		return "", fmt.Errorf("wallet accounts: %w", err)
	}
	if len(accounts) == 0 || !common.IsHexAddress(accounts[0]) {
		return "", fmt.Errorf("wallet exposes no account: %w", core.ErrInvalidAddress)
	}
	address := common.HexToAddress(accounts[0])

	now := a.now()
	challenge := NewChallenge(a.cfg.AppName, networkName, now, a.cfg.HandleTTL)
	sig, err := a.wallet.PersonalSign(ctx, address.Hex(), challenge.Message)
	if err != nil {
		return "", fmt.Errorf("personal sign: %w", err)
	}
	signer, err := RecoverAddress(challenge.Message, sig)
	if err != nil {
		return "", err
	}
	if signer != address {
		return "", fmt.Errorf("signed by %s, expected %s: %w", signer.Hex(), address.Hex(), core.ErrInvalidSignature)
	}

	handle := &core.WalletHandle{
		ID:            uuid.NewString(),
		Address:       core.Address(address.Hex()),
		Authenticator: a.Name(),
		Network:       networkName,
		IssuedAt:      now,
		ExpiresAt:     now.Add(a.cfg.HandleTTL),
	}
	if err := a.keep(ctx, handle); err != nil {
		return "", err
	}
	auth.Attach(handle)

	a.logger.Info("logged in", zap.String("address", address.Hex()), zap.String("network", networkName))
	return handle.Address, nil
}

func (a *Auth) keep(ctx context.Context, handle *core.WalletHandle) error {
	if a.store == nil || a.tokenizer == nil {
		return nil
	}
	token, err := a.tokenizer.HandleToToken(handle)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, a.HandleKey(handle.Network, handle.Address), token, a.cfg.HandleTTL)
}

// AutoLogin restores address from its stored handle
func (a *Auth) AutoLogin(ctx context.Context, auth *w3o.Authenticator, networkName string, address core.Address) (core.Address, error) {
	if !common.IsHexAddress(string(address)) {
		return "", fmt.Errorf("address %q: %w", address, core.ErrInvalidAddress)
	}
	if a.store == nil || a.tokenizer == nil {
		return "", fmt.Errorf("auto login without handle store: %w", core.ErrNotSupported)
	}

	token, err := a.store.Get(ctx, a.HandleKey(networkName, address))
	if err != nil {
		return "", fmt.Errorf("restore handle: %w", err)
	}
	handle, err := a.tokenizer.TokenToHandle(token)
	if err != nil {
		return "", err
	}
	if handle.Expired(a.now()) {
		return "", core.ErrHandleExpired
	}
	if !SameAddress(string(handle.Address), string(address)) || handle.Network != networkName || handle.Authenticator != a.Name() {
		return "", fmt.Errorf("handle issued for %s on %s by %s: %w", handle.Address, handle.Network, handle.Authenticator, core.ErrInvalidHandle)
	}
	auth.Attach(handle)

	a.logger.Info("auto logged in", zap.String("address", string(handle.Address)), zap.String("network", networkName))
	return handle.Address, nil
}

// Logout forgets the stored handle of auth
func (a *Auth) Logout(ctx context.Context, auth *w3o.Authenticator) error {
	defer auth.Detach()

	handle, err := w3o.AttachedAs[*core.WalletHandle](auth)
	if errors.Is(err, core.ErrAttachmentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if a.store == nil {
		return nil
	}
	return a.store.Delete(ctx, a.HandleKey(handle.Network, handle.Address))
}

// SignTransaction forwards trx to the wallet
func (a *Auth) SignTransaction(ctx context.Context, auth *w3o.Authenticator, trx core.Transaction) (core.TransactionResponse, error) {
	if a.IsReadOnly() {
		return core.TransactionResponse{}, core.ErrReadOnlyAuthenticator
	}
	address, err := auth.Address()
	if err != nil {
		return core.TransactionResponse{}, err
	}
	return a.wallet.SendTransaction(ctx, string(address), trx)
}
