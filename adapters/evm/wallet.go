package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/layer-3/w3o/core"
)

// LocalWallet signs with a private key held in process. It never sends
// transactions.
type LocalWallet struct {
	key *ecdsa.PrivateKey
}

var _ Wallet = (*LocalWallet)(nil)

// NewLocalWallet wraps key
func NewLocalWallet(key *ecdsa.PrivateKey) *LocalWallet {
	return &LocalWallet{key: key}
}

// Address returns the checksummed address of the key
func (w *LocalWallet) Address() string {
	return crypto.PubkeyToAddress(w.key.PublicKey).Hex()
}

// Accounts implements Wallet
func (w *LocalWallet) Accounts(context.Context) ([]string, error) {
	return []string{w.Address()}, nil
}

// PersonalSign implements Wallet
func (w *LocalWallet) PersonalSign(_ context.Context, address string, message string) ([]byte, error) {
	if !SameAddress(address, w.Address()) {
		return nil, fmt.Errorf("sign for %s: %w", address, core.ErrInvalidAddress)
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), w.key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SendTransaction implements Wallet
func (w *LocalWallet) SendTransaction(context.Context, string, core.Transaction) (core.TransactionResponse, error) {
	return core.TransactionResponse{}, fmt.Errorf("local wallet: %w", core.ErrNotSupported)
}
