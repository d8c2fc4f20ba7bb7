package evm

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/layer-3/w3o/core"
)

// NewChallenge builds the sign-in message the wallet signs for network
func NewChallenge(appName, network string, now time.Time, ttl time.Duration) core.Challenge {
	nonce := uuid.NewString()
	return core.Challenge{
		ID:      uuid.NewString(),
		Network: network,
		Nonce:   nonce,
		Message: fmt.Sprintf("%s wants you to sign in on %s.\n\nNonce: %s\nIssued At: %s",
			appName, network, nonce, now.UTC().Format(time.RFC3339)),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// RecoverAddress returns the signer of an EIP-191 personal_sign signature
// over message
func RecoverAddress(message string, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes: %w", crypto.SignatureLength, core.ErrInvalidSignature)
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	// Wallets return v as 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", core.ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SameAddress compares two hex addresses ignoring checksum case
func SameAddress(a, b string) bool {
	if !common.IsHexAddress(a) || !common.IsHexAddress(b) {
		return strings.EqualFold(a, b)
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}
