package core

import "time"

// Address is an account address as the network spells it.
type Address string

// Transaction is a network-specific transaction payload.
type Transaction interface{}

// TransactionResponse is returned once a wallet accepted a transaction.
type TransactionResponse struct {
	Hash string // Transaction hash or id reported by the wallet
}

// Challenge represents a sign-in challenge presented to a wallet
type Challenge struct {
	ID        string    // Unique identifier for the challenge
	Network   string    // Network the user signs in to
	Nonce     string    // Random nonce embedded in the message
	Message   string    // Exact text the wallet signs
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge expires
}

// WalletHandle is the restorable artifact a backend keeps for a logged account
type WalletHandle struct {
	ID            string    // Unique handle identifier
	Address       Address   // Address of the logged account
	Authenticator string    // Name of the auth support that issued it
	Network       string    // Network the account logged in to
	IssuedAt      time.Time // When the handle was issued
	ExpiresAt     time.Time // When auto-login stops accepting it
}

// Expired reports whether the handle is past its expiry at now.
func (h WalletHandle) Expired(now time.Time) bool {
	return !h.ExpiresAt.IsZero() && now.After(h.ExpiresAt)
}
