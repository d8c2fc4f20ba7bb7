package w3o

import "github.com/layer-3/w3o/core"

// Account is a logged address bound to the authenticator that logged it.
type Account struct {
	address       core.Address
	authenticator *Authenticator
}

// NewAccount binds address to authenticator.
func NewAccount(address core.Address, authenticator *Authenticator) *Account {
	return &Account{address: address, authenticator: authenticator}
}

// Address returns the account address.
func (a *Account) Address() core.Address { return a.address }

// Authenticator returns the authenticator holding the account.
func (a *Account) Authenticator() *Authenticator { return a.authenticator }

// Snapshot implements Snapshotter.
func (a *Account) Snapshot() any {
	return map[string]any{"address": a.address, "authenticator": a.authenticator.Name()}
}
