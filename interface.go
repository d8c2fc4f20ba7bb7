package w3o

import (
	"context"

	"github.com/layer-3/w3o/core"
)

// Module is anything taking part in dependency-gated initialization
type Module interface {
	// ModuleID returns the name@version identity of the module
	ModuleID() core.ModuleID

	// Requires lists "name" or "name@range" requirements
	Requires() []string
}

// Initializer is implemented by modules that need setup once every
// requirement is initialized. A nil error marks the module initialized.
type Initializer interface {
	Init(ctx context.Context, octopus Instance, requirements []Module) error
}

// Snapshotter is implemented by anything that can describe its state
type Snapshotter interface {
	Snapshot() any
}

// Instance is the view of the orchestrator handed to modules
type Instance interface {
	Settings() core.Settings
	Networks() *NetworkManager
	Auth() *AuthManager
	Sessions() *SessionManager
	Modules() *ModuleManager
	SupportFor(networkType string) (NetworkSupport, error)
	WaitReady(ctx context.Context) error
}

// Network is a configured chain the user can authenticate against
type Network interface {
	Module

	// Settings returns the immutable network configuration
	Settings() core.NetworkSettings

	// Tokens returns the last fetched token list
	Tokens() *TokenList

	// Contracts returns the contract cache of the network
	Contracts() *ContractManager

	// UpdateState refreshes network state such as the token list
	UpdateState(ctx context.Context) error

	// QueryContract reads contract or table state
	QueryContract(ctx context.Context, query ContractQuery) ([]byte, error)

	// ValidateAccount reports whether address exists on the network
	ValidateAccount(ctx context.Context, address core.Address) (bool, error)
}

// ContractQuery describes a read against contract or table state
type ContractQuery struct {
	Contract string         // Contract account or address
	Data     []byte         // Encoded call data, for networks with call semantics
	Params   map[string]any // Backend specific parameters (table, scope, limit...)
}

// AuthSupport is a named authentication backend for one network type
type AuthSupport interface {
	Module

	// Name is the unique backend name used in session ids
	Name() string

	// NetworkType is the type of network the backend authenticates on
	NetworkType() string

	// IsReadOnly reports whether the backend refuses to sign transactions
	IsReadOnly() bool

	// Login runs the interactive login and returns the logged account
	Login(ctx context.Context, auth *Authenticator, networkName string) (core.Address, error)

	// AutoLogin restores the account of address without user interaction
	AutoLogin(ctx context.Context, auth *Authenticator, networkName string, address core.Address) (core.Address, error)

	// Logout releases whatever the backend holds for auth
	Logout(ctx context.Context, auth *Authenticator) error

	// SignTransaction asks the wallet to sign and send trx
	SignTransaction(ctx context.Context, auth *Authenticator, trx core.Transaction) (core.TransactionResponse, error)
}

// AuthenticatorFactory is implemented by auth supports that build their
// own authenticators, for instance to attach backend data up front.
// Other supports get a plain NewAuthenticator.
type AuthenticatorFactory interface {
	CreateAuthenticator(network Network) *Authenticator
}

// Service is an application module reachable by a dotted path
type Service interface {
	Module
	Path() string
}

// NetworkSupport groups the networks and auth backends of one network type
type NetworkSupport struct {
	Type     string
	Auth     []AuthSupport
	Networks []Network
}
