package w3o

import (
	"context"
	"fmt"
	"sync"

	"github.com/layer-3/w3o/core"
)

// AuthState is the authentication state of an Authenticator.
type AuthState int

const (
	// AuthAnonymous holds no account and no session.
	AuthAnonymous AuthState = iota
	// AuthAuthenticating has a login in flight, or an account still
	// waiting for its session.
	AuthAuthenticating
	// AuthAuthenticated holds both an account and a session.
	AuthAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case AuthAnonymous:
		return "anonymous"
	case AuthAuthenticating:
		return "authenticating"
	case AuthAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Authenticator binds an AuthSupport to a Network for one login. It holds
// at most one Account, at most one Session and one attached data slot.
type Authenticator struct {
	support AuthSupport
	network Network

	mu       sync.RWMutex
	account  *Account
	session  *Session
	inFlight bool
	attached any

	sessionChange *State[string]
}

// NewAuthenticator returns an anonymous authenticator of support on network.
func NewAuthenticator(support AuthSupport, network Network) *Authenticator {
	return &Authenticator{support: support, network: network, sessionChange: NewState("")}
}

// Support returns the backend of the authenticator.
func (a *Authenticator) Support() AuthSupport { return a.support }

// Network returns the network the authenticator logs in to.
func (a *Authenticator) Network() Network { return a.network }

// Name returns the name of the backend.
func (a *Authenticator) Name() string { return a.support.Name() }

// Type returns the network type of the backend.
func (a *Authenticator) Type() string { return a.support.NetworkType() }

// IsReadOnly reports whether the backend refuses to sign.
func (a *Authenticator) IsReadOnly() bool { return a.support.IsReadOnly() }

// State returns the current authentication state.
func (a *Authenticator) State() AuthState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stateLocked()
}

// IsLogged reports whether an account is held.
func (a *Authenticator) IsLogged() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.account != nil
}

// Account returns the logged account.
func (a *Authenticator) Account() (*Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.account == nil {
		return nil, fmt.Errorf("authenticator %s: %w", a.Name(), core.ErrAccountNotLogged)
	}
	return a.account, nil
}

// Address returns the address of the logged account.
func (a *Authenticator) Address() (core.Address, error) {
	account, err := a.Account()
	if err != nil {
		return "", err
	}
	return account.Address(), nil
}

// Session returns the session bound to the authenticator.
func (a *Authenticator) Session() (*Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return nil, fmt.Errorf("authenticator %s: %w", a.Name(), core.ErrSessionNotSet)
	}
	return a.session, nil
}

// SessionID returns the id of the bound session, or "".
func (a *Authenticator) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionIDLocked()
}

// OnSessionChange registers fn for every session bound or released.
// Released sessions are reported as "".
func (a *Authenticator) OnSessionChange(fn func(sessionID string)) (cancel func()) {
	return a.sessionChange.OnChange(fn)
}

func (a *Authenticator) setSession(session *Session) error {
	a.mu.Lock()
	if a.session != nil {
		a.mu.Unlock()
		return fmt.Errorf("authenticator %s has session %s: %w", a.Name(), a.session.ID(), core.ErrSessionAlreadySet)
	}
	a.session = session
	a.mu.Unlock()

	a.sessionChange.Set(session.ID())
	return nil
}

// restore sets the account of a session rebuilt from storage.
func (a *Authenticator) restore(address core.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil {
		a.account = NewAccount(address, a)
	}
}

// Login runs the interactive login of the backend.
func (a *Authenticator) Login(ctx context.Context) (*Account, error) {
	return a.authenticate(ctx, func() (core.Address, error) {
		return a.support.Login(ctx, a, a.network.Settings().Name)
	})
}

// AutoLogin restores address through the backend without interaction.
func (a *Authenticator) AutoLogin(ctx context.Context, address core.Address) (*Account, error) {
	return a.authenticate(ctx, func() (core.Address, error) {
		return a.support.AutoLogin(ctx, a, a.network.Settings().Name, address)
	})
}

func (a *Authenticator) authenticate(ctx context.Context, login func() (core.Address, error)) (*Account, error) {
	a.mu.Lock()
	a.inFlight = true
	a.mu.Unlock()

	address, err := login()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.inFlight = false
	if err != nil {
		if a.session == nil {
			a.account = nil
		}
		return nil, fmt.Errorf("%s login on %s: %w", a.Name(), a.network.Settings().Name, err)
	}
	a.account = NewAccount(address, a)
	return a.account, nil
}

// reset drops the account of a login whose session could not be created.
func (a *Authenticator) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		a.account = nil
	}
}

// Logout ends the bound session, or releases the backend if there is none.
func (a *Authenticator) Logout(ctx context.Context) error {
	a.mu.RLock()
	session := a.session
	a.mu.RUnlock()
	if session != nil {
		return session.Logout(ctx)
	}
	return a.release(ctx)
}

// release logs the backend out and returns the authenticator to anonymous.
func (a *Authenticator) release(ctx context.Context) error {
	err := a.support.Logout(ctx, a)

	a.mu.Lock()
	hadSession := a.session != nil
	a.account = nil
	a.session = nil
	a.mu.Unlock()

	if hadSession {
		a.sessionChange.Set("")
	}
	if err != nil {
		return fmt.Errorf("%s logout: %w", a.Name(), err)
	}
	return nil
}

// SignTransaction asks the backend to sign and send trx.
func (a *Authenticator) SignTransaction(ctx context.Context, trx core.Transaction) (core.TransactionResponse, error) {
	if a.IsReadOnly() {
		return core.TransactionResponse{}, fmt.Errorf("authenticator %s: %w", a.Name(), core.ErrReadOnlyAuthenticator)
	}
	if !a.IsLogged() {
		return core.TransactionResponse{}, fmt.Errorf("authenticator %s: %w", a.Name(), core.ErrAccountNotLogged)
	}
	return a.support.SignTransaction(ctx, a, trx)
}

// Attach stores backend data in the attached slot, replacing what was there.
func (a *Authenticator) Attach(data any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attached = data
}

// Attached returns the attached data.
func (a *Authenticator) Attached() (any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.attached == nil {
		return nil, fmt.Errorf("authenticator %s: %w", a.Name(), core.ErrAttachmentNotFound)
	}
	return a.attached, nil
}

// Detach empties the attached slot.
func (a *Authenticator) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attached = nil
}

// AttachedAs returns the attached data of a as T.
func AttachedAs[T any](a *Authenticator) (T, error) {
	var zero T
	data, err := a.Attached()
	if err != nil {
		return zero, err
	}
	v, ok := data.(T)
	if !ok {
		return zero, fmt.Errorf("authenticator %s: attached %T: %w", a.Name(), data, core.ErrAttachmentNotFound)
	}
	return v, nil
}

// Snapshot implements Snapshotter.
func (a *Authenticator) Snapshot() any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var account any
	if a.account != nil {
		account = a.account.address
	}
	return map[string]any{
		"name":      a.Name(),
		"type":      a.Type(),
		"network":   a.network.Settings().Name,
		"state":     a.stateLocked().String(),
		"account":   account,
		"sessionId": a.sessionIDLocked(),
		"attached":  a.attached != nil,
	}
}

func (a *Authenticator) stateLocked() AuthState {
	switch {
	case a.account != nil && a.session != nil:
		return AuthAuthenticated
	case a.inFlight || a.account != nil:
		return AuthAuthenticating
	default:
		return AuthAnonymous
	}
}

func (a *Authenticator) sessionIDLocked() string {
	if a.session == nil {
		return ""
	}
	return a.session.ID()
}
