package core

import "errors"

var (
	// Module lifecycle errors
	ErrInvalidModuleID          = errors.New("invalid module id")
	ErrModuleAlreadyRegistered  = errors.New("module already registered")
	ErrModuleNotFound           = errors.New("module not found")
	ErrModuleRequirementsNotMet = errors.New("module requirements not met")
	ErrModuleInitFailed         = errors.New("module init failed")
	ErrInvalidVersion           = errors.New("invalid version")

	// Manager lifecycle errors
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrNotInitialized     = errors.New("not initialized")
	ErrSupportNotFound    = errors.New("support not found")
	ErrServiceNotFound    = errors.New("service not found")
	ErrInvalidServicePath = errors.New("invalid service path")

	// Network errors
	ErrNetworkNotFound      = errors.New("network not found")
	ErrNetworkAlreadyExists = errors.New("network already exists")
	ErrNotSupported         = errors.New("operation not supported by network")
	ErrContractNotFound     = errors.New("contract not found")
	ErrTokenNotFound        = errors.New("token not found")

	// Authentication errors
	ErrAuthSupportNotFound   = errors.New("auth support not found")
	ErrAuthSupportExists     = errors.New("auth support already exists")
	ErrAccountNotLogged      = errors.New("account not logged")
	ErrReadOnlyAuthenticator = errors.New("read only authenticator")
	ErrAttachmentNotFound    = errors.New("attached data not found")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrInvalidAddress        = errors.New("invalid address")

	// Session errors
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrSessionAlreadySet    = errors.New("session already set")
	ErrSessionNotSet        = errors.New("session not set")
	ErrSessionLoad          = errors.New("session load error")
	ErrInvalidSessionID     = errors.New("invalid session id")

	// Store and handle errors
	ErrKeyNotFound          = errors.New("key not found")
	ErrStoreOperationFailed = errors.New("store operation failed")
	ErrInvalidHandle        = errors.New("invalid wallet handle")
	ErrHandleExpired        = errors.New("wallet handle has expired")
)

// Kind groups errors into the categories callers usually branch on.
type Kind string

const (
	KindUnknown       Kind = "unknown"
	KindNotFound      Kind = "not_found"
	KindAlreadyExists Kind = "already_exists"
	KindNotMet        Kind = "not_met"
	KindNotSet        Kind = "not_set"
	KindLoad          Kind = "load"
	KindForbidden     Kind = "forbidden"
	KindInvalid       Kind = "invalid"
)

var kinds = []struct {
	kind Kind
	errs []error
}{
	// ErrSessionLoad wraps lookup failures during a restore, so it is checked first.
	{KindLoad, []error{ErrSessionLoad, ErrStoreOperationFailed}},
	{KindNotFound, []error{ErrModuleNotFound, ErrNetworkNotFound, ErrAuthSupportNotFound, ErrSessionNotFound, ErrSupportNotFound, ErrServiceNotFound, ErrKeyNotFound, ErrAttachmentNotFound, ErrContractNotFound, ErrTokenNotFound}},
	{KindAlreadyExists, []error{ErrModuleAlreadyRegistered, ErrAlreadyInitialized, ErrNetworkAlreadyExists, ErrAuthSupportExists, ErrSessionAlreadyExists, ErrSessionAlreadySet}},
	{KindNotMet, []error{ErrModuleRequirementsNotMet, ErrModuleInitFailed}},
	{KindNotSet, []error{ErrAccountNotLogged, ErrSessionNotSet, ErrNotInitialized}},
	{KindForbidden, []error{ErrReadOnlyAuthenticator, ErrInvalidSignature, ErrHandleExpired, ErrInvalidHandle}},
	{KindInvalid, []error{ErrInvalidModuleID, ErrInvalidVersion, ErrInvalidSessionID, ErrInvalidAddress, ErrNotSupported, ErrInvalidServicePath}},
}

// KindOf reports the category of err, looking through wrapped errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kinds {
		for _, target := range k.errs {
			if errors.Is(err, target) {
				return k.kind
			}
		}
	}
	return KindUnknown
}
