package core

import (
	"fmt"
	"strings"
)

// SessionIDSeparator joins the parts of a session id.
const SessionIDSeparator = "--"

// SessionKey is the (address, authenticator, network) triple behind a session id.
type SessionKey struct {
	Address       Address
	Authenticator string
	Network       string
}

// ValidateSessionPart checks that value can be one part of a session id.
// It must be non-empty, must not contain the separator and must not start
// or end with '-', which would make the joined id ambiguous.
func ValidateSessionPart(kind, value string) error {
	switch {
	case value == "":
		return fmt.Errorf("%w: empty %s", ErrInvalidSessionID, kind)
	case strings.Contains(value, SessionIDSeparator):
		return fmt.Errorf("%w: %s %q contains %q", ErrInvalidSessionID, kind, value, SessionIDSeparator)
	case strings.HasPrefix(value, "-") || strings.HasSuffix(value, "-"):
		return fmt.Errorf("%w: %s %q starts or ends with '-'", ErrInvalidSessionID, kind, value)
	}
	return nil
}

// Validate checks every part of the key.
func (k SessionKey) Validate() error {
	if err := ValidateSessionPart("address", string(k.Address)); err != nil {
		return err
	}
	if err := ValidateSessionPart("authenticator", k.Authenticator); err != nil {
		return err
	}
	return ValidateSessionPart("network", k.Network)
}

// FormatSessionID builds "address--authenticator--network".
func FormatSessionID(address Address, authenticator, network string) string {
	return string(address) + SessionIDSeparator + authenticator + SessionIDSeparator + network
}

// String returns the session id of the key.
func (k SessionKey) String() string {
	return FormatSessionID(k.Address, k.Authenticator, k.Network)
}

// ParseSessionID splits a session id back into its parts. Exactly two
// separators and three non-empty parts are required.
func ParseSessionID(id string) (SessionKey, error) {
	parts := strings.Split(id, SessionIDSeparator)
	if len(parts) != 3 {
		return SessionKey{}, fmt.Errorf("%w %q: expected 3 parts, got %d", ErrInvalidSessionID, id, len(parts))
	}
	key := SessionKey{Address: Address(parts[0]), Authenticator: parts[1], Network: parts[2]}
	if err := key.Validate(); err != nil {
		return SessionKey{}, fmt.Errorf("session id %q: %w", id, err)
	}
	return key, nil
}
