package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("session %q: %w", "x", ErrSessionNotFound)))
	assert.Equal(t, KindAlreadyExists, KindOf(ErrSessionAlreadyExists))
	assert.Equal(t, KindNotMet, KindOf(ErrModuleRequirementsNotMet))
	assert.Equal(t, KindNotSet, KindOf(ErrAccountNotLogged))
	assert.Equal(t, KindForbidden, KindOf(ErrReadOnlyAuthenticator))
	assert.Equal(t, KindLoad, KindOf(fmt.Errorf("%w: %w", ErrSessionLoad, ErrNetworkNotFound)))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}
