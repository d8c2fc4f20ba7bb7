package w3o

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/layer-3/w3o/core"
)

// Session is one live (address, authenticator, network) triple.
type Session struct {
	id            string
	address       core.Address
	authenticator *Authenticator
	network       Network
	manager       *SessionManager
	createdAt     time.Time

	once sync.Once
	done chan struct{}
	err  error
}

func newSession(manager *SessionManager, address core.Address, authenticator *Authenticator, network Network) *Session {
	return &Session{
		id:            core.FormatSessionID(address, authenticator.Name(), network.Settings().Name),
		address:       address,
		authenticator: authenticator,
		network:       network,
		manager:       manager,
		createdAt:     time.Now(),
		done:          make(chan struct{}),
	}
}

// ID returns "address--authenticator--network".
func (s *Session) ID() string { return s.id }

// Address returns the session address.
func (s *Session) Address() core.Address { return s.address }

// Authenticator returns the authenticator bound to the session.
func (s *Session) Authenticator() *Authenticator { return s.authenticator }

// Network returns the session network.
func (s *Session) Network() Network { return s.network }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Done is closed once the session logged out.
func (s *Session) Done() <-chan struct{} { return s.done }

// Logout releases the authenticator, removes the session from its manager
// and closes Done. Later calls return the result of the first one.
func (s *Session) Logout(ctx context.Context) error {
	s.once.Do(func() {
		s.err = s.authenticator.release(ctx)
		if err := s.manager.DeleteSession(s.id); err != nil && !errors.Is(err, core.ErrSessionNotFound) {
			s.err = errors.Join(s.err, err)
		}
		if s.manager.publisher != nil {
			if err := s.manager.publisher.PublishLogout(ctx, string(s.address), s.id); err != nil {
				s.manager.logger.Warn("publish logout failed", zap.String("id", s.id), zap.Error(err))
			}
		}
		close(s.done)
	})
	return s.err
}

// Snapshot implements Snapshotter.
func (s *Session) Snapshot() any {
	return map[string]any{
		"id":            s.id,
		"address":       s.address,
		"createdAt":     s.createdAt,
		"authenticator": s.authenticator.Snapshot(),
		"network":       s.network.Settings().Name,
	}
}
