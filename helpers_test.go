package w3o

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/layer-3/w3o/adapters/store"
	"github.com/layer-3/w3o/core"
)

// stubAuth is an auth backend whose login resolves to a fixed address.
type stubAuth struct {
	BaseAuthSupport

	mu           sync.Mutex
	address      core.Address
	loginErr     error
	autoLoginErr error
	logins       int
	autoLogins   int
	logouts      int
}

var _ AuthSupport = (*stubAuth)(nil)

func newStubAuth(name, networkType string, address core.Address, requires ...string) *stubAuth {
	return &stubAuth{
		BaseAuthSupport: NewBaseAuthSupport(name, networkType, "1.0.0", false, requires...),
		address:         address,
	}
}

func (s *stubAuth) Login(_ context.Context, auth *Authenticator, _ string) (core.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins++
	if s.loginErr != nil {
		return "", s.loginErr
	}
	auth.Attach("handle-" + string(s.address))
	return s.address, nil
}

func (s *stubAuth) AutoLogin(_ context.Context, _ *Authenticator, _ string, address core.Address) (core.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoLogins++
	if s.autoLoginErr != nil {
		return "", s.autoLoginErr
	}
	return address, nil
}

func (s *stubAuth) Logout(context.Context, *Authenticator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logouts++
	return nil
}

func (s *stubAuth) SignTransaction(context.Context, *Authenticator, core.Transaction) (core.TransactionResponse, error) {
	return core.TransactionResponse{Hash: "trx-1"}, nil
}

func (s *stubAuth) counts() (logins, autoLogins, logouts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins, s.autoLogins, s.logouts
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu       sync.Mutex
	sessions []string
	networks []string
	logouts  []string
}

func (p *recordingPublisher) PublishSessionChange(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions = append(p.sessions, sessionID)
	return nil
}

func (p *recordingPublisher) PublishNetworkChange(_ context.Context, networkName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.networks = append(p.networks, networkName)
	return nil
}

func (p *recordingPublisher) PublishLogout(_ context.Context, _ string, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts = append(p.logouts, sessionID)
	return nil
}

func (p *recordingPublisher) snapshot() (sessions, networks, logouts []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sessions...), append([]string(nil), p.networks...), append([]string(nil), p.logouts...)
}

// testModule records Init calls and can block or fail them.
type testModule struct {
	BaseModule
	release chan struct{}
	err     error

	mu   sync.Mutex
	deps []Module
	runs int
}

func newTestModule(name, version string, requires ...string) *testModule {
	return &testModule{BaseModule: NewBaseModule(name, version, requires...)}
}

func (m *testModule) Init(ctx context.Context, _ Instance, requirements []Module) error {
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.deps = requirements
	return m.err
}

func (m *testModule) requirements() []Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deps
}

func antelopeNetwork(name string) *BaseNetwork {
	return NewBaseNetwork(core.NetworkSettings{Type: "antelope", Name: name, ChainID: name + "-chain"}, nil)
}

// newAntelopeOctopus builds a runtime with telos and telos-testnet and the
// anchor backend logging in as alice.
func newAntelopeOctopus(t *testing.T, s *store.MemoryStore) (*Octopus, *stubAuth, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	o := New(Options{Store: s, Publisher: pub})
	anchor := newStubAuth("anchor", "antelope", "alice", "antelope.network.support@1.0.0")
	require.NoError(t, o.AddNetworkSupport(context.Background(), NetworkSupport{
		Type:     "antelope",
		Auth:     []AuthSupport{anchor},
		Networks: []Network{antelopeNetwork("telos"), antelopeNetwork("telos-testnet")},
	}))
	return o, anchor, pub
}

func storeSessions(t *testing.T, s *store.MemoryStore, current string, ids ...string) {
	t.Helper()
	doc := map[string]any{"currentSessionId": nil, "sessions": ids}
	if current != "" {
		doc["currentSessionId"] = current
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), SessionsKey, string(raw), 0))
}

func loadStored(t *testing.T, s *store.MemoryStore) storedSessions {
	t.Helper()
	raw, err := s.Get(context.Background(), SessionsKey)
	require.NoError(t, err)
	var doc storedSessions
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
