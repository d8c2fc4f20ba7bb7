package w3o

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/layer-3/w3o/core"
	"github.com/layer-3/w3o/ports"
)

// SessionsKey is the store key of the persisted session document.
const SessionsKey = "w3o-sessions"

// storedSessions is the persisted session document. Only ids are kept,
// never credentials.
type storedSessions struct {
	CurrentSessionID *string  `json:"currentSessionId"`
	Sessions         []string `json:"sessions"`
}

// SessionManager holds the live sessions and the current one.
type SessionManager struct {
	logger    *zap.Logger
	store     ports.Store
	publisher ports.EventPublisher

	mu         sync.Mutex
	settings   core.Settings
	sessions   map[string]*Session
	order      []string
	initCalled bool
	networks   *NetworkManager
	auth       *AuthManager

	current *State[*Session]
}

// NewSessionManager creates an empty manager persisting to store.
// store and publisher may be nil.
func NewSessionManager(store ports.Store, publisher ports.EventPublisher, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &SessionManager{
		logger:    logger.Named("sessions"),
		store:     store,
		publisher: publisher,
		settings:  core.DefaultSettings(),
		sessions:  make(map[string]*Session),
		current:   NewState[*Session](nil),
	}
	m.current.OnChange(m.currentChanged)
	return m
}

// Init binds the manager to the networks and auth backends of octopus.
// Selecting another network clears the current session.
func (m *SessionManager) Init(_ context.Context, octopus Instance) error {
	m.mu.Lock()
	if m.initCalled {
		m.mu.Unlock()
		return fmt.Errorf("session manager: %w", core.ErrAlreadyInitialized)
	}
	m.initCalled = true
	m.settings = octopus.Settings()
	m.networks = octopus.Networks()
	m.auth = octopus.Auth()
	m.mu.Unlock()

	m.networks.OnChange(func(name string) {
		m.logger.Debug("network change, clearing current session", zap.String("network", name))
		m.current.Set(nil)
	})
	return nil
}

// IsMultiSession reports whether several live sessions are expected.
func (m *SessionManager) IsMultiSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.MultiSession
}

// CreateSession registers a session for address on authenticator and
// network. Every part must be a valid session id part and the id must not
// be live already.
func (m *SessionManager) CreateSession(address core.Address, authenticator *Authenticator, network Network) (*Session, error) {
	m.logger.Debug("create session",
		zap.String("address", string(address)),
		zap.String("authenticator", authenticator.Name()),
		zap.String("network", network.Settings().Name))

	key := core.SessionKey{Address: address, Authenticator: authenticator.Name(), Network: network.Settings().Name}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session := newSession(m, address, authenticator, network)

	m.mu.Lock()
	if _, ok := m.sessions[session.id]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("session %s: %w", session.id, core.ErrSessionAlreadyExists)
	}
	m.sessions[session.id] = session
	m.order = append(m.order, session.id)
	m.mu.Unlock()

	if err := authenticator.setSession(session); err != nil {
		m.mu.Lock()
		m.removeLocked(session.id)
		m.mu.Unlock()
		return nil, err
	}
	return session, nil
}

// CreateCurrentSession creates a session and makes it current. Nothing
// becomes current if creation fails.
func (m *SessionManager) CreateCurrentSession(address core.Address, authenticator *Authenticator, network Network) (*Session, error) {
	session, err := m.CreateSession(address, authenticator, network)
	if err != nil {
		return nil, err
	}
	if err := m.SetCurrentSession(session.id); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession returns the live session id.
func (m *SessionManager) GetSession(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, core.ErrSessionNotFound)
	}
	return session, nil
}

// List returns the live sessions in creation order.
func (m *SessionManager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked()
}

func (m *SessionManager) listLocked() []*Session {
	list := make([]*Session, 0, len(m.order))
	for _, id := range m.order {
		list = append(list, m.sessions[id])
	}
	return list
}

// SetCurrentSession makes the live session id current.
func (m *SessionManager) SetCurrentSession(id string) error {
	m.logger.Debug("set current session", zap.String("id", id))
	session, err := m.GetSession(id)
	if err != nil {
		return err
	}
	m.current.Set(session)
	return nil
}

// CurrentSession returns the current session.
func (m *SessionManager) CurrentSession() (*Session, error) {
	session := m.current.Get()
	if session == nil {
		return nil, fmt.Errorf("no current session: %w", core.ErrSessionNotFound)
	}
	return session, nil
}

// CurrentSessionID returns the id of the current session, or "".
func (m *SessionManager) CurrentSessionID() string {
	if session := m.current.Get(); session != nil {
		return session.id
	}
	return ""
}

// OnChange registers fn for every change of the current session. fn
// receives nil when no session is current.
func (m *SessionManager) OnChange(fn func(*Session)) (cancel func()) {
	return m.current.OnChange(fn)
}

// Subscribe streams the current session, starting with the present one.
func (m *SessionManager) Subscribe(ctx context.Context) <-chan *Session {
	return m.current.Subscribe(ctx)
}

// DeleteSession removes the live session id. When it was current, the
// oldest remaining session becomes current, or none.
func (m *SessionManager) DeleteSession(id string) error {
	m.logger.Debug("delete session", zap.String("id", id))

	m.mu.Lock()
	if !m.removeLocked(id) {
		m.mu.Unlock()
		return fmt.Errorf("session %s: %w", id, core.ErrSessionNotFound)
	}
	var fallback *Session
	if len(m.order) > 0 {
		fallback = m.sessions[m.order[0]]
	}
	m.mu.Unlock()

	if current := m.current.Get(); current != nil && current.id == id {
		m.current.Set(fallback)
		return nil
	}
	m.save(context.Background())
	return nil
}

func (m *SessionManager) removeLocked(id string) bool {
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	for i, sid := range m.order {
		if sid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

func (m *SessionManager) currentChanged(session *Session) {
	id := ""
	if session != nil {
		id = session.id
	}
	m.logger.Debug("current session changed", zap.String("id", id))

	ctx := context.Background()
	m.save(ctx)
	if m.publisher != nil {
		if err := m.publisher.PublishSessionChange(ctx, id); err != nil {
			m.logger.Warn("publish session change failed", zap.String("id", id), zap.Error(err))
		}
	}
}

func (m *SessionManager) save(ctx context.Context) {
	if err := m.SaveSessions(ctx); err != nil {
		m.logger.Error("save sessions failed", zap.Error(err))
	}
}

// SaveSessions persists the live session ids and the current id.
func (m *SessionManager) SaveSessions(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	doc := storedSessions{Sessions: append([]string{}, m.order...)}
	m.mu.Unlock()
	if id := m.CurrentSessionID(); id != "" {
		doc.CurrentSessionID = &id
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, SessionsKey, string(raw), 0); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

// LoadSessions rebuilds the persisted sessions without running login. It
// refuses to run while sessions are live. With auto-login enabled the
// persisted current session is logged in through its backend and only
// then made current; if that fails only that session is dropped. Every
// failure wraps ErrSessionLoad, and a read, parse or rebuild failure
// removes every session rebuilt so far.
func (m *SessionManager) LoadSessions(ctx context.Context) error {
	m.logger.Debug("load sessions")

	m.mu.Lock()
	if len(m.sessions) > 0 {
		live := len(m.sessions)
		m.mu.Unlock()
		return fmt.Errorf("load sessions with %d live, close them first: %w", live, core.ErrSessionAlreadyExists)
	}
	networks, auth, autoLogin := m.networks, m.auth, m.settings.AutoLogin
	m.mu.Unlock()
	if networks == nil || auth == nil {
		return fmt.Errorf("session manager: %w", core.ErrNotInitialized)
	}
	if m.store == nil {
		return nil
	}

	raw, err := m.store.Get(ctx, SessionsKey)
	if errors.Is(err, core.ErrKeyNotFound) {
		m.logger.Debug("no stored sessions")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrSessionLoad, err)
	}

	var doc storedSessions
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("%w: %w", core.ErrSessionLoad, err)
	}
	m.logger.Debug("stored sessions found", zap.Int("sessions", len(doc.Sessions)))

	var restored []*Session
	rollback := func(cause error) error {
		m.mu.Lock()
		for _, s := range restored {
			m.removeLocked(s.id)
		}
		m.mu.Unlock()
		m.logger.Error("load sessions failed", zap.Error(cause))
		return fmt.Errorf("%w: %w", core.ErrSessionLoad, cause)
	}

	for _, id := range doc.Sessions {
		key, err := core.ParseSessionID(id)
		if err != nil {
			return rollback(err)
		}
		network, err := networks.GetNetwork(key.Network)
		if err != nil {
			return rollback(err)
		}
		authenticator, err := auth.CreateAuthenticator(key.Authenticator, network)
		if err != nil {
			return rollback(err)
		}
		authenticator.restore(key.Address)
		session, err := m.CreateSession(key.Address, authenticator, network)
		if err != nil {
			return rollback(err)
		}
		restored = append(restored, session)
	}
	if len(restored) == 0 {
		return nil
	}

	var current *Session
	if doc.CurrentSessionID != nil && *doc.CurrentSessionID != "" {
		for _, s := range restored {
			if s.id == *doc.CurrentSessionID {
				current = s
			}
		}
		if current == nil {
			return rollback(fmt.Errorf("current session %s: %w", *doc.CurrentSessionID, core.ErrSessionNotFound))
		}
		if autoLogin {
			if _, err := current.authenticator.AutoLogin(ctx, current.address); err != nil {
				m.mu.Lock()
				m.removeLocked(current.id)
				m.mu.Unlock()
				m.logger.Error("auto login failed", zap.String("id", current.id), zap.Error(err))
				m.save(ctx)
				return fmt.Errorf("%w: auto login %s: %w", core.ErrSessionLoad, current.id, err)
			}
		}
	} else {
		current = restored[0]
	}

	m.current.Set(current)
	return nil
}

// Snapshot implements Snapshotter.
func (m *SessionManager) Snapshot() any {
	sessions := m.List()
	ids := make([]string, 0, len(sessions))
	list := make([]any, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.id)
		list = append(list, s.Snapshot())
	}
	return map[string]any{
		"currentSessionId": m.CurrentSessionID(),
		"sessionsKeys":     ids,
		"sessions":         list,
	}
}
