package player

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownToken is returned for tokens the manager may not start.
var ErrUnknownToken = errors.New("display token not configured")

// Factory builds the options for a token's session. It returns
// ErrUnknownToken to refuse a token.
type Factory func(token string) (Options, error)

type entry struct {
	session *Session
	cancel  context.CancelFunc
}

// Manager owns the running sessions, one per token.
type Manager struct {
	ctx     context.Context
	factory Factory

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(ctx context.Context, factory Factory) *Manager {
	return &Manager{
		ctx:      ctx,
		factory:  factory,
		sessions: make(map[string]*entry),
	}
}

// GetOrStart returns the running session for token, starting one if needed.
func (m *Manager) GetOrStart(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnknownToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[token]; ok {
		return e.session, nil
	}
	return m.startLocked(token)
}

// Get returns the running session for token.
func (m *Manager) Get(token string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[token]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Restart tears the token's session down, waits until its timers are gone,
// then starts a fresh one.
func (m *Manager) Restart(token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[token]; ok {
		e.cancel()
		<-e.session.Done()
		delete(m.sessions, token)
	}
	return m.startLocked(token)
}

// Stop ends the token's session and waits for its teardown.
func (m *Manager) Stop(token string) {
	m.mu.Lock()
	e, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()
	if ok {
		e.cancel()
		<-e.session.Done()
	}
}

// StopAll ends every session.
func (m *Manager) StopAll() {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.sessions))
	for token, e := range m.sessions {
		entries = append(entries, e)
		delete(m.sessions, token)
	}
	m.mu.Unlock()
	for _, e := range entries {
		e.cancel()
	}
	for _, e := range entries {
		<-e.session.Done()
	}
}

// Sessions lists running sessions ordered by token.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		out = append(out, e.session)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Token() < out[j].Token() })
	return out
}

func (m *Manager) startLocked(token string) (*Session, error) {
	opts, err := m.factory(token)
	if err != nil {
		return nil, err
	}
	opts.Token = token
	ctx, cancel := context.WithCancel(m.ctx)
	s := New(opts)
	m.sessions[token] = &entry{session: s, cancel: cancel}
	go s.Run(ctx)
	return s, nil
}
