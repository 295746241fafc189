package sync

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lavoroapp/marketplace-api/internal/core/ports"
)

// Manager owns at most one Session per signed-in profile. It is the
// process-level replacement for "sign-in initializes the engine, sign-out
// tears it down" on the client.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	repos Repos
	apply *ApplicationCoordinator
	log   zerolog.Logger
}

func NewManager(repos Repos, guard ports.OperationGuard, log zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		repos:    repos,
		apply:    NewApplicationCoordinator(repos.Applications, repos.Jobs, guard, log),
		log:      log,
	}
}

// Open returns the live session for uid, creating and activating one when
// none exists. Returns domain.ErrProfileNotFound when the profile document
// is absent.
func (m *Manager) Open(ctx context.Context, uid string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[uid]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	s, err := openSession(ctx, uid, m.repos, m.apply, m.log)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[uid]; ok {
		// lost a concurrent open; keep the first one
		go s.Logout()
		return existing, nil
	}
	m.sessions[uid] = s
	return s, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Logout tears down and forgets the session for uid. No-op when absent.
func (m *Manager) Logout(uid string) {
	m.mu.Lock()
	s, ok := m.sessions[uid]
	delete(m.sessions, uid)
	m.mu.Unlock()
	if ok {
		s.Logout()
	}
}

// Shutdown tears down every live session. Called on process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Logout()
	}
}
