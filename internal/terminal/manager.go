package terminal

import (
	"context"
	"sync"

	"token-launchpad/internal/domain"
)

// Manager owns the per-token terminals, created lazily on first access and
// retained for the process lifetime. Idle terminals are not reaped; they are
// stopped but stay resident so history survives restarts of the feed.
type Manager struct {
	cfg Config

	mu        sync.Mutex
	terminals map[string]*Terminal
}

// NewManager creates an empty terminal manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:       cfg,
		terminals: make(map[string]*Terminal),
	}
}

// Get returns the terminal for a token, creating a stopped one if absent.
func (m *Manager) Get(token *domain.Token) *Terminal {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.terminals[token.Mint]
	if !ok {
		t = New(token, m.cfg)
		m.terminals[token.Mint] = t
	}
	return t
}

// Lookup returns the terminal for a mint without creating one.
func (m *Manager) Lookup(mint string) (*Terminal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.terminals[mint]
	return t, ok
}

// Start ensures the token's terminal exists and is running.
func (m *Manager) Start(ctx context.Context, token *domain.Token) *Terminal {
	t := m.Get(token)
	t.Start(ctx)
	return t
}

// Stop stops the terminal for a mint if one exists. Returns whether a
// terminal was found.
func (m *Manager) Stop(mint string) bool {
	t, ok := m.Lookup(mint)
	if !ok {
		return false
	}
	t.Stop()
	return true
}

// StopAll stops every terminal. Used at shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	terminals := make([]*Terminal, 0, len(m.terminals))
	for _, t := range m.terminals {
		terminals = append(terminals, t)
	}
	m.mu.Unlock()

	for _, t := range terminals {
		t.Stop()
	}
}

// Running returns the number of terminals currently in the running state.
func (m *Manager) Running() int {
	m.mu.Lock()
	terminals := make([]*Terminal, 0, len(m.terminals))
	for _, t := range m.terminals {
		terminals = append(terminals, t)
	}
	m.mu.Unlock()

	n := 0
	for _, t := range terminals {
		if t.State() == Running {
			n++
		}
	}
	return n
}
