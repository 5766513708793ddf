// Package session manages independent game sessions. Each session owns its
// own store and service container; nothing is process-global, so any number
// of games can run side by side.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgertycoon/ledger_tycoon/internal/adapters/state/memory"
	"github.com/ledgertycoon/ledger_tycoon/internal/apperrors"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
	portsrepo "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/repositories"
	portssvc "github.com/ledgertycoon/ledger_tycoon/internal/core/ports/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/core/services"
	"github.com/ledgertycoon/ledger_tycoon/internal/platform/config"
)

// Session is one running game: its store, its services and the player it was
// created for.
type Session struct {
	ID        string
	CreatedAt time.Time
	Player    domain.Company
	Store     portsrepo.GameStore
	Services  *portssvc.ServiceContainer
}

// Manager creates and tracks sessions.
type Manager struct {
	cfg config.SimulationConfig

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty session manager.
func NewManager(cfg config.SimulationConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new game on a fresh in-memory store and returns the ready
// session.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	store := memory.NewStore()
	container := services.NewServiceContainer(m.cfg, store)

	player, err := container.Game.InitializeGame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize game: %w", err)
	}

	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Player:    *player,
		Store:     store,
		Services:  container,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess, nil
}

// Adopt registers a session with a fixed ID over an existing store, typically
// the PostgreSQL store. A fresh store gets a new game; a store that already
// holds one resumes it.
func (m *Manager) Adopt(ctx context.Context, id string, store portsrepo.GameStore) (*Session, error) {
	container := services.NewServiceContainer(m.cfg, store)

	var player domain.Company
	created, err := container.Game.InitializeGame(ctx)
	switch {
	case err == nil:
		player = *created
	case errors.Is(err, apperrors.ErrDuplicate):
		companies, err := container.Game.ListCompanies(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resume game: %w", err)
		}
		for _, company := range companies {
			if company.IsPlayer {
				player = company
				break
			}
		}
	default:
		return nil, fmt.Errorf("failed to initialize game: %w", err)
	}

	sess := &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Player:    player,
		Store:     store,
		Services:  container,
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess, nil
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, id)
	}
	return sess, nil
}

// List returns all sessions ordered by creation time.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Delete drops a session. Dropping an unknown ID is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
