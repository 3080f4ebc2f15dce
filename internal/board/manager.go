package board

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/devbridge/dev-bridge-manager/internal/kanban"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
)

// Manager owns one Session per open project board.
type Manager struct {
	remote    remote.BoardRemote
	logger    *slog.Logger
	storeOpts []kanban.Option

	mu       sync.Mutex
	sessions map[uint64]*Session
}

// NewManager returns a manager loading boards through r.
func NewManager(r remote.BoardRemote, logger *slog.Logger, storeOpts ...kanban.Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		remote:    r,
		logger:    logger,
		storeOpts: storeOpts,
		sessions:  make(map[uint64]*Session),
	}
}

// Open returns the session of a project, loading its board on first use.
func (m *Manager) Open(ctx context.Context, projectID uint64) (*Session, error) {
	if s, ok := m.Get(projectID); ok {
		return s, nil
	}

	snap, err := m.remote.FetchBoard(ctx, projectID)
	if err != nil {
		return nil, remote.Fail("fetch board", err)
	}
	store := kanban.NewStore(m.storeOpts...)
	store.Hydrate(snap)

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[projectID]; ok {
		return s, nil
	}
	s := NewSession(projectID, store, m.remote, m.logger)
	m.sessions[projectID] = s
	m.logger.Info("board opened", "project_id", projectID, "columns", len(snap.Columns), "tasks", len(snap.Tasks))
	return s, nil
}

// Get returns an already open session.
func (m *Manager) Get(projectID uint64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[projectID]
	return s, ok
}

// Reload replaces the board of an open session with a fresh copy from the remote.
func (m *Manager) Reload(ctx context.Context, projectID uint64) (*Session, error) {
	s, err := m.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}
	snap, err := m.remote.FetchBoard(ctx, projectID)
	if err != nil {
		return nil, remote.Fail("fetch board", err)
	}
	s.store.Hydrate(snap)
	if err := s.store.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("reloaded board %d is inconsistent: %w", projectID, err)
	}
	return s, nil
}

// Close drops the session of a project.
func (m *Manager) Close(projectID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[projectID]; ok {
		delete(m.sessions, projectID)
		m.logger.Info("board closed", "project_id", projectID)
	}
}

// CloseAll drops every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.sessions)
	m.sessions = make(map[uint64]*Session)
	m.logger.Info("boards closed", "count", n)
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
