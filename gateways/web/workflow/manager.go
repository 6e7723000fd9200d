package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xilidan/lingua/pkg/gen"
	"github.com/xilidan/lingua/pkg/metrics"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

// Manager is the session registry. Sessions share nothing but the gateway.
type Manager struct {
	ctx     context.Context
	gateway Gateway
	ids     gen.UUIDGenerator
	metrics *metrics.Metrics
	log     *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	onDone   []DoneFunc
}

// NewManager binds pipelines to ctx, so cancelling it stops every run.
func NewManager(ctx context.Context, gateway Gateway, ids gen.UUIDGenerator, m *metrics.Metrics, log *slog.Logger) *Manager {
	return &Manager{
		ctx:      ctx,
		gateway:  gateway,
		ids:      ids,
		metrics:  m,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// OnDone registers a hook called for every finished pipeline of every session.
func (m *Manager) OnDone(fn DoneFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDone = append(m.onDone, fn)
}

func (m *Manager) Create() *Session {
	s := NewSession(m.ids.NextString(), m.gateway, m.metrics, m.log)
	s.OnDone(m.notify)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.log.Debug("session created", slog.String("session_id", s.ID()))
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Start runs a request on the session bound to the manager's context.
func (m *Manager) Start(s *Session, req Request) error {
	return s.Start(m.ctx, req)
}

func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
		m.log.Debug("session deleted", slog.String("session_id", id))
	}
	return ok
}

// Prune drops idle sessions that have not changed for maxAge.
func (m *Manager) Prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for id, s := range m.sessions {
		snap := s.Snapshot()
		if snap.State.Busy() || snap.UpdatedAt.After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		pruned++
	}
	return pruned
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) notify(ctx context.Context, snap Snapshot, input entity.Input) {
	m.mu.RLock()
	hooks := append([]DoneFunc(nil), m.onDone...)
	m.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, snap, input)
	}
}
