package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"trackviz/core/chart"
	"trackviz/core/dataset"
	"trackviz/logger"
)

const sessionCookie = "trackviz_session"

var errNoDataset = errors.New("dataset not loaded")

// session is one viewer's board. Its mutex serializes dispatches and renders.
type session struct {
	mu         sync.Mutex
	board      *chart.Board
	version    uint64
	dispatched map[chart.ChartKind]bool // charts moved away from their first frame
	lastSeen   time.Time
}

// SessionManager 管理每个浏览器会话的图表状态
type SessionManager struct {
	store *dataset.Store
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionManager creates a manager whose idle sessions expire after ttl.
func NewSessionManager(store *dataset.Store, ttl time.Duration) *SessionManager {
	return &SessionManager{store: store, ttl: ttl, sessions: make(map[string]*session)}
}

// ID returns the caller's session id, issuing a cookie for new visitors.
func (m *SessionManager) ID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// With runs fn with the session locked. The board is rebuilt first when the
// dataset has been reloaded since it was drawn.
func (m *SessionManager) With(id string, fn func(s *session) error) error {
	snap := m.store.Current()
	if snap == nil {
		return errNoDataset
	}

	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		s = &session{}
		m.sessions[id] = s
	}
	m.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	if s.board == nil || s.version != snap.Version {
		board, err := chart.NewBoard(snap.Tracks)
		if err != nil {
			return fmt.Errorf("failed to build board: %w", err)
		}
		if s.board != nil {
			logger.Debug("session rebuilt after reload",
				logger.String("session", id),
				logger.Int64("version", int64(snap.Version)))
		}
		s.board = board
		s.version = snap.Version
		s.dispatched = make(map[chart.ChartKind]bool)
	}
	return fn(s)
}

// Sweep drops sessions idle since before now-ttl and returns how many it dropped.
func (m *SessionManager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastSeen) > m.ttl
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
