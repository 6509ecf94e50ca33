package httpserver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"storefront/internal/clock"
	"storefront/internal/listing"
	"storefront/internal/repository/slot"
	"storefront/internal/search"
	"storefront/internal/service/auth"
	"storefront/internal/store"
)

// errTooManySessions is returned by Open when MaxSessions are held.
var errTooManySessions = errors.New("too many open sessions")

// SessionConfig tunes every client session.
type SessionConfig struct {
	Auth auth.Config
	List listing.Config
	// LoadTimeout bounds list fetches started by scroll reports.
	LoadTimeout time.Duration
	// IdleTimeout drops sessions from memory after this long without a
	// request. Their stored state is kept and restored on the next open.
	IdleTimeout time.Duration
	MaxSessions int
}

// clientSession is the state one browser would hold: its own storage
// namespace, login state, stores and product list.
type clientSession struct {
	id     string
	auth   *auth.Session
	stores *store.Provider
	recent *search.RecentSearches
	list   *listing.Controller
	scroll *listing.ScrollTrigger

	lastSeen atomic.Int64
}

func (s *clientSession) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *clientSession) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

func (s *clientSession) close() {
	s.scroll.Stop()
	s.list.Close()
	s.auth.Close()
}

// SessionManager owns the open client sessions.
type SessionManager struct {
	mu       sync.RWMutex
	repo     slot.Repository
	backend  auth.Backend
	clock    clock.Clock
	cfg      SessionConfig
	logger   zerolog.Logger
	sessions map[string]*clientSession
	sweep    clock.Task
	closed   bool
}

func NewSessionManager(repo slot.Repository, backend auth.Backend, clk clock.Clock, cfg SessionConfig, logger zerolog.Logger) *SessionManager {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 10000
	}
	m := &SessionManager{
		repo:     repo,
		backend:  backend,
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*clientSession),
	}
	m.sweep = clk.AfterFunc(m.sweepInterval(), m.evictIdle)
	return m
}

// Open returns the session id, creating it when needed. A known id that is
// not in memory is restored from its storage namespace.
func (m *SessionManager) Open(ctx context.Context, id string) (*clientSession, bool, error) {
	if id != "" {
		if sess, ok := m.Get(id); ok {
			return sess, false, nil
		}
		if _, err := uuid.Parse(id); err != nil {
			id = ""
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	sess := m.build(id)
	if err := sess.auth.Restore(ctx); err != nil {
		sess.close()
		return nil, false, err
	}

	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		sess.close()
		existing.touch(m.clock.Now())
		return existing, false, nil
	}
	if len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		sess.close()
		m.logger.Warn().Int("max", m.cfg.MaxSessions).Msg("session limit reached")
		return nil, false, errTooManySessions
	}
	sess.touch(m.clock.Now())
	m.sessions[id] = sess
	m.mu.Unlock()

	m.logger.Debug().Str("session_id", id).Msg("session opened")
	return sess, true, nil
}

// Get returns an open session and marks it as used.
func (m *SessionManager) Get(id string) (*clientSession, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		sess.touch(m.clock.Now())
	}
	return sess, ok
}

// Close drops a session from memory. Its stored state is kept.
func (m *SessionManager) Close(id string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		sess.close()
	}
	return ok
}

// CloseAll stops every session and the idle sweep.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*clientSession)
	m.closed = true
	if m.sweep != nil {
		m.sweep.Stop()
		m.sweep = nil
	}
	m.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}

func (m *SessionManager) sweepInterval() time.Duration {
	return m.cfg.IdleTimeout / 2
}

// evictIdle drops sessions idle for longer than IdleTimeout and schedules
// the next sweep.
func (m *SessionManager) evictIdle() {
	now := m.clock.Now()
	var idle []*clientSession

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	for id, sess := range m.sessions {
		if sess.idleSince(now) >= m.cfg.IdleTimeout {
			idle = append(idle, sess)
			delete(m.sessions, id)
		}
	}
	m.sweep = m.clock.AfterFunc(m.sweepInterval(), m.evictIdle)
	m.mu.Unlock()

	for _, sess := range idle {
		sess.close()
	}
	if len(idle) > 0 {
		m.logger.Debug().Int("evicted", len(idle)).Msg("idle sessions dropped")
	}
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *SessionManager) build(id string) *clientSession {
	logger := m.logger.With().Str("session_id", id).Logger()
	repo := slot.WithPrefix(m.repo, id)
	stores := store.NewProvider(repo, logger)
	list := listing.NewController(m.cfg.List, logger)

	sess := &clientSession{
		id:     id,
		auth:   auth.NewSession(m.backend, repo, stores, m.clock, m.cfg.Auth, logger),
		stores: stores,
		recent: search.NewRecentSearches(repo, logger),
		list:   list,
	}
	sess.scroll = listing.NewScrollTrigger(m.clock, list.CanLoadMore, func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.LoadTimeout)
		defer cancel()
		if err := list.LoadMore(ctx); err != nil {
			logger.Warn().Err(err).Msg("scroll load failed")
		}
	})
	return sess
}
