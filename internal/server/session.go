package server

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"docsift/internal/config"
	"docsift/internal/state"
	"docsift/internal/storage"
)

// Session is the state of one browser session. All access goes through mu:
// the state itself is single-threaded.
type Session struct {
	id       string
	mu       sync.Mutex
	state    *state.AppState
	settings config.ConfigService

	seen atomic.Int64 // unix nanoseconds of the last request
}

func (s *Session) touch(now time.Time) { s.seen.Store(now.UnixNano()) }

func (s *Session) lastSeen() time.Time { return time.Unix(0, s.seen.Load()) }

// session returns the caller's session, creating it (and the cookie) on
// first contact
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, error) {
	// A cookie that fails to decode yields a fresh session
	cookie, _ := s.sessionStore.Get(r, sessionName)

	id, _ := cookie.Values[sessionIDKey].(string)
	if id == "" {
		id = uuid.NewString()
		cookie.Values[sessionIDKey] = id
		if err := cookie.Save(r, w); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.touch(time.Now())
		return sess, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.touch(time.Now())
		return sess, nil
	}

	sess = s.newSession(id)
	sess.touch(time.Now())
	s.sessions[id] = sess
	s.logger.Info("session started", "session", id)
	return sess, nil
}

func (s *Server) newSession(id string) *Session {
	sess := &Session{id: id}
	sess.settings = config.NewConfigService(
		storage.WithPrefix(s.settings, id),
		config.WithBus(s.bus),
		config.WithLogger(s.logger.With("session", id)),
		// Runs with sess.mu held by the caller of LoadConfiguration
		config.WithReloader(func(reason string) {
			s.logger.Info("session reloaded", "session", id, "reason", reason)
			sess.state = s.freshState()
		}),
	)
	sess.state = s.freshState()

	if _, err := sess.settings.LoadConfiguration(sess.state); err != nil && !errors.Is(err, config.ErrVersionMismatch) {
		s.logger.Error("failed to load settings", "session", id, "error", err)
	}
	return sess
}

// freshState is a default state with the current catalog applied
func (s *Server) freshState() *state.AppState {
	st := state.NewAppState(s.bus)
	s.currentCatalog().Apply(st)
	return st
}
