// Package server hosts one search state per browser session and exposes it
// over HTTP. It owns navigation: it runs the URL synchronization whenever a
// session lands on the search view or changes its criteria.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"docsift/internal/auth"
	"docsift/internal/catalog"
	"docsift/internal/eventbus"
	"docsift/internal/state"
	"docsift/internal/storage"
	"docsift/internal/urlsync"
)

const (
	sessionName  = "docsift"
	sessionIDKey = "sid"

	// DefaultSessionIdleTimeout is how long an unused session stays in memory
	DefaultSessionIdleTimeout = 24 * time.Hour

	maxSweepInterval = time.Minute
)

// Config holds configuration for the server
type Config struct {
	Addr          string
	SessionSecret string
	Watch         bool

	// CookieSecure marks the session cookie Secure. Leave it off when
	// serving plain HTTP, or browsers never send the cookie back.
	CookieSecure bool

	// SessionIdleTimeout evicts sessions not seen for this long. Their
	// settings stay persisted; only the in-memory search state goes.
	SessionIdleTimeout time.Duration

	// Settings is the root store; each session gets its own namespace in it
	Settings storage.Store
	Catalog  *catalog.Provider
	Tokens   auth.TokenProvider
	Bus      eventbus.EventBus
	Logger   *slog.Logger

	// SeedSource overrides random seed generation, for tests
	SeedSource func() int64
}

// Server serves the search state of every live session
type Server struct {
	addr         string
	watch        bool
	idleTimeout  time.Duration
	settings     storage.Store
	catalog      *catalog.Provider
	tokens       auth.TokenProvider
	bus          eventbus.EventBus
	logger       *slog.Logger
	sync         *urlsync.Synchronizer
	sessionStore *sessions.CookieStore

	mu          sync.RWMutex
	sessions    map[string]*Session
	unsubscribe func()
}

// New creates a server. Missing collaborators get inert defaults.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Bus == nil {
		cfg.Bus = eventbus.NullBus{}
	}
	if cfg.Settings == nil {
		cfg.Settings = storage.NewMemoryStore()
	}
	if cfg.Tokens == nil {
		cfg.Tokens = auth.StaticTokenProvider("")
	}
	if cfg.SessionIdleTimeout <= 0 {
		cfg.SessionIdleTimeout = DefaultSessionIdleTimeout
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	syncOpts := []urlsync.Option{urlsync.WithLogger(cfg.Logger)}
	if cfg.SeedSource != nil {
		syncOpts = append(syncOpts, urlsync.WithSeedSource(cfg.SeedSource))
	}

	s := &Server{
		addr:         cfg.Addr,
		watch:        cfg.Watch,
		idleTimeout:  cfg.SessionIdleTimeout,
		settings:     cfg.Settings,
		catalog:      cfg.Catalog,
		tokens:       cfg.Tokens,
		bus:          cfg.Bus,
		logger:       cfg.Logger,
		sync:         urlsync.New(syncOpts...),
		sessionStore: sessionStore,
		sessions:     make(map[string]*Session),
	}
	s.unsubscribe = s.bus.Subscribe(eventbus.EventCatalogLoaded, s.onCatalogLoaded)
	return s
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		requestLogger(s.logger),
		middleware.Recoverer,
	)

	r.Get("/", s.handleSearchView)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/criteria", s.handleCriteria)

		r.Get("/options", s.handleGetOptions)
		r.Put("/options", s.handlePutOptions)
		r.Post("/options/load", s.handleLoadOptions)

		r.Post("/auth/token", s.handleAuthToken)

		r.Post("/sequence/key", s.handleKeySequence)
		r.Post("/sequence/query", s.handleQuerySequence)
	})

	return r
}

// Serve starts the server (and the catalog watcher when enabled) and blocks
// until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	defer s.Close()

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.catalog != nil {
		eg.Go(func() error {
			return s.catalog.Watch(egctx)
		})
	}

	eg.Go(func() error {
		s.sweepSessions(egctx)
		return nil
	})

	eg.Go(func() error {
		s.logger.Info("starting server", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Close detaches the server from the event bus
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// onCatalogLoaded pushes a reloaded catalog into every live session
func (s *Server) onCatalogLoaded(e eventbus.DomainEvent) {
	loaded, ok := e.(eventbus.CatalogLoadedEvent)
	if !ok {
		return
	}

	s.mu.RLock()
	live := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.RUnlock()

	for _, sess := range live {
		sess.mu.Lock()
		keepSelection(sess.state)
		c := &catalog.Catalog{Indices: loaded.Indices, Tags: loaded.Tags}
		c.Apply(sess.state)
		sess.mu.Unlock()
	}
	s.logger.Debug("catalog applied to sessions", "sessions", len(live))
}

// sweepSessions evicts idle sessions until ctx is cancelled
func (s *Server) sweepSessions(ctx context.Context) {
	interval := min(s.idleTimeout/2, maxSweepInterval)
	if interval <= 0 {
		interval = s.idleTimeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.expireSessions(now)
		}
	}
}

// expireSessions drops every session last seen before now minus the idle
// timeout and returns how many went
func (s *Server) expireSessions(now time.Time) int {
	cutoff := now.Add(-s.idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if sess.lastSeen().Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		s.logger.Info("sessions expired", "count", n, "live", len(s.sessions))
	}
	return n
}

func (s *Server) currentCatalog() *catalog.Catalog {
	if s.catalog == nil {
		return &catalog.Catalog{}
	}
	return s.catalog.Current()
}

// keepSelection makes the current index selection the one a catalog reload
// reconciles against, so a reload never brings back ids from an older link.
// A full selection stays full, new indices included.
func keepSelection(st *state.AppState) {
	selected := st.SelectedIndices()
	if len(selected) == len(st.Indices()) {
		st.SetOnLoadSelectedIndices(nil)
		return
	}
	ids := make([]string, 0, len(selected))
	for _, idx := range selected {
		ids = append(ids, idx.HexID())
	}
	st.SetOnLoadSelectedIndices(ids)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
