package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/playback"
	"github.com/desertthunder/spotifycc/internal/playlists"
	"github.com/desertthunder/spotifycc/internal/resolver"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request
	Routes() []string // Routes returns the method-qualified patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Store is the persistence behind the API. Both the SQLite and PostgreSQL stores implement it.
type Store interface {
	playlists.Store
	resolver.Catalog
	resolver.FeedSource
	playback.HistoryRecorder

	ListArtists(ctx context.Context) ([]models.Artist, error)
	GetAlbum(ctx context.Context, id int64) (*models.Album, error)
	RecentPlays(ctx context.Context, userID int64, limit int) ([]models.HistoryEntry, error)
}

// Options configures a [Server]. Provider may be nil.
type Options struct {
	Store    Store
	Provider resolver.Provider
	Config   *shared.Config
	Logger   *log.Logger
}

// Server is the spotifycc HTTP API.
type Server struct {
	config     shared.ServerConfig
	router     *BasicRouter
	sessions   *playback.Registry
	logger     *log.Logger
	stopReaper context.CancelFunc
}

// New wires services, handlers and middleware over opts.Store.
//
// When playback.session_idle_seconds is positive a reaper ends idle sessions until [Server.Close].
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	res := resolver.New(opts.Provider, opts.Store, cfg.Provider.Timeout(), shared.WithLogger(logger, "component", "resolver"))
	svc := playlists.NewService(opts.Store, shared.WithLogger(logger, "component", "playlists"))
	sessions := playback.NewRegistry(opts.Store, cfg.Playback.HistoryTimeout(), shared.WithLogger(logger, "component", "playback"))

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger), Identity())

	router.Handle(http.MethodGet, "/health", http.HandlerFunc(health))
	router.Handler(NewCatalogHandler(res, opts.Store, logger))
	router.Handler(NewPlaylistHandler(svc, logger))
	router.Handler(NewHistoryHandler(opts.Store, cfg.Playback.HistoryLimit, logger))
	router.Handler(NewSessionHandler(sessions, logger))
	router.Handle("", "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	}))

	reapCtx, stopReaper := context.WithCancel(context.Background())
	if idle := cfg.Playback.SessionIdle(); idle > 0 {
		go sessions.Reap(reapCtx, idle, reapInterval(idle))
	}

	return &Server{
		config:     cfg.Server,
		router:     router,
		sessions:   sessions,
		logger:     logger,
		stopReaper: stopReaper,
	}
}

// reapInterval checks twice per idle window, at most once a second and at least once a minute.
func reapInterval(idle time.Duration) time.Duration {
	return min(max(idle/2, time.Second), time.Minute)
}

// Close stops the session reaper and ends every playback session.
func (s *Server) Close() {
	s.stopReaper()
	s.sessions.Close()
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the playback session registry.
func (s *Server) Sessions() *playback.Registry { return s.sessions }

// ListenAndServe serves on the configured address until ctx is done, then shuts down gracefully
// and closes every playback session.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s,
		ReadTimeout:  time.Duration(s.config.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.config.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	err := httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
