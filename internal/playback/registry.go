package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/shared"
)

// Registry holds live sessions keyed by a random id.
//
// The registry mutex guards only the map; each [Session] serializes its own navigation.
// Sessions that go unused are ended by [Registry.Expire], which [Registry.Reap] runs periodically.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	recorder HistoryRecorder
	timeout  time.Duration
	logger   *log.Logger
	now      func() time.Time
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

// NewRegistry creates a registry whose sessions record through recorder.
func NewRegistry(recorder HistoryRecorder, timeout time.Duration, logger *log.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		recorder: recorder,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Create starts a session for userID and returns its id.
func (r *Registry) Create(userID int64) (string, *Session) {
	id := shared.GenerateID()
	session := NewSession(userID, r.recorder, r.timeout, shared.WithLogger(r.logger, "session", id))

	r.mu.Lock()
	r.sessions[id] = &entry{session: session, lastUsed: r.now()}
	r.mu.Unlock()

	return id, session
}

// Get returns the session id owned by userID and marks it used.
// Sessions of other listeners are reported as not found.
func (r *Registry) Get(id string, userID int64) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok || e.session.UserID() != userID {
		return nil, fmt.Errorf("%w: session %s", shared.ErrNotFound, id)
	}
	e.lastUsed = r.now()
	return e.session, nil
}

// End removes and closes the session id owned by userID.
func (r *Registry) End(id string, userID int64) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if !ok || e.session.UserID() != userID {
		r.mu.Unlock()
		return fmt.Errorf("%w: session %s", shared.ErrNotFound, id)
	}
	delete(r.sessions, id)
	r.mu.Unlock()

	e.session.Close()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expire ends every session unused for longer than idle, cancelling its in-flight recordings.
// It returns the number of sessions ended.
func (r *Registry) Expire(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Session
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			stale = append(stale, e.session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range stale {
		session.Close()
	}
	if len(stale) > 0 {
		r.logger.Info("expired idle sessions", "count", len(stale), "idle", idle)
	}
	return len(stale)
}

// Reap calls [Registry.Expire] every interval until ctx is done.
func (r *Registry) Reap(ctx context.Context, idle, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Expire(idle)
		}
	}
}

// Close ends every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range sessions {
		e.session.Close()
	}
}
