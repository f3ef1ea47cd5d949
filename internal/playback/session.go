package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/models"
)

// HistoryRecorder persists a track-start event.
type HistoryRecorder interface {
	RecordPlay(ctx context.Context, entry *models.HistoryEntry) error
}

// Session is one listener's playback queue.
//
// Navigation is serialized by the session mutex and returns as soon as the queue has moved.
// Every track start by an authenticated listener (userID != 0) launches a detached recording
// bounded by the history timeout; failures are logged and dropped.
type Session struct {
	mu       sync.Mutex
	queue    *Queue
	userID   int64
	recorder HistoryRecorder
	timeout  time.Duration
	logger   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewSession creates a session for userID. A zero userID is an anonymous listener and never records history.
func NewSession(userID int64, recorder HistoryRecorder, timeout time.Duration, logger *log.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		queue:    NewQueue(),
		userID:   userID,
		recorder: recorder,
		timeout:  timeout,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// UserID returns the listener the session belongs to.
func (s *Session) UserID() int64 { return s.userID }

// State returns the current queue snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.State()
}

// SetQueue replaces the queue. It does not start a track and records nothing.
func (s *Session) SetQueue(tracks []models.Track, startIndex int) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.SetQueue(tracks, startIndex)
	return s.queue.State()
}

// PlayTrack starts track, optionally replacing the queue with list. See [Queue.PlayTrack].
func (s *Session) PlayTrack(track models.Track, list []models.Track) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(s.queue.PlayTrack(track, list))
	return s.queue.State()
}

// Next starts the following track, wrapping to the first.
func (s *Session) Next() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(s.queue.Next())
	return s.queue.State()
}

// Prev starts the preceding track, wrapping to the last.
func (s *Session) Prev() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(s.queue.Prev())
	return s.queue.State()
}

// Wait blocks until every launched recording has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight recordings and waits for them. The queue stays readable and navigable,
// but no further history is recorded.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// record launches the history side effect for track. Callers hold s.mu.
func (s *Session) record(track *models.Track) {
	if track == nil || s.userID == 0 || s.recorder == nil || s.closed {
		return
	}

	entry := models.NewHistoryEntry(s.userID, *track)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx := s.ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		if err := s.recorder.RecordPlay(ctx, &entry); err != nil {
			if errors.Is(err, context.Canceled) {
				s.logger.Debug("history recording cancelled", "track", entry.TrackTitle)
				return
			}
			s.logger.Warn("failed to record play", "track", entry.TrackTitle, "user", s.userID, "error", err)
		}
	}()
}
