package playback

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tu "github.com/desertthunder/spotifycc/internal/testing"
)

func discard() *log.Logger {
	return log.New(io.Discard)
}

func waitStarted(t *testing.T, recorder *tu.HistoryRecorder, n int) {
	t.Helper()
	for range n {
		select {
		case <-recorder.Started():
		case <-time.After(2 * time.Second):
			t.Fatal("history recording did not start")
		}
	}
}

func TestSession(t *testing.T) {
	t.Run("authenticated navigation records every track start", func(t *testing.T) {
		recorder := tu.NewHistoryRecorder()
		s := NewSession(42, recorder, time.Second, discard())
		defer s.Close()

		s.SetQueue(abc(), 0)
		s.PlayTrack(track(1, "A"), nil)
		s.Next()
		s.Next()
		state := s.Next()
		s.Wait()

		require.NotNil(t, state.CurrentIndex)
		assert.Equal(t, 0, *state.CurrentIndex)

		entries := recorder.Entries()
		require.Len(t, entries, 4)
		titles := make(map[string]int)
		for _, e := range entries {
			assert.Equal(t, int64(42), e.UserID)
			assert.Equal(t, "Luna Park", e.TrackArtist)
			require.NotNil(t, e.TrackAlbum)
			assert.Equal(t, "Night Drive", *e.TrackAlbum)
			titles[e.TrackTitle]++
		}
		assert.Equal(t, map[string]int{"A": 2, "B": 1, "C": 1}, titles)
	})

	t.Run("playing a track missing from the queue records that track", func(t *testing.T) {
		recorder := tu.NewHistoryRecorder()
		s := NewSession(42, recorder, time.Second, discard())
		defer s.Close()

		s.SetQueue(abc(), 1)
		state := s.PlayTrack(track(26, "Z"), nil)
		s.Wait()

		require.NotNil(t, state.CurrentIndex)
		assert.Equal(t, 0, *state.CurrentIndex)
		require.NotNil(t, state.Current)
		assert.Equal(t, "Z", state.Current.Title)

		entries := recorder.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "Z", entries[0].TrackTitle)

		assert.Equal(t, "B", s.Next().Current.Title)
	})

	t.Run("set queue records nothing", func(t *testing.T) {
		recorder := tu.NewHistoryRecorder()
		s := NewSession(42, recorder, time.Second, discard())
		defer s.Close()

		s.SetQueue(abc(), 1)
		s.Wait()

		assert.Empty(t, recorder.Entries())
	})

	t.Run("anonymous play never records", func(t *testing.T) {
		recorder := tu.NewHistoryRecorder()
		s := NewSession(0, recorder, time.Second, discard())
		defer s.Close()

		state := s.PlayTrack(track(2, "B"), abc())
		s.Next()
		s.Prev()
		s.Wait()

		require.NotNil(t, state.CurrentIndex)
		assert.Equal(t, 1, *state.CurrentIndex)
		assert.Empty(t, recorder.Entries())
		assert.Empty(t, recorder.Started())
	})

	t.Run("navigation does not wait for recording", func(t *testing.T) {
		recorder := tu.NewHistoryRecorder()
		recorder.Gate = make(chan struct{})
		s := NewSession(42, recorder, time.Minute, discard())

		s.SetQueue(abc(), 0)

		done := make(chan State)
		go func() {
			s.Next()
			done <- s.Next()
		}()

		select {
		case state := <-done:
			require.NotNil(t, state.CurrentIndex)
			assert.Equal(t, 2, *state.CurrentIndex)
		case <-time.After(2 * time.Second):
			t.Fatal("navigation blocked on history recording")
		}

		close(recorder.Gate)
		s.Wait()
		s.Close()
		assert.Len(t, recorder.Entries(), 2)
	})

	t.Run("close cancels in-flight recordings", func(t *testing.T) {
		recorder := tu.NewHistoryRecorder()
		recorder.Gate = make(chan struct{})
		s := NewSession(42, recorder, time.Minute, discard())

		s.PlayTrack(track(2, "B"), abc())
		waitStarted(t, recorder, 1)

		s.Close()

		assert.Equal(t, 1, recorder.Cancelled())
		assert.Empty(t, recorder.Entries())

		state := s.State()
		require.NotNil(t, state.CurrentIndex)
		assert.Equal(t, 1, *state.CurrentIndex, "queue state survives close")

		s.Next()
		s.Wait()
		assert.Empty(t, recorder.Entries(), "closed sessions stop recording")
	})

	t.Run("recording timeout", func(t *testing.T) {
		recorder := tu.NewHistoryRecorder()
		recorder.Gate = make(chan struct{})
		s := NewSession(42, recorder, 10*time.Millisecond, discard())
		defer s.Close()

		s.PlayTrack(track(1, "A"), abc())
		s.Wait()

		assert.Equal(t, 1, recorder.Cancelled())
	})

	t.Run("recorder failure is swallowed", func(t *testing.T) {
		recorder := tu.NewHistoryRecorder()
		recorder.Err = errors.New("store down")
		s := NewSession(42, recorder, time.Second, discard())
		defer s.Close()

		state := s.PlayTrack(track(3, "C"), abc())
		s.Wait()

		require.NotNil(t, state.Current)
		assert.Equal(t, "C", state.Current.Title)
		assert.Empty(t, recorder.Entries())
	})

	t.Run("nil recorder", func(t *testing.T) {
		s := NewSession(42, nil, time.Second, discard())
		defer s.Close()

		state := s.PlayTrack(track(1, "A"), abc())
		require.NotNil(t, state.Current)
	})

	t.Run("concurrent navigation serializes", func(t *testing.T) {
		s := NewSession(0, nil, time.Second, discard())
		defer s.Close()

		tracks := abc()
		s.SetQueue(tracks, 0)

		var wg sync.WaitGroup
		for range 30 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Next()
			}()
		}
		wg.Wait()

		state := s.State()
		require.NotNil(t, state.CurrentIndex)
		assert.Equal(t, 30%len(tracks), *state.CurrentIndex)
	})
}
