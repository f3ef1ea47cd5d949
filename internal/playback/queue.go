// Package playback holds per-session playback state.
//
// A [Queue] is a circular sequence of tracks with a current position. A [Session] wraps one queue,
// serializes navigation and records a history entry for every track start on behalf of an
// authenticated listener. Recording runs detached from navigation and is cancelled when the
// session closes. A [Registry] keeps the sessions served over HTTP.
package playback

import (
	"slices"

	"github.com/desertthunder/spotifycc/internal/models"
)

// State is a snapshot of a [Queue]. CurrentIndex and Current are nil for an empty queue.
//
// Current is the playing track. After [Queue.PlayTrack] with a track missing from the list it is
// that track while CurrentIndex is 0.
type State struct {
	Tracks       []models.Track `json:"tracks"`
	CurrentIndex *int           `json:"currentIndex,omitempty"`
	Current      *models.Track  `json:"current,omitempty"`
}

// Queue is an ordered list of tracks with a current position.
//
// The position is always a valid index into the list, or -1 when the list is empty.
// Queue is not safe for concurrent use; [Session] guards it.
type Queue struct {
	tracks       []models.Track
	currentIndex int
	detached     *models.Track // started by PlayTrack but not in tracks
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{currentIndex: -1}
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int { return len(q.tracks) }

// IsEmpty reports whether nothing is queued.
func (q *Queue) IsEmpty() bool { return len(q.tracks) == 0 }

// CurrentIndex returns the current position, or -1 when the queue is empty.
func (q *Queue) CurrentIndex() int { return q.currentIndex }

// Current returns the playing track, or nil. It is the track at the current position unless
// [Queue.PlayTrack] started a track absent from the list.
func (q *Queue) Current() *models.Track {
	if q.currentIndex < 0 || q.currentIndex >= len(q.tracks) {
		return nil
	}
	if q.detached != nil {
		t := *q.detached
		return &t
	}
	t := q.tracks[q.currentIndex]
	return &t
}

// SetQueue replaces the queued tracks and moves to startIndex.
// An out-of-range startIndex selects the first track. It returns the current track, or nil when tracks is empty.
func (q *Queue) SetQueue(tracks []models.Track, startIndex int) *models.Track {
	q.tracks = slices.Clone(tracks)
	q.detached = nil
	switch {
	case len(q.tracks) == 0:
		q.currentIndex = -1
	case startIndex >= 0 && startIndex < len(q.tracks):
		q.currentIndex = startIndex
	default:
		q.currentIndex = 0
	}
	return q.Current()
}

// PlayTrack makes track current. A non-nil list replaces the queued tracks first.
//
// The position becomes the first entry whose [models.Track.Key] matches track. When there is none the
// position is 0 but track itself is what plays, until the next navigation. Playing into an empty queue
// enqueues track alone. PlayTrack never fails and always returns track.
func (q *Queue) PlayTrack(track models.Track, list []models.Track) *models.Track {
	if list != nil {
		q.tracks = slices.Clone(list)
	}
	if len(q.tracks) == 0 {
		q.tracks = []models.Track{track}
	}

	key := track.Key()
	index := slices.IndexFunc(q.tracks, func(t models.Track) bool { return t.Key() == key })
	q.detached = nil
	if index < 0 {
		index = 0
		q.detached = &track
	}
	q.currentIndex = index
	return q.Current()
}

// Next advances one position, wrapping past the end to the first track. It returns nil on an empty queue.
func (q *Queue) Next() *models.Track {
	if len(q.tracks) == 0 {
		return nil
	}
	q.detached = nil
	q.currentIndex = (q.currentIndex + 1) % len(q.tracks)
	return q.Current()
}

// Prev moves back one position, wrapping before the start to the last track. It returns nil on an empty queue.
func (q *Queue) Prev() *models.Track {
	if len(q.tracks) == 0 {
		return nil
	}
	q.detached = nil
	q.currentIndex = (q.currentIndex - 1 + len(q.tracks)) % len(q.tracks)
	return q.Current()
}

// State returns a snapshot that does not alias the queue.
func (q *Queue) State() State {
	state := State{Tracks: slices.Clone(q.tracks)}
	if state.Tracks == nil {
		state.Tracks = []models.Track{}
	}
	if current := q.Current(); current != nil {
		index := q.currentIndex
		state.CurrentIndex = &index
		state.Current = current
	}
	return state
}
