package models

import (
	"strconv"
	"time"
)

// Sources a [Track] can be resolved from.
const (
	SourceLocal   = "local"
	SourceJamendo = "jamendo"
	SourceSpotify = "spotify"
)

// Artist is a performer in the catalog.
type Artist struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	ImageURL   *string `json:"imageUrl"`
	TrackCount *int    `json:"trackCount,omitempty"`
}

// Album is a release owned by an [Artist].
type Album struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	CoverURL *string `json:"coverUrl"`
	Year     *int    `json:"year"`
	Artist   Artist  `json:"artist"`
	Tracks   []Track `json:"tracks,omitempty"`
}

// Track is a playable unit. A nil AudioURL means the track is not playable.
//
// Remote tracks carry their provider id in ExternalID; ID is the numeric form when the provider uses numeric ids.
type Track struct {
	ID              int64   `json:"id"`
	ExternalID      string  `json:"externalId,omitempty"`
	Source          string  `json:"source,omitempty"`
	Title           string  `json:"title"`
	DurationSeconds int     `json:"durationSeconds"`
	AudioURL        *string `json:"audioUrl"`
	Artist          Artist  `json:"artist"`
	Album           Album   `json:"album"`
}

// Key identifies a track across sources.
func (t Track) Key() string {
	source := t.Source
	if source == "" {
		source = SourceLocal
	}
	if t.ExternalID != "" {
		return source + ":" + t.ExternalID
	}
	return source + ":" + strconv.FormatInt(t.ID, 10)
}

// Playable reports whether the track has an audio locator.
func (t Track) Playable() bool {
	return t.AudioURL != nil && *t.AudioURL != ""
}

// User owns playlists and history.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Playlist is a named collection owned by a [User].
type Playlist struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CoverURL    *string   `json:"coverUrl"`
	UserID      int64     `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Owner is the public view of a playlist owner.
type Owner struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TrackSummary is the flattened track shape embedded in playlist listings.
type TrackSummary struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album"`
	DurationSeconds int    `json:"durationSeconds"`
}

// PlaylistSummary is a playlist with its owner and ordered track summaries.
type PlaylistSummary struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	CoverURL    *string        `json:"coverUrl"`
	Owner       Owner          `json:"owner"`
	Tracks      []TrackSummary `json:"tracks"`
}

// Summarize flattens a track for playlist listings.
func Summarize(t Track) TrackSummary {
	return TrackSummary{
		ID:              t.ID,
		Title:           t.Title,
		Artist:          t.Artist.Name,
		Album:           t.Album.Title,
		DurationSeconds: t.DurationSeconds,
	}
}

// Membership links a playlist to one of its tracks.
//
// (PlaylistID, TrackID) is unique and Order is positive and unique within the playlist.
type Membership struct {
	PlaylistID int64     `json:"playlistId"`
	TrackID    int64     `json:"trackId"`
	Order      int       `json:"order"`
	AddedAt    time.Time `json:"addedAt"`
	Track      Track     `json:"track"`
}

// HistoryEntry is a snapshot of a track-start event. It does not reference the track.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	TrackTitle  string    `json:"trackTitle"`
	TrackArtist string    `json:"trackArtist"`
	TrackAlbum  *string   `json:"trackAlbum"`
	AudioURL    *string   `json:"audioUrl"`
	PlayedAt    time.Time `json:"playedAt"`
}

// NewHistoryEntry snapshots t for userID.
func NewHistoryEntry(userID int64, t Track) HistoryEntry {
	entry := HistoryEntry{
		UserID:      userID,
		TrackTitle:  t.Title,
		TrackArtist: t.Artist.Name,
		AudioURL:    cloneString(t.AudioURL),
	}
	if t.Album.Title != "" {
		album := t.Album.Title
		entry.TrackAlbum = &album
	}
	return entry
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// PlaylistQuery bounds a playlist listing. Zero values mean unbounded.
type PlaylistQuery struct {
	Limit             int
	TracksPerPlaylist int
}
