package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spotifycc/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTracksFetched MsgKind = iota
	MsgPlaylistsFetched
	MsgAudioOpened
)

type tracksResult struct {
	heading  string
	playlist bool
	tracks   []models.Track
	err      error
}

type playlistsResult struct {
	playlists []models.PlaylistSummary
	err       error
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched].
//
// playlist marks tracks that came from a playlist, so esc returns to the playlist view.
func tracksFetchedMsg(heading string, playlist bool, tracks []models.Track, err error) Msg {
	return Msg{
		kind: MsgTracksFetched,
		data: tracksResult{heading: heading, playlist: playlist, tracks: tracks, err: err},
	}
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.PlaylistSummary, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsResult{playlists: playlists, err: err}}
}

// audioOpenedMsg is the constructor for [MsgAudioOpened]
func audioOpenedMsg(err error) Msg {
	return Msg{kind: MsgAudioOpened, data: err}
}
