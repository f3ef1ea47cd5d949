package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spotifycc/internal/formatter"
	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/playback"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TrackListView ViewState = iota
	PlaylistListView
)

const defaultLimit = 30

// Library is the read side of the API the player browses. The HTTP client implements it.
type Library interface {
	Tracks(ctx context.Context, limit int, query string) ([]models.Track, error)
	Playlists(ctx context.Context) ([]models.PlaylistSummary, error)
	PlaylistTracks(ctx context.Context, playlistID int64) ([]models.Membership, error)
}

// Options configures a [Model].
type Options struct {
	Library Library
	Session *playback.Session
	// Open hands an audio URL to the system player. Defaults to [shared.OpenAudio].
	Open  func(url string) error
	Query string
	Limit int
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	library      Library
	session      *playback.Session
	open         func(string) error
	query        string
	limit        int
	width        int
	height       int
	trackList    list.Model
	playlistList list.Model
	fromPlaylist bool
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	m := &Model{
		ctx:          ctx,
		view:         TrackListView,
		library:      opts.Library,
		session:      opts.Session,
		open:         opts.Open,
		query:        opts.Query,
		limit:        opts.Limit,
		trackList:    newList("Tracks"),
		playlistList: newList("Playlists"),
		help:         help.New(),
		keys:         newKeyMap(),
	}
	if m.open == nil {
		m.open = shared.OpenAudio
	}
	if m.limit <= 0 {
		m.limit = defaultLimit
	}
	return m
}

// Init loads the browse list.
func (m *Model) Init() tea.Cmd {
	return m.fetchTracks()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	case tea.KeyMsg:
		return m.handleKeys(msg)
	case Msg:
		return m.handleMsg(msg)
	}
	return m.updateLists(msg)
}

// View renders the active list with the now-playing line and help.
func (m *Model) View() string {
	body := m.trackList.View()
	if m.view == PlaylistListView {
		body = m.playlistList.View()
	}
	return fmt.Sprintf("%s\n\n%s\n%s", body, m.renderNowPlaying(), m.renderHelp())
}

func (m *Model) activeList() *list.Model {
	if m.view == PlaylistListView {
		return &m.playlistList
	}
	return &m.trackList
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.activeList().FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.show(m.session.Next())
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.show(m.session.Prev())
		return m, nil
	case key.Matches(msg, m.keys.open):
		return m, m.openCurrent()
	case key.Matches(msg, m.keys.playlists):
		if m.view == PlaylistListView {
			m.view = TrackListView
			return m, nil
		}
		m.view = PlaylistListView
		return m, m.fetchPlaylists()
	case key.Matches(msg, m.keys.back):
		switch {
		case m.view == PlaylistListView:
			m.view = TrackListView
			return m, nil
		case m.fromPlaylist:
			m.view = PlaylistListView
			return m, nil
		}
	case key.Matches(msg, m.keys.enter):
		return m, m.selectItem()
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTracksFetched:
		r := msg.data.(tracksResult)
		if r.err != nil {
			m.err = r.err
			return m, nil
		}
		m.err = nil
		m.fromPlaylist = r.playlist
		m.trackList.Title = r.heading
		m.view = TrackListView
		return m, m.trackList.SetItems(trackItems(r.tracks))
	case MsgPlaylistsFetched:
		r := msg.data.(playlistsResult)
		if r.err != nil {
			m.err = r.err
			m.view = TrackListView
			return m, nil
		}
		m.err = nil
		return m, m.playlistList.SetItems(playlistItems(r.playlists))
	case MsgAudioOpened:
		if err, _ := msg.data.(error); err != nil {
			m.err = err
		}
	}
	return m, nil
}

// selectItem plays the selected track against the visible list, or loads the selected playlist.
func (m *Model) selectItem() tea.Cmd {
	switch item := m.activeList().SelectedItem().(type) {
	case trackItem:
		m.show(m.session.PlayTrack(item.track, m.visibleTracks()))
	case playlistItem:
		return m.fetchPlaylistTracks(item.playlist)
	}
	return nil
}

func (m *Model) visibleTracks() []models.Track {
	items := m.trackList.Items()
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		if t, ok := item.(trackItem); ok {
			tracks = append(tracks, t.track)
		}
	}
	return tracks
}

// show moves the cursor to the current track when it is in the visible list.
func (m *Model) show(state playback.State) {
	m.status = ""
	if state.Current == nil {
		return
	}
	current := state.Current.Key()
	for i, item := range m.trackList.Items() {
		if t, ok := item.(trackItem); ok && t.track.Key() == current {
			m.trackList.Select(i)
			return
		}
	}
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	default:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchTracks() tea.Cmd {
	heading := "Tracks"
	if m.query != "" {
		heading = fmt.Sprintf("Tracks matching '%s'", m.query)
	}
	return func() tea.Msg {
		tracks, err := m.library.Tracks(m.ctx, m.limit, m.query)
		return tracksFetchedMsg(heading, false, tracks, err)
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.library.Playlists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) fetchPlaylistTracks(p models.PlaylistSummary) tea.Cmd {
	return func() tea.Msg {
		members, err := m.library.PlaylistTracks(m.ctx, p.ID)
		tracks := make([]models.Track, len(members))
		for i, member := range members {
			tracks[i] = member.Track
		}
		return tracksFetchedMsg(fmt.Sprintf("Tracks in '%s'", p.Name), true, tracks, err)
	}
}

func (m *Model) openCurrent() tea.Cmd {
	current := m.session.State().Current
	switch {
	case current == nil:
		m.status = "Nothing is playing"
		return nil
	case !current.Playable():
		m.status = fmt.Sprintf("'%s' has no audio", current.Title)
		return nil
	}

	url := *current.AudioURL
	return func() tea.Msg {
		return audioOpenedMsg(m.open(url))
	}
}

func (m *Model) renderNowPlaying() string {
	var line string
	state := m.session.State()
	if state.Current == nil || state.CurrentIndex == nil {
		line = styles.help.Render("Nothing playing")
	} else {
		t := state.Current
		line = styles.playing.Render(fmt.Sprintf("▶ %s - %s [%s] (%d/%d)",
			t.Artist.Name, t.Title, formatter.FormatDuration(t.DurationSeconds), *state.CurrentIndex+1, len(state.Tracks)))
		if !t.Playable() {
			line += styles.warn.Render(" no audio")
		}
	}

	if m.status != "" {
		line += "\n" + styles.warn.Render(m.status)
	}
	if m.err != nil {
		line += "\n" + styles.err.Render(errorText(m.err))
	}
	return line
}

func (m *Model) renderHelp() string {
	keys := []key.Binding{m.keys.enter, m.keys.next, m.keys.prev, m.keys.open}
	switch {
	case m.view == PlaylistListView:
		keys = []key.Binding{m.keys.enter, m.keys.back}
	case m.fromPlaylist:
		keys = append(keys, m.keys.back)
	default:
		keys = append(keys, m.keys.playlists)
	}
	return m.help.ShortHelpView(append(keys, m.keys.quit))
}

func errorText(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Error: request timed out"
	}
	return fmt.Sprintf("Error: %v", err)
}
