// Package client is a typed client for the spotifycc HTTP API.
//
// [Client] sends the configured user id in the X-User-ID header, decodes JSON responses into model
// types, and turns {"message": ...} error bodies into [*APIError] values that match the shared
// sentinel errors with [errors.Is].
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/playlists"
	"github.com/desertthunder/spotifycc/internal/resolver"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://127.0.0.1:4000"

// Client calls a running spotifycc server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userID     int64
}

// New creates a [Client]. A zero userID makes anonymous requests.
func New(baseURL string, client *http.Client, userID int64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		userID:     userID,
	}
}

// UserID returns the identity the client sends.
func (c *Client) UserID() int64 { return c.userID }

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error %d", e.StatusCode)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code back to the sentinel the server reported.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return shared.ErrValidation
	case http.StatusUnauthorized:
		return shared.ErrUnauthenticated
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusConflict:
		return shared.ErrConflict
	default:
		return shared.ErrAPIRequest
	}
}

// do sends body as JSON (when non-nil) and decodes a 2xx response into result (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(c.userID, 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if result == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Home fetches the landing feed.
func (c *Client) Home(ctx context.Context) (*resolver.HomeFeed, error) {
	var feed resolver.HomeFeed
	if err := c.do(ctx, http.MethodGet, "/api/home", nil, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

// Tracks resolves up to limit tracks, filtered by query when it is not blank.
func (c *Client) Tracks(ctx context.Context, limit int, query string) ([]models.Track, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if query != "" {
		params.Set("q", query)
	}

	var tracks []models.Track
	if err := c.do(ctx, http.MethodGet, "/api/tracks?"+params.Encode(), nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Search looks up tracks, artists and albums matching q.
func (c *Client) Search(ctx context.Context, q string) (*resolver.Result, error) {
	var result resolver.Result
	if err := c.do(ctx, http.MethodGet, "/api/search?q="+url.QueryEscape(q), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Artists lists every artist with track counts.
func (c *Client) Artists(ctx context.Context) ([]models.Artist, error) {
	var artists []models.Artist
	if err := c.do(ctx, http.MethodGet, "/api/artists", nil, &artists); err != nil {
		return nil, err
	}
	return artists, nil
}

// AlbumTracks returns the album with its tracks.
func (c *Client) AlbumTracks(ctx context.Context, albumID int64) (*models.Album, error) {
	var album models.Album
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/albums/%d/tracks", albumID), nil, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// Playlists lists playlists newest first.
func (c *Client) Playlists(ctx context.Context) ([]models.PlaylistSummary, error) {
	var summaries []models.PlaylistSummary
	if err := c.do(ctx, http.MethodGet, "/api/playlists", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// CreatePlaylist creates a playlist.
func (c *Client) CreatePlaylist(ctx context.Context, input playlists.CreateInput) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := c.do(ctx, http.MethodPost, "/api/playlists", input, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistTracks lists a playlist's memberships in order.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID int64) ([]models.Membership, error) {
	var members []models.Membership
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/playlists/%d/tracks", playlistID), nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// AddTrack appends trackID to the playlist.
func (c *Client) AddTrack(ctx context.Context, playlistID, trackID int64) (*models.Membership, error) {
	var membership models.Membership
	body := map[string]int64{"trackId": trackID}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/playlists/%d/tracks", playlistID), body, &membership); err != nil {
		return nil, err
	}
	return &membership, nil
}

// History lists the caller's recent plays; anonymous callers get an empty list.
func (c *Client) History(ctx context.Context) ([]models.HistoryEntry, error) {
	var payload struct {
		History []models.HistoryEntry `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/history", nil, &payload); err != nil {
		return nil, err
	}
	return payload.History, nil
}

// RecordPlay posts a history entry and fills in the server-assigned fields.
// It satisfies the playback history recorder so terminal sessions record through the API.
func (c *Client) RecordPlay(ctx context.Context, entry *models.HistoryEntry) error {
	body := map[string]any{
		"trackTitle":  entry.TrackTitle,
		"trackArtist": entry.TrackArtist,
		"trackAlbum":  entry.TrackAlbum,
		"audioUrl":    entry.AudioURL,
	}

	var payload struct {
		Entry models.HistoryEntry `json:"entry"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/history", body, &payload); err != nil {
		return err
	}
	*entry = payload.Entry
	return nil
}
