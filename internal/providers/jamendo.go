package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

const (
	jamendoBaseURL     = "https://api.jamendo.com/v3.0"
	jamendoMaxLimit    = 200
	jamendoSingleTitle = "Jamendo Single"
)

type jamendoResponse struct {
	Headers struct {
		Status       string `json:"status"`
		Code         int    `json:"code"`
		ErrorMessage string `json:"error_message"`
	} `json:"headers"`
	Results []jamendoTrack `json:"results"`
}

type jamendoTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Duration   int    `json:"duration"`
	ArtistID   string `json:"artist_id"`
	ArtistName string `json:"artist_name"`
	AlbumID    string `json:"album_id"`
	AlbumName  string `json:"album_name"`
	Image      string `json:"image"`
	Audio      string `json:"audio"`
}

// JamendoProvider reads popular tracks from Jamendo.
type JamendoProvider struct {
	clientID   string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewJamendoProvider creates a provider for the given API client id.
func NewJamendoProvider(clientID string, opts Options) (*JamendoProvider, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: jamendo client_id", shared.ErrMissingConfig)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = jamendoBaseURL
	}

	return &JamendoProvider{
		clientID:   clientID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: opts.client(),
		limiter:    opts.limiter(),
	}, nil
}

func (p *JamendoProvider) Name() string { return models.SourceJamendo }

// Tracks returns up to limit tracks ordered by popularity. A non-blank query matches track names,
// artist names and tags on Jamendo's side.
func (p *JamendoProvider) Tracks(ctx context.Context, limit int, query string) ([]models.Track, error) {
	if limit <= 0 {
		return []models.Track{}, nil
	}
	if limit > jamendoMaxLimit {
		limit = jamendoMaxLimit
	}

	params := url.Values{}
	params.Set("client_id", p.clientID)
	params.Set("format", "json")
	params.Set("audioformat", "mp32")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("order", "popularity_total")
	if q := strings.TrimSpace(query); q != "" {
		params.Set("search", q)
		params.Set("namesearch", q)
	}

	var response jamendoResponse
	if err := getJSON(ctx, p.httpClient, p.limiter, "jamendo", p.baseURL+"/tracks/?"+params.Encode(), &response); err != nil {
		return nil, err
	}

	if response.Headers.Status != "" && response.Headers.Status != "success" {
		return nil, fmt.Errorf("%w: jamendo error %d: %s", shared.ErrAPIRequest, response.Headers.Code, response.Headers.ErrorMessage)
	}

	tracks := make([]models.Track, 0, len(response.Results))
	for _, t := range response.Results {
		tracks = append(tracks, t.toTrack())
	}
	return tracks, nil
}

func (t jamendoTrack) toTrack() models.Track {
	artist := models.Artist{ID: parseID(t.ArtistID), Name: t.ArtistName}

	albumTitle := t.AlbumName
	if albumTitle == "" {
		albumTitle = jamendoSingleTitle
	}

	return models.Track{
		ID:              parseID(t.ID),
		ExternalID:      t.ID,
		Source:          models.SourceJamendo,
		Title:           t.Name,
		DurationSeconds: max(t.Duration, 0),
		AudioURL:        models.StringPtr(t.Audio),
		Artist:          artist,
		Album: models.Album{
			ID:       parseID(t.AlbumID),
			Title:    albumTitle,
			CoverURL: models.StringPtr(t.Image),
			Artist:   artist,
		},
	}
}

// parseID returns the numeric form of a provider id, or 0.
func parseID(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
