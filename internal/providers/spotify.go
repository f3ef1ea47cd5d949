package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

const (
	spotifyBaseURL  = "https://api.spotify.com/v1"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyMaxLimit = 50
)

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ReleaseDate string          `json:"release_date"`
	Images      []spotifyImage  `json:"images"`
	Artists     []spotifyArtist `json:"artists"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	DurationMS int             `json:"duration_ms"`
	PreviewURL *string         `json:"preview_url"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyProvider searches the Spotify catalog with an app-level client-credentials token.
//
// Spotify has no unfiltered listing, so a blank query yields no tracks and the resolver falls back.
type SpotifyProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyProvider creates a provider authenticated with clientID and clientSecret.
// The [oauth2] transport fetches and refreshes tokens on demand.
func NewSpotifyProvider(clientID, clientSecret string, opts Options) (*SpotifyProvider, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingConfig)
	}

	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.client())

	return &SpotifyProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: config.Client(ctx),
		limiter:    opts.limiter(),
	}, nil
}

func (p *SpotifyProvider) Name() string { return models.SourceSpotify }

// Tracks searches tracks matching query, returning at most limit (capped at 50 by the API).
func (p *SpotifyProvider) Tracks(ctx context.Context, limit int, query string) ([]models.Track, error) {
	q := strings.TrimSpace(query)
	if q == "" || limit <= 0 {
		return []models.Track{}, nil
	}
	if limit > spotifyMaxLimit {
		limit = spotifyMaxLimit
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	var response spotifySearchResponse
	if err := getJSON(ctx, p.httpClient, p.limiter, "spotify", p.baseURL+"/search?"+params.Encode(), &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, t := range response.Tracks.Items {
		tracks = append(tracks, t.toTrack())
	}
	return tracks, nil
}

func (t spotifyTrack) toTrack() models.Track {
	var artist models.Artist
	if len(t.Artists) > 0 {
		artist.Name = t.Artists[0].Name
	}

	album := models.Album{Title: t.Album.Name, Artist: artist}
	if len(t.Album.Images) > 0 {
		album.CoverURL = models.StringPtr(t.Album.Images[0].URL)
	}
	if len(t.Album.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(t.Album.ReleaseDate[:4]); err == nil {
			album.Year = &year
		}
	}

	var audio *string
	if t.PreviewURL != nil {
		audio = models.StringPtr(*t.PreviewURL)
	}

	return models.Track{
		ExternalID:      t.ID,
		Source:          models.SourceSpotify,
		Title:           t.Name,
		DurationSeconds: t.DurationMS / 1000,
		AudioURL:        audio,
		Artist:          artist,
		Album:           album,
	}
}
