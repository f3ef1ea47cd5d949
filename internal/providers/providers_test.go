package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
	tu "github.com/desertthunder/spotifycc/internal/testing"
)

const jamendoBody = `{
	"headers": {"status": "success", "code": 0, "error_message": ""},
	"results": [
		{"id": "1532771", "name": "Velvet Hours", "duration": 214, "artist_id": "7908", "artist_name": "Luna Park",
		 "album_id": "188001", "album_name": "Night Drive", "image": "https://img.jamendo.test/1.jpg",
		 "audio": "https://audio.jamendo.test/1.mp3"},
		{"id": "1532772", "name": "Loose Ends", "duration": 180, "artist_id": "7909", "artist_name": "Paper Moths",
		 "album_id": "", "album_name": "", "image": "", "audio": "https://audio.jamendo.test/2.mp3"}
	]
}`

const spotifyBody = `{
	"tracks": {
		"items": [
			{"id": "4uLU6hMCjMI75M1A2tKUQC", "name": "Velvet Hours", "duration_ms": 214500, "preview_url": "https://p.scdn.test/1",
			 "artists": [{"id": "a1", "name": "Luna Park"}],
			 "album": {"id": "al1", "name": "Night Drive", "release_date": "2021-03-04",
			           "images": [{"url": "https://i.scdn.test/1.jpg"}], "artists": [{"id": "a1", "name": "Luna Park"}]}},
			{"id": "7ouMYWpwJ422jRcDASZB7P", "name": "No Preview", "duration_ms": 1999, "preview_url": null,
			 "artists": [], "album": {"id": "al2", "name": "Quiet", "release_date": "", "images": []}}
		]
	}
}`

func TestJamendoProvider(t *testing.T) {
	t.Run("NewJamendoProvider", func(t *testing.T) {
		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewJamendoProvider("", Options{})
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("Default Base URL", func(t *testing.T) {
			p, err := NewJamendoProvider("client", Options{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if p.baseURL != jamendoBaseURL {
				t.Errorf("expected %s, got %s", jamendoBaseURL, p.baseURL)
			}
			if p.Name() != models.SourceJamendo {
				t.Errorf("expected name %q, got %q", models.SourceJamendo, p.Name())
			}
		})
	})

	t.Run("Tracks", func(t *testing.T) {
		t.Run("Builds Popular Query", func(t *testing.T) {
			var got *http.Request
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, jamendoBody)
			}))
			defer server.Close()

			p, _ := NewJamendoProvider("client-123", Options{BaseURL: server.URL})
			tracks, err := p.Tracks(context.Background(), 25, "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if got.URL.Path != "/tracks/" {
				t.Errorf("expected path /tracks/, got %s", got.URL.Path)
			}

			q := got.URL.Query()
			for key, want := range map[string]string{
				"client_id":   "client-123",
				"format":      "json",
				"audioformat": "mp32",
				"limit":       "25",
				"order":       "popularity_total",
			} {
				if q.Get(key) != want {
					t.Errorf("expected %s=%s, got %q", key, want, q.Get(key))
				}
			}
			if q.Has("search") || q.Has("namesearch") {
				t.Error("expected no search parameters for a blank query")
			}

			if len(tracks) != 2 {
				t.Fatalf("expected 2 tracks, got %d", len(tracks))
			}
		})

		t.Run("Search Parameters", func(t *testing.T) {
			var query string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.RawQuery
				io.WriteString(w, `{"headers": {"status": "success"}, "results": []}`)
			}))
			defer server.Close()

			p, _ := NewJamendoProvider("client", Options{BaseURL: server.URL})
			tracks, err := p.Tracks(context.Background(), 500, "  night drive ")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 0 {
				t.Errorf("expected no tracks, got %d", len(tracks))
			}
			if !strings.Contains(query, "search=night+drive") || !strings.Contains(query, "namesearch=night+drive") {
				t.Errorf("expected search and namesearch, got %s", query)
			}
			if !strings.Contains(query, "limit=200") {
				t.Errorf("expected limit capped at 200, got %s", query)
			}
		})

		t.Run("Maps Results", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, jamendoBody)
			}))
			defer server.Close()

			p, _ := NewJamendoProvider("client", Options{BaseURL: server.URL})
			tracks, _ := p.Tracks(context.Background(), 10, "")

			first := tracks[0]
			if first.ID != 1532771 || first.ExternalID != "1532771" || first.Source != models.SourceJamendo {
				t.Errorf("unexpected identity: %+v", first)
			}
			if first.Title != "Velvet Hours" || first.DurationSeconds != 214 {
				t.Errorf("unexpected title/duration: %s %d", first.Title, first.DurationSeconds)
			}
			if first.AudioURL == nil || *first.AudioURL != "https://audio.jamendo.test/1.mp3" {
				t.Errorf("unexpected audio url: %v", first.AudioURL)
			}
			if first.Artist.ID != 7908 || first.Artist.Name != "Luna Park" {
				t.Errorf("unexpected artist: %+v", first.Artist)
			}
			if first.Album.Title != "Night Drive" || first.Album.CoverURL == nil {
				t.Errorf("unexpected album: %+v", first.Album)
			}
			if first.Key() != "jamendo:1532771" {
				t.Errorf("expected key jamendo:1532771, got %s", first.Key())
			}

			single := tracks[1]
			if single.Album.Title != jamendoSingleTitle {
				t.Errorf("expected %q, got %q", jamendoSingleTitle, single.Album.Title)
			}
			if single.Album.CoverURL != nil {
				t.Errorf("expected no cover, got %v", *single.Album.CoverURL)
			}
		})

		t.Run("Non 2xx Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			p, _ := NewJamendoProvider("client", Options{BaseURL: server.URL})
			_, err := p.Tracks(context.Background(), 10, "")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Failed Header Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"headers": {"status": "failed", "code": 5, "error_message": "invalid client id"}, "results": []}`)
			}))
			defer server.Close()

			p, _ := NewJamendoProvider("client", Options{BaseURL: server.URL})
			_, err := p.Tracks(context.Background(), 10, "")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if err != nil && !strings.Contains(err.Error(), "invalid client id") {
				t.Errorf("expected error message in %v", err)
			}
		})

		t.Run("Transport Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			p, _ := NewJamendoProvider("client", Options{HTTPClient: client})

			_, err := p.Tracks(context.Background(), 10, "")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Unreadable Body", func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
			client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
			p, _ := NewJamendoProvider("client", Options{HTTPClient: client})

			_, err := p.Tracks(context.Background(), 10, "")
			if err == nil || !strings.Contains(err.Error(), "failed to decode jamendo response") {
				t.Errorf("expected decode error, got %v", err)
			}
		})

		t.Run("Cancelled Context", func(t *testing.T) {
			p, _ := NewJamendoProvider("client", Options{BaseURL: "http://127.0.0.1:1", RateLimit: 1})
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := p.Tracks(ctx, 10, ""); err == nil {
				t.Error("expected error for cancelled context")
			}
		})

		t.Run("Zero Limit", func(t *testing.T) {
			p, _ := NewJamendoProvider("client", Options{BaseURL: "http://127.0.0.1:1"})
			tracks, err := p.Tracks(context.Background(), 0, "")
			if err != nil || len(tracks) != 0 {
				t.Errorf("expected empty result, got %v %v", tracks, err)
			}
		})
	})
}

func newSpotifyServer(t *testing.T, tokenRequests *atomic.Int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token": "app-token", "token_type": "Bearer", "expires_in": 3600}`)
	})
	mux.HandleFunc("GET /v1/search", handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSpotifyProvider(t *testing.T) {
	t.Run("NewSpotifyProvider", func(t *testing.T) {
		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyProvider("", "secret", Options{})
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyProvider("id", "", Options{})
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})
	})

	t.Run("Tracks", func(t *testing.T) {
		t.Run("Searches With Bearer Token", func(t *testing.T) {
			var tokens atomic.Int32
			var auth, query string
			server := newSpotifyServer(t, &tokens, func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Get("Authorization")
				query = r.URL.RawQuery
				io.WriteString(w, spotifyBody)
			})

			p, err := NewSpotifyProvider("id", "secret", Options{BaseURL: server.URL + "/v1", TokenURL: server.URL + "/token"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			tracks, err := p.Tracks(context.Background(), 120, "velvet")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if auth != "Bearer app-token" {
				t.Errorf("expected bearer token, got %q", auth)
			}
			if !strings.Contains(query, "type=track") || !strings.Contains(query, "q=velvet") || !strings.Contains(query, "limit=50") {
				t.Errorf("unexpected query %s", query)
			}

			if _, err := p.Tracks(context.Background(), 5, "velvet"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tokens.Load() != 1 {
				t.Errorf("expected token to be reused, fetched %d times", tokens.Load())
			}

			if len(tracks) != 2 {
				t.Fatalf("expected 2 tracks, got %d", len(tracks))
			}

			first := tracks[0]
			if first.Key() != "spotify:4uLU6hMCjMI75M1A2tKUQC" {
				t.Errorf("unexpected key %s", first.Key())
			}
			if first.DurationSeconds != 214 {
				t.Errorf("expected 214 seconds, got %d", first.DurationSeconds)
			}
			if first.Album.Year == nil || *first.Album.Year != 2021 {
				t.Errorf("expected album year 2021, got %v", first.Album.Year)
			}
			if !first.Playable() {
				t.Error("expected track with preview to be playable")
			}

			second := tracks[1]
			if second.Playable() {
				t.Error("expected track without preview to be unplayable")
			}
			if second.Artist.Name != "" || second.Album.CoverURL != nil || second.Album.Year != nil {
				t.Errorf("expected empty artist and album extras, got %+v", second)
			}
		})

		t.Run("Blank Query", func(t *testing.T) {
			var tokens atomic.Int32
			server := newSpotifyServer(t, &tokens, func(w http.ResponseWriter, r *http.Request) {
				t.Error("search should not be called for a blank query")
			})

			p, _ := NewSpotifyProvider("id", "secret", Options{BaseURL: server.URL + "/v1", TokenURL: server.URL + "/token"})
			tracks, err := p.Tracks(context.Background(), 10, "   ")
			if err != nil || len(tracks) != 0 {
				t.Errorf("expected empty result, got %v %v", tracks, err)
			}
		})

		t.Run("Search Failure", func(t *testing.T) {
			var tokens atomic.Int32
			server := newSpotifyServer(t, &tokens, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			})

			p, _ := NewSpotifyProvider("id", "secret", Options{BaseURL: server.URL + "/v1", TokenURL: server.URL + "/token"})
			_, err := p.Tracks(context.Background(), 10, "velvet")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})
}

func TestNew(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("None", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Provider.Kind = "none"

		p, err := New(cfg, logger)
		if err != nil || p != nil {
			t.Errorf("expected nil provider, got %v %v", p, err)
		}
	})

	t.Run("Jamendo Without Credentials", func(t *testing.T) {
		cfg := shared.DefaultConfig()

		p, err := New(cfg, logger)
		if err != nil || p != nil {
			t.Errorf("expected nil provider, got %v %v", p, err)
		}
	})

	t.Run("Jamendo", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Credentials.Jamendo.ClientID = "client"

		p, err := New(cfg, logger)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if p == nil || p.Name() != models.SourceJamendo {
			t.Errorf("expected jamendo provider, got %v", p)
		}
	})

	t.Run("Spotify", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Provider.Kind = "spotify"
		cfg.Credentials.Spotify.ClientID = "id"
		cfg.Credentials.Spotify.ClientSecret = "secret"

		p, err := New(cfg, logger)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if p == nil || p.Name() != models.SourceSpotify {
			t.Errorf("expected spotify provider, got %v", p)
		}
	})

	t.Run("Unknown Kind", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Provider.Kind = "tidal"

		if _, err := New(cfg, logger); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
