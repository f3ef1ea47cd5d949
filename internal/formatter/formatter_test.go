package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/resolver"
	"github.com/desertthunder/spotifycc/internal/shared"
	th "github.com/desertthunder/spotifycc/internal/testing"
)

func sampleTracks() []models.Track {
	return []models.Track{
		{
			ID:              1,
			Title:           "Velvet Hours",
			DurationSeconds: 214,
			AudioURL:        models.StringPtr("https://cdn.test/velvet.mp3"),
			Artist:          models.Artist{ID: 1, Name: "Luna Park"},
			Album:           models.Album{ID: 1, Title: "Night Drive"},
		},
		{
			ID:              2,
			ExternalID:      "1532772",
			Source:          models.SourceJamendo,
			Title:           "Loose, Ends",
			DurationSeconds: 3725,
			Artist:          models.Artist{Name: "Paper Moths"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", JSON},
		{"CSV", CSV},
		{"md", Markdown},
		{"markdown", Markdown},
		{"txt", Text},
		{"", Text},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestDurations(t *testing.T) {
	t.Run("FormatDuration", func(t *testing.T) {
		tests := map[int]string{0: "0:00", 59: "0:59", 214: "3:34", 3725: "1:02:05", -4: "0:00"}
		for in, want := range tests {
			if got := FormatDuration(in); got != want {
				t.Errorf("FormatDuration(%d) = %s, want %s", in, got, want)
			}
		}
	})

	t.Run("TotalDuration", func(t *testing.T) {
		if got := TotalDuration(nil); got != "0 seconds" {
			t.Errorf("expected 0 seconds, got %s", got)
		}
		if got := TotalDuration(sampleTracks()[:1]); got != "3 minutes" {
			t.Errorf("expected 3 minutes, got %s", got)
		}
		if got := TotalDuration(sampleTracks()); got != "1 h 5 min" {
			t.Errorf("expected 1 h 5 min, got %s", got)
		}
	})
}

func TestTracks(t *testing.T) {
	t.Run("CSV", func(t *testing.T) {
		data, err := Tracks(CSV, "", sampleTracks())
		if err != nil {
			t.Fatalf("Tracks failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Key,Title,Artist,Album,Duration,Audio URL\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "local:1,Velvet Hours,Luna Park,Night Drive,214,https://cdn.test/velvet.mp3") {
			t.Errorf("CSV missing first track, got: %s", output)
		}
		if !strings.Contains(output, `jamendo:1532772,"Loose, Ends",Paper Moths,,3725,`) {
			t.Errorf("CSV should quote commas, got: %s", output)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, _ := Tracks(Markdown, "Trending", sampleTracks())
		output := string(data)

		for _, want := range []string{
			"# Trending\n",
			"**Tracks**: 2",
			"1. Luna Park - Velvet Hours (Night Drive) [3:34]\n",
			"2. Paper Moths - Loose, Ends [1:02:05] _unavailable_\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("Text", func(t *testing.T) {
		data, _ := Tracks(Text, "", sampleTracks())
		if string(data) != "1. Luna Park - Velvet Hours [3:34]\n2. Paper Moths - Loose, Ends [1:02:05]\n" {
			t.Errorf("unexpected text: %q", data)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := Tracks(JSON, "", sampleTracks())
		if err != nil {
			t.Fatalf("Tracks failed: %v", err)
		}
		var decoded []models.Track
		if err := json.Unmarshal(data, &decoded); err != nil || len(decoded) != 2 {
			t.Errorf("expected 2 tracks in JSON, got %v (%v)", decoded, err)
		}
	})
}

func TestMemberships(t *testing.T) {
	tracks := sampleTracks()
	added := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	members := []models.Membership{
		{PlaylistID: 1, TrackID: 1, Order: 1, AddedAt: added, Track: tracks[0]},
		{PlaylistID: 1, TrackID: 2, Order: 2, AddedAt: added, Track: tracks[1]},
	}

	t.Run("CSV", func(t *testing.T) {
		data, _ := Memberships(CSV, "Road Trip", members)
		if !strings.Contains(string(data), "1,1,Velvet Hours,Luna Park,Night Drive,214,2026-01-02T03:04:05Z") {
			t.Errorf("unexpected CSV: %s", data)
		}
	})

	t.Run("Text", func(t *testing.T) {
		data, _ := Memberships(Text, "Road Trip", members)
		output := string(data)
		if !strings.HasPrefix(output, "Playlist: Road Trip\nTracks: 2\n\n") {
			t.Errorf("unexpected header: %s", output)
		}
		if !strings.Contains(output, "2. Paper Moths - Loose, Ends [1:02:05]") {
			t.Errorf("unexpected body: %s", output)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, _ := Memberships(Markdown, "Road Trip", nil)
		if string(data) != "# Road Trip\n\n**Tracks**: 0\n\n" {
			t.Errorf("unexpected markdown: %q", data)
		}
	})
}

func TestPlaylists(t *testing.T) {
	desc := "Songs for the highway"
	summaries := []models.PlaylistSummary{
		{ID: 2, Name: "Road Trip", Description: &desc, Owner: models.Owner{ID: 1, Name: "Core Listener"},
			Tracks: []models.TrackSummary{{ID: 1}, {ID: 2}}},
		{ID: 1, Name: "Focus", Owner: models.Owner{ID: 1, Name: "Core Listener"}, Tracks: []models.TrackSummary{{ID: 3}}},
	}

	t.Run("Text", func(t *testing.T) {
		data, _ := Playlists(Text, summaries)
		want := "[2] Road Trip by Core Listener, 2 tracks\n    Songs for the highway\n[1] Focus by Core Listener, 1 track\n"
		if string(data) != want {
			t.Errorf("unexpected text:\n%s\nwant:\n%s", data, want)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, _ := Playlists(Markdown, summaries)
		if !strings.Contains(string(data), "- **Focus** by Core Listener (1 track)") {
			t.Errorf("unexpected markdown: %s", data)
		}
	})

	t.Run("CSV", func(t *testing.T) {
		data, _ := Playlists(CSV, summaries)
		if !strings.Contains(string(data), "2,Road Trip,Songs for the highway,Core Listener,2") {
			t.Errorf("unexpected CSV: %s", data)
		}
	})
}

func TestHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	album := "Night Drive"
	entries := []models.HistoryEntry{
		{ID: 2, UserID: 1, TrackTitle: "Velvet Hours", TrackArtist: "Luna Park", TrackAlbum: &album, PlayedAt: now.Add(-3 * time.Minute)},
		{ID: 1, UserID: 1, TrackTitle: "Loose Ends", TrackArtist: "Paper Moths", PlayedAt: now.Add(-2 * time.Hour)},
	}

	t.Run("Text", func(t *testing.T) {
		data, _ := History(Text, entries, now)
		output := string(data)
		if !strings.Contains(output, "3 minutes ago") || !strings.Contains(output, "Luna Park - Velvet Hours (Night Drive)") {
			t.Errorf("unexpected text: %s", output)
		}
		if !strings.Contains(output, "2 hours ago") {
			t.Errorf("expected relative time for older entry: %s", output)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		data, _ := History(Text, nil, now)
		if string(data) != "Nothing played yet.\n" {
			t.Errorf("unexpected output: %q", data)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, _ := History(Markdown, entries[:1], now)
		if string(data) != "# Recently played\n\n- Luna Park - Velvet Hours (Night Drive), _3 minutes ago_\n" {
			t.Errorf("unexpected markdown: %q", data)
		}
	})

	t.Run("CSV", func(t *testing.T) {
		data, _ := History(CSV, entries, now)
		if !strings.Contains(string(data), "2026-03-01T11:57:00Z,Velvet Hours,Luna Park,Night Drive,") {
			t.Errorf("unexpected CSV: %s", data)
		}
	})
}

func TestSearch(t *testing.T) {
	year := 2022
	result := &resolver.Result{
		Tracks:  sampleTracks()[:1],
		Artists: []models.Artist{{ID: 1, Name: "Luna Park"}},
		Albums:  []models.Album{{ID: 1, Title: "Night Drive", Year: &year, Artist: models.Artist{Name: "Luna Park"}}},
	}

	t.Run("Text", func(t *testing.T) {
		data, _ := Search(Text, "luna", result)
		want := "Tracks (1)\n1. Luna Park - Velvet Hours [3:34]\n\nArtists (1)\n- Luna Park\n\nAlbums (1)\n- Night Drive by Luna Park (2022)\n"
		if string(data) != want {
			t.Errorf("unexpected text:\n%s\nwant:\n%s", data, want)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, _ := Search(Markdown, "luna", result)
		output := string(data)
		if !strings.HasPrefix(output, "# Results for 'luna'") || !strings.Contains(output, "## Albums\n\n- Night Drive by Luna Park (2022)") {
			t.Errorf("unexpected markdown: %s", output)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, _ := Search(JSON, "luna", result)
		var decoded map[string]json.RawMessage
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		for _, key := range []string{"tracks", "artists", "albums"} {
			if _, ok := decoded[key]; !ok {
				t.Errorf("missing %s", key)
			}
		}
	})
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracks.csv")

	if err := WriteFile(path, []byte("Key,Title\n")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	th.AssertFileExists(t, path)
	if got := th.MustReadFile(t, path); got != "Key,Title\n" {
		t.Errorf("unexpected content %q", got)
	}

	if err := WriteFile(filepath.Join(t.TempDir(), "missing", "x.csv"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}
