package models

import "testing"

func TestNextOrder(t *testing.T) {
	tc := []struct {
		name string
		max  int
		ok   bool
		want int
	}{
		{name: "empty playlist", max: 0, ok: false, want: 1},
		{name: "one member", max: 1, ok: true, want: 2},
		{name: "gap in positions", max: 7, ok: true, want: 8},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextOrder(tt.max, tt.ok); got != tt.want {
				t.Errorf("NextOrder(%d, %v) = %d, want %d", tt.max, tt.ok, got, tt.want)
			}
		})
	}
}

func TestTrackKey(t *testing.T) {
	tc := []struct {
		name  string
		track Track
		want  string
	}{
		{name: "local by id", track: Track{ID: 4}, want: "local:4"},
		{name: "provider numeric", track: Track{ID: 99, Source: SourceJamendo, ExternalID: "99"}, want: "jamendo:99"},
		{name: "provider opaque", track: Track{Source: SourceSpotify, ExternalID: "6rqhFgbbKwnb9MLmUQDhG6"}, want: "spotify:6rqhFgbbKwnb9MLmUQDhG6"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewHistoryEntry(t *testing.T) {
	audio := "https://cdn.example.com/a.mp3"
	track := Track{
		ID:       1,
		Title:    "Moonlight",
		AudioURL: &audio,
		Artist:   Artist{Name: "Luna"},
		Album:    Album{Title: "Night"},
	}

	entry := NewHistoryEntry(7, track)

	track.Title = "Renamed"
	audio = "https://cdn.example.com/b.mp3"

	if entry.UserID != 7 {
		t.Errorf("expected user 7, got %d", entry.UserID)
	}
	if entry.TrackTitle != "Moonlight" || entry.TrackArtist != "Luna" {
		t.Errorf("unexpected snapshot %+v", entry)
	}
	if entry.TrackAlbum == nil || *entry.TrackAlbum != "Night" {
		t.Errorf("expected album snapshot Night, got %v", entry.TrackAlbum)
	}
	if entry.AudioURL == nil || *entry.AudioURL != "https://cdn.example.com/a.mp3" {
		t.Errorf("audio url should not follow later edits, got %v", entry.AudioURL)
	}

	if bare := NewHistoryEntry(1, Track{Title: "x", Artist: Artist{Name: "y"}}); bare.TrackAlbum != nil || bare.AudioURL != nil {
		t.Errorf("expected nil optional fields, got %+v", bare)
	}
}

func TestPlayable(t *testing.T) {
	empty := ""
	url := "https://cdn.example.com/a.mp3"

	if (Track{}).Playable() {
		t.Error("nil audio url should not be playable")
	}
	if (Track{AudioURL: &empty}).Playable() {
		t.Error("empty audio url should not be playable")
	}
	if !(Track{AudioURL: &url}).Playable() {
		t.Error("audio url should be playable")
	}
}
