// Package seed loads the demo catalog: one listener, five artists with an album each, twelve tracks and three playlists.
//
// The data ships embedded as TOML. Playlists are built through [playlists.Service] so seeded
// positions come from the same order assignment as API writes.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/playlists"
	"github.com/desertthunder/spotifycc/internal/shared"
)

//go:embed seed.toml
var defaultData []byte

// Store is the persistence the seeder writes through.
type Store interface {
	playlists.Store
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateArtist(ctx context.Context, artist *models.Artist) error
	CreateAlbum(ctx context.Context, album *models.Album) error
	CreateTrack(ctx context.Context, track *models.Track) error
}

// Data is the seed document.
type Data struct {
	User struct {
		Email string `toml:"email"`
		Name  string `toml:"name"`
	} `toml:"user"`
	Artists []struct {
		Name     string `toml:"name"`
		ImageURL string `toml:"image_url"`
	} `toml:"artists"`
	Albums []struct {
		Title    string `toml:"title"`
		Artist   string `toml:"artist"`
		Year     int    `toml:"year"`
		CoverURL string `toml:"cover_url"`
	} `toml:"albums"`
	Tracks []struct {
		Title           string `toml:"title"`
		Album           string `toml:"album"`
		DurationSeconds int    `toml:"duration_seconds"`
		AudioURL        string `toml:"audio_url"`
	} `toml:"tracks"`
	Playlists []struct {
		Name        string   `toml:"name"`
		Description string   `toml:"description"`
		CoverURL    string   `toml:"cover_url"`
		Tracks      []string `toml:"tracks"`
	} `toml:"playlists"`
}

// Summary counts what [Seed] inserted.
type Summary struct {
	UserID      int64
	Artists     int
	Albums      int
	Tracks      int
	Playlists   int
	Memberships int
}

// Default returns the embedded demo data.
func Default() (*Data, error) {
	return Parse(defaultData)
}

// Parse decodes a seed document.
func Parse(b []byte) (*Data, error) {
	var data Data
	if _, err := toml.Decode(string(b), &data); err != nil {
		return nil, fmt.Errorf("%w: failed to parse seed data: %w", shared.ErrInvalidConfig, err)
	}
	if data.User.Email == "" {
		return nil, fmt.Errorf("%w: seed data needs a user email", shared.ErrInvalidConfig)
	}
	return &data, nil
}

// Seed inserts data into store.
//
// Returns [shared.ErrConflict] when the seed user already exists. Albums, tracks and playlist
// entries that name an unknown artist, album or track are skipped with a warning.
func Seed(ctx context.Context, store Store, data *Data, logger *log.Logger) (*Summary, error) {
	if _, err := store.GetUserByEmail(ctx, data.User.Email); err == nil {
		return nil, fmt.Errorf("%w: %s is already seeded", shared.ErrConflict, data.User.Email)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	user := &models.User{Email: data.User.Email, Name: data.User.Name}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	summary := &Summary{UserID: user.ID}

	artists := make(map[string]models.Artist, len(data.Artists))
	for _, a := range data.Artists {
		artist := models.Artist{Name: a.Name, ImageURL: models.StringPtr(a.ImageURL)}
		if err := store.CreateArtist(ctx, &artist); err != nil {
			return summary, err
		}
		artists[artist.Name] = artist
		summary.Artists++
	}

	albums := make(map[string]models.Album, len(data.Albums))
	for _, a := range data.Albums {
		artist, ok := artists[a.Artist]
		if !ok {
			logger.Warn("skipping album with unknown artist", "album", a.Title, "artist", a.Artist)
			continue
		}
		album := models.Album{Title: a.Title, CoverURL: models.StringPtr(a.CoverURL), Artist: artist}
		if a.Year > 0 {
			year := a.Year
			album.Year = &year
		}
		if err := store.CreateAlbum(ctx, &album); err != nil {
			return summary, err
		}
		albums[album.Title] = album
		summary.Albums++
	}

	tracks := make(map[string]int64, len(data.Tracks))
	for _, t := range data.Tracks {
		album, ok := albums[t.Album]
		if !ok {
			logger.Warn("skipping track with unknown album", "track", t.Title, "album", t.Album)
			continue
		}
		track := models.Track{
			Title:           t.Title,
			DurationSeconds: t.DurationSeconds,
			AudioURL:        models.StringPtr(t.AudioURL),
			Artist:          album.Artist,
			Album:           album,
		}
		if err := store.CreateTrack(ctx, &track); err != nil {
			return summary, err
		}
		tracks[track.Title] = track.ID
		summary.Tracks++
	}

	svc := playlists.NewService(store, logger)
	for _, p := range data.Playlists {
		playlist, err := svc.CreatePlaylist(ctx, playlists.CreateInput{
			Name:        p.Name,
			Description: models.StringPtr(p.Description),
			CoverURL:    models.StringPtr(p.CoverURL),
			UserID:      user.ID,
		})
		if err != nil {
			return summary, err
		}
		summary.Playlists++

		for _, title := range p.Tracks {
			id, ok := tracks[title]
			if !ok {
				logger.Warn("skipping unknown playlist track", "playlist", p.Name, "track", title)
				continue
			}
			if _, err := svc.AddTrack(ctx, playlist.ID, id); err != nil {
				return summary, err
			}
			summary.Memberships++
		}
	}

	logger.Info("seed data inserted", "user", user.ID, "tracks", summary.Tracks, "playlists", summary.Playlists)
	return summary, nil
}
