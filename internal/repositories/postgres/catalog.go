package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

const trackSelect = `
	SELECT t.id, t.title, t.duration_seconds, t.audio_url,
		ar.id, ar.name, ar.image_url,
		al.id, al.title, al.cover_url, al.year,
		aa.id, aa.name, aa.image_url
	FROM tracks t
	JOIN artists ar ON ar.id = t.artist_id
	JOIN albums al ON al.id = t.album_id
	JOIN artists aa ON aa.id = al.artist_id
`

const albumSelect = `
	SELECT al.id, al.title, al.cover_url, al.year, aa.id, aa.name, aa.image_url
	FROM albums al
	JOIN artists aa ON aa.id = al.artist_id
`

// CreateArtist inserts artist and sets its ID.
func (s *Store) CreateArtist(ctx context.Context, artist *models.Artist) error {
	if artist.Name == "" {
		return fmt.Errorf("%w: artist name is required", shared.ErrValidation)
	}
	err := s.pool.QueryRow(ctx, `INSERT INTO artists (name, image_url) VALUES ($1, $2) RETURNING id`, artist.Name, artist.ImageURL).
		Scan(&artist.ID)
	if err != nil {
		return storeErr("insert artist", err)
	}
	return nil
}

// CreateAlbum inserts album for album.Artist and sets its ID.
func (s *Store) CreateAlbum(ctx context.Context, album *models.Album) error {
	if album.Title == "" || album.Artist.ID == 0 {
		return fmt.Errorf("%w: album title and artist are required", shared.ErrValidation)
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO albums (title, cover_url, year, artist_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		album.Title, album.CoverURL, album.Year, album.Artist.ID,
	).Scan(&album.ID)
	if err != nil {
		return storeErr("insert album", err)
	}
	return nil
}

// CreateTrack inserts track for track.Artist and track.Album and sets its ID.
func (s *Store) CreateTrack(ctx context.Context, track *models.Track) error {
	if track.Title == "" || track.Artist.ID == 0 || track.Album.ID == 0 {
		return fmt.Errorf("%w: track title, artist and album are required", shared.ErrValidation)
	}
	if track.DurationSeconds < 0 {
		return fmt.Errorf("%w: track duration must not be negative", shared.ErrValidation)
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tracks (title, duration_seconds, audio_url, artist_id, album_id) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		track.Title, track.DurationSeconds, track.AudioURL, track.Artist.ID, track.Album.ID,
	).Scan(&track.ID)
	if err != nil {
		return storeErr("insert track", err)
	}
	track.Source = models.SourceLocal
	return nil
}

// GetTrack retrieves a track with its artist and album.
func (s *Store) GetTrack(ctx context.Context, id int64) (*models.Track, error) {
	return getTrack(ctx, s.pool, id)
}

// RecentTracks returns up to limit tracks, most recently created first.
func (s *Store) RecentTracks(ctx context.Context, limit int) ([]models.Track, error) {
	return s.queryTracks(ctx, trackSelect+`ORDER BY t.created_at DESC, t.id DESC LIMIT $1`, limit)
}

// SearchTracks returns up to limit tracks whose title contains query, ignoring case.
func (s *Store) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	return s.queryTracks(ctx, trackSelect+`WHERE t.title ILIKE $1 ORDER BY t.created_at DESC, t.id DESC LIMIT $2`, likePattern(query), limit)
}

// SearchArtists returns up to limit artists whose name contains query, ignoring case.
func (s *Store) SearchArtists(ctx context.Context, query string, limit int) ([]models.Artist, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, image_url FROM artists WHERE name ILIKE $1 ORDER BY name ASC, id ASC LIMIT $2`,
		likePattern(query), limit,
	)
	if err != nil {
		return nil, storeErr("query artists", err)
	}
	defer rows.Close()

	artists := []models.Artist{}
	for rows.Next() {
		var a models.Artist
		if err := rows.Scan(&a.ID, &a.Name, &a.ImageURL); err != nil {
			return nil, storeErr("scan artist", err)
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate artists", err)
	}
	return artists, nil
}

// SearchAlbums returns up to limit albums whose title contains query, ignoring case.
func (s *Store) SearchAlbums(ctx context.Context, query string, limit int) ([]models.Album, error) {
	return s.queryAlbums(ctx, albumSelect+`WHERE al.title ILIKE $1 ORDER BY al.title ASC, al.id ASC LIMIT $2`, likePattern(query), limit)
}

// RecentAlbums returns up to limit albums, newest first.
func (s *Store) RecentAlbums(ctx context.Context, limit int) ([]models.Album, error) {
	return s.queryAlbums(ctx, albumSelect+`ORDER BY al.created_at DESC, al.id DESC LIMIT $1`, limit)
}

// ListArtists returns every artist ordered by name, with track counts.
func (s *Store) ListArtists(ctx context.Context) ([]models.Artist, error) {
	return s.artistsWithCounts(ctx, `ORDER BY a.name ASC, a.id ASC`)
}

// RecentArtists returns up to limit artists, newest first, with track counts.
func (s *Store) RecentArtists(ctx context.Context, limit int) ([]models.Artist, error) {
	return s.artistsWithCounts(ctx, `ORDER BY a.created_at DESC, a.id DESC LIMIT $1`, limit)
}

// GetAlbum retrieves an album with its artist and tracks ordered by id.
func (s *Store) GetAlbum(ctx context.Context, id int64) (*models.Album, error) {
	album, err := scanAlbum(s.pool.QueryRow(ctx, albumSelect+`WHERE al.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("album", id)
	}
	if err != nil {
		return nil, storeErr("query album", err)
	}

	album.Tracks, err = s.queryTracks(ctx, trackSelect+`WHERE t.album_id = $1 ORDER BY t.id ASC`, id)
	if err != nil {
		return nil, err
	}
	return album, nil
}

func (s *Store) artistsWithCounts(ctx context.Context, tail string, args ...any) ([]models.Artist, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.name, a.image_url, COUNT(t.id)
		FROM artists a
		LEFT JOIN tracks t ON t.artist_id = a.id
		GROUP BY a.id `+tail, args...)
	if err != nil {
		return nil, storeErr("query artists", err)
	}
	defer rows.Close()

	artists := []models.Artist{}
	for rows.Next() {
		var (
			a     models.Artist
			count int
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.ImageURL, &count); err != nil {
			return nil, storeErr("scan artist", err)
		}
		a.TrackCount = &count
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate artists", err)
	}
	return artists, nil
}

func (s *Store) queryTracks(ctx context.Context, query string, args ...any) ([]models.Track, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query tracks", err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, storeErr("scan track", err)
		}
		tracks = append(tracks, *track)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate tracks", err)
	}
	return tracks, nil
}

func (s *Store) queryAlbums(ctx context.Context, query string, args ...any) ([]models.Album, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query albums", err)
	}
	defer rows.Close()

	albums := []models.Album{}
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, storeErr("scan album", err)
		}
		albums = append(albums, *album)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate albums", err)
	}
	return albums, nil
}

// querier is satisfied by [pgxpool.Pool] and [pgx.Tx].
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getTrack(ctx context.Context, q querier, id int64) (*models.Track, error) {
	track, err := scanTrack(q.QueryRow(ctx, trackSelect+`WHERE t.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("track", id)
	}
	if err != nil {
		return nil, storeErr("query track", err)
	}
	return track, nil
}

func scanTrack(row pgx.Row, prefix ...any) (*models.Track, error) {
	var t models.Track
	dest := append(prefix,
		&t.ID, &t.Title, &t.DurationSeconds, &t.AudioURL,
		&t.Artist.ID, &t.Artist.Name, &t.Artist.ImageURL,
		&t.Album.ID, &t.Album.Title, &t.Album.CoverURL, &t.Album.Year,
		&t.Album.Artist.ID, &t.Album.Artist.Name, &t.Album.Artist.ImageURL,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	t.Source = models.SourceLocal
	return &t, nil
}

func scanAlbum(row pgx.Row) (*models.Album, error) {
	var a models.Album
	if err := row.Scan(&a.ID, &a.Title, &a.CoverURL, &a.Year, &a.Artist.ID, &a.Artist.Name, &a.Artist.ImageURL); err != nil {
		return nil, err
	}
	return &a, nil
}
