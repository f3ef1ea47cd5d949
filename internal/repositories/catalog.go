package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// trackColumns selects a track with its artist and its album's artist.
const trackColumns = `
	t.id, t.title, t.duration_seconds, t.audio_url,
	ar.id, ar.name, ar.image_url,
	al.id, al.title, al.cover_url, al.year,
	aa.id, aa.name, aa.image_url
`

const trackJoins = `
	FROM tracks t
	JOIN artists ar ON ar.id = t.artist_id
	JOIN albums al ON al.id = t.album_id
	JOIN artists aa ON aa.id = al.artist_id
`

const albumColumns = `al.id, al.title, al.cover_url, al.year, aa.id, aa.name, aa.image_url`

// CatalogRepository reads and writes artists, albums and tracks.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new [CatalogRepository] with the given database connection
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CreateArtist inserts artist and sets its ID.
func (r *CatalogRepository) CreateArtist(ctx context.Context, artist *models.Artist) error {
	if artist.Name == "" {
		return fmt.Errorf("%w: artist name is required", shared.ErrValidation)
	}

	result, err := r.db.ExecContext(ctx, `INSERT INTO artists (name, image_url) VALUES (?, ?)`, artist.Name, nullString(artist.ImageURL))
	if err != nil {
		return storeErr("insert artist", err)
	}

	artist.ID, err = result.LastInsertId()
	if err != nil {
		return storeErr("read artist id", err)
	}
	return nil
}

// CreateAlbum inserts album for album.Artist and sets its ID.
func (r *CatalogRepository) CreateAlbum(ctx context.Context, album *models.Album) error {
	if album.Title == "" || album.Artist.ID == 0 {
		return fmt.Errorf("%w: album title and artist are required", shared.ErrValidation)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO albums (title, cover_url, year, artist_id) VALUES (?, ?, ?, ?)`,
		album.Title, nullString(album.CoverURL), nullInt(album.Year), album.Artist.ID,
	)
	if err != nil {
		return storeErr("insert album", err)
	}

	album.ID, err = result.LastInsertId()
	if err != nil {
		return storeErr("read album id", err)
	}
	return nil
}

// CreateTrack inserts track for track.Artist and track.Album and sets its ID.
func (r *CatalogRepository) CreateTrack(ctx context.Context, track *models.Track) error {
	if track.Title == "" || track.Artist.ID == 0 || track.Album.ID == 0 {
		return fmt.Errorf("%w: track title, artist and album are required", shared.ErrValidation)
	}
	if track.DurationSeconds < 0 {
		return fmt.Errorf("%w: track duration must not be negative", shared.ErrValidation)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tracks (title, duration_seconds, audio_url, artist_id, album_id) VALUES (?, ?, ?, ?, ?)`,
		track.Title, track.DurationSeconds, nullString(track.AudioURL), track.Artist.ID, track.Album.ID,
	)
	if err != nil {
		return storeErr("insert track", err)
	}

	track.ID, err = result.LastInsertId()
	if err != nil {
		return storeErr("read track id", err)
	}
	track.Source = models.SourceLocal
	return nil
}

// GetTrack retrieves a track with its artist and album.
func (r *CatalogRepository) GetTrack(ctx context.Context, id int64) (*models.Track, error) {
	return getTrack(ctx, r.db, id)
}

// RecentTracks returns up to limit tracks, most recently created first.
func (r *CatalogRepository) RecentTracks(ctx context.Context, limit int) ([]models.Track, error) {
	query := `SELECT` + trackColumns + trackJoins + `ORDER BY t.created_at DESC, t.id DESC LIMIT ?`
	return r.queryTracks(ctx, query, limit)
}

// SearchTracks returns up to limit tracks whose title contains query, ignoring case.
func (r *CatalogRepository) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	stmt := `SELECT` + trackColumns + trackJoins + `
		WHERE unicode_lower(t.title) LIKE ? ESCAPE '\'
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ?`
	return r.queryTracks(ctx, stmt, likePattern(query), limit)
}

// SearchArtists returns up to limit artists whose name contains query, ignoring case.
func (r *CatalogRepository) SearchArtists(ctx context.Context, query string, limit int) ([]models.Artist, error) {
	stmt := `
		SELECT id, name, image_url FROM artists
		WHERE unicode_lower(name) LIKE ? ESCAPE '\'
		ORDER BY name ASC, id ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, stmt, likePattern(query), limit)
	if err != nil {
		return nil, storeErr("query artists", err)
	}
	defer rows.Close()

	artists := []models.Artist{}
	for rows.Next() {
		var (
			a     models.Artist
			image sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &image); err != nil {
			return nil, storeErr("scan artist", err)
		}
		a.ImageURL = stringPtr(image)
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate artists", err)
	}
	return artists, nil
}

// SearchAlbums returns up to limit albums whose title contains query, ignoring case.
func (r *CatalogRepository) SearchAlbums(ctx context.Context, query string, limit int) ([]models.Album, error) {
	stmt := `SELECT ` + albumColumns + `
		FROM albums al
		JOIN artists aa ON aa.id = al.artist_id
		WHERE unicode_lower(al.title) LIKE ? ESCAPE '\'
		ORDER BY al.title ASC, al.id ASC
		LIMIT ?`
	return r.queryAlbums(ctx, stmt, likePattern(query), limit)
}

// RecentAlbums returns up to limit albums, newest first.
func (r *CatalogRepository) RecentAlbums(ctx context.Context, limit int) ([]models.Album, error) {
	stmt := `SELECT ` + albumColumns + `
		FROM albums al
		JOIN artists aa ON aa.id = al.artist_id
		ORDER BY al.created_at DESC, al.id DESC
		LIMIT ?`
	return r.queryAlbums(ctx, stmt, limit)
}

// ListArtists returns every artist ordered by name, with track counts.
func (r *CatalogRepository) ListArtists(ctx context.Context) ([]models.Artist, error) {
	return r.artistsWithCounts(ctx, `ORDER BY a.name ASC, a.id ASC`)
}

// RecentArtists returns up to limit artists, newest first, with track counts.
func (r *CatalogRepository) RecentArtists(ctx context.Context, limit int) ([]models.Artist, error) {
	return r.artistsWithCounts(ctx, `ORDER BY a.created_at DESC, a.id DESC LIMIT ?`, limit)
}

// GetAlbum retrieves an album with its artist and tracks ordered by id.
func (r *CatalogRepository) GetAlbum(ctx context.Context, id int64) (*models.Album, error) {
	stmt := `SELECT ` + albumColumns + `
		FROM albums al
		JOIN artists aa ON aa.id = al.artist_id
		WHERE al.id = ?`

	album, err := scanAlbum(r.db.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("album", id)
	}
	if err != nil {
		return nil, storeErr("query album", err)
	}

	tracks, err := r.queryTracks(ctx, `SELECT`+trackColumns+trackJoins+`WHERE t.album_id = ? ORDER BY t.id ASC`, id)
	if err != nil {
		return nil, err
	}
	album.Tracks = tracks
	return album, nil
}

func (r *CatalogRepository) artistsWithCounts(ctx context.Context, tail string, args ...any) ([]models.Artist, error) {
	stmt := `
		SELECT a.id, a.name, a.image_url, COUNT(t.id)
		FROM artists a
		LEFT JOIN tracks t ON t.artist_id = a.id
		GROUP BY a.id ` + tail

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, storeErr("query artists", err)
	}
	defer rows.Close()

	artists := []models.Artist{}
	for rows.Next() {
		var (
			a     models.Artist
			image sql.NullString
			count int
		)
		if err := rows.Scan(&a.ID, &a.Name, &image, &count); err != nil {
			return nil, storeErr("scan artist", err)
		}
		a.ImageURL = stringPtr(image)
		a.TrackCount = &count
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate artists", err)
	}
	return artists, nil
}

func (r *CatalogRepository) queryTracks(ctx context.Context, query string, args ...any) ([]models.Track, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r *CatalogRepository) queryAlbums(ctx context.Context, query string, args ...any) ([]models.Album, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

// querier is satisfied by [sql.DB] and [sql.Tx].
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTrack(ctx context.Context, q querier, id int64) (*models.Track, error) {
	track, err := scanTrack(q.QueryRowContext(ctx, `SELECT`+trackColumns+trackJoins+`WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("track", id)
	}
	if err != nil {
		return nil, storeErr("query track", err)
	}
	return track, nil
}

func scanTrack(row scanner) (*models.Track, error) {
	var (
		t     models.Track
		audio sql.NullString
		image sql.NullString
		cover sql.NullString
		owner sql.NullString
		year  sql.NullInt64
	)

	err := row.Scan(
		&t.ID, &t.Title, &t.DurationSeconds, &audio,
		&t.Artist.ID, &t.Artist.Name, &image,
		&t.Album.ID, &t.Album.Title, &cover, &year,
		&t.Album.Artist.ID, &t.Album.Artist.Name, &owner,
	)
	if err != nil {
		return nil, err
	}

	t.Source = models.SourceLocal
	t.AudioURL = stringPtr(audio)
	t.Artist.ImageURL = stringPtr(image)
	t.Album.CoverURL = stringPtr(cover)
	t.Album.Year = intPtr(year)
	t.Album.Artist.ImageURL = stringPtr(owner)
	return &t, nil
}

func scanAlbum(row scanner) (*models.Album, error) {
	var (
		a            models.Album
		cover, image sql.NullString
		year         sql.NullInt64
	)

	if err := row.Scan(&a.ID, &a.Title, &cover, &year, &a.Artist.ID, &a.Artist.Name, &image); err != nil {
		return nil, err
	}

	a.CoverURL = stringPtr(cover)
	a.Year = intPtr(year)
	a.Artist.ImageURL = stringPtr(image)
	return &a, nil
}
