package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// PlaylistRepository persists playlists and their ordered memberships.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new [PlaylistRepository] with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// CreatePlaylist inserts playlist and fills in its ID and CreatedAt.
//
// An unknown owner fails with [shared.ErrNotFound].
func (r *PlaylistRepository) CreatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	if strings.TrimSpace(playlist.Name) == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	}

	var owner int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, playlist.UserID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("user", playlist.UserID)
	}
	if err != nil {
		return storeErr("query user", err)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO playlists (name, description, cover_url, user_id) VALUES (?, ?, ?, ?)`,
		playlist.Name, nullString(playlist.Description), nullString(playlist.CoverURL), playlist.UserID,
	)
	if err != nil {
		return storeErr("insert playlist", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storeErr("read playlist id", err)
	}

	created, err := r.GetPlaylist(ctx, id)
	if err != nil {
		return err
	}
	*playlist = *created
	return nil
}

// GetPlaylist retrieves a playlist by ID
func (r *PlaylistRepository) GetPlaylist(ctx context.Context, id int64) (*models.Playlist, error) {
	query := `
		SELECT id, name, description, cover_url, user_id, created_at
		FROM playlists
		WHERE id = ?
	`

	var (
		p           models.Playlist
		description sql.NullString
		cover       sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &description, &cover, &p.UserID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("playlist", id)
	}
	if err != nil {
		return nil, storeErr("query playlist", err)
	}

	p.Description = stringPtr(description)
	p.CoverURL = stringPtr(cover)
	return &p, nil
}

// ListPlaylists returns playlists newest first with their owners and ordered track summaries.
func (r *PlaylistRepository) ListPlaylists(ctx context.Context, q models.PlaylistQuery) ([]models.PlaylistSummary, error) {
	query := `
		SELECT p.id, p.name, p.description, p.cover_url, u.id, u.name
		FROM playlists p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC
	`
	args := []any{}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query playlists", err)
	}
	defer rows.Close()

	playlists := []models.PlaylistSummary{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			p           models.PlaylistSummary
			description sql.NullString
			cover       sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &description, &cover, &p.Owner.ID, &p.Owner.Name); err != nil {
			return nil, storeErr("scan playlist", err)
		}
		p.Description = stringPtr(description)
		p.CoverURL = stringPtr(cover)
		p.Tracks = []models.TrackSummary{}
		index[p.ID] = len(playlists)
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate playlists", err)
	}
	rows.Close()

	if len(playlists) == 0 {
		return playlists, nil
	}

	members, err := r.membershipsFor(ctx, playlistIDs(playlists))
	if err != nil {
		return nil, err
	}

	for _, m := range members {
		p := &playlists[index[m.PlaylistID]]
		if q.TracksPerPlaylist > 0 && len(p.Tracks) >= q.TracksPerPlaylist {
			continue
		}
		p.Tracks = append(p.Tracks, models.Summarize(m.Track))
	}

	return playlists, nil
}

// ListMemberships returns the playlist's memberships ordered by position.
func (r *PlaylistRepository) ListMemberships(ctx context.Context, playlistID int64) ([]models.Membership, error) {
	if _, err := r.GetPlaylist(ctx, playlistID); err != nil {
		return nil, err
	}
	return r.membershipsFor(ctx, []int64{playlistID})
}

// AppendTrack adds trackID to the end of the playlist.
//
// The maximum position is read and the membership written in one transaction, so two appends to
// the same playlist never receive the same position. assign computes the position from the current
// maximum. Fails with [shared.ErrNotFound] for an unknown playlist or track and with
// [shared.ErrConflict] when the track is already a member.
func (r *PlaylistRepository) AppendTrack(ctx context.Context, playlistID, trackID int64, assign models.OrderAssigner) (*models.Membership, error) {
	if assign == nil {
		assign = models.NextOrder
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin transaction", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM playlists WHERE id = ?`, playlistID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("playlist", playlistID)
	}
	if err != nil {
		return nil, storeErr("query playlist", err)
	}

	track, err := getTrack(ctx, tx, trackID)
	if err != nil {
		return nil, err
	}

	var member bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?)`,
		playlistID, trackID,
	).Scan(&member)
	if err != nil {
		return nil, storeErr("query membership", err)
	}
	if member {
		return nil, fmt.Errorf("%w: track %d already in playlist %d", shared.ErrConflict, trackID, playlistID)
	}

	var top sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM playlist_tracks WHERE playlist_id = ?`, playlistID).Scan(&top); err != nil {
		return nil, storeErr("query max position", err)
	}

	position := assign(int(top.Int64), top.Valid)
	if position <= int(top.Int64) || position < 1 {
		return nil, fmt.Errorf("%w: assigned position %d does not follow %d", shared.ErrStoreFailure, position, top.Int64)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO playlist_tracks (playlist_id, track_id, position) VALUES (?, ?, ?)`,
		playlistID, trackID, position,
	)
	if err != nil {
		return nil, storeErr("insert membership", err)
	}

	membership := &models.Membership{PlaylistID: playlistID, TrackID: trackID, Order: position, Track: *track}
	err = tx.QueryRowContext(ctx,
		`SELECT added_at FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?`,
		playlistID, trackID,
	).Scan(&membership.AddedAt)
	if err != nil {
		return nil, storeErr("query membership", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit membership", err)
	}

	return membership, nil
}

func (r *PlaylistRepository) membershipsFor(ctx context.Context, ids []int64) ([]models.Membership, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT pt.playlist_id, pt.position, pt.added_at,` + trackColumns + trackJoins + `
		JOIN playlist_tracks pt ON pt.track_id = t.id
		WHERE pt.playlist_id IN (` + placeholders + `)
		ORDER BY pt.playlist_id, pt.position ASC`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query memberships", err)
	}
	defer rows.Close()

	members := []models.Membership{}
	for rows.Next() {
		var m models.Membership
		track, err := scanTrack(prefixScanner{row: rows, prefix: []any{&m.PlaylistID, &m.Order, &m.AddedAt}})
		if err != nil {
			return nil, storeErr("scan membership", err)
		}
		m.Track = *track
		m.TrackID = track.ID
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate memberships", err)
	}
	return members, nil
}

// prefixScanner scans leading columns into prefix before handing the rest to the caller's destinations.
type prefixScanner struct {
	row    scanner
	prefix []any
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.row.Scan(append(p.prefix, dest...)...)
}

func playlistIDs(playlists []models.PlaylistSummary) []int64 {
	ids := make([]int64, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID
	}
	return ids
}
