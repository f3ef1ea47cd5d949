package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// CreatePlaylist inserts playlist and fills in its ID and CreatedAt.
func (s *Store) CreatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	if strings.TrimSpace(playlist.Name) == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	}

	if _, err := s.GetUser(ctx, playlist.UserID); err != nil {
		return err
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO playlists (name, description, cover_url, user_id) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		playlist.Name, playlist.Description, playlist.CoverURL, playlist.UserID,
	).Scan(&playlist.ID, &playlist.CreatedAt)
	if err != nil {
		return storeErr("insert playlist", err)
	}
	return nil
}

// GetPlaylist retrieves a playlist by ID
func (s *Store) GetPlaylist(ctx context.Context, id int64) (*models.Playlist, error) {
	var p models.Playlist
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, cover_url, user_id, created_at FROM playlists WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CoverURL, &p.UserID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("playlist", id)
	}
	if err != nil {
		return nil, storeErr("query playlist", err)
	}
	return &p, nil
}

// ListPlaylists returns playlists newest first with their owners and ordered track summaries.
func (s *Store) ListPlaylists(ctx context.Context, q models.PlaylistQuery) ([]models.PlaylistSummary, error) {
	query := `
		SELECT p.id, p.name, p.description, p.cover_url, u.id, u.name
		FROM playlists p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC
	`
	args := []any{}
	if q.Limit > 0 {
		query += " LIMIT $1"
		args = append(args, q.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query playlists", err)
	}

	playlists := []models.PlaylistSummary{}
	index := map[int64]int{}
	ids := []int64{}
	for rows.Next() {
		var p models.PlaylistSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CoverURL, &p.Owner.ID, &p.Owner.Name); err != nil {
			rows.Close()
			return nil, storeErr("scan playlist", err)
		}
		p.Tracks = []models.TrackSummary{}
		index[p.ID] = len(playlists)
		ids = append(ids, p.ID)
		playlists = append(playlists, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate playlists", err)
	}

	if len(ids) == 0 {
		return playlists, nil
	}

	members, err := s.membershipsFor(ctx, ids)
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
func (s *Store) ListMemberships(ctx context.Context, playlistID int64) ([]models.Membership, error) {
	if _, err := s.GetPlaylist(ctx, playlistID); err != nil {
		return nil, err
	}
	return s.membershipsFor(ctx, []int64{playlistID})
}

// AppendTrack adds trackID to the end of the playlist.
//
// The playlist row stays locked until commit, so concurrent appends to one playlist take turns
// while appends to other playlists proceed.
func (s *Store) AppendTrack(ctx context.Context, playlistID, trackID int64, assign models.OrderAssigner) (*models.Membership, error) {
	if assign == nil {
		assign = models.NextOrder
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM playlists WHERE id = $1 FOR UPDATE`, playlistID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("playlist", playlistID)
	}
	if err != nil {
		return nil, storeErr("lock playlist", err)
	}

	track, err := getTrack(ctx, tx, trackID)
	if err != nil {
		return nil, err
	}

	var member bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM playlist_tracks WHERE playlist_id = $1 AND track_id = $2)`,
		playlistID, trackID,
	).Scan(&member)
	if err != nil {
		return nil, storeErr("query membership", err)
	}
	if member {
		return nil, fmt.Errorf("%w: track %d already in playlist %d", shared.ErrConflict, trackID, playlistID)
	}

	var top *int
	if err := tx.QueryRow(ctx, `SELECT MAX(position) FROM playlist_tracks WHERE playlist_id = $1`, playlistID).Scan(&top); err != nil {
		return nil, storeErr("query max position", err)
	}

	current := 0
	if top != nil {
		current = *top
	}
	position := assign(current, top != nil)
	if position <= current || position < 1 {
		return nil, fmt.Errorf("%w: assigned position %d does not follow %d", shared.ErrStoreFailure, position, current)
	}

	membership := &models.Membership{PlaylistID: playlistID, TrackID: trackID, Order: position, Track: *track}
	err = tx.QueryRow(ctx,
		`INSERT INTO playlist_tracks (playlist_id, track_id, position) VALUES ($1, $2, $3) RETURNING added_at`,
		playlistID, trackID, position,
	).Scan(&membership.AddedAt)
	if err != nil {
		return nil, storeErr("insert membership", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit membership", err)
	}
	return membership, nil
}

func (s *Store) membershipsFor(ctx context.Context, ids []int64) ([]models.Membership, error) {
	query := strings.Replace(trackSelect, "SELECT", "SELECT pt.playlist_id, pt.position, pt.added_at,", 1) + `
		JOIN playlist_tracks pt ON pt.track_id = t.id
		WHERE pt.playlist_id = ANY($1)
		ORDER BY pt.playlist_id, pt.position ASC`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, storeErr("query memberships", err)
	}
	defer rows.Close()

	members := []models.Membership{}
	for rows.Next() {
		var m models.Membership
		track, err := scanTrack(rows, &m.PlaylistID, &m.Order, &m.AddedAt)
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
