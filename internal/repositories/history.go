package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// HistoryRepository persists [models.HistoryEntry] snapshots.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new [HistoryRepository] with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// RecordPlay inserts entry and fills in its ID and PlayedAt.
func (r *HistoryRepository) RecordPlay(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.UserID == 0 {
		return fmt.Errorf("%w: history requires a user", shared.ErrUnauthenticated)
	}
	if entry.TrackTitle == "" || entry.TrackArtist == "" {
		return fmt.Errorf("%w: track title and artist are required", shared.ErrValidation)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO play_history (user_id, track_title, track_artist, track_album, audio_url) VALUES (?, ?, ?, ?, ?)`,
		entry.UserID, entry.TrackTitle, entry.TrackArtist, nullString(entry.TrackAlbum), nullString(entry.AudioURL),
	)
	if err != nil {
		return storeErr("insert history entry", err)
	}

	entry.ID, err = result.LastInsertId()
	if err != nil {
		return storeErr("read history id", err)
	}

	if err := r.db.QueryRowContext(ctx, `SELECT played_at FROM play_history WHERE id = ?`, entry.ID).Scan(&entry.PlayedAt); err != nil {
		return storeErr("query history entry", err)
	}
	return nil
}

// RecentPlays returns up to limit entries for userID, newest first.
func (r *HistoryRepository) RecentPlays(ctx context.Context, userID int64, limit int) ([]models.HistoryEntry, error) {
	query := `
		SELECT id, user_id, track_title, track_artist, track_album, audio_url, played_at
		FROM play_history
		WHERE user_id = ?
		ORDER BY played_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, storeErr("query history", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var (
			e     models.HistoryEntry
			album sql.NullString
			audio sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.TrackTitle, &e.TrackArtist, &album, &audio, &e.PlayedAt); err != nil {
			return nil, storeErr("scan history entry", err)
		}
		e.TrackAlbum = stringPtr(album)
		e.AudioURL = stringPtr(audio)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate history", err)
	}
	return entries, nil
}
