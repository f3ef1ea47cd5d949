package postgres

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// RecordPlay inserts entry and fills in its ID and PlayedAt.
func (s *Store) RecordPlay(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.UserID == 0 {
		return fmt.Errorf("%w: history requires a user", shared.ErrUnauthenticated)
	}
	if entry.TrackTitle == "" || entry.TrackArtist == "" {
		return fmt.Errorf("%w: track title and artist are required", shared.ErrValidation)
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO play_history (user_id, track_title, track_artist, track_album, audio_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, played_at`,
		entry.UserID, entry.TrackTitle, entry.TrackArtist, entry.TrackAlbum, entry.AudioURL,
	).Scan(&entry.ID, &entry.PlayedAt)
	if err != nil {
		return storeErr("insert history entry", err)
	}
	return nil
}

// RecentPlays returns up to limit entries for userID, newest first.
func (s *Store) RecentPlays(ctx context.Context, userID int64, limit int) ([]models.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, track_title, track_artist, track_album, audio_url, played_at
		FROM play_history
		WHERE user_id = $1
		ORDER BY played_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, storeErr("query history", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.TrackTitle, &e.TrackArtist, &e.TrackAlbum, &e.AudioURL, &e.PlayedAt); err != nil {
			return nil, storeErr("scan history entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate history", err)
	}
	return entries, nil
}
