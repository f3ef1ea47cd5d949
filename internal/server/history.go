package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// HistoryStore persists and lists plays.
type HistoryStore interface {
	RecordPlay(ctx context.Context, entry *models.HistoryEntry) error
	RecentPlays(ctx context.Context, userID int64, limit int) ([]models.HistoryEntry, error)
}

// HistoryHandler serves the authenticated listener's play history.
type HistoryHandler struct {
	routeSet
	store  HistoryStore
	limit  int
	logger *log.Logger
}

type recordPlayRequest struct {
	TrackTitle  string  `json:"trackTitle"`
	TrackArtist string  `json:"trackArtist"`
	TrackAlbum  *string `json:"trackAlbum"`
	AudioURL    *string `json:"audioUrl"`
}

// NewHistoryHandler creates a [HistoryHandler] listing at most limit entries.
func NewHistoryHandler(store HistoryStore, limit int, logger *log.Logger) *HistoryHandler {
	h := &HistoryHandler{store: store, limit: limit, logger: logger}
	h.routeSet = newRouteSet(map[string]http.HandlerFunc{
		"GET /api/history":  h.list,
		"POST /api/history": h.record,
	})
	return h
}

// list answers anonymous callers with an empty history.
func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	history := []models.HistoryEntry{}

	if userID := UserID(r.Context()); userID != 0 {
		entries, err := h.store.RecentPlays(r.Context(), userID, h.limit)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if entries != nil {
			history = entries
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (h *HistoryHandler) record(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	if userID == 0 {
		writeError(w, h.logger, fmt.Errorf("%w: Not authenticated", shared.ErrUnauthenticated))
		return
	}

	var req recordPlayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.TrackTitle == "" || req.TrackArtist == "" {
		writeError(w, h.logger, fmt.Errorf("%w: Missing track data", shared.ErrValidation))
		return
	}

	entry := &models.HistoryEntry{
		UserID:      userID,
		TrackTitle:  req.TrackTitle,
		TrackArtist: req.TrackArtist,
		TrackAlbum:  req.TrackAlbum,
		AudioURL:    req.AudioURL,
	}
	if err := h.store.RecordPlay(r.Context(), entry); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}
