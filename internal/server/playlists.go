package server

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/playlists"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// PlaylistHandler serves playlists and their memberships.
type PlaylistHandler struct {
	routeSet
	svc    *playlists.Service
	logger *log.Logger
}

type addTrackRequest struct {
	TrackID int64 `json:"trackId"`
}

// NewPlaylistHandler creates a [PlaylistHandler].
func NewPlaylistHandler(svc *playlists.Service, logger *log.Logger) *PlaylistHandler {
	h := &PlaylistHandler{svc: svc, logger: logger}
	h.routeSet = newRouteSet(map[string]http.HandlerFunc{
		"GET /api/playlists":              h.list,
		"POST /api/playlists":             h.create,
		"GET /api/playlists/{id}/tracks":  h.tracks,
		"POST /api/playlists/{id}/tracks": h.addTrack,
	})
	return h
}

func (h *PlaylistHandler) list(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.ListPlaylists(r.Context(), models.PlaylistQuery{})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if summaries == nil {
		summaries = []models.PlaylistSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *PlaylistHandler) create(w http.ResponseWriter, r *http.Request) {
	var input playlists.CreateInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, h.logger, err)
		return
	}

	playlist, err := h.svc.CreatePlaylist(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlist)
}

func (h *PlaylistHandler) tracks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "playlist")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	members, err := h.svc.ListByPlaylist(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if members == nil {
		members = []models.Membership{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *PlaylistHandler) addTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "playlist")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req addTrackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.TrackID <= 0 {
		writeError(w, h.logger, fmt.Errorf("%w: trackId is required", shared.ErrValidation))
		return
	}

	membership, err := h.svc.AddTrack(r.Context(), id, req.TrackID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}
