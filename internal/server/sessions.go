package server

import (
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/playback"
)

// SessionHandler drives playback sessions owned by the caller.
//
// Navigation responses carry the new queue state immediately; history is recorded in the background.
type SessionHandler struct {
	routeSet
	sessions *playback.Registry
	logger   *log.Logger
}

type queueRequest struct {
	Tracks     []models.Track `json:"tracks"`
	StartIndex *int           `json:"startIndex"`
}

type playRequest struct {
	Track  *models.Track  `json:"track"`
	Tracks []models.Track `json:"tracks"`
}

type sessionResponse struct {
	ID    string         `json:"id"`
	State playback.State `json:"state"`
}

// NewSessionHandler creates a [SessionHandler] over sessions.
func NewSessionHandler(sessions *playback.Registry, logger *log.Logger) *SessionHandler {
	h := &SessionHandler{sessions: sessions, logger: logger}
	h.routeSet = newRouteSet(map[string]http.HandlerFunc{
		"POST /api/sessions":           h.create,
		"GET /api/sessions/{id}":       h.state,
		"PUT /api/sessions/{id}/queue": h.setQueue,
		"POST /api/sessions/{id}/play": h.play,
		"POST /api/sessions/{id}/next": h.next,
		"POST /api/sessions/{id}/prev": h.prev,
		"DELETE /api/sessions/{id}":    h.end,
	})
	return h
}

func (q queueRequest) start() int {
	if q.StartIndex == nil {
		return 0
	}
	return *q.StartIndex
}

func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	id, session := h.sessions.Create(UserID(r.Context()))
	state := session.SetQueue(req.Tracks, req.start())
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, State: state})
}

// session loads the caller's session named by the path, writing the error response on failure.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (string, *playback.Session, bool) {
	id := r.PathValue("id")
	session, err := h.sessions.Get(id, UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return "", nil, false
	}
	return id, session, true
}

func (h *SessionHandler) state(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, State: session.State()})
}

func (h *SessionHandler) setQueue(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req queueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, State: session.SetQueue(req.Tracks, req.start())})
}

func (h *SessionHandler) play(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req playRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Track == nil {
		writeMessage(w, http.StatusBadRequest, "track is required")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, State: session.PlayTrack(*req.Track, req.Tracks)})
}

func (h *SessionHandler) next(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, State: session.Next()})
}

func (h *SessionHandler) prev(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, State: session.Prev()})
}

func (h *SessionHandler) end(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.PathValue("id"), UserID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
