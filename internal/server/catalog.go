package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/resolver"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// CatalogStore is the local catalog read by [CatalogHandler].
type CatalogStore interface {
	resolver.FeedSource
	ListArtists(ctx context.Context) ([]models.Artist, error)
	GetAlbum(ctx context.Context, id int64) (*models.Album, error)
}

// CatalogHandler serves browse and search endpoints.
type CatalogHandler struct {
	routeSet
	resolver *resolver.Resolver
	store    CatalogStore
	logger   *log.Logger
}

// NewCatalogHandler creates a [CatalogHandler].
func NewCatalogHandler(res *resolver.Resolver, store CatalogStore, logger *log.Logger) *CatalogHandler {
	h := &CatalogHandler{resolver: res, store: store, logger: logger}
	h.routeSet = newRouteSet(map[string]http.HandlerFunc{
		"GET /api/home":               h.home,
		"GET /api/tracks":             h.tracks,
		"GET /api/search":             h.search,
		"GET /api/artists":            h.artists,
		"GET /api/albums/{id}/tracks": h.albumTracks,
	})
	return h
}

func (h *CatalogHandler) home(w http.ResponseWriter, r *http.Request) {
	feed, err := h.resolver.Home(r.Context(), h.store)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// tracks answers with the resolved track list only.
func (h *CatalogHandler) tracks(w http.ResponseWriter, r *http.Request) {
	limit := resolver.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("%w: limit must be a number", shared.ErrValidation))
			return
		}
		limit = n
	}

	result, err := h.resolver.Resolve(r.Context(), limit, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("X-Track-Source", result.Source)
	writeJSON(w, http.StatusOK, result.Tracks)
}

func (h *CatalogHandler) search(w http.ResponseWriter, r *http.Request) {
	result, err := h.resolver.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if result.Source != "" {
		w.Header().Set("X-Track-Source", result.Source)
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CatalogHandler) artists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.store.ListArtists(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if artists == nil {
		artists = []models.Artist{}
	}
	writeJSON(w, http.StatusOK, artists)
}

func (h *CatalogHandler) albumTracks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "album")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	album, err := h.store.GetAlbum(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if album.Tracks == nil {
		album.Tracks = []models.Track{}
	}
	writeJSON(w, http.StatusOK, album)
}
