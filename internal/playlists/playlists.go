// Package playlists owns playlist creation and membership rules.
//
// [Service.AddTrack] rejects duplicates and delegates position assignment to the store's atomic
// append so positions stay unique and increasing under concurrent writers.
package playlists

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// Store is the persistence the service needs. Both the SQLite and PostgreSQL stores implement it.
type Store interface {
	FirstUser(ctx context.Context) (*models.User, error)
	CreatePlaylist(ctx context.Context, playlist *models.Playlist) error
	GetPlaylist(ctx context.Context, id int64) (*models.Playlist, error)
	ListPlaylists(ctx context.Context, q models.PlaylistQuery) ([]models.PlaylistSummary, error)
	ListMemberships(ctx context.Context, playlistID int64) ([]models.Membership, error)
	AppendTrack(ctx context.Context, playlistID, trackID int64, assign models.OrderAssigner) (*models.Membership, error)
}

// CreateInput describes a new playlist. UserID 0 means "use the default owner".
type CreateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CoverURL    *string `json:"coverUrl"`
	UserID      int64   `json:"userId"`
}

// Service implements playlist operations over a [Store].
type Service struct {
	store  Store
	assign models.OrderAssigner
	logger *log.Logger
}

// NewService creates a [Service] that assigns positions with [models.NextOrder].
func NewService(store Store, logger *log.Logger) *Service {
	return &Service{store: store, assign: models.NextOrder, logger: logger}
}

// CreatePlaylist creates a playlist owned by input.UserID, or by the first user when no owner is given.
func (s *Service) CreatePlaylist(ctx context.Context, input CreateInput) (*models.Playlist, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}

	ownerID := input.UserID
	if ownerID == 0 {
		owner, err := s.store.FirstUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default owner: %w", err)
		}
		if owner == nil {
			return nil, fmt.Errorf("%w: no default user available to own the playlist", shared.ErrValidation)
		}
		ownerID = owner.ID
	}

	playlist := &models.Playlist{
		Name:        name,
		Description: input.Description,
		CoverURL:    input.CoverURL,
		UserID:      ownerID,
	}
	if err := s.store.CreatePlaylist(ctx, playlist); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	s.logger.Info("created playlist", "id", playlist.ID, "owner", ownerID)
	return playlist, nil
}

// ListPlaylists returns playlists newest first with owners and ordered track summaries.
func (s *Service) ListPlaylists(ctx context.Context, q models.PlaylistQuery) ([]models.PlaylistSummary, error) {
	playlists, err := s.store.ListPlaylists(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return playlists, nil
}

// AddTrack appends trackID to the playlist.
//
// Fails with [shared.ErrNotFound] for an unknown playlist or track and with [shared.ErrConflict]
// when the track is already present; a rejected call leaves the playlist unchanged.
func (s *Service) AddTrack(ctx context.Context, playlistID, trackID int64) (*models.Membership, error) {
	if playlistID <= 0 {
		return nil, fmt.Errorf("%w: invalid playlist id", shared.ErrValidation)
	}
	if trackID <= 0 {
		return nil, fmt.Errorf("%w: trackId is required", shared.ErrValidation)
	}

	membership, err := s.store.AppendTrack(ctx, playlistID, trackID, s.assign)
	if err != nil {
		return nil, fmt.Errorf("failed to add track %d to playlist %d: %w", trackID, playlistID, err)
	}

	s.logger.Debug("added track", "playlist", playlistID, "track", trackID, "order", membership.Order)
	return membership, nil
}

// ListByPlaylist returns the playlist's memberships ascending by order.
func (s *Service) ListByPlaylist(ctx context.Context, playlistID int64) ([]models.Membership, error) {
	if playlistID <= 0 {
		return nil, fmt.Errorf("%w: invalid playlist id", shared.ErrValidation)
	}

	members, err := s.store.ListMemberships(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist %d: %w", playlistID, err)
	}
	return members, nil
}
