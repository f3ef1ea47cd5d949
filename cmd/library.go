package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotifycc/internal/formatter"
	"github.com/desertthunder/spotifycc/internal/playlists"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// Health checks the configured server.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	api := r.client()
	if err := api.Health(ctx); err != nil {
		return fmt.Errorf("server at %s is not healthy: %w", r.config.Client.BaseURL, err)
	}
	return r.writePlain("✓ %s is up\n", r.config.Client.BaseURL)
}

// Tracks lists resolved tracks, optionally filtered by a query.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	limit := cmd.Int("limit")
	if limit < 1 || limit > 200 {
		return fmt.Errorf("%w: --limit must be between 1 and 200", shared.ErrInvalidFlag)
	}

	query := strings.TrimSpace(cmd.StringArg("query"))
	r.logger.Debug("listing tracks", "limit", limit, "query", query)

	tracks, err := r.client().Tracks(ctx, limit, query)
	if err != nil {
		return err
	}

	heading := "Tracks"
	if query != "" {
		heading = fmt.Sprintf("Tracks matching '%s'", query)
	}
	data, err := formatter.Tracks(format, heading, tracks)
	if err != nil {
		return err
	}
	return r.render(cmd, data)
}

// Search searches tracks, artists and albums.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	result, err := r.client().Search(ctx, query)
	if err != nil {
		return err
	}

	data, err := formatter.Search(format, query, result)
	if err != nil {
		return err
	}
	return r.render(cmd, data)
}

// PlaylistsList lists playlists with owners and track summaries.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	summaries, err := r.client().Playlists(ctx)
	if err != nil {
		return err
	}

	data, err := formatter.Playlists(format, summaries)
	if err != nil {
		return err
	}
	return r.render(cmd, data)
}

// PlaylistsCreate creates a playlist.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	input := playlists.CreateInput{Name: name, UserID: int64(cmd.Int("user-id"))}
	if desc := cmd.String("description"); desc != "" {
		input.Description = &desc
	}
	if cover := cmd.String("cover"); cover != "" {
		input.CoverURL = &cover
	}

	playlist, err := r.client().CreatePlaylist(ctx, input)
	if err != nil {
		return err
	}

	r.logger.Info("created playlist", "id", playlist.ID)
	return r.writePlain("✓ Created playlist [%d] %s\n", playlist.ID, playlist.Name)
}

// PlaylistsAdd appends a track to a playlist.
func (r *Runner) PlaylistsAdd(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := parseID(cmd.StringArg("playlist-id"), "playlist-id")
	if err != nil {
		return err
	}
	trackID, err := parseID(cmd.StringArg("track-id"), "track-id")
	if err != nil {
		return err
	}

	membership, err := r.client().AddTrack(ctx, playlistID, trackID)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added '%s' to playlist %d at position %d\n", membership.Track.Title, playlistID, membership.Order)
}

// PlaylistsShow prints a playlist's tracks in order.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := parseID(cmd.StringArg("playlist-id"), "playlist-id")
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	api := r.client()
	members, err := api.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("Playlist %d", playlistID)
	if summaries, err := api.Playlists(ctx); err == nil {
		for _, p := range summaries {
			if p.ID == playlistID {
				name = p.Name
				break
			}
		}
	}

	data, err := formatter.Memberships(format, name, members)
	if err != nil {
		return err
	}
	return r.render(cmd, data)
}

// History prints the configured listener's most recent plays.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	api := r.client()
	if api.UserID() == 0 {
		r.logger.Warn("client.user_id is not set; anonymous listeners have no history")
	}

	entries, err := api.History(ctx)
	if err != nil {
		return err
	}

	data, err := formatter.History(format, entries, time.Now())
	if err != nil {
		return err
	}
	return r.render(cmd, data)
}

func parseID(s, name string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", shared.ErrInvalidArgument, name, s)
	}
	return id, nil
}
