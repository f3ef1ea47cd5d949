package resolver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/spotifycc/internal/models"
)

const (
	homePlaylists         = 6
	homeTracksPerPlaylist = 3
	homeAlbums            = 8
	homeArtists           = 8
	homeTrending          = 10
)

// FeedSource supplies the local sections of the home feed.
type FeedSource interface {
	ListPlaylists(ctx context.Context, q models.PlaylistQuery) ([]models.PlaylistSummary, error)
	RecentAlbums(ctx context.Context, limit int) ([]models.Album, error)
	RecentArtists(ctx context.Context, limit int) ([]models.Artist, error)
}

// HomeFeed is the landing page payload.
type HomeFeed struct {
	FeaturedPlaylists []models.PlaylistSummary `json:"featuredPlaylists"`
	NewReleases       []models.Album           `json:"newReleases"`
	TopArtists        []models.Artist          `json:"topArtists"`
	TrendingTracks    []models.Track           `json:"trendingTracks"`
}

// Home assembles featured playlists, new releases and top artists from feed, and trending tracks
// from [Resolver.Resolve], concurrently.
func (r *Resolver) Home(ctx context.Context, feed FeedSource) (*HomeFeed, error) {
	home := &HomeFeed{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		playlists, err := feed.ListPlaylists(gctx, models.PlaylistQuery{Limit: homePlaylists, TracksPerPlaylist: homeTracksPerPlaylist})
		if err != nil {
			return fmt.Errorf("failed to list featured playlists: %w", err)
		}
		home.FeaturedPlaylists = playlists
		return nil
	})

	g.Go(func() error {
		albums, err := feed.RecentAlbums(gctx, homeAlbums)
		if err != nil {
			return fmt.Errorf("failed to list new releases: %w", err)
		}
		home.NewReleases = albums
		return nil
	})

	g.Go(func() error {
		artists, err := feed.RecentArtists(gctx, homeArtists)
		if err != nil {
			return fmt.Errorf("failed to list top artists: %w", err)
		}
		home.TopArtists = artists
		return nil
	})

	g.Go(func() error {
		trending, err := r.Resolve(gctx, homeTrending, "")
		if err != nil {
			return fmt.Errorf("failed to resolve trending tracks: %w", err)
		}
		home.TrendingTracks = trending.Tracks
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, storeFailure(err)
	}
	return home, nil
}
