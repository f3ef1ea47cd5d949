// Package resolver decides which tracks to show for browse and search requests.
//
// A [Resolver] asks the remote [Provider] first. A non-empty provider answer is used as is;
// an empty answer, an error, or a missing provider is a soft failure ([shared.ErrSoftUnavailable])
// that falls back to the local [Catalog]. Artists and albums always come from the local catalog.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

const (
	// MaxLimit caps the limit honoured by [Resolver.Resolve]; larger limits are clamped.
	MaxLimit = 200
	// DefaultLimit is used by the tracks endpoint when no limit is given.
	DefaultLimit = 30
	// AuxiliaryLimit caps the artists and albums returned alongside tracks.
	AuxiliaryLimit = 10

	searchRemoteLimit = 30
	searchLocalLimit  = 10
)

// Provider is a remote catalog service.
type Provider interface {
	// Name identifies the provider in logs and results.
	Name() string
	// Tracks returns up to limit tracks, filtered by query when it is not empty.
	Tracks(ctx context.Context, limit int, query string) ([]models.Track, error)
}

// Catalog is the local store queried for fallback tracks and auxiliary entities.
type Catalog interface {
	RecentTracks(ctx context.Context, limit int) ([]models.Track, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)
	SearchArtists(ctx context.Context, query string, limit int) ([]models.Artist, error)
	SearchAlbums(ctx context.Context, query string, limit int) ([]models.Album, error)
}

// Result is the unified response shape. Source is the provider name or [models.SourceLocal].
type Result struct {
	Tracks  []models.Track  `json:"tracks"`
	Artists []models.Artist `json:"artists"`
	Albums  []models.Album  `json:"albums"`
	Source  string          `json:"-"`
}

// Resolver merges a remote provider with the local catalog.
type Resolver struct {
	provider Provider
	catalog  Catalog
	timeout  time.Duration
	logger   *log.Logger
}

// New creates a [Resolver]. provider may be nil, in which case every resolution falls back to the catalog.
// A positive timeout bounds each provider call.
func New(provider Provider, catalog Catalog, timeout time.Duration, logger *log.Logger) *Resolver {
	return &Resolver{provider: provider, catalog: catalog, timeout: timeout, logger: logger}
}

// Resolve returns up to limit tracks for query plus matching local artists and albums.
//
// Provider unavailability never surfaces as an error. Errors are [shared.ErrValidation] for a limit
// below 1 and [shared.ErrStoreFailure] for local catalog failures. A limit above [MaxLimit] is clamped.
func (r *Resolver) Resolve(ctx context.Context, limit int, query string) (*Result, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", shared.ErrValidation)
	}
	limit = min(limit, MaxLimit)
	return r.resolve(ctx, limit, limit, strings.TrimSpace(query))
}

// Search resolves q with the search endpoint's limits. A blank q returns empty lists without touching any source.
func (r *Resolver) Search(ctx context.Context, q string) (*Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return emptyResult(), nil
	}
	return r.resolve(ctx, searchRemoteLimit, searchLocalLimit, q)
}

func (r *Resolver) resolve(ctx context.Context, remoteLimit, localLimit int, query string) (*Result, error) {
	result := emptyResult()

	g, gctx := errgroup.WithContext(ctx)

	var remote []models.Track
	var softErr error
	g.Go(func() error {
		remote, softErr = r.fetchRemote(gctx, remoteLimit, query)
		return nil
	})

	g.Go(func() error {
		artists, err := r.catalog.SearchArtists(gctx, query, AuxiliaryLimit)
		if err != nil {
			return fmt.Errorf("failed to search artists: %w", err)
		}
		result.Artists = artists
		return nil
	})

	g.Go(func() error {
		albums, err := r.catalog.SearchAlbums(gctx, query, AuxiliaryLimit)
		if err != nil {
			return fmt.Errorf("failed to search albums: %w", err)
		}
		result.Albums = albums
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, storeFailure(err)
	}
	if result.Artists == nil {
		result.Artists = []models.Artist{}
	}
	if result.Albums == nil {
		result.Albums = []models.Album{}
	}

	if softErr == nil {
		result.Tracks = remote
		result.Source = r.provider.Name()
		return result, nil
	}

	r.logger.Debug("falling back to local catalog", "query", query, "reason", softErr)

	local, err := r.localTracks(ctx, localLimit, query)
	if err != nil {
		return nil, storeFailure(err)
	}
	if local == nil {
		local = []models.Track{}
	}
	result.Tracks = local
	result.Source = models.SourceLocal
	return result, nil
}

// fetchRemote returns the provider's tracks, or an error wrapping [shared.ErrSoftUnavailable].
func (r *Resolver) fetchRemote(ctx context.Context, limit int, query string) ([]models.Track, error) {
	if r.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", shared.ErrSoftUnavailable)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tracks, err := r.provider.Tracks(ctx, limit, query)
	if err != nil {
		r.logger.Warn("provider request failed", "provider", r.provider.Name(), "error", err)
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrSoftUnavailable, r.provider.Name(), err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %s returned no tracks", shared.ErrSoftUnavailable, r.provider.Name())
	}
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func (r *Resolver) localTracks(ctx context.Context, limit int, query string) ([]models.Track, error) {
	if query == "" {
		tracks, err := r.catalog.RecentTracks(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent tracks: %w", err)
		}
		return tracks, nil
	}

	tracks, err := r.catalog.SearchTracks(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}
	return tracks, nil
}

// storeFailure makes sure err carries [shared.ErrStoreFailure].
func storeFailure(err error) error {
	if errors.Is(err, shared.ErrStoreFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", shared.ErrStoreFailure, err)
}

func emptyResult() *Result {
	return &Result{
		Tracks:  []models.Track{},
		Artists: []models.Artist{},
		Albums:  []models.Album{},
	}
}
