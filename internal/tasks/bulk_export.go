package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/desertthunder/spotifycc/internal/formatter"
	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// ManifestName is the file written next to the exported playlists.
const ManifestName = "export_manifest.json"

// Source is the API surface an export reads. The HTTP client implements it.
type Source interface {
	Playlists(ctx context.Context) ([]models.PlaylistSummary, error)
	PlaylistTracks(ctx context.Context, playlistID int64) ([]models.Membership, error)
}

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Output format (default: json)
	OutputDir  string           // Base output directory (default: playlists_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Track fetches per second (default: 5)
	IDs        []int64          // Playlists to export; empty exports all
}

// PlaylistExportResult is the outcome of one playlist.
type PlaylistExportResult struct {
	PlaylistID int64  `json:"playlistId"`
	Name       string `json:"name"`
	File       string `json:"file,omitempty"`
	Tracks     int    `json:"tracks"`
	Error      string `json:"error,omitempty"`
}

// Success reports whether the playlist was written.
func (r PlaylistExportResult) Success() bool { return r.Error == "" }

// BulkExportResult summarizes an export. Results are ordered by playlist id.
type BulkExportResult struct {
	TotalPlaylists    int                    `json:"totalPlaylists"`
	SuccessfulExports int                    `json:"successfulExports"`
	FailedExports     int                    `json:"failedExports"`
	Format            formatter.Format       `json:"format"`
	OutputDirectory   string                 `json:"outputDirectory"`
	ExportedAt        time.Time              `json:"exportedAt"`
	Results           []PlaylistExportResult `json:"results"`
	ManifestPath      string                 `json:"-"`
}

type exportJob struct {
	step     int
	playlist models.PlaylistSummary
}

// BulkExport exports playlists concurrently with rate limiting and progress tracking.
//
// A playlist that cannot be fetched or written is recorded as failed and the rest continue.
// Requested ids missing from the listing fail with [shared.ErrNotFound]. Cancelling ctx stops
// handing out work; the manifest still lists what finished.
func BulkExport(ctx context.Context, src Source, opts BulkExportOpts, prog chan<- ProgressUpdate) (*BulkExportResult, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: export source not initialized", shared.ErrMissingConfig)
	}

	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("playlists_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	sendProgress(prog, fetchingPlaylistsUpdate())
	summaries, err := src.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	selected, missing := selectPlaylists(summaries, opts.IDs)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(selected) + len(missing)
	result := &BulkExportResult{
		TotalPlaylists:  total,
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		ExportedAt:      time.Now().UTC(),
		Results:         make([]PlaylistExportResult, 0, total),
	}

	for _, id := range missing {
		result.Results = append(result.Results, PlaylistExportResult{
			PlaylistID: id,
			Name:       fmt.Sprintf("Unknown (%d)", id),
			Error:      fmt.Errorf("%w: playlist %d", shared.ErrNotFound, id).Error(),
		})
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan exportJob, len(selected))
	results := make(chan PlaylistExportResult, len(selected))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go exportWorker(ctx, &wg, src, limiter, opts, jobs, results)
	}

	go func() {
		defer close(jobs)
		for i, p := range selected {
			select {
			case <-ctx.Done():
				return
			case jobs <- exportJob{step: i + 1, playlist: p}:
			}
			sendProgress(prog, exportingPlaylistUpdate(i+1, len(selected), p.Name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := len(missing)
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success() {
			sendProgress(prog, exportCompletedUpdate(completed, total, res.Name, res.Tracks))
		} else {
			sendProgress(prog, exportFailedUpdate(completed, total, res.Name, fmt.Errorf("%s", res.Error)))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].PlaylistID < result.Results[j].PlaylistID
	})
	for _, res := range result.Results {
		if res.Success() {
			result.SuccessfulExports++
		} else {
			result.FailedExports++
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	if err := writeManifest(manifestPath, result); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// exportWorker exports playlists from jobs until the channel closes or ctx ends.
func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	src Source,
	limiter *rate.Limiter,
	opts BulkExportOpts,
	jobs <-chan exportJob,
	results chan<- PlaylistExportResult,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- exportSinglePlaylist(ctx, src, limiter, opts, job.playlist)
	}
}

func exportSinglePlaylist(
	ctx context.Context,
	src Source,
	limiter *rate.Limiter,
	opts BulkExportOpts,
	p models.PlaylistSummary,
) PlaylistExportResult {
	result := PlaylistExportResult{PlaylistID: p.ID, Name: p.Name}

	if err := limiter.Wait(ctx); err != nil {
		result.Error = err.Error()
		return result
	}

	members, err := src.PlaylistTracks(ctx, p.ID)
	if err != nil {
		result.Error = fmt.Sprintf("failed to fetch tracks: %v", err)
		return result
	}

	data, err := formatter.Memberships(opts.Format, p.Name, members)
	if err != nil {
		result.Error = fmt.Sprintf("failed to render: %v", err)
		return result
	}

	path := filepath.Join(opts.OutputDir, fileName(p, opts.Format))
	if err := formatter.WriteFile(path, data); err != nil {
		result.Error = err.Error()
		return result
	}

	result.File = path
	result.Tracks = len(members)
	return result
}

// selectPlaylists keeps the summaries named by ids, in listing order, and returns ids not found.
func selectPlaylists(summaries []models.PlaylistSummary, ids []int64) ([]models.PlaylistSummary, []int64) {
	if len(ids) == 0 {
		return summaries, nil
	}

	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var selected []models.PlaylistSummary
	for _, p := range summaries {
		if wanted[p.ID] {
			selected = append(selected, p)
			delete(wanted, p.ID)
		}
	}

	var missing []int64
	for _, id := range ids {
		if wanted[id] {
			missing = append(missing, id)
			delete(wanted, id)
		}
	}
	return selected, missing
}

// fileName builds "{id}-{slug}.{ext}" for a playlist.
func fileName(p models.PlaylistSummary, format formatter.Format) string {
	ext := map[formatter.Format]string{
		formatter.JSON:     "json",
		formatter.CSV:      "csv",
		formatter.Markdown: "md",
		formatter.Text:     "txt",
	}[format]
	if ext == "" {
		ext = "txt"
	}

	slug := slugify(p.Name)
	if slug == "" {
		return fmt.Sprintf("%d.%s", p.ID, ext)
	}
	return fmt.Sprintf("%d-%s.%s", p.ID, slug, ext)
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func writeManifest(path string, result *BulkExportResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return formatter.WriteFile(path, append(data, '\n'))
}
