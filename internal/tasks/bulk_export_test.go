package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/spotifycc/internal/formatter"
	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
	tu "github.com/desertthunder/spotifycc/internal/testing"
)

type mockSource struct {
	mu        sync.Mutex
	playlists []models.PlaylistSummary
	members   map[int64][]models.Membership
	failing   map[int64]error
	listErr   error
	fetched   []int64
}

func (m *mockSource) Playlists(ctx context.Context) ([]models.PlaylistSummary, error) {
	return m.playlists, m.listErr
}

func (m *mockSource) PlaylistTracks(ctx context.Context, id int64) ([]models.Membership, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, id)
	m.mu.Unlock()

	if err := m.failing[id]; err != nil {
		return nil, err
	}
	return m.members[id], nil
}

func newMockSource(count int) *mockSource {
	src := &mockSource{members: map[int64][]models.Membership{}, failing: map[int64]error{}}
	names := []string{"Today's Vibes", "Late Night Drive", "Focus Flow", "Road Trip", "Gym"}
	for i := range count {
		id := int64(i + 1)
		src.playlists = append(src.playlists, models.PlaylistSummary{ID: id, Name: names[i%len(names)]})
		for j := range 3 {
			src.members[id] = append(src.members[id], models.Membership{
				PlaylistID: id,
				TrackID:    int64(j + 1),
				Order:      j + 1,
				Track:      models.Track{ID: int64(j + 1), Title: "Track", Artist: models.Artist{Name: "Artist"}},
			})
		}
	}
	return src
}

func readManifest(t *testing.T, path string) BulkExportResult {
	t.Helper()
	var manifest BulkExportResult
	if err := json.Unmarshal([]byte(tu.MustReadFile(t, path)), &manifest); err != nil {
		t.Fatalf("invalid manifest: %v", err)
	}
	return manifest
}

func TestBulkExport(t *testing.T) {
	tests := []struct {
		name     string
		format   formatter.Format
		count    int
		wantFile string
		contains string
	}{
		{name: "single playlist json export", format: formatter.JSON, count: 1, wantFile: "1-today-s-vibes.json", contains: `"playlistId": 1`},
		{name: "multiple playlists csv export", format: formatter.CSV, count: 3, wantFile: "3-focus-flow.csv", contains: "Order,Track ID,Title"},
		{name: "markdown export", format: formatter.Markdown, count: 2, wantFile: "2-late-night-drive.md", contains: "# Late Night Drive"},
		{name: "text export", format: formatter.Text, count: 5, wantFile: "5-gym.txt", contains: "Playlist: Gym"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := newMockSource(tt.count)

			result, err := BulkExport(context.Background(), src, BulkExportOpts{
				Format:    tt.format,
				OutputDir: dir,
				RateLimit: 1000,
			}, nil)
			if err != nil {
				t.Fatalf("BulkExport failed: %v", err)
			}

			if result.SuccessfulExports != tt.count || result.FailedExports != 0 {
				t.Errorf("expected %d successes, got %d/%d", tt.count, result.SuccessfulExports, result.FailedExports)
			}
			for i, res := range result.Results {
				if res.PlaylistID != int64(i+1) {
					t.Errorf("results not ordered by id: %v", result.Results)
				}
				if res.Tracks != 3 {
					t.Errorf("expected 3 tracks, got %d", res.Tracks)
				}
			}

			path := filepath.Join(dir, tt.wantFile)
			tu.AssertFileExists(t, path)
			if content := tu.MustReadFile(t, path); !strings.Contains(content, tt.contains) {
				t.Errorf("expected %q in %s, got:\n%s", tt.contains, tt.wantFile, content)
			}

			manifest := readManifest(t, result.ManifestPath)
			if manifest.TotalPlaylists != tt.count || manifest.Format != tt.format {
				t.Errorf("unexpected manifest %+v", manifest)
			}
		})
	}
}

func TestBulkExport_PartialFailures(t *testing.T) {
	dir := t.TempDir()
	src := newMockSource(4)
	src.failing[2] = errors.New("connection reset")

	prog := make(chan ProgressUpdate, 32)
	result, err := BulkExport(context.Background(), src, BulkExportOpts{
		OutputDir:  dir,
		NumWorkers: 2,
		RateLimit:  1000,
		IDs:        []int64{4, 2, 1, 99},
	}, prog)
	if err != nil {
		t.Fatalf("BulkExport failed: %v", err)
	}
	close(prog)

	if result.TotalPlaylists != 4 || result.SuccessfulExports != 2 || result.FailedExports != 2 {
		t.Errorf("unexpected counts %+v", result)
	}

	byID := map[int64]PlaylistExportResult{}
	for _, res := range result.Results {
		byID[res.PlaylistID] = res
	}
	if !strings.Contains(byID[2].Error, "connection reset") {
		t.Errorf("expected fetch failure for 2, got %+v", byID[2])
	}
	if !strings.Contains(byID[99].Error, shared.ErrNotFound.Error()) {
		t.Errorf("expected not found for 99, got %+v", byID[99])
	}
	if _, ok := byID[3]; ok {
		t.Error("playlist 3 was not requested")
	}

	phases := map[Phase]int{}
	for update := range prog {
		phases[update.Phase]++
	}
	if phases[FetchPlaylists] != 1 || phases[ExportComplete] != 2 || phases[ExportFailed] != 1 {
		t.Errorf("unexpected progress phases %v", phases)
	}

	manifest := readManifest(t, filepath.Join(dir, ManifestName))
	if manifest.FailedExports != 2 || len(manifest.Results) != 4 {
		t.Errorf("unexpected manifest %+v", manifest)
	}
}

func TestBulkExport_Errors(t *testing.T) {
	t.Run("nil source", func(t *testing.T) {
		if _, err := BulkExport(context.Background(), nil, BulkExportOpts{}, nil); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("listing failure", func(t *testing.T) {
		src := newMockSource(1)
		src.listErr = shared.ErrAPIRequest

		_, err := BulkExport(context.Background(), src, BulkExportOpts{OutputDir: t.TempDir()}, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("unwritable output directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		os.WriteFile(file, []byte("x"), 0644)

		_, err := BulkExport(context.Background(), newMockSource(1), BulkExportOpts{OutputDir: filepath.Join(file, "out")}, nil)
		if err == nil || !strings.Contains(err.Error(), "failed to create output directory") {
			t.Errorf("expected directory error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		dir := t.TempDir()
		result, err := BulkExport(ctx, newMockSource(3), BulkExportOpts{OutputDir: dir, RateLimit: 1000}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.SuccessfulExports == 3 {
			t.Errorf("expected an incomplete export, got %+v", result)
		}
		tu.AssertFileExists(t, filepath.Join(dir, ManifestName))
	})
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name   string
		format formatter.Format
		want   string
	}{
		{"Today's Vibes", formatter.JSON, "7-today-s-vibes.json"},
		{"  Late   Night!! ", formatter.Markdown, "7-late-night.md"},
		{"Café Jazz", formatter.CSV, "7-café-jazz.csv"},
		{"!!!", formatter.Text, "7.txt"},
	}
	for _, tt := range tests {
		if got := fileName(models.PlaylistSummary{ID: 7, Name: tt.name}, tt.format); got != tt.want {
			t.Errorf("fileName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSendProgress(t *testing.T) {
	sendProgress(nil, fetchingPlaylistsUpdate())

	full := make(chan ProgressUpdate)
	sendProgress(full, fetchingPlaylistsUpdate())

	if FetchPlaylists.String() != "fetch_playlists" || Phase(42).String() != "" {
		t.Error("unexpected phase names")
	}
}
