package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotifycc/internal/formatter"
	"github.com/desertthunder/spotifycc/internal/tasks"
)

// PlaylistsExport writes every playlist (or those named by --id) to its own file plus a manifest.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var ids []int64
	for _, s := range cmd.StringSlice("id") {
		id, err := parseID(s, "--id")
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.Provider.RateLimit,
		IDs:        ids,
	}
	r.logger.Info("exporting playlists", "format", format, "dir", opts.OutputDir, "ids", len(ids))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchPlaylists:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ExportComplete, tasks.ExportFailed:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			default:
				r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step)
			}
		}
	}()

	result, err := tasks.BulkExport(ctx, r.client(), opts, progressCh)
	close(progressCh)
	<-done

	if result == nil {
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalPlaylists)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d playlists:\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success() {
				r.writePlain("  - [%d] %s: %s\n", res.PlaylistID, res.Name, res.Error)
			}
		}
	}

	if err != nil {
		return fmt.Errorf("export interrupted: %w", err)
	}
	return nil
}
