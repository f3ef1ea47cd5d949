// Package tasks runs long playlist operations against the HTTP API with progress reporting.
//
// [BulkExport] writes playlists to disk with a pool of workers:
//   - Fetches the playlist listing once, then each playlist's ordered tracks
//   - Paces track fetches with a token-bucket limiter so a shared server is not flooded
//   - Renders each playlist with the formatter package (json, csv, markdown or text)
//   - Records per-playlist outcomes, including failures, in export_manifest.json
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Sends use select with default,
// so a slow or absent reader never stalls an export.
package tasks
