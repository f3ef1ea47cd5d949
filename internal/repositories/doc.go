// Package repositories implements SQLite persistence for the catalog, playlists, users and listening history.
//
// Key Implementations:
//   - [UserRepository] : Playlist and history owners
//   - [CatalogRepository] : Artists, albums and tracks, including case-insensitive substring search
//   - [PlaylistRepository] : Playlists and their ordered memberships
//   - [HistoryRepository] : Play history snapshots
//
// [Store] bundles all four over one [sql.DB]. Failures are wrapped in [shared.ErrStoreFailure],
// missing rows in [shared.ErrNotFound] and uniqueness violations in [shared.ErrConflict].
//
// [PlaylistRepository.AppendTrack] is the atomic append primitive: it reads the playlist's
// maximum position and writes the new membership in one transaction. Databases opened with
// [shared.NewDatabase] begin transactions with BEGIN IMMEDIATE, so concurrent appends serialize
// on the write lock, and the UNIQUE(playlist_id, position) index rejects anything that slips past.
package repositories
