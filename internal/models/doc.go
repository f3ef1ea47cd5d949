// Package models defines the domain entities shared by the stores, the resolver, the playback queue and the HTTP API.
//
// Catalog entities:
//   - [Artist] : Performer with optional image
//   - [Album] : Release owned by an artist
//   - [Track] : Playable unit; resolved either from the local catalog or a remote provider
//
// Library entities:
//   - [User] : Owner of playlists and listening history
//   - [Playlist] : Named, ordered collection of tracks
//   - [Membership] : Playlist-to-track join record carrying the sort order
//   - [HistoryEntry] : Denormalized snapshot of a track-start event
//
// [OrderAssigner] computes membership positions; stores call it inside the transaction that appends the membership.
package models
