// Package ui implements the terminal player using bubbletea's Elm architecture.
//
// The player has two views:
//  1. [TrackListView] : Browse resolved tracks, or the tracks of a chosen playlist, and start playback
//  2. [PlaylistListView] : Pick a playlist whose tracks replace the browse list
//
// Playback state lives in a [playback.Session]; the (view) [Model] only renders its snapshots.
// Starting, skipping and rewinding a track never waits on history recording, which the session hands off to its recorder.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, n/p, o, tab, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
