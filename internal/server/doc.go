// Package server exposes the catalog, playlists, history and playback sessions as a JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers
// method-qualified patterns ("GET /api/tracks") on an [http.ServeMux]. Paths no handler claims get a
// JSON 404.
//
// [Middleware] wraps handlers in reverse order (last added executes first). The default stack is
// [Recover], [Logging] and [Identity].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
//   - [CatalogHandler] serves the home feed, tracks, search, artists and album tracks
//   - [PlaylistHandler] serves playlist listing, creation and membership
//   - [HistoryHandler] records and lists plays for the authenticated listener
//   - [SessionHandler] drives server-side playback queues
//
// # Identity
//
// Authentication is external. [Identity] reads the numeric user id from the "auth_user" cookie or the
// "X-User-ID" header; anything else is an anonymous request (user 0).
//
// # Errors
//
// Handlers map the sentinel errors in the shared package to status codes with [StatusFor] and answer
// with {"message": "..."}. Store failures are logged and reported without detail.
package server
