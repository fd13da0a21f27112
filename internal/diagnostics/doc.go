// Package diagnostics keeps a local SQLite journal of video service failures
// that the catalog swallows, such as a failed delete or an initial list fetch
// that never reached the server.
//
// Entries are written by RecordFailure, which never returns an error to its
// caller. The `videoqa diagnostics` commands read, prune, and clear them.
package diagnostics
