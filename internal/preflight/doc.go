// Package preflight provides readiness checks for the video service and the
// local paths videoqa writes to.
//
// The CLI "videoqa status" command calls RunAll and prints one line per
// Result. Checks never fail hard; each reports its own detail so a broken
// service does not hide a broken log directory.
package preflight
