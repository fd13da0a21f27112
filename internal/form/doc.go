// Package form holds the draft fields for creating or editing a video.
//
// Required fields are checked with validator before any request is made.
// The local submit error takes precedence over an externally supplied one,
// and any field edit clears the local error.
package form
