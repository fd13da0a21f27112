// Package videoservice is the HTTP client for the remote video service.
//
// It issues exactly one request per operation against the video collection
// and question-answering endpoints, with no retry, cache, or explicit timeout.
// Every failure is normalized into a *services.Error carrying the operation
// name and, for non-success responses, the status code.
package videoservice
