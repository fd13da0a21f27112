// Package services defines the shared failure shape and context helpers used
// at the video service boundary.
//
// Key responsibilities:
//   - A single normalized Error value (kind, operation, optional status code,
//     user-facing message) so controllers never branch on ad hoc error shapes.
//   - Kind sentinels (ErrTransport, ErrStatus, ErrDecode, ErrValidation) that
//     match through errors.Is.
//   - Context helpers that stamp video identifiers, operation names, and
//     correlation identifiers for logging.
//
// The video service client produces these errors; the form and
// question-answering controllers only read Message from them.
package services
