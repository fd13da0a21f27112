package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransport  = errors.New("transport failure")
	ErrStatus     = errors.New("non-success response")
	ErrDecode     = errors.New("malformed response")
	ErrValidation = errors.New("validation error")
)

// Kind classifies a failure observed at the video service boundary.
type Kind string

const (
	KindTransport  Kind = "transport"
	KindStatus     Kind = "status"
	KindDecode     Kind = "decode"
	KindValidation Kind = "validation"
)

// GenericMessage is used when a failure carries no message of its own.
const GenericMessage = "An error occurred"

// Error is the single normalized failure shape handed to controllers. Message
// is user-facing; StatusCode is set only for non-success responses.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Op, e.Message)
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", detail, e.Err)
	}
	return detail
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels so callers can write errors.Is(err, ErrStatus).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrStatus:
		return e.Kind == KindStatus
	case ErrDecode:
		return e.Kind == KindDecode
	case ErrValidation:
		return e.Kind == KindValidation
	default:
		return false
	}
}

// Wrap builds a normalized error of the given kind. An empty kind is treated
// as a transport failure.
func Wrap(kind Kind, op, message string, err error) *Error {
	if kind == "" {
		kind = KindTransport
	}
	return &Error{Kind: kind, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Err: err}
}

// Transport reports a request that could not complete.
func Transport(op string, err error) *Error {
	return Wrap(KindTransport, op, "could not reach the video service", err)
}

// Status reports a completed request the server rejected.
func Status(op string, code int, message string) *Error {
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("http error: status %d", code)
	}
	e := Wrap(KindStatus, op, message, nil)
	e.StatusCode = code
	return e
}

// Decode reports a success response whose body could not be read.
func Decode(op string, err error) *Error {
	return Wrap(KindDecode, op, "unexpected response from the video service", err)
}

// Validation reports input rejected before any request was attempted.
func Validation(op, message string) *Error {
	return Wrap(KindValidation, op, message, nil)
}

// KindOf returns the kind of a normalized error, or "" for anything else.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// StatusCode extracts the HTTP status carried by a non-success failure.
func StatusCode(err error) (int, bool) {
	var se *Error
	if errors.As(err, &se) && se.StatusCode > 0 {
		return se.StatusCode, true
	}
	return 0, false
}

// Message returns the user-facing text for err, falling back when the failure
// carries none.
func Message(err error, fallback string) string {
	if strings.TrimSpace(fallback) == "" {
		fallback = GenericMessage
	}
	if err == nil {
		return fallback
	}
	var se *Error
	if errors.As(err, &se) {
		if msg := strings.TrimSpace(se.Message); msg != "" {
			return msg
		}
		return fallback
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
