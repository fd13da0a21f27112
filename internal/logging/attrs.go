package logging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"videoqa/internal/services"
)

type Attr = slog.Attr

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error wraps err under the "error" key.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger becomes
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// HasAttrKey reports whether any attribute in attrs has the given key.
func HasAttrKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Missing fields get defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logClassified(logger, slog.LevelWarn, msg, eventType, "the video list may be out of date", attrs)
}

// ErrorWithContext is WarnWithContext at error level, for failures that
// disable a feature for the rest of the command.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logClassified(logger, slog.LevelError, msg, eventType, "feature unavailable until the cause is fixed", attrs)
}

func logClassified(logger *slog.Logger, level slog.Level, msg, eventType, impact string, attrs []Attr) {
	if logger == nil {
		return
	}
	defaults := []Attr{
		String(FieldEventType, eventType),
		String(FieldErrorHint, "see the log file for the failing request"),
		String(FieldImpact, impact),
	}
	for _, attr := range defaults {
		if !HasAttrKey(attrs, attr.Key) {
			attrs = append(attrs, attr)
		}
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }

// ServiceErrorAttrs describes a video service failure with its kind and, when
// present, the HTTP status code.
func ServiceErrorAttrs(err error) []Attr {
	if err == nil {
		return nil
	}
	attrs := []Attr{Error(err)}
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		attrs = append(attrs, String("error_kind", string(svcErr.Kind)))
		if svcErr.StatusCode > 0 {
			attrs = append(attrs, Int(FieldStatusCode, svcErr.StatusCode))
		}
	}
	return attrs
}
