package logging

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// consoleTimeLayout keeps milliseconds so overlapping requests stay ordered.
const consoleTimeLayout = "2006-01-02 15:04:05.000"

// maxFieldRunes bounds free-text fields such as questions and transcripts.
const maxFieldRunes = 160

func consoleTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(time.Local).Format(consoleTimeLayout)
}

// FormatSubject builds the "Video <id> (<operation>)" subject shown in console
// headers. Ids that would break the header are quoted.
func FormatSubject(videoID, operation string) string {
	videoID = strings.TrimSpace(videoID)
	operation = strings.TrimSpace(operation)
	if videoID != "" && subjectNeedsQuotes(videoID) {
		videoID = strconv.Quote(videoID)
	}
	switch {
	case videoID != "" && operation != "":
		return "Video " + videoID + " (" + operation + ")"
	case videoID != "":
		return "Video " + videoID
	default:
		return operation
	}
}

func subjectNeedsQuotes(s string) bool {
	return strings.ContainsAny(s, " \t\n()[]\"") || !utf8.ValidString(s)
}

// headerValue renders a subject or component value without quoting.
func headerValue(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindString {
		return strings.TrimSpace(v.String())
	}
	return strings.TrimSpace(fmt.Sprint(v.Any()))
}

// fieldValue renders one detail line of a console record.
func fieldValue(key string, v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindInt64:
		if key == FieldStatusCode {
			return statusLabel(int(v.Int64()))
		}
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return consoleTime(v.Time())
	case slog.KindString:
		return quoteText(v.String())
	default:
		if err, ok := v.Any().(error); ok {
			return quoteText(err.Error())
		}
		return quoteText(fmt.Sprint(v.Any()))
	}
}

func statusLabel(code int) string {
	if text := http.StatusText(code); text != "" {
		return strconv.Itoa(code) + " " + text
	}
	return strconv.Itoa(code)
}

// quoteText folds text onto one line, truncates it, and quotes it when it
// contains separators.
func quoteText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxFieldRunes {
		runes := []rune(s)
		s = string(runes[:maxFieldRunes]) + "…"
	}
	if s == "" || strings.ContainsAny(s, " =\"") {
		return strconv.Quote(s)
	}
	return s
}
