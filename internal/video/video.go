package video

import (
	"strings"
	"time"
)

// FailureNotice is shown next to any video whose transcription failed.
const FailureNotice = "Transcription failed. You can retry by editing the video."

// Fields is the user-editable triple sent on create and update. Partial
// updates are not supported; the whole triple always travels together.
type Fields struct {
	Title       string `json:"title" validate:"required"`
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description"`
}

// Video is one catalog entry as reported by the video service.
type Video struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at"`
	Transcription string `json:"transcription,omitempty"`
	Status        Status `json:"status"`
}

// Fields returns the editable triple currently stored on the video.
func (v Video) Fields() Fields {
	return Fields{Title: v.Title, URL: v.URL, Description: v.Description}
}

// Badge resolves the video's status for display.
func (v Video) Badge() Badge {
	return Resolve(v.Status)
}

// IsCompleted gates transcription and question answering.
func (v Video) IsCompleted() bool { return v.Status == StatusCompleted }

// IsProcessing reports whether the transcription is still being produced.
func (v Video) IsProcessing() bool { return v.Status == StatusProcessing }

// IsFailed reports whether the failure notice should be shown.
func (v Video) IsFailed() bool { return v.Status == StatusFailed }

// Transcript returns the transcription text, or "" when the status is not
// completed. A stale value left on a non-completed record is ignored.
func (v Video) Transcript() string {
	if !v.IsCompleted() {
		return ""
	}
	return v.Transcription
}

// Notice returns the failure notice when the service reported a failed
// transcription.
func (v Video) Notice() (string, bool) {
	if v.IsFailed() {
		return FailureNotice, true
	}
	return "", false
}

var createdLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// CreatedTime parses the server timestamp. Naive timestamps are read as UTC.
func (v Video) CreatedTime() (time.Time, bool) {
	value := strings.TrimSpace(v.CreatedAt)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CreatedDate formats the creation timestamp as a date. Unparseable values are
// returned unchanged.
func (v Video) CreatedDate() string {
	if t, ok := v.CreatedTime(); ok {
		return t.UTC().Format("2006-01-02")
	}
	return strings.TrimSpace(v.CreatedAt)
}

// Find returns the video with the given identifier.
func Find(videos []Video, id string) (Video, bool) {
	for _, v := range videos {
		if v.ID == id {
			return v, true
		}
	}
	return Video{}, false
}
