package catalog

import "videoqa/internal/video"

// Expansion records which single video has its transcription panel open and
// which single video has its question panel open. The two are independent.
type Expansion struct {
	Transcription string
	Chat          string
}

// TranscriptionOpen reports whether id's transcription panel is expanded.
func (e Expansion) TranscriptionOpen(id string) bool {
	return id != "" && e.Transcription == id
}

// ChatOpen reports whether id's question panel is expanded.
func (e Expansion) ChatOpen(id string) bool {
	return id != "" && e.Chat == id
}

func (e *Expansion) toggleTranscription(id string) bool {
	if e.Transcription == id {
		e.Transcription = ""
		return false
	}
	e.Transcription = id
	return true
}

func (e *Expansion) toggleChat(id string) bool {
	if e.Chat == id {
		e.Chat = ""
		return false
	}
	e.Chat = id
	return true
}

// reconcile collapses panels whose video vanished or is no longer completed.
// An open transcription panel survives a move back to processing so it can
// show the loading placeholder. It reports whether the chat panel was
// collapsed.
func (e *Expansion) reconcile(videos []video.Video) bool {
	if e.Transcription != "" && !transcribable(videos, e.Transcription) {
		e.Transcription = ""
	}
	if e.Chat != "" && !completed(videos, e.Chat) {
		e.Chat = ""
		return true
	}
	return false
}

func completed(videos []video.Video, id string) bool {
	v, ok := video.Find(videos, id)
	return ok && v.IsCompleted()
}

func transcribable(videos []video.Video, id string) bool {
	v, ok := video.Find(videos, id)
	return ok && (v.IsCompleted() || v.IsProcessing())
}
