package video

import "strings"

// PanelState describes what an expanded transcription panel shows.
type PanelState int

const (
	PanelEmpty PanelState = iota
	PanelLoading
	PanelContent
)

// NoTranscriptMessage is shown when an expanded panel has nothing to render.
const NoTranscriptMessage = "No transcription available"

// TranscriptPanel is the rendered content of a transcription panel.
type TranscriptPanel struct {
	State      PanelState
	Paragraphs []string
}

// PanelFor renders the transcription panel for a video. Processing videos get
// a loading placeholder; completed videos get one paragraph per line.
func PanelFor(v Video) TranscriptPanel {
	if v.IsProcessing() {
		return TranscriptPanel{State: PanelLoading}
	}
	text := v.Transcript()
	if text == "" {
		return TranscriptPanel{State: PanelEmpty}
	}
	return TranscriptPanel{State: PanelContent, Paragraphs: strings.Split(text, "\n")}
}
