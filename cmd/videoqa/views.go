package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"videoqa/internal/catalog"
	"videoqa/internal/form"
	"videoqa/internal/qa"
	"videoqa/internal/video"
)

// videoJSON is the machine-readable shape of one catalog entry.
type videoJSON struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at"`
	Status        string `json:"status"`
	Badge         string `json:"badge"`
	Category      string `json:"category"`
	Notice        string `json:"notice,omitempty"`
	Transcription string `json:"transcription,omitempty"`
}

func toVideoJSON(v video.Video) videoJSON {
	badge := v.Badge()
	notice, _ := v.Notice()
	return videoJSON{
		ID:            v.ID,
		Title:         v.Title,
		URL:           v.URL,
		Description:   v.Description,
		CreatedAt:     v.CreatedAt,
		Status:        string(v.Status),
		Badge:         badge.Label,
		Category:      badge.Category.String(),
		Notice:        notice,
		Transcription: v.Transcript(),
	}
}

func videoRows(view catalog.View, colorize bool) [][]string {
	rows := make([][]string, 0, len(view.Videos))
	for _, v := range view.Videos {
		marks := ""
		if view.Expansion.TranscriptionOpen(v.ID) {
			marks += "T"
		}
		if view.Expansion.ChatOpen(v.ID) {
			marks += "Q"
		}
		if view.EditingID == v.ID {
			marks += "E"
		}
		rows = append(rows, []string{
			v.ID,
			v.Title,
			renderBadge(v.Badge(), colorize),
			v.CreatedDate(),
			v.URL,
			marks,
		})
	}
	return rows
}

func renderVideoTable(w io.Writer, view catalog.View, colorize bool) {
	if len(view.Videos) == 0 {
		fmt.Fprintln(w, "No videos")
		return
	}
	headers := []string{"ID", "Title", "Status", "Created", "URL", ""}
	fmt.Fprint(w, renderTable(headers, videoRows(view, colorize), nil))
	for _, v := range view.Videos {
		if notice, ok := v.Notice(); ok {
			fmt.Fprintf(w, "%s: %s\n", v.ID, notice)
		}
	}
}

// summaryRows counts videos per display category in lifecycle order.
func summaryRows(videos []video.Video) [][]string {
	counts := make(map[video.Category]int)
	for _, v := range videos {
		counts[v.Badge().Category]++
	}
	categories := make([]video.Category, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	titler := cases.Title(language.Und)
	rows := make([][]string, 0, len(categories))
	for _, category := range categories {
		rows = append(rows, []string{titler.String(category.String()), fmt.Sprintf("%d", counts[category])})
	}
	return rows
}

func renderPanel(w io.Writer, panel video.TranscriptPanel) {
	switch panel.State {
	case video.PanelLoading:
		fmt.Fprintln(w, "Transcription in progress...")
	case video.PanelEmpty:
		fmt.Fprintln(w, video.NoTranscriptMessage)
	default:
		fmt.Fprintln(w, strings.Join(panel.Paragraphs, "\n\n"))
	}
}

func renderAnswer(w io.Writer, view qa.View) {
	switch view.Phase {
	case qa.PhaseSubmitting:
		fmt.Fprintf(w, "[%s] asking...\n", view.VideoID)
	case qa.PhaseAnswered:
		fmt.Fprintf(w, "[%s] %s\n", view.VideoID, view.Answer.Text)
		fmt.Fprintf(w, "[%s] Confidence: %s\n", view.VideoID, view.Answer.Confidence.Percent())
	case qa.PhaseFailed:
		fmt.Fprintf(w, "[%s] error: %s\n", view.VideoID, view.Error)
	}
}

func renderForm(w io.Writer, view form.View) {
	heading := "New video"
	if view.Mode == form.ModeEdit {
		heading = "Edit " + view.VideoID
	}
	fmt.Fprintln(w, heading)
	fmt.Fprintf(w, "  title:       %s\n", view.Fields.Title)
	fmt.Fprintf(w, "  url:         %s\n", view.Fields.URL)
	fmt.Fprintf(w, "  description: %s\n", view.Fields.Description)
	if view.Submitting {
		fmt.Fprintln(w, "  (submitting)")
	}
	if msg := view.Error(); msg != "" {
		fmt.Fprintf(w, "  error: %s\n", msg)
	}
}
