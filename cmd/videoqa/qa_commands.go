package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"videoqa/internal/catalog"
	"videoqa/internal/qa"
	"videoqa/internal/video"
)

func newAskCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <id> <question...>",
		Short: "Ask a question about a transcribed video",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			question := strings.Join(args[1:], " ")
			return ctx.withCatalog(commandCtx(cmd), func(cat *catalog.Catalog) error {
				ctrl, err := cat.ToggleChat(id)
				if err != nil {
					return describePanelError(cat, id, err)
				}
				ctrl.SetQuestion(question)
				if err := ctrl.Submit(commandCtx(cmd)); err != nil {
					view := ctrl.Snapshot()
					if view.Phase == qa.PhaseFailed {
						return errors.New(view.Error)
					}
					return err
				}
				view := ctrl.Snapshot()
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, view.Answer.Text)
				fmt.Fprintf(out, "Confidence: %s\n", view.Answer.Confidence.Percent())
				return nil
			})
		},
	}
}

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <id>",
		Short: "Print a video's transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withCatalog(commandCtx(cmd), func(cat *catalog.Catalog) error {
				if _, err := cat.ToggleTranscription(id); err != nil {
					return describePanelError(cat, id, err)
				}
				panel, err := cat.TranscriptPanel(id)
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				renderPanel(cmd.OutOrStdout(), panel)
				return nil
			})
		},
	}
}

// describePanelError adds the video's current status to a gating error.
func describePanelError(cat *catalog.Catalog, id string, err error) error {
	if errors.Is(err, catalog.ErrNotAvailable) {
		if v, ok := video.Find(cat.Snapshot().Videos, id); ok {
			return fmt.Errorf("%s: %w (status: %s)", id, err, v.Badge().Label)
		}
	}
	return fmt.Errorf("%s: %w", id, err)
}
