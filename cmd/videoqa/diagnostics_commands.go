package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"videoqa/internal/diagnostics"
)

func newDiagnosticsCommand(ctx *commandContext) *cobra.Command {
	diagCmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Inspect recorded video service failures",
	}

	diagCmd.AddCommand(newDiagnosticsListCommand(ctx))
	diagCmd.AddCommand(newDiagnosticsPruneCommand(ctx))
	diagCmd.AddCommand(newDiagnosticsClearCommand(ctx))

	return diagCmd
}

type diagnosticsEntryJSON struct {
	ID            int64  `json:"id"`
	RecordedAt    string `json:"recorded_at"`
	Operation     string `json:"operation"`
	VideoID       string `json:"video_id,omitempty"`
	Kind          string `json:"kind,omitempty"`
	StatusCode    int    `json:"status_code,omitempty"`
	Message       string `json:"message"`
	Detail        string `json:"detail,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func newDiagnosticsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent failures, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournalOrNotice(cmd, ctx, func(journal *diagnostics.Journal) error {
				entries, err := journal.Recent(commandCtx(cmd), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					items := make([]diagnosticsEntryJSON, 0, len(entries))
					for _, e := range entries {
						items = append(items, diagnosticsEntryJSON{
							ID:            e.ID,
							RecordedAt:    e.RecordedAt.Format("2006-01-02T15:04:05Z07:00"),
							Operation:     e.Operation,
							VideoID:       e.VideoID,
							Kind:          e.Kind,
							StatusCode:    e.StatusCode,
							Message:       e.Message,
							Detail:        e.Detail,
							CorrelationID: e.CorrelationID,
						})
					}
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No recorded failures")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					status := ""
					if e.StatusCode > 0 {
						status = strconv.Itoa(e.StatusCode)
					}
					rows = append(rows, []string{
						strconv.FormatInt(e.ID, 10),
						e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
						e.Operation,
						e.VideoID,
						e.Kind,
						status,
						e.Message,
					})
				}
				headers := []string{"ID", "Recorded", "Operation", "Video", "Kind", "Status", "Message"}
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
				fmt.Fprint(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDiagnosticsPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove failures older than the configured retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournalOrNotice(cmd, ctx, func(journal *diagnostics.Journal) error {
				removed, err := journal.Prune(commandCtx(cmd))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries\n", removed)
				return nil
			})
		},
	}
}

func newDiagnosticsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every recorded failure",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournalOrNotice(cmd, ctx, func(journal *diagnostics.Journal) error {
				removed, err := journal.Clear(commandCtx(cmd))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", removed)
				return nil
			})
		},
	}
}

func withJournalOrNotice(cmd *cobra.Command, ctx *commandContext, fn func(*diagnostics.Journal) error) error {
	err := ctx.withJournal(fn)
	if errors.Is(err, diagnostics.ErrDisabled) {
		fmt.Fprintln(cmd.OutOrStdout(), "Diagnostics are disabled")
		return nil
	}
	return err
}
