package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"videoqa/internal/catalog"
	"videoqa/internal/form"
	"videoqa/internal/services"
	"videoqa/internal/video"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var summary bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List videos and their transcription status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(commandCtx(cmd), func(cat *catalog.Catalog) error {
				if err := cat.LastRefreshError(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: video list unavailable: %s\n", services.Message(err, ""))
				}
				view := cat.Snapshot()
				out := cmd.OutOrStdout()

				if jsonOutput {
					items := make([]videoJSON, 0, len(view.Videos))
					for _, v := range view.Videos {
						items = append(items, toVideoJSON(v))
					}
					return writeJSON(cmd, items)
				}
				if summary {
					rows := summaryRows(view.Videos)
					if len(rows) == 0 {
						fmt.Fprintln(out, "No videos")
						return nil
					}
					fmt.Fprint(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
					return nil
				}
				renderVideoTable(out, view, shouldColorize(out))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&summary, "summary", false, "Show counts per status instead of the full list")
	return cmd
}

type fieldFlags struct {
	title       string
	url         string
	description string
}

func (f *fieldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Video title")
	cmd.Flags().StringVar(&f.url, "url", "", "Video URL")
	cmd.Flags().StringVar(&f.description, "description", "", "Video description")
}

// apply copies flags onto ctrl. Unset flags are skipped unless all is true.
func (f *fieldFlags) apply(cmd *cobra.Command, ctrl *form.Controller, all bool) {
	if all || cmd.Flags().Changed("title") {
		ctrl.SetTitle(f.title)
	}
	if all || cmd.Flags().Changed("url") {
		ctrl.SetURL(f.url)
	}
	if all || cmd.Flags().Changed("description") {
		ctrl.SetDescription(f.description)
	}
}

// submitForm runs ctrl and turns a failure into the message the form shows.
func submitForm(cmd *cobra.Command, ctrl *form.Controller) error {
	if err := ctrl.Submit(commandCtx(cmd)); err != nil {
		if msg := ctrl.Snapshot().Error(); msg != "" {
			return errors.New(msg)
		}
		return err
	}
	return nil
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var fields fieldFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a video to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(commandCtx(cmd), func(cat *catalog.Catalog) error {
				ctrl := cat.OpenCreateForm()
				fields.apply(cmd, ctrl, true)
				if err := submitForm(cmd, ctrl); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q; transcription pending\n", fields.title)
				return nil
			})
		},
	}

	fields.register(cmd)
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var fields fieldFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a video's title, URL, or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withCatalog(commandCtx(cmd), func(cat *catalog.Catalog) error {
				ctrl, err := cat.BeginEdit(id)
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				fields.apply(cmd, ctrl, false)
				if err := submitForm(cmd, ctrl); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", id)
				return nil
			})
		},
	}

	fields.register(cmd)
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a video after confirmation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withCatalog(commandCtx(cmd), func(cat *catalog.Catalog) error {
				confirm := promptConfirm(cmd.InOrStdin(), cmd.ErrOrStderr())
				if assumeYes {
					confirm = func(video.Video) bool { return true }
				}
				issued, err := cat.Delete(commandCtx(cmd), id, confirm)
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				out := cmd.OutOrStdout()
				if !issued {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
				if _, still := video.Find(cat.Snapshot().Videos, id); !still {
					fmt.Fprintf(out, "Deleted %s\n", id)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// promptConfirm asks on w and reads a y/N answer from r.
func promptConfirm(r io.Reader, w io.Writer) catalog.ConfirmFunc {
	reader := bufio.NewReader(r)
	return func(v video.Video) bool {
		fmt.Fprintf(w, "Delete %q? [y/N]: ", v.Title)
		line, _ := reader.ReadString('\n')
		return isYes(line)
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
