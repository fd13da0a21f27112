package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"videoqa/internal/catalog"
	"videoqa/internal/qa"
	"videoqa/internal/services"
	"videoqa/internal/video"
)

const shellHelp = `Commands:
  list | ls               show the catalog
  refresh                 fetch the catalog again
  new                     open an empty create form
  edit <id>               open an edit form for a video
  set <field> <value>     set title, url, or description on the open form
  form                    show the open form
  submit                  submit the open form
  dismiss                 clear the form error
  cancel                  close the form
  delete <id>             delete a video (asks y/N)
  transcript <id>         expand or collapse a transcription
  chat <id>               open or close the question panel for a video
  ask <question>          ask on the open question panel
  help                    show this help
  quit | exit             leave the shell`

func newShellCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive catalog session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(commandCtx(cmd), func(cat *catalog.Catalog) error {
				out := cmd.OutOrStdout()
				s := &shell{
					cat:      cat,
					out:      out,
					colorize: shouldColorize(out),
					events:   make(chan answerEvent, 4),
					done:     make(chan struct{}),
				}
				return s.run(commandCtx(cmd), cmd.InOrStdin())
			})
		},
	}
}

// answerEvent is delivered to the loop when a background question finishes.
type answerEvent struct {
	ctrl *qa.Controller
	err  error
}

// shell is the single event loop of an interactive session. Typed lines and
// background answers are handled one at a time on the loop goroutine.
type shell struct {
	cat      *catalog.Catalog
	out      io.Writer
	colorize bool

	events  chan answerEvent
	done    chan struct{}
	pending int
	lines   <-chan string
}

func (s *shell) run(ctx context.Context, in io.Reader) error {
	defer close(s.done)
	s.lines = readLines(in, s.done)

	if err := s.cat.LastRefreshError(); err != nil {
		fmt.Fprintf(s.out, "warning: video list unavailable: %s\n", services.Message(err, ""))
	}
	renderVideoTable(s.out, s.cat.Snapshot(), s.colorize)
	fmt.Fprintln(s.out, `Type "help" for commands.`)

	lines := s.lines
	for {
		if lines == nil && s.pending == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.events:
			s.pending--
			s.handleAnswer(ev)
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if quit := s.handleLine(ctx, line); quit {
				return nil
			}
		}
	}
}

// readLines forwards input lines until EOF or until done closes.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

func (s *shell) handleLine(ctx context.Context, line string) bool {
	verb, rest := splitCommand(line)
	switch verb {
	case "":
	case "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "list", "ls":
		renderVideoTable(s.out, s.cat.Snapshot(), s.colorize)
	case "refresh":
		if err := s.cat.Refresh(ctx); err != nil {
			fmt.Fprintf(s.out, "error: %s\n", services.Message(err, ""))
			return false
		}
		renderVideoTable(s.out, s.cat.Snapshot(), s.colorize)
	case "new":
		renderForm(s.out, s.cat.OpenCreateForm().Snapshot())
	case "edit":
		ctrl, err := s.cat.BeginEdit(rest)
		if err != nil {
			s.printErr(rest, err)
			return false
		}
		renderForm(s.out, ctrl.Snapshot())
	case "set":
		s.setField(rest)
	case "form":
		if ctrl := s.cat.Form(); ctrl != nil {
			renderForm(s.out, ctrl.Snapshot())
		} else {
			fmt.Fprintln(s.out, "no form open")
		}
	case "submit":
		s.submitForm(ctx)
	case "dismiss":
		if ctrl := s.cat.Form(); ctrl != nil {
			ctrl.DismissError()
		}
	case "cancel":
		s.cat.CloseForm()
		fmt.Fprintln(s.out, "form closed")
	case "delete", "rm":
		s.deleteVideo(ctx, rest)
	case "transcript":
		s.toggleTranscript(rest)
	case "chat":
		s.toggleChat(rest)
	case "ask":
		s.ask(ctx, rest)
	default:
		fmt.Fprintf(s.out, "unknown command %q; type \"help\"\n", verb)
	}
	return false
}

func (s *shell) setField(rest string) {
	ctrl := s.cat.Form()
	if ctrl == nil {
		fmt.Fprintln(s.out, `no form open; use "new" or "edit <id>"`)
		return
	}
	name, value := splitCommand(rest)
	if err := ctrl.SetField(name, value); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
}

func (s *shell) submitForm(ctx context.Context) {
	ctrl := s.cat.Form()
	if ctrl == nil {
		fmt.Fprintln(s.out, "no form open")
		return
	}
	if err := ctrl.Submit(ctx); err != nil {
		renderForm(s.out, ctrl.Snapshot())
		return
	}
	if refreshErr := s.cat.LastRefreshError(); refreshErr != nil && s.cat.Form() == ctrl {
		ctrl.SetExternalError("saved, but the list could not be refreshed: " + services.Message(refreshErr, ""))
	}
	renderVideoTable(s.out, s.cat.Snapshot(), s.colorize)
	if s.cat.Form() == ctrl {
		renderForm(s.out, ctrl.Snapshot())
	}
}

func (s *shell) deleteVideo(ctx context.Context, id string) {
	confirm := func(v video.Video) bool {
		fmt.Fprintf(s.out, "Delete %q? [y/N]: ", v.Title)
		answer, ok := <-s.lines
		if !ok {
			fmt.Fprintln(s.out)
			return false
		}
		return isYes(answer)
	}
	issued, err := s.cat.Delete(ctx, id, confirm)
	if err != nil {
		s.printErr(id, err)
		return
	}
	if !issued {
		fmt.Fprintln(s.out, "cancelled")
		return
	}
	renderVideoTable(s.out, s.cat.Snapshot(), s.colorize)
}

func (s *shell) toggleTranscript(id string) {
	open, err := s.cat.ToggleTranscription(id)
	if err != nil {
		s.printErr(id, err)
		return
	}
	if !open {
		fmt.Fprintf(s.out, "[%s] transcription collapsed\n", id)
		return
	}
	panel, err := s.cat.TranscriptPanel(id)
	if err != nil {
		s.printErr(id, err)
		return
	}
	renderPanel(s.out, panel)
}

func (s *shell) toggleChat(id string) {
	ctrl, err := s.cat.ToggleChat(id)
	if err != nil {
		s.printErr(id, err)
		return
	}
	if ctrl == nil {
		fmt.Fprintf(s.out, "[%s] question panel closed\n", id)
		return
	}
	fmt.Fprintf(s.out, "[%s] question panel open; use \"ask <question>\"\n", id)
}

func (s *shell) ask(ctx context.Context, question string) {
	ctrl := s.cat.Chat()
	if ctrl == nil {
		fmt.Fprintln(s.out, `no question panel open; use "chat <id>"`)
		return
	}
	ctrl.SetQuestion(question)
	err := ctrl.SubmitAsync(ctx, func(err error) {
		select {
		case s.events <- answerEvent{ctrl: ctrl, err: err}:
		case <-s.done:
		}
	})
	if err != nil {
		fmt.Fprintf(s.out, "[%s] %s\n", ctrl.VideoID(), services.Message(err, ""))
		return
	}
	s.pending++
	fmt.Fprintf(s.out, "[%s] asking...\n", ctrl.VideoID())
}

func (s *shell) handleAnswer(ev answerEvent) {
	if errors.Is(ev.err, qa.ErrDisposed) {
		return
	}
	renderAnswer(s.out, ev.ctrl.Snapshot())
}

func (s *shell) printErr(id string, err error) {
	if id == "" {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "error: %s: %v\n", id, err)
}

// splitCommand returns the first word of line and the trimmed remainder.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	verb, rest, _ := strings.Cut(line, " ")
	return strings.ToLower(verb), strings.TrimSpace(rest)
}
