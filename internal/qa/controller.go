package qa

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"videoqa/internal/logging"
	"videoqa/internal/services"
	"videoqa/internal/video"
)

// FailureFallback is shown when an ask failure carries no message.
const FailureFallback = "Failed to get answer"

var (
	// ErrEmptyQuestion rejects a blank question before any request is made.
	ErrEmptyQuestion = services.Validation("ask question", "question is empty")
	// ErrInFlight rejects a submit while another one is pending.
	ErrInFlight = errors.New("a question is already being answered")
	// ErrDisposed reports that the controller was torn down; late results are dropped.
	ErrDisposed = errors.New("question panel closed")
)

// Asker is the slice of the video service the controller needs.
type Asker interface {
	Ask(ctx context.Context, videoID, question string) (video.Answer, error)
}

// Phase is the controller's interaction state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseAnswered
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseSubmitting:
		return "submitting"
	case PhaseAnswered:
		return "answered"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// View is a read-only snapshot of one controller.
type View struct {
	VideoID  string
	Question string
	Phase    Phase
	Answer   video.Answer
	Error    string
}

// Submitting reports whether a request is in flight.
func (v View) Submitting() bool { return v.Phase == PhaseSubmitting }

// HasAnswer reports whether an answer is displayed.
func (v View) HasAnswer() bool { return v.Phase == PhaseAnswered }

// Controller owns one video's question-answering exchange. Controllers for
// different videos share nothing.
type Controller struct {
	mu            sync.Mutex
	videoID       string
	asker         Asker
	logger        *slog.Logger
	correlationID string

	question   string
	inFlight   bool
	answer     *video.Answer
	errMsg     string
	generation uint64
	disposed   bool
}

// New constructs a controller scoped to videoID.
func New(videoID string, asker Asker, logger *slog.Logger) *Controller {
	correlationID := uuid.NewString()
	return &Controller{
		videoID:       videoID,
		asker:         asker,
		correlationID: correlationID,
		logger: logging.NewComponentLogger(logger, "qa").With(
			logging.String(logging.FieldVideoID, videoID),
			logging.String(logging.FieldCorrelationID, correlationID),
		),
	}
}

// VideoID returns the video this controller is scoped to.
func (c *Controller) VideoID() string {
	return c.videoID
}

// SetQuestion replaces the question text. It never clears a displayed answer
// or error.
func (c *Controller) SetQuestion(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.question = text
}

// Submit asks the current question and waits for the result. Rejections
// (ErrEmptyQuestion, ErrInFlight, ErrDisposed) leave the state untouched. A
// service failure is stored for display and also returned.
func (c *Controller) Submit(ctx context.Context) error {
	question, generation, err := c.begin()
	if err != nil {
		return err
	}
	return c.run(ctx, generation, question)
}

// SubmitAsync validates and starts a submit, then completes it in the
// background. done, when non-nil, receives the same result Submit would have
// returned once the state has been updated.
func (c *Controller) SubmitAsync(ctx context.Context, done func(error)) error {
	question, generation, err := c.begin()
	if err != nil {
		return err
	}
	go func() {
		err := c.run(ctx, generation, question)
		if done != nil {
			done(err)
		}
	}()
	return nil
}

// Dispose tears the controller down. Any result still in flight is dropped.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.disposed = true
	c.inFlight = false
}

// Disposed reports whether Dispose has been called.
func (c *Controller) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := View{VideoID: c.videoID, Question: c.question, Phase: PhaseIdle}
	switch {
	case c.inFlight:
		view.Phase = PhaseSubmitting
	case c.answer != nil:
		view.Phase = PhaseAnswered
		view.Answer = *c.answer
	case c.errMsg != "":
		view.Phase = PhaseFailed
		view.Error = c.errMsg
	}
	return view
}

func (c *Controller) begin() (string, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return "", 0, ErrDisposed
	}
	if c.inFlight {
		return "", 0, ErrInFlight
	}
	trimmed := strings.TrimSpace(c.question)
	if trimmed == "" {
		return "", 0, ErrEmptyQuestion
	}
	c.inFlight = true
	c.answer = nil
	c.errMsg = ""
	return trimmed, c.generation, nil
}

func (c *Controller) run(ctx context.Context, generation uint64, question string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithVideoID(ctx, c.videoID)
	ctx = services.WithRequestID(ctx, c.correlationID)

	c.logger.Debug("question submitted", logging.Int("question_length", len(question)))
	answer, err := c.asker.Ask(ctx, c.videoID, question)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || generation != c.generation {
		c.logger.Debug("late answer discarded")
		return ErrDisposed
	}
	c.inFlight = false
	if err != nil {
		c.errMsg = services.Message(err, FailureFallback)
		logging.WarnWithContext(c.logger, "question failed", "qa_ask_failed",
			append(logging.ServiceErrorAttrs(err),
				logging.String(logging.FieldErrorHint, "check the video service logs"),
				logging.String(logging.FieldImpact, "no answer shown for this question"),
			)...,
		)
		return err
	}
	c.answer = &answer
	c.logger.Info("question answered", logging.String("confidence", answer.Confidence.Percent()))
	return nil
}
