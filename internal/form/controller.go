package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"videoqa/internal/logging"
	"videoqa/internal/services"
	"videoqa/internal/video"
)

// Mode distinguishes creating a video from editing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Field names accepted by SetField.
const (
	FieldTitle       = "title"
	FieldURL         = "url"
	FieldDescription = "description"
)

// ErrInFlight rejects a submit while another one is pending.
var ErrInFlight = errors.New("form submission already in progress")

// SubmitFunc performs the create or update the form stands for.
type SubmitFunc func(ctx context.Context, fields video.Fields) error

// View is a read-only snapshot of the form.
type View struct {
	Mode          Mode
	VideoID       string
	Fields        video.Fields
	Submitting    bool
	LocalError    string
	ExternalError string
}

// Error returns the message to display: the local error when present,
// otherwise the externally supplied one.
func (v View) Error() string {
	if v.LocalError != "" {
		return v.LocalError
	}
	return v.ExternalError
}

// Controller holds the draft fields for one create or edit form.
type Controller struct {
	mu        sync.Mutex
	mode      Mode
	videoID   string
	fields    video.Fields
	inFlight  bool
	localErr  string
	external  string
	submit    SubmitFunc
	validator *validator.Validate
	logger    *slog.Logger
}

// NewCreate returns an empty create form.
func NewCreate(submit SubmitFunc, logger *slog.Logger) *Controller {
	return newController(ModeCreate, "", video.Fields{}, submit, logger)
}

// NewEdit returns a form seeded with an existing video's values.
func NewEdit(videoID string, seed video.Fields, submit SubmitFunc, logger *slog.Logger) *Controller {
	return newController(ModeEdit, videoID, seed, submit, logger)
}

func newController(mode Mode, videoID string, seed video.Fields, submit SubmitFunc, logger *slog.Logger) *Controller {
	componentLogger := logging.NewComponentLogger(logger, "form")
	if videoID != "" {
		componentLogger = componentLogger.With(logging.String(logging.FieldVideoID, videoID))
	}
	return &Controller{
		mode:      mode,
		videoID:   videoID,
		fields:    seed,
		submit:    submit,
		validator: newValidator(),
		logger:    componentLogger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Mode reports whether the form creates or edits.
func (c *Controller) Mode() Mode { return c.mode }

// VideoID returns the edit target, or "" for a create form.
func (c *Controller) VideoID() string { return c.videoID }

// SetTitle updates the title and clears the local error.
func (c *Controller) SetTitle(value string) {
	c.edit(func(f *video.Fields) { f.Title = value })
}

// SetURL updates the URL and clears the local error.
func (c *Controller) SetURL(value string) {
	c.edit(func(f *video.Fields) { f.URL = value })
}

// SetDescription updates the description and clears the local error.
func (c *Controller) SetDescription(value string) {
	c.edit(func(f *video.Fields) { f.Description = value })
}

// SetField updates a field by name.
func (c *Controller) SetField(name, value string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FieldTitle:
		c.SetTitle(value)
	case FieldURL:
		c.SetURL(value)
	case FieldDescription:
		c.SetDescription(value)
	default:
		return fmt.Errorf("unknown field %q (want title, url, or description)", name)
	}
	return nil
}

func (c *Controller) edit(apply func(*video.Fields)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	apply(&c.fields)
	c.localErr = ""
}

// SetExternalError shows an error supplied by the surrounding view. Field
// edits do not clear it.
func (c *Controller) SetExternalError(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.external = strings.TrimSpace(message)
}

// DismissError clears the local error.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.localErr = ""
}

// Snapshot returns the current form state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Mode:          c.mode,
		VideoID:       c.videoID,
		Fields:        c.fields,
		Submitting:    c.inFlight,
		LocalError:    c.localErr,
		ExternalError: c.external,
	}
}

// Submit validates the draft and hands it to the submit function. Fields are
// sent as entered; validation looks at trimmed copies. A create form is
// cleared on success, an edit form keeps the submitted values.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrInFlight
	}
	fields := c.fields
	if err := c.validate(fields); err != nil {
		c.localErr = services.Message(err, "")
		c.mu.Unlock()
		return err
	}
	c.inFlight = true
	c.localErr = ""
	c.mu.Unlock()

	var err error
	if c.submit == nil {
		err = services.Validation(c.operation(), "form has no submit target")
	} else {
		err = c.submit(ctx, fields)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if err != nil {
		c.localErr = services.Message(err, services.GenericMessage)
		c.logger.Debug("form submission failed", logging.String("mode", c.mode.String()), logging.Error(err))
		return err
	}
	if c.mode == ModeCreate {
		c.fields = video.Fields{}
	}
	return nil
}

func (c *Controller) validate(fields video.Fields) error {
	trimmed := video.Fields{
		Title:       strings.TrimSpace(fields.Title),
		URL:         strings.TrimSpace(fields.URL),
		Description: strings.TrimSpace(fields.Description),
	}
	err := c.validator.Struct(trimmed)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return services.Wrap(services.KindValidation, c.operation(), "invalid form", err)
	}
	return services.Validation(c.operation(), describe(validationErrors[0]))
}

func (c *Controller) operation() string {
	if c.mode == ModeEdit {
		return "update video"
	}
	return "create video"
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "url":
		return fe.Field() + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed the %s check", fe.Field(), fe.Tag())
	}
}
