package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"videoqa/internal/form"
	"videoqa/internal/logging"
	"videoqa/internal/qa"
	"videoqa/internal/services"
	"videoqa/internal/video"
	"videoqa/internal/videoservice"
)

var (
	// ErrBusy rejects a mutation while another one is in flight.
	ErrBusy = errors.New("another change is still in progress")
	// ErrNotFound reports an id that is not in the current collection.
	ErrNotFound = errors.New("video not found")
	// ErrNotAvailable reports a panel that is only offered for completed videos.
	ErrNotAvailable = errors.New("transcription is not available for this video yet")
)

// Service is the remote video service as the catalog uses it.
type Service interface {
	List(ctx context.Context) ([]video.Video, error)
	Create(ctx context.Context, fields video.Fields) (video.Video, error)
	Update(ctx context.Context, id string, fields video.Fields) (video.Video, error)
	Delete(ctx context.Context, id string) error
	qa.Asker
}

// Recorder keeps failures that are not shown to the user.
type Recorder interface {
	RecordFailure(ctx context.Context, operation, videoID string, err error)
}

// ConfirmFunc asks the user to confirm deleting v.
type ConfirmFunc func(v video.Video) bool

// SyncState is settled unless a mutation is in flight.
type SyncState int

const (
	Settled SyncState = iota
	StalePending
)

func (s SyncState) String() string {
	if s == StalePending {
		return "stale-pending"
	}
	return "settled"
}

// View is a read-only snapshot of the catalog.
type View struct {
	State     SyncState
	Mounted   bool
	Videos    []video.Video
	Expansion Expansion
	EditingID string
	FormOpen  bool
}

// Option customizes a Catalog.
type Option func(*Catalog)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.baseLogger = logger
		}
	}
}

// WithRecorder attaches a diagnostics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(c *Catalog) {
		c.recorder = recorder
	}
}

// Catalog exclusively owns the video collection. It replaces the collection
// wholesale from the service after every successful mutation and never edits
// it locally.
type Catalog struct {
	mu         sync.Mutex
	svc        Service
	recorder   Recorder
	baseLogger *slog.Logger
	logger     *slog.Logger

	videos    []video.Video
	mounted   bool
	mutating  bool
	fetchGen  uint64
	lastErr   error
	expansion Expansion
	chat      *qa.Controller
	form      *form.Controller
	editing   string
	closed    bool
}

// New constructs a catalog backed by svc.
func New(svc Service, opts ...Option) *Catalog {
	c := &Catalog{svc: svc, videos: []video.Video{}}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.baseLogger, "catalog")
	return c
}

// Mount fetches the collection once. A failure leaves an empty settled
// collection; it is logged and recorded but not surfaced.
func (c *Catalog) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted || c.closed {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.mu.Unlock()
	_ = c.refresh(ctx)
}

// Refresh re-fetches the collection. On failure the current collection stays.
// A fetch overtaken by a later fetch or by a mutation is discarded.
func (c *Catalog) Refresh(ctx context.Context) error {
	return c.refresh(ctx)
}

// LastRefreshError returns the most recent list failure, cleared by the next
// successful fetch.
func (c *Catalog) LastRefreshError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Create submits a new video and refreshes on success.
func (c *Catalog) Create(ctx context.Context, fields video.Fields) error {
	if err := c.beginMutation(); err != nil {
		return err
	}
	defer c.endMutation()

	ctx = services.WithOperation(ctx, videoservice.OpCreate)
	created, err := c.svc.Create(ctx, fields)
	if err != nil {
		c.recordFailure(ctx, videoservice.OpCreate, "", err)
		return err
	}
	logging.WithContext(services.WithVideoID(ctx, created.ID), c.logger).Info("video created")
	_ = c.refresh(ctx)
	return nil
}

// Update replaces the editable fields of id and refreshes on success.
func (c *Catalog) Update(ctx context.Context, id string, fields video.Fields) error {
	if err := c.beginMutation(); err != nil {
		return err
	}
	defer c.endMutation()

	ctx = services.WithOperation(services.WithVideoID(ctx, id), videoservice.OpUpdate)
	if _, err := c.svc.Update(ctx, id, fields); err != nil {
		c.recordFailure(ctx, videoservice.OpUpdate, id, err)
		return err
	}
	logging.WithContext(ctx, c.logger).Info("video updated")
	_ = c.refresh(ctx)
	return nil
}

// Delete removes id after confirm approves. It reports whether a request was
// issued. Service failures are recorded for diagnostics only and never
// returned; the only error is ErrBusy or ErrNotFound. confirm is not asked
// while another change is in flight.
func (c *Catalog) Delete(ctx context.Context, id string, confirm ConfirmFunc) (bool, error) {
	c.mu.Lock()
	target, ok := video.Find(c.videos, id)
	busy := c.mutating
	c.mu.Unlock()
	if !ok {
		return false, ErrNotFound
	}
	if busy {
		return false, ErrBusy
	}
	if confirm == nil || !confirm(target) {
		return false, nil
	}
	if err := c.beginMutation(); err != nil {
		return false, err
	}
	defer c.endMutation()

	ctx = services.WithOperation(services.WithVideoID(ctx, id), videoservice.OpDelete)
	if err := c.svc.Delete(ctx, id); err != nil {
		c.recordFailure(ctx, videoservice.OpDelete, id, err)
		return true, nil
	}
	logging.WithContext(ctx, c.logger).Info("video deleted")
	_ = c.refresh(ctx)
	return true, nil
}

// OpenCreateForm replaces any open form with an empty create form. The form
// stays open after a successful submit.
func (c *Catalog) OpenCreateForm() *form.Controller {
	ctrl := form.NewCreate(c.Create, c.baseLogger)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = ctrl
	c.editing = ""
	return ctrl
}

// BeginEdit seeds an edit form with id's current values. The form closes
// after a successful submit.
func (c *Catalog) BeginEdit(id string) (*form.Controller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target, ok := video.Find(c.videos, id)
	if !ok {
		return nil, ErrNotFound
	}
	var ctrl *form.Controller
	submit := func(ctx context.Context, fields video.Fields) error {
		if err := c.Update(ctx, id, fields); err != nil {
			return err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.form == ctrl {
			c.form = nil
			c.editing = ""
		}
		return nil
	}
	ctrl = form.NewEdit(id, target.Fields(), submit, c.baseLogger)
	c.form = ctrl
	c.editing = id
	return ctrl, nil
}

// Form returns the open form, or nil.
func (c *Catalog) Form() *form.Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// CloseForm discards the open form.
func (c *Catalog) CloseForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = nil
	c.editing = ""
}

// EditingID returns the video being edited, or "".
func (c *Catalog) EditingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing
}

// ToggleTranscription expands or collapses id's transcription panel and
// reports whether it is now expanded. No request is made.
func (c *Catalog) ToggleTranscription(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expansion.Transcription == id && id != "" {
		c.expansion.Transcription = ""
		return false, nil
	}
	if err := c.requireCompleted(id); err != nil {
		return false, err
	}
	return c.expansion.toggleTranscription(id), nil
}

// TranscriptPanel renders id's transcription panel from the current collection.
func (c *Catalog) TranscriptPanel(id string) (video.TranscriptPanel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target, ok := video.Find(c.videos, id)
	if !ok {
		return video.TranscriptPanel{}, ErrNotFound
	}
	return video.PanelFor(target), nil
}

// ToggleChat expands id's question panel with a fresh controller, or
// collapses it and returns nil. Opening a panel for another video disposes
// the previous controller.
func (c *Catalog) ToggleChat(id string) (*qa.Controller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expansion.Chat == id && id != "" {
		c.expansion.toggleChat(id)
		c.disposeChatLocked()
		return nil, nil
	}
	if err := c.requireCompleted(id); err != nil {
		return nil, err
	}
	c.disposeChatLocked()
	c.expansion.toggleChat(id)
	c.chat = qa.New(id, c.svc, c.baseLogger)
	return c.chat, nil
}

// Chat returns the open question controller, or nil.
func (c *Catalog) Chat() *qa.Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chat
}

// Snapshot returns a copy of the catalog state.
func (c *Catalog) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	videos := make([]video.Video, len(c.videos))
	copy(videos, c.videos)
	state := Settled
	if c.mutating {
		state = StalePending
	}
	return View{
		State:     state,
		Mounted:   c.mounted,
		Videos:    videos,
		Expansion: c.expansion,
		EditingID: c.editing,
		FormOpen:  c.form != nil,
	}
}

// Close disposes the open question controller and drops any late results.
func (c *Catalog) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.disposeChatLocked()
	c.form = nil
	c.editing = ""
}

func (c *Catalog) refresh(ctx context.Context) error {
	ctx = services.WithOperation(ctx, videoservice.OpList)
	c.mu.Lock()
	c.fetchGen++
	gen := c.fetchGen
	c.mu.Unlock()

	videos, err := c.svc.List(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return err
	}
	if gen != c.fetchGen {
		c.mu.Unlock()
		logging.WithContext(ctx, c.logger).Debug("superseded video list dropped")
		return err
	}
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		c.recordFailure(ctx, videoservice.OpList, "", err)
		return err
	}
	if videos == nil {
		videos = []video.Video{}
	}
	c.videos = videos
	c.lastErr = nil
	if c.expansion.reconcile(videos) {
		c.disposeChatLocked()
	}
	c.mu.Unlock()

	logging.WithContext(ctx, c.logger).Debug("video list refreshed", logging.Int("videos", len(videos)))
	return nil
}

func (c *Catalog) beginMutation() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mutating {
		return ErrBusy
	}
	c.mutating = true
	c.fetchGen++
	return nil
}

func (c *Catalog) endMutation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutating = false
}

func (c *Catalog) requireCompleted(id string) error {
	target, ok := video.Find(c.videos, id)
	if !ok {
		return ErrNotFound
	}
	if !target.IsCompleted() {
		return ErrNotAvailable
	}
	return nil
}

func (c *Catalog) disposeChatLocked() {
	if c.chat != nil {
		c.chat.Dispose()
		c.chat = nil
	}
	c.expansion.Chat = ""
}

func (c *Catalog) recordFailure(ctx context.Context, operation, videoID string, err error) {
	logger := logging.WithContext(ctx, c.logger)
	attrs := logging.ServiceErrorAttrs(err)
	switch operation {
	case videoservice.OpList:
		attrs = append(attrs, logging.String(logging.FieldImpact, "video list not refreshed"))
	case videoservice.OpDelete:
		attrs = append(attrs, logging.String(logging.FieldImpact, "video remains in the catalog"))
	default:
		attrs = append(attrs, logging.String(logging.FieldImpact, "change not saved; error shown on the form"))
	}
	logging.WarnWithContext(logger, "video service request failed", "catalog_request_failed", attrs...)
	if c.recorder != nil {
		c.recorder.RecordFailure(ctx, operation, videoID, err)
	}
}
