package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"videoqa/internal/catalog"
	"videoqa/internal/form"
	"videoqa/internal/testsupport"
	"videoqa/internal/video"
	"videoqa/internal/videoservice"
)

type failureRecord struct {
	operation string
	videoID   string
	err       error
}

type stubRecorder struct {
	mu      sync.Mutex
	records []failureRecord
}

func (r *stubRecorder) RecordFailure(_ context.Context, operation, videoID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, failureRecord{operation: operation, videoID: videoID, err: err})
}

func (r *stubRecorder) operations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		ops = append(ops, rec.operation)
	}
	return ops
}

func completedVideo(id, title, transcription string) video.Video {
	return video.Video{
		ID:            id,
		Title:         title,
		URL:           "https://example.com/" + id,
		CreatedAt:     "2024-05-01T12:00:00",
		Status:        video.StatusCompleted,
		Transcription: transcription,
	}
}

func newCatalog(t *testing.T, seed ...video.Video) (*catalog.Catalog, *testsupport.FakeService, *stubRecorder) {
	t.Helper()
	fake := testsupport.NewFakeService(t, seed...)
	recorder := &stubRecorder{}
	c := catalog.New(videoservice.New(fake.URL()), catalog.WithRecorder(recorder))
	t.Cleanup(c.Close)
	c.Mount(context.Background())
	return c, fake, recorder
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestMountFetchesOnce(t *testing.T) {
	c, fake, _ := newCatalog(t, completedVideo("a", "Alpha", ""))
	c.Mount(context.Background())

	if got := fake.Count(http.MethodGet, testsupport.RouteVideos); got != 1 {
		t.Fatalf("expected one list request, got %d", got)
	}
	view := c.Snapshot()
	if !view.Mounted || view.State != catalog.Settled {
		t.Fatalf("unexpected view %+v", view)
	}
	if len(view.Videos) != 1 || view.Videos[0].Title != "Alpha" {
		t.Fatalf("unexpected videos %+v", view.Videos)
	}
}

func TestMountFailureLeavesEmptyCollectionAndRecords(t *testing.T) {
	fake := testsupport.NewFakeService(t, completedVideo("a", "Alpha", ""))
	fake.Fail(http.MethodGet, testsupport.RouteVideos, http.StatusInternalServerError)
	recorder := &stubRecorder{}
	c := catalog.New(videoservice.New(fake.URL()), catalog.WithRecorder(recorder))
	defer c.Close()

	c.Mount(context.Background())

	view := c.Snapshot()
	if view.Videos == nil || len(view.Videos) != 0 {
		t.Fatalf("expected empty non-nil collection, got %#v", view.Videos)
	}
	if view.State != catalog.Settled {
		t.Fatalf("expected settled state, got %s", view.State)
	}
	if c.LastRefreshError() == nil {
		t.Fatal("expected last refresh error")
	}
	if ops := recorder.operations(); len(ops) != 1 || ops[0] != videoservice.OpList {
		t.Fatalf("unexpected recorded operations %v", ops)
	}

	fake.Fail(http.MethodGet, testsupport.RouteVideos, 0)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if c.LastRefreshError() != nil {
		t.Fatal("expected refresh error to clear")
	}
	if len(c.Snapshot().Videos) != 1 {
		t.Fatal("expected collection after successful refresh")
	}
}

func TestUnknownStatusRendersPendingBadge(t *testing.T) {
	odd := completedVideo("a", "Alpha", "")
	odd.Status = video.Status("archived")
	c, _, _ := newCatalog(t, odd)

	got := c.Snapshot().Videos[0].Badge()
	if got.Category != video.CategoryPending || got.Label != "Pending" {
		t.Fatalf("unexpected badge %+v", got)
	}
}

func TestCreateClearsFormAndShowsVideoOnce(t *testing.T) {
	c, fake, _ := newCatalog(t)
	ctrl := c.OpenCreateForm()
	ctrl.SetTitle("Launch talk")
	ctrl.SetURL("https://example.com/launch")
	ctrl.SetDescription("keynote")

	if err := ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	view := ctrl.Snapshot()
	if view.Fields != (video.Fields{}) {
		t.Fatalf("expected cleared fields, got %+v", view.Fields)
	}
	if c.Form() != ctrl {
		t.Fatal("create form should stay open after success")
	}
	videos := c.Snapshot().Videos
	matches := 0
	for _, v := range videos {
		if v.Title == "Launch talk" {
			matches++
			if v.Badge().Category != video.CategoryPending {
				t.Fatalf("new video should be pending, got %+v", v.Badge())
			}
		}
	}
	if matches != 1 {
		t.Fatalf("expected new video exactly once, got %d in %+v", matches, videos)
	}
	if got := fake.Count(http.MethodGet, testsupport.RouteVideos); got != 2 {
		t.Fatalf("expected mount plus one refetch, got %d list requests", got)
	}
}

func TestCreateValidationFailureSendsNothing(t *testing.T) {
	c, fake, _ := newCatalog(t)
	ctrl := c.OpenCreateForm()
	ctrl.SetURL("https://example.com/x")

	if err := ctrl.Submit(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	if got := ctrl.Snapshot().Error(); got != "title is required" {
		t.Fatalf("unexpected form error %q", got)
	}
	if got := fake.Count(http.MethodPost, testsupport.RouteVideos); got != 0 {
		t.Fatalf("expected no create request, got %d", got)
	}
}

func TestUpdateChangesOnlyTargetAndClosesForm(t *testing.T) {
	c, fake, _ := newCatalog(t, completedVideo("a", "Alpha", ""), completedVideo("b", "Beta", ""))

	ctrl, err := c.BeginEdit("b")
	if err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if ctrl.Mode() != form.ModeEdit || ctrl.Snapshot().Fields.Title != "Beta" {
		t.Fatalf("edit form not seeded: %+v", ctrl.Snapshot())
	}
	if c.EditingID() != "b" {
		t.Fatalf("editing id = %q", c.EditingID())
	}
	ctrl.SetTitle("Beta v2")

	if err := ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.Form() != nil || c.EditingID() != "" {
		t.Fatal("edit form should close after success")
	}

	videos := c.Snapshot().Videos
	a, _ := video.Find(videos, "a")
	b, _ := video.Find(videos, "b")
	if a.Title != "Alpha" {
		t.Fatalf("untouched video changed: %+v", a)
	}
	if b.Title != "Beta v2" || b.URL != "https://example.com/b" {
		t.Fatalf("target not updated: %+v", b)
	}
	if len(fake.Videos()) != 2 {
		t.Fatalf("unexpected server collection %+v", fake.Videos())
	}
}

func TestUpdateFailureShowsInlineErrorWithoutRefetch(t *testing.T) {
	c, fake, recorder := newCatalog(t, completedVideo("a", "Alpha", ""))
	fake.Fail(http.MethodPut, testsupport.RouteVideo, http.StatusInternalServerError)
	before := c.Snapshot().Videos

	ctrl, err := c.BeginEdit("a")
	if err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	ctrl.SetTitle("Renamed")
	if err := ctrl.Submit(context.Background()); err == nil {
		t.Fatal("expected update failure")
	}

	if got := ctrl.Snapshot().Error(); got != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("unexpected inline error %q", got)
	}
	if c.Form() != ctrl {
		t.Fatal("edit form should stay open after failure")
	}
	if got := fake.Count(http.MethodGet, testsupport.RouteVideos); got != 1 {
		t.Fatalf("expected no refetch after failure, got %d list requests", got)
	}
	after := c.Snapshot().Videos
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("collection changed: before=%+v after=%+v", before, after)
	}
	if ops := recorder.operations(); len(ops) != 1 || ops[0] != videoservice.OpUpdate {
		t.Fatalf("unexpected recorded operations %v", ops)
	}
}

func TestBeginEditUnknownVideo(t *testing.T) {
	c, _, _ := newCatalog(t)
	if _, err := c.BeginEdit("missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesVideo(t *testing.T) {
	c, fake, _ := newCatalog(t, completedVideo("a", "Alpha", ""), completedVideo("b", "Beta", ""))

	var asked string
	issued, err := c.Delete(context.Background(), "a", func(v video.Video) bool {
		asked = v.Title
		return true
	})
	if err != nil || !issued {
		t.Fatalf("Delete: issued=%v err=%v", issued, err)
	}
	if asked != "Alpha" {
		t.Fatalf("confirm saw %q", asked)
	}
	videos := c.Snapshot().Videos
	if _, ok := video.Find(videos, "a"); ok || len(videos) != 1 {
		t.Fatalf("video not removed: %+v", videos)
	}
	if got := fake.Count(http.MethodDelete, testsupport.RouteVideo); got != 1 {
		t.Fatalf("expected one delete request, got %d", got)
	}
}

func TestDeleteDeclinedSendsNothing(t *testing.T) {
	c, fake, _ := newCatalog(t, completedVideo("a", "Alpha", ""))

	issued, err := c.Delete(context.Background(), "a", func(video.Video) bool { return false })
	if err != nil || issued {
		t.Fatalf("Delete: issued=%v err=%v", issued, err)
	}
	if got := fake.Count(http.MethodDelete, testsupport.RouteVideo); got != 0 {
		t.Fatalf("expected no delete request, got %d", got)
	}
	if len(c.Snapshot().Videos) != 1 {
		t.Fatal("collection should be unchanged")
	}
}

func TestDeleteFailureIsSilentAndRecorded(t *testing.T) {
	c, fake, recorder := newCatalog(t, completedVideo("a", "Alpha", ""))
	fake.Fail(http.MethodDelete, testsupport.RouteVideo, http.StatusInternalServerError)

	issued, err := c.Delete(context.Background(), "a", func(video.Video) bool { return true })
	if err != nil || !issued {
		t.Fatalf("Delete: issued=%v err=%v", issued, err)
	}
	if len(c.Snapshot().Videos) != 1 {
		t.Fatal("video should remain after failed delete")
	}
	if got := fake.Count(http.MethodGet, testsupport.RouteVideos); got != 1 {
		t.Fatalf("expected no refetch after failed delete, got %d", got)
	}
	if ops := recorder.operations(); len(ops) != 1 || ops[0] != videoservice.OpDelete {
		t.Fatalf("unexpected recorded operations %v", ops)
	}
}

func TestDeleteUnknownVideo(t *testing.T) {
	c, _, _ := newCatalog(t)
	called := false
	_, err := c.Delete(context.Background(), "missing", func(video.Video) bool {
		called = true
		return true
	})
	if !errors.Is(err, catalog.ErrNotFound) || called {
		t.Fatalf("expected ErrNotFound without confirm, got err=%v called=%v", err, called)
	}
}

func TestMutationInFlightIsStalePendingAndBusy(t *testing.T) {
	c, fake, _ := newCatalog(t)
	release := fake.Block(http.MethodPost, testsupport.RouteVideos)

	done := make(chan error, 1)
	go func() {
		done <- c.Create(context.Background(), video.Fields{Title: "One", URL: "https://example.com/1"})
	}()
	waitFor(t, "create request", func() bool {
		return fake.Count(http.MethodPost, testsupport.RouteVideos) == 1
	})

	if state := c.Snapshot().State; state != catalog.StalePending {
		t.Fatalf("expected stale-pending, got %s", state)
	}
	if err := c.Create(context.Background(), video.Fields{Title: "Two", URL: "https://example.com/2"}); !errors.Is(err, catalog.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	release()
	if err := <-done; err != nil {
		t.Fatalf("Create: %v", err)
	}
	view := c.Snapshot()
	if view.State != catalog.Settled || len(view.Videos) != 1 {
		t.Fatalf("unexpected settled view %+v", view)
	}
}

func TestTranscriptionPanelTogglesWithoutRefetch(t *testing.T) {
	c, fake, _ := newCatalog(t, completedVideo("a", "Alpha", "Hello\nWorld"))

	open, err := c.ToggleTranscription("a")
	if err != nil || !open {
		t.Fatalf("expand: open=%v err=%v", open, err)
	}
	panel, err := c.TranscriptPanel("a")
	if err != nil {
		t.Fatalf("TranscriptPanel: %v", err)
	}
	if panel.State != video.PanelContent || len(panel.Paragraphs) != 2 || panel.Paragraphs[1] != "World" {
		t.Fatalf("unexpected panel %+v", panel)
	}

	if open, _ := c.ToggleTranscription("a"); open {
		t.Fatal("expected collapse")
	}
	if open, _ := c.ToggleTranscription("a"); !open {
		t.Fatal("expected re-expand")
	}
	if got := fake.Count(http.MethodGet, testsupport.RouteVideos); got != 1 {
		t.Fatalf("toggling should not refetch, got %d list requests", got)
	}
}

func TestPanelsGatedToCompletedVideos(t *testing.T) {
	pending := completedVideo("p", "Pending", "stale text")
	pending.Status = video.StatusPending
	failed := completedVideo("f", "Failed", "")
	failed.Status = video.StatusFailed
	c, _, _ := newCatalog(t, pending, failed)

	for _, id := range []string{"p", "f"} {
		if _, err := c.ToggleTranscription(id); !errors.Is(err, catalog.ErrNotAvailable) {
			t.Fatalf("%s: expected ErrNotAvailable for transcription, got %v", id, err)
		}
		if _, err := c.ToggleChat(id); !errors.Is(err, catalog.ErrNotAvailable) {
			t.Fatalf("%s: expected ErrNotAvailable for chat, got %v", id, err)
		}
	}
	if exp := c.Snapshot().Expansion; exp.Transcription != "" || exp.Chat != "" {
		t.Fatalf("nothing should be expanded: %+v", exp)
	}
	if notice, ok := c.Snapshot().Videos[1].Notice(); !ok || notice != video.FailureNotice {
		t.Fatalf("failed video should carry notice, got %q", notice)
	}
}

func TestOnlyOneTranscriptionPanelOpen(t *testing.T) {
	c, _, _ := newCatalog(t, completedVideo("a", "Alpha", "x"), completedVideo("b", "Beta", "y"))
	if _, err := c.ToggleTranscription("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ToggleTranscription("b"); err != nil {
		t.Fatal(err)
	}
	exp := c.Snapshot().Expansion
	if exp.TranscriptionOpen("a") || !exp.TranscriptionOpen("b") {
		t.Fatalf("unexpected expansion %+v", exp)
	}
}

func TestToggleChatDisposesPreviousController(t *testing.T) {
	c, fake, _ := newCatalog(t, completedVideo("a", "Alpha", "x"), completedVideo("b", "Beta", "y"))
	fake.SetAnswer("b", video.Answer{Text: "It is about beta.", Confidence: video.NewConfidence(0.87)})

	first, err := c.ToggleChat("a")
	if err != nil || first == nil {
		t.Fatalf("open chat a: %v", err)
	}
	second, err := c.ToggleChat("b")
	if err != nil || second == nil {
		t.Fatalf("open chat b: %v", err)
	}
	if !first.Disposed() {
		t.Fatal("previous controller should be disposed")
	}
	if c.Chat() != second || second.VideoID() != "b" {
		t.Fatal("expected chat for b to be current")
	}

	second.SetQuestion("What is this about?")
	if err := second.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	view := second.Snapshot()
	if !view.HasAnswer() || view.Answer.Confidence.Percent() != "87%" {
		t.Fatalf("unexpected answer view %+v", view)
	}

	closed, err := c.ToggleChat("b")
	if err != nil || closed != nil {
		t.Fatalf("collapse chat: ctrl=%v err=%v", closed, err)
	}
	if !second.Disposed() || c.Chat() != nil {
		t.Fatal("collapsing should dispose the controller")
	}
}

func TestProcessingKeepsTranscriptionPanelLoading(t *testing.T) {
	c, fake, _ := newCatalog(t, completedVideo("a", "Alpha", "x"))
	if _, err := c.ToggleTranscription("a"); err != nil {
		t.Fatal(err)
	}
	chat, err := c.ToggleChat("a")
	if err != nil {
		t.Fatal(err)
	}

	fake.Advance("a", video.StatusProcessing, "")
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	exp := c.Snapshot().Expansion
	if !exp.TranscriptionOpen("a") {
		t.Fatalf("transcription panel should stay open while processing, got %+v", exp)
	}
	if exp.Chat != "" || !chat.Disposed() || c.Chat() != nil {
		t.Fatal("chat panel should collapse once the video leaves completed")
	}
	panel, err := c.TranscriptPanel("a")
	if err != nil {
		t.Fatalf("TranscriptPanel: %v", err)
	}
	if panel.State != video.PanelLoading {
		t.Fatalf("expected loading placeholder, got %+v", panel)
	}

	if open, err := c.ToggleTranscription("a"); err != nil || open {
		t.Fatalf("collapse while processing: open=%v err=%v", open, err)
	}
	if _, err := c.ToggleTranscription("a"); !errors.Is(err, catalog.ErrNotAvailable) {
		t.Fatalf("re-open while processing should be refused, got %v", err)
	}
}

func TestRefreshCollapsesPanelsForVanishedVideo(t *testing.T) {
	c, fake, _ := newCatalog(t, completedVideo("a", "Alpha", "x"), completedVideo("b", "Beta", "y"))
	if _, err := c.ToggleTranscription("a"); err != nil {
		t.Fatal(err)
	}
	chat, err := c.ToggleChat("a")
	if err != nil {
		t.Fatal(err)
	}

	fake.Advance("a", video.StatusFailed, "")
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	exp := c.Snapshot().Expansion
	if exp.Transcription != "" || exp.Chat != "" {
		t.Fatalf("panels should collapse, got %+v", exp)
	}
	if !chat.Disposed() || c.Chat() != nil {
		t.Fatal("chat controller should be disposed")
	}

	if _, err := c.ToggleTranscription("b"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Delete(context.Background(), "b", func(video.Video) bool { return true }); err != nil {
		t.Fatal(err)
	}
	if exp := c.Snapshot().Expansion; exp.Transcription != "" {
		t.Fatalf("panel for deleted video should collapse, got %+v", exp)
	}
}

// holdingService parks one List call after it has fetched its result.
type holdingService struct {
	catalog.Service
	mu       sync.Mutex
	holdNext bool
	held     chan struct{}
	release  chan struct{}
}

func (s *holdingService) holdNextList() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdNext = true
}

func (s *holdingService) List(ctx context.Context) ([]video.Video, error) {
	videos, err := s.Service.List(ctx)
	s.mu.Lock()
	hold := s.holdNext
	s.holdNext = false
	s.mu.Unlock()
	if hold {
		close(s.held)
		<-s.release
	}
	return videos, err
}

func TestStaleRefreshDoesNotOverwriteMutationRefetch(t *testing.T) {
	fake := testsupport.NewFakeService(t, completedVideo("a", "Alpha", ""))
	svc := &holdingService{
		Service: videoservice.New(fake.URL()),
		held:    make(chan struct{}),
		release: make(chan struct{}),
	}
	c := catalog.New(svc)
	t.Cleanup(c.Close)
	c.Mount(context.Background())

	svc.holdNextList()
	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	select {
	case <-svc.held:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for held refresh")
	}

	if err := c.Create(context.Background(), video.Fields{Title: "New", URL: "https://example.com/new"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := len(c.Snapshot().Videos); got != 2 {
		t.Fatalf("expected 2 videos after create, got %d", got)
	}

	close(svc.release)
	if err := <-done; err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	view := c.Snapshot()
	if view.State != catalog.Settled || len(view.Videos) != 2 {
		t.Fatalf("stale refresh overwrote the collection: %+v", view)
	}
	if view.Videos[1].Title != "New" {
		t.Fatalf("expected created video to remain, got %+v", view.Videos)
	}
}

func TestDeleteWhileBusySkipsConfirm(t *testing.T) {
	c, fake, _ := newCatalog(t, completedVideo("a", "Alpha", ""))
	release := fake.Block(http.MethodPost, testsupport.RouteVideos)

	done := make(chan error, 1)
	go func() {
		done <- c.Create(context.Background(), video.Fields{Title: "One", URL: "https://example.com/1"})
	}()
	waitFor(t, "create request", func() bool {
		return fake.Count(http.MethodPost, testsupport.RouteVideos) == 1
	})

	asked := false
	issued, err := c.Delete(context.Background(), "a", func(video.Video) bool {
		asked = true
		return true
	})
	if !errors.Is(err, catalog.ErrBusy) || issued || asked {
		t.Fatalf("expected ErrBusy without confirm, got issued=%v err=%v asked=%v", issued, err, asked)
	}

	release()
	if err := <-done; err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := fake.Count(http.MethodDelete, testsupport.RouteVideo); got != 0 {
		t.Fatalf("expected no delete request, got %d", got)
	}
}

func TestCloseDisposesChat(t *testing.T) {
	c, _, _ := newCatalog(t, completedVideo("a", "Alpha", "x"))
	chat, err := c.ToggleChat("a")
	if err != nil {
		t.Fatal(err)
	}
	c.Close()
	if !chat.Disposed() {
		t.Fatal("Close should dispose the chat controller")
	}
}
