package testsupport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"videoqa/internal/video"
)

// Route templates understood by Fail and Block.
const (
	RouteVideos = "/videos"
	RouteVideo  = "/videos/{id}"
	RouteAsk    = "/qa/ask"
)

// APIPrefix is the path the fake service mounts its routes under.
const APIPrefix = "/api/v1"

// Request is one call observed by the fake service.
type Request struct {
	Method string
	Route  string
	Path   string
	Body   []byte
}

// FakeService is an in-memory video service served over httptest. Created
// videos start pending; Advance moves them through the lifecycle.
type FakeService struct {
	t      testing.TB
	server *httptest.Server

	mu       sync.Mutex
	videos   []video.Video
	nextID   int
	requests []Request
	failures map[string]int
	blocks   map[string]chan struct{}
	answers  map[string]video.Answer
}

// NewFakeService starts a fake service seeded with videos. It is closed
// automatically when the test ends.
func NewFakeService(t testing.TB, seed ...video.Video) *FakeService {
	t.Helper()

	s := &FakeService{
		t:        t,
		videos:   append([]video.Video(nil), seed...),
		failures: make(map[string]int),
		blocks:   make(map[string]chan struct{}),
		answers:  make(map[string]video.Answer),
	}

	router := mux.NewRouter()
	api := router.PathPrefix(APIPrefix).Subrouter()
	api.Use(s.record)
	api.HandleFunc(RouteVideos, s.handleList).Methods(http.MethodGet)
	api.HandleFunc(RouteVideos, s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc(RouteVideo, s.handleUpdate).Methods(http.MethodPut)
	api.HandleFunc(RouteVideo, s.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc(RouteAsk, s.handleAsk).Methods(http.MethodPost)

	s.server = httptest.NewServer(router)
	t.Cleanup(func() {
		s.releaseAll()
		s.server.Close()
	})
	return s
}

// URL returns the base URL a client should be configured with.
func (s *FakeService) URL() string {
	return s.server.URL + APIPrefix
}

// Fail makes method+route answer with status until cleared. A status of 0
// clears the failure.
func (s *FakeService) Fail(method, route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := routeKey(method, route)
	if status == 0 {
		delete(s.failures, key)
		return
	}
	s.failures[key] = status
}

// Block holds every method+route request until the returned release is called.
func (s *FakeService) Block(method, route string) (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.blocks[routeKey(method, route)] = gate
	return func() {
		s.mu.Lock()
		current, ok := s.blocks[routeKey(method, route)]
		if ok && current == gate {
			delete(s.blocks, routeKey(method, route))
		}
		s.mu.Unlock()
		if ok && current == gate {
			close(gate)
		}
	}
}

// SetAnswer configures the answer returned for questions about videoID.
func (s *FakeService) SetAnswer(videoID string, answer video.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[videoID] = answer
}

// Advance sets a video's status and transcription as the backend would.
func (s *FakeService) Advance(id string, status video.Status, transcription string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.videos {
		if s.videos[i].ID == id {
			s.videos[i].Status = status
			s.videos[i].Transcription = transcription
			return
		}
	}
	s.t.Fatalf("advance: unknown video %q", id)
}

// Videos returns the server-side collection.
func (s *FakeService) Videos() []video.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]video.Video(nil), s.videos...)
}

// Requests returns every request observed so far.
func (s *FakeService) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many method+route requests were observed.
func (s *FakeService) Count(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.requests {
		if req.Method == method && req.Route == route {
			n++
		}
	}
	return n
}

func (s *FakeService) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := ""
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl[len(APIPrefix):]
			}
		}
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()

		key := routeKey(r.Method, route)
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Route: route, Path: r.URL.Path, Body: body})
		status := s.failures[key]
		gate := s.blocks[key]
		s.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (s *FakeService) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Videos())
}

func (s *FakeService) handleCreate(w http.ResponseWriter, r *http.Request) {
	var fields video.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	s.nextID++
	created := video.Video{
		ID:          fmt.Sprintf("vid-%d", s.nextID),
		Title:       fields.Title,
		URL:         fields.URL,
		Description: fields.Description,
		CreatedAt:   time.Date(2024, 5, 1, 12, 0, s.nextID, 0, time.UTC).Format("2006-01-02T15:04:05"),
		Status:      video.StatusPending,
	}
	s.videos = append(s.videos, created)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, created)
}

func (s *FakeService) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var fields video.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.videos {
		if s.videos[i].ID == id {
			s.videos[i].Title = fields.Title
			s.videos[i].URL = fields.URL
			s.videos[i].Description = fields.Description
			writeJSON(w, http.StatusOK, s.videos[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Video not found"})
}

func (s *FakeService) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.videos {
		if s.videos[i].ID == id {
			s.videos = append(s.videos[:i], s.videos[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Video not found"})
}

func (s *FakeService) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
		VideoID  string `json:"video_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	answer, ok := s.answers[req.VideoID]
	s.mu.Unlock()
	if !ok {
		answer = video.Answer{Text: "No answer configured for " + req.VideoID, Confidence: video.NewConfidence(0.5)}
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *FakeService) releaseAll() {
	s.mu.Lock()
	gates := s.blocks
	s.blocks = make(map[string]chan struct{})
	s.mu.Unlock()
	for _, gate := range gates {
		close(gate)
	}
}

func routeKey(method, route string) string {
	return method + " " + route
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
