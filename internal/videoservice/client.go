package videoservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"videoqa/internal/config"
	"videoqa/internal/logging"
	"videoqa/internal/services"
	"videoqa/internal/video"
)

// Operation names used in errors, logs, and the diagnostics journal.
const (
	OpList   = "list videos"
	OpCreate = "create video"
	OpUpdate = "update video"
	OpDelete = "delete video"
	OpAsk    = "ask question"
)

// AskFailureMessage replaces any ask failure detail shown to the user.
const AskFailureMessage = "Failed to get answer"

const errorBodyLimit = 4 << 10

// HTTPDoer describes the HTTP client used by the video service client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "videoservice")
		}
	}
}

// Client talks to the remote video service. It keeps no state between calls.
type Client struct {
	baseURL string
	http    HTTPDoer
	logger  *slog.Logger
}

type askRequest struct {
	Question string `json:"question"`
	VideoID  string `json:"video_id"`
}

type errorBody struct {
	Detail any `json:"detail"`
}

// New constructs a client rooted at baseURL, e.g. http://localhost:8000/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		// No timeout: requests run until the service answers or the caller cancels.
		http:   &http.Client{},
		logger: logging.NewComponentLogger(nil, "videoservice"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig constructs a client for the configured service.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	if cfg == nil {
		return New("", WithLogger(logger))
	}
	return New(cfg.Service.BaseURL, WithLogger(logger))
}

// BaseURL reports the service root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches the full video collection.
func (c *Client) List(ctx context.Context) ([]video.Video, error) {
	var videos []video.Video
	if err := c.do(ctx, OpList, http.MethodGet, "/videos", nil, &videos); err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []video.Video{}
	}
	return videos, nil
}

// Create submits a new video and returns the stored record.
func (c *Client) Create(ctx context.Context, fields video.Fields) (video.Video, error) {
	var created video.Video
	if err := c.do(ctx, OpCreate, http.MethodPost, "/videos", fields, &created); err != nil {
		return video.Video{}, err
	}
	return created, nil
}

// Update replaces all editable fields of the video with id.
func (c *Client) Update(ctx context.Context, id string, fields video.Fields) (video.Video, error) {
	ctx = services.WithVideoID(ctx, id)
	var updated video.Video
	if err := c.do(ctx, OpUpdate, http.MethodPut, videoPath(id), fields, &updated); err != nil {
		return video.Video{}, err
	}
	return updated, nil
}

// Delete removes the video with id.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx = services.WithVideoID(ctx, id)
	return c.do(ctx, OpDelete, http.MethodDelete, videoPath(id), nil, nil)
}

// Ask poses a question about one video. Every failure carries
// AskFailureMessage regardless of its cause.
func (c *Client) Ask(ctx context.Context, videoID, question string) (video.Answer, error) {
	ctx = services.WithVideoID(ctx, videoID)
	var answer video.Answer
	err := c.do(ctx, OpAsk, http.MethodPost, "/qa/ask", askRequest{Question: question, VideoID: videoID}, &answer)
	if err != nil {
		var svcErr *services.Error
		if errors.As(err, &svcErr) {
			svcErr.Message = AskFailureMessage
			return video.Answer{}, svcErr
		}
		return video.Answer{}, services.Wrap(services.KindTransport, OpAsk, AskFailureMessage, err)
	}
	return answer, nil
}

func videoPath(id string) string {
	return "/videos/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithOperation(ctx, op)
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, c.logger)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.KindValidation, op, "could not encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return services.Transport(op, fmt.Errorf("build request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug("service request failed",
			logging.String("method", method),
			logging.String("path", path),
			logging.Error(err),
		)
		return services.Transport(op, err)
	}
	defer resp.Body.Close()

	logger.Debug("service request completed",
		logging.String("method", method),
		logging.String("path", path),
		logging.Int(logging.FieldStatusCode, resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return services.Status(op, resp.StatusCode, readDetail(resp.Body))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyLimit))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Decode(op, err)
	}
	return nil
}

// readDetail extracts a string "detail" field from an error body, as FastAPI
// style services return. Anything else yields "".
func readDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, errorBodyLimit))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return ""
	}
	var payload errorBody
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if detail, ok := payload.Detail.(string); ok {
		return strings.TrimSpace(detail)
	}
	return ""
}
