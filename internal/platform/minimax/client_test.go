package minimax

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/videosnap/internal/config"
	"github.com/phrazzld/videosnap/internal/platform/logger"
	"github.com/phrazzld/videosnap/internal/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	RetryBaseDelay = time.Millisecond
	log, _ := logger.GetTestLogger(t)

	p, err := NewProvider(config.MinimaxConfig{
		APIKey:            "test-key",
		BaseURL:           srv.URL + "/v1",
		Model:             "video-01",
		RequestsPerSecond: 1000,
		TimeoutSeconds:    5,
		MaxRetries:        2,
	}, log)
	require.NoError(t, err)
	return p
}

func TestProvider_Submit(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		var got submitRequest
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/video_generation", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = io.WriteString(w, `{"task_id":"106916112212032","base_resp":{"status_code":0,"status_msg":"success"}}`)
		})

		jobID, err := p.Submit(context.Background(), pngHeader, "a kite rises over the dunes")
		require.NoError(t, err)
		assert.Equal(t, "106916112212032", jobID)
		assert.Equal(t, "video-01", got.Model)
		assert.Equal(t, "a kite rises over the dunes", got.Prompt)
		assert.True(t, got.PromptOptimizer)
		assert.True(t, strings.HasPrefix(got.FirstFrameImage, "data:image/png;base64,"))
		assert.Empty(t, got.CallbackURL)
	})

	t.Run("rejected by acceptance signal", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"task_id":"","base_resp":{"status_code":1008,"status_msg":"insufficient balance"}}`)
		})

		_, err := p.Submit(context.Background(), pngHeader, "p")
		assert.ErrorIs(t, err, video.ErrSubmissionRejected)
	})

	t.Run("server error is not retried", func(t *testing.T) {
		var calls int32
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := p.Submit(context.Background(), pngHeader, "p")
		assert.ErrorIs(t, err, ErrAPI)
		assert.NotErrorIs(t, err, video.ErrSubmissionRejected)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("rate limit is retried", func(t *testing.T) {
		var calls int32
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = io.WriteString(w, `{"task_id":"job-2","base_resp":{"status_code":0}}`)
		})

		jobID, err := p.Submit(context.Background(), pngHeader, "p")
		require.NoError(t, err)
		assert.Equal(t, "job-2", jobID)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})
}

func TestProvider_CheckStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		wantStatus  video.Status
		wantLocator string
	}{
		{"queueing", "Queueing", video.StatusRunning, ""},
		{"preparing", "Preparing", video.StatusRunning, ""},
		{"processing", "Processing", video.StatusRunning, ""},
		{"unknown wording", "Paused", video.StatusRunning, ""},
		{"failed", "Fail", video.StatusFailed, ""},
		{"success", "Success", video.StatusCompleted, "https://cdn.example.com/v.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/v1/query/video_generation":
					assert.Equal(t, "job-1", r.URL.Query().Get("task_id"))
					_, _ = io.WriteString(w, `{"task_id":"job-1","status":"`+tt.status+
						`","file_id":"205258526306433","base_resp":{"status_code":0,"status_msg":"success"}}`)
				case "/v1/files/retrieve":
					assert.Equal(t, "205258526306433", r.URL.Query().Get("file_id"))
					_, _ = io.WriteString(w, `{"file":{"file_id":205258526306433,"download_url":"https://cdn.example.com/v.mp4"},"base_resp":{"status_code":0}}`)
				default:
					t.Errorf("unexpected path %s", r.URL.Path)
				}
			})

			result, err := p.CheckStatus(context.Background(), "job-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantLocator, result.Locator)
		})
	}
}

func TestProvider_CheckStatusErrors(t *testing.T) {
	t.Run("success without file id leaves locator empty", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"status":"Success","base_resp":{"status_code":0}}`)
		})

		result, err := p.CheckStatus(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, video.StatusCompleted, result.Status)
		assert.Empty(t, result.Locator)
	})

	t.Run("error status code in body", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"base_resp":{"status_code":2013,"status_msg":"invalid task id"}}`)
		})

		_, err := p.CheckStatus(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrAPI)
	})

	t.Run("server errors are retried then surfaced", func(t *testing.T) {
		var calls int32
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := p.CheckStatus(context.Background(), "job-1")
		assert.ErrorIs(t, err, ErrAPI)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("malformed body", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<html>`)
		})

		_, err := p.CheckStatus(context.Background(), "job-1")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("missing download url", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/files/retrieve" {
				_, _ = io.WriteString(w, `{"file":{},"base_resp":{"status_code":0}}`)
				return
			}
			_, _ = io.WriteString(w, `{"status":"Success","file_id":"f1","base_resp":{"status_code":0}}`)
		})

		_, err := p.CheckStatus(context.Background(), "job-1")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(config.MinimaxConfig{BaseURL: "https://api.minimaxi.chat/v1"}, nil)
	assert.Error(t, err)

	_, err = NewProvider(config.MinimaxConfig{APIKey: "k", BaseURL: "::"}, nil)
	assert.Error(t, err)

	p, err := NewProvider(config.MinimaxConfig{APIKey: "k", BaseURL: "https://api.minimaxi.chat/v1/", TimeoutSeconds: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.minimaxi.chat/v1", p.baseURL)
}
