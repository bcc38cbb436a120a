package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/videosnap/internal/config"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/generation"
	"github.com/phrazzld/videosnap/internal/platform/logger"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		Backend:           "openai",
		OpenAIAPIKey:      "sk-test",
		OpenAIModel:       "gpt-4o",
		Temperature:       1,
		MaxImageDimension: 512,
		MaxRetries:        2,
	}
}

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	generation.RetryBaseDelay = time.Millisecond

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	clientCfg := goopenai.DefaultConfig("sk-test")
	clientCfg.BaseURL = srv.URL + "/v1"

	log, _ := logger.GetTestLogger(t)
	return newGenerator(log, goopenai.NewClientWithConfig(clientCfg), testConfig())
}

func writeCompletion(w http.ResponseWriter, content, finishReason string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": finishReason,
			"message":       map[string]string{"role": "assistant", "content": content},
		}},
	})
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"server_error"}}`))
}

func TestNewGenerator_Validation(t *testing.T) {
	log, _ := logger.GetTestLogger(t)

	_, err := NewGenerator(nil, testConfig())
	assert.Error(t, err)

	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	_, err = NewGenerator(log, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg = testConfig()
	cfg.OpenAIModel = ""
	_, err = NewGenerator(log, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg = testConfig()
	cfg.AzureEndpoint = "https://example.openai.azure.com"
	cfg.AzureAPIVersion = "2024-06-01"
	g, err := NewGenerator(log, cfg)
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestGeneratePrompt_SendsImageAndInstruction(t *testing.T) {
	var got goopenai.ChatCompletionRequest
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, "Steam rises from the cup as the spoon stirs.", "stop")
	})

	prompt, err := g.GeneratePrompt(context.Background(), []byte("not-an-image"), domain.StyleImaginative)
	require.NoError(t, err)
	assert.Equal(t, "Steam rises from the cup as the spoon stirs.", prompt)

	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 1)
	parts := got.Messages[0].MultiContent
	require.Len(t, parts, 2)
	assert.Equal(t, goopenai.ChatMessagePartTypeImageURL, parts[0].Type)
	require.NotNil(t, parts[0].ImageURL)
	assert.True(t, strings.HasPrefix(parts[0].ImageURL.URL, "data:text/plain"))
	instruction, _ := generation.Instruction(domain.StyleImaginative)
	assert.Equal(t, instruction, parts[1].Text)
}

func TestGeneratePrompt_SendsImageAsGiven(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1024, 768))))
	original := buf.Bytes()

	var got goopenai.ChatCompletionRequest
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, "Clouds drift over the ridge.", "stop")
	})

	_, err := g.GeneratePrompt(context.Background(), original, domain.StyleRealistic)
	require.NoError(t, err)

	require.Len(t, got.Messages, 1)
	require.NotNil(t, got.Messages[0].MultiContent[0].ImageURL)
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(original)
	assert.Equal(t, want, got.Messages[0].MultiContent[0].ImageURL.URL)
}

func TestGeneratePrompt_RetriesServerErrors(t *testing.T) {
	var calls int32
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeError(w, http.StatusServiceUnavailable)
			return
		}
		writeCompletion(w, "Leaves spiral down.", "stop")
	})

	prompt, err := g.GeneratePrompt(context.Background(), []byte("img"), domain.StyleRealistic)
	require.NoError(t, err)
	assert.Equal(t, "Leaves spiral down.", prompt)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGeneratePrompt_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name:    "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) { writeError(w, http.StatusBadRequest) },
			wantErr: generation.ErrGenerationFailed,
		},
		{
			name:    "content filter",
			handler: func(w http.ResponseWriter, r *http.Request) { writeCompletion(w, "", "content_filter") },
			wantErr: generation.ErrContentBlocked,
		},
		{
			name:    "empty answer",
			handler: func(w http.ResponseWriter, r *http.Request) { writeCompletion(w, "  ", "stop") },
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "persistent rate limit",
			handler: func(w http.ResponseWriter, r *http.Request) { writeError(w, http.StatusTooManyRequests) },
			wantErr: generation.ErrTransientFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, tt.handler)
			_, err := g.GeneratePrompt(context.Background(), []byte("img"), domain.StyleRealistic)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
