package minimax

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/phrazzld/videosnap/internal/config"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/video"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// maxErrorBody bounds how much of an error response is kept for logs.
const maxErrorBody = 2048

var (
	// ErrAPI reports a non-success answer from the MiniMax API.
	ErrAPI = errors.New("minimax api error")

	// ErrMalformedResponse reports a response that could not be decoded.
	ErrMalformedResponse = errors.New("minimax malformed response")

	errRetryable = errors.New("retryable")
)

// RetryBaseDelay is the first backoff interval between attempts.
var RetryBaseDelay = 500 * time.Millisecond

// Provider talks to the MiniMax API.
type Provider struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
	apiKey      string
	baseURL     string
	model       string
	callbackURL string
	maxRetries  int
}

var _ video.Provider = (*Provider)(nil)

// NewProvider creates a MiniMax provider from cfg.
func NewProvider(cfg config.MinimaxConfig, logger *slog.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("minimax api key is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid minimax base url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	return &Provider{
		httpClient:  &http.Client{Timeout: cfg.Timeout()},
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		logger:      logger.With("component", "minimax_provider"),
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		callbackURL: cfg.CallbackURL,
		maxRetries:  cfg.MaxRetries,
	}, nil
}

// ID implements video.Provider.
func (p *Provider) ID() domain.ProviderID {
	return domain.ProviderMinimaxVideo01
}

type baseResp struct {
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_msg"`
}

type submitRequest struct {
	Model           string `json:"model"`
	Prompt          string `json:"prompt"`
	FirstFrameImage string `json:"first_frame_image"`
	PromptOptimizer bool   `json:"prompt_optimizer"`
	CallbackURL     string `json:"callback_url,omitempty"`
}

type submitResponse struct {
	TaskID   string   `json:"task_id"`
	BaseResp baseResp `json:"base_resp"`
}

type queryResponse struct {
	TaskID   string   `json:"task_id"`
	Status   string   `json:"status"`
	FileID   string   `json:"file_id"`
	BaseResp baseResp `json:"base_resp"`
}

type retrieveResponse struct {
	File struct {
		DownloadURL string `json:"download_url"`
	} `json:"file"`
	BaseResp baseResp `json:"base_resp"`
}

// Submit implements video.Provider. The image is sent inline as the first
// frame. Only rate-limit answers are retried, since any other failure may
// already have created a job on the provider side.
func (p *Provider) Submit(ctx context.Context, image []byte, prompt string) (string, error) {
	body := submitRequest{
		Model:           p.model,
		Prompt:          prompt,
		FirstFrameImage: dataURL(image),
		PromptOptimizer: true,
		CallbackURL:     p.callbackURL,
	}

	var resp submitResponse
	err := p.do(ctx, http.MethodPost, p.baseURL+"/video_generation", body, &resp, true)
	if err != nil {
		return "", fmt.Errorf("failed to submit video generation: %w", err)
	}

	if resp.BaseResp.StatusCode != 0 || resp.TaskID == "" {
		p.logger.WarnContext(ctx, "video generation not accepted",
			"status_code", resp.BaseResp.StatusCode,
			"status_msg", resp.BaseResp.StatusMsg)
		return "", fmt.Errorf("%w: status_code %d: %s",
			video.ErrSubmissionRejected, resp.BaseResp.StatusCode, resp.BaseResp.StatusMsg)
	}

	p.logger.InfoContext(ctx, "video generation accepted", "job_id", resp.TaskID)
	return resp.TaskID, nil
}

// CheckStatus implements video.Provider.
func (p *Provider) CheckStatus(ctx context.Context, jobID string) (video.JobResult, error) {
	q := url.Values{"task_id": {jobID}}

	var resp queryResponse
	if err := p.do(ctx, http.MethodGet, p.baseURL+"/query/video_generation?"+q.Encode(), nil, &resp, false); err != nil {
		return video.JobResult{}, fmt.Errorf("failed to query video generation: %w", err)
	}
	if resp.BaseResp.StatusCode != 0 {
		return video.JobResult{}, fmt.Errorf("%w: status query returned %d: %s",
			ErrAPI, resp.BaseResp.StatusCode, resp.BaseResp.StatusMsg)
	}

	status := normalizeStatus(resp.Status)
	result := video.JobResult{Status: status, Detail: resp.Status}

	switch status {
	case video.StatusCompleted:
		if resp.FileID == "" {
			// completed without a locator is left for the caller to reject
			return result, nil
		}
		locator, err := p.downloadURL(ctx, resp.FileID)
		if err != nil {
			return video.JobResult{}, err
		}
		result.Locator = locator
	case video.StatusFailed:
		if resp.BaseResp.StatusMsg != "" && resp.BaseResp.StatusMsg != "success" {
			result.Detail = resp.Status + ": " + resp.BaseResp.StatusMsg
		}
	}

	return result, nil
}

func (p *Provider) downloadURL(ctx context.Context, fileID string) (string, error) {
	q := url.Values{"file_id": {fileID}}

	var resp retrieveResponse
	if err := p.do(ctx, http.MethodGet, p.baseURL+"/files/retrieve?"+q.Encode(), nil, &resp, false); err != nil {
		return "", fmt.Errorf("failed to retrieve file: %w", err)
	}
	if resp.BaseResp.StatusCode != 0 {
		return "", fmt.Errorf("%w: file retrieve returned %d: %s",
			ErrAPI, resp.BaseResp.StatusCode, resp.BaseResp.StatusMsg)
	}
	if resp.File.DownloadURL == "" {
		return "", fmt.Errorf("%w: file %s has no download url", ErrMalformedResponse, fileID)
	}
	return resp.File.DownloadURL, nil
}

// normalizeStatus maps MiniMax job states onto video.Status. Anything not
// known to be terminal is still running.
func normalizeStatus(s string) video.Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return video.StatusCompleted
	case "fail", "failed":
		return video.StatusFailed
	default:
		return video.StatusRunning
	}
}

func dataURL(image []byte) string {
	mime := "image/jpeg"
	if detected := mimetype.Detect(image); strings.HasPrefix(detected.String(), "image/") {
		mime = detected.String()
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// do performs one API call with rate limiting and retries. When
// onlyRateLimited is set, only 429 answers are retried.
func (p *Provider) do(ctx context.Context, method, endpoint string, in, out any, onlyRateLimited bool) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	maxRetries := p.maxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := retry.NewExponential(RetryBaseDelay)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxRetries(uint64(maxRetries), backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := p.attempt(ctx, method, endpoint, payload, out)
		if err == nil || !errors.Is(err, errRetryable) {
			return err
		}
		if onlyRateLimited && !errors.Is(err, errRateLimited) {
			return err
		}
		p.logger.DebugContext(ctx, "retrying minimax request", "endpoint", endpoint, "error", err)
		return retry.RetryableError(err)
	})
}

var errRateLimited = errors.New("rate limited")

func (p *Provider) attempt(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", errRetryable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", errRetryable, err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(data)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		p.logger.ErrorContext(ctx, "minimax api error",
			"status", resp.StatusCode,
			"endpoint", req.URL.Path,
			"body", snippet)

		apiErr := fmt.Errorf("%w: http %d", ErrAPI, resp.StatusCode)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w: %w", errRetryable, errRateLimited, apiErr)
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: %w", errRetryable, apiErr)
		default:
			return apiErr
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
