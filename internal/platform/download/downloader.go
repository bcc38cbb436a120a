// Package download fetches finished videos from provider locators.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/phrazzld/videosnap/internal/video"
	"github.com/sethvargo/go-retry"
)

// DefaultMaxBytes caps a single download.
const DefaultMaxBytes = 512 << 20

var (
	// ErrDownloadFailed reports a locator that could not be fetched.
	ErrDownloadFailed = errors.New("download failed")

	// ErrTooLarge reports a body exceeding the configured limit.
	ErrTooLarge = errors.New("download exceeds size limit")
)

// RetryBaseDelay is the first backoff interval between attempts.
var RetryBaseDelay = time.Second

// Downloader implements video.Downloader over HTTP(S).
type Downloader struct {
	client     *http.Client
	logger     *slog.Logger
	maxRetries int
	maxBytes   int64
}

var _ video.Downloader = (*Downloader)(nil)

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// WithMaxBytes sets the size limit.
func WithMaxBytes(n int64) Option {
	return func(d *Downloader) { d.maxBytes = n }
}

// New creates a Downloader that retries transient failures maxRetries times.
func New(logger *slog.Logger, timeout time.Duration, maxRetries int, opts ...Option) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	d := &Downloader{
		client:     &http.Client{Timeout: timeout},
		logger:     logger.With("component", "downloader"),
		maxRetries: maxRetries,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download implements video.Downloader.
func (d *Downloader) Download(ctx context.Context, locator string) ([]byte, error) {
	u, err := url.Parse(locator)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid locator", ErrDownloadFailed)
	}

	backoff := retry.NewExponential(RetryBaseDelay)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxRetries(uint64(d.maxRetries), backoff)

	var data []byte
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		body, retryable, fetchErr := d.fetch(ctx, locator)
		if fetchErr != nil && retryable {
			d.logger.DebugContext(ctx, "retrying download", "host", u.Host, "error", fetchErr)
			return retry.RetryableError(fetchErr)
		}
		data = body
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	d.logger.DebugContext(ctx, "download finished", "host", u.Host, "bytes", len(data))
	return data, nil
}

func (d *Downloader) fetch(ctx context.Context, locator string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("%w: http %d", ErrDownloadFailed, resp.StatusCode)
	}
	if resp.ContentLength > d.maxBytes {
		return nil, false, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, true, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, false, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, false, fmt.Errorf("%w: empty body", ErrDownloadFailed)
	}
	return data, false, nil
}
