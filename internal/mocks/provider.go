package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/video"
)

// MockProvider implements video.Provider for testing
type MockProvider struct {
	ProviderID domain.ProviderID

	SubmitFn      func(ctx context.Context, image []byte, prompt string) (string, error)
	CheckStatusFn func(ctx context.Context, jobID string) (video.JobResult, error)

	// Default return values
	JobID     string
	Result    video.JobResult
	SubmitErr error
	CheckErr  error

	mu          sync.Mutex
	submitCalls int
	checkCalls  int
	prompts     []string
}

var _ video.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider that accepts every job as "job-1" and
// reports it as running.
func NewMockProvider(id domain.ProviderID) *MockProvider {
	return &MockProvider{
		ProviderID: id,
		JobID:      "job-1",
		Result:     video.JobResult{Status: video.StatusRunning},
	}
}

// ID implements video.Provider
func (m *MockProvider) ID() domain.ProviderID {
	return m.ProviderID
}

// Submit implements video.Provider
func (m *MockProvider) Submit(ctx context.Context, image []byte, prompt string) (string, error) {
	m.mu.Lock()
	m.submitCalls++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, image, prompt)
	}
	return m.JobID, m.SubmitErr
}

// CheckStatus implements video.Provider
func (m *MockProvider) CheckStatus(ctx context.Context, jobID string) (video.JobResult, error) {
	m.mu.Lock()
	m.checkCalls++
	m.mu.Unlock()

	if m.CheckStatusFn != nil {
		return m.CheckStatusFn(ctx, jobID)
	}
	return m.Result, m.CheckErr
}

// SubmitCalls returns how many times Submit was called.
func (m *MockProvider) SubmitCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitCalls
}

// CheckCalls returns how many times CheckStatus was called.
func (m *MockProvider) CheckCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkCalls
}

// Prompts returns the prompts passed to Submit, in call order.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// MockDownloader implements video.Downloader for testing
type MockDownloader struct {
	DownloadFn func(ctx context.Context, locator string) ([]byte, error)

	Data []byte
	Err  error

	mu       sync.Mutex
	locators []string
}

var _ video.Downloader = (*MockDownloader)(nil)

// Download implements video.Downloader
func (m *MockDownloader) Download(ctx context.Context, locator string) ([]byte, error) {
	m.mu.Lock()
	m.locators = append(m.locators, locator)
	m.mu.Unlock()

	if m.DownloadFn != nil {
		return m.DownloadFn(ctx, locator)
	}
	return m.Data, m.Err
}

// Locators returns every locator passed to Download.
func (m *MockDownloader) Locators() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.locators...)
}
