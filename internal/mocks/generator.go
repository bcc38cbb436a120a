package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/generation"
)

// MockPromptGenerator implements generation.PromptGenerator for testing
type MockPromptGenerator struct {
	// GeneratePromptFn allows test cases to mock the GeneratePrompt behavior
	GeneratePromptFn func(ctx context.Context, image []byte, style domain.Style) (string, error)

	// Default response values
	Prompt string
	Err    error

	// Call tracking for verification
	GeneratePromptCalls struct {
		mu sync.Mutex

		Count  int
		Images [][]byte
		Styles []domain.Style
	}
}

var _ generation.PromptGenerator = (*MockPromptGenerator)(nil)

// GeneratePrompt implements the generation.PromptGenerator interface
func (m *MockPromptGenerator) GeneratePrompt(ctx context.Context, image []byte, style domain.Style) (string, error) {
	m.GeneratePromptCalls.mu.Lock()
	m.GeneratePromptCalls.Count++
	m.GeneratePromptCalls.Images = append(m.GeneratePromptCalls.Images, image)
	m.GeneratePromptCalls.Styles = append(m.GeneratePromptCalls.Styles, style)
	m.GeneratePromptCalls.mu.Unlock()

	if m.GeneratePromptFn != nil {
		return m.GeneratePromptFn(ctx, image, style)
	}
	return m.Prompt, m.Err
}

// CallCount returns how many times GeneratePrompt was called.
func (m *MockPromptGenerator) CallCount() int {
	m.GeneratePromptCalls.mu.Lock()
	defer m.GeneratePromptCalls.mu.Unlock()
	return m.GeneratePromptCalls.Count
}

// NewMockPromptGenerator creates a MockPromptGenerator that returns prompt
func NewMockPromptGenerator(prompt string) *MockPromptGenerator {
	return &MockPromptGenerator{Prompt: prompt}
}

// NewMockPromptGeneratorWithError creates a MockPromptGenerator that returns err
func NewMockPromptGeneratorWithError(err error) *MockPromptGenerator {
	return &MockPromptGenerator{Err: err}
}

// MockPromptGeneratorWithContentBlocked simulates a safety block
func MockPromptGeneratorWithContentBlocked() *MockPromptGenerator {
	return &MockPromptGenerator{Err: generation.ErrContentBlocked}
}
