// Package mocks provides centralized mock implementations for testing.
//
// Each mock has a function field per interface method. When the field is nil
// the mock falls back to its default behavior: fixed return values for the
// generator, provider and downloader, and an in-memory implementation for the
// task and asset stores. Calls are recorded so tests can assert on them.
//
//	gen := &mocks.MockPromptGenerator{Prompt: "a slow pan across the bay"}
//	provider := mocks.NewMockProvider(domain.ProviderMinimaxVideo01)
//	provider.SubmitFn = func(ctx context.Context, image []byte, prompt string) (string, error) {
//	    return "", video.ErrSubmissionRejected
//	}
package mocks
