package generation

import (
	"context"

	"github.com/phrazzld/videosnap/internal/domain"
)

// PromptGenerator turns an image and a style into the text prompt used for
// video generation. This interface is the boundary between the task
// orchestrator and external vision/LLM services.
type PromptGenerator interface {
	// GeneratePrompt describes the motion that should bring image to life in
	// the given style. The image is sent as given; callers normalize it with
	// PrepareImage first. Errors wrap the sentinels in errors.go.
	GeneratePrompt(ctx context.Context, image []byte, style domain.Style) (string, error)
}
