package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/videosnap/internal/config"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/generation"
	"google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models used by the generator.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements generation.PromptGenerator using Gemini.
type GeminiGenerator struct {
	logger *slog.Logger
	models contentGenerator
	model  string

	temperature float32
	maxRetries  int
}

var _ generation.PromptGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator with a Gemini API client.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, client.Models, cfg)
}

func newGenerator(logger *slog.Logger, models contentGenerator, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if cfg.GeminiModel == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	return &GeminiGenerator{
		logger:      logger.With("component", "gemini_generator", "model", cfg.GeminiModel),
		models:      models,
		model:       cfg.GeminiModel,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
	}, nil
}

// GeneratePrompt asks Gemini to describe the motion for image in style.
func (g *GeminiGenerator) GeneratePrompt(ctx context.Context, image []byte, style domain.Style) (string, error) {
	instruction, err := generation.Instruction(style)
	if err != nil {
		return "", err
	}

	prepared, err := generation.AsPrepared(image)
	if err != nil {
		return "", err
	}

	temperature := g.temperature
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: prepared.MIMEType, Data: prepared.Data}},
			{Text: instruction},
		},
	}}
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}

	var prompt string
	attempt := 0
	err = generation.WithRetry(ctx, g.maxRetries, func(ctx context.Context) error {
		attempt++
		g.logger.DebugContext(ctx, "calling Gemini API",
			"attempt", attempt,
			"style", style,
			"image_bytes", len(prepared.Data))

		resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			g.logger.WarnContext(ctx, "Gemini API call failed", "attempt", attempt, "error", err)
			return classifyError(err)
		}

		prompt, err = extractText(resp)
		return err
	})
	if err != nil {
		return "", err
	}

	g.logger.InfoContext(ctx, "prompt generated",
		"style", style,
		"attempts", attempt,
		"prompt_length", len(prompt))
	return prompt, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return generation.CleanPrompt(sb.String())
}

func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	// network-level failures carry no status code
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}
