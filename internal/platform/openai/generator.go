package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/videosnap/internal/config"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/generation"
	goopenai "github.com/sashabaranov/go-openai"
)

// Generator implements generation.PromptGenerator with a vision chat model.
type Generator struct {
	logger *slog.Logger
	client *goopenai.Client
	model  string

	temperature float32
	maxRetries  int
}

var _ generation.PromptGenerator = (*Generator)(nil)

// NewGenerator builds a generator from configuration. When AzureEndpoint is
// set the client talks to Azure OpenAI and the model name is used as the
// deployment name.
func NewGenerator(logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.OpenAIModel == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	var clientCfg goopenai.ClientConfig
	if cfg.AzureEndpoint != "" {
		clientCfg = goopenai.DefaultAzureConfig(cfg.OpenAIAPIKey, cfg.AzureEndpoint)
		if cfg.AzureAPIVersion != "" {
			clientCfg.APIVersion = cfg.AzureAPIVersion
		}
	} else {
		clientCfg = goopenai.DefaultConfig(cfg.OpenAIAPIKey)
	}

	return newGenerator(logger, goopenai.NewClientWithConfig(clientCfg), cfg), nil
}

func newGenerator(logger *slog.Logger, client *goopenai.Client, cfg config.LLMConfig) *Generator {
	return &Generator{
		logger:      logger.With("component", "openai_generator", "model", cfg.OpenAIModel),
		client:      client,
		model:       cfg.OpenAIModel,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
	}
}

// GeneratePrompt sends the image and the style instruction in one user
// message and returns the first choice's content.
func (g *Generator) GeneratePrompt(ctx context.Context, image []byte, style domain.Style) (string, error) {
	instruction, err := generation.Instruction(style)
	if err != nil {
		return "", err
	}

	prepared, err := generation.AsPrepared(image)
	if err != nil {
		return "", err
	}

	req := goopenai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []goopenai.ChatCompletionMessage{{
			Role: goopenai.ChatMessageRoleUser,
			MultiContent: []goopenai.ChatMessagePart{
				{
					Type:     goopenai.ChatMessagePartTypeImageURL,
					ImageURL: &goopenai.ChatMessageImageURL{URL: prepared.DataURL()},
				},
				{
					Type: goopenai.ChatMessagePartTypeText,
					Text: instruction,
				},
			},
		}},
	}

	var prompt string
	attempt := 0
	err = generation.WithRetry(ctx, g.maxRetries, func(ctx context.Context) error {
		attempt++
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			g.logger.WarnContext(ctx, "chat completion failed", "attempt", attempt, "error", err)
			return classifyError(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%w: no choices", generation.ErrInvalidResponse)
		}
		if resp.Choices[0].FinishReason == goopenai.FinishReasonContentFilter {
			return fmt.Errorf("%w: content filter", generation.ErrContentBlocked)
		}
		prompt, err = generation.CleanPrompt(resp.Choices[0].Message.Content)
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

func classifyError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}

func classifyStatus(code int, err error) error {
	if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
	return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
}
