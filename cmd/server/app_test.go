package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/phrazzld/videosnap/internal/config"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/generation"
	"github.com/phrazzld/videosnap/internal/platform/logger"
	"github.com/phrazzld/videosnap/internal/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimaxConfig() config.MinimaxConfig {
	return config.MinimaxConfig{
		APIKey:            "mm-key",
		BaseURL:           "https://api.minimax.chat/v1",
		Model:             "video-01",
		RequestsPerSecond: 1,
		TimeoutSeconds:    10,
	}
}

func TestNewProviderRegistry(t *testing.T) {
	log, _ := logger.GetTestLogger(t)

	registry, err := newProviderRegistry(config.VideoConfig{
		DefaultProvider: string(domain.ProviderMinimaxVideo01),
		Minimax:         minimaxConfig(),
	}, log)
	require.NoError(t, err)
	assert.True(t, registry.Has(domain.ProviderMinimaxVideo01))

	_, err = newProviderRegistry(config.VideoConfig{
		DefaultProvider: "kling/v1",
		Minimax:         minimaxConfig(),
	}, log)
	assert.ErrorIs(t, err, video.ErrUnknownProvider)
}

func TestNewPromptGenerator(t *testing.T) {
	log, _ := logger.GetTestLogger(t)

	gen, err := newPromptGenerator(context.Background(), config.LLMConfig{
		Backend:      "openai",
		OpenAIAPIKey: "sk-test",
		OpenAIModel:  "gpt-4o",
	}, log)
	require.NoError(t, err)
	assert.NotNil(t, gen)

	_, err = newPromptGenerator(context.Background(), config.LLMConfig{Backend: "llama"}, log)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestNewApplication_ClosesRedisOnError(t *testing.T) {
	log, _ := logger.GetTestLogger(t)
	mr := miniredis.RunT(t)

	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled:            true,
			Addr:               mr.Addr(),
			SnapshotTTLSeconds: 60,
			LockTTLSeconds:     30,
		},
		Assets: config.AssetsConfig{Root: t.TempDir()},
		LLM:    config.LLMConfig{Backend: "llama"},
	}

	app, err := newApplication(context.Background(), cfg, log, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	assert.Nil(t, app)

	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 },
		time.Second, 10*time.Millisecond, "redis connections must be closed after a failed start")
}
