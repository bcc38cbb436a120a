package mocks_test

import (
	"context"
	"testing"

	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/generation"
	"github.com/phrazzld/videosnap/internal/mocks"
	"github.com/stretchr/testify/assert"
)

func TestMockPromptGenerator(t *testing.T) {
	t.Parallel()

	t.Run("default prompt", func(t *testing.T) {
		t.Parallel()

		gen := mocks.NewMockPromptGenerator("a slow pan across the harbor")
		prompt, err := gen.GeneratePrompt(context.Background(), []byte("img"), domain.StyleRealistic)

		assert.NoError(t, err)
		assert.Equal(t, "a slow pan across the harbor", prompt)
		assert.Equal(t, 1, gen.CallCount())
		assert.Equal(t, []domain.Style{domain.StyleRealistic}, gen.GeneratePromptCalls.Styles)
	})

	t.Run("content blocked", func(t *testing.T) {
		t.Parallel()

		gen := mocks.MockPromptGeneratorWithContentBlocked()
		_, err := gen.GeneratePrompt(context.Background(), nil, domain.StyleImaginative)
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
	})

	t.Run("function override", func(t *testing.T) {
		t.Parallel()

		gen := &mocks.MockPromptGenerator{
			GeneratePromptFn: func(ctx context.Context, image []byte, style domain.Style) (string, error) {
				return string(style), nil
			},
		}
		prompt, err := gen.GeneratePrompt(context.Background(), nil, domain.StyleImaginative)
		assert.NoError(t, err)
		assert.Equal(t, "imaginative", prompt)
	})
}
