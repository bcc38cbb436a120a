package generation

import (
	"fmt"
	"strings"

	"github.com/phrazzld/videosnap/internal/domain"
)

const imaginativeInstruction = `You are a film director writing a prompt for an image-to-video model.
Study the image and invent a short, vivid scene that starts from exactly this frame.
Let the subject do something surprising yet plausible for it, and let the environment
react: light, weather, particles, camera movement. Describe motion, not appearance.
Answer with a single paragraph of at most 80 words and nothing else.`

const realisticInstruction = `You are a cinematographer writing a prompt for an image-to-video model.
Study the image and describe the natural motion that would follow this exact frame
over the next few seconds: how people, animals, water, foliage or vehicles move,
and a subtle camera movement. Keep physics and proportions realistic and do not add
new objects. Answer with a single paragraph of at most 80 words and nothing else.`

var instructions = map[domain.Style]string{
	domain.StyleImaginative: imaginativeInstruction,
	domain.StyleRealistic:   realisticInstruction,
}

// Instruction returns the text instruction sent alongside the image for style.
func Instruction(style domain.Style) (string, error) {
	text, ok := instructions[style]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedStyle, style)
	}
	return text, nil
}

// CleanPrompt trims model output and rejects empty answers.
func CleanPrompt(raw string) (string, error) {
	prompt := strings.TrimSpace(raw)
	prompt = strings.Trim(prompt, "\"")
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: empty prompt", ErrInvalidResponse)
	}
	return prompt, nil
}
