// Package generation defines the prompt generation boundary: a vision-capable
// language model looks at the source image and writes the motion prompt that
// is sent to the video provider. Concrete backends live under
// internal/platform (gemini, openai). The package also owns the style
// instructions and the image preparation shared by every backend.
package generation
