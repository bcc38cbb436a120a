// Package openai provides an implementation of the generation.PromptGenerator
// interface backed by an OpenAI-compatible chat completions API, including
// Azure OpenAI deployments.
package openai
