// Package openai implements the ai interfaces against OpenAI-compatible
// APIs (OpenAI, Ollama, LocalAI, vLLM). Authentication uses a placeholder
// token for local services that don't require one.
package openai
