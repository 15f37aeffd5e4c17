// Package ai defines the AI service abstractions for corpus: text embedding
// and chat completion. Implementations live in subpackages (openai for
// OpenAI-compatible APIs, mock for tests); consumers depend only on the
// interfaces here.
package ai
