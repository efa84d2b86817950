package driven

import "context"

// LLMService generates text from a prompt.
//
// Implementations include:
//   - Cohere (command-r)
//   - OpenAI (gpt-4o-mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
//   - Any OpenAI-compatible endpoint via eino
type LLMService interface {
	// Generate returns one or more candidate replies for prompt. The first
	// reply is the primary one. Unreachable services are reported by
	// wrapping domain.ErrLLMUnavailable.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) ([]string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
