package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations call an external service and do not retry; failures
// surface as *domain.EmbeddingServiceError and retry policy belongs to the
// caller. The same text embedded twice with the same configuration yields
// the same vector.
//
// Implementations include:
//   - Cohere (embed-english-v3.0)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Any OpenAI-compatible endpoint via eino
type EmbeddingService interface {
	// EmbedDocuments embeds texts for indexing. It returns one vector per
	// input, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size, or 0 if unknown until
	// the first call.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
