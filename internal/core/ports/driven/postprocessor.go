package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// TextProcessor rewrites document text before chunking.
// Implementations must be pure and deterministic.
type TextProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// ProcessText returns the transformed text.
	ProcessText(text string) string
}

// Chunker splits normalized text into ordered, overlapping chunks.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk splits text, which belongs to doc, into chunks.
	Chunk(ctx context.Context, doc *domain.Document, text string) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs the cleaning processors and then the chunker.
// The two steps are exposed separately so callers can track them as stages.
type PostProcessorPipeline interface {
	// Clean runs all text processors over the document content in order.
	Clean(doc *domain.Document) string

	// Chunk splits cleaned text into chunks.
	Chunk(ctx context.Context, doc *domain.Document, text string) ([]domain.Chunk, error)
}
