package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Extractor turns a document file into text.
// Implementations fail with *domain.ExtractionError carrying the file path.
type Extractor interface {
	// Strategy identifies the extraction strategy this extractor implements.
	Strategy() domain.ExtractionStrategy

	// Extract reads the file at path and returns its text.
	Extract(ctx context.Context, path string) (*domain.Document, error)
}
