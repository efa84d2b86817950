package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// IngestionService builds the vector index from a directory of documents.
type IngestionService interface {
	// Ingest processes every accepted file in dir. Per-document failures are
	// recorded in the report and do not fail the run.
	Ingest(ctx context.Context, dir string) (*domain.IngestReport, error)
}
