package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// AnswerService answers a single query from the vector index.
type AnswerService interface {
	// Answer runs retrieval and generation for query. Failures are returned
	// as *domain.RetrievalError or *domain.GenerationError.
	Answer(ctx context.Context, query string) (*domain.Answer, error)
}

// RunCoordinator ingests a directory and then answers one query.
type RunCoordinator interface {
	// Run ingests dir, answers query, and persists the timed result.
	// An empty dir uses the configured docs directory.
	Run(ctx context.Context, dir, query string) (*domain.RunResult, error)
}
