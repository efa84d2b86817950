package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// ResultStore persists an answer and its timing breakdown as a result artifact.
type ResultStore interface {
	// Save writes the artifact and returns where it was written.
	Save(ctx context.Context, answer *domain.Answer) (string, error)
}
