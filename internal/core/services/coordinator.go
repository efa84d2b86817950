package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure Coordinator implements the interface.
var _ driving.RunCoordinator = (*Coordinator)(nil)

// Coordinator runs ingestion and then one query, timing both phases on a
// single clock, and persists the timed answer.
type Coordinator struct {
	ingest  driving.IngestionService
	answer  driving.AnswerService
	results driven.ResultStore
	now     func() time.Time
}

// NewCoordinator creates a run coordinator. A nil clock uses time.Now.
func NewCoordinator(
	ingest driving.IngestionService,
	answer driving.AnswerService,
	results driven.ResultStore,
	now func() time.Time,
) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		ingest:  ingest,
		answer:  answer,
		results: results,
		now:     now,
	}
}

// Run ingests dir, answers query and writes the result artifact. Nothing is
// persisted when either phase fails.
func (c *Coordinator) Run(ctx context.Context, dir, query string) (*domain.RunResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	start := c.now()
	report, err := c.ingest.Ingest(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	ingested := c.now()

	answer, err := c.answer.Answer(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}
	answered := c.now()

	answer.Timings = domain.Timings{
		Ingestion: ingested.Sub(start),
		Retrieval: answered.Sub(ingested),
	}
	answer.Timings.Total = answer.Timings.Ingestion + answer.Timings.Retrieval

	logger.Section("Timings")
	logger.Timing(domain.LabelIngestion, answer.Timings.Ingestion)
	logger.Timing(domain.LabelRetrieval, answer.Timings.Retrieval)
	logger.Timing(domain.LabelTotal, answer.Timings.Total)

	path, err := c.results.Save(ctx, answer)
	if err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}

	return &domain.RunResult{
		Answer:       answer,
		Report:       report,
		ArtifactPath: path,
	}, nil
}
