package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/app"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type mockIngestion struct {
	report *domain.IngestReport
	err    error
}

func (m *mockIngestion) Ingest(context.Context, string) (*domain.IngestReport, error) {
	return m.report, m.err
}

type mockAnswers struct {
	answer *domain.Answer
	err    error
	query  string
}

func (m *mockAnswers) Answer(_ context.Context, query string) (*domain.Answer, error) {
	m.query = query
	return m.answer, m.err
}

type mockRuns struct {
	result *domain.RunResult
	err    error
	query  string
}

func (m *mockRuns) Run(_ context.Context, _ string, query string) (*domain.RunResult, error) {
	m.query = query
	return m.result, m.err
}

type mockOpener struct {
	ingestion *mockIngestion
	answers   *mockAnswers
	runs      *mockRuns
	err       error
	variants  []string
}

func newMockOpener() *mockOpener {
	return &mockOpener{
		ingestion: &mockIngestion{},
		answers:   &mockAnswers{},
		runs:      &mockRuns{},
	}
}

func (m *mockOpener) Open(_ context.Context, variant string) (*app.Runtime, error) {
	m.variants = append(m.variants, variant)
	if m.err != nil {
		return nil, m.err
	}
	return &app.Runtime{
		Ingestion: m.ingestion,
		Answers:   m.answers,
		Runs:      m.runs,
	}, nil
}

func sampleAnswer() *domain.Answer {
	return &domain.Answer{
		Query: "What is sulfuric acid used in?",
		Text:  "Lead acid batteries.",
		Hits: []domain.ScoredChunk{
			{Chunk: domain.Chunk{Source: "docs/msds.pdf", Position: 1, Content: "Used in batteries."}, Score: 0.87},
		},
		Timings: domain.Timings{
			Ingestion: 3 * time.Second,
			Retrieval: time.Second,
			Total:     4 * time.Second,
		},
	}
}

func sampleReport() *domain.IngestReport {
	return &domain.IngestReport{
		Dir: "docs",
		Outcomes: []domain.DocumentOutcome{
			{Path: "docs/msds.pdf", Stage: domain.IngestStageDone, Chunks: 4},
			{Path: "docs/scan.pdf", Stage: domain.IngestStageExtracting, Err: domain.ErrNoText},
		},
		ChunksWritten: 4,
		Duration:      1500 * time.Millisecond,
	}
}
