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

// Ensure RetrievalPipeline implements the interface.
var _ driving.AnswerService = (*RetrievalPipeline)(nil)

// RetrievalPipeline answers a query from the vector index: it embeds the
// query, searches, builds a grounded prompt and asks the model.
type RetrievalPipeline struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
	prompts  driven.PromptStore
	settings domain.Settings
	retrier  *Retrier
	now      func() time.Time
}

// RetrievalOption configures a RetrievalPipeline.
type RetrievalOption func(*RetrievalPipeline)

// WithRetrievalClock sets the clock used for Timings.Retrieval.
func WithRetrievalClock(now func() time.Time) RetrievalOption {
	return func(p *RetrievalPipeline) {
		p.now = now
	}
}

// WithRetrievalRetrier replaces the retrier built from settings.
func WithRetrievalRetrier(r *Retrier) RetrievalOption {
	return func(p *RetrievalPipeline) {
		p.retrier = r
	}
}

// NewRetrievalPipeline creates a retrieval-generation pipeline.
func NewRetrievalPipeline(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.Settings,
	opts ...RetrievalOption,
) *RetrievalPipeline {
	p := &RetrievalPipeline{
		embedder: embedder,
		index:    index,
		llm:      llm,
		prompts:  prompts,
		settings: settings,
		retrier:  NewRetrier(settings.Retry, settings.RequestTimeout),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Answer runs the query state machine. Any stage failure ends the query.
func (p *RetrievalPipeline) Answer(ctx context.Context, query string) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	start := p.now()
	logger.Section("Retrieval")

	logger.Debug("query: %s", domain.QueryStageEmbedQuery)
	var vector []float32
	err := p.retrier.Do(ctx, "embed query", func(ctx context.Context) error {
		var err error
		vector, err = p.embedder.EmbedQuery(ctx, query)
		return err
	})
	if err != nil {
		return nil, p.failRetrieval(domain.QueryStageEmbedQuery, err)
	}

	logger.Debug("query: %s (top %d)", domain.QueryStageSearch, p.settings.Retrieval.TopK)
	hits, err := p.index.Search(ctx, vector, p.settings.Retrieval.TopK)
	if err != nil {
		return nil, p.failRetrieval(domain.QueryStageSearch, err)
	}
	hits = p.filter(hits)
	if len(hits) == 0 {
		return nil, p.failRetrieval(domain.QueryStageSearch, domain.ErrNoRelevantDocuments)
	}

	logger.Debug("query: %s (%d passages)", domain.QueryStageBuildPrompt, len(hits))
	tmpl, err := p.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return nil, p.failGeneration(domain.QueryStageBuildPrompt, err)
	}
	prompt, err := BuildPrompt(tmpl, query, hits)
	if err != nil {
		return nil, p.failGeneration(domain.QueryStageBuildPrompt, err)
	}

	logger.Debug("query: %s (%s)", domain.QueryStageGenerate, p.llm.ModelName())
	opts := driven.GenerateOptions{
		MaxTokens:   p.settings.LLM.MaxTokens,
		Temperature: p.settings.LLM.Temperature,
	}
	var replies []string
	err = p.retrier.Do(ctx, "generate", func(ctx context.Context) error {
		var err error
		replies, err = p.llm.Generate(ctx, prompt, opts)
		return err
	})
	if err != nil {
		return nil, p.failGeneration(domain.QueryStageGenerate, err)
	}

	logger.Debug("query: %s (%d replies)", domain.QueryStageExtractAnswer, len(replies))
	if len(replies) == 0 || strings.TrimSpace(replies[0]) == "" {
		return nil, p.failGeneration(domain.QueryStageExtractAnswer, domain.ErrEmptyAnswer)
	}

	answer := &domain.Answer{
		Query:  query,
		Text:   strings.TrimSpace(replies[0]),
		Prompt: prompt,
		Hits:   hits,
	}
	answer.Timings.Retrieval = p.now().Sub(start)
	logger.Debug("query: %s", domain.QueryStageDone)
	return answer, nil
}

// filter drops hits under the relevance floor. A zero floor keeps all hits.
func (p *RetrievalPipeline) filter(hits []domain.ScoredChunk) []domain.ScoredChunk {
	floor := p.settings.Retrieval.MinSimilarity
	if floor == 0 {
		return hits
	}
	kept := hits[:0]
	for _, h := range hits {
		if h.Score >= floor {
			kept = append(kept, h)
		}
	}
	return kept
}

func (p *RetrievalPipeline) failRetrieval(stage domain.QueryStage, err error) error {
	logger.Debug("query: %s at %s: %v", domain.QueryStageFailed, stage, err)
	return &domain.RetrievalError{Stage: stage, Err: err}
}

func (p *RetrievalPipeline) failGeneration(stage domain.QueryStage, err error) error {
	logger.Debug("query: %s at %s: %v", domain.QueryStageFailed, stage, err)
	return &domain.GenerationError{Stage: stage, Err: err}
}
