// Package app wires settings into ready-to-run pipelines. Every driving
// shell builds its pipelines here.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/artifact"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/core/services"
	"github.com/custodia-labs/sercha-kb/internal/normalisers"
	"github.com/custodia-labs/sercha-kb/internal/normalisers/layout"
	"github.com/custodia-labs/sercha-kb/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-kb/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-kb/internal/normalisers/plaintext"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors"
)

// Runtime holds the pipelines built from one Settings value.
type Runtime struct {
	Settings  domain.Settings
	Ingestion driving.IngestionService
	Answers   driving.AnswerService
	Runs      driving.RunCoordinator
	Index     driven.VectorIndex

	closers []func() error
}

// Close releases the AI clients and, unless it was shared, the index.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

type options struct {
	ping      bool
	index     driven.VectorIndex
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	prompts   driven.PromptStore
	extractor driven.Extractor
	results   driven.ResultStore
	now       func() time.Time
}

// Option configures Build.
type Option func(*options)

// WithPing checks both AI services for connectivity before returning.
func WithPing(ping bool) Option {
	return func(o *options) {
		o.ping = ping
	}
}

// WithVectorIndex uses idx instead of opening the configured backend.
// The caller keeps ownership: Runtime.Close leaves it open.
func WithVectorIndex(idx driven.VectorIndex) Option {
	return func(o *options) {
		o.index = idx
	}
}

// WithAIServices uses the given clients instead of building them from
// settings. The caller keeps ownership.
func WithAIServices(embedder driven.EmbeddingService, llm driven.LLMService) Option {
	return func(o *options) {
		o.embedder = embedder
		o.llm = llm
	}
}

// WithPromptStore replaces the file prompt store.
func WithPromptStore(p driven.PromptStore) Option {
	return func(o *options) {
		o.prompts = p
	}
}

// WithExtractor replaces the extractor selected by strategy.
func WithExtractor(e driven.Extractor) Option {
	return func(o *options) {
		o.extractor = e
	}
}

// WithResultStore replaces the artifact writer.
func WithResultStore(s driven.ResultStore) Option {
	return func(o *options) {
		o.results = s
	}
}

// WithClock sets the clock shared by the pipelines and the coordinator.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Build validates settings and wires the extraction, processing, AI,
// index and artifact adapters into the three pipelines.
func Build(ctx context.Context, settings domain.Settings, opts ...Option) (rt *Runtime, err error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	rt = &Runtime{Settings: settings}
	defer func() {
		if err != nil {
			_ = rt.Close()
			rt = nil
		}
	}()

	extractor := o.extractor
	if extractor == nil {
		if extractor, err = NewExtractor(settings.Extraction); err != nil {
			return nil, err
		}
	}

	processing, err := postprocessors.NewDefaultPipeline(settings.Chunking, settings.Cleaning)
	if err != nil {
		return nil, err
	}

	embedder, llm := o.embedder, o.llm
	if embedder == nil || llm == nil {
		clients, err := ai.Initialise(ctx, &settings, o.ping)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() error {
			clients.Close()
			return nil
		})
		if embedder == nil {
			embedder = clients.EmbeddingService
		}
		if llm == nil {
			llm = clients.LLMService
		}
	}

	index := o.index
	if index == nil {
		if index, err = storage.OpenVectorIndex(ctx, settings.Index); err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, index.Close)
	}
	rt.Index = index

	prompts := o.prompts
	if prompts == nil {
		if prompts, err = file.NewPromptStore(""); err != nil {
			return nil, err
		}
	}

	results := o.results
	if results == nil {
		results = artifact.NewWriter(settings.Output)
	}

	ingestion := services.NewIngestionPipeline(extractor, processing, embedder, index, settings,
		services.WithIngestionClock(o.now))
	retrieval := services.NewRetrievalPipeline(embedder, index, llm, prompts, settings,
		services.WithRetrievalClock(o.now))

	rt.Ingestion = ingestion
	rt.Answers = retrieval
	rt.Runs = services.NewCoordinator(ingestion, retrieval, results, o.now)
	return rt, nil
}

// NewExtractor returns the extractor for the configured strategy. The
// local parser reads PDF, plain text and Markdown files.
func NewExtractor(settings domain.ExtractionSettings) (driven.Extractor, error) {
	registry := normalisers.NewRegistry()

	local := normalisers.NewRouter(domain.ExtractionLocalParser).
		Handle(pdf.New(), ".pdf").
		Handle(plaintext.New(), ".txt", ".text").
		Handle(markdown.New(), ".md", ".markdown")
	registry.Register(local)

	if settings.Strategy == domain.ExtractionRemoteLayout {
		remote, err := layout.NewFromSettings(settings)
		if err != nil {
			return nil, err
		}
		registry.Register(remote)
	}

	return registry.Get(settings.Strategy)
}
