package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure IngestionPipeline implements the interface.
var _ driving.IngestionService = (*IngestionPipeline)(nil)

// IngestionPipeline lists a directory and takes each document through
// extraction, cleaning, chunking, embedding and indexing.
type IngestionPipeline struct {
	extractor  driven.Extractor
	processing driven.PostProcessorPipeline
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	settings   domain.Settings
	retrier    *Retrier
	now        func() time.Time
}

// IngestionOption configures an IngestionPipeline.
type IngestionOption func(*IngestionPipeline)

// WithIngestionClock sets the clock used for the report duration.
func WithIngestionClock(now func() time.Time) IngestionOption {
	return func(p *IngestionPipeline) {
		p.now = now
	}
}

// WithIngestionRetrier replaces the retrier built from settings.
func WithIngestionRetrier(r *Retrier) IngestionOption {
	return func(p *IngestionPipeline) {
		p.retrier = r
	}
}

// NewIngestionPipeline creates an ingestion pipeline.
func NewIngestionPipeline(
	extractor driven.Extractor,
	processing driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	settings domain.Settings,
	opts ...IngestionOption,
) *IngestionPipeline {
	p := &IngestionPipeline{
		extractor:  extractor,
		processing: processing,
		embedder:   embedder,
		index:      index,
		settings:   settings,
		retrier:    NewRetrier(settings.Retry, settings.RequestTimeout),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest processes every accepted file in dir, or the configured docs
// directory when dir is empty. The report is returned even when the run
// aborts, holding the outcomes recorded so far.
func (p *IngestionPipeline) Ingest(ctx context.Context, dir string) (*domain.IngestReport, error) {
	if dir == "" {
		dir = p.settings.DocsDir
	}

	start := p.now()
	report := &domain.IngestReport{Dir: dir}
	defer func() {
		report.Duration = p.now().Sub(start)
	}()

	logger.Section("Ingestion")
	logger.Debug("ingest %s: %s", dir, domain.IngestStageListing)

	paths, err := p.list(dir)
	if err != nil {
		return report, err
	}
	logger.Info("Found %d document(s) in %s", len(paths), dir)

	if p.settings.Index.Policy == domain.IndexPolicyRebuild {
		if err := p.index.Reset(ctx); err != nil {
			return report, fmt.Errorf("reset index: %w", err)
		}
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome := p.ingestDocument(ctx, path)
		report.Outcomes = append(report.Outcomes, outcome)
		report.ChunksWritten += outcome.Chunks

		if outcome.Err == nil {
			logger.Debug("ingest %s: %s (%d chunks)", path, domain.IngestStageDone, outcome.Chunks)
			continue
		}
		if isFatal(outcome.Err) {
			logger.Error("Ingestion aborted at %s for %s: %v", outcome.Stage, path, outcome.Err)
			return report, outcome.Err
		}
		logger.Warn("Skipping %s: failed at %s: %v", path, outcome.Stage, outcome.Err)
	}

	logger.Info("Indexed %d of %d document(s), %d chunk(s)", report.Indexed(), len(paths), report.ChunksWritten)
	return report, nil
}

// list returns the accepted regular files under dir, sorted by path.
func (p *IngestionPipeline) list(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, domain.NewConfigError("docs_dir", "cannot read %s: %v", dir, err)
	}
	if !info.IsDir() {
		return nil, domain.NewConfigError("docs_dir", "%s is not a directory", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != dir && !p.settings.Ingest.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && p.settings.Ingest.Accepts(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewConfigError("docs_dir", "listing %s: %v", dir, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// ingestDocument takes one file from extraction to the index. The returned
// outcome names the stage reached, or the stage that failed.
func (p *IngestionPipeline) ingestDocument(ctx context.Context, path string) domain.DocumentOutcome {
	outcome := domain.DocumentOutcome{Path: path}
	fail := func(stage domain.IngestStage, err error) domain.DocumentOutcome {
		outcome.Stage = stage
		outcome.Err = err
		return outcome
	}

	logger.Debug("ingest %s: %s", path, domain.IngestStageExtracting)
	doc, err := p.extractor.Extract(ctx, path)
	if err != nil {
		var extractErr *domain.ExtractionError
		if !errors.As(err, &extractErr) {
			err = &domain.ExtractionError{Path: path, Err: err}
		}
		return fail(domain.IngestStageExtracting, err)
	}

	logger.Debug("ingest %s: %s", path, domain.IngestStageCleaning)
	text := p.processing.Clean(doc)
	if text == "" {
		return fail(domain.IngestStageCleaning, &domain.ExtractionError{Path: path, Err: domain.ErrNoText})
	}

	logger.Debug("ingest %s: %s", path, domain.IngestStageChunking)
	chunks, err := p.processing.Chunk(ctx, doc, text)
	if err != nil {
		return fail(domain.IngestStageChunking, err)
	}
	if len(chunks) == 0 {
		return fail(domain.IngestStageChunking, &domain.ExtractionError{Path: path, Err: domain.ErrNoText})
	}

	logger.Debug("ingest %s: %s (%d chunks)", path, domain.IngestStageEmbedding, len(chunks))
	embeddings, err := p.embed(ctx, chunks)
	if err != nil {
		return fail(domain.IngestStageEmbedding, err)
	}

	logger.Debug("ingest %s: %s", path, domain.IngestStageWriting)
	if err := p.index.Add(ctx, chunks, embeddings); err != nil {
		var violation *domain.ContractViolation
		if !errors.As(err, &violation) {
			err = &indexWriteError{err: err}
		}
		return fail(domain.IngestStageWriting, err)
	}

	outcome.Stage = domain.IngestStageDone
	outcome.Chunks = len(chunks)
	return outcome
}

// embed embeds chunk contents in batches, retrying each batch.
func (p *IngestionPipeline) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	batchSize := p.settings.Embedding.BatchSize
	if batchSize <= 0 {
		batchSize = len(chunks)
	}

	embeddings := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = chunks[start+i].Content
		}

		var batch [][]float32
		err := p.retrier.Do(ctx, "embed documents", func(ctx context.Context) error {
			var err error
			batch, err = p.embedder.EmbedDocuments(ctx, texts)
			return err
		})
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, domain.NewContractViolation("embedding service returned %d vectors for %d texts", len(batch), len(texts))
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

// indexWriteError marks an index failure, which aborts the run.
type indexWriteError struct {
	err error
}

func (e *indexWriteError) Error() string {
	return "write index: " + e.err.Error()
}

func (e *indexWriteError) Unwrap() error { return e.err }

// isFatal reports whether a document failure must abort the whole run.
// Only extraction problems and chunking of a single document are skipped.
func isFatal(err error) bool {
	var (
		embedErr  *domain.EmbeddingServiceError
		violation *domain.ContractViolation
		indexErr  *indexWriteError
	)
	switch {
	case errors.As(err, &embedErr), errors.As(err, &violation), errors.As(err, &indexErr):
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, domain.ErrExtractionUnavailable), errors.Is(err, domain.ErrEmbeddingUnavailable):
		return true
	default:
		return false
	}
}
