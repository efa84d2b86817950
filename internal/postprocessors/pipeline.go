// Package postprocessors turns extracted document text into chunks.
// A Pipeline runs text processors (cleaning) and then a chunker.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs text processors in order and then the chunker.
type Pipeline struct {
	processors []driven.TextProcessor
	chunker    driven.Chunker
}

// NewPipeline creates a processing pipeline with the given chunker and
// text processors. Processors are executed in the order provided.
func NewPipeline(chunker driven.Chunker, processors ...driven.TextProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
		chunker:    chunker,
	}
}

// Clean runs the document content through all text processors in order.
func (p *Pipeline) Clean(doc *domain.Document) string {
	if doc == nil {
		return ""
	}
	text := doc.Content
	for _, processor := range p.processors {
		text = processor.ProcessText(text)
	}
	return text
}

// Chunk splits cleaned text into chunks.
func (p *Pipeline) Chunk(ctx context.Context, doc *domain.Document, text string) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if p.chunker == nil {
		return nil, fmt.Errorf("pipeline has no chunker")
	}

	chunks, err := p.chunker.Chunk(ctx, doc, text)
	if err != nil {
		return nil, fmt.Errorf("processor %s: %w", p.chunker.Name(), err)
	}
	return chunks, nil
}

// Add appends a text processor to the pipeline.
func (p *Pipeline) Add(processor driven.TextProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of text processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order, chunker last.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.processors)+1)
	for _, processor := range p.processors {
		names = append(names, processor.Name())
	}
	if p.chunker != nil {
		names = append(names, p.chunker.Name())
	}
	return names
}
