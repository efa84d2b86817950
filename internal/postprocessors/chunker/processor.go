// Package chunker splits normalized text into overlapping, size-bounded chunks.
//
// Size and overlap are measured in a configurable unit: words, sentences or
// characters. Windows advance by size minus overlap and the last window always
// ends at the final unit, so Reconstruct can recover the input exactly.
package chunker

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of units per chunk.
const DefaultChunkSize = 200

// DefaultChunkOverlap is the default number of overlapping units.
const DefaultChunkOverlap = 50

// chunkNamespace scopes deterministic chunk IDs.
var chunkNamespace = uuid.MustParse("5b6f1f8e-3c1a-4f59-9a57-6d1f2c0e8b41")

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits text into fixed-size windows of units.
type Processor struct {
	unit      domain.SplitUnit
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in units.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in units.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithUnit sets the split unit.
func WithUnit(unit domain.SplitUnit) Option {
	return func(p *Processor) {
		p.unit = unit
	}
}

// New creates a chunker. An overlap not smaller than the chunk size, a
// non-positive size, or an unknown unit is a *domain.ConfigError.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		unit:      domain.SplitUnitWord,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	settings := domain.ChunkSettings{Size: p.chunkSize, Overlap: p.overlap, Unit: p.unit}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// NewFromSettings creates a chunker from chunk settings.
func NewFromSettings(s domain.ChunkSettings) (*Processor, error) {
	return New(WithUnit(s.Unit), WithChunkSize(s.Size), WithOverlap(s.Overlap))
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker:" + p.unit.String()
}

// Unit returns the split unit.
func (p *Processor) Unit() domain.SplitUnit {
	return p.unit
}

// Chunk splits text into chunks owned by doc. Empty text yields no chunks;
// text no longer than the chunk size yields exactly one.
func (p *Processor) Chunk(ctx context.Context, doc *domain.Document, text string) ([]domain.Chunk, error) {
	units := splitUnits(p.unit, text)
	if len(units) == 0 {
		return nil, nil
	}

	step := p.chunkSize - p.overlap
	sep := separator(p.unit)
	chunks := make([]domain.Chunk, 0, len(units)/step+1)

	for start := 0; ; start += step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+p.chunkSize, len(units))
		overlap := 0
		if start > 0 {
			overlap = p.overlap
		}

		position := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(doc.ID, position),
			DocumentID: doc.ID,
			Source:     doc.Path,
			Position:   position,
			Content:    strings.Join(units[start:end], sep),
			Unit:       p.unit,
			Overlap:    overlap,
		})

		if end == len(units) {
			break
		}
	}

	return chunks, nil
}

// ChunkID derives a stable chunk identifier from its document and position.
func ChunkID(documentID string, position int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"#"+strconv.Itoa(position))).String()
}
