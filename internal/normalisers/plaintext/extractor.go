// Package plaintext reads UTF-8 text files as documents.
package plaintext

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/normalisers"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor returns file contents unchanged.
type Extractor struct {
	now func() time.Time
}

// New creates a plain text extractor.
func New() *Extractor {
	return &Extractor{now: time.Now}
}

// Strategy returns the extraction strategy this extractor implements.
func (e *Extractor) Strategy() domain.ExtractionStrategy {
	return domain.ExtractionLocalParser
}

// Extract reads the file at path. Files that are not valid UTF-8 are
// rejected as unsupported.
func (e *Extractor) Extract(ctx context.Context, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ExtractionError{Path: path, Err: err}
	}
	if len(data) == 0 {
		return nil, &domain.ExtractionError{Path: path, Err: errors.New("empty file")}
	}
	if !utf8.Valid(data) {
		return nil, &domain.ExtractionError{Path: path, Err: domain.ErrUnsupportedFormat}
	}

	content := strings.TrimPrefix(string(data), "\ufeff")
	return &domain.Document{
		ID:          normalisers.DocumentID(path),
		Path:        path,
		Title:       normalisers.Title(content, path),
		Content:     content,
		ExtractedAt: e.now(),
	}, nil
}
