// Package pdf extracts text from PDF files in process using
// github.com/ledongthuc/pdf. It is the local-parser extraction strategy.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
	"github.com/custodia-labs/sercha-kb/internal/normalisers"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads the text layer of PDF documents.
type Extractor struct {
	now func() time.Time
}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{now: time.Now}
}

// Strategy returns the extraction strategy this extractor implements.
func (e *Extractor) Strategy() domain.ExtractionStrategy {
	return domain.ExtractionLocalParser
}

// Extract reads the PDF at path and returns its text, one entry per page.
// Unreadable, empty or corrupt files yield a *domain.ExtractionError.
// A document with no text layer is returned with empty content.
func (e *Extractor) Extract(ctx context.Context, path string) (doc *domain.Document, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &domain.ExtractionError{Path: path, Err: err}
	}
	if info.Size() == 0 {
		return nil, &domain.ExtractionError{Path: path, Err: errors.New("empty file")}
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &domain.ExtractionError{Path: path, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, &domain.ExtractionError{Path: path, Err: err}
	}

	pages, err := readPages(ctx, reader)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.ExtractionError{Path: path, Err: err}
	}

	texts := make([]string, 0, len(pages))
	for _, p := range pages {
		texts = append(texts, p.Text)
	}
	content := strings.Join(texts, "\n")

	logger.Debug("pdf: %s: %d pages, %d bytes of text", path, len(pages), len(content))

	return &domain.Document{
		ID:          normalisers.DocumentID(path),
		Path:        path,
		Title:       normalisers.Title(content, path),
		Content:     content,
		Pages:       pages,
		ExtractedAt: e.now(),
	}, nil
}

func readPages(ctx context.Context, reader *pdf.Reader) ([]domain.Page, error) {
	n := reader.NumPage()
	pages := make([]domain.Page, 0, n)
	fonts := make(map[string]*pdf.Font)

	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, domain.Page{Number: i, Text: strings.TrimSpace(text)})
	}

	return pages, nil
}
