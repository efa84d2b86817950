// Package markdown reads Markdown files and strips their formatting.
package markdown

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/normalisers"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var (
	codeBlock    = regexp.MustCompile("(?s)```.*?```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*|_)(\S(?:.*?\S)?)(\*\*|__|\*|_)`)
	blockquote   = regexp.MustCompile(`(?m)^>[ \t]?`)
	rule         = regexp.MustCompile(`(?m)^[ \t]*[-*_]{3,}[ \t]*$`)
	listMarker   = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedList = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// Extractor converts Markdown to plain text.
type Extractor struct {
	now func() time.Time
}

// New creates a Markdown extractor.
func New() *Extractor {
	return &Extractor{now: time.Now}
}

// Strategy returns the extraction strategy this extractor implements.
func (e *Extractor) Strategy() domain.ExtractionStrategy {
	return domain.ExtractionLocalParser
}

// Extract reads the Markdown file at path. The title is the first level
// one heading, falling back to the file name.
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

	raw := string(data)
	title := heading(raw)
	if title == "" {
		title = normalisers.Title("", path)
	}

	return &domain.Document{
		ID:          normalisers.DocumentID(path),
		Path:        path,
		Title:       title,
		Content:     Strip(raw),
		ExtractedAt: e.now(),
	}, nil
}

// heading returns the text of the first "# " heading, or "".
func heading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

// Strip removes common Markdown syntax, keeping link and emphasis text.
// Fenced code blocks are dropped.
func Strip(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = codeBlock.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = rule.ReplaceAllString(content, "")
	content = listMarker.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
