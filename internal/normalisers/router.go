package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Router implements the interface.
var _ driven.Extractor = (*Router)(nil)

// Router picks an extractor by file extension. All routes share the
// router's strategy.
type Router struct {
	strategy domain.ExtractionStrategy
	routes   map[string]driven.Extractor
}

// NewRouter creates an empty router for strategy.
func NewRouter(strategy domain.ExtractionStrategy) *Router {
	return &Router{
		strategy: strategy,
		routes:   make(map[string]driven.Extractor),
	}
}

// Handle routes files with the given extensions to e. Extensions are
// matched case-insensitively, with or without the leading dot.
func (r *Router) Handle(e driven.Extractor, exts ...string) *Router {
	for _, ext := range exts {
		r.routes[normaliseExt(ext)] = e
	}
	return r
}

// Extensions returns the routed extensions, sorted.
func (r *Router) Extensions() []string {
	exts := make([]string, 0, len(r.routes))
	for ext := range r.routes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Strategy returns the extraction strategy this router serves.
func (r *Router) Strategy() domain.ExtractionStrategy {
	return r.strategy
}

// Extract delegates to the extractor registered for the file's extension.
func (r *Router) Extract(ctx context.Context, path string) (*domain.Document, error) {
	e, ok := r.routes[normaliseExt(filepath.Ext(path))]
	if !ok {
		return nil, &domain.ExtractionError{
			Path: path,
			Err:  fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Ext(path)),
		}
	}
	return e.Extract(ctx, path)
}

func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
