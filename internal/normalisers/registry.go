package normalisers

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// documentNamespace scopes deterministic document IDs.
var documentNamespace = uuid.MustParse("0f4c7d2a-9b3e-4a61-8e55-2d7b9c1a6f03")

// maxTitleLength is the longest first line accepted as a title.
const maxTitleLength = 200

// Registry maps extraction strategies to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.ExtractionStrategy]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[domain.ExtractionStrategy]driven.Extractor),
	}
}

// Register adds an extractor under its own strategy, replacing any
// previous registration.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[e.Strategy()] = e
}

// Get returns the extractor for strategy.
func (r *Registry) Get(strategy domain.ExtractionStrategy) (driven.Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.extractors[strategy]
	if !ok {
		return nil, domain.NewConfigError("extraction.strategy", "no extractor registered for %q", strategy)
	}
	return e, nil
}

// Strategies returns the registered strategies, sorted.
func (r *Registry) Strategies() []domain.ExtractionStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategies := make([]domain.ExtractionStrategy, 0, len(r.extractors))
	for s := range r.extractors {
		strategies = append(strategies, s)
	}
	sort.Slice(strategies, func(i, j int) bool { return strategies[i] < strategies[j] })
	return strategies
}

// DocumentID derives a stable document identifier from a file path.
// Relative and absolute spellings of the same file map to the same ID.
func DocumentID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(documentNamespace, []byte(filepath.ToSlash(path))).String()
}

// Title picks a document title: the first non-empty line of content if it
// is short enough, otherwise the file name without extension.
func Title(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) <= maxTitleLength {
			return line
		}
		break
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

// Wrap converts err into a *domain.ExtractionError for path, leaving
// existing extraction errors untouched.
func Wrap(path string, err error) error {
	if err == nil {
		return nil
	}
	var extractErr *domain.ExtractionError
	if errors.As(err, &extractErr) {
		return err
	}
	return &domain.ExtractionError{Path: path, Err: err}
}
