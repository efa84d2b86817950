package services

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// corruptMarker makes fileExtractor fail the way a damaged PDF would.
const corruptMarker = "%CORRUPT"

// fileExtractor reads plain text files as if they were parsed documents.
type fileExtractor struct {
	err error
}

func (e *fileExtractor) Strategy() domain.ExtractionStrategy { return domain.ExtractionLocalParser }

func (e *fileExtractor) Extract(ctx context.Context, path string) (*domain.Document, error) {
	if e.err != nil {
		return nil, e.err
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.ExtractionError{Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ExtractionError{Path: path, Err: err}
	}
	if strings.HasPrefix(string(data), corruptMarker) {
		return nil, &domain.ExtractionError{Path: path, Err: errors.New("malformed xref table")}
	}
	return &domain.Document{
		ID:      filepath.Base(path),
		Path:    path,
		Title:   filepath.Base(path),
		Content: string(data),
	}, nil
}

// hashEmbedder maps each lower-cased word to a hashed dimension, giving a
// deterministic bag-of-words vector.
type hashEmbedder struct {
	mu      sync.Mutex
	dim     int
	batches []int
	queries []string

	// failures are returned by successive EmbedDocuments calls before
	// real embeddings are produced.
	failures []error
	queryErr error
	// short drops the last vector of every batch.
	short bool
}

func newHashEmbedder() *hashEmbedder {
	return &hashEmbedder{dim: 256}
}

func (h *hashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &domain.EmbeddingServiceError{Op: "embed", Err: err}
	}
	if len(h.failures) > 0 {
		err := h.failures[0]
		h.failures = h.failures[1:]
		return nil, err
	}

	h.batches = append(h.batches, len(texts))
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vectors = append(vectors, h.vector(text))
	}
	if h.short && len(vectors) > 0 {
		vectors = vectors[:len(vectors)-1]
	}
	return vectors, nil
}

func (h *hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.queryErr != nil {
		return nil, h.queryErr
	}
	h.queries = append(h.queries, text)
	return h.vector(text), nil
}

func (h *hashEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		f := fnv.New32a()
		_, _ = f.Write([]byte(w))
		v[f.Sum32()%uint32(h.dim)]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}

func (h *hashEmbedder) Dimensions() int            { return h.dim }
func (h *hashEmbedder) ModelName() string          { return "hash-bow" }
func (h *hashEmbedder) Ping(context.Context) error { return nil }
func (h *hashEmbedder) Close() error               { return nil }

// echoLLM replies with a fixed answer, or echoes the prompt when none is set.
type echoLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
	opts    []driven.GenerateOptions
}

func (l *echoLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prompts = append(l.prompts, prompt)
	l.opts = append(l.opts, opts)
	if l.err != nil {
		return nil, l.err
	}
	if l.replies == nil {
		return []string{prompt}, nil
	}
	return l.replies, nil
}

func (l *echoLLM) ModelName() string          { return "echo" }
func (l *echoLLM) Ping(context.Context) error { return nil }
func (l *echoLLM) Close() error               { return nil }

// staticPrompts serves one answer template.
type staticPrompts struct {
	tmpl string
	err  error
}

func (p *staticPrompts) Load(string) (string, error) { return p.tmpl, p.err }
func (p *staticPrompts) Reload()                     {}

// stepClock returns successive instants from a fixed start.
func stepClock(start time.Time, steps ...time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		if i < len(steps) {
			current = current.Add(steps[i])
			i++
		}
		return now
	}
}

// writeDocs creates files under a fresh directory and returns its path.
func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

// testSettings returns settings for the fakes: sentence chunks so each
// sentence is retrievable on its own.
func testSettings(dir string) domain.Settings {
	settings := domain.DefaultSettings()
	settings.DocsDir = dir
	settings.Chunking = domain.ChunkSettings{Size: 1, Overlap: 0, Unit: domain.SplitUnitSentence}
	settings.Embedding.APIKey = "test"
	settings.LLM.APIKey = "test"
	settings.Output.Path = filepath.Join(dir, "result.txt")
	return settings
}

const msdsText = `SAFETY DATA SHEET
Sulfuric acid causes severe skin burns.
Wear protective gloves and eye protection.
Sulfuric acid is used in lead acid batteries and fertilizer production.
Store in a cool dry place away from metals.
Page 1 of 1`
