// Package artifact writes answers to result files.
//
// The format is the answer text, a blank line, and one timing line:
//
//	<answer>
//
//	<label> took: <seconds> seconds
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ResultStore = (*Writer)(nil)

// Writer persists answers to a single file path. Each Save replaces the
// file atomically, so readers never see a partial artifact.
type Writer struct {
	path  string
	label string
}

// NewWriter creates a writer for settings. An empty path defaults to
// result.txt and an empty label to domain.LabelTotal.
func NewWriter(settings domain.OutputSettings) *Writer {
	w := &Writer{path: settings.Path, label: settings.Label}
	if w.path == "" {
		w.path = "result.txt"
	}
	if w.label == "" {
		w.label = domain.LabelTotal
	}
	return w
}

// Path returns the artifact path.
func (w *Writer) Path() string {
	return w.path
}

// Save writes answer and its total elapsed time.
func (w *Writer) Save(ctx context.Context, answer *domain.Answer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if answer == nil {
		return "", fmt.Errorf("%w: nil answer", domain.ErrInvalidInput)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*")
	if err != nil {
		return "", fmt.Errorf("creating temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(Format(answer.Text, w.label, answer.Timings.Total.Seconds())); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing artifact: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", fmt.Errorf("setting artifact permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return "", fmt.Errorf("replacing artifact: %w", err)
	}

	return w.path, nil
}

// Format renders an artifact body.
func Format(answer, label string, seconds float64) string {
	var b strings.Builder
	b.WriteString(answer)
	b.WriteString("\n\n")
	b.WriteString(label)
	b.WriteString(" took: ")
	b.WriteString(strconv.FormatFloat(seconds, 'f', -1, 64))
	b.WriteString(" seconds")
	return b.String()
}
