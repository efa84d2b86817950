// Package cleaner provides text processors that normalize extracted text
// before chunking. All processors are pure and deterministic.
package cleaner

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.TextProcessor = (*Boilerplate)(nil)
	_ driven.TextProcessor = (*Whitespace)(nil)
)

// pageNumberLine matches lines holding only a page marker such as
// "12", "Page 3" or "Page 3 of 10".
var pageNumberLine = regexp.MustCompile(`(?i)^(page\s+)?\d+(\s*(/|of)\s*\d+)?$`)

// Boilerplate strips page-number lines and control or format characters.
// It keeps line structure so Whitespace can run after it.
type Boilerplate struct {
	dropPageNumbers bool
}

// BoilerplateOption configures the Boilerplate processor.
type BoilerplateOption func(*Boilerplate)

// WithPageNumbers controls whether page-number lines are removed.
func WithPageNumbers(drop bool) BoilerplateOption {
	return func(b *Boilerplate) {
		b.dropPageNumbers = drop
	}
}

// NewBoilerplate creates a boilerplate stripper. Page-number lines are
// dropped by default.
func NewBoilerplate(opts ...BoilerplateOption) *Boilerplate {
	b := &Boilerplate{dropPageNumbers: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the processor name.
func (b *Boilerplate) Name() string {
	return "boilerplate"
}

// ProcessText removes boilerplate from text.
func (b *Boilerplate) ProcessText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == unicode.ReplacementChar:
			return -1
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return -1
		default:
			return r
		}
	}, text)

	if !b.dropPageNumbers {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if pageNumberLine.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// Whitespace collapses every whitespace run to a single space and trims
// the ends. The result is the normalized text chunks are cut from.
type Whitespace struct{}

// NewWhitespace creates a whitespace normalizer.
func NewWhitespace() *Whitespace {
	return &Whitespace{}
}

// Name returns the processor name.
func (w *Whitespace) Name() string {
	return "whitespace"
}

// ProcessText normalizes whitespace in text.
func (w *Whitespace) ProcessText(text string) string {
	return strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
}

// Clean applies the default processors in order.
func Clean(text string) string {
	return NewWhitespace().ProcessText(NewBoilerplate().ProcessText(text))
}
