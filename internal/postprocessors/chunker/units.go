package chunker

import (
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// splitUnits breaks text into the units chunk size is measured in.
// Joining the result with separator(unit) gives back normalized text.
func splitUnits(unit domain.SplitUnit, text string) []string {
	switch unit {
	case domain.SplitUnitSentence:
		return splitSentences(text)
	case domain.SplitUnitCharacter:
		runes := []rune(text)
		units := make([]string, len(runes))
		for i, r := range runes {
			units[i] = string(r)
		}
		return units
	default:
		return strings.Fields(text)
	}
}

func separator(unit domain.SplitUnit) string {
	if unit == domain.SplitUnitCharacter {
		return ""
	}
	return " "
}

// splitSentences groups words into sentences. A sentence ends at a word
// ending in '.', '!' or '?', ignoring trailing closing quotes and brackets.
// Text after the last terminator forms a final sentence of its own.
func splitSentences(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var (
		sentences []string
		start     int
	)
	for i, w := range words {
		if endsSentence(w) {
			sentences = append(sentences, strings.Join(words[start:i+1], " "))
			start = i + 1
		}
	}
	if start < len(words) {
		sentences = append(sentences, strings.Join(words[start:], " "))
	}
	return sentences
}

func endsSentence(word string) bool {
	trimmed := strings.TrimRight(word, `"')]}’”`)
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}

// Reconstruct joins chunks back into the normalized text they were cut from,
// dropping each chunk's leading overlap. Chunks must be in position order
// and come from a single document.
func Reconstruct(chunks []domain.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	unit := chunks[0].Unit
	var units []string
	for i := range chunks {
		parts := splitUnits(chunks[i].Unit, chunks[i].Content)
		if chunks[i].Overlap < len(parts) {
			units = append(units, parts[chunks[i].Overlap:]...)
		}
	}
	return strings.Join(units, separator(unit))
}
