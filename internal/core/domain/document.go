package domain

import "time"

// Document is the text extracted from a single source file.
// It is immutable once extracted and is discarded after chunking.
type Document struct {
	// ID is derived deterministically from Path.
	ID string

	// Path is the source file path and the document's identity.
	Path string

	// Title is the human-readable title, usually the file name.
	Title string

	// Content is the raw extracted text before cleaning.
	Content string

	// Pages holds per-page text when the extractor can report it.
	Pages []Page

	// Layout holds layout regions from layout-aware extraction.
	Layout []LayoutRegion

	// ExtractedAt is when extraction finished.
	ExtractedAt time.Time
}

// Page is the text of a single page.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the extracted page text.
	Text string
}

// LayoutRegion is a paragraph-level region reported by a layout service.
type LayoutRegion struct {
	// Page is the 1-based page the region starts on.
	Page int

	// Role is the region role (title, sectionHeading, pageFooter, ...).
	// Empty for body text.
	Role string

	// Text is the region content.
	Text string
}

// Chunk is a bounded, contiguous segment of a document's normalized text.
type Chunk struct {
	// ID is derived deterministically from DocumentID and Position.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Source is the owning document's path.
	Source string

	// Position is the 0-based ordinal within the document.
	Position int

	// Content is the chunk text.
	Content string

	// Unit is the split unit the chunk was measured in.
	Unit SplitUnit

	// Overlap is the number of leading units repeated from the previous chunk.
	Overlap int
}

// IndexEntry is a chunk paired with its embedding, as held by a vector index.
type IndexEntry struct {
	Chunk     Chunk
	Embedding []float32
}
