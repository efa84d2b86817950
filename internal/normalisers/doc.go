// Package normalisers provides the extractors that turn source documents
// into text. Each sub-package implements one extraction strategy or one
// file format:
//
//   - pdf: in-process PDF text extraction (local-parser)
//   - plaintext, markdown: text formats read by the local parser
//   - layout: remote layout analysis service (remote-layout-service)
//
// Extractors are registered with a Registry at startup and selected by the
// configured strategy. Strategies never fall back to one another.
package normalisers
