package services

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// promptData is the data an answer template is executed with.
type promptData struct {
	Query    string
	Context  string
	Passages []string
}

// BuildPrompt renders an answer template for query over the retrieved hits.
// Passages keep retrieval order and appear verbatim.
func BuildPrompt(tmpl, query string, hits []domain.ScoredChunk) (string, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	passages := make([]string, len(hits))
	for i := range hits {
		passages[i] = hits[i].Chunk.Content
	}

	var sb strings.Builder
	err = t.Execute(&sb, promptData{
		Query:    query,
		Context:  strings.Join(passages, "\n\n"),
		Passages: passages,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return sb.String(), nil
}
