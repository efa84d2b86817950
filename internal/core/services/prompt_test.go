package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

func hit(content string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{Chunk: domain.Chunk{Content: content}, Score: score}
}

func TestBuildPrompt_Context(t *testing.T) {
	prompt, err := BuildPrompt("{{.Context}}\nQ: {{.Query}}", "What is it?", []domain.ScoredChunk{
		hit("First passage.", 0.9),
		hit("Second passage.", 0.5),
	})

	require.NoError(t, err)
	assert.Equal(t, "First passage.\n\nSecond passage.\nQ: What is it?", prompt)
}

func TestBuildPrompt_DefaultTemplate(t *testing.T) {
	tmpl, ok := file.DefaultPrompt(driven.PromptAnswer)
	require.True(t, ok)

	chunk := "Sulfuric acid is used in car batteries."
	prompt, err := BuildPrompt(tmpl, "What is sulfuric acid used for?", []domain.ScoredChunk{hit(chunk, 1)})

	require.NoError(t, err)
	assert.Contains(t, prompt, "Material Safety Document Analyser")
	assert.Contains(t, prompt, chunk)
	assert.Contains(t, prompt, "Question: What is sulfuric acid used for?")
}

func TestBuildPrompt_NoHits(t *testing.T) {
	prompt, err := BuildPrompt("[{{.Context}}] {{.Query}}", "q", nil)

	require.NoError(t, err)
	assert.Equal(t, "[] q", prompt)
}

func TestBuildPrompt_Errors(t *testing.T) {
	_, err := BuildPrompt("{{.Query", "q", nil)
	assert.ErrorContains(t, err, "parse prompt template")

	_, err = BuildPrompt("{{.Missing}}", "q", nil)
	assert.ErrorContains(t, err, "render prompt template")
}
