package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/app"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestIngestCmd(t *testing.T) {
	factory, buf := setupCLI(t)

	require.NoError(t, execute("ingest", "docs"))

	out := buf.String()
	assert.Equal(t, "docs", factory.ingestion.dir)
	assert.Contains(t, out, "Indexed 1 of 2 document(s) from docs, 4 chunk(s)")
	assert.Contains(t, out, "skipped docs/scan.pdf at extracting")
	assert.Contains(t, out, "memory index is discarded")
	assert.True(t, factory.closed)
}

func TestIngestCmd_JSON(t *testing.T) {
	_, buf := setupCLI(t)

	require.NoError(t, execute("ingest", "--json"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.EqualValues(t, 1, got["indexed"])
	assert.EqualValues(t, 1, got["failed"])
	assert.EqualValues(t, 4, got["chunks"])
}

func TestAskCmd(t *testing.T) {
	factory, buf := setupCLI(t)

	require.NoError(t, execute("ask", "What", "is", "sulfuric", "acid", "used", "in?"))

	out := buf.String()
	assert.Equal(t, "What is sulfuric acid used in?", factory.answers.query)
	assert.Contains(t, out, "Lead acid batteries.")
	assert.Contains(t, out, "[1] docs/msds.pdf #2 (0.910)")
	assert.Contains(t, out, "Used in batteries.")
}

func TestAskCmd_Variant(t *testing.T) {
	factory, _ := setupCLI(t)

	require.NoError(t, execute("ask", "--variant", "sentence", "acid"))

	assert.Equal(t, []string{"sentence"}, factory.variants)
}

func TestAskCmd_RequiresQuery(t *testing.T) {
	setupCLI(t)

	assert.Error(t, execute("ask"))
}

func TestAskCmd_NoRelevantDocuments(t *testing.T) {
	factory, _ := setupCLI(t)
	factory.answers.err = &domain.RetrievalError{Stage: domain.QueryStageSearch, Err: domain.ErrNoRelevantDocuments}

	err := execute("ask", "unrelated")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoRelevantDocuments))
}

func TestRunCmd(t *testing.T) {
	factory, buf := setupCLI(t)
	factory.runs.result = &domain.RunResult{
		Answer:       sampleAnswer(),
		Report:       sampleReport(),
		ArtifactPath: "result.txt",
	}

	require.NoError(t, execute("run", "What is sulfuric acid used in?"))

	out := buf.String()
	assert.Equal(t, "What is sulfuric acid used in?", factory.runs.query)
	assert.Contains(t, out, "Lead acid batteries.")
	assert.Contains(t, out, domain.LabelIngestion+": 2 seconds")
	assert.Contains(t, out, domain.LabelRetrieval+": 0.5 seconds")
	assert.Contains(t, out, domain.LabelTotal+": 2.5 seconds")
	assert.Contains(t, out, "Result written to result.txt")
}

func TestRunCmd_DefaultQuery(t *testing.T) {
	factory, _ := setupCLI(t)
	factory.runs.result = &domain.RunResult{Answer: sampleAnswer(), Report: sampleReport()}

	require.NoError(t, execute("run"))

	assert.Equal(t, app.DefaultQuery, factory.runs.query)
}

func TestRunCmd_DocsFlag(t *testing.T) {
	factory, _ := setupCLI(t)
	factory.runs.result = &domain.RunResult{Answer: sampleAnswer(), Report: sampleReport()}

	require.NoError(t, execute("run", "--docs", "/srv/msds", "acid"))

	assert.Equal(t, "/srv/msds", factory.settings.DocsDir)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short"))

	long := strings.Repeat("a", snippetLength+10)
	got := snippet(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, []rune(got), snippetLength+3)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "2", formatSeconds(2))
	assert.Equal(t, "0.25", formatSeconds(0.25))
}
