package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/app"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func newTestServer(t *testing.T, opener *mockOpener) *Server {
	t.Helper()
	s, err := NewServer(&Ports{Pipelines: opener, Settings: domain.DefaultSettings()})
	require.NoError(t, err)
	return s
}

func TestHandleAsk(t *testing.T) {
	opener := newMockOpener()
	opener.answers.answer = sampleAnswer()
	s := newTestServer(t, opener)

	_, out, err := s.handleAsk(context.Background(), nil, AskInput{Query: "What is sulfuric acid used in?", Variant: "word"})
	require.NoError(t, err)

	assert.Equal(t, []string{"word"}, opener.variants)
	assert.Equal(t, "What is sulfuric acid used in?", opener.answers.query)
	assert.Equal(t, "Lead acid batteries.", out.Answer)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "docs/msds.pdf", out.Sources[0].Source)
	assert.InDelta(t, 0.87, out.Sources[0].Score, 1e-9)
	assert.InDelta(t, 1.0, out.RetrievalSeconds, 1e-9)
}

func TestHandleAsk_EmptyQuery(t *testing.T) {
	opener := newMockOpener()
	s := newTestServer(t, opener)

	_, _, err := s.handleAsk(context.Background(), nil, AskInput{Query: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), string(domain.ErrorKindInvalidInput))
	assert.Empty(t, opener.variants)
}

func TestHandleIngest(t *testing.T) {
	opener := newMockOpener()
	opener.ingestion.report = sampleReport()
	s := newTestServer(t, opener)

	_, out, err := s.handleIngest(context.Background(), nil, IngestInput{})
	require.NoError(t, err)

	assert.Equal(t, "docs", out.Dir)
	assert.Equal(t, 1, out.Indexed)
	assert.Equal(t, 4, out.Chunks)
	assert.InDelta(t, 1.5, out.Seconds, 1e-9)
	require.Len(t, out.Failures, 1)
	assert.Contains(t, out.Failures[0], "docs/scan.pdf")
}

func TestHandleRun(t *testing.T) {
	opener := newMockOpener()
	opener.runs.result = &domain.RunResult{
		Answer:       sampleAnswer(),
		Report:       sampleReport(),
		ArtifactPath: "result.txt",
	}
	s := newTestServer(t, opener)

	t.Run("explicit query", func(t *testing.T) {
		_, out, err := s.handleRun(context.Background(), nil, RunInput{Query: "Is it corrosive?"})
		require.NoError(t, err)

		assert.Equal(t, "Is it corrosive?", opener.runs.query)
		assert.Equal(t, "Lead acid batteries.", out.Answer.Answer)
		assert.Equal(t, 1, out.Report.Indexed)
		assert.InDelta(t, 3.0, out.IngestionSeconds, 1e-9)
		assert.InDelta(t, 4.0, out.TotalSeconds, 1e-9)
		assert.Equal(t, "result.txt", out.ArtifactPath)
	})

	t.Run("default query", func(t *testing.T) {
		_, _, err := s.handleRun(context.Background(), nil, RunInput{})
		require.NoError(t, err)
		assert.Equal(t, app.DefaultQuery, opener.runs.query)
	})
}

func TestTools_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mockOpener)
		kind  domain.ErrorKind
	}{
		{
			name: "open fails on config",
			setup: func(o *mockOpener) {
				o.err = domain.NewConfigError("chunking.size", "must be positive")
			},
			kind: domain.ErrorKindConfig,
		},
		{
			name: "no relevant documents",
			setup: func(o *mockOpener) {
				o.answers.err = &domain.RetrievalError{Stage: domain.QueryStageSearch, Err: domain.ErrNoRelevantDocuments}
			},
			kind: domain.ErrorKindNoRelevantDocs,
		},
		{
			name: "embedding unavailable",
			setup: func(o *mockOpener) {
				o.answers.err = &domain.EmbeddingServiceError{Err: errors.New("connection refused")}
			},
			kind: domain.ErrorKindServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := newMockOpener()
			tt.setup(opener)
			s := newTestServer(t, opener)

			_, _, err := s.handleAsk(context.Background(), nil, AskInput{Query: "acid"})
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.Classify(err))
			assert.Contains(t, err.Error(), string(tt.kind)+":")
		})
	}
}
