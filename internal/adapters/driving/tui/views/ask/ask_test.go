package ask

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type mockIngestion struct {
	report *domain.IngestReport
	err    error
	calls  int
}

func (m *mockIngestion) Ingest(context.Context, string) (*domain.IngestReport, error) {
	m.calls++
	return m.report, m.err
}

type mockAnswers struct {
	answer *domain.Answer
	err    error
	query  string
}

func (m *mockAnswers) Answer(_ context.Context, query string) (*domain.Answer, error) {
	m.query = query
	return m.answer, m.err
}

func testAnswer() *domain.Answer {
	return &domain.Answer{
		Query: "What is sulfuric acid used in?",
		Text:  "Lead acid batteries.",
		Hits: []domain.ScoredChunk{
			{Chunk: domain.Chunk{Source: "/docs/msds.pdf", Position: 2, Content: "Used in batteries."}, Score: 0.9},
		},
		Timings: domain.Timings{Retrieval: 1500 * time.Millisecond},
	}
}

func newTestView(ingestion *mockIngestion, answers *mockAnswers) *View {
	v := NewView(nil, nil, ingestion, answers)
	v.SetDimensions(100, 40)
	return v
}

func typeText(v *View, text string) *View {
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil, nil)

	require.NotNil(t, v)
	assert.True(t, v.InputFocused())
	assert.False(t, v.Ready())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Ingest(t *testing.T) {
	ingestion := &mockIngestion{report: &domain.IngestReport{
		Outcomes:      []domain.DocumentOutcome{{Path: "a.pdf", Stage: domain.IngestStageDone, Chunks: 3}},
		ChunksWritten: 3,
	}}
	v := newTestView(ingestion, &mockAnswers{})

	cmd := v.Ingest()
	assert.True(t, v.Busy())
	assert.Equal(t, status.StateIngesting, v.Status().State())

	msg := cmd()
	require.IsType(t, messages.IngestCompleted{}, msg)
	v, _ = v.Update(msg)

	assert.False(t, v.Busy())
	assert.Equal(t, 1, ingestion.calls)
	docs, chunks := v.Status().Indexed()
	assert.Equal(t, 1, docs)
	assert.Equal(t, 3, chunks)
	assert.Equal(t, status.StateReady, v.Status().State())
}

func TestView_IngestError(t *testing.T) {
	ingestion := &mockIngestion{
		report: &domain.IngestReport{},
		err:    &domain.EmbeddingServiceError{Op: "embed", Err: errors.New("connection refused")},
	}
	v := newTestView(ingestion, &mockAnswers{})

	v, _ = v.Update(v.Ingest()())

	require.Error(t, v.Err())
	assert.Equal(t, status.StateError, v.Status().State())
	assert.Equal(t, string(domain.ErrorKindServiceUnavailable), v.Status().Message())
	assert.Contains(t, v.View(), "connection refused")
}

func TestView_AskFlow(t *testing.T) {
	answers := &mockAnswers{answer: testAnswer()}
	v := newTestView(&mockIngestion{}, answers)

	v = typeText(v, "What is sulfuric acid used in?")
	assert.Equal(t, "What is sulfuric acid used in?", v.Query())

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, v.Busy())

	v, _ = v.Update(cmd())
	assert.Equal(t, "What is sulfuric acid used in?", answers.query)
	require.NotNil(t, v.Answer())
	assert.False(t, v.InputFocused())
	assert.Equal(t, 1, v.Sources().Count())
	assert.Equal(t, status.StateAnswered, v.Status().State())
	assert.Equal(t, "Answered in 1.50s", v.Status().Message())

	view := v.View()
	assert.Contains(t, view, "Lead acid batteries.")
	assert.Contains(t, view, "Retrieval Time took: 1.50 seconds")
	assert.Contains(t, view, "msds.pdf #2")
}

func TestView_EmptyQuestionIgnored(t *testing.T) {
	v := newTestView(&mockIngestion{}, &mockAnswers{})

	v = typeText(v, "   ")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, v.Busy())
}

func TestView_AnswerError(t *testing.T) {
	answers := &mockAnswers{err: &domain.RetrievalError{
		Stage: domain.QueryStageSearch,
		Err:   domain.ErrNoRelevantDocuments,
	}}
	v := newTestView(&mockIngestion{}, answers)

	v, _ = v.Update(v.Ask("unrelated")())

	assert.Nil(t, v.Answer())
	assert.Equal(t, string(domain.ErrorKindNoRelevantDocs), v.Status().Message())
	assert.True(t, v.InputFocused())
}

func TestView_AnswerModeKeys(t *testing.T) {
	ingestion := &mockIngestion{report: &domain.IngestReport{}}
	v := newTestView(ingestion, &mockAnswers{answer: testAnswer()})
	v, _ = v.Update(v.Ask("acid")())
	require.False(t, v.InputFocused())

	t.Run("help", func(t *testing.T) {
		_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
		require.NotNil(t, cmd)
		assert.Equal(t, messages.ViewChanged{View: messages.ViewHelp}, cmd())
	})

	t.Run("reingest", func(t *testing.T) {
		_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
		require.NotNil(t, cmd)
		v, _ = v.Update(cmd())
		assert.Equal(t, 1, ingestion.calls)
	})

	t.Run("quit", func(t *testing.T) {
		_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		require.NotNil(t, cmd)
		assert.Equal(t, messages.Quit{}, cmd())
	})

	t.Run("new question", func(t *testing.T) {
		v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
		assert.True(t, v.InputFocused())
		assert.Empty(t, v.Query())
	})
}

func TestView_BusyIgnoresKeys(t *testing.T) {
	v := newTestView(&mockIngestion{}, &mockAnswers{})
	_ = v.Ingest()

	v = typeText(v, "acid")

	assert.Empty(t, v.Query())
}

func TestView_MissingServices(t *testing.T) {
	v := NewView(nil, nil, nil, nil)
	v.SetDimensions(80, 24)

	assert.Equal(t, messages.ErrorOccurred{Err: ErrNoIngestionService}, v.Ingest()())
	assert.Equal(t, messages.ErrorOccurred{Err: ErrNoAnswerService}, v.Ask("acid")())
}
