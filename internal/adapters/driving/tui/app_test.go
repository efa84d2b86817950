package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type mockIngestion struct{}

func (mockIngestion) Ingest(context.Context, string) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, nil
}

type mockAnswers struct{}

func (mockAnswers) Answer(_ context.Context, query string) (*domain.Answer, error) {
	return &domain.Answer{Query: query, Text: "Lead acid batteries."}, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(NewPorts(mockIngestion{}, mockAnswers{}))
	require.NoError(t, err)
	return app
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{"missing ingestion", &Ports{Answers: mockAnswers{}}, ErrMissingIngestionService},
		{"missing answers", &Ports{Ingestion: mockIngestion{}}, ErrMissingAnswerService},
		{"complete", NewPorts(mockIngestion{}, mockAnswers{}), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewApp(t *testing.T) {
	_, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingIngestionService)

	app := newTestApp(t)
	assert.Equal(t, messages.ViewAsk, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app := newTestApp(t)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Nil(t, cmd)
	assert.Same(t, app, model)
	assert.True(t, app.Ready())
	assert.True(t, app.AskView().Ready())
	assert.Contains(t, app.View(), "sercha-kb")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t)
	app.SetDimensions(100, 30)

	_, _ = app.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	view := app.View()
	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "new question")
	assert.Contains(t, view, "re-ingest")

	_, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewAsk, app.CurrentView())
}

func TestApp_ForwardsAnswers(t *testing.T) {
	app := newTestApp(t)
	app.SetDimensions(100, 30)

	_, _ = app.Update(messages.AnswerCompleted{Answer: &domain.Answer{Text: "Lead acid batteries."}})

	require.NotNil(t, app.AskView().Answer())
	assert.Contains(t, app.View(), "Lead acid batteries.")
}
