// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// View shows the question input, the latest answer with its sources, and
// a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	sources   *list.SourceList
	statusbar *status.Bar

	ingestion driving.IngestionService
	answers   driving.AnswerService
	ctx       context.Context

	width      int
	height     int
	ready      bool
	busy       bool
	err        error
	answer     *domain.Answer
	focusInput bool // true = typing a question, false = reading the answer
}

// NewView creates a new ask view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	ingestion driving.IngestionService,
	answers driving.AnswerService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		sources:    list.NewSourceList(s),
		statusbar:  status.NewBar(s, km),
		ingestion:  ingestion,
		answers:    answers,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for pipeline calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor and the initial ingestion.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.Ingest())
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.IngestCompleted:
		v.handleIngestCompleted(msg)
		return v, nil

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.busy = false
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.busy {
		return v, nil
	}

	if v.focusInput {
		switch msg.Type { //nolint:exhaustive // handling only relevant key types
		case tea.KeyEnter:
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			return v, v.Ask(query)
		case tea.KeyEsc:
			if v.answer != nil {
				v.focusInput = false
				v.input.Blur()
			}
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.NewQuestion):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case keymap.Matches(key, v.keymap.Reingest):
		return v, v.Ingest()
	case keymap.Matches(key, v.keymap.Help):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
	case keymap.Matches(key, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	}

	v.sources, _ = v.sources.Update(msg)
	return v, nil
}

// Ingest returns a command that rebuilds the index.
func (v *View) Ingest() tea.Cmd {
	v.busy = true
	v.err = nil
	v.statusbar.SetState(status.StateIngesting)

	ingestion, ctx := v.ingestion, v.ctx
	return func() tea.Msg {
		if ingestion == nil {
			return messages.ErrorOccurred{Err: ErrNoIngestionService}
		}
		report, err := ingestion.Ingest(ctx, "")
		return messages.IngestCompleted{Report: report, Err: err}
	}
}

// Ask returns a command that answers query.
func (v *View) Ask(query string) tea.Cmd {
	v.busy = true
	v.err = nil
	v.statusbar.SetState(status.StateAnswering)

	answers, ctx := v.answers, v.ctx
	return func() tea.Msg {
		if answers == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}
		answer, err := answers.Answer(ctx, query)
		return messages.AnswerCompleted{Answer: answer, Err: err}
	}
}

func (v *View) handleIngestCompleted(msg messages.IngestCompleted) {
	v.busy = false
	if msg.Report != nil {
		v.statusbar.SetIndexed(msg.Report.Indexed(), msg.Report.ChunksWritten)
	}
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	v.statusbar.Clear()
}

func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	v.busy = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.answer = msg.Answer
	v.sources.SetHits(msg.Answer.Hits)
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetMessage(fmt.Sprintf("Answered in %.2fs", msg.Answer.Timings.Retrieval.Seconds()))

	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(string(domain.Classify(err)))
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("sercha-kb"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.answer != nil {
		sections = append(sections,
			v.styles.Answer.Width(max(v.width-4, 20)).Render(v.answer.Text),
			v.styles.Timing.Render(fmt.Sprintf("%s took: %.2f seconds",
				domain.LabelRetrieval, v.answer.Timings.Retrieval.Seconds())),
			"",
			v.sources.View(),
		)
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.sources.SetDimensions(width, height/2)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Busy reports whether a pipeline call is in flight.
func (v *View) Busy() bool {
	return v.busy
}

// Query returns the question being typed.
func (v *View) Query() string {
	return v.input.Value()
}

// Answer returns the latest answer, or nil.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Sources returns the passages behind the latest answer.
func (v *View) Sources() *list.SourceList {
	return v.sources
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.statusbar
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the question input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
