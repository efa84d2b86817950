// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
)

// State represents the current pipeline state for display.
type State string

const (
	StateReady     State = "ready"
	StateIngesting State = "ingesting"
	StateAnswering State = "answering"
	StateAnswered  State = "answered"
	StateError     State = "error"
	StateHelp      State = "help"
)

// Bar displays pipeline status and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	indexed int
	chunks  int
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := max(b.width-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateIngesting:
		return b.styles.Muted.Render("Ingesting documents...")
	case StateAnswering:
		return b.styles.Muted.Render("Answering...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render("Error: " + b.message)
		}
		return b.styles.Error.Render("Error")
	case StateHelp:
		return b.styles.Normal.Render("Help")
	case StateAnswered:
		if b.message != "" {
			return b.styles.Success.Render(b.message)
		}
	case StateReady:
	}

	if b.indexed > 0 {
		return b.styles.Normal.Render(fmt.Sprintf("%d documents, %d chunks", b.indexed, b.chunks))
	}
	return b.styles.Muted.Render("Ready")
}

func (b *Bar) renderRight() string {
	var bindings []key.Binding
	if b.state == StateAnswered {
		bindings = b.keymap.AnswerHelp()
	} else {
		bindings = b.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the message shown for the error and answered states.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetIndexed records the size of the index after ingestion.
func (b *Bar) SetIndexed(documents, chunks int) {
	b.indexed = documents
	b.chunks = chunks
}

// Indexed returns the recorded document and chunk counts.
func (b *Bar) Indexed() (documents, chunks int) {
	return b.indexed, b.chunks
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Width returns the current width.
func (b *Bar) Width() int {
	return b.width
}

// Clear resets the state and message, keeping the index counts.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
}
