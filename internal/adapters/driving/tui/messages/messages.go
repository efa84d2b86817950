// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// IngestRequested is a command to rebuild the index from the documents directory.
type IngestRequested struct{}

// IngestCompleted carries the ingestion report back to the model.
type IngestCompleted struct {
	Report *domain.IngestReport
	Err    error
}

// QuestionAsked is a command to answer a question from the index.
type QuestionAsked struct {
	Query string
}

// AnswerCompleted carries a generated answer back to the model.
type AnswerCompleted struct {
	Answer *domain.Answer
	Err    error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewAsk is the question input, answer and sources view.
	ViewAsk ViewType = iota
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewAsk:
		return "ask"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
