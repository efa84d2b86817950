// Package tui provides an interactive terminal user interface for sercha-kb.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI needs.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ingestion rebuilds the index from the documents directory.
	Ingestion driving.IngestionService

	// Answers answers questions from the index.
	Answers driving.AnswerService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(ingestion driving.IngestionService, answers driving.AnswerService) *Ports {
	return &Ports{
		Ingestion: ingestion,
		Answers:   answers,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingestion == nil {
		return ErrMissingIngestionService
	}
	if p.Answers == nil {
		return ErrMissingAnswerService
	}
	return nil
}
