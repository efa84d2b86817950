package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/app"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Opener builds the pipelines for one tool call.
type Opener interface {
	Open(ctx context.Context, variant string) (*app.Runtime, error)
}

// Ports aggregates what the MCP server needs.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Pipelines opens ingestion, answer and run pipelines per call.
	Pipelines Opener

	// Settings are the effective settings, exposed as a resource.
	Settings domain.Settings
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Pipelines == nil {
		return ErrMissingPipelines
	}
	return nil
}
