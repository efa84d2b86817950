package postprocessors

import (
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-kb/internal/postprocessors/cleaner"
)

// RegisterDefaults registers all built-in text processors with the registry.
func RegisterDefaults(r *Registry) error {
	if err := r.Register("boilerplate", buildBoilerplate); err != nil {
		return err
	}
	return r.Register("whitespace", func(domain.CleaningSettings) (driven.TextProcessor, error) {
		return cleaner.NewWhitespace(), nil
	})
}

// NewDefaultPipeline builds the configured cleaning processors and a
// chunker. Invalid settings return *domain.ConfigError.
func NewDefaultPipeline(chunking domain.ChunkSettings, cleaning domain.CleaningSettings) (*Pipeline, error) {
	c, err := chunker.NewFromSettings(chunking)
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		return nil, err
	}
	processors, err := r.BuildAll(cleaning)
	if err != nil {
		return nil, err
	}

	pipeline := NewPipeline(c)
	for _, processor := range processors {
		pipeline.Add(processor)
	}
	return pipeline, nil
}

// buildBoilerplate creates a boilerplate stripper honouring
// cleaning.drop_page_numbers.
func buildBoilerplate(cfg domain.CleaningSettings) (driven.TextProcessor, error) {
	return cleaner.NewBoilerplate(cleaner.WithPageNumbers(cfg.DropPageNumbers)), nil
}
