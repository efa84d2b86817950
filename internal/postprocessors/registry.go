package postprocessors

import (
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// BuilderFunc creates a TextProcessor from the cleaning settings.
type BuilderFunc func(cfg domain.CleaningSettings) (driven.TextProcessor, error)

// Registry maps cleaning.processors names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a processor builder. Names are unique; registering one
// twice is an error.
func (r *Registry) Register(name string, builder BuilderFunc) error {
	if _, exists := r.builders[name]; exists {
		return fmt.Errorf("processor %q already registered", name)
	}
	r.builders[name] = builder
	return nil
}

// Build creates a single processor by name.
func (r *Registry) Build(name string, cfg domain.CleaningSettings) (driven.TextProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, r.unknown(name)
	}
	return builder(cfg)
}

// BuildAll creates the processors listed in cfg.Processors, in order.
// Unknown or repeated names return *domain.ConfigError for
// cleaning.processors.
func (r *Registry) BuildAll(cfg domain.CleaningSettings) ([]driven.TextProcessor, error) {
	processors := make([]driven.TextProcessor, 0, len(cfg.Processors))
	seen := make(map[string]bool, len(cfg.Processors))
	for _, name := range cfg.Processors {
		if seen[name] {
			return nil, domain.NewConfigError("cleaning.processors", "processor %q listed twice", name)
		}
		seen[name] = true

		processor, err := r.Build(name, cfg)
		if err != nil {
			return nil, err
		}
		processors = append(processors, processor)
	}
	return processors, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered processor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) unknown(name string) error {
	return domain.NewConfigError("cleaning.processors", "unknown processor %q (available: %s)",
		name, strings.Join(r.Names(), ", "))
}
