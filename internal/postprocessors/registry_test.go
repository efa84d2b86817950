package postprocessors

import (
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

func buildUpper(domain.CleaningSettings) (driven.TextProcessor, error) {
	return upperProcessor{}, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if len(r.builders) != 0 {
		t.Errorf("expected empty builders, got %d", len(r.builders))
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("upper", buildUpper); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Has("upper") {
		t.Error("expected registry to have 'upper' processor")
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("upper", buildUpper)

	if err := r.Register("upper", buildUpper); err == nil {
		t.Error("expected error registering 'upper' twice")
	}
}

func TestRegistry_Build_Unknown(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("upper", buildUpper)

	_, err := r.Build("nonexistent", domain.CleaningSettings{})

	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *domain.ConfigError, got %v", err)
	}
	if !strings.Contains(cfgErr.Reason, "available: upper") {
		t.Errorf("expected available processors in reason, got %q", cfgErr.Reason)
	}
}

func TestRegistry_BuildAll(t *testing.T) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = r.Register("upper", buildUpper)

	processors, err := r.BuildAll(domain.CleaningSettings{Processors: []string{"whitespace", "upper"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(processors) != 2 {
		t.Fatalf("expected 2 processors, got %d", len(processors))
	}
	if processors[0].Name() != "whitespace" || processors[1].Name() != "upper" {
		t.Errorf("unexpected order %s, %s", processors[0].Name(), processors[1].Name())
	}
}

func TestRegistry_BuildAll_Errors(t *testing.T) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name       string
		processors []string
	}{
		{name: "unknown name", processors: []string{"boilerplate", "stemmer"}},
		{name: "repeated name", processors: []string{"whitespace", "boilerplate", "whitespace"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.BuildAll(domain.CleaningSettings{Processors: tt.processors})

			var cfgErr *domain.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *domain.ConfigError, got %v", err)
			}
			if cfgErr.Field != "cleaning.processors" {
				t.Errorf("expected field cleaning.processors, got %q", cfgErr.Field)
			}
		})
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "boilerplate" || names[1] != "whitespace" {
		t.Errorf("unexpected default processors %v", names)
	}
	if err := RegisterDefaults(r); err == nil {
		t.Error("expected error registering defaults twice")
	}
}

func TestBuildBoilerplate_Config(t *testing.T) {
	r := NewRegistry()
	_ = RegisterDefaults(r)

	keep, err := r.Build("boilerplate", domain.CleaningSettings{DropPageNumbers: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := keep.ProcessText("a\n7\nb"); got != "a\n7\nb" {
		t.Errorf("expected page number kept, got %q", got)
	}

	drop, _ := r.Build("boilerplate", domain.CleaningSettings{DropPageNumbers: true})
	if got := drop.ProcessText("a\n7\nb"); got != "a\nb" {
		t.Errorf("expected page number dropped, got %q", got)
	}
}
