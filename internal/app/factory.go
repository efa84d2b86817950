package app

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Factory builds a Runtime per request. The memory backend gets a fresh
// index each time; durable backends are opened once and shared.
type Factory struct {
	base domain.Settings
	opts []Option

	mu     sync.Mutex
	shared driven.VectorIndex
}

// NewFactory creates a factory over base settings. opts apply to every
// Runtime it opens.
func NewFactory(base domain.Settings, opts ...Option) *Factory {
	return &Factory{base: base, opts: opts}
}

// Settings returns the base settings.
func (f *Factory) Settings() domain.Settings {
	return f.base
}

// Open builds a Runtime for the named variant.
func (f *Factory) Open(ctx context.Context, variant string) (*Runtime, error) {
	settings, err := Variant(f.base, variant)
	if err != nil {
		return nil, err
	}

	opts := append([]Option(nil), f.opts...)
	if settings.Index.Backend != domain.IndexBackendMemory && settings.Index.Backend != "" {
		idx, err := f.sharedIndex(ctx, settings.Index)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithVectorIndex(idx))
	}
	return Build(ctx, settings, opts...)
}

func (f *Factory) sharedIndex(ctx context.Context, settings domain.IndexSettings) (driven.VectorIndex, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.shared != nil {
		return f.shared, nil
	}
	idx, err := storage.OpenVectorIndex(ctx, settings)
	if err != nil {
		return nil, err
	}
	f.shared = idx
	return idx, nil
}

// Close closes the shared index, if one was opened.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.shared == nil {
		return nil
	}
	err := f.shared.Close()
	f.shared = nil
	return err
}
