package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestVariant(t *testing.T) {
	base := domain.DefaultSettings()

	tests := []struct {
		name string
		want domain.ChunkSettings
	}{
		{"", base.Chunking},
		{DefaultVariant, base.Chunking},
		{"word", domain.ChunkSettings{Size: 200, Overlap: 50, Unit: domain.SplitUnitWord}},
		{"sentence", domain.ChunkSettings{Size: 5, Overlap: 0, Unit: domain.SplitUnitSentence}},
		{"character", domain.ChunkSettings{Size: 200, Overlap: 50, Unit: domain.SplitUnitCharacter}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Variant(base, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Chunking)
			assert.NoError(t, got.Chunking.Validate())
			assert.Equal(t, base.Embedding, got.Embedding)
		})
	}
}

func TestVariant_Unknown(t *testing.T) {
	_, err := Variant(domain.DefaultSettings(), "paragraph")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "paragraph")
}

func TestVariants(t *testing.T) {
	assert.Equal(t, []string{"character", "default", "sentence", "word"}, Variants())
}
