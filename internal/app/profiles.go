package app

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// DefaultQuery is asked when a run is started without a query.
const DefaultQuery = "Give me detailed information about sulfuric acid based on the documents provided."

// DefaultVariant keeps the configured chunking.
const DefaultVariant = "default"

var variants = map[string]domain.ChunkSettings{
	"word":      {Size: 200, Overlap: 50, Unit: domain.SplitUnitWord},
	"sentence":  {Size: 5, Overlap: 0, Unit: domain.SplitUnitSentence},
	"character": {Size: 200, Overlap: 50, Unit: domain.SplitUnitCharacter},
}

// Variants returns the named chunking profiles, sorted, including
// DefaultVariant.
func Variants() []string {
	names := []string{DefaultVariant}
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Variant returns base with the chunking profile name applied. An empty
// name or DefaultVariant returns base unchanged.
func Variant(base domain.Settings, name string) (domain.Settings, error) {
	if name == "" || name == DefaultVariant {
		return base, nil
	}
	chunking, ok := variants[name]
	if !ok {
		return base, fmt.Errorf("%w: unknown variant %q (want one of %v)", domain.ErrInvalidInput, name, Variants())
	}
	base.Chunking = chunking
	return base, nil
}
