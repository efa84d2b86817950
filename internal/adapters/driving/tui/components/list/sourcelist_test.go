package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func testHits() []domain.ScoredChunk {
	return []domain.ScoredChunk{
		{Chunk: domain.Chunk{Source: "/docs/msds.pdf", Position: 0, Content: "Sulfuric acid is corrosive."}, Score: 0.91},
		{Chunk: domain.Chunk{Source: "/docs/msds.pdf", Position: 3, Content: "Used in lead acid batteries."}, Score: 0.84},
		{Chunk: domain.Chunk{Source: "/docs/storage.md", Position: 1, Content: "Keep containers closed."}, Score: 0.52},
	}
}

func TestSourceList_Empty(t *testing.T) {
	l := NewSourceList(nil)

	assert.Equal(t, 0, l.Count())
	assert.Nil(t, l.SelectedHit())
	assert.Contains(t, l.View(), "No sources")
}

func TestSourceList_Navigation(t *testing.T) {
	l := NewSourceList(nil)
	l.SetHits(testHits())

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	l.MoveDown()
	assert.Equal(t, 2, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	require.NotNil(t, l.SelectedHit())
	assert.Equal(t, 3, l.SelectedHit().Chunk.Position)
}

func TestSourceList_View(t *testing.T) {
	l := NewSourceList(nil)
	l.SetHits(testHits())

	view := l.View()

	assert.Contains(t, view, "Sources (3)")
	assert.Contains(t, view, "msds.pdf #0")
	assert.Contains(t, view, "storage.md #1")
	assert.Contains(t, view, "0.910")
	assert.Contains(t, view, "Sulfuric acid is corrosive.")
}

func TestSourceList_ViewScrollsToSelection(t *testing.T) {
	l := NewSourceList(nil)
	l.SetDimensions(80, 7)
	l.SetHits(testHits())

	view := l.View()
	assert.Contains(t, view, "msds.pdf #0")
	assert.NotContains(t, view, "storage.md #1")

	l.MoveDown()
	l.MoveDown()

	view = l.View()
	assert.Contains(t, view, "storage.md #1")
	assert.NotContains(t, view, "msds.pdf #0")
}

func TestSourceList_SetHitsResetsSelection(t *testing.T) {
	l := NewSourceList(nil)
	l.SetHits(testHits())
	l.MoveDown()

	l.SetHits(testHits()[:1])

	assert.Equal(t, 0, l.Selected())
}

func TestWrap(t *testing.T) {
	text := strings.Repeat("acid ", 12)

	for _, line := range strings.Split(wrap(text, 20), "\n") {
		assert.LessOrEqual(t, len(line), 20)
	}
	assert.Equal(t, "one two", wrap("one   two", 40))
}
