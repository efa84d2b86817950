// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// SourceList displays the passages an answer was grounded on.
type SourceList struct {
	hits     []domain.ScoredChunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation messages.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the sources, the selected one with its full passage.
func (l *SourceList) View() string {
	if len(l.hits) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.hits)+4)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.hits))), "")

	// One line per entry; header and the selected passage take the rest.
	visible := max(l.height-6, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.hits))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderHit(i))
	}

	if hit := l.SelectedHit(); hit != nil {
		lines = append(lines, "", l.styles.Normal.Render(wrap(hit.Chunk.Content, l.width-4)))
	}

	return strings.Join(lines, "\n")
}

func (l *SourceList) renderHit(i int) string {
	hit := l.hits[i]
	name := fmt.Sprintf("%s #%d", filepath.Base(hit.Chunk.Source), hit.Chunk.Position)
	score := fmt.Sprintf("%.3f", hit.Score)

	if i == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("> %s  %s", name, score))
	}
	return "  " + l.styles.Source.Render(name) + "  " + l.styles.Muted.Render(score)
}

// wrap breaks text into lines no wider than width runes.
func wrap(text string, width int) string {
	width = max(width, 20)
	var (
		b       strings.Builder
		lineLen int
	)
	for _, word := range strings.Fields(text) {
		n := len([]rune(word))
		if lineLen > 0 && lineLen+1+n > width {
			b.WriteByte('\n')
			lineLen = 0
		} else if lineLen > 0 {
			b.WriteByte(' ')
			lineLen++
		}
		b.WriteString(word)
		lineLen += n
	}
	return b.String()
}

// SetHits replaces the listed passages and selects the first.
func (l *SourceList) SetHits(hits []domain.ScoredChunk) {
	l.hits = hits
	l.selected = 0
}

// Hits returns the listed passages.
func (l *SourceList) Hits() []domain.ScoredChunk {
	return l.hits
}

// Selected returns the index of the selected passage.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedHit returns the selected passage, or nil if the list is empty.
func (l *SourceList) SelectedHit() *domain.ScoredChunk {
	if l.selected < 0 || l.selected >= len(l.hits) {
		return nil
	}
	return &l.hits[l.selected]
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.hits)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of passages.
func (l *SourceList) Count() int {
	return len(l.hits)
}
