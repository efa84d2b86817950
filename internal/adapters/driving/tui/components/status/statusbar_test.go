package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Bar)
		want  []string
	}{
		{"ready", func(*Bar) {}, []string{"Ready", "quit"}},
		{"ingesting", func(b *Bar) { b.SetState(StateIngesting) }, []string{"Ingesting documents"}},
		{"answering", func(b *Bar) { b.SetState(StateAnswering) }, []string{"Answering"}},
		{"error", func(b *Bar) { b.SetState(StateError) }, []string{"Error"}},
		{"error with message", func(b *Bar) {
			b.SetState(StateError)
			b.SetMessage("connection refused")
		}, []string{"Error: connection refused"}},
		{"help", func(b *Bar) { b.SetState(StateHelp) }, []string{"Help"}},
		{"indexed", func(b *Bar) { b.SetIndexed(2, 7) }, []string{"2 documents, 7 chunks"}},
		{"answered", func(b *Bar) {
			b.SetState(StateAnswered)
			b.SetMessage("Answered in 1.20s")
		}, []string{"Answered in 1.20s", "new question"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			tt.setup(bar)

			view := bar.View()
			for _, want := range tt.want {
				assert.Contains(t, view, want)
			}
		})
	}
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetIndexed(3, 9)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	docs, chunks := bar.Indexed()
	assert.Equal(t, 3, docs)
	assert.Equal(t, 9, chunks)
}

func TestState_Constants(t *testing.T) {
	assert.Equal(t, State("ready"), StateReady)
	assert.Equal(t, State("ingesting"), StateIngesting)
	assert.Equal(t, State("answering"), StateAnswering)
	assert.Equal(t, State("answered"), StateAnswered)
	assert.Equal(t, State("error"), StateError)
}
