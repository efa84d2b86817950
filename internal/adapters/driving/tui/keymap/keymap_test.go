package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()
	require.NotNil(t, km)

	tests := []struct {
		name    string
		keys    []string
		binding []string
	}{
		{"quit", []string{"q", "ctrl+c"}, km.Quit.Keys()},
		{"help", []string{"?"}, km.Help.Keys()},
		{"back", []string{"esc"}, km.Back.Keys()},
		{"ask", []string{"enter"}, km.Ask.Keys()},
		{"up", []string{"up", "k"}, km.Up.Keys()},
		{"down", []string{"down", "j"}, km.Down.Keys()},
		{"new question", []string{"n"}, km.NewQuestion.Keys()},
		{"reingest", []string{"r"}, km.Reingest.Keys()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keys, tt.binding)
		})
	}
}

func TestKeyMap_HelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 3)
	assert.Len(t, km.AnswerHelp(), 4)
	assert.Len(t, km.FullHelp(), 3)
	assert.Equal(t, "ask", km.Ask.Help().Desc)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("k", km.Up))
	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.False(t, Matches("x", km.Quit))
}
