package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuestionInput(t *testing.T) {
	q := NewQuestionInput(nil)

	require.NotNil(t, q)
	assert.True(t, q.Focused())
	assert.Empty(t, q.Value())
	assert.NotNil(t, q.Init())
}

func TestQuestionInput_Typing(t *testing.T) {
	q := NewQuestionInput(nil)

	q, _ = q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("acid?")})

	assert.Equal(t, "acid?", q.Value())
	assert.Contains(t, q.View(), "Ask:")
}

func TestQuestionInput_FocusBlur(t *testing.T) {
	q := NewQuestionInput(nil)

	q.Blur()
	assert.False(t, q.Focused())

	q.Focus()
	assert.True(t, q.Focused())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetWidth(100)
	assert.Equal(t, 100, q.Width())
	assert.Equal(t, 90, q.textinput.Width)

	q.SetWidth(15)
	assert.Equal(t, 20, q.textinput.Width)
}

func TestQuestionInput_SetValue(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetValue("What is sulfuric acid?")
	assert.Equal(t, "What is sulfuric acid?", q.Value())
}
