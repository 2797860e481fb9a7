package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func TestDefaultKeyMap(t *testing.T) {
	keys := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		press   tea.KeyMsg
	}{
		{"Refresh", keys.Refresh, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}},
		{"Mode", keys.Mode, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}}},
		{"Theme", keys.Theme, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}}},
		{"Help", keys.Help, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}}},
		{"Quit", keys.Quit, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}},
		{"Quit ctrl+c", keys.Quit, tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.binding.Keys()) == 0 {
				t.Errorf("%s binding has no keys", tt.name)
			}
			if tt.binding.Help().Desc == "" {
				t.Errorf("%s binding has no help text", tt.name)
			}
			if !key.Matches(tt.press, tt.binding) {
				t.Errorf("%s binding does not match %q", tt.name, tt.press.String())
			}
		})
	}
}

func TestKeyMap_Help(t *testing.T) {
	keys := DefaultKeyMap()

	if len(keys.ShortHelp()) != 4 {
		t.Errorf("expected 4 short help bindings, got %d", len(keys.ShortHelp()))
	}
	total := 0
	for _, col := range keys.FullHelp() {
		total += len(col)
	}
	if total != 5 {
		t.Errorf("expected 5 bindings in full help, got %d", total)
	}
}
