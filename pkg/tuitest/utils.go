// Package tuitest provides testing utilities for TUI components.
package tuitest

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes ANSI escape codes and trailing whitespace so rendered
// views can be compared as plain text.
func StripANSI(s string) string {
	s = ansi.Strip(s)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// KeyPress creates a key press message for a single printable rune.
func KeyPress(key rune) tea.Msg {
	return tea.KeyPressMsg(tea.Key{Code: key, Text: string(key)})
}

// KeyCtrl creates a ctrl+<key> press message.
func KeyCtrl(key rune) tea.Msg {
	return tea.KeyPressMsg(tea.Key{Code: key, Mod: tea.ModCtrl})
}

// Type returns one key press per rune of s, for feeding text inputs.
func Type(s string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(s))
	for _, r := range s {
		msgs = append(msgs, KeyPress(r))
	}
	return msgs
}

func KeyDown() tea.Msg  { return tea.KeyPressMsg(tea.Key{Code: tea.KeyDown}) }
func KeyUp() tea.Msg    { return tea.KeyPressMsg(tea.Key{Code: tea.KeyUp}) }
func KeyEnter() tea.Msg { return tea.KeyPressMsg(tea.Key{Code: tea.KeyEnter}) }
func KeyEsc() tea.Msg   { return tea.KeyPressMsg(tea.Key{Code: tea.KeyEscape}) }
func KeyTab() tea.Msg   { return tea.KeyPressMsg(tea.Key{Code: tea.KeyTab}) }

// WindowSize creates a window size message.
func WindowSize(w, h int) tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: w, Height: h}
}
