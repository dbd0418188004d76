// Package components provides reusable TUI components.
package components

import (
	"strings"

	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/touchline/internal/core/styles"
)

// HelpEntry is one key binding.
type HelpEntry struct {
	Key  string
	Desc string
}

// HelpSection groups related bindings under a title.
type HelpSection struct {
	Title   string
	Entries []HelpEntry
}

// HelpDialog lists key bindings in a centered modal.
type HelpDialog struct {
	title    string
	sections []HelpSection
}

func NewHelpDialog(title string, sections []HelpSection) *HelpDialog {
	return &HelpDialog{title: title, sections: sections}
}

// View renders the dialog box.
func (h *HelpDialog) View() string {
	var lines []string
	for i, section := range h.sections {
		if section.Title != "" {
			if i > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, styles.ComposerTitleStyle.Render(section.Title))
			lines = append(lines, styles.DividerStyle.Render(strings.Repeat("─", 28)))
		}
		for _, entry := range section.Entries {
			lines = append(lines, formatKeyDesc(entry.Key, entry.Desc))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render(h.title),
		"",
		strings.Join(lines, "\n"),
		styles.ModalHelpStyle.Render("esc/? close"),
	)
	return styles.ModalStyle.Render(content)
}

// Overlay renders the dialog centered over background.
func (h *HelpDialog) Overlay(background string, width, height int) string {
	modal := h.View()

	bgLayer := lipgloss.NewLayer(background)
	modalLayer := lipgloss.NewLayer(modal)
	modalLayer.
		X(max((width-lipgloss.Width(modal))/2, 0)).
		Y(max((height-lipgloss.Height(modal))/2, 0)).
		Z(1)

	return lipgloss.NewCompositor(bgLayer, modalLayer).Render()
}

func formatKeyDesc(key, desc string) string {
	const keyWidth = 12
	padded := key + strings.Repeat(" ", max(keyWidth-lipgloss.Width(key), 1))
	return styles.SubjectStyle.Render(padded) + styles.BodyStyle.Render(desc)
}
