// Package styles provides shared lipgloss v2 styles for CLI and TUI components.
package styles

import (
	"image/color"

	lipgloss "charm.land/lipgloss/v2"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

var (
	ColorPrimary    color.Color
	ColorSecondary  color.Color
	ColorForeground color.Color
	ColorMuted      color.Color
	ColorBackground color.Color
	ColorSurface    color.Color
	ColorSuccess    color.Color
	ColorWarning    color.Color
	ColorError      color.Color
)

var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	DividerStyle       lipgloss.Style

	// Thread view.
	SubjectStyle       lipgloss.Style
	PageInfoStyle      lipgloss.Style
	AuthorStyle        lipgloss.Style
	TimestampStyle     lipgloss.Style
	BodyStyle          lipgloss.Style
	ReplyGutterStyle   lipgloss.Style
	SelectedGutter     lipgloss.Style
	AppendedBadgeStyle lipgloss.Style
	EmptyStateStyle    lipgloss.Style
	LoadErrorStyle     lipgloss.Style
	HelpStyle          lipgloss.Style

	PageCurrentStyle lipgloss.Style
	PageOtherStyle   lipgloss.Style

	ComposerStyle      lipgloss.Style
	ComposerTitleStyle lipgloss.Style

	// Modals.
	ModalStyle         lipgloss.Style
	ModalTitleStyle    lipgloss.Style
	ModalHelpStyle     lipgloss.Style
	AlertStyle         lipgloss.Style
	PreviewScrollStyle lipgloss.Style

	// Toasts and tabs.
	ToastInfoStyle    lipgloss.Style
	ToastWarningStyle lipgloss.Style
	ToastErrorStyle   lipgloss.Style
	TabActiveStyle    lipgloss.Style
	TabInactiveStyle  lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	ColorPrimary = p.Primary
	ColorSecondary = p.Secondary
	ColorForeground = p.Foreground
	ColorMuted = p.Muted
	ColorBackground = p.Background
	ColorSurface = p.Surface
	ColorSuccess = p.Success
	ColorWarning = p.Warning
	ColorError = p.Error

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	DividerStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)

	SubjectStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	PageInfoStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
	AuthorStyle = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)
	TimestampStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
	BodyStyle = lipgloss.NewStyle().
		Foreground(ColorForeground)
	ReplyGutterStyle = lipgloss.NewStyle().
		Foreground(ColorSurface)
	SelectedGutter = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	AppendedBadgeStyle = lipgloss.NewStyle().
		Foreground(ColorWarning).
		Italic(true)
	EmptyStateStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true)
	LoadErrorStyle = lipgloss.NewStyle().
		Foreground(ColorError)
	HelpStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)

	PageCurrentStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(ColorPrimary).
		Foreground(ColorBackground).
		Bold(true)
	PageOtherStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(ColorMuted)

	ComposerStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1)
	ComposerTitleStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2)
	ModalTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorForeground)
	ModalHelpStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		MarginTop(1)
	AlertStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(1, 2)
	PreviewScrollStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)

	toastBase := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Foreground(ColorForeground)
	ToastInfoStyle = toastBase.BorderForeground(ColorPrimary)
	ToastWarningStyle = toastBase.BorderForeground(ColorWarning)
	ToastErrorStyle = toastBase.BorderForeground(ColorError)

	TabActiveStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(ColorBackground).
		Background(ColorPrimary).
		Bold(true)
	TabInactiveStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(ColorMuted)
}

// ColorForString returns a deterministic color for s, used to tell authors
// apart.
func ColorForString(s string) color.Color {
	pool := []color.Color{ColorPrimary, ColorSecondary, ColorSuccess, ColorWarning}
	var hash uint32
	for _, c := range s {
		hash = hash*31 + uint32(c)
	}
	return pool[hash%uint32(len(pool))]
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
