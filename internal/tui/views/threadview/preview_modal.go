package threadview

import (
	"fmt"
	"regexp"
	"strings"

	"charm.land/bubbles/v2/viewport"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/touchline/internal/core/styles"
	"github.com/colonyops/touchline/internal/core/thread"
)

const (
	iconDot               = "•"
	previewModalMaxWidth  = 100
	previewModalMaxHeight = 30
	previewModalMargin    = 4
	previewModalChrome    = 8
	previewModalPadding   = 4
)

// PreviewModal shows one comment and its replies with markdown rendering.
type PreviewModal struct {
	comment  thread.Comment
	viewport viewport.Model
}

// NewPreviewModal creates a preview modal for c sized to the terminal.
func NewPreviewModal(c thread.Comment, width, height int) PreviewModal {
	modalWidth := min(width-previewModalMargin, previewModalMaxWidth)
	modalHeight := min(height-previewModalMargin, previewModalMaxHeight)
	contentHeight := max(modalHeight-previewModalChrome, 1)

	vp := viewport.New(
		viewport.WithWidth(max(modalWidth-previewModalPadding, 10)),
		viewport.WithHeight(contentHeight),
	)

	m := PreviewModal{
		comment:  c,
		viewport: vp,
	}
	m.renderContent(max(modalWidth-previewModalPadding, 10))
	return m
}

// previewMarkdown lays out the body followed by each reply as a quote.
func previewMarkdown(c thread.Comment) string {
	var b strings.Builder
	b.WriteString(c.Body)
	if len(c.Replies) == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "\n\n---\n\n**%d repl", len(c.Replies))
	if len(c.Replies) == 1 {
		b.WriteString("y**\n")
	} else {
		b.WriteString("ies**\n")
	}
	for _, r := range c.Replies {
		fmt.Fprintf(&b, "\n> **%s** %s %s\n>\n", r.Author, iconDot, r.CreatedAt)
		for line := range strings.SplitSeq(r.Body, "\n") {
			b.WriteString("> " + line + "\n")
		}
	}
	return b.String()
}

func (m *PreviewModal) renderContent(width int) {
	source := previewMarkdown(m.comment)

	style := styles.GlamourStyle()
	noMargin := uint(0)
	style.Document.Margin = &noMargin

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Debug().Err(err).Msg("failed to create markdown renderer, showing raw content")
		m.viewport.SetContent(source)
		return
	}

	rendered, err := renderer.Render(source)
	if err != nil {
		log.Debug().Err(err).Msg("failed to render markdown, showing raw content")
		m.viewport.SetContent(source)
		return
	}

	content := strings.TrimSpace(rendered)
	content = stripLeadingDecorative(content)
	content = stripTrailingDecorative(content)
	m.viewport.SetContent(content)
}

// UpdateViewport forwards a message to the viewport for scrolling.
func (m *PreviewModal) UpdateViewport(msg any) {
	m.viewport, _ = m.viewport.Update(msg)
}

func (m *PreviewModal) ScrollUp()   { m.viewport.ScrollUp(1) }
func (m *PreviewModal) ScrollDown() { m.viewport.ScrollDown(1) }

// Overlay renders the modal centered over background.
func (m PreviewModal) Overlay(background string, width, height int) string {
	modalWidth := min(width-previewModalMargin, previewModalMaxWidth)
	modalHeight := min(height-previewModalMargin, previewModalMaxHeight)

	author := lipgloss.NewStyle().Foreground(styles.ColorForString(m.comment.Author)).Bold(true).Render(m.comment.Author)
	metadata := fmt.Sprintf("%s %s %s", author, iconDot, styles.TimestampStyle.Render(m.comment.CreatedAt))
	if m.comment.UpdatedAt != "" && m.comment.UpdatedAt != m.comment.CreatedAt {
		metadata += styles.TimestampStyle.Render(" (edited " + m.comment.UpdatedAt + ")")
	}

	scrollInfo := ""
	if m.viewport.TotalLineCount() > m.viewport.VisibleLineCount() {
		scrollInfo = styles.PreviewScrollStyle.Render(fmt.Sprintf(" (%.0f%%)", m.viewport.ScrollPercent()*100))
	}

	modalContent := lipgloss.JoinVertical(
		lipgloss.Left,
		styles.ModalTitleStyle.Render(fmt.Sprintf("Comment #%d", m.comment.ID)+scrollInfo),
		"",
		metadata,
		styles.DividerStyle.Render(strings.Repeat("─", 40)),
		m.viewport.View(),
		styles.ModalHelpStyle.Render("[↑/↓/j/k] scroll  [enter/esc] close"),
	)

	modal := styles.ModalStyle.
		Width(modalWidth).
		Height(modalHeight).
		Render(modalContent)

	return overlayCentered(background, modal, width, height)
}

func overlayCentered(background, modal string, width, height int) string {
	bgLayer := lipgloss.NewLayer(background)
	modalLayer := lipgloss.NewLayer(modal)

	centerX := max((width-lipgloss.Width(modal))/2, 0)
	centerY := max((height-lipgloss.Height(modal))/2, 0)
	modalLayer.X(centerX).Y(centerY).Z(1)

	return lipgloss.NewCompositor(bgLayer, modalLayer).Render()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func isDecorativeLine(line string) bool {
	stripped := strings.TrimSpace(ansiPattern.ReplaceAllString(line, ""))
	if stripped == "" {
		return true
	}
	for _, r := range stripped {
		if r != '─' && r != '━' && r != '-' && r != '=' {
			return false
		}
	}
	return true
}

func stripLeadingDecorative(content string) string {
	lines := strings.Split(content, "\n")
	start := 0
	for start < len(lines) && isDecorativeLine(lines[start]) {
		start++
	}
	return strings.Join(lines[start:], "\n")
}

func stripTrailingDecorative(content string) string {
	lines := strings.Split(content, "\n")
	end := len(lines)
	for end > 0 && isDecorativeLine(lines[end-1]) {
		end--
	}
	return strings.Join(lines[:end], "\n")
}
