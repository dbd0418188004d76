package tui

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/touchline/internal/core/notify"
	"github.com/colonyops/touchline/internal/core/styles"
)

// toastFooterGap keeps toasts clear of the thread view's help line.
const toastFooterGap = 2

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// ToastView draws the controller's toasts as a column anchored bottom right.
type ToastView struct {
	controller *ToastController
}

func NewToastView(controller *ToastController) *ToastView {
	return &ToastView{controller: controller}
}

// View renders oldest first. The newest toast, the one x dismisses, carries
// the key hint.
func (v *ToastView) View() string {
	toasts := v.controller.Toasts()
	if len(toasts) == 0 {
		return ""
	}

	var b strings.Builder
	for i, t := range toasts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderToast(t.notification, i == len(toasts)-1))
	}
	return b.String()
}

func toastLook(level notify.Level) (string, lipgloss.Style) {
	switch level {
	case notify.LevelError:
		return styles.IconNotifyError, styles.ToastErrorStyle
	case notify.LevelWarning:
		return styles.IconNotifyWarning, styles.ToastWarningStyle
	default:
		return styles.IconNotifyInfo, styles.ToastInfoStyle
	}
}

func renderToast(n notify.Notification, newest bool) string {
	icon, style := toastLook(n.Level)
	body := icon + " " + n.Message
	if newest {
		body += "\n" + styles.HelpStyle.Render("x dismiss")
	}
	return style.Width(toastWidth).Render(body)
}

// Overlay composites the toasts over background.
func (v *ToastView) Overlay(background string, width, height int) string {
	stack := v.View()
	if stack == "" {
		return background
	}

	x := max(width-lipgloss.Width(stack)-1, 0)
	y := max(height-lipgloss.Height(stack)-toastFooterGap, 0)

	return lipgloss.NewCompositor(
		lipgloss.NewLayer(background),
		lipgloss.NewLayer(stack).X(x).Y(y).Z(2),
	).Render()
}
