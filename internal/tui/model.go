// Package tui implements the interactive comment thread browser.
package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/touchline/internal/core/notify"
	"github.com/colonyops/touchline/internal/core/styles"
	"github.com/colonyops/touchline/internal/core/thread"
	"github.com/colonyops/touchline/internal/touchline"
	"github.com/colonyops/touchline/internal/tui/components"
	tuinotify "github.com/colonyops/touchline/internal/tui/notify"
	"github.com/colonyops/touchline/internal/tui/views/threadview"
)

// Options configures the TUI model.
type Options struct {
	Subjects    []thread.Subject
	InitialPage int
	PageSize    int
	Threads     threadview.Threads
	Session     threadview.Credentials
	Nav         threadview.Navigator
	Build       touchline.BuildInfo
	Warnings    []string // shown as toasts once the window is sized
	// TokenFile is watched so signing in or out takes effect without a restart.
	TokenFile string
}

// Model is the root Bubble Tea model. It hosts a single thread view and
// lets the user cycle between the configured subjects.
type Model struct {
	thread   threadview.View
	subjects []thread.Subject
	active   int

	notifyBus       *tuinotify.Bus
	toastController *ToastController
	toastView       *ToastView
	helpDialog      *components.HelpDialog
	startupWarnings []string

	session     threadview.Credentials
	credWatcher *CredentialWatcher
	canWrite    bool

	build    touchline.BuildInfo
	width    int
	height   int
	quitting bool
}

// New creates the root model. At least one subject is required.
func New(opts Options) (Model, error) {
	if len(opts.Subjects) == 0 {
		return Model{}, fmt.Errorf("no subject to show")
	}

	notifyBus := tuinotify.NewBus()
	toastCtrl := NewToastController()
	notifyBus.Subscribe(func(n notify.Notification) {
		toastCtrl.Push(n)
	})

	view := threadview.New(threadview.Deps{
		Threads: opts.Threads,
		Session: opts.Session,
		Nav:     opts.Nav,
		Notify:  notifyBus,
	}, opts.Subjects[0], opts.InitialPage, opts.PageSize)

	var watcher *CredentialWatcher
	if opts.TokenFile != "" {
		w, err := NewCredentialWatcher(opts.TokenFile)
		if err != nil {
			log.Warn().Err(err).Str("path", opts.TokenFile).Msg("not watching token file")
		} else {
			watcher = w
		}
	}

	return Model{
		thread:          view,
		session:         opts.Session,
		credWatcher:     watcher,
		canWrite:        opts.Session.CanWrite(),
		subjects:        opts.Subjects,
		notifyBus:       notifyBus,
		toastController: toastCtrl,
		toastView:       NewToastView(toastCtrl),
		startupWarnings: opts.Warnings,
		build:           opts.Build,
	}, nil
}

// Init starts the first page load and the token file watch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.thread.Init(), m.credWatcher.Wait())
}

// Close releases the token file watch.
func (m Model) Close() error {
	return m.credWatcher.Close()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	case toastTickMsg:
		return m.handleToastTick()
	case credentialChangedMsg:
		return m.handleCredentialChanged()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m.forward(msg)
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.thread.SetSize(msg.Width, max(msg.Height-headerHeight, 1))

	if len(m.startupWarnings) > 0 {
		for _, w := range m.startupWarnings {
			m.notifyBus.Warnf("%s", w)
		}
		m.startupWarnings = nil
		return m, m.ensureToastTick()
	}
	return m, nil
}

func (m Model) handleToastTick() (tea.Model, tea.Cmd) {
	m.toastController.Tick(toastTickInterval)
	if m.toastController.HasToasts() {
		return m, scheduleToastTick()
	}
	m.toastController.SetTicking(false)
	return m, nil
}

func (m Model) handleCredentialChanged() (tea.Model, tea.Cmd) {
	now := m.session.CanWrite()
	if now != m.canWrite {
		m.canWrite = now
		if now {
			m.notifyBus.Infof("Signed in. You can write comments.")
		} else {
			m.thread = m.thread.CloseComposer()
			m.notifyBus.Warnf("Signed out. Comments are read-only.")
		}
	}
	return m, tea.Batch(m.ensureToastTick(), m.credWatcher.Wait())
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m.quit()
	}

	if m.helpDialog != nil {
		switch key {
		case "esc", "?", "q":
			m.helpDialog = nil
		}
		return m, nil
	}

	if m.thread.HasEditorFocus() {
		return m.forward(msg)
	}

	switch key {
	case "q":
		return m.quit()
	case "?":
		m.helpDialog = components.NewHelpDialog("Keys", helpSections(len(m.subjects) > 1))
		return m, nil
	case "x":
		m.toastController.Dismiss()
		return m, nil
	case "tab":
		return m.switchSubject(1)
	case "shift+tab":
		return m.switchSubject(-1)
	}
	return m.forward(msg)
}

func (m Model) switchSubject(delta int) (tea.Model, tea.Cmd) {
	if len(m.subjects) < 2 {
		return m, nil
	}
	m.active = (m.active + delta + len(m.subjects)) % len(m.subjects)
	subject := m.subjects[m.active]
	log.Debug().Str("subject", subject.String()).Msg("switching subject")

	var cmd tea.Cmd
	m.thread, cmd = m.thread.SetSubject(subject)
	return m, cmd
}

// forward hands msg to the thread view and starts the toast timer if the
// view raised a notification.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.thread, cmd = m.thread.Update(msg)
	return m, tea.Batch(cmd, m.ensureToastTick())
}

// ensureToastTick returns a tick command when toasts are showing and no
// tick is already pending.
func (m *Model) ensureToastTick() tea.Cmd {
	if !m.toastController.HasToasts() || m.toastController.Ticking() {
		return nil
	}
	m.toastController.SetTicking(true)
	return scheduleToastTick()
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

func helpSections(multi bool) []components.HelpSection {
	app := []components.HelpEntry{
		{Key: "?", Desc: "toggle help"},
		{Key: "x", Desc: "dismiss notification"},
		{Key: "q", Desc: "quit"},
	}
	if multi {
		app = append([]components.HelpEntry{{Key: "tab", Desc: "next subject"}, {Key: "shift+tab", Desc: "previous subject"}}, app...)
	}
	return []components.HelpSection{
		{Title: "Thread", Entries: []components.HelpEntry{
			{Key: "j/k", Desc: "move between comments"},
			{Key: "h/l", Desc: "previous / next page"},
			{Key: "1-9", Desc: "jump to page"},
			{Key: "R", Desc: "reload page"},
			{Key: "enter", Desc: "preview comment"},
			{Key: "c", Desc: "new comment"},
			{Key: "r", Desc: "reply to comment"},
		}},
		{Title: "Composer", Entries: []components.HelpEntry{
			{Key: "ctrl+s", Desc: "post"},
			{Key: "ctrl+r", Desc: "reply to selected / close reply"},
			{Key: "esc", Desc: "cancel"},
		}},
		{Title: "App", Entries: app},
	}
}

const headerHeight = 2

func (m Model) renderHeader() string {
	title := styles.SubjectStyle.Render(styles.IconBall + " touchline")
	if m.build.Version != "" {
		title += " " + styles.PageInfoStyle.Render(m.build.Version)
	}

	tabs := ""
	if len(m.subjects) > 1 {
		for i, s := range m.subjects {
			if i == m.active {
				tabs += styles.TabActiveStyle.Render(s.Keyword)
			} else {
				tabs += styles.TabInactiveStyle.Render(s.Keyword)
			}
		}
	}

	line := lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", tabs)
	return line + "\n" + styles.DividerStyle.Render(strings.Repeat("─", max(m.width, 20)))
}

// View renders the TUI.
func (m Model) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) render() string {
	w, h := m.width, m.height
	if w == 0 {
		w = 80
	}
	if h == 0 {
		h = 24
	}

	content := lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.thread.View())
	content = m.thread.Overlay(content, w, h)
	if m.helpDialog != nil {
		content = m.helpDialog.Overlay(content, w, h)
	}
	if m.toastController.HasToasts() {
		content = m.toastView.Overlay(content, w, h)
	}
	return content
}
