package threadview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/colonyops/touchline/internal/core/logging"
	"github.com/colonyops/touchline/internal/core/styles"
	"github.com/colonyops/touchline/internal/core/thread"
)

const requestTimeout = 30 * time.Second

// Threads reads and writes comment threads.
type Threads interface {
	LoadPage(ctx context.Context, subject thread.Subject, page int) (thread.Page, error)
	SubmitComment(ctx context.Context, subject thread.Subject, draft, credential string) (thread.Comment, error)
	SubmitReply(ctx context.Context, subject thread.Subject, parentID int64, draft, credential string) (thread.Reply, error)
}

// Credentials exposes the current login.
type Credentials interface {
	CurrentCredential() (string, bool)
	CanWrite() bool
}

// Navigator remembers the last page viewed per subject.
type Navigator interface {
	SetPage(ctx context.Context, subject thread.Subject, page int) error
}

// Notifier shows transient notifications.
type Notifier interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// Deps are the services the view talks to. Nav and Notify may be nil.
type Deps struct {
	Threads Threads
	Session Credentials
	Nav     Navigator
	Notify  Notifier
}

type pageLoadedMsg struct {
	ticket LoadTicket
	page   thread.Page
	err    error
}

type submittedMsg struct {
	sub     Submission
	comment thread.Comment
	reply   thread.Reply
	err     error
}

// View is the Bubble Tea sub-model for one comment thread.
type View struct {
	ctrl    *Controller
	deps    Deps
	log     zerolog.Logger
	spinner spinner.Model
	editor  textarea.Model
	preview *PreviewModal
	alert   string
	jump    string
	width   int
	height  int
}

// New creates a thread view for subject opened on page.
func New(deps Deps, subject thread.Subject, page, pageSize int) View {
	s := spinner.New()
	s.Spinner = spinner.Dot

	ed := textarea.New()
	ed.Placeholder = "Write a comment…"
	ed.SetHeight(4)
	ed.SetWidth(60)

	return View{
		ctrl:    NewController(subject, page, pageSize),
		deps:    deps,
		log:     logging.Component("threadview"),
		spinner: s,
		editor:  ed,
	}
}

// Init loads the opening page.
func (v View) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.load(v.ctrl.Load()))
}

// Update handles messages for the thread view.
func (v View) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case pageLoadedMsg:
		return v.handlePageLoaded(msg)
	case submittedMsg:
		return v.handleSubmitted(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	if v.ctrl.Composer().Kind != ComposerClosed {
		var cmd tea.Cmd
		v.editor, cmd = v.editor.Update(msg)
		return v, cmd
	}
	return v, nil
}

// Subject returns the subject on screen.
func (v View) Subject() thread.Subject {
	return v.ctrl.Subject()
}

// SetSubject switches the view to another subject starting from page 1.
func (v View) SetSubject(subject thread.Subject) (View, tea.Cmd) {
	ticket := v.ctrl.SetSubject(subject)
	v.preview = nil
	v.jump = ""
	v.syncEditor()
	return v, v.load(ticket)
}

// HasEditorFocus reports whether the view is consuming all key input.
func (v View) HasEditorFocus() bool {
	return v.ctrl.Composer().Kind != ComposerClosed || v.preview != nil || v.alert != "" || v.jump != ""
}

// CloseComposer discards any open draft and releases editor focus.
func (v View) CloseComposer() View {
	v.ctrl.CloseComposer()
	v.syncEditor()
	return v
}

// SetSize updates the view dimensions.
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.editor.SetWidth(max(width-6, 10))
}

// Overlay renders the alert or preview modal over background.
func (v View) Overlay(background string, width, height int) string {
	if v.alert != "" {
		return v.renderAlert(background, width, height)
	}
	if v.preview != nil {
		return v.preview.Overlay(background, width, height)
	}
	return background
}

func (v View) load(t LoadTicket) tea.Cmd {
	threads := v.deps.Threads
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ctx = logging.WithSubject(ctx, t.Subject.String())

		page, err := threads.LoadPage(ctx, t.Subject, t.Page)
		return pageLoadedMsg{ticket: t, page: page, err: err}
	}
}

func (v View) savePage(subject thread.Subject, page int) tea.Cmd {
	nav := v.deps.Nav
	if nav == nil {
		return nil
	}
	logger := v.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := nav.SetPage(ctx, subject, page); err != nil {
			logger.Warn().Err(err).Str("subject", subject.String()).Msg("failed to remember page")
		}
		return nil
	}
}

func (v View) submit(sub Submission) tea.Cmd {
	threads := v.deps.Threads
	credential, _ := v.deps.Session.CurrentCredential()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ctx = logging.WithSubject(ctx, sub.Subject.String())

		if sub.Kind == ComposerReply {
			r, err := threads.SubmitReply(ctx, sub.Subject, sub.ParentID, sub.Body, credential)
			return submittedMsg{sub: sub, reply: r, err: err}
		}
		c, err := threads.SubmitComment(ctx, sub.Subject, sub.Body, credential)
		return submittedMsg{sub: sub, comment: c, err: err}
	}
}

func (v View) handlePageLoaded(msg pageLoadedMsg) (View, tea.Cmd) {
	if !v.ctrl.ApplyLoad(msg.ticket, msg.page, msg.err) {
		v.log.Debug().
			Uint64("seq", msg.ticket.Seq).
			Str("subject", msg.ticket.Subject.String()).
			Int("page", msg.ticket.Page).
			Msg("discarding stale page")
		return v, nil
	}
	v.syncEditor()

	if msg.err != nil {
		v.log.Warn().Err(msg.err).
			Str("subject", msg.ticket.Subject.String()).
			Int("page", msg.ticket.Page).
			Msg("failed to load comments")
		return v, nil
	}
	return v, v.savePage(msg.ticket.Subject, msg.ticket.Page)
}

func (v View) handleSubmitted(msg submittedMsg) (View, tea.Cmd) {
	if msg.err != nil {
		v.ctrl.ApplySubmitFailed(msg.sub)
		if errors.Is(msg.err, thread.ErrEmptyDraft) {
			return v, nil
		}
		v.log.Warn().Err(msg.err).Str("subject", msg.sub.Subject.String()).Msg("comment rejected")
		if msg.sub.Epoch == v.ctrl.epoch {
			v.alert = msg.err.Error()
		}
		return v, nil
	}

	var applied bool
	if msg.sub.Kind == ComposerReply {
		applied = v.ctrl.ApplyReplyCreated(msg.sub, msg.reply)
	} else {
		applied = v.ctrl.ApplyCommentCreated(msg.sub, msg.comment)
	}
	v.syncEditor()

	if !applied {
		v.log.Debug().
			Str("subject", msg.sub.Subject.String()).
			Int64("parent_id", msg.sub.ParentID).
			Msg("created entry no longer on screen")
		return v, nil
	}
	if v.deps.Notify != nil {
		if msg.sub.Kind == ComposerReply {
			v.deps.Notify.Infof("Reply posted")
		} else {
			v.deps.Notify.Infof("Comment posted")
		}
	}
	return v, nil
}

// syncEditor resets the text area whenever the composer closed underneath it.
func (v *View) syncEditor() {
	if v.ctrl.Composer().Kind == ComposerClosed {
		v.editor.Blur()
		v.editor.Reset()
	}
}

func (v View) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch {
	case v.alert != "":
		switch msg.String() {
		case "esc", "enter", "q":
			v.alert = ""
		}
		return v, nil
	case v.preview != nil:
		return v.handlePreviewKey(msg)
	case v.ctrl.Composer().Kind != ComposerClosed:
		return v.handleComposerKey(msg)
	case v.jump != "":
		return v.handleJumpKey(msg)
	}
	return v.handleNormalKey(msg)
}

func (v View) handlePreviewKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		v.preview = nil
	case "up", "k":
		v.preview.ScrollUp()
	case "down", "j":
		v.preview.ScrollDown()
	default:
		v.preview.UpdateViewport(msg)
	}
	return v, nil
}

func (v View) handleComposerKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.ctrl.CloseComposer()
		v.syncEditor()
		return v, nil
	case "ctrl+r":
		return v.toggleReply()
	case "ctrl+s":
		sub, err := v.ctrl.PrepareSubmit()
		if err != nil {
			// Blank drafts and double submits are silently ignored.
			return v, nil
		}
		return v, v.submit(sub)
	}

	var cmd tea.Cmd
	v.editor, cmd = v.editor.Update(msg)
	v.ctrl.SetDraft(v.editor.Value())
	return v, cmd
}

func (v View) handleJumpKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch key := msg.String(); key {
	case "esc":
		v.jump = ""
	case "backspace":
		v.jump = v.jump[:len(v.jump)-1]
	case "enter", "g":
		n, _ := strconv.Atoi(v.jump)
		v.jump = ""
		return v, v.load(v.ctrl.ChangePage(n))
	default:
		if len(key) == 1 && key[0] >= '0' && key[0] <= '9' && len(v.jump) < 6 {
			v.jump += key
		}
	}
	return v, nil
}

func (v View) handleNormalKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch key := msg.String(); key {
	case "up", "k":
		v.ctrl.MoveUp()
	case "down", "j":
		v.ctrl.MoveDown()
	case "right", "l", "n", "]":
		return v, v.load(v.ctrl.ChangePage(v.ctrl.Page() + 1))
	case "left", "h", "p", "[":
		if v.ctrl.Page() > 1 {
			return v, v.load(v.ctrl.ChangePage(v.ctrl.Page() - 1))
		}
	case "R":
		return v, v.load(v.ctrl.Load())
	case "enter":
		if sel, ok := v.ctrl.Selected(); ok {
			modal := NewPreviewModal(sel, v.width, v.height)
			v.preview = &modal
		}
	case "c":
		if !v.writeAllowed() {
			return v, nil
		}
		v.ctrl.OpenTopLevel()
		v.editor.Placeholder = "Write a comment…"
		return v, v.editor.Focus()
	case "r":
		return v.toggleReply()
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			v.jump = key
		}
	}
	return v, nil
}

// toggleReply opens a reply on the selected comment, or closes the reply
// composer already bound to it. A top-level draft is discarded.
func (v View) toggleReply() (View, tea.Cmd) {
	if !v.writeAllowed() {
		return v, nil
	}
	v.ctrl.ToggleReply(v.ctrl.Cursor())
	if v.ctrl.Composer().Kind == ComposerClosed {
		v.syncEditor()
		return v, nil
	}
	v.editor.Reset()
	v.editor.Placeholder = "Write a reply…"
	return v, v.editor.Focus()
}

func (v View) writeAllowed() bool {
	if v.deps.Session != nil && v.deps.Session.CanWrite() {
		return true
	}
	if v.deps.Notify != nil {
		v.deps.Notify.Warnf("Log in to write comments")
	}
	return false
}

func (v View) canWrite() bool {
	return v.deps.Session != nil && v.deps.Session.CanWrite()
}

// View renders the thread.
func (v View) View() string {
	width := max(v.width, 20)

	header := v.renderHeader()
	footer := v.renderFooter(width)

	listHeight := v.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if v.height == 0 {
		listHeight = -1
	}
	list := v.renderList(width, listHeight)

	return lipgloss.JoinVertical(lipgloss.Left, header, list, footer)
}

func (v View) renderHeader() string {
	subject := v.ctrl.Subject()
	line := styles.SubjectStyle.Render(subject.Keyword) + " " + styles.PageInfoStyle.Render(iconDot+" "+subject.Category)
	if v.ctrl.Loading() {
		line += " " + v.spinner.View()
	}
	if err := v.ctrl.LoadErr(); err != nil {
		line += "\n" + styles.LoadErrorStyle.Render("Failed to load comments: "+err.Error())
	}
	return line
}

// renderList lays out the comments and keeps the selected one in view.
// A negative height renders everything.
func (v View) renderList(width, height int) string {
	comments := v.ctrl.Comments()
	if len(comments) == 0 {
		msg := "No comments yet"
		if v.ctrl.Loading() {
			msg = "Loading comments…"
		}
		return padLines([]string{styles.EmptyStateStyle.Render("  " + msg)}, height)
	}

	composer := v.ctrl.Composer()
	var lines []string
	selStart, selEnd := 0, 0
	for i, c := range comments {
		if i > 0 {
			lines = append(lines, "")
		}
		start := len(lines)
		lines = append(lines, v.renderComment(i, c, width)...)
		if composer.IsReplyTo(i) && v.canWrite() {
			for _, l := range strings.Split(v.renderComposer(styles.IconReply+" Reply to "+c.Author, width-4), "\n") {
				lines = append(lines, "    "+l)
			}
		}
		if i == v.ctrl.Cursor() {
			selStart, selEnd = start, len(lines)
		}
	}

	if height < 0 || len(lines) <= height {
		return padLines(lines, height)
	}
	offset := 0
	if selEnd > height {
		offset = min(selStart, selEnd-height)
	}
	return padLines(lines[offset:min(offset+height, len(lines))], height)
}

func (v View) renderComment(i int, c thread.Comment, width int) []string {
	gutter := "  "
	if i == v.ctrl.Cursor() {
		gutter = styles.SelectedGutter.Render("┃ ")
	}

	author := lipgloss.NewStyle().Foreground(styles.ColorForString(c.Author)).Bold(true).Render(c.Author)
	head := gutter + author + " " + styles.TimestampStyle.Render(c.CreatedAt)
	if v.ctrl.IsAppended(i) {
		head += " " + styles.AppendedBadgeStyle.Render("added to last page")
	}

	lines := []string{head}
	for _, l := range wrap(c.Body, width-2) {
		lines = append(lines, gutter+styles.BodyStyle.Render(l))
	}

	bar := styles.ReplyGutterStyle.Render("│ ")
	for _, r := range c.Replies {
		replyAuthor := styles.AuthorStyle.Foreground(styles.ColorForString(r.Author)).Render(r.Author)
		lines = append(lines, gutter+"  "+bar+replyAuthor+" "+styles.TimestampStyle.Render(r.CreatedAt))
		for _, l := range wrap(r.Body, width-6) {
			lines = append(lines, gutter+"  "+bar+styles.BodyStyle.Render(l))
		}
	}
	return lines
}

func (v View) renderComposer(title string, width int) string {
	composer := v.ctrl.Composer()
	heading := styles.ComposerTitleStyle.Render(title)
	if composer.Submitting {
		heading += " " + v.spinner.View() + styles.PageInfoStyle.Render(" posting…")
	}
	help := "ctrl+s post • esc cancel"
	if composer.Kind == ComposerReply {
		help = "ctrl+s post • ctrl+r close • esc cancel"
	} else {
		help += " • ctrl+r reply to selected"
	}
	help = styles.HelpStyle.Render(help)
	return styles.ComposerStyle.
		Width(max(width, 20)).
		Render(lipgloss.JoinVertical(lipgloss.Left, heading, v.editor.View(), help))
}

func (v View) renderFooter(width int) string {
	var parts []string
	if v.ctrl.Composer().Kind == ComposerTopLevel && v.canWrite() {
		parts = append(parts, v.renderComposer(styles.IconComment+" New comment", width-2))
	}
	if p := renderPagination(v.ctrl.Page(), v.ctrl.PageCount()); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, styles.HelpStyle.Render(v.helpText()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (v View) helpText() string {
	if v.jump != "" {
		return "go to page " + v.jump + "▎ • enter go • esc cancel"
	}
	help := "↑/↓ navigate • ←/→ page • 1-9 jump • enter preview • R reload"
	if v.canWrite() {
		help += " • c comment • r reply"
	}
	return help
}

// renderPagination lists page numbers around the current page. Nothing is
// shown when the thread has no pages.
func renderPagination(current, count int) string {
	if count <= 0 {
		return ""
	}
	const span = 3

	var b strings.Builder
	b.WriteString(" ")
	lo := max(1, current-span)
	hi := min(count, current+span)
	if lo > 1 {
		b.WriteString(styles.PageOtherStyle.Render("1"))
		if lo > 2 {
			b.WriteString(styles.PageOtherStyle.Render("…"))
		}
	}
	for n := lo; n <= hi; n++ {
		if n == current {
			b.WriteString(styles.PageCurrentStyle.Render(strconv.Itoa(n)))
		} else {
			b.WriteString(styles.PageOtherStyle.Render(strconv.Itoa(n)))
		}
	}
	if hi < count {
		if hi < count-1 {
			b.WriteString(styles.PageOtherStyle.Render("…"))
		}
		b.WriteString(styles.PageOtherStyle.Render(strconv.Itoa(count)))
	}
	if current > count {
		b.WriteString(styles.PageInfoStyle.Render(fmt.Sprintf("  page %d of %d", current, count)))
	}
	return b.String()
}

func (v View) renderAlert(background string, width, height int) string {
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		styles.ModalTitleStyle.Render("Comment not posted"),
		"",
		lipgloss.NewStyle().Width(min(60, max(width-10, 20))).Render(v.alert),
		styles.ModalHelpStyle.Render("[enter/esc] dismiss"),
	)
	return overlayCentered(background, styles.AlertStyle.Render(content), width, height)
}

func wrap(s string, width int) []string {
	if width < 10 {
		width = 10
	}
	return strings.Split(lipgloss.NewStyle().Width(width).Render(s), "\n")
}

func padLines(lines []string, height int) string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
