package threadview

import (
	"context"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/touchline/internal/core/thread"
	"github.com/colonyops/touchline/pkg/tuitest"
)

type fakeThreads struct {
	mu      sync.Mutex
	pages   map[int]thread.Page
	loadErr error
	postErr error
	posts   []string
	creds   []string
}

func (f *fakeThreads) LoadPage(_ context.Context, _ thread.Subject, page int) (thread.Page, error) {
	if f.loadErr != nil {
		return thread.Page{}, f.loadErr
	}
	p := f.pages[page]
	p.Number = page
	return p, nil
}

func (f *fakeThreads) SubmitComment(_ context.Context, _ thread.Subject, draft, credential string) (thread.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, draft)
	f.creds = append(f.creds, credential)
	if f.postErr != nil {
		return thread.Comment{}, f.postErr
	}
	return thread.Comment{ID: 99, Author: "bob", Body: draft, CreatedAt: "2026-10-19 12:00"}, nil
}

func (f *fakeThreads) SubmitReply(_ context.Context, _ thread.Subject, _ int64, draft, credential string) (thread.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, draft)
	f.creds = append(f.creds, credential)
	if f.postErr != nil {
		return thread.Reply{}, f.postErr
	}
	return thread.Reply{Author: "bob", Body: draft, CreatedAt: "2026-10-19 12:00"}, nil
}

type fakeSession struct {
	token string
	write bool
}

func (s fakeSession) CurrentCredential() (string, bool) { return s.token, s.token != "" }
func (s fakeSession) CanWrite() bool                    { return s.write }

type fakeNav struct {
	saved map[string]int
}

func (n *fakeNav) SetPage(_ context.Context, subject thread.Subject, page int) error {
	n.saved[subject.String()] = page
	return nil
}

type fakeNotifier struct {
	infos []string
	warns []string
}

func (n *fakeNotifier) Infof(format string, _ ...any) { n.infos = append(n.infos, format) }
func (n *fakeNotifier) Warnf(format string, _ ...any) { n.warns = append(n.warns, format) }

type harness struct {
	threads *fakeThreads
	nav     *fakeNav
	notify  *fakeNotifier
	view    View
}

func newHarness(t *testing.T, write bool, pages map[int]thread.Page) *harness {
	t.Helper()
	h := &harness{
		threads: &fakeThreads{pages: pages},
		nav:     &fakeNav{saved: map[string]int{}},
		notify:  &fakeNotifier{},
	}
	token := ""
	if write {
		token = "tok"
	}
	h.view = New(Deps{
		Threads: h.threads,
		Session: fakeSession{token: token, write: write},
		Nav:     h.nav,
		Notify:  h.notify,
	}, son, 1, 10)
	h.view.SetSize(80, 40)
	return h
}

// send feeds msg to the view and returns the command it produced.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	h.view, cmd = h.view.Update(msg)
	return cmd
}

// run executes cmd and feeds its result back into the view.
func (h *harness) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	if msg := cmd(); msg != nil {
		h.send(msg)
	}
}

func (h *harness) open(t *testing.T) {
	t.Helper()
	h.run(t, h.view.load(h.view.ctrl.Load()))
}

func (h *harness) rendered() string {
	return tuitest.StripANSI(h.view.View())
}

func onePage(comments ...thread.Comment) map[int]thread.Page {
	return map[int]thread.Page{1: {Count: 1, Comments: comments}}
}

func TestView_EmptyThread(t *testing.T) {
	h := newHarness(t, false, map[int]thread.Page{1: {Count: 0}})
	h.open(t)

	out := h.rendered()
	assert.Contains(t, out, "No comments yet")
	assert.Contains(t, out, "Heung-Min Son")
	assert.NotContains(t, out, " 1 ", "no pagination for an empty thread")
}

func TestView_RendersThread(t *testing.T) {
	h := newHarness(t, true, map[int]thread.Page{1: {Count: 3, Comments: []thread.Comment{
		{ID: 1, Author: "ann", Body: "great goal", CreatedAt: "2026-10-18 20:15", Replies: []thread.Reply{
			{Author: "cy", Body: "agreed", CreatedAt: "2026-10-18 20:20"},
		}},
	}}})
	h.open(t)

	out := h.rendered()
	assert.Contains(t, out, "ann")
	assert.Contains(t, out, "great goal")
	assert.Contains(t, out, "2026-10-18 20:15")
	assert.Contains(t, out, "agreed")
	assert.Contains(t, out, "1")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "c comment")
}

func TestView_RemembersPage(t *testing.T) {
	h := newHarness(t, false, map[int]thread.Page{1: {Count: 2}, 2: {Count: 2}})
	h.open(t)

	h.run(t, h.send(tuitest.KeyPress('l')))
	assert.Equal(t, 2, h.view.ctrl.Page())

	// The save command runs after the load lands.
	cmd := h.view.savePage(son, 2)
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 2, h.nav.saved[son.String()])
}

func TestView_StaleLoadDiscarded(t *testing.T) {
	h := newHarness(t, false, map[int]thread.Page{
		2: {Count: 3, Comments: []thread.Comment{{ID: 20, Author: "ann", Body: "page two"}}},
		3: {Count: 3, Comments: []thread.Comment{{ID: 30, Author: "ann", Body: "page three"}}},
	})

	toTwo := h.send(tuitest.KeyPress('l'))
	toThree := h.send(tuitest.KeyPress('l'))
	require.NotNil(t, toTwo)
	require.NotNil(t, toThree)

	h.send(toThree())
	h.send(toTwo())

	out := h.rendered()
	assert.Contains(t, out, "page three")
	assert.NotContains(t, out, "page two")
}

func TestView_LoadErrorInline(t *testing.T) {
	h := newHarness(t, false, nil)
	h.threads.loadErr = &thread.LoadError{Message: "comment api returned status 502"}
	h.open(t)

	out := h.rendered()
	assert.Contains(t, out, "Failed to load comments: comment api returned status 502")
	assert.Empty(t, h.nav.saved, "failed loads are not remembered")
}

func TestView_LoggedOutHidesComposer(t *testing.T) {
	h := newHarness(t, false, onePage(comment(1, "hello")))
	h.open(t)

	assert.Nil(t, h.send(tuitest.KeyPress('c')))
	assert.Equal(t, ComposerClosed, h.view.ctrl.Composer().Kind)
	h.send(tuitest.KeyPress('r'))
	assert.Equal(t, ComposerClosed, h.view.ctrl.Composer().Kind)

	assert.Len(t, h.notify.warns, 2)
	assert.NotContains(t, h.rendered(), "c comment")
}

func TestView_PostComment(t *testing.T) {
	h := newHarness(t, true, map[int]thread.Page{1: {Count: 1, Comments: []thread.Comment{comment(1, "first")}}})
	h.open(t)

	h.send(tuitest.KeyPress('c'))
	require.True(t, h.view.HasEditorFocus())
	for _, msg := range tuitest.Type("nice") {
		h.send(msg)
	}
	assert.Equal(t, "nice", h.view.ctrl.Composer().Text)

	h.run(t, h.send(tuitest.KeyCtrl('s')))

	comments := h.view.ctrl.Comments()
	require.Len(t, comments, 2)
	assert.Equal(t, "nice", comments[1].Body)
	assert.Equal(t, "bob", comments[1].Author)
	assert.Equal(t, []string{"tok"}, h.threads.creds)
	assert.Equal(t, ComposerClosed, h.view.ctrl.Composer().Kind)
	assert.False(t, h.view.HasEditorFocus())
	assert.Equal(t, []string{"Comment posted"}, h.notify.infos)
}

func TestView_PostReply(t *testing.T) {
	h := newHarness(t, true, onePage(comment(1, "first"), comment(2, "second")))
	h.open(t)

	h.send(tuitest.KeyDown())
	h.send(tuitest.KeyPress('r'))
	require.True(t, h.view.ctrl.Composer().IsReplyTo(1))
	assert.Contains(t, h.rendered(), "Reply to ann")

	for _, msg := range tuitest.Type("nice") {
		h.send(msg)
	}
	h.run(t, h.send(tuitest.KeyCtrl('s')))

	replies := h.view.ctrl.Comments()[1].Replies
	require.Len(t, replies, 1)
	assert.Equal(t, "bob", replies[0].Author)
	assert.Equal(t, "nice", replies[0].Body)
	assert.Contains(t, h.rendered(), "nice")
}

func TestView_EmptyDraftSendsNothing(t *testing.T) {
	h := newHarness(t, true, onePage())
	h.open(t)

	h.send(tuitest.KeyPress('c'))
	for _, msg := range tuitest.Type("   ") {
		h.send(msg)
	}
	assert.Nil(t, h.send(tuitest.KeyCtrl('s')))
	assert.Empty(t, h.threads.posts)
	assert.Equal(t, ComposerTopLevel, h.view.ctrl.Composer().Kind)
}

func TestView_RejectionShowsAlert(t *testing.T) {
	h := newHarness(t, true, onePage(comment(1, "first")))
	h.open(t)
	h.threads.postErr = &thread.RejectedError{StatusCode: 401, Body: "login required"}

	h.send(tuitest.KeyPress('c'))
	for _, msg := range tuitest.Type("hey") {
		h.send(msg)
	}
	h.run(t, h.send(tuitest.KeyCtrl('s')))

	assert.Equal(t, "login required", h.view.alert)
	overlay := tuitest.StripANSI(h.view.Overlay(h.view.View(), 80, 40))
	assert.Contains(t, overlay, "login required")

	assert.Len(t, h.view.ctrl.Comments(), 1, "store untouched")
	assert.Equal(t, "hey", h.view.ctrl.Composer().Text, "draft kept")

	h.send(tuitest.KeyEnter())
	assert.Empty(t, h.view.alert)
	assert.Equal(t, ComposerTopLevel, h.view.ctrl.Composer().Kind)
}

func TestView_EscClosesComposer(t *testing.T) {
	h := newHarness(t, true, onePage(comment(1, "first")))
	h.open(t)

	h.send(tuitest.KeyPress('r'))
	h.send(tuitest.KeyPress('x'))
	h.send(tuitest.KeyEsc())

	assert.Equal(t, ComposerClosed, h.view.ctrl.Composer().Kind)
	assert.Empty(t, h.view.editor.Value())
}

func TestView_CtrlRTogglesReplyWhileComposing(t *testing.T) {
	h := newHarness(t, true, onePage(comment(1, "first"), comment(2, "second")))
	h.open(t)

	h.send(tuitest.KeyDown())
	h.send(tuitest.KeyPress('c'))
	h.send(tuitest.KeyPress('r'))
	require.Equal(t, ComposerTopLevel, h.view.ctrl.Composer().Kind)
	assert.Equal(t, "r", h.view.editor.Value(), "plain r is text inside the composer")

	h.send(tuitest.KeyCtrl('r'))
	require.True(t, h.view.ctrl.Composer().IsReplyTo(1), "top-level draft switches to a reply")
	assert.Empty(t, h.view.editor.Value())
	assert.True(t, h.view.HasEditorFocus())

	h.send(tuitest.KeyCtrl('r'))
	assert.Equal(t, ComposerClosed, h.view.ctrl.Composer().Kind, "second press closes the reply")
	assert.False(t, h.view.HasEditorFocus())
}

func TestView_CloseComposerReleasesFocus(t *testing.T) {
	h := newHarness(t, true, onePage(comment(1, "first")))
	h.open(t)

	h.send(tuitest.KeyPress('c'))
	for _, msg := range tuitest.Type("half") {
		h.send(msg)
	}
	require.True(t, h.view.HasEditorFocus())

	h.view = h.view.CloseComposer()
	assert.False(t, h.view.HasEditorFocus())
	assert.Empty(t, h.view.editor.Value())
	assert.Nil(t, h.send(tuitest.KeyCtrl('s')), "nothing left to post")
	assert.Empty(t, h.threads.posts)
}

func TestView_SetSubjectClearsImmediately(t *testing.T) {
	h := newHarness(t, false, onePage(comment(1, "son thread")))
	h.open(t)
	require.Contains(t, h.rendered(), "son thread")

	var cmd tea.Cmd
	h.view, cmd = h.view.SetSubject(thread.NewSubject("players", "Kane"))
	require.NotNil(t, cmd)

	out := h.rendered()
	assert.NotContains(t, out, "son thread")
	assert.Contains(t, out, "Kane")
	assert.Equal(t, 1, h.view.ctrl.Page())
}

func TestView_JumpToPage(t *testing.T) {
	h := newHarness(t, false, map[int]thread.Page{1: {Count: 12}, 12: {Count: 12}})
	h.open(t)

	h.send(tuitest.KeyPress('1'))
	h.send(tuitest.KeyPress('2'))
	assert.Contains(t, h.rendered(), "go to page 12")

	h.run(t, h.send(tuitest.KeyEnter()))
	assert.Equal(t, 12, h.view.ctrl.Page())
}

func TestView_AppendedMarker(t *testing.T) {
	h := newHarness(t, true, onePage())
	h.view.ctrl.pageSize = 1
	h.threads.pages = onePage(comment(1, "first"))
	h.open(t)

	h.send(tuitest.KeyPress('c'))
	for _, msg := range tuitest.Type("late") {
		h.send(msg)
	}
	h.run(t, h.send(tuitest.KeyCtrl('s')))

	assert.Contains(t, h.rendered(), "added to last page")
}

func TestView_Preview(t *testing.T) {
	h := newHarness(t, false, onePage(comment(1, "**bold** take")))
	h.open(t)

	h.send(tuitest.KeyEnter())
	require.NotNil(t, h.view.preview)
	overlay := tuitest.StripANSI(h.view.Overlay(h.view.View(), 80, 40))
	assert.Contains(t, overlay, "Comment #1")
	assert.Contains(t, overlay, "bold take")

	h.send(tuitest.KeyEsc())
	assert.Nil(t, h.view.preview)
}

func TestRenderPagination(t *testing.T) {
	assert.Empty(t, renderPagination(1, 0))

	out := tuitest.StripANSI(renderPagination(6, 20))
	assert.Contains(t, out, "1")
	assert.Contains(t, out, "…")
	assert.Contains(t, out, "20")

	beyond := tuitest.StripANSI(renderPagination(5, 2))
	assert.Contains(t, beyond, "page 5 of 2")
}

func TestPreviewMarkdown(t *testing.T) {
	md := previewMarkdown(thread.Comment{Body: "top", Replies: []thread.Reply{
		{Author: "ann", Body: "one\ntwo", CreatedAt: "t"},
	}})
	assert.Contains(t, md, "**1 reply**")
	assert.Contains(t, md, "> **ann** • t")
	assert.Contains(t, md, "> two")
}
