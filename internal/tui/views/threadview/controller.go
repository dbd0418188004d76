package threadview

import (
	"errors"

	"github.com/colonyops/touchline/internal/core/thread"
)

// ComposerKind tags the composer state.
type ComposerKind int

const (
	ComposerClosed ComposerKind = iota
	ComposerTopLevel
	ComposerReply
)

var (
	errNoComposer = errors.New("no composer open")
	errSubmitting = errors.New("submission already in flight")
)

// Composer is the single draft the user can be editing. Target and TargetID
// are only meaningful for ComposerReply; TargetID is what survives reloads.
type Composer struct {
	Kind       ComposerKind
	Text       string
	Target     int
	TargetID   int64
	Submitting bool
}

// IsReplyTo reports whether the composer is a reply draft bound to pos.
func (c Composer) IsReplyTo(pos int) bool {
	return c.Kind == ComposerReply && c.Target == pos
}

// LoadTicket identifies one issued page read. Only the ticket with the
// latest sequence number may write to the store.
type LoadTicket struct {
	Seq     uint64
	Subject thread.Subject
	Page    int
}

// Submission is a write captured from the composer at submit time.
type Submission struct {
	Epoch     uint64
	Subject   thread.Subject
	Kind      ComposerKind
	Body      string
	ParentID  int64
	ParentPos int
}

// Controller owns the thread state for one view: subject, page cursor,
// comment store and composer. It has no Bubble Tea dependencies; every
// method runs on the update loop.
type Controller struct {
	subject  thread.Subject
	epoch    uint64
	page     int
	count    int
	comments []thread.Comment
	composer Composer

	seq     uint64
	loading bool
	loadErr error

	cursor   int
	pageSize int
}

// NewController creates a controller for subject, opened on page. pageSize
// is the server page size used to mark locally appended comments.
func NewController(subject thread.Subject, page, pageSize int) *Controller {
	return &Controller{
		subject:  subject,
		page:     max(page, 1),
		comments: []thread.Comment{},
		pageSize: pageSize,
	}
}

func (c *Controller) Subject() thread.Subject    { return c.subject }
func (c *Controller) Page() int                  { return c.page }
func (c *Controller) PageCount() int             { return c.count }
func (c *Controller) Comments() []thread.Comment { return c.comments }
func (c *Controller) Composer() Composer         { return c.composer }
func (c *Controller) Loading() bool              { return c.loading }
func (c *Controller) LoadErr() error             { return c.loadErr }
func (c *Controller) Cursor() int                { return c.cursor }

// Selected returns the comment under the cursor.
func (c *Controller) Selected() (thread.Comment, bool) {
	if c.cursor < 0 || c.cursor >= len(c.comments) {
		return thread.Comment{}, false
	}
	return c.comments[c.cursor], true
}

// IsAppended reports whether the comment at i sits past the server page
// size, which only happens for local appends. The server will place it on
// the last page.
func (c *Controller) IsAppended(i int) bool {
	return c.pageSize > 0 && i >= c.pageSize
}

// SetSubject switches to another subject. The page resets to 1, the store
// and composer are cleared immediately and a load is issued.
func (c *Controller) SetSubject(subject thread.Subject) LoadTicket {
	c.subject = subject
	c.epoch++
	c.page = 1
	c.count = 0
	c.comments = []thread.Comment{}
	c.composer = Composer{}
	c.cursor = 0
	c.loadErr = nil
	return c.Load()
}

// Load issues a read of the current page.
func (c *Controller) Load() LoadTicket {
	c.seq++
	c.loading = true
	return LoadTicket{Seq: c.seq, Subject: c.subject, Page: c.page}
}

// ChangePage moves to page n and issues a read. Pages beyond the known
// count are allowed.
func (c *Controller) ChangePage(n int) LoadTicket {
	c.page = max(n, 1)
	c.cursor = 0
	return c.Load()
}

// ApplyLoad stores the result of a read. Results for any ticket other than
// the latest issued one are discarded and false is returned. A failed read
// leaves the store as it was.
func (c *Controller) ApplyLoad(t LoadTicket, page thread.Page, err error) bool {
	if t.Seq != c.seq || t.Subject != c.subject {
		return false
	}
	c.loading = false

	if err != nil {
		c.loadErr = err
		return true
	}

	c.loadErr = nil
	c.count = page.Count
	c.comments = page.Comments
	if c.comments == nil {
		c.comments = []thread.Comment{}
	}
	c.cursor = min(c.cursor, max(len(c.comments)-1, 0))

	if c.composer.Kind == ComposerReply {
		pos := c.indexOf(c.composer.TargetID)
		if pos < 0 {
			c.composer = Composer{}
		} else {
			c.composer.Target = pos
		}
	}
	return true
}

// ToggleReply opens a reply composer on pos, or closes it when it is
// already bound to pos. Any other draft is discarded.
func (c *Controller) ToggleReply(pos int) {
	if pos < 0 || pos >= len(c.comments) {
		return
	}
	if c.composer.IsReplyTo(pos) {
		c.composer = Composer{}
		return
	}
	c.composer = Composer{
		Kind:     ComposerReply,
		Target:   pos,
		TargetID: c.comments[pos].ID,
	}
}

// OpenTopLevel opens the top-level composer, keeping an existing top-level
// draft.
func (c *Controller) OpenTopLevel() {
	if c.composer.Kind == ComposerTopLevel {
		return
	}
	c.composer = Composer{Kind: ComposerTopLevel}
}

// CloseComposer discards the current draft.
func (c *Controller) CloseComposer() {
	c.composer = Composer{}
}

// SetDraft replaces the composer text.
func (c *Controller) SetDraft(text string) {
	if c.composer.Kind == ComposerClosed {
		return
	}
	c.composer.Text = text
}

// PrepareSubmit captures the composer as a Submission and marks it in
// flight. A blank draft returns thread.ErrEmptyDraft and changes nothing.
func (c *Controller) PrepareSubmit() (Submission, error) {
	if c.composer.Kind == ComposerClosed {
		return Submission{}, errNoComposer
	}
	if c.composer.Submitting {
		return Submission{}, errSubmitting
	}
	body, ok := thread.NormalizeDraft(c.composer.Text)
	if !ok {
		return Submission{}, thread.ErrEmptyDraft
	}

	sub := Submission{
		Epoch:   c.epoch,
		Subject: c.subject,
		Kind:    c.composer.Kind,
		Body:    body,
	}
	if c.composer.Kind == ComposerReply {
		sub.ParentID = c.composer.TargetID
		sub.ParentPos = c.composer.Target
	}
	c.composer.Submitting = true
	return sub, nil
}

// ApplyCommentCreated appends a created top-level comment to the end of the
// store and clears the top-level draft. The page count is not touched.
// Returns false when the submission belongs to a subject no longer shown.
func (c *Controller) ApplyCommentCreated(sub Submission, comment thread.Comment) bool {
	if sub.Epoch != c.epoch {
		return false
	}
	if comment.Replies == nil {
		comment.Replies = []thread.Reply{}
	}
	c.comments = append(c.comments, comment)
	if c.composer.Kind == ComposerTopLevel {
		c.composer = Composer{}
	}
	return true
}

// ApplyReplyCreated pushes a created reply onto its parent and closes the
// reply composer bound to that parent. The parent is found by id, so a
// reload in between does not misplace the reply. Returns false when the
// parent is no longer in the store.
func (c *Controller) ApplyReplyCreated(sub Submission, reply thread.Reply) bool {
	if sub.Epoch != c.epoch {
		return false
	}
	if c.composer.Kind == ComposerReply && c.composer.TargetID == sub.ParentID {
		c.composer = Composer{}
	}

	pos := sub.ParentPos
	if pos < 0 || pos >= len(c.comments) || c.comments[pos].ID != sub.ParentID {
		pos = c.indexOf(sub.ParentID)
	}
	if pos < 0 {
		return false
	}
	c.comments[pos].Replies = append(c.comments[pos].Replies, reply)
	return true
}

// ApplySubmitFailed releases the in-flight mark. The store and the draft
// are left untouched so the user can retry.
func (c *Controller) ApplySubmitFailed(sub Submission) {
	if sub.Epoch != c.epoch || !c.composer.Submitting || c.composer.Kind != sub.Kind {
		return
	}
	if sub.Kind == ComposerReply && c.composer.TargetID != sub.ParentID {
		return
	}
	c.composer.Submitting = false
}

// MoveUp moves the cursor to the previous comment.
func (c *Controller) MoveUp() {
	if c.cursor > 0 {
		c.cursor--
	}
}

// MoveDown moves the cursor to the next comment.
func (c *Controller) MoveDown() {
	if c.cursor < len(c.comments)-1 {
		c.cursor++
	}
}

func (c *Controller) indexOf(id int64) int {
	for i := range c.comments {
		if c.comments[i].ID == id {
			return i
		}
	}
	return -1
}
