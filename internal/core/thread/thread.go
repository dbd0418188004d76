// Package thread defines the comment thread domain: the subject a thread
// belongs to, its top-level comments and their replies.
package thread

import (
	"errors"
	"strings"
)

// Subject identifies the entity a comment thread is attached to, for example
// a player or a team. It is fixed for the lifetime of a thread view.
type Subject struct {
	Category string `json:"category"`
	Keyword  string `json:"keyword"`
}

// NewSubject returns a Subject with surrounding whitespace removed.
func NewSubject(category, keyword string) Subject {
	return Subject{
		Category: strings.TrimSpace(category),
		Keyword:  strings.TrimSpace(keyword),
	}
}

// String returns the "category/keyword" form used for logging and glob
// matching.
func (s Subject) String() string {
	return s.Category + "/" + s.Keyword
}

// IsZero reports whether the subject is unset.
func (s Subject) IsZero() bool {
	return s.Category == "" && s.Keyword == ""
}

// Validate checks that both parts are present.
func (s Subject) Validate() error {
	switch {
	case s.Category == "":
		return errors.New("subject category is required")
	case s.Keyword == "":
		return errors.New("subject keyword is required")
	case strings.Contains(s.Category, "/"):
		return errors.New("subject category must not contain '/'")
	}
	return nil
}

// Comment is a top-level comment. Timestamps are stored in display form
// only. Replies keep the order the server or local appends produced.
type Comment struct {
	ID        int64   `json:"id"`
	Author    string  `json:"author"`
	Body      string  `json:"body"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
	Replies   []Reply `json:"replies"`
}

// Reply is a second-level comment. Replies have no identifier and cannot be
// replied to.
type Reply struct {
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Page is one server page of top-level comments.
type Page struct {
	Number   int       `json:"page"`
	Count    int       `json:"count"`
	Comments []Comment `json:"comments"`
}

// NormalizeDraft trims draft text. The second return is false when nothing
// remains to submit.
func NormalizeDraft(draft string) (string, bool) {
	body := strings.TrimSpace(draft)
	return body, body != ""
}
