package thread

import (
	"context"
	"time"
)

// Gateway reads and writes comments on the remote comment API.
//
// Implementations return *LoadError from FetchPage and *RejectedError from
// the create methods when the server refuses or the response does not parse.
type Gateway interface {
	FetchPage(ctx context.Context, subject Subject, page int) (RawPage, error)
	CreateComment(ctx context.Context, subject Subject, body, token string) (RawCreated, error)
	CreateReply(ctx context.Context, subject Subject, parentID int64, body, token string) (RawCreated, error)
}

// RawPage is a page as the server reported it, before display formatting.
type RawPage struct {
	Count    int
	Comments []RawComment
}

// RawComment is a top-level comment as the server reported it.
type RawComment struct {
	ID        int64
	Author    string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Replies   []RawReply
}

// RawReply is a reply as the server reported it.
type RawReply struct {
	Author    string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RawCreated is the server's answer to a successful write. ID is only
// meaningful for top-level comments. Body is the server's echo, empty when
// it sent none; callers display their own trimmed draft.
type RawCreated struct {
	ID        int64
	Author    string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
