// Package commentapi is the HTTP gateway to the remote comment API.
package commentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/touchline/internal/core/thread"
)

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// Client talks to {base}/{category}/{keyword}/comments.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	log        zerolog.Logger
}

var _ thread.Gateway = (*Client)(nil)

// New creates a client. timeout bounds every request end to end.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		log:        logger,
	}
}

func (c *Client) endpoint(subject thread.Subject) string {
	return fmt.Sprintf("%s/%s/%s/comments",
		c.BaseURL,
		url.PathEscape(subject.Category),
		url.PathEscape(subject.Keyword),
	)
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader, token *string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != nil {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("comment api unavailable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}

	c.log.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("comment api request")

	return resp.StatusCode, data, nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// FetchPage reads one page of top-level comments.
func (c *Client) FetchPage(ctx context.Context, subject thread.Subject, page int) (thread.RawPage, error) {
	target := c.endpoint(subject) + "?page=" + strconv.Itoa(page)

	status, data, err := c.do(ctx, http.MethodGet, target, nil, nil)
	if err != nil {
		return thread.RawPage{}, &thread.LoadError{Message: err.Error(), Err: err}
	}
	if !success(status) {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = fmt.Sprintf("comment api returned status %d", status)
		}
		return thread.RawPage{}, &thread.LoadError{Message: msg}
	}

	out, err := decodePage(data)
	if err != nil {
		return thread.RawPage{}, &thread.LoadError{Message: "unexpected comment list: " + err.Error(), Err: err}
	}
	return out, nil
}

// CreateComment posts a top-level comment.
func (c *Client) CreateComment(ctx context.Context, subject thread.Subject, body, token string) (thread.RawCreated, error) {
	return c.create(ctx, subject, createRequest{Content: body}, token, true)
}

// CreateReply posts a reply under parentID.
func (c *Client) CreateReply(ctx context.Context, subject thread.Subject, parentID int64, body, token string) (thread.RawCreated, error) {
	return c.create(ctx, subject, createRequest{Content: body, ParentID: &parentID}, token, false)
}

func (c *Client) create(ctx context.Context, subject thread.Subject, in createRequest, token string, topLevel bool) (thread.RawCreated, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return thread.RawCreated{}, &thread.RejectedError{Body: err.Error(), Err: err}
	}

	status, data, err := c.do(ctx, http.MethodPost, c.endpoint(subject), bytes.NewReader(payload), &token)
	if err != nil {
		return thread.RawCreated{}, &thread.RejectedError{StatusCode: status, Body: err.Error(), Err: err}
	}
	if !success(status) {
		return thread.RawCreated{}, &thread.RejectedError{StatusCode: status, Body: strings.TrimSpace(string(data))}
	}

	created, err := decodeCreated(data, topLevel)
	if err != nil {
		return thread.RawCreated{}, &thread.RejectedError{
			StatusCode: status,
			Body:       "unexpected response: " + err.Error(),
			Err:        err,
		}
	}
	return created, nil
}

type createRequest struct {
	Content  string `json:"content"`
	ParentID *int64 `json:"parentId,omitempty"`
}

// Wire shapes. Pointer fields let the decoder tell a missing field from a
// zero value; unknown fields are ignored.
type (
	wirePage struct {
		Count    *int          `json:"count"`
		Comments []wireComment `json:"comments"`
	}
	wireComment struct {
		ID         *int64      `json:"id"`
		MemberName *string     `json:"memberName"`
		Content    *string     `json:"content"`
		CreatedAt  *string     `json:"createdAt"`
		UpdatedAt  *string     `json:"updatedAt"`
		Children   []wireReply `json:"children"`
	}
	wireReply struct {
		MemberName *string `json:"memberName"`
		Content    *string `json:"content"`
		CreatedAt  *string `json:"createdAt"`
		UpdatedAt  *string `json:"updatedAt"`
	}
)

var errMissing = errors.New("missing field")

func decodePage(data []byte) (thread.RawPage, error) {
	var w wirePage
	if err := json.Unmarshal(data, &w); err != nil {
		return thread.RawPage{}, err
	}
	if w.Count == nil {
		return thread.RawPage{}, fmt.Errorf("count: %w", errMissing)
	}
	if w.Comments == nil {
		return thread.RawPage{}, fmt.Errorf("comments: %w", errMissing)
	}

	out := thread.RawPage{Count: *w.Count, Comments: make([]thread.RawComment, 0, len(w.Comments))}
	for i, wc := range w.Comments {
		rc, err := wc.decode()
		if err != nil {
			return thread.RawPage{}, fmt.Errorf("comments[%d].%w", i, err)
		}
		out.Comments = append(out.Comments, rc)
	}
	return out, nil
}

func (w wireComment) decode() (thread.RawComment, error) {
	if w.ID == nil {
		return thread.RawComment{}, fmt.Errorf("id: %w", errMissing)
	}
	if w.MemberName == nil {
		return thread.RawComment{}, fmt.Errorf("memberName: %w", errMissing)
	}
	if w.Content == nil {
		return thread.RawComment{}, fmt.Errorf("content: %w", errMissing)
	}
	created, updated, err := parseStamps(w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return thread.RawComment{}, err
	}

	rc := thread.RawComment{
		ID:        *w.ID,
		Author:    *w.MemberName,
		Body:      *w.Content,
		CreatedAt: created,
		UpdatedAt: updated,
		Replies:   make([]thread.RawReply, 0, len(w.Children)),
	}
	for i, wr := range w.Children {
		if wr.MemberName == nil {
			return thread.RawComment{}, fmt.Errorf("children[%d].memberName: %w", i, errMissing)
		}
		if wr.Content == nil {
			return thread.RawComment{}, fmt.Errorf("children[%d].content: %w", i, errMissing)
		}
		rcCreated, rcUpdated, err := parseStamps(wr.CreatedAt, wr.UpdatedAt)
		if err != nil {
			return thread.RawComment{}, fmt.Errorf("children[%d].%w", i, err)
		}
		rc.Replies = append(rc.Replies, thread.RawReply{
			Author:    *wr.MemberName,
			Body:      *wr.Content,
			CreatedAt: rcCreated,
			UpdatedAt: rcUpdated,
		})
	}
	return rc, nil
}

func decodeCreated(data []byte, topLevel bool) (thread.RawCreated, error) {
	var w wireComment
	if err := json.Unmarshal(data, &w); err != nil {
		return thread.RawCreated{}, err
	}
	if w.MemberName == nil {
		return thread.RawCreated{}, fmt.Errorf("memberName: %w", errMissing)
	}
	created, updated, err := parseStamps(w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return thread.RawCreated{}, err
	}

	out := thread.RawCreated{
		Author:    *w.MemberName,
		CreatedAt: created,
		UpdatedAt: updated,
	}
	if topLevel {
		if w.ID == nil {
			return thread.RawCreated{}, fmt.Errorf("id: %w", errMissing)
		}
		out.ID = *w.ID
		if w.Content != nil {
			out.Body = *w.Content
		}
	}
	return out, nil
}

// Servers send either RFC 3339 instants or zone-less local date-times;
// the latter are read as UTC.
var stampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseStamp(field string, v *string) (time.Time, error) {
	if v == nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, errMissing)
	}
	for _, layout := range stampLayouts {
		if t, err := time.Parse(layout, *v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: invalid timestamp %q", field, *v)
}

func parseStamps(created, updated *string) (time.Time, time.Time, error) {
	c, err := parseStamp("createdAt", created)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	u, err := parseStamp("updatedAt", updated)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return c, u, nil
}
