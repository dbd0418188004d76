package commentapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/touchline/internal/core/thread"
)

var son = thread.NewSubject("players", "Heung-Min Son")

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", time.Second, zerolog.Nop())
}

func TestFetchPage(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{
			"count": 2,
			"extra": true,
			"comments": [{
				"id": 7, "memberName": "alice", "content": "great goal",
				"createdAt": "2024-05-01T09:30:00Z", "updatedAt": "2024-05-01T09:31:00",
				"children": [{"memberName": "bob", "content": "agreed",
					"createdAt": "2024-05-01T10:00:00+09:00", "updatedAt": "2024-05-01T10:00:00+09:00"}]
			}]
		}`)
	})

	page, err := c.FetchPage(context.Background(), son, 2)
	require.NoError(t, err)

	assert.Equal(t, "/api/players/Heung-Min%20Son/comments", gotPath)
	assert.Equal(t, "page=2", gotQuery)
	assert.Empty(t, gotAuth, "reads are anonymous")

	assert.Equal(t, 2, page.Count)
	require.Len(t, page.Comments, 1)
	rc := page.Comments[0]
	assert.Equal(t, int64(7), rc.ID)
	assert.Equal(t, "alice", rc.Author)
	assert.True(t, rc.CreatedAt.Equal(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)))
	assert.True(t, rc.UpdatedAt.Equal(time.Date(2024, 5, 1, 9, 31, 0, 0, time.UTC)), "zone-less stamps read as UTC")
	require.Len(t, rc.Replies, 1)
	assert.Equal(t, "bob", rc.Replies[0].Author)
	assert.True(t, rc.Replies[0].CreatedAt.Equal(time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)))
}

func TestFetchPage_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server error text", status: http.StatusInternalServerError, body: "boom\n", wantMsg: "boom"},
		{name: "empty error body", status: http.StatusBadGateway, body: "", wantMsg: "comment api returned status 502"},
		{name: "missing count", status: http.StatusOK, body: `{"comments": []}`, wantMsg: "count"},
		{name: "missing comments", status: http.StatusOK, body: `{"count": 0}`, wantMsg: "comments"},
		{name: "missing id", status: http.StatusOK, body: `{"count": 1, "comments": [{"memberName": "a", "content": "b", "createdAt": "2024-05-01T09:30:00Z", "updatedAt": "2024-05-01T09:30:00Z"}]}`, wantMsg: "comments[0].id"},
		{name: "bad timestamp", status: http.StatusOK, body: `{"count": 1, "comments": [{"id": 1, "memberName": "a", "content": "b", "createdAt": "yesterday", "updatedAt": "2024-05-01T09:30:00Z"}]}`, wantMsg: "invalid timestamp"},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantMsg: "unexpected comment list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.FetchPage(context.Background(), son, 1)

			require.ErrorIs(t, err, thread.ErrThreadLoadFailed)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFetchPage_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1/api", 200*time.Millisecond, zerolog.Nop())

	_, err := c.FetchPage(context.Background(), son, 1)
	require.ErrorIs(t, err, thread.ErrThreadLoadFailed)
	assert.Contains(t, err.Error(), "comment api unavailable")
}

func TestCreateComment(t *testing.T) {
	var gotAuth, gotType, gotMethod string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 42, "memberName": "Heung-Min Son", "content": "nice",
			"createdAt": "2024-05-01T09:30:00Z", "updatedAt": "2024-05-01T09:30:00Z"}`)
	})

	created, err := c.CreateComment(context.Background(), son, "nice", "tok")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, map[string]any{"content": "nice"}, gotBody, "top-level writes carry no parentId")
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, "nice", created.Body)
	assert.Equal(t, "Heung-Min Son", created.Author)
}

func TestCreateComment_EmptyBearer(t *testing.T) {
	var gotAuth string
	var seen bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth, seen = r.Header.Get("Authorization"), true
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "로그인이 필요합니다.")
	})

	_, err := c.CreateComment(context.Background(), son, "nice", "")

	require.True(t, seen)
	assert.Equal(t, "Bearer", gotAuth, "an absent credential is sent as an empty bearer value")

	var re *thread.RejectedError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnauthorized, re.StatusCode)
	assert.Equal(t, "로그인이 필요합니다.", re.Error())
	assert.ErrorIs(t, err, thread.ErrSubmissionRejected)
}

func TestCreateReply(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"memberName": "bob",
			"createdAt": "2024-05-01T09:30:00Z", "updatedAt": "2024-05-01T09:30:00Z"}`)
	})

	created, err := c.CreateReply(context.Background(), son, 42, "agreed", "tok")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"content": "agreed", "parentId": float64(42)}, gotBody)
	assert.Equal(t, "bob", created.Author)
	assert.Zero(t, created.ID, "reply responses need no id")
}

func TestCreate_SchemaMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"createdAt": "2024-05-01T09:30:00Z", "updatedAt": "2024-05-01T09:30:00Z"}`)
	})

	_, err := c.CreateReply(context.Background(), son, 42, "agreed", "tok")

	require.ErrorIs(t, err, thread.ErrSubmissionRejected)
	assert.Contains(t, err.Error(), "memberName")
}

func TestCreateComment_NoContentEcho(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 7, "memberName": "bob",
			"createdAt": "2024-05-01T09:30:00Z", "updatedAt": "2024-05-01T09:30:00Z"}`)
	})

	created, err := c.CreateComment(context.Background(), son, "nice", "tok")
	require.NoError(t, err)

	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, "bob", created.Author)
	assert.Empty(t, created.Body)
}

func TestCreateComment_MissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"memberName": "bob",
			"createdAt": "2024-05-01T09:30:00Z", "updatedAt": "2024-05-01T09:30:00Z"}`)
	})

	_, err := c.CreateComment(context.Background(), son, "nice", "tok")

	require.ErrorIs(t, err, thread.ErrSubmissionRejected)
	assert.Contains(t, err.Error(), "id")
}
