package devserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/touchline/internal/core/thread"
	"github.com/colonyops/touchline/internal/data/db"
	"github.com/colonyops/touchline/internal/integration/commentapi"
)

const secret = "test-secret"

var son = thread.NewSubject("players", "Heung-Min Son")

type harness struct {
	url    string
	issuer *Issuer
	client *commentapi.Client
}

func newHarness(t *testing.T, pageSize int) *harness {
	t.Helper()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	issuer := NewIssuer(secret, time.Hour)
	srv := New(NewCommentStore(database), issuer, Options{PageSize: pageSize}, zerolog.Nop())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &harness{
		url:    ts.URL,
		issuer: issuer,
		client: commentapi.New(ts.URL+"/api", time.Second, zerolog.Nop()),
	}
}

func (h *harness) token(t *testing.T, name string) string {
	t.Helper()
	tok, err := h.issuer.Mint(name)
	require.NoError(t, err)
	return tok
}

func TestServer_EmptyThread(t *testing.T) {
	h := newHarness(t, 10)

	page, err := h.client.FetchPage(context.Background(), son, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)
	assert.Empty(t, page.Comments)
}

func TestServer_CreateAndList(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 10)
	tok := h.token(t, "Heung-Min Son")

	created, err := h.client.CreateComment(ctx, son, "nice", tok)
	require.NoError(t, err)
	assert.Equal(t, "Heung-Min Son", created.Author, "member name comes from the token")
	assert.Equal(t, "nice", created.Body)
	assert.NotZero(t, created.ID)

	reply, err := h.client.CreateReply(ctx, son, created.ID, "agreed", h.token(t, "bob"))
	require.NoError(t, err)
	assert.Equal(t, "bob", reply.Author)

	page, err := h.client.FetchPage(ctx, son, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, created.ID, page.Comments[0].ID)
	require.Len(t, page.Comments[0].Replies, 1)
	assert.Equal(t, "agreed", page.Comments[0].Replies[0].Body)

	other, err := h.client.FetchPage(ctx, thread.NewSubject("teams", "Tottenham"), 1)
	require.NoError(t, err)
	assert.Empty(t, other.Comments, "threads are scoped by subject")
}

func TestServer_Pagination(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2)
	tok := h.token(t, "alice")

	for _, body := range []string{"one", "two", "three"} {
		_, err := h.client.CreateComment(ctx, son, body, tok)
		require.NoError(t, err)
	}

	first, err := h.client.FetchPage(ctx, son, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Count, "count is the number of pages")
	require.Len(t, first.Comments, 2)
	assert.Equal(t, "one", first.Comments[0].Body)

	second, err := h.client.FetchPage(ctx, son, 2)
	require.NoError(t, err)
	require.Len(t, second.Comments, 1)
	assert.Equal(t, "three", second.Comments[0].Body)

	beyond, err := h.client.FetchPage(ctx, son, 9)
	require.NoError(t, err)
	assert.Empty(t, beyond.Comments)
}

func TestServer_WriteFailures(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 10)
	tok := h.token(t, "alice")

	top, err := h.client.CreateComment(ctx, son, "top", tok)
	require.NoError(t, err)
	_, err = h.client.CreateReply(ctx, son, top.ID, "reply", tok)
	require.NoError(t, err)

	expired := NewIssuer(secret, -time.Minute)
	expiredTok, err := expired.Mint("alice")
	require.NoError(t, err)

	wrongKey, err := NewIssuer("other", time.Hour).Mint("alice")
	require.NoError(t, err)

	tests := []struct {
		name   string
		call   func() error
		status int
		body   string
	}{
		{
			name:   "no credential",
			call:   func() error { _, err := h.client.CreateComment(ctx, son, "hi", ""); return err },
			status: http.StatusUnauthorized,
			body:   "login required",
		},
		{
			name:   "expired token",
			call:   func() error { _, err := h.client.CreateComment(ctx, son, "hi", expiredTok); return err },
			status: http.StatusUnauthorized,
			body:   "login required",
		},
		{
			name:   "wrong signing key",
			call:   func() error { _, err := h.client.CreateComment(ctx, son, "hi", wrongKey); return err },
			status: http.StatusUnauthorized,
			body:   "login required",
		},
		{
			name:   "unknown parent",
			call:   func() error { _, err := h.client.CreateReply(ctx, son, 999, "hi", tok); return err },
			status: http.StatusNotFound,
			body:   ErrParentNotFound.Error(),
		},
		{
			name: "parent on another subject",
			call: func() error {
				_, err := h.client.CreateReply(ctx, thread.NewSubject("teams", "Spurs"), top.ID, "hi", tok)
				return err
			},
			status: http.StatusNotFound,
			body:   ErrParentNotFound.Error(),
		},
		{
			name:   "blank content",
			call:   func() error { _, err := h.client.CreateComment(ctx, son, "   ", tok); return err },
			status: http.StatusBadRequest,
			body:   "content is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()

			var re *thread.RejectedError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.status, re.StatusCode)
			assert.Equal(t, tt.body, re.Body)
		})
	}
}

func TestServer_RejectsNestedReply(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 10)
	tok := h.token(t, "alice")

	top, err := h.client.CreateComment(ctx, son, "top", tok)
	require.NoError(t, err)

	_, err = h.client.CreateReply(ctx, son, top.ID, "first reply", tok)
	require.NoError(t, err)

	// Reply ids are not exposed by the API; the reply was inserted right
	// after the top-level comment.
	_, err = h.client.CreateReply(ctx, son, top.ID+1, "nested", tok)

	var re *thread.RejectedError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.StatusCode)
	assert.Equal(t, ErrNestedReply.Error(), re.Body)
}

func TestServer_InvalidPage(t *testing.T) {
	h := newHarness(t, 10)

	resp, err := http.Get(h.url + "/api/players/Son/comments?page=zero")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "page must be"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestIssuer_MintVerify(t *testing.T) {
	issuer := NewIssuer(secret, time.Hour)

	tok, err := issuer.Mint("  bob ")
	require.NoError(t, err)

	name, err := issuer.Verify("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, "bob", name)

	_, err = issuer.Verify(tok)
	assert.ErrorIs(t, err, ErrUnauthorized, "the Bearer scheme is required")

	_, err = issuer.Mint(" ")
	assert.Error(t, err)
}
