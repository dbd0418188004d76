// Package devserver is a small comment API for local development. It serves
// the same contract the client's gateway speaks.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/touchline/internal/core/logging"
	"github.com/colonyops/touchline/internal/core/thread"
)

const maxContentLen = 2000

// Options configures the server.
type Options struct {
	PageSize int
	BasePath string // e.g. "/api"
}

// Server handles GET and POST on {base}/{category}/{keyword}/comments.
type Server struct {
	store  *CommentStore
	issuer *Issuer
	opts   Options
	log    zerolog.Logger
}

// New creates a Server.
func New(store *CommentStore, issuer *Issuer, opts Options, logger zerolog.Logger) *Server {
	if opts.PageSize < 1 {
		opts.PageSize = 10
	}
	if opts.BasePath == "" {
		opts.BasePath = "/api"
	}
	return &Server{store: store, issuer: issuer, opts: opts, log: logger}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.Recoverer,
		s.requestID,
		s.logRequests,
	)

	api := chi.NewRouter()
	api.Get("/{category}/{keyword}/comments", s.listComments)
	api.Post("/{category}/{keyword}/comments", s.createComment)
	root.Mount(s.opts.BasePath, api)

	return root
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Str("base", s.opts.BasePath).Msg("dev comment server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().Ctx(r.Context()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func subjectFrom(r *http.Request) (thread.Subject, bool) {
	category, keyword := chi.URLParam(r, "category"), chi.URLParam(r, "keyword")
	if r.URL.RawPath != "" {
		var err error
		if category, err = url.PathUnescape(category); err != nil {
			return thread.Subject{}, false
		}
		if keyword, err = url.PathUnescape(keyword); err != nil {
			return thread.Subject{}, false
		}
	}
	subject := thread.NewSubject(category, keyword)
	return subject, subject.Validate() == nil
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type (
	replyJSON struct {
		MemberName string `json:"memberName"`
		Content    string `json:"content"`
		CreatedAt  string `json:"createdAt"`
		UpdatedAt  string `json:"updatedAt"`
	}
	commentJSON struct {
		ID         int64       `json:"id"`
		MemberName string      `json:"memberName"`
		Content    string      `json:"content"`
		CreatedAt  string      `json:"createdAt"`
		UpdatedAt  string      `json:"updatedAt"`
		Children   []replyJSON `json:"children"`
	}
	pageJSON struct {
		Count    int           `json:"count"`
		Comments []commentJSON `json:"comments"`
	}
	createdJSON struct {
		ID         int64  `json:"id,omitempty"`
		MemberName string `json:"memberName"`
		Content    string `json:"content"`
		CreatedAt  string `json:"createdAt"`
		UpdatedAt  string `json:"updatedAt"`
	}
	createBody struct {
		Content  string `json:"content"`
		ParentID *int64 `json:"parentId"`
	}
)

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFrom(r)
	if !ok {
		writeText(w, http.StatusBadRequest, "invalid subject")
		return
	}

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeText(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = n
	}

	count, comments, err := s.store.ListPage(r.Context(), subject, page, s.opts.PageSize)
	if err != nil {
		s.log.Error().Ctx(r.Context()).Err(err).Msg("list comments")
		writeText(w, http.StatusInternalServerError, "could not load comments")
		return
	}

	out := pageJSON{Count: count, Comments: make([]commentJSON, 0, len(comments))}
	for _, c := range comments {
		cj := commentJSON{
			ID:         c.ID,
			MemberName: c.Author,
			Content:    c.Body,
			CreatedAt:  stamp(c.CreatedAt),
			UpdatedAt:  stamp(c.UpdatedAt),
			Children:   make([]replyJSON, 0, len(c.Replies)),
		}
		for _, rep := range c.Replies {
			cj.Children = append(cj.Children, replyJSON{
				MemberName: rep.Author,
				Content:    rep.Body,
				CreatedAt:  stamp(rep.CreatedAt),
				UpdatedAt:  stamp(rep.UpdatedAt),
			})
		}
		out.Comments = append(out.Comments, cj)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFrom(r)
	if !ok {
		writeText(w, http.StatusBadRequest, "invalid subject")
		return
	}

	author, err := s.issuer.Verify(r.Header.Get("Authorization"))
	if err != nil {
		writeText(w, http.StatusUnauthorized, "login required")
		return
	}

	var in createBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&in); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}
	content := strings.TrimSpace(in.Content)
	switch {
	case content == "":
		writeText(w, http.StatusBadRequest, "content is required")
		return
	case len([]rune(content)) > maxContentLen:
		writeText(w, http.StatusBadRequest, "content is too long")
		return
	}

	created, err := s.store.Create(r.Context(), subject, in.ParentID, author, content)
	switch {
	case errors.Is(err, ErrParentNotFound):
		writeText(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, ErrNestedReply):
		writeText(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error().Ctx(r.Context()).Err(err).Msg("create comment")
		writeText(w, http.StatusInternalServerError, "could not save comment")
		return
	}

	out := createdJSON{
		MemberName: created.Author,
		Content:    created.Body,
		CreatedAt:  stamp(created.CreatedAt),
		UpdatedAt:  stamp(created.UpdatedAt),
	}
	if in.ParentID == nil {
		out.ID = created.ID
	}
	writeJSON(w, http.StatusCreated, out)
}
