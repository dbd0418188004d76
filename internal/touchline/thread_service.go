package touchline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/touchline/internal/core/logging"
	"github.com/colonyops/touchline/internal/core/thread"
)

// SubjectPolicy decides whether a subject may be opened.
type SubjectPolicy interface {
	SubjectAllowed(category, keyword string) bool
}

// ThreadService turns gateway results into display-ready thread values.
// It holds no thread state; callers own the store.
type ThreadService struct {
	gateway thread.Gateway
	format  thread.Formatter
	policy  SubjectPolicy
	log     zerolog.Logger
}

// NewThreadService creates a ThreadService. A nil policy allows every subject.
func NewThreadService(gw thread.Gateway, format thread.Formatter, policy SubjectPolicy, logger zerolog.Logger) *ThreadService {
	return &ThreadService{
		gateway: gw,
		format:  format,
		policy:  policy,
		log:     logger,
	}
}

func (s *ThreadService) checkSubject(subject thread.Subject) error {
	if err := subject.Validate(); err != nil {
		return err
	}
	if s.policy != nil && !s.policy.SubjectAllowed(subject.Category, subject.Keyword) {
		return fmt.Errorf("subject %q is not allowed by config", subject)
	}
	return nil
}

// LoadPage reads one page and formats every timestamp. Any failure is
// returned as a *thread.LoadError.
func (s *ThreadService) LoadPage(ctx context.Context, subject thread.Subject, page int) (thread.Page, error) {
	ctx = logging.WithSubject(ctx, subject.String())

	if err := s.checkSubject(subject); err != nil {
		return thread.Page{}, &thread.LoadError{Message: err.Error(), Err: err}
	}
	if page < 1 {
		page = 1
	}

	raw, err := s.gateway.FetchPage(ctx, subject, page)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Int("page", page).Msg("thread load failed")
		return thread.Page{}, thread.AsLoadError(err)
	}

	out := thread.Page{
		Number:   page,
		Count:    raw.Count,
		Comments: make([]thread.Comment, 0, len(raw.Comments)),
	}
	for _, rc := range raw.Comments {
		c := thread.Comment{
			ID:        rc.ID,
			Author:    rc.Author,
			Body:      rc.Body,
			CreatedAt: s.format.Format(rc.CreatedAt),
			UpdatedAt: s.format.Format(rc.UpdatedAt),
			Replies:   make([]thread.Reply, 0, len(rc.Replies)),
		}
		for _, rr := range rc.Replies {
			c.Replies = append(c.Replies, thread.Reply{
				Author:    rr.Author,
				Body:      rr.Body,
				CreatedAt: s.format.Format(rr.CreatedAt),
				UpdatedAt: s.format.Format(rr.UpdatedAt),
			})
		}
		out.Comments = append(out.Comments, c)
	}

	s.log.Debug().Ctx(ctx).
		Int("page", page).
		Int("count", out.Count).
		Int("comments", len(out.Comments)).
		Msg("thread page loaded")

	return out, nil
}

// SubmitComment posts a top-level comment. The returned comment carries the
// trimmed local draft as its body. A blank draft returns
// thread.ErrEmptyDraft without a request; other failures are
// *thread.RejectedError.
func (s *ThreadService) SubmitComment(ctx context.Context, subject thread.Subject, draft, credential string) (thread.Comment, error) {
	ctx = logging.WithSubject(ctx, subject.String())

	body, ok := thread.NormalizeDraft(draft)
	if !ok {
		return thread.Comment{}, thread.ErrEmptyDraft
	}
	if err := s.checkSubject(subject); err != nil {
		return thread.Comment{}, &thread.RejectedError{Body: err.Error(), Err: err}
	}

	created, err := s.gateway.CreateComment(ctx, subject, body, credential)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("comment rejected")
		return thread.Comment{}, thread.AsRejectedError(err)
	}

	s.log.Debug().Ctx(ctx).Int64("id", created.ID).Msg("comment created")

	return thread.Comment{
		ID:        created.ID,
		Author:    created.Author,
		Body:      body,
		CreatedAt: s.format.Format(created.CreatedAt),
		UpdatedAt: s.format.Format(created.UpdatedAt),
		Replies:   []thread.Reply{},
	}, nil
}

// SubmitReply posts a reply to parentID. The returned reply carries the
// trimmed local draft as its body and the server's author and timestamps.
func (s *ThreadService) SubmitReply(ctx context.Context, subject thread.Subject, parentID int64, draft, credential string) (thread.Reply, error) {
	ctx = logging.WithSubject(ctx, subject.String())

	body, ok := thread.NormalizeDraft(draft)
	if !ok {
		return thread.Reply{}, thread.ErrEmptyDraft
	}
	if err := s.checkSubject(subject); err != nil {
		return thread.Reply{}, &thread.RejectedError{Body: err.Error(), Err: err}
	}

	created, err := s.gateway.CreateReply(ctx, subject, parentID, body, credential)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Int64("parent", parentID).Msg("reply rejected")
		return thread.Reply{}, thread.AsRejectedError(err)
	}

	s.log.Debug().Ctx(ctx).Int64("parent", parentID).Msg("reply created")

	return thread.Reply{
		Author:    created.Author,
		Body:      body,
		CreatedAt: s.format.Format(created.CreatedAt),
		UpdatedAt: s.format.Format(created.UpdatedAt),
	}, nil
}
