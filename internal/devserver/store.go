package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/touchline/internal/core/thread"
	"github.com/colonyops/touchline/internal/data/db"
)

var (
	ErrParentNotFound = errors.New("parent comment not found")
	ErrNestedReply    = errors.New("replies cannot be replied to")
)

// CommentStore keeps comments for the development server in SQLite.
type CommentStore struct {
	db  *db.DB
	now func() time.Time
}

// NewCommentStore creates a store over an opened database.
func NewCommentStore(database *db.DB) *CommentStore {
	return &CommentStore{db: database, now: time.Now}
}

// ListPage returns the total number of pages and the top-level comments on
// page, each with all of its replies in insertion order.
func (s *CommentStore) ListPage(ctx context.Context, subject thread.Subject, page, pageSize int) (int, []thread.RawComment, error) {
	conn := s.db.Conn()

	var total int
	if err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE category = ? AND keyword = ? AND parent_id IS NULL`,
		subject.Category, subject.Keyword,
	).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count comments: %w", err)
	}
	pages := (total + pageSize - 1) / pageSize

	rows, err := conn.QueryContext(ctx, `
		SELECT id, member_name, content, created_at, updated_at
		FROM comments
		WHERE category = ? AND keyword = ? AND parent_id IS NULL
		ORDER BY id
		LIMIT ? OFFSET ?`,
		subject.Category, subject.Keyword, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("list comments: %w", err)
	}

	comments := []thread.RawComment{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			c                thread.RawComment
			created, updated int64
		)
		if err := rows.Scan(&c.ID, &c.Author, &c.Body, &created, &updated); err != nil {
			_ = rows.Close()
			return 0, nil, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt, c.UpdatedAt = time.Unix(0, created).UTC(), time.Unix(0, updated).UTC()
		c.Replies = []thread.RawReply{}
		index[c.ID] = len(comments)
		comments = append(comments, c)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("list comments: %w", err)
	}
	if len(comments) == 0 {
		return pages, comments, nil
	}

	replies, err := conn.QueryContext(ctx, `
		SELECT parent_id, member_name, content, created_at, updated_at
		FROM comments
		WHERE category = ? AND keyword = ? AND parent_id BETWEEN ? AND ?
		ORDER BY id`,
		subject.Category, subject.Keyword, comments[0].ID, comments[len(comments)-1].ID,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("list replies: %w", err)
	}
	defer func() { _ = replies.Close() }()

	for replies.Next() {
		var (
			parent           int64
			r                thread.RawReply
			created, updated int64
		)
		if err := replies.Scan(&parent, &r.Author, &r.Body, &created, &updated); err != nil {
			return 0, nil, fmt.Errorf("scan reply: %w", err)
		}
		i, ok := index[parent]
		if !ok {
			continue
		}
		r.CreatedAt, r.UpdatedAt = time.Unix(0, created).UTC(), time.Unix(0, updated).UTC()
		comments[i].Replies = append(comments[i].Replies, r)
	}

	return pages, comments, replies.Err()
}

// Create inserts a comment, or a reply when parentID is non-nil. Replies
// must target a top-level comment of the same subject.
func (s *CommentStore) Create(ctx context.Context, subject thread.Subject, parentID *int64, author, body string) (thread.RawCreated, error) {
	now := s.now().UTC()
	stamp := now.UnixNano()

	var id int64
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if parentID != nil {
			var grandparent sql.NullInt64
			err := tx.QueryRowContext(ctx,
				`SELECT parent_id FROM comments WHERE id = ? AND category = ? AND keyword = ?`,
				*parentID, subject.Category, subject.Keyword,
			).Scan(&grandparent)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrParentNotFound
			}
			if err != nil {
				return fmt.Errorf("lookup parent: %w", err)
			}
			if grandparent.Valid {
				return ErrNestedReply
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO comments (category, keyword, parent_id, member_name, content, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			subject.Category, subject.Keyword, parentID, author, body, stamp, stamp,
		)
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return thread.RawCreated{}, err
	}

	return thread.RawCreated{
		ID:        id,
		Author:    author,
		Body:      body,
		CreatedAt: time.Unix(0, stamp).UTC(),
		UpdatedAt: time.Unix(0, stamp).UTC(),
	}, nil
}
