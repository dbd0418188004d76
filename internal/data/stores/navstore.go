package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/touchline/internal/core/nav"
	"github.com/colonyops/touchline/internal/core/thread"
	"github.com/colonyops/touchline/internal/data/db"
)

// NavStore implements nav.Store using SQLite.
type NavStore struct {
	db  *db.DB
	now func() time.Time
}

var _ nav.Store = (*NavStore)(nil)

// NewNavStore creates a new SQLite-backed navigation store.
func NewNavStore(db *db.DB) *NavStore {
	return &NavStore{db: db, now: time.Now}
}

// InitialPage returns the remembered page for subject, or 1.
func (s *NavStore) InitialPage(ctx context.Context, subject thread.Subject) (int, error) {
	var page int
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT page FROM nav_pages WHERE category = ? AND keyword = ?`,
		subject.Category, subject.Keyword,
	).Scan(&page)
	if IsNotFoundError(err) {
		return 1, nil
	}
	if err != nil {
		return 1, fmt.Errorf("nav initial page %s: %w", subject, err)
	}
	return max(page, 1), nil
}

// SetPage records page as the current page for subject. A busy database is
// retried once.
func (s *NavStore) SetPage(ctx context.Context, subject thread.Subject, page int) error {
	if page < 1 {
		page = 1
	}

	const q = `
		INSERT INTO nav_pages (category, keyword, page, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (category, keyword) DO UPDATE SET page = excluded.page, updated_at = excluded.updated_at`

	exec := func() error {
		_, err := s.db.Conn().ExecContext(ctx, q, subject.Category, subject.Keyword, page, s.now().UnixNano())
		return err
	}

	err := exec()
	if IsBusyError(err) {
		err = exec()
	}
	if err != nil {
		return fmt.Errorf("nav set page %s: %w", subject, err)
	}
	return nil
}

// Recent lists remembered subjects, most recently viewed first.
func (s *NavStore) Recent(ctx context.Context, limit int) ([]nav.Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT category, keyword, page, updated_at FROM nav_pages ORDER BY updated_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("nav recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []nav.Entry{}
	for rows.Next() {
		var (
			e       nav.Entry
			updated int64
		)
		if err := rows.Scan(&e.Subject.Category, &e.Subject.Keyword, &e.Page, &updated); err != nil {
			return nil, fmt.Errorf("nav recent scan: %w", err)
		}
		e.UpdatedAt = time.Unix(0, updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
