// Package nav remembers where the reader was in each thread.
package nav

import (
	"context"
	"time"

	"github.com/colonyops/touchline/internal/core/thread"
)

// Entry is the last page viewed for a subject.
type Entry struct {
	Subject   thread.Subject
	Page      int
	UpdatedAt time.Time
}

// Store persists the current page per subject.
type Store interface {
	// InitialPage returns the page to open a subject on, 1 when unknown.
	InitialPage(ctx context.Context, subject thread.Subject) (int, error)
	SetPage(ctx context.Context, subject thread.Subject, page int) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
