package auth

import (
	"context"
	"time"
)

// RevocationStore persists refresh records keyed by token hash.
// DeleteByToken and DeleteBySubject are idempotent.
type RevocationStore interface {
	Insert(ctx context.Context, rec *RefreshRecord) error
	FindByToken(ctx context.Context, tokenHash string) (*RefreshRecord, error)
	DeleteByToken(ctx context.Context, tokenHash string) error
	DeleteBySubject(ctx context.Context, subjectID string) error
	SweepExpired(ctx context.Context, subjectID string, now time.Time) (int64, error)
	// Rotate removes oldHash and stores next as one step. It returns
	// ErrRecordNotFound when oldHash is already gone, which is how a second
	// concurrent refresh with the same token loses the race.
	Rotate(ctx context.Context, oldHash string, next *RefreshRecord) error
}

type ExpiredSweeper interface {
	SweepAllExpired(ctx context.Context, now time.Time) (int64, error)
}
