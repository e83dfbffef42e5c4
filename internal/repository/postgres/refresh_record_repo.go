package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/Credgate/internal/domain/auth"
)

var (
	_ auth.RevocationStore = (*RefreshRecordRepo)(nil)
	_ auth.ExpiredSweeper  = (*RefreshRecordRepo)(nil)
)

type RefreshRecordRepo struct {
	db *DB
	tx Transactor
}

func NewRefreshRecordRepo(db *DB, tx Transactor) *RefreshRecordRepo {
	return &RefreshRecordRepo{db: db, tx: tx}
}

const (
	qRRInsert = `
INSERT INTO refresh_tokens (token_hash, user_id, expires_at, created_at)
VALUES ($1, $2, $3, $4);`

	qRRFind = `
SELECT token_hash, user_id, expires_at, created_at
FROM refresh_tokens
WHERE token_hash = $1;`

	qRRDeleteByToken = `
DELETE FROM refresh_tokens WHERE token_hash = $1;`

	qRRDeleteBySubject = `
DELETE FROM refresh_tokens WHERE user_id = $1;`

	qRRSweepSubject = `
DELETE FROM refresh_tokens WHERE user_id = $1 AND expires_at < $2;`

	qRRSweepAll = `
DELETE FROM refresh_tokens WHERE expires_at < $1;`
)

func (r *RefreshRecordRepo) Insert(ctx context.Context, rec *auth.RefreshRecord) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.q(ctx).Exec(ctx, qRRInsert, rec.TokenHash, rec.SubjectID, rec.ExpiresAt, rec.CreatedAt); err != nil {
		return fmt.Errorf("insert refresh record: %w", err)
	}
	return nil
}

func (r *RefreshRecordRepo) FindByToken(ctx context.Context, tokenHash string) (*auth.RefreshRecord, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var rec auth.RefreshRecord
	if err := r.db.q(ctx).QueryRow(ctx, qRRFind, tokenHash).
		Scan(&rec.TokenHash, &rec.SubjectID, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrRecordNotFound
		}
		return nil, fmt.Errorf("find refresh record: %w", err)
	}
	return &rec, nil
}

func (r *RefreshRecordRepo) DeleteByToken(ctx context.Context, tokenHash string) error {
	_, err := r.exec(ctx, qRRDeleteByToken, tokenHash)
	if err != nil {
		return fmt.Errorf("delete refresh record: %w", err)
	}
	return nil
}

func (r *RefreshRecordRepo) DeleteBySubject(ctx context.Context, subjectID string) error {
	_, err := r.exec(ctx, qRRDeleteBySubject, subjectID)
	if err != nil {
		return fmt.Errorf("delete subject refresh records: %w", err)
	}
	return nil
}

func (r *RefreshRecordRepo) SweepExpired(ctx context.Context, subjectID string, now time.Time) (int64, error) {
	n, err := r.exec(ctx, qRRSweepSubject, subjectID, now)
	if err != nil {
		return 0, fmt.Errorf("sweep refresh records: %w", err)
	}
	return n, nil
}

func (r *RefreshRecordRepo) SweepAllExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.exec(ctx, qRRSweepAll, now)
	if err != nil {
		return 0, fmt.Errorf("sweep all refresh records: %w", err)
	}
	return n, nil
}

// Rotate deletes the consumed record and inserts its successor in one
// transaction. The DELETE takes a row lock, so a concurrent rotation of the
// same token waits and then sees zero affected rows.
func (r *RefreshRecordRepo) Rotate(ctx context.Context, oldHash string, next *auth.RefreshRecord) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	return r.tx.WithTx(ctx, func(ctx context.Context) error {
		n, err := r.exec(ctx, qRRDeleteByToken, oldHash)
		if err != nil {
			return fmt.Errorf("rotate delete: %w", err)
		}
		if n == 0 {
			return auth.ErrRecordNotFound
		}
		return r.Insert(ctx, next)
	})
}

func (r *RefreshRecordRepo) exec(ctx context.Context, q string, args ...any) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.q(ctx).Exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
