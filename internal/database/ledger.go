package database

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
)

var ErrQuotaExceeded = errors.New("storage quota exceeded")

// ReserveStorage adds deltaBytes to the user's storage counter in one
// guarded atomic update. It fails with ErrQuotaExceeded when the new
// total would exceed the user's quota, leaving the counter untouched,
// and with ErrUserNotFound when the user does not exist. Callers run it
// in the same transaction that inserts the file row.
func (q *Queries) ReserveStorage(ctx context.Context, userID int64, deltaBytes int64) (int64, error) {
	query := `
		UPDATE users
		SET storage_used_bytes = storage_used_bytes + $1
		WHERE id = $2 AND storage_used_bytes + $1 <= storage_quota_bytes
		RETURNING storage_used_bytes
	`
	var newTotal int64
	err := q.db.QueryRow(ctx, query, deltaBytes, userID).Scan(&newTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The guard matches no row both when the quota is full and
			// when there is no such user; tell the two apart.
			var exists bool
			if err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
				return 0, err
			}
			if !exists {
				return 0, ErrUserNotFound
			}
			return 0, ErrQuotaExceeded
		}
		return 0, err
	}
	return newTotal, nil
}

// ReleaseStorage subtracts deltaBytes from the user's storage counter.
// The counter never goes below zero: an underflow means the ledger and
// the file rows diverged, which is logged and clamped, never wrapped.
// Must run inside the transaction that deletes the file row, so the
// row lock spans both statements.
func (q *Queries) ReleaseStorage(ctx context.Context, userID int64, deltaBytes int64) (int64, error) {
	var current int64
	err := q.db.QueryRow(ctx, `SELECT storage_used_bytes FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	if deltaBytes > current {
		log.Printf("BUG: releasing %d bytes for user %d whose counter holds only %d, clamping to zero", deltaBytes, userID, current)
		deltaBytes = current
	}

	var newTotal int64
	err = q.db.QueryRow(ctx,
		`UPDATE users SET storage_used_bytes = storage_used_bytes - $1 WHERE id = $2 RETURNING storage_used_bytes`,
		deltaBytes, userID,
	).Scan(&newTotal)
	if err != nil {
		return 0, err
	}
	return newTotal, nil
}

// RecomputeUserStorage re-derives the counter from the user's live
// file rows. Recovery path for a crash between payload write and
// commit.
func (q *Queries) RecomputeUserStorage(ctx context.Context, userID int64) (int64, error) {
	query := `
		UPDATE users
		SET storage_used_bytes = COALESCE((SELECT SUM(size_bytes) FROM files WHERE user_id = users.id), 0)
		WHERE id = $1
		RETURNING storage_used_bytes
	`
	var total int64
	err := q.db.QueryRow(ctx, query, userID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return total, nil
}

// ReconcileStorage rewrites every counter that disagrees with the sum
// of its live file rows and returns how many users were corrected.
// Run once at startup.
func (s *Store) ReconcileStorage(ctx context.Context) (int64, error) {
	query := `
		UPDATE users u
		SET storage_used_bytes = l.total
		FROM (
			SELECT u2.id, COALESCE(SUM(f.size_bytes), 0) AS total
			FROM users u2
			LEFT JOIN files f ON f.user_id = u2.id
			GROUP BY u2.id
		) l
		WHERE l.id = u.id AND u.storage_used_bytes <> l.total
	`
	res, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}
