package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"magazyn-plikow/internal/models"
)

type SystemStats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalFiles       int64 `json:"total_files"`
	TotalStorageUsed int64 `json:"total_storage_used"`
	ActiveSessions   int64 `json:"active_sessions"`
}

// GetSystemStats counts regular users (the reserved admin is excluded)
// but sums storage across everyone, admin included.
func (q *Queries) GetSystemStats(ctx context.Context, reservedUsername string) (*SystemStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE lower(username) <> lower($1)),
			(SELECT COUNT(*) FROM files),
			(SELECT COALESCE(SUM(storage_used_bytes), 0) FROM users),
			(SELECT COUNT(*) FROM user_sessions WHERE expires_at > NOW())
	`
	var stats SystemStats
	err := q.db.QueryRow(ctx, query, reservedUsername).Scan(
		&stats.TotalUsers,
		&stats.TotalFiles,
		&stats.TotalStorageUsed,
		&stats.ActiveSessions,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

type AdminUser struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	StorageUsedBytes int64     `json:"storage_used_bytes"`
	CreatedAt        time.Time `json:"created_at"`
	FileCount        int64     `json:"file_count"`
}

func (q *Queries) ListUsersWithFileCount(ctx context.Context, reservedUsername string) ([]AdminUser, error) {
	query := `
		SELECT
			u.id, u.username, u.storage_used_bytes, u.created_at,
			(SELECT COUNT(*) FROM files f WHERE f.user_id = u.id) AS file_count
		FROM users u
		WHERE lower(u.username) <> lower($1)
		ORDER BY u.created_at DESC
	`
	rows, err := q.db.Query(ctx, query, reservedUsername)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []AdminUser
	for rows.Next() {
		var user AdminUser
		if err := rows.Scan(&user.ID, &user.Username, &user.StorageUsedBytes, &user.CreatedAt, &user.FileCount); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if users == nil {
		return []AdminUser{}, nil
	}

	return users, nil
}

type AdminFile struct {
	models.File
	Username string `json:"username"`
}

// ListFilesForUserWithOwner lists any user's files without an
// ownership check. Admin privilege only.
func (q *Queries) ListFilesForUserWithOwner(ctx context.Context, userID int64) ([]AdminFile, error) {
	query := `
		SELECT f.id, f.user_id, f.filename, f.original_name, f.mime_type, f.size_bytes, f.is_text_snippet, f.created_at, u.username
		FROM files f
		JOIN users u ON f.user_id = u.id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, f.id DESC
	`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []AdminFile
	for rows.Next() {
		var file AdminFile
		err := rows.Scan(
			&file.ID,
			&file.UserID,
			&file.Filename,
			&file.OriginalName,
			&file.MimeType,
			&file.SizeBytes,
			&file.IsTextSnippet,
			&file.CreatedAt,
			&file.Username,
		)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if files == nil {
		return []AdminFile{}, nil
	}

	return files, nil
}

// GetFileByIDAnyOwner skips the ownership check the regular read path
// enforces. Admin privilege only.
func (q *Queries) GetFileByIDAnyOwner(ctx context.Context, id int64) (*models.File, error) {
	query := `
		SELECT id, user_id, filename, original_name, mime_type, size_bytes, is_text_snippet, created_at
		FROM files
		WHERE id = $1
	`
	var file models.File
	err := q.db.QueryRow(ctx, query, id).Scan(
		&file.ID,
		&file.UserID,
		&file.Filename,
		&file.OriginalName,
		&file.MimeType,
		&file.SizeBytes,
		&file.IsTextSnippet,
		&file.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &file, nil
}

func (q *Queries) GetUserPayloadKeys(ctx context.Context, userID int64) ([]string, error) {
	rows, err := q.db.Query(ctx, `SELECT filename FROM files WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// DeleteUserRow refuses to match the reserved admin, so the admin
// account can never be deleted, by id or otherwise.
func (q *Queries) DeleteUserRow(ctx context.Context, userID int64, reservedUsername string) (bool, error) {
	query := `DELETE FROM users WHERE id = $1 AND lower(username) <> lower($2)`
	res, err := q.db.Exec(ctx, query, userID, reservedUsername)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// DeleteUser removes a user row; sessions, files and journal entries
// go with it via ON DELETE CASCADE. The collected payload keys are
// returned so the caller can unlink the payloads after commit.
func (s *Store) DeleteUser(ctx context.Context, userID int64, reservedUsername string) ([]string, error) {
	var keys []string

	err := s.ExecTx(ctx, func(q *Queries) error {
		// Lock the user row first. Every upload reserves quota against
		// this row in its own transaction, so no new file row can
		// commit between the key snapshot and the cascade delete.
		var lockedID int64
		err := q.db.QueryRow(ctx,
			`SELECT id FROM users WHERE id = $1 AND lower(username) <> lower($2) FOR UPDATE`,
			userID, reservedUsername,
		).Scan(&lockedID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}

		collected, err := q.GetUserPayloadKeys(ctx, userID)
		if err != nil {
			return err
		}

		deleted, err := q.DeleteUserRow(ctx, userID, reservedUsername)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrUserNotFound
		}

		keys = collected
		return nil
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}

// DeleteAnyFile removes a file regardless of owner and releases the
// owner's ledger entry, not the admin's. Returns the deleted record
// for payload cleanup.
func (s *Store) DeleteAnyFile(ctx context.Context, fileID int64) (*models.File, error) {
	var file *models.File

	err := s.ExecTx(ctx, func(q *Queries) error {
		found, err := q.GetFileByIDAnyOwner(ctx, fileID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrFileNotFound
		}

		deleted, err := q.DeleteFileRow(ctx, found.ID)
		if err != nil {
			return err
		}
		if !deleted {
			// Lost the race against another delete; the winner already
			// released the owner's quota.
			return ErrFileNotFound
		}
		if _, err := q.ReleaseStorage(ctx, found.UserID, found.SizeBytes); err != nil {
			return err
		}

		file = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return file, nil
}
