package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"magazyn-plikow/internal/models"
)

var ErrFileNotFound = errors.New("file not found")

type CreateFileParams struct {
	UserID        int64
	Filename      string
	OriginalName  string
	MimeType      string
	SizeBytes     int64
	IsTextSnippet bool
}

func (q *Queries) InsertFile(ctx context.Context, arg CreateFileParams) (*models.File, error) {
	query := `
		INSERT INTO files (user_id, filename, original_name, mime_type, size_bytes, is_text_snippet)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, filename, original_name, mime_type, size_bytes, is_text_snippet, created_at
	`
	var file models.File
	err := q.db.QueryRow(ctx, query,
		arg.UserID,
		arg.Filename,
		arg.OriginalName,
		arg.MimeType,
		arg.SizeBytes,
		arg.IsTextSnippet,
	).Scan(
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
		return nil, err
	}

	return &file, nil
}

// GetFileByID is ownership-scoped: a file that exists but belongs to
// another user is indistinguishable from a missing one.
func (q *Queries) GetFileByID(ctx context.Context, id int64, userID int64) (*models.File, error) {
	query := `
		SELECT id, user_id, filename, original_name, mime_type, size_bytes, is_text_snippet, created_at
		FROM files
		WHERE id = $1 AND user_id = $2
	`
	var file models.File
	err := q.db.QueryRow(ctx, query, id, userID).Scan(
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

func (q *Queries) ListFilesForUser(ctx context.Context, userID int64) ([]models.File, error) {
	query := `
		SELECT id, user_id, filename, original_name, mime_type, size_bytes, is_text_snippet, created_at
		FROM files
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var file models.File
		err := rows.Scan(
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
			return nil, err
		}
		files = append(files, file)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if files == nil {
		return []models.File{}, nil
	}

	return files, nil
}

func (q *Queries) DeleteFileRow(ctx context.Context, id int64) (bool, error) {
	res, err := q.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// CreateFile reserves quota and inserts the file row in a single
// transaction, so the counter and the row can never diverge. The
// payload must already be persisted; the caller removes it again when
// this returns an error.
func (s *Store) CreateFile(ctx context.Context, arg CreateFileParams) (*models.File, error) {
	var file *models.File

	err := s.ExecTx(ctx, func(q *Queries) error {
		if _, err := q.ReserveStorage(ctx, arg.UserID, arg.SizeBytes); err != nil {
			return err
		}

		created, err := q.InsertFile(ctx, arg)
		if err != nil {
			return err
		}
		file = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return file, nil
}

// DeleteFile removes the row and releases the owner's quota in one
// transaction, returning the deleted record so the caller can unlink
// the payload after commit.
func (s *Store) DeleteFile(ctx context.Context, id int64, userID int64) (*models.File, error) {
	var file *models.File

	err := s.ExecTx(ctx, func(q *Queries) error {
		found, err := q.GetFileByID(ctx, id, userID)
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
			// A concurrent delete won between the read and the DELETE;
			// only the transaction that removed the row may release
			// its quota.
			return ErrFileNotFound
		}
		if _, err := q.ReleaseStorage(ctx, userID, found.SizeBytes); err != nil {
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
