package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"magazyn-plikow/internal/models"
)

type CreateSessionParams struct {
	ID           uuid.UUID
	UserID       int64
	SessionToken string
	UserAgent    string
	ClientIP     string
	ExpiresAt    time.Time
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	query := `
		INSERT INTO user_sessions (id, user_id, session_token, user_agent, client_ip, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.db.Exec(ctx, query, arg.ID, arg.UserID, arg.SessionToken, arg.UserAgent, arg.ClientIP, arg.ExpiresAt)
	return err
}

// GetUserBySessionToken resolves a bearer token to its user. Expired
// sessions are rejected here; the rows are left for the cascade on
// user deletion to clean up.
func (q *Queries) GetUserBySessionToken(ctx context.Context, token string) (*models.User, error) {
	query := `
		SELECT u.id, u.username, u.password_hash, u.created_at, u.storage_quota_bytes, u.storage_used_bytes
		FROM users u
		JOIN user_sessions s ON u.id = s.user_id
		WHERE s.session_token = $1 AND s.expires_at > NOW()
	`
	var user models.User
	err := q.db.QueryRow(ctx, query, token).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.StorageQuotaBytes,
		&user.StorageUsedBytes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// DeleteSessionByToken is idempotent: deleting an unknown token is not
// an error.
func (q *Queries) DeleteSessionByToken(ctx context.Context, token string) error {
	query := `DELETE FROM user_sessions WHERE session_token = $1`
	_, err := q.db.Exec(ctx, query, token)
	return err
}

func (q *Queries) ListSessionsForUser(ctx context.Context, userID int64) ([]models.Session, error) {
	query := `
		SELECT id, user_id, user_agent, client_ip, expires_at, created_at
		FROM user_sessions
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY created_at DESC
	`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.UserAgent,
			&session.ClientIP,
			&session.ExpiresAt,
			&session.CreatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if sessions == nil {
		return []models.Session{}, nil
	}

	return sessions, nil
}
