package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"pocketbook/internal/models"
)

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// CreateSession stores a new session.
func (q *Queries) CreateSession(ctx context.Context, s models.Session) error {
	_, err := q.q.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		s.Token, s.UserID, s.ExpiresAt.UTC(), time.Now().UTC(),
	)
	return errors.Wrap(err, "create session")
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (q *Queries) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	info, err := q.ValidateSessionWithInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (q *Queries) ValidateSessionWithInfo(ctx context.Context, token string) (*SessionInfo, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, time.Now().UTC())

	var u models.User
	var lastActivity, expiresAt time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &lastActivity, &expiresAt); err != nil {
		return nil, notFound(err, "validate session")
	}
	return &SessionInfo{
		User:         &u,
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (q *Queries) RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error {
	_, err := q.q.ExecContext(ctx,
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		time.Now().UTC(), newExpiresAt.UTC(), token,
	)
	return errors.Wrap(err, "renew session")
}

// DeleteSession removes a session by token.
func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.q.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return errors.Wrap(err, "delete session")
}

// CleanExpiredSessions removes all expired sessions and returns how many were removed.
func (q *Queries) CleanExpiredSessions(ctx context.Context) (int64, error) {
	res, err := q.q.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, errors.Wrap(err, "clean expired sessions")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "clean expired sessions")
}
