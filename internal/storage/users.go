package storage

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"pocketbook/internal/models"
)

// ErrUsernameTaken is returned when a username is already registered.
var ErrUsernameTaken = errors.New("username already exists")

const userColumns = "id, username, email, password_hash, created_at"

// CreateUser creates a new user with the given username, email and password hash.
func (q *Queries) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	query, args, err := psql.Insert("users").
		Columns("username", "email", "password_hash", "created_at").
		Values(username, email, passwordHash, time.Now().UTC()).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build create user")
	}

	result, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrUsernameTaken
		}
		return nil, errors.Wrap(err, "create user")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	return q.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?",
		id,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, notFound(err, "get user")
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?",
		username,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, notFound(err, "get user by username")
	}
	return &u, nil
}

// UsernameExists reports whether username is already registered.
func (q *Queries) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := q.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)",
		username,
	).Scan(&exists)
	return exists, errors.Wrap(err, "check username")
}

// UserCount returns the number of users in the database.
func (q *Queries) UserCount(ctx context.Context) (int, error) {
	var count int
	err := q.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, errors.Wrap(err, "count users")
}
