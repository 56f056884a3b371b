package storage

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"pocketbook/internal/models"
)

var categoryColumns = []string{"id", "name", "user_id", "is_default"}

// visibleTo restricts categories to those owned by userID or flagged default.
func visibleTo(userID int64) sq.Or {
	return sq.Or{sq.Eq{"user_id": userID}, sq.Eq{"is_default": true}}
}

// EnsureCategory inserts a category named name for the given owner unless one
// with that name already exists for the same owner. A nil owner addresses the
// global template rows. It reports whether a row was created.
func (q *Queries) EnsureCategory(ctx context.Context, userID *int64, name string, isDefault bool) (bool, error) {
	exists, err := q.categoryExists(ctx, userID, name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if _, err := q.CreateCategory(ctx, userID, name, isDefault); err != nil {
		return false, err
	}
	return true, nil
}

// CreateCategory inserts a category and returns it.
func (q *Queries) CreateCategory(ctx context.Context, userID *int64, name string, isDefault bool) (*models.Category, error) {
	query, args, err := psql.Insert("categories").
		Columns("name", "user_id", "is_default").
		Values(name, nullableID(userID), isDefault).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build create category")
	}

	res, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "create category %q", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "create category")
	}

	return &models.Category{ID: id, Name: name, UserID: userID, IsDefault: isDefault}, nil
}

func (q *Queries) categoryExists(ctx context.Context, userID *int64, name string) (bool, error) {
	query, args, err := psql.Select("1").
		From("categories").
		Where(sq.Eq{"name": name, "user_id": nullableID(userID)}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "build category lookup")
	}

	var one int
	err = q.q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "category lookup")
	}
	return true, nil
}

// ListVisibleCategories returns the categories userID may attach to expenses,
// ordered by name.
func (q *Queries) ListVisibleCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	query, args, err := psql.Select(categoryColumns...).
		From("categories").
		Where(visibleTo(userID)).
		OrderBy("name", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list categories")
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan category")
		}
		categories = append(categories, *c)
	}
	return categories, errors.Wrap(rows.Err(), "list categories")
}

// ListUserCategories returns only the categories owned by userID.
func (q *Queries) ListUserCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	query, args, err := psql.Select(categoryColumns...).
		From("categories").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("name", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list user categories")
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list user categories")
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan category")
		}
		categories = append(categories, *c)
	}
	return categories, errors.Wrap(rows.Err(), "list user categories")
}

// GetVisibleCategory returns the category with id if userID may use it.
func (q *Queries) GetVisibleCategory(ctx context.Context, userID, id int64) (*models.Category, error) {
	query, args, err := psql.Select(categoryColumns...).
		From("categories").
		Where(sq.Eq{"id": id}).
		Where(visibleTo(userID)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build get category")
	}

	c, err := scanCategory(q.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, "get category")
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (*models.Category, error) {
	var (
		c     models.Category
		owner sql.NullInt64
	)
	if err := s.Scan(&c.ID, &c.Name, &owner, &c.IsDefault); err != nil {
		return nil, err
	}
	if owner.Valid {
		c.UserID = &owner.Int64
	}
	return &c, nil
}
