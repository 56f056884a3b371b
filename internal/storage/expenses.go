package storage

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"pocketbook/internal/models"
)

// ExpenseFilter narrows ListExpenses. Zero values disable a criterion.
type ExpenseFilter struct {
	CategoryID *int64
	// From is inclusive and To exclusive; both are compared by calendar date.
	From  time.Time
	To    time.Time
	Limit uint64
}

// CategoryTotal is the summed amount for one category name.
type CategoryTotal struct {
	Name  string
	Total decimal.Decimal
}

var expenseSelect = psql.Select(
	"e.id", "e.user_id", "e.amount_cents", "e.spent_on", "e.note",
	"e.category_id", "COALESCE(c.name, '')", "e.created_at", "e.updated_at",
).
	From("expenses e").
	LeftJoin("categories c ON c.id = e.category_id")

// CreateExpense inserts e, filling in its ID and timestamps.
func (q *Queries) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	now := time.Now().UTC()

	query, args, err := psql.Insert("expenses").
		Columns("user_id", "amount_cents", "spent_on", "note", "category_id", "created_at", "updated_at").
		Values(e.UserID, toCents(e.Amount), e.Date.Format(models.DateLayout), e.Note, nullableID(e.CategoryID), now, now).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build create expense")
	}

	res, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "create expense")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "create expense")
	}

	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetExpense retrieves the expense with id owned by userID. Expenses owned by
// other users are reported as ErrNotFound.
func (q *Queries) GetExpense(ctx context.Context, userID, id int64) (*models.Expense, error) {
	query, args, err := expenseSelect.
		Where(sq.Eq{"e.id": id, "e.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build get expense")
	}

	e, err := scanExpense(q.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, "get expense")
	}
	return e, nil
}

// UpdateExpense writes every mutable field of e. The owner is part of the
// predicate, so a foreign expense yields ErrNotFound.
func (q *Queries) UpdateExpense(ctx context.Context, e *models.Expense) error {
	now := time.Now().UTC()

	query, args, err := psql.Update("expenses").
		Set("amount_cents", toCents(e.Amount)).
		Set("spent_on", e.Date.Format(models.DateLayout)).
		Set("note", e.Note).
		Set("category_id", nullableID(e.CategoryID)).
		Set("updated_at", now).
		Where(sq.Eq{"id": e.ID, "user_id": e.UserID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build update expense")
	}

	res, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "update expense")
	}
	if err := requireRow(res); err != nil {
		return err
	}

	e.UpdatedAt = now
	return nil
}

// DeleteExpense removes the expense with id owned by userID.
func (q *Queries) DeleteExpense(ctx context.Context, userID, id int64) error {
	query, args, err := psql.Delete("expenses").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build delete expense")
	}

	res, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "delete expense")
	}
	return requireRow(res)
}

// ListExpenses returns the expenses of userID matching f, most recent date
// first with the most recently created first among equal dates.
func (q *Queries) ListExpenses(ctx context.Context, userID int64, f ExpenseFilter) ([]models.Expense, error) {
	b := expenseSelect.
		Where(sq.Eq{"e.user_id": userID}).
		OrderBy("e.spent_on DESC", "e.created_at DESC", "e.id DESC")

	if f.CategoryID != nil {
		b = b.Where(sq.Eq{"e.category_id": *f.CategoryID})
	}
	b = withDateRange(b, "e.spent_on", f.From, f.To)
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list expenses")
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan expense")
		}
		expenses = append(expenses, *e)
	}

	return expenses, errors.Wrap(rows.Err(), "list expenses")
}

// SumExpenses returns the total amount userID spent in [from, to).
func (q *Queries) SumExpenses(ctx context.Context, userID int64, from, to time.Time) (decimal.Decimal, error) {
	b := psql.Select("COALESCE(SUM(amount_cents), 0)").
		From("expenses").
		Where(sq.Eq{"user_id": userID})
	b = withDateRange(b, "spent_on", from, to)

	query, args, err := b.ToSql()
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "build sum expenses")
	}

	var cents int64
	if err := q.q.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return decimal.Zero, errors.Wrap(err, "sum expenses")
	}
	return fromCents(cents), nil
}

// CategoryTotals sums the expenses of userID in [from, to) by category name,
// largest total first. Uncategorized expenses are grouped under an empty name.
func (q *Queries) CategoryTotals(ctx context.Context, userID int64, from, to time.Time) ([]CategoryTotal, error) {
	b := psql.Select("COALESCE(c.name, '') AS name", "SUM(e.amount_cents) AS total").
		From("expenses e").
		LeftJoin("categories c ON c.id = e.category_id").
		Where(sq.Eq{"e.user_id": userID}).
		GroupBy("c.name").
		OrderBy("total DESC", "name")
	b = withDateRange(b, "e.spent_on", from, to)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build category totals")
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "category totals")
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var (
			name  string
			cents int64
		)
		if err := rows.Scan(&name, &cents); err != nil {
			return nil, errors.Wrap(err, "scan category total")
		}
		totals = append(totals, CategoryTotal{Name: name, Total: fromCents(cents)})
	}
	return totals, errors.Wrap(rows.Err(), "category totals")
}

// MonthlyTotals returns the amount userID spent per month of year, keyed by
// month number. Months without expenses are absent.
func (q *Queries) MonthlyTotals(ctx context.Context, userID int64, year int) (map[time.Month]decimal.Decimal, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	b := psql.Select("CAST(substr(spent_on, 6, 2) AS INTEGER) AS month", "SUM(amount_cents)").
		From("expenses").
		Where(sq.Eq{"user_id": userID}).
		GroupBy("month")
	b = withDateRange(b, "spent_on", from, from.AddDate(1, 0, 0))

	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build monthly totals")
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "monthly totals")
	}
	defer rows.Close()

	totals := make(map[time.Month]decimal.Decimal)
	for rows.Next() {
		var month, cents int64
		if err := rows.Scan(&month, &cents); err != nil {
			return nil, errors.Wrap(err, "scan monthly total")
		}
		totals[time.Month(month)] = fromCents(cents)
	}
	return totals, errors.Wrap(rows.Err(), "monthly totals")
}

// ExpenseYears returns the distinct years in which userID has expenses, newest first.
func (q *Queries) ExpenseYears(ctx context.Context, userID int64) ([]int, error) {
	query, args, err := psql.Select("DISTINCT CAST(substr(spent_on, 1, 4) AS INTEGER) AS year").
		From("expenses").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("year DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build expense years")
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "expense years")
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, errors.Wrap(err, "scan expense year")
		}
		years = append(years, y)
	}
	return years, errors.Wrap(rows.Err(), "expense years")
}

func withDateRange(b sq.SelectBuilder, column string, from, to time.Time) sq.SelectBuilder {
	if !from.IsZero() {
		b = b.Where(sq.GtOrEq{column: from.Format(models.DateLayout)})
	}
	if !to.IsZero() {
		b = b.Where(sq.Lt{column: to.Format(models.DateLayout)})
	}
	return b
}

func scanExpense(s scanner) (*models.Expense, error) {
	var (
		e        models.Expense
		cents    int64
		spentOn  string
		category sql.NullInt64
	)
	if err := s.Scan(&e.ID, &e.UserID, &cents, &spentOn, &e.Note, &category, &e.CategoryName, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}

	date, err := time.Parse(models.DateLayout, spentOn)
	if err != nil {
		return nil, errors.Wrapf(err, "parse expense date %q", spentOn)
	}
	e.Date = date
	e.Amount = fromCents(cents)
	if category.Valid {
		e.CategoryID = &category.Int64
	}
	return &e, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// nullableID maps an optional id to a value bound as NULL, which squirrel's
// Eq renders as IS NULL.
func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
