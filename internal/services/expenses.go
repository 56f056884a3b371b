package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pocketbook/internal/metrics"
	"pocketbook/internal/models"
	"pocketbook/internal/storage"
)

const maxCategoryNameLength = 100

var (
	minAmount = decimal.New(1, -2)
	// max_digits 10 with 2 decimal places leaves 8 integer digits.
	amountLimit = decimal.New(1, 8)
)

// ExpenseInput is the submitted expense form. Every field is raw text.
type ExpenseInput struct {
	Amount     string
	Date       string
	Note       string
	CategoryID string
}

// ListFilter holds the raw query parameters of the expense list.
type ListFilter struct {
	Category string
	Month    string
}

// ExpenseService implements owner-scoped expense and category operations.
type ExpenseService struct {
	db  *storage.DB
	log *zap.Logger
	now func() time.Time
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(db *storage.DB, log *zap.Logger) *ExpenseService {
	return &ExpenseService{db: db, log: log, now: time.Now}
}

// AddExpense validates in and stores it as a new expense owned by userID.
func (s *ExpenseService) AddExpense(ctx context.Context, userID int64, in ExpenseInput) (*models.Expense, error) {
	e := &models.Expense{UserID: userID}
	if err := s.apply(ctx, e, in); err != nil {
		return nil, err
	}

	if err := s.db.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	metrics.ExpenseOperation("create")
	s.log.Debug("expense created", zap.Int64("user_id", userID), zap.Int64("expense_id", e.ID))
	return e, nil
}

// GetExpense returns the expense with id if userID owns it, storage.ErrNotFound otherwise.
func (s *ExpenseService) GetExpense(ctx context.Context, userID, id int64) (*models.Expense, error) {
	return s.db.GetExpense(ctx, userID, id)
}

// EditExpense replaces the mutable fields of an owned expense. On a
// validation error the stored row is left untouched.
func (s *ExpenseService) EditExpense(ctx context.Context, userID, id int64, in ExpenseInput) (*models.Expense, error) {
	e, err := s.db.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, e, in); err != nil {
		return nil, err
	}

	if err := s.db.UpdateExpense(ctx, e); err != nil {
		return nil, err
	}

	metrics.ExpenseOperation("update")
	s.log.Debug("expense updated", zap.Int64("user_id", userID), zap.Int64("expense_id", id))
	return s.db.GetExpense(ctx, userID, id)
}

// DeleteExpense removes an owned expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id int64) error {
	if err := s.db.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}

	metrics.ExpenseOperation("delete")
	s.log.Debug("expense deleted", zap.Int64("user_id", userID), zap.Int64("expense_id", id))
	return nil
}

// ListExpenses returns the expenses of userID narrowed by f.
//
// Category "all" or "" disables the category filter; any other value must be
// a numeric id and is matched exactly without an ownership check. Month is a
// YYYY-MM token; one that does not split into a numeric year and month is
// ErrInvalidMonth.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID int64, f ListFilter) ([]models.Expense, error) {
	var filter storage.ExpenseFilter

	if f.Category != "" && f.Category != "all" {
		id, err := strconv.ParseInt(f.Category, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidCategory, "category %q", f.Category)
		}
		filter.CategoryID = &id
	}

	if f.Month != "" {
		year, month, err := ParseMonth(f.Month)
		if err != nil {
			return nil, err
		}
		if month < time.January || month > time.December {
			return nil, nil
		}
		start := now.With(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)).BeginningOfMonth()
		filter.From = start
		filter.To = start.AddDate(0, 1, 0)
	}

	return s.db.ListExpenses(ctx, userID, filter)
}

// ParseMonth splits a YYYY-MM token. The month is not range checked.
func ParseMonth(token string) (int, time.Month, error) {
	parts := strings.Split(token, "-")
	if len(parts) != 2 {
		return 0, 0, errors.Wrapf(ErrInvalidMonth, "month %q", token)
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, errors.Wrapf(ErrInvalidMonth, "month %q", token)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, errors.Wrapf(ErrInvalidMonth, "month %q", token)
	}
	return year, time.Month(month), nil
}

// VisibleCategories returns the categories userID may choose from.
func (s *ExpenseService) VisibleCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	return s.db.ListVisibleCategories(ctx, userID)
}

// AddCategory creates a personal category for userID.
func (s *ExpenseService) AddCategory(ctx context.Context, userID int64, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)

	verr := &ValidationError{}
	switch {
	case name == "":
		verr.Add("name", msgRequired)
	case len([]rune(name)) > maxCategoryNameLength:
		verr.Add("name", "Ensure this value has at most 100 characters.")
	}
	if err := verr.err(); err != nil {
		return nil, err
	}

	owned, err := s.db.ListUserCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range owned {
		if strings.EqualFold(c.Name, name) {
			verr.Add("name", "You already have a category with this name.")
			return nil, verr
		}
	}

	c, err := s.db.CreateCategory(ctx, &userID, name, false)
	if err != nil {
		return nil, err
	}
	s.log.Debug("category created", zap.Int64("user_id", userID), zap.Int64("category_id", c.ID))
	return c, nil
}

// apply validates in and copies it onto e. e is only modified when every
// field is valid.
func (s *ExpenseService) apply(ctx context.Context, e *models.Expense, in ExpenseInput) error {
	verr := &ValidationError{}

	amount := parseAmount(strings.TrimSpace(in.Amount), verr)

	// An edit without a date keeps the stored one; a new expense defaults to today.
	date := e.Date
	if date.IsZero() {
		date = s.now()
	}
	if raw := strings.TrimSpace(in.Date); raw != "" {
		d, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			verr.Add("date", "Enter a valid date.")
		} else {
			date = d
		}
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	var categoryID *int64
	if raw := strings.TrimSpace(in.CategoryID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			verr.Add("category", msgInvalidChoice)
		} else {
			c, err := s.db.GetVisibleCategory(ctx, e.UserID, id)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				verr.Add("category", msgInvalidChoice)
			case err != nil:
				return err
			default:
				categoryID = &c.ID
			}
		}
	}

	if err := verr.err(); err != nil {
		return err
	}

	e.Amount = amount
	e.Date = date
	e.Note = strings.TrimSpace(in.Note)
	e.CategoryID = categoryID
	return nil
}

// parseAmount records problems on verr and returns the zero value when raw is
// not an acceptable amount.
func parseAmount(raw string, verr *ValidationError) decimal.Decimal {
	if raw == "" {
		verr.Add("amount", msgRequired)
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		verr.Add("amount", "Enter a number.")
		return decimal.Zero
	}

	switch {
	case amount.LessThan(minAmount):
		verr.Add("amount", "Ensure this value is greater than or equal to 0.01.")
	case !amount.Equal(amount.Truncate(2)):
		verr.Add("amount", "Ensure that there are no more than 2 decimal places.")
	case amount.GreaterThanOrEqual(amountLimit):
		verr.Add("amount", "Ensure that there are no more than 10 digits in total.")
	default:
		return amount
	}
	return decimal.Zero
}
