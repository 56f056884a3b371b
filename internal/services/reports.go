package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"

	"pocketbook/internal/models"
	"pocketbook/internal/storage"
)

const recentExpenses = 5

// Dashboard is the current month overview.
type Dashboard struct {
	Month             time.Time
	Recent            []models.Expense
	MonthlyTotal      decimal.Decimal
	CategoryBreakdown []storage.CategoryTotal
}

// MonthTotal is the spending of one month with a non-zero total.
type MonthTotal struct {
	Month time.Month
	Total decimal.Decimal
}

// Name returns the English month name.
func (m MonthTotal) Name() string {
	return m.Month.String()
}

// Summary is the yearly report.
type Summary struct {
	SelectedYear int
	// MonthlyTotals omits months without spending.
	MonthlyTotals  []MonthTotal
	CategoryTotals []storage.CategoryTotal
	YearlyTotal    decimal.Decimal
	// AvgMonthly averages only the months listed in MonthlyTotals.
	AvgMonthly     decimal.Decimal
	AvailableYears []int
}

// ReportService computes read-only aggregates over a user's expenses.
type ReportService struct {
	db *storage.DB
}

// NewReportService creates a new ReportService.
func NewReportService(db *storage.DB) *ReportService {
	return &ReportService{db: db}
}

// Dashboard returns the five most recent expenses of userID together with the
// totals of the calendar month containing ref.
func (s *ReportService) Dashboard(ctx context.Context, userID int64, ref time.Time) (*Dashboard, error) {
	recent, err := s.db.ListExpenses(ctx, userID, storage.ExpenseFilter{Limit: recentExpenses})
	if err != nil {
		return nil, err
	}

	start := now.With(calendarDay(ref)).BeginningOfMonth()
	end := start.AddDate(0, 1, 0)

	total, err := s.db.SumExpenses(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.db.CategoryTotals(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Month:             start,
		Recent:            recent,
		MonthlyTotal:      total,
		CategoryBreakdown: breakdown,
	}, nil
}

// Summary builds the yearly report for userID. yearParam falls back to the
// year of ref when it is empty or not an integer.
func (s *ReportService) Summary(ctx context.Context, userID int64, yearParam string, ref time.Time) (*Summary, error) {
	year := ResolveYear(yearParam, ref)

	byMonth, err := s.db.MonthlyTotals(ctx, userID, year)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		SelectedYear: year,
		YearlyTotal:  decimal.Zero,
		AvgMonthly:   decimal.Zero,
	}

	// Months with no spending are left out, and the average is taken over
	// the remaining months rather than all twelve.
	sum := decimal.Zero
	for m := time.January; m <= time.December; m++ {
		total, ok := byMonth[m]
		if !ok || !total.IsPositive() {
			continue
		}
		summary.MonthlyTotals = append(summary.MonthlyTotals, MonthTotal{Month: m, Total: total})
		sum = sum.Add(total)
	}
	if n := len(summary.MonthlyTotals); n > 0 {
		summary.AvgMonthly = sum.Div(decimal.NewFromInt(int64(n)))
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	summary.CategoryTotals, err = s.db.CategoryTotals(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	summary.YearlyTotal, err = s.db.SumExpenses(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	summary.AvailableYears, err = s.db.ExpenseYears(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(summary.AvailableYears) == 0 {
		summary.AvailableYears = []int{ref.Year()}
	}

	return summary, nil
}

// ResolveYear parses yearParam, using the year of ref when it is absent or
// not an integer.
func ResolveYear(yearParam string, ref time.Time) int {
	if y, err := strconv.Atoi(strings.TrimSpace(yearParam)); err == nil {
		return y
	}
	return ref.Year()
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
