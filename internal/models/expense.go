package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for expense dates.
const DateLayout = "2006-01-02"

// Expense represents a single spending record owned by one user.
type Expense struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Note       string          `json:"note"`
	CategoryID *int64          `json:"category_id,omitempty"`
	// CategoryName is empty when the expense is uncategorized.
	CategoryName string    `json:"category_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DateString returns the expense date formatted for forms.
func (e Expense) DateString() string {
	return e.Date.Format(DateLayout)
}
