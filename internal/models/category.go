package models

// Category groups expenses. A nil UserID marks a global template row.
type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	UserID    *int64 `json:"user_id,omitempty"`
	IsDefault bool   `json:"is_default"`
}

// DefaultCategoryNames are seeded for every newly registered user.
var DefaultCategoryNames = []string{
	"Food",
	"Transport",
	"Bills",
	"Entertainment",
	"Healthcare",
	"Shopping",
	"Other",
}
