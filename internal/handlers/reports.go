package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"pocketbook/internal/services"
	"pocketbook/internal/storage"
)

// StatsCategoryItem represents a category with its share of the period total.
type StatsCategoryItem struct {
	Category   string
	Total      decimal.Decimal
	Percentage float64
	Style      CategoryStyle
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	*services.Dashboard
	MonthName  string
	Year       int
	Categories []StatsCategoryItem
}

// SummaryViewModel is the data passed to the yearly summary template.
type SummaryViewModel struct {
	*services.Summary
	Categories []StatsCategoryItem
}

// Dashboard renders the current month overview.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	dash, err := h.reports.Dashboard(r.Context(), user.ID, h.now())
	if err != nil {
		h.serverError(w, r, "dashboard", err)
		return
	}

	h.render(w, r, "dashboard.html", DashboardViewModel{
		Dashboard:  dash,
		MonthName:  dash.Month.Month().String(),
		Year:       dash.Month.Year(),
		Categories: statsItems(dash.CategoryBreakdown, dash.MonthlyTotal),
	})
}

// Summary renders the yearly report. An unparseable year falls back to the
// current one.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	summary, err := h.reports.Summary(r.Context(), user.ID, r.URL.Query().Get("year"), h.now())
	if err != nil {
		h.serverError(w, r, "summary", err)
		return
	}

	h.render(w, r, "summary.html", SummaryViewModel{
		Summary:    summary,
		Categories: statsItems(summary.CategoryTotals, summary.YearlyTotal),
	})
}

func statsItems(totals []storage.CategoryTotal, total decimal.Decimal) []StatsCategoryItem {
	items := make([]StatsCategoryItem, 0, len(totals))
	for _, ct := range totals {
		percentage := 0.0
		if total.IsPositive() {
			percentage = ct.Total.Div(total).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
		}
		items = append(items, StatsCategoryItem{
			Category:   ct.Name,
			Total:      ct.Total,
			Percentage: percentage,
			Style:      getCategoryStyle(ct.Name),
		})
	}
	return items
}
