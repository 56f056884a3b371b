package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pocketbook/internal/models"
	"pocketbook/internal/services"
	"pocketbook/internal/storage"
)

// CategoryStyle defines the visual style for a category.
type CategoryStyle struct {
	Icon  string
	Color string
}

var categoryStyles = map[string]CategoryStyle{
	"food":          {"🍽️", "#60a5fa"},
	"transport":     {"🚌", "#a78bfa"},
	"bills":         {"💡", "#fbbf24"},
	"entertainment": {"🎮", "#f472b6"},
	"healthcare":    {"🩺", "#34d399"},
	"shopping":      {"🛍️", "#fb7185"},
	"other":         {"📦", "#94a3b8"},
}

func getCategoryStyle(category string) CategoryStyle {
	if s, ok := categoryStyles[strings.ToLower(category)]; ok {
		return s
	}
	return CategoryStyle{Icon: "📦", Color: "#94a3b8"}
}

// ExpenseGroup groups expenses by date.
type ExpenseGroup struct {
	Title string
	Date  string
	Total decimal.Decimal
	Items []models.Expense
}

// ListViewModel is the data passed to the list view template.
type ListViewModel struct {
	Total            decimal.Decimal
	Groups           []ExpenseGroup
	Categories       []models.Category
	SelectedCategory string
	SelectedMonth    string
}

// FormViewModel is the data passed to the create/edit form template.
type FormViewModel struct {
	Title      string
	IsEdit     bool
	ExpenseID  int64
	Input      services.ExpenseInput
	Errors     *services.ValidationError
	Categories []models.Category
}

// DeleteViewModel is the data passed to the delete confirmation template.
type DeleteViewModel struct {
	Expense *models.Expense
}

// ListExpenses renders the filtered list of expenses.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	filter := services.ListFilter{
		Category: r.URL.Query().Get("category"),
		Month:    r.URL.Query().Get("month"),
	}

	expenses, err := h.expenses.ListExpenses(r.Context(), user.ID, filter)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMonth) || errors.Is(err, services.ErrInvalidCategory) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.serverError(w, r, "list expenses", err)
		return
	}

	categories, err := h.expenses.VisibleCategories(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, "list categories", err)
		return
	}

	groupsMap := make(map[string]*ExpenseGroup)
	total := decimal.Zero

	for _, e := range expenses {
		dateStr := e.DateString()
		if _, ok := groupsMap[dateStr]; !ok {
			groupsMap[dateStr] = &ExpenseGroup{Date: dateStr, Title: h.formatGroupTitle(e.Date)}
		}
		group := groupsMap[dateStr]
		group.Total = group.Total.Add(e.Amount)
		group.Items = append(group.Items, e)
		total = total.Add(e.Amount)
	}

	groups := make([]ExpenseGroup, 0, len(groupsMap))
	for _, g := range groupsMap {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Date > groups[j].Date })

	selected := filter.Category
	if selected == "" {
		selected = "all"
	}

	h.render(w, r, "list.html", ListViewModel{
		Total:            total,
		Groups:           groups,
		Categories:       categories,
		SelectedCategory: selected,
		SelectedMonth:    filter.Month,
	})
}

// CreateExpenseForm renders the form to create a new expense.
func (h *Handlers) CreateExpenseForm(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	categories, err := h.expenses.VisibleCategories(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, "list categories", err)
		return
	}

	h.render(w, r, "form.html", FormViewModel{
		Title:      "Add Expense",
		Input:      services.ExpenseInput{Date: h.now().Format(models.DateLayout)},
		Categories: categories,
	})
}

// CreateExpense handles the creation of a new expense.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	in, err := parseExpenseForm(r)
	if err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	if _, err := h.expenses.AddExpense(r.Context(), user.ID, in); err != nil {
		h.formError(w, r, FormViewModel{Title: "Add Expense", Input: in}, err)
		return
	}

	h.setFlash(w, "Expense added successfully!")
	h.redirectToList(w, r)
}

// EditExpenseForm renders the form to edit an owned expense.
func (h *Handlers) EditExpenseForm(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, ok := expenseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	expense, err := h.expenses.GetExpense(r.Context(), user.ID, id)
	if err != nil {
		h.lookupError(w, r, err)
		return
	}

	categories, err := h.expenses.VisibleCategories(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, "list categories", err)
		return
	}

	in := services.ExpenseInput{
		Amount: expense.Amount.StringFixed(2),
		Date:   expense.DateString(),
		Note:   expense.Note,
	}
	if expense.CategoryID != nil {
		in.CategoryID = formatID(*expense.CategoryID)
	}

	h.render(w, r, "form.html", FormViewModel{
		Title:      "Edit Expense",
		IsEdit:     true,
		ExpenseID:  expense.ID,
		Input:      in,
		Categories: categories,
	})
}

// UpdateExpense handles the update of an owned expense.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, ok := expenseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	in, err := parseExpenseForm(r)
	if err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	if _, err := h.expenses.EditExpense(r.Context(), user.ID, id, in); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.formError(w, r, FormViewModel{Title: "Edit Expense", IsEdit: true, ExpenseID: id, Input: in}, err)
		return
	}

	h.setFlash(w, "Expense updated successfully!")
	h.redirectToList(w, r)
}

// DeleteExpenseConfirm renders the confirmation page. It never mutates state.
func (h *Handlers) DeleteExpenseConfirm(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, ok := expenseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	expense, err := h.expenses.GetExpense(r.Context(), user.ID, id)
	if err != nil {
		h.lookupError(w, r, err)
		return
	}

	h.render(w, r, "confirm_delete.html", DeleteViewModel{Expense: expense})
}

// DeleteExpense removes an owned expense after confirmation.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, ok := expenseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := h.expenses.DeleteExpense(r.Context(), user.ID, id); err != nil {
		h.lookupError(w, r, err)
		return
	}

	h.setFlash(w, "Expense deleted successfully!")
	h.redirectToList(w, r)
}

// CreateCategory adds a personal category and returns to the referring form.
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	c, err := h.expenses.AddCategory(r.Context(), user.ID, r.FormValue("name"))
	if err != nil {
		if verr, ok := services.AsValidationError(err); ok {
			h.setFlash(w, verr.Get("name"))
			http.Redirect(w, r, "/expenses", http.StatusFound)
			return
		}
		h.serverError(w, r, "create category", err)
		return
	}

	h.setFlash(w, "Category \""+c.Name+"\" added successfully!")
	http.Redirect(w, r, "/expenses", http.StatusFound)
}

func (h *Handlers) formError(w http.ResponseWriter, r *http.Request, vm FormViewModel, err error) {
	verr, ok := services.AsValidationError(err)
	if !ok {
		h.serverError(w, r, "save expense", err)
		return
	}

	user := GetUserFromContext(r)
	categories, cerr := h.expenses.VisibleCategories(r.Context(), user.ID)
	if cerr != nil {
		h.serverError(w, r, "list categories", cerr)
		return
	}

	vm.Errors = verr
	vm.Categories = categories
	h.render(w, r, "form.html", vm)
}

func (h *Handlers) lookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.serverError(w, r, "expense lookup", err)
}

func (h *Handlers) redirectToList(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Location", `{"path":"/expenses", "target":"#content"}`)
		return
	}
	http.Redirect(w, r, "/expenses", http.StatusFound)
}

func parseExpenseForm(r *http.Request) (services.ExpenseInput, error) {
	if err := r.ParseForm(); err != nil {
		return services.ExpenseInput{}, err
	}
	return services.ExpenseInput{
		Amount:     r.FormValue("amount"),
		Date:       r.FormValue("date"),
		Note:       r.FormValue("note"),
		CategoryID: r.FormValue("category"),
	}, nil
}

func expenseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (h *Handlers) formatGroupTitle(date time.Time) string {
	dateStr := date.Format(models.DateLayout)
	today := h.now()

	if dateStr == today.Format(models.DateLayout) {
		return "TODAY"
	}
	if dateStr == today.AddDate(0, 0, -1).Format(models.DateLayout) {
		return "YESTERDAY"
	}
	return strings.ToUpper(date.Format("Mon, 02 Jan '06"))
}
