package services

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidMonth is returned when a month filter cannot be split into a year and a month.
	ErrInvalidMonth = errors.New("invalid month filter, expected YYYY-MM")
	// ErrInvalidCategory is returned when a category filter is neither "all" nor a numeric id.
	ErrInvalidCategory = errors.New("invalid category filter")
)

// Messages shared by the form validators.
const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// ValidationError collects field level problems found in a submitted form.
// Nothing is persisted when one is returned.
type ValidationError struct {
	Fields map[string][]string
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Get returns the first message recorded for field, or "".
func (e *ValidationError) Get(field string) string {
	if e == nil || len(e.Fields[field]) == 0 {
		return ""
	}
	return e.Fields[field][0]
}

// Has reports whether field has at least one problem.
func (e *ValidationError) Has(field string) bool {
	return e != nil && len(e.Fields[field]) > 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// err returns e as an error when problems were recorded, nil otherwise.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsValidationError extracts a *ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
