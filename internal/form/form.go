// Package form validates and normalizes the house and inspection inputs
// before anything is sent to or written by the backend.
package form

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError reports a single invalid field. Submission is blocked and no
// backend call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const maxNameLen = 200

type HouseInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type HouseFields struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
}

// Validate trims both fields, requires a name and turns a blank address into
// nil.
func (in HouseInput) Validate() (HouseFields, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return HouseFields{}, &ValidationError{Field: "name", Message: "house name is required"}
	}
	if len(name) > maxNameLen {
		return HouseFields{}, &ValidationError{Field: "name", Message: "house name is too long"}
	}
	return HouseFields{Name: name, Address: optional(in.Address)}, nil
}

type InspectionInput struct {
	Title          string `json:"title"`
	Notes          string `json:"notes"`
	InspectionDate string `json:"inspection_date"`
}

type InspectionFields struct {
	Title          string    `json:"title"`
	Notes          *string   `json:"notes"`
	InspectionDate time.Time `json:"inspection_date"`
}

// Validate trims title and notes, requires a title and a date, and turns a
// blank note into nil. A date-only value becomes midnight UTC of that day.
func (in InspectionInput) Validate() (InspectionFields, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return InspectionFields{}, &ValidationError{Field: "title", Message: "inspection title is required"}
	}
	if len(title) > maxNameLen {
		return InspectionFields{}, &ValidationError{Field: "title", Message: "inspection title is too long"}
	}

	raw := strings.TrimSpace(in.InspectionDate)
	if raw == "" {
		return InspectionFields{}, &ValidationError{Field: "inspection_date", Message: "inspection date is required"}
	}
	date, err := ParseDate(raw)
	if err != nil {
		return InspectionFields{}, &ValidationError{Field: "inspection_date", Message: "inspection date must be YYYY-MM-DD"}
	}

	return InspectionFields{Title: title, Notes: optional(in.Notes), InspectionDate: date}, nil
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// DateInput formats t the way the date field of an edit form is pre-populated.
func DateInput(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
