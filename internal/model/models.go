// Package model defines the shared domain types for the job search bot.
package model

import (
	"fmt"
	"time"
)

// FilterKey is one of the fixed filter types a user can configure.
type FilterKey string

const (
	FilterProfession FilterKey = "profession"
	FilterSalaryMin  FilterKey = "salary_min"
	FilterExperience FilterKey = "experience"
	FilterSchedule   FilterKey = "schedule"
	FilterEmployment FilterKey = "employment"
	FilterArea       FilterKey = "area"
)

// ParseFilterKey converts a raw string to a FilterKey, returning an error for
// unknown values.
func ParseFilterKey(s string) (FilterKey, error) {
	k := FilterKey(s)
	switch k {
	case FilterProfession, FilterSalaryMin, FilterExperience,
		FilterSchedule, FilterEmployment, FilterArea:
		return k, nil
	}
	return "", fmt.Errorf("unknown filter key %q", s)
}

// FilterSet maps filter keys to their stored values. At most one value per
// key per user; last write wins.
type FilterSet map[FilterKey]string

// User mirrors a users table row.
type User struct {
	ID         int64
	TelegramID int64
	FirstName  string
	Username   string
	IsActive   bool
	CreatedAt  time.Time
}

// Salary is an optional salary range on a vacancy. From and To are nil when
// the corresponding bound is absent.
type Salary struct {
	From     *int
	To       *int
	Currency string
}

// Vacancy is a normalised job listing fetched from the HH API.
// ID is the API's stable identifier and is treated as opaque.
type Vacancy struct {
	ID          string
	Name        string
	Employer    string
	Area        string
	Experience  string
	Schedule    string
	Employment  string
	Requirement string
	Salary      *Salary
	PublishedAt string // ISO-8601 with numeric offset, as returned by the API
	URL         string
}
