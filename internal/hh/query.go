package hh

import (
	"net/url"
	"strconv"
	"time"
)

// Query is the gateway-ready parameter set derived from a user's filters.
// Zero-valued fields are omitted from the request. Never persisted.
type Query struct {
	Text           string
	Experience     string
	Salary         int
	OnlyWithSalary bool
	Schedule       string
	Employment     string
	Area           string // numeric area id as a string
	PerPage        int
	Page           int
	OrderBy        string
	DateFrom       string // YYYY-MM-DD
}

// Background returns a copy of q with the parameters the scheduler forces on
// every automatic check: freshest first, small page, last 24 hours only.
func (q Query) Background(now time.Time) Query {
	q.OrderBy = "publication_time"
	q.PerPage = backgroundPageSize
	q.DateFrom = now.Add(-24 * time.Hour).Format("2006-01-02")
	return q
}

// values serialises the query for transmission. Numbers and booleans become
// their canonical string forms; search_field is only sent alongside a
// non-empty text parameter, which the API otherwise rejects.
func (q Query) values() url.Values {
	params := url.Values{}

	if q.Text != "" {
		params.Set("text", q.Text)
		params.Set("search_field", "name")
	}
	if q.Experience != "" {
		params.Set("experience", q.Experience)
	}
	if q.Salary > 0 {
		params.Set("salary", strconv.Itoa(q.Salary))
		params.Set("only_with_salary", strconv.FormatBool(q.OnlyWithSalary))
	}
	if q.Schedule != "" {
		params.Set("schedule", q.Schedule)
	}
	if q.Employment != "" {
		params.Set("employment", q.Employment)
	}

	// Moscow unless the filters said otherwise.
	area := q.Area
	if area == "" {
		area = defaultArea
	}
	params.Set("area", area)

	perPage := q.PerPage
	if perPage == 0 {
		perPage = backgroundPageSize
	}
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(q.Page))

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "publication_time"
	}
	params.Set("order_by", orderBy)

	if q.DateFrom != "" {
		params.Set("date_from", q.DateFrom)
	}

	return params
}
