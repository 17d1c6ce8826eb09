// Package filter converts a user's stored filters into HH API query
// parameters.
package filter

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/BarIlya77/job-search-bot-v2/internal/hh"
	"github.com/BarIlya77/job-search-bot-v2/internal/model"
)

// AreaRemote is the sentinel area value meaning "no city, remote work".
const AreaRemote = "remote"

// experienceValues is the allow-list of experience bands the API accepts.
var experienceValues = map[string]bool{
	"noExperience": true,
	"between1And3": true,
	"between3And6": true,
	"moreThan6":    true,
}

// scheduleValues maps stored schedule filters to API schedule values.
var scheduleValues = map[string]string{
	"office":   "fullDay",
	"remote":   "remote",
	"hybrid":   "flexible",
	"flexible": "flexible",
}

// employmentValues maps stored employment filters to API employment values.
var employmentValues = map[string]string{
	"fullDay":    "full",
	"partDay":    "part",
	"project":    "project",
	"internship": "probation",
}

// areaIDs resolves well-known city names to HH area ids.
var areaIDs = map[string]string{
	"москва":          "1",
	"санкт-петербург": "2",
	"екатеринбург":    "3",
	"новосибирск":     "4",
	"казань":          "88",
	"нижний новгород": "66",
	"ростов-на-дону":  "76",
	"самара":          "78",
}

// Normalizer derives HH queries from filter sets. Deterministic and free of
// I/O; malformed filter values are dropped with a log line, never raised.
type Normalizer struct {
	log *slog.Logger
}

// New returns a configured Normalizer.
func New(logger *slog.Logger) *Normalizer {
	return &Normalizer{log: logger.With("component", "filter")}
}

// Normalize builds the query for a user's filter set.
func (n *Normalizer) Normalize(filters model.FilterSet) hh.Query {
	var q hh.Query

	if profession := filters[model.FilterProfession]; profession != "" {
		q.Text = profession
	}

	if exp := filters[model.FilterExperience]; exp != "" {
		if experienceValues[exp] {
			q.Experience = exp
		} else {
			n.log.Warn("unknown experience value dropped", "value", exp)
		}
	}

	if raw := filters[model.FilterSalaryMin]; raw != "" {
		salary, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			n.log.Warn("unparsable salary filter dropped", "value", raw)
		} else {
			q.Salary = salary
			q.OnlyWithSalary = true
		}
	}

	if sched := filters[model.FilterSchedule]; sched != "" {
		if mapped, ok := scheduleValues[sched]; ok {
			q.Schedule = mapped
		} else {
			n.log.Warn("unknown schedule value dropped", "value", sched)
		}
	}

	if emp := filters[model.FilterEmployment]; emp != "" {
		if mapped, ok := employmentValues[emp]; ok {
			q.Employment = mapped
		} else {
			n.log.Warn("unknown employment value dropped", "value", emp)
		}
	}

	if area := filters[model.FilterArea]; area != "" {
		n.applyArea(&q, area)
	}

	return q
}

// applyArea resolves the stored area value: a numeric id passes through, the
// remote sentinel switches the schedule instead, and a city name goes through
// the lookup table with a free-text fallback on miss.
func (n *Normalizer) applyArea(q *hh.Query, area string) {
	if isDigits(area) {
		q.Area = area
		return
	}
	if area == AreaRemote {
		q.Schedule = "remote"
		return
	}
	if id, ok := areaIDs[strings.ToLower(strings.TrimSpace(area))]; ok {
		q.Area = id
		return
	}

	// Degraded but non-fatal: search the raw city name as text.
	n.log.Warn("area lookup miss, falling back to text search", "area", area)
	q.Text = strings.TrimSpace(q.Text + " " + area)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
