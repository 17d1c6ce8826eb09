package filter_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/BarIlya77/job-search-bot-v2/internal/filter"
	"github.com/BarIlya77/job-search-bot-v2/internal/hh"
	"github.com/BarIlya77/job-search-bot-v2/internal/model"
)

func newNormalizer() *filter.Normalizer {
	return filter.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ── Full filter set ────────────────────────────────────────────────────────

func TestNormalize_AllFilters(t *testing.T) {
	n := newNormalizer()
	q := n.Normalize(model.FilterSet{
		model.FilterProfession: "Go разработчик",
		model.FilterExperience: "between1And3",
		model.FilterSalaryMin:  "150000",
		model.FilterSchedule:   "office",
		model.FilterEmployment: "fullDay",
		model.FilterArea:       "1",
	})

	if q.Text != "Go разработчик" {
		t.Errorf("Text = %q, want %q", q.Text, "Go разработчик")
	}
	if q.Experience != "between1And3" {
		t.Errorf("Experience = %q, want between1And3", q.Experience)
	}
	if q.Salary != 150000 {
		t.Errorf("Salary = %d, want 150000", q.Salary)
	}
	if !q.OnlyWithSalary {
		t.Error("OnlyWithSalary should be true when a salary filter is set")
	}
	if q.Schedule != "fullDay" {
		t.Errorf("Schedule = %q, want fullDay (office maps to fullDay)", q.Schedule)
	}
	if q.Employment != "full" {
		t.Errorf("Employment = %q, want full (fullDay maps to full)", q.Employment)
	}
	if q.Area != "1" {
		t.Errorf("Area = %q, want 1", q.Area)
	}
}

func TestNormalize_EmptySet(t *testing.T) {
	q := newNormalizer().Normalize(model.FilterSet{})
	if q.Text != "" || q.Experience != "" || q.Salary != 0 || q.OnlyWithSalary {
		t.Errorf("empty filter set should produce a zero query, got %+v", q)
	}
}

// ── Malformed values are dropped, never raised ─────────────────────────────

func TestNormalize_DropsMalformedValues(t *testing.T) {
	cases := []struct {
		name    string
		filters model.FilterSet
		check   func(t *testing.T, q hh.Query)
	}{
		{
			name:    "unknown experience",
			filters: model.FilterSet{model.FilterExperience: "senior"},
			check: func(t *testing.T, q hh.Query) {
				if q.Experience != "" {
					t.Errorf("Experience = %q, want dropped", q.Experience)
				}
			},
		},
		{
			name:    "unparsable salary",
			filters: model.FilterSet{model.FilterSalaryMin: "сто тысяч"},
			check: func(t *testing.T, q hh.Query) {
				if q.Salary != 0 || q.OnlyWithSalary {
					t.Errorf("malformed salary should be dropped, got Salary=%d OnlyWithSalary=%v", q.Salary, q.OnlyWithSalary)
				}
			},
		},
		{
			name:    "unknown schedule",
			filters: model.FilterSet{model.FilterSchedule: "night"},
			check: func(t *testing.T, q hh.Query) {
				if q.Schedule != "" {
					t.Errorf("Schedule = %q, want dropped", q.Schedule)
				}
			},
		},
		{
			name:    "unknown employment",
			filters: model.FilterSet{model.FilterEmployment: "gig"},
			check: func(t *testing.T, q hh.Query) {
				if q.Employment != "" {
					t.Errorf("Employment = %q, want dropped", q.Employment)
				}
			},
		},
	}

	n := newNormalizer()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, n.Normalize(tc.filters))
		})
	}
}

// ── Schedule and employment mappings ───────────────────────────────────────

func TestNormalize_ScheduleMapping(t *testing.T) {
	cases := []struct{ stored, want string }{
		{"office", "fullDay"},
		{"remote", "remote"},
		{"hybrid", "flexible"},
		{"flexible", "flexible"},
	}
	n := newNormalizer()
	for _, tc := range cases {
		q := n.Normalize(model.FilterSet{model.FilterSchedule: tc.stored})
		if q.Schedule != tc.want {
			t.Errorf("schedule %q = %q, want %q", tc.stored, q.Schedule, tc.want)
		}
	}
}

func TestNormalize_EmploymentMapping(t *testing.T) {
	cases := []struct{ stored, want string }{
		{"fullDay", "full"},
		{"partDay", "part"},
		{"project", "project"},
		{"internship", "probation"},
	}
	n := newNormalizer()
	for _, tc := range cases {
		q := n.Normalize(model.FilterSet{model.FilterEmployment: tc.stored})
		if q.Employment != tc.want {
			t.Errorf("employment %q = %q, want %q", tc.stored, q.Employment, tc.want)
		}
	}
}

// ── Area resolution ────────────────────────────────────────────────────────

func TestNormalize_AreaNumericID(t *testing.T) {
	q := newNormalizer().Normalize(model.FilterSet{model.FilterArea: "66"})
	if q.Area != "66" {
		t.Errorf("numeric area should pass through, got %q", q.Area)
	}
}

func TestNormalize_AreaRemoteSentinel(t *testing.T) {
	q := newNormalizer().Normalize(model.FilterSet{model.FilterArea: filter.AreaRemote})
	if q.Area != "" {
		t.Errorf("remote sentinel should not set Area, got %q", q.Area)
	}
	if q.Schedule != "remote" {
		t.Errorf("remote sentinel should switch Schedule to remote, got %q", q.Schedule)
	}
}

func TestNormalize_AreaKnownCity(t *testing.T) {
	cases := []struct{ city, want string }{
		{"Москва", "1"},
		{"санкт-петербург", "2"},
		{"Казань", "88"},
	}
	n := newNormalizer()
	for _, tc := range cases {
		q := n.Normalize(model.FilterSet{model.FilterArea: tc.city})
		if q.Area != tc.want {
			t.Errorf("area %q = %q, want %q", tc.city, q.Area, tc.want)
		}
	}
}

func TestNormalize_AreaUnknownCityFallsBackToText(t *testing.T) {
	q := newNormalizer().Normalize(model.FilterSet{
		model.FilterProfession: "тестировщик",
		model.FilterArea:       "Урюпинск",
	})
	if q.Area != "" {
		t.Errorf("unknown city should not set Area, got %q", q.Area)
	}
	if q.Text != "тестировщик Урюпинск" {
		t.Errorf("unknown city should be appended to Text, got %q", q.Text)
	}
}

func TestNormalize_AreaUnknownCityWithoutProfession(t *testing.T) {
	q := newNormalizer().Normalize(model.FilterSet{model.FilterArea: "Урюпинск"})
	if q.Text != "Урюпинск" {
		t.Errorf("Text = %q, want %q", q.Text, "Урюпинск")
	}
}
