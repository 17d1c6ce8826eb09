package hh_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/BarIlya77/job-search-bot-v2/internal/hh"
)

func newClient(t *testing.T, handler http.HandlerFunc) *hh.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return hh.NewClient(srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const sampleResponse = `{
	"found": 2,
	"pages": 1,
	"items": [
		{
			"id": "101",
			"name": "Go-разработчик",
			"employer": {"name": "Рога и Копыта"},
			"salary": {"from": 150000, "to": 250000, "currency": "RUR"},
			"area": {"name": "Москва"},
			"experience": {"name": "От 1 года до 3 лет"},
			"schedule": {"name": "Удаленная работа"},
			"employment": {"name": "Полная занятость"},
			"snippet": {"requirement": "Опыт с Go от года"},
			"alternate_url": "https://hh.ru/vacancy/101",
			"published_at": "2024-05-17T10:00:00+0300"
		},
		{
			"id": "102",
			"name": "Backend-разработчик",
			"employer": {"name": "ООО Вектор"},
			"salary": null,
			"area": {"name": "Казань"},
			"experience": {"name": "Нет опыта"},
			"schedule": {"name": "Полный день"},
			"employment": {"name": "Полная занятость"},
			"snippet": {"requirement": null},
			"alternate_url": "https://hh.ru/vacancy/102",
			"published_at": "2024-05-17T09:00:00+0300"
		}
	]
}`

// ── Search: response parsing ───────────────────────────────────────────────

func TestSearch_ParsesResponse(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	})

	got := c.Search(context.Background(), hh.Query{Text: "golang"})
	if len(got) != 2 {
		t.Fatalf("got %d vacancies, want 2", len(got))
	}

	v := got[0]
	if v.ID != "101" || v.Name != "Go-разработчик" {
		t.Errorf("first vacancy = %s %q", v.ID, v.Name)
	}
	if v.Employer != "Рога и Копыта" {
		t.Errorf("Employer = %q", v.Employer)
	}
	if v.Salary == nil || *v.Salary.From != 150000 || *v.Salary.To != 250000 || v.Salary.Currency != "RUR" {
		t.Errorf("Salary = %+v", v.Salary)
	}
	if v.URL != "https://hh.ru/vacancy/101" {
		t.Errorf("URL = %q", v.URL)
	}
	if v.PublishedAt != "2024-05-17T10:00:00+0300" {
		t.Errorf("PublishedAt = %q", v.PublishedAt)
	}

	if got[1].Salary != nil {
		t.Error("null salary should map to nil")
	}
	if got[1].Requirement != "" {
		t.Errorf("null requirement should map to empty string, got %q", got[1].Requirement)
	}
}

// ── Search: query serialization ────────────────────────────────────────────

func TestSearch_QuerySerialization(t *testing.T) {
	var captured url.Values
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		w.Write([]byte(`{"items": [], "found": 0, "pages": 0}`))
	})

	q := hh.Query{
		Text:           "golang",
		Experience:     "between1And3",
		Salary:         150000,
		OnlyWithSalary: true,
		Schedule:       "remote",
		Employment:     "full",
		Area:           "2",
	}.Background(time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC))

	c.Search(context.Background(), q)

	want := map[string]string{
		"text":             "golang",
		"search_field":     "name",
		"experience":       "between1And3",
		"salary":           "150000",
		"only_with_salary": "true",
		"schedule":         "remote",
		"employment":       "full",
		"area":             "2",
		"per_page":         "10",
		"page":             "0",
		"order_by":         "publication_time",
		"date_from":        "2024-05-16",
	}
	for key, v := range want {
		if got := captured.Get(key); got != v {
			t.Errorf("param %s = %q, want %q", key, got, v)
		}
	}
}

func TestSearch_OmitsSearchFieldWithoutText(t *testing.T) {
	var captured url.Values
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		w.Write([]byte(`{"items": [], "found": 0, "pages": 0}`))
	})

	c.Search(context.Background(), hh.Query{Experience: "noExperience"})

	if captured.Has("text") {
		t.Error("text should be omitted when empty")
	}
	if captured.Has("search_field") {
		t.Error("search_field must not be sent without text")
	}
	if captured.Has("salary") || captured.Has("only_with_salary") {
		t.Error("salary params should be omitted when no salary filter set")
	}
	// Moscow is the fallback area.
	if got := captured.Get("area"); got != "1" {
		t.Errorf("area = %q, want default 1", got)
	}
}

func TestSearch_SetsUserAgent(t *testing.T) {
	var ua string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte(`{"items": [], "found": 0, "pages": 0}`))
	})

	c.Search(context.Background(), hh.Query{})

	if ua != "JobSearchBot/1.0" {
		t.Errorf("User-Agent = %q, want JobSearchBot/1.0", ua)
	}
}

// ── Search: failure degradation ────────────────────────────────────────────

func TestSearch_NonOKStatusYieldsEmpty(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors": [{"type": "captcha_required"}]}`, http.StatusForbidden)
	})

	if got := c.Search(context.Background(), hh.Query{Text: "golang"}); len(got) != 0 {
		t.Errorf("non-OK status should yield empty result, got %d vacancies", len(got))
	}
}

func TestSearch_MalformedBodyYieldsEmpty(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [`))
	})

	if got := c.Search(context.Background(), hh.Query{Text: "golang"}); len(got) != 0 {
		t.Errorf("malformed body should yield empty result, got %d vacancies", len(got))
	}
}

func TestSearch_ConnectionErrorYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections
	c := hh.NewClient(srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if got := c.Search(context.Background(), hh.Query{Text: "golang"}); len(got) != 0 {
		t.Errorf("connection error should yield empty result, got %d vacancies", len(got))
	}
}

// ── Vacancy ────────────────────────────────────────────────────────────────

func TestVacancy_Found(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vacancies/101" {
			t.Errorf("path = %q, want /vacancies/101", r.URL.Path)
		}
		w.Write([]byte(`{"id": "101", "name": "Go-разработчик", "employer": {"name": "Рога и Копыта"}}`))
	})

	v, err := c.Vacancy(context.Background(), "101")
	if err != nil {
		t.Fatalf("Vacancy: %v", err)
	}
	if v == nil || v.ID != "101" {
		t.Fatalf("Vacancy = %+v", v)
	}
}

func TestVacancy_NotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	v, err := c.Vacancy(context.Background(), "999")
	if err != nil {
		t.Fatalf("missing vacancy should not be an error, got %v", err)
	}
	if v != nil {
		t.Errorf("Vacancy = %+v, want nil", v)
	}
}

func TestVacancy_ServerError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := c.Vacancy(context.Background(), "101"); err == nil {
		t.Error("server error should propagate from Vacancy")
	}
}
