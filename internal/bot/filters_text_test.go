package bot

import (
	"strings"
	"testing"

	"github.com/BarIlya77/job-search-bot-v2/internal/model"
)

func TestFormatFiltersText_Empty(t *testing.T) {
	got := formatFiltersText(model.FilterSet{})
	if got != "Фильтры не настроены" {
		t.Errorf("formatFiltersText(empty) = %q", got)
	}
}

func TestFormatFiltersText_AllFilters(t *testing.T) {
	got := formatFiltersText(model.FilterSet{
		model.FilterProfession: "Go-разработчик",
		model.FilterSalaryMin:  "150000",
		model.FilterExperience: "between1And3",
		model.FilterSchedule:   "remote",
		model.FilterEmployment: "fullDay",
		model.FilterArea:       "1",
	})

	for _, want := range []string{
		"💼 Профессия: Go-разработчик",
		"💰 Зарплата от: 150000 руб.",
		"🎓 Опыт: От 1 года до 3 лет",
		"📍 Формат работы: Удаленная работа",
		"🏢 Занятость: Полная занятость",
		"🌍 Город: Москва",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("summary should not end with a newline")
	}
}

func TestFormatFiltersText_FreeTextValuesPassThrough(t *testing.T) {
	got := formatFiltersText(model.FilterSet{model.FilterArea: "Урюпинск"})
	if !strings.Contains(got, "🌍 Город: Урюпинск") {
		t.Errorf("free-text area should render as-is:\n%s", got)
	}
}
