package bot

import (
	"fmt"
	"strings"

	"github.com/BarIlya77/job-search-bot-v2/internal/model"
)

// Display labels for the stored filter values. Stored values stay in the
// API vocabulary; only the rendering is localised.
var (
	experienceLabels = map[string]string{
		"noExperience": "Без опыта",
		"between1And3": "От 1 года до 3 лет",
		"between3And6": "От 3 до 6 лет",
		"moreThan6":    "Более 6 лет",
	}
	scheduleLabels = map[string]string{
		"office":   "Офис",
		"remote":   "Удаленная работа",
		"hybrid":   "Гибрид",
		"flexible": "Гибкий график",
	}
	employmentLabels = map[string]string{
		"fullDay":    "Полная занятость",
		"partDay":    "Частичная занятость",
		"project":    "Проектная работа",
		"internship": "Стажировка",
	}
	areaLabels = map[string]string{
		"1":      "Москва",
		"2":      "Санкт-Петербург",
		"3":      "Екатеринбург",
		"4":      "Новосибирск",
		"remote": "Удаленная работа",
	}
)

// formatFiltersText renders a user's filter set as the summary block shown
// in the filters menu and the status command.
func formatFiltersText(filters model.FilterSet) string {
	if len(filters) == 0 {
		return "Фильтры не настроены"
	}

	var sb strings.Builder

	if v := filters[model.FilterProfession]; v != "" {
		fmt.Fprintf(&sb, "💼 Профессия: %s\n", v)
	}
	if v := filters[model.FilterSalaryMin]; v != "" {
		fmt.Fprintf(&sb, "💰 Зарплата от: %s руб.\n", v)
	}
	if v := filters[model.FilterExperience]; v != "" {
		fmt.Fprintf(&sb, "🎓 Опыт: %s\n", label(experienceLabels, v))
	}
	if v := filters[model.FilterSchedule]; v != "" {
		fmt.Fprintf(&sb, "📍 Формат работы: %s\n", label(scheduleLabels, v))
	}
	if v := filters[model.FilterEmployment]; v != "" {
		fmt.Fprintf(&sb, "🏢 Занятость: %s\n", label(employmentLabels, v))
	}
	if v := filters[model.FilterArea]; v != "" {
		fmt.Fprintf(&sb, "🌍 Город: %s\n", label(areaLabels, v))
	}

	return strings.TrimRight(sb.String(), "\n")
}

// label renders a stored value through its display map, falling back to the
// raw value for free-text input.
func label(m map[string]string, value string) string {
	if l, ok := m[value]; ok {
		return l
	}
	return value
}
