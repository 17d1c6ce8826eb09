package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BarIlya77/job-search-bot-v2/internal/model"
)

// All timestamps are rendered in one timezone so calendar dates do not
// depend on where the process runs.
var moscow = time.FixedZone("MSK", 3*60*60)

// publishedAtLayout matches the HH API timestamp format: ISO-8601 with a
// numeric offset and no colon, e.g. "2024-05-17T12:30:00+0300".
const publishedAtLayout = "2006-01-02T15:04:05-0700"

// Format renders one vacancy as a Markdown message.
func Format(v model.Vacancy, now time.Time) string {
	title := v.Name
	if title == "" {
		title = "Без названия"
	}
	employer := v.Employer
	if employer == "" {
		employer = "Не указано"
	}
	area := v.Area
	if area == "" {
		area = "Не указано"
	}
	experience := v.Experience
	if experience == "" {
		experience = "Не указан"
	}

	return fmt.Sprintf(
		"💼 *%s*\n\n"+
			"🏢 *Компания:* %s\n"+
			"💰 *Зарплата:* %s\n"+
			"📍 *Местоположение:* %s\n"+
			"📊 *Опыт:* %s\n"+
			"📅 *Опубликовано:* %s\n"+
			"🔗 [Ссылка на вакансию](%s)",
		title, employer, FormatSalary(v.Salary), area, experience,
		FormatAge(v.PublishedAt, now), v.URL,
	)
}

// FormatSalary renders a salary range with space-grouped thousands.
func FormatSalary(s *model.Salary) string {
	if s == nil || (s.From == nil && s.To == nil) {
		return "не указана"
	}

	currency := s.Currency
	if currency == "" {
		currency = "RUR"
	}

	switch {
	case s.From != nil && s.To != nil:
		return fmt.Sprintf("%s - %s %s", groupThousands(*s.From), groupThousands(*s.To), currency)
	case s.From != nil:
		return fmt.Sprintf("от %s %s", groupThousands(*s.From), currency)
	default:
		return fmt.Sprintf("до %s %s", groupThousands(*s.To), currency)
	}
}

// FormatAge renders how long ago a vacancy was published. Anything older
// than 30 days becomes a calendar date; malformed timestamps degrade to a
// generic string instead of failing the message.
func FormatAge(publishedAt string, now time.Time) string {
	t, err := time.Parse(publishedAtLayout, publishedAt)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, publishedAt); err != nil {
			return "недавно"
		}
	}

	elapsed := now.Sub(t)
	if elapsed < 0 {
		elapsed = 0
	}

	days := int(elapsed.Hours() / 24)
	switch {
	case elapsed > 30*24*time.Hour:
		return t.In(moscow).Format("02.01.2006")
	case days >= 1:
		return fmt.Sprintf("%d %s назад", days, pluralRu(days, "день", "дня", "дней"))
	}

	hours := int(elapsed.Hours())
	if hours >= 1 {
		return fmt.Sprintf("%d %s назад", hours, pluralRu(hours, "час", "часа", "часов"))
	}

	minutes := int(elapsed.Minutes())
	if minutes >= 1 {
		return fmt.Sprintf("%d %s назад", minutes, pluralRu(minutes, "минуту", "минуты", "минут"))
	}

	return "только что"
}

// pluralRu picks the grammatical form for a Russian cardinal: one for n=1,
// few for 2-4, many for 5+ and the 11-14 exception.
func pluralRu(n int, one, few, many string) string {
	n = n % 100
	if n >= 11 && n <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}

// groupThousands renders 150000 as "150 000".
func groupThousands(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.Itoa(n)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	return sign + strings.Join(groups, " ")
}
