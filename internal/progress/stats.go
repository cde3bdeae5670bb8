package progress

import (
	"math"
	"time"
)

type CalendarDay struct {
	Number int  `json:"number"` // 0 pads the leading days of the first week
	Active bool `json:"active"`
}

type Calendar struct {
	Year      int           `json:"year"`
	Month     time.Month    `json:"month"`
	MonthName string        `json:"month_name"`
	Days      []CalendarDay `json:"days"`
}

type CategoryStat struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
}

// BuildCalendar lays out the month Monday-first and marks the days that have
// at least one completion in loc.
func BuildCalendar(year int, month time.Month, loc *time.Location, completed []CompletedChallenge) Calendar {
	active := make(map[int]bool)
	for _, c := range completed {
		t := c.CompletedAt.In(loc)
		if t.Year() == year && t.Month() == month {
			active[t.Day()] = true
		}
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	lead := (int(first.Weekday()) + 6) % 7
	daysInMonth := first.AddDate(0, 1, -1).Day()

	days := make([]CalendarDay, 0, lead+daysInMonth+6)
	for i := 0; i < lead; i++ {
		days = append(days, CalendarDay{})
	}
	for d := 1; d <= daysInMonth; d++ {
		days = append(days, CalendarDay{Number: d, Active: active[d]})
	}
	for len(days)%7 != 0 {
		days = append(days, CalendarDay{})
	}

	return Calendar{Year: year, Month: month, MonthName: month.String(), Days: days}
}

// BuildCategoryStats counts completions per category against the catalog size
// of that category.
func BuildCategoryStats(categories []string, totals map[string]int, completed []CompletedChallenge) []CategoryStat {
	counts := make(map[string]int)
	for _, c := range completed {
		counts[c.Category]++
	}

	stats := make([]CategoryStat, 0, len(categories))
	for _, name := range categories {
		s := CategoryStat{Name: name, Count: counts[name], Total: totals[name]}
		if s.Total > 0 {
			s.Percent = int(math.Round(float64(s.Count) / float64(s.Total) * 100))
		}
		stats = append(stats, s)
	}
	return stats
}
