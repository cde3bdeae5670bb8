package progress

import (
	"time"

	"github.com/google/uuid"
)

type CriteriaType string

const (
	CriteriaTotalCompleted CriteriaType = "total_completed"
	CriteriaStreak         CriteriaType = "streak"
)

type BadgeRule struct {
	Name          string       `json:"name"`
	CriteriaType  CriteriaType `json:"criteria_type"`
	CriteriaValue int          `json:"criteria_value"`
}

var BadgeRules = []BadgeRule{
	{Name: "First Spark", CriteriaType: CriteriaTotalCompleted, CriteriaValue: 1},
	{Name: "Flame Starter", CriteriaType: CriteriaTotalCompleted, CriteriaValue: 5},
	{Name: "Burning Bright", CriteriaType: CriteriaTotalCompleted, CriteriaValue: 10},
	{Name: "Inferno", CriteriaType: CriteriaTotalCompleted, CriteriaValue: 25},
	{Name: "3 Day Streak", CriteriaType: CriteriaStreak, CriteriaValue: 3},
	{Name: "1 Week Connection", CriteriaType: CriteriaStreak, CriteriaValue: 7},
	{Name: "2 Week Devotion", CriteriaType: CriteriaStreak, CriteriaValue: 14},
	{Name: "Monthly Passion", CriteriaType: CriteriaStreak, CriteriaValue: 30},
}

type Badge struct {
	ProfileID uuid.UUID `json:"-"`
	Name      string    `json:"badge_name"`
	EarnedAt  time.Time `json:"earned_at"`
}

// EvaluateBadges returns the badges p qualifies for that are not already in
// existing, in rule order. It has no side effects.
func EvaluateBadges(p Progress, existing []string) []string {
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	var earned []string
	for _, rule := range BadgeRules {
		if have[rule.Name] {
			continue
		}
		var metric int
		switch rule.CriteriaType {
		case CriteriaTotalCompleted:
			metric = p.TotalCompleted
		case CriteriaStreak:
			metric = p.Streak
		}
		if metric >= rule.CriteriaValue {
			earned = append(earned, rule.Name)
			have[rule.Name] = true
		}
	}
	return earned
}

func BadgeNames(badges []Badge) []string {
	names := make([]string, 0, len(badges))
	for _, b := range badges {
		names = append(names, b.Name)
	}
	return names
}
