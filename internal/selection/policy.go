package selection

import "sparkAPI/internal/catalog"

// PolicyConfig holds the tuning constants for choosing external generation
// over the static catalog.
type PolicyConfig struct {
	ExhaustionRatio float64
	Milestones      []int
	NoveltyEvery    int
}

func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		ExhaustionRatio: 0.7,
		Milestones:      []int{7, 14, 30, 50, 100},
		NoveltyEvery:    10,
	}
}

type Reason string

const (
	ReasonNone      Reason = ""
	ReasonExhausted Reason = "exhausted"
	ReasonMilestone Reason = "milestone"
	ReasonNovelty   Reason = "novelty"
)

// Decide reports whether the next challenge should come from the external
// generator and why. completedInCategory counts only ids that are also in
// availableInCategory.
func (p PolicyConfig) Decide(completedInCategory, availableInCategory, streak, totalCompleted int) Reason {
	if availableInCategory > 0 && float64(completedInCategory)/float64(availableInCategory) >= p.ExhaustionRatio {
		return ReasonExhausted
	}
	for _, m := range p.Milestones {
		if streak == m {
			return ReasonMilestone
		}
	}
	if p.NoveltyEvery > 0 && totalCompleted > 0 && totalCompleted%p.NoveltyEvery == 0 {
		return ReasonNovelty
	}
	return ReasonNone
}

func (p PolicyConfig) ShouldGenerate(completedInCategory, availableInCategory, streak, totalCompleted int) bool {
	return p.Decide(completedInCategory, availableInCategory, streak, totalCompleted) != ReasonNone
}

// CategoryUsage returns how many of category's catalog challenges appear in
// completed, and how many the catalog holds. An empty category yields 0, 0.
func CategoryUsage(cat *catalog.Catalog, category string, completed map[string]bool) (done, available int) {
	if category == "" {
		return 0, 0
	}
	for _, ch := range cat.ChallengesByCategory(category) {
		available++
		if completed[ch.ID] {
			done++
		}
	}
	return done, available
}
