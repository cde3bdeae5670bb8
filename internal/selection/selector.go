package selection

import "sparkAPI/internal/catalog"

// SelectChallenge picks uniformly among catalog challenges not in exclude.
// An empty category means any category. It returns false when every candidate
// is excluded.
func SelectChallenge(rng Rand, cat *catalog.Catalog, category string, exclude map[string]bool) (catalog.Challenge, bool) {
	var pool []catalog.Challenge
	if category != "" {
		pool = cat.ChallengesByCategory(category)
	} else {
		pool = cat.Challenges()
	}

	candidates := pool[:0:0]
	for _, ch := range pool {
		if !exclude[ch.ID] {
			candidates = append(candidates, ch)
		}
	}
	if len(candidates) == 0 {
		return catalog.Challenge{}, false
	}
	return candidates[rng.Intn(len(candidates))], true
}

// ResolveCategories returns the categories eligible for weighting. Exclusion
// is applied first, then narrowed to the preferred set when that leaves
// anything.
func ResolveCategories(all, preferred, excluded []string) []string {
	skip := make(map[string]bool, len(excluded))
	for _, c := range excluded {
		skip[c] = true
	}

	allowed := make(map[string]bool, len(all))
	var open []string
	for _, c := range all {
		if !skip[c] {
			allowed[c] = true
			open = append(open, c)
		}
	}

	var chosen []string
	for _, c := range preferred {
		if allowed[c] {
			chosen = append(chosen, c)
		}
	}
	if len(chosen) > 0 {
		return chosen
	}
	return open
}

// CountByCategory tallies completed challenge ids per catalog category.
// Ids the catalog does not know fall under fallback.
func CountByCategory(cat *catalog.Catalog, completed map[string]string) map[string]int {
	counts := make(map[string]int)
	for id, category := range completed {
		if ch, ok := cat.ChallengeByID(id); ok {
			category = ch.Category
		}
		if category != "" {
			counts[category]++
		}
	}
	return counts
}
