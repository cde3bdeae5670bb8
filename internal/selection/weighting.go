package selection

import "math"

// MaxJitter bounds the random exploration added to every category weight.
const MaxJitter = 0.2

// BaseWeights returns the inverse-frequency weight of each available category
// before jitter. Only completions in available categories count toward the
// total. With none at all every category weighs 1.
func BaseWeights(available []string, counts map[string]int) []float64 {
	total := 0
	for _, c := range available {
		total += counts[c]
	}

	weights := make([]float64, len(available))
	for i, c := range available {
		if total > 0 {
			weights[i] = 1 - float64(counts[c])/float64(total)
		} else {
			weights[i] = 1
		}
	}
	return weights
}

// ChooseCategory samples one category, favouring those completed least often.
// It returns false when available is empty; the caller owns the default.
func ChooseCategory(rng Rand, available []string, counts map[string]int) (string, bool) {
	if len(available) == 0 {
		return "", false
	}

	weights := BaseWeights(available, counts)
	sum := 0.0
	for i := range weights {
		weights[i] += rng.Float64() * MaxJitter
		sum += weights[i]
	}

	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return available[rng.Intn(len(available))], true
	}

	target := rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w / sum
		if target < acc {
			return available[i], true
		}
	}
	// float rounding can leave acc just under 1
	return available[len(available)-1], true
}
