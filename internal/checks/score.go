package checks

import "github.com/mrgold/goldmr/internal/models"

// statusPoints maps a status to its 0-10 contribution.
func statusPoints(s models.CheckStatus) float64 {
	switch s {
	case models.CheckStatusPass:
		return 10
	case models.CheckStatusWarn:
		return 5
	default:
		return 0
	}
}

// Score collapses check results into a 0-100 score. Results are grouped by
// category; each category scores (10*PASS + 5*WARN + 0*FAIL)/count and is
// weighted by the weight table (fallback weight for absent categories).
// An empty result set is vacuously compliant and scores 100.
func Score(results []models.CheckResult, weights models.CategoryWeights) int {
	if len(results) == 0 {
		return 100
	}
	if weights == nil {
		weights = models.DefaultCategoryWeights()
	}

	sums := make(map[models.CheckCategory]float64)
	counts := make(map[models.CheckCategory]int)
	for _, r := range results {
		sums[r.Category] += statusPoints(r.Status)
		counts[r.Category]++
	}

	var weighted, totalWeight float64
	for cat, sum := range sums {
		w, ok := weights[cat]
		if !ok || w <= 0 {
			w = models.FallbackCategoryWeight
		}
		weighted += (sum / float64(counts[cat])) * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 100
	}

	score := int(weighted/totalWeight*10 + 0.5)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// CategoryBreakdown counts non-PASS results per category, for the
// knowledge metadata payload.
func CategoryBreakdown(results []models.CheckResult) map[string]int {
	out := make(map[string]int)
	for _, r := range results {
		if r.Status != models.CheckStatusPass {
			out[string(r.Category)]++
		}
	}
	return out
}

// HasSecurityFail reports whether any SECURITY-category check failed.
func HasSecurityFail(results []models.CheckResult) bool {
	for _, r := range results {
		if r.Category == models.CategorySecurity && r.Status == models.CheckStatusFail {
			return true
		}
	}
	return false
}

// Failing returns the WARN and FAIL results, preserving order.
func Failing(results []models.CheckResult) []models.CheckResult {
	var out []models.CheckResult
	for _, r := range results {
		if r.Status != models.CheckStatusPass {
			out = append(out, r)
		}
	}
	return out
}
