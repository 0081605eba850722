package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrgold/goldmr/internal/models"
)

func res(cat models.CheckCategory, status models.CheckStatus) models.CheckResult {
	return models.CheckResult{Key: "k", Category: cat, Status: status}
}

func TestScore_EmptyIsCompliant(t *testing.T) {
	assert.Equal(t, 100, Score(nil, nil))
}

func TestScore_AllPass(t *testing.T) {
	results := []models.CheckResult{
		res(models.CategorySecurity, models.CheckStatusPass),
		res(models.CategoryTesting, models.CheckStatusPass),
	}
	assert.Equal(t, 100, Score(results, nil))
}

func TestScore_AllFailSingleCategory(t *testing.T) {
	results := []models.CheckResult{
		res(models.CategorySecurity, models.CheckStatusFail),
		res(models.CategorySecurity, models.CheckStatusFail),
	}
	assert.Equal(t, 0, Score(results, nil))
}

func TestScore_MixedCategoryAverages(t *testing.T) {
	// SECURITY (w=3): one PASS, one FAIL -> 5.0 avg.
	// TESTING (w=2): one WARN -> 5.0 avg.
	// Weighted: (5*3 + 5*2) / 5 = 5.0 -> 50.
	results := []models.CheckResult{
		res(models.CategorySecurity, models.CheckStatusPass),
		res(models.CategorySecurity, models.CheckStatusFail),
		res(models.CategoryTesting, models.CheckStatusWarn),
	}
	assert.Equal(t, 50, Score(results, models.DefaultCategoryWeights()))
}

func TestScore_WeightsShiftTheOutcome(t *testing.T) {
	results := []models.CheckResult{
		res(models.CategorySecurity, models.CheckStatusFail),
		res(models.CategoryRepoHygiene, models.CheckStatusPass),
	}
	heavySecurity := models.CategoryWeights{
		models.CategorySecurity:    9,
		models.CategoryRepoHygiene: 1,
	}
	lightSecurity := models.CategoryWeights{
		models.CategorySecurity:    1,
		models.CategoryRepoHygiene: 9,
	}
	assert.Less(t, Score(results, heavySecurity), Score(results, lightSecurity))
}

func TestScore_UnknownCategoryGetsFallbackWeight(t *testing.T) {
	results := []models.CheckResult{
		res(models.CheckCategory("CUSTOM"), models.CheckStatusWarn),
	}
	assert.Equal(t, 50, Score(results, models.DefaultCategoryWeights()))
}

func TestScore_Bounds(t *testing.T) {
	all := Registry()
	results := make([]models.CheckResult, 0, len(all))
	for i, def := range all {
		status := models.CheckStatusPass
		switch i % 3 {
		case 1:
			status = models.CheckStatusWarn
		case 2:
			status = models.CheckStatusFail
		}
		results = append(results, models.CheckResult{Key: def.Key, Category: def.Category, Status: status})
	}
	got := Score(results, nil)
	assert.GreaterOrEqual(t, got, 0)
	assert.LessOrEqual(t, got, 100)
}

func TestCategoryBreakdown(t *testing.T) {
	results := []models.CheckResult{
		res(models.CategorySecurity, models.CheckStatusFail),
		res(models.CategorySecurity, models.CheckStatusWarn),
		res(models.CategoryTesting, models.CheckStatusPass),
	}
	bd := CategoryBreakdown(results)
	assert.Equal(t, 2, bd[string(models.CategorySecurity)])
	assert.NotContains(t, bd, string(models.CategoryTesting))
}

func TestHasSecurityFail(t *testing.T) {
	assert.False(t, HasSecurityFail([]models.CheckResult{
		res(models.CategorySecurity, models.CheckStatusWarn),
		res(models.CategoryTesting, models.CheckStatusFail),
	}))
	assert.True(t, HasSecurityFail([]models.CheckResult{
		res(models.CategorySecurity, models.CheckStatusFail),
	}))
}

func TestFailing_PreservesOrder(t *testing.T) {
	results := []models.CheckResult{
		{Key: "a", Status: models.CheckStatusWarn},
		{Key: "b", Status: models.CheckStatusPass},
		{Key: "c", Status: models.CheckStatusFail},
	}
	failing := Failing(results)
	assert.Len(t, failing, 2)
	assert.Equal(t, "a", failing[0].Key)
	assert.Equal(t, "c", failing[1].Key)
}
