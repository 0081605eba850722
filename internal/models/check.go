package models

// CheckStatus is the verdict of a single check.
type CheckStatus string

const (
	CheckStatusPass CheckStatus = "PASS"
	CheckStatusWarn CheckStatus = "WARN"
	CheckStatusFail CheckStatus = "FAIL"
)

// Valid reports whether s is a recognized status.
func (s CheckStatus) Valid() bool {
	switch s {
	case CheckStatusPass, CheckStatusWarn, CheckStatusFail:
		return true
	}
	return false
}

// CheckCategory groups checks for scoring and reporting.
type CheckCategory string

const (
	CategorySecurity      CheckCategory = "SECURITY"
	CategoryCodeQuality   CheckCategory = "CODE_QUALITY"
	CategoryArchitecture  CheckCategory = "ARCHITECTURE"
	CategoryPerformance   CheckCategory = "PERFORMANCE"
	CategoryTesting       CheckCategory = "TESTING"
	CategoryObservability CheckCategory = "OBSERVABILITY"
	CategoryRepoHygiene   CheckCategory = "REPO_HYGIENE"
)

// AllCategories lists every category in display order.
var AllCategories = []CheckCategory{
	CategorySecurity,
	CategoryCodeQuality,
	CategoryArchitecture,
	CategoryPerformance,
	CategoryTesting,
	CategoryObservability,
	CategoryRepoHygiene,
}

// CheckResult is the output of one check over a changeset.
type CheckResult struct {
	Key      string
	Title    string
	Category CheckCategory
	Status   CheckStatus
	Details  string
	File     string // first offending file, "" when not file-specific
	Line     int    // approximate line in the new file, 0 when unknown
}

// Thresholds holds optional numeric tuning for a check.
type Thresholds map[string]int

// Get returns the threshold for key, or def when unset. A nil map is fine.
func (t Thresholds) Get(key string, def int) int {
	if v, ok := t[key]; ok {
		return v
	}
	return def
}

// CheckConfig is a per-tenant override for one check.
type CheckConfig struct {
	Tenant           string
	CheckKey         string
	Enabled          bool
	SeverityOverride CheckStatus // "" means no override
	Thresholds       Thresholds
}

// CategoryWeights maps categories to positive scoring weights.
type CategoryWeights map[CheckCategory]float64

// FallbackCategoryWeight applies to categories absent from the weight table.
const FallbackCategoryWeight = 1.0

// DefaultCategoryWeights returns the stock weight table.
func DefaultCategoryWeights() CategoryWeights {
	return CategoryWeights{
		CategorySecurity:      3.0,
		CategoryCodeQuality:   2.0,
		CategoryArchitecture:  1.5,
		CategoryPerformance:   1.5,
		CategoryTesting:       2.0,
		CategoryObservability: 1.0,
		CategoryRepoHygiene:   1.0,
	}
}
