// Package checks runs the deterministic review checks over a changeset and
// turns their results into a weighted score.
package checks

import (
	"log/slog"

	"github.com/mrgold/goldmr/internal/diff"
	"github.com/mrgold/goldmr/internal/models"
)

// Target is the parsed view of a changeset handed to each check. File diffs
// that fail parsing are dropped here so individual checks see only
// well-formed input and degrade to "no issues found" for the rest.
type Target struct {
	Ctx   *models.CheckContext
	Files []*diff.FileDiff
}

// NewTarget parses every change in the context. Unparseable diffs are
// skipped, never fatal.
func NewTarget(ctx *models.CheckContext) *Target {
	t := &Target{Ctx: ctx}
	for _, ch := range ctx.Changes {
		fd, err := diff.ParseFile(ch.Path, ch.Diff)
		if err != nil || len(fd.Hunks) == 0 {
			continue
		}
		t.Files = append(t.Files, fd)
	}
	return t
}

// CheckFunc evaluates one check against a parsed changeset. Implementations
// must not panic for any well-formed target; Run recovers anyway.
type CheckFunc func(t *Target, th models.Thresholds) models.CheckResult

// Definition is one registered check.
type Definition struct {
	Key      string
	Title    string
	Category models.CheckCategory
	Fn       CheckFunc
}

// registry is the closed, ordered set of checks. Output order follows
// registration order.
var registry []Definition

func init() {
	registry = []Definition{
		{Key: "hardcoded-secrets", Title: "No hardcoded secrets", Category: models.CategorySecurity, Fn: checkHardcodedSecrets},
		{Key: "sql-string-concat", Title: "No string-built SQL queries", Category: models.CategorySecurity, Fn: checkSQLStringConcat},
		{Key: "debug-statements", Title: "No leftover debug statements", Category: models.CategoryCodeQuality, Fn: checkDebugStatements},
		{Key: "error-swallowed", Title: "Errors are not silently discarded", Category: models.CategoryCodeQuality, Fn: checkErrorSwallowed},
		{Key: "heavy-imports", Title: "No heavyweight library imports", Category: models.CategoryArchitecture, Fn: checkHeavyImports},
		{Key: "nested-loops", Title: "Loop nesting within limits", Category: models.CategoryPerformance, Fn: checkNestedLoops},
		{Key: "n-plus-one", Title: "No per-item lookups in loops", Category: models.CategoryPerformance, Fn: checkNPlusOne},
		{Key: "missing-index", Title: "Schema changes declare indexes", Category: models.CategoryPerformance, Fn: checkMissingIndex},
		{Key: "tests-missing", Title: "Code changes ship with tests", Category: models.CategoryTesting, Fn: checkTestsMissing},
		{Key: "missing-logging", Title: "New endpoints emit logs", Category: models.CategoryObservability, Fn: checkMissingLogging},
		{Key: "todo-no-issue", Title: "TODOs reference an issue", Category: models.CategoryRepoHygiene, Fn: checkTodoNoIssue}}
}

// Registry returns the registered definitions in run order.
func Registry() []Definition {
	return registry
}

// Lookup returns the definition for key, if registered.
func Lookup(key string) (Definition, bool) {
	for _, d := range registry {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Run evaluates every enabled check against the context, in registry order.
// Tenant configs may disable a check (it is skipped entirely) or override
// its severity (the status is rewritten post-hoc; the check's own logic is
// not re-evaluated). A panicking check degrades to a PASS result for that
// check only.
func Run(ctx *models.CheckContext, configs map[string]models.CheckConfig) []models.CheckResult {
	target := NewTarget(ctx)
	results := make([]models.CheckResult, 0, len(registry))

	for _, def := range registry {
		cfg, hasCfg := configs[def.Key]
		if hasCfg && !cfg.Enabled {
			continue
		}
		var th models.Thresholds
		if hasCfg {
			th = cfg.Thresholds
		}

		res := runOne(def, target, th)
		if hasCfg && cfg.SeverityOverride != "" && res.Status != models.CheckStatusPass {
			res.Status = cfg.SeverityOverride
		}
		results = append(results, res)
	}
	return results
}

// runOne invokes a single check, converting a panic into a neutral PASS.
func runOne(def Definition, target *Target, th models.Thresholds) (res models.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("check panicked, degrading to pass", "check", def.Key, "panic", r)
			res = pass(def, "check could not be evaluated")
		}
	}()
	return def.Fn(target, th)
}

func pass(def Definition, details string) models.CheckResult {
	return models.CheckResult{
		Key:      def.Key,
		Title:    def.Title,
		Category: def.Category,
		Status:   models.CheckStatusPass,
		Details:  details,
	}
}
