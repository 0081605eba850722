package checks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mrgold/goldmr/internal/diff"
	"github.com/mrgold/goldmr/internal/models"
)

// result builds a CheckResult for a registered key, filling title and
// category from the registry.
func result(key string, status models.CheckStatus, details, file string, line int) models.CheckResult {
	def, _ := Lookup(key)
	return models.CheckResult{
		Key:      key,
		Title:    def.Title,
		Category: def.Category,
		Status:   status,
		Details:  details,
		File:     file,
		Line:     line,
	}
}

// match is a located regex hit in a changeset's added lines.
type match struct {
	path string
	line int
	text string
}

// firstAddedMatch scans added lines across all files for the first hit.
func firstAddedMatch(t *Target, re *regexp.Regexp) (match, bool) {
	for _, fd := range t.Files {
		for _, l := range fd.AddedLines() {
			if re.MatchString(l.Text) {
				return match{path: fd.Path, line: l.Number, text: l.Text}, true
			}
		}
	}
	return match{}, false
}

// countAddedMatches counts hits across all added lines.
func countAddedMatches(t *Target, re *regexp.Regexp) int {
	n := 0
	for _, fd := range t.Files {
		for _, l := range fd.AddedLines() {
			if re.MatchString(l.Text) {
				n++
			}
		}
	}
	return n
}

var secretRe = regexp.MustCompile(`(?i)(api[_-]?key|secret|token|password|passwd|credential)\s*[:=]{1,2}\s*["'][^"']{8,}["']|AKIA[0-9A-Z]{16}|-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----|gh[pousr]_[A-Za-z0-9_]{36,}|sk-ant-[A-Za-z0-9_-]{20,}`)

func checkHardcodedSecrets(t *Target, _ models.Thresholds) models.CheckResult {
	if m, ok := firstAddedMatch(t, secretRe); ok {
		return result("hardcoded-secrets", models.CheckStatusFail,
			fmt.Sprintf("possible credential committed in %s", m.path), m.path, m.line)
	}
	return result("hardcoded-secrets", models.CheckStatusPass, "no hardcoded secrets detected", "", 0)
}

var sqlConcatRe = regexp.MustCompile(`(?i)(["']\s*(SELECT|INSERT|UPDATE|DELETE)\b[^"']*["']\s*(\+|%|\|\|)|(Sprintf|format)\s*\(\s*["']\s*(SELECT|INSERT|UPDATE|DELETE)\b)`)

func checkSQLStringConcat(t *Target, _ models.Thresholds) models.CheckResult {
	if m, ok := firstAddedMatch(t, sqlConcatRe); ok {
		return result("sql-string-concat", models.CheckStatusFail,
			"SQL query assembled from strings; use parameterized statements", m.path, m.line)
	}
	return result("sql-string-concat", models.CheckStatusPass, "no string-built queries detected", "", 0)
}

var debugRe = regexp.MustCompile(`(?i)\b(console\.(log|debug)|fmt\.Println|print\s*\(\s*["']debug|debugger\b|binding\.pry|var_dump)`)

func checkDebugStatements(t *Target, _ models.Thresholds) models.CheckResult {
	if m, ok := firstAddedMatch(t, debugRe); ok {
		n := countAddedMatches(t, debugRe)
		return result("debug-statements", models.CheckStatusWarn,
			fmt.Sprintf("%d debug statement(s) left in the change", n), m.path, m.line)
	}
	return result("debug-statements", models.CheckStatusPass, "no debug statements detected", "", 0)
}

var swallowRe = regexp.MustCompile(`(^|\s)_\s*=\s*\w+\.(Close|Write|Flush|Rollback)\(|catch\s*(\([^)]*\))?\s*\{\s*\}|except\s*:\s*pass`)

func checkErrorSwallowed(t *Target, _ models.Thresholds) models.CheckResult {
	if m, ok := firstAddedMatch(t, swallowRe); ok {
		return result("error-swallowed", models.CheckStatusWarn,
			"error discarded without handling or logging", m.path, m.line)
	}
	return result("error-swallowed", models.CheckStatusPass, "no swallowed errors detected", "", 0)
}

var heavyImportRe = regexp.MustCompile(`(?i)(require\s*\(\s*["'](lodash|moment|rxjs)["']|from\s+["'](lodash|moment|rxjs)["']|import\s+["'](lodash|moment)["'])`)

func checkHeavyImports(t *Target, _ models.Thresholds) models.CheckResult {
	if m, ok := firstAddedMatch(t, heavyImportRe); ok {
		return result("heavy-imports", models.CheckStatusWarn,
			fmt.Sprintf("heavyweight library imported in %s; prefer a scoped import or stdlib", m.path), m.path, m.line)
	}
	return result("heavy-imports", models.CheckStatusPass, "no heavyweight imports detected", "", 0)
}

var loopOpenRe = regexp.MustCompile(`(?i)\b(for|while)\b.*(\{|:)\s*$`)

// checkNestedLoops walks each file's added/context lines tracking loop
// nesting by brace-or-colon loop openers. Depth at or above the threshold
// (default 3) warns.
func checkNestedLoops(t *Target, th models.Thresholds) models.CheckResult {
	maxDepth := th.Get("maxDepth", 3)
	for _, fd := range t.Files {
		depth := 0
		var stack []int // brace depth at each open loop
		braces := 0
		for _, h := range fd.Hunks {
			for _, l := range h.Lines {
				if l.Kind == diff.LineRemoved {
					continue
				}
				if loopOpenRe.MatchString(l.Text) {
					depth++
					stack = append(stack, braces)
					if depth >= maxDepth && l.Kind == diff.LineAdded {
						return result("nested-loops", models.CheckStatusWarn,
							fmt.Sprintf("loop nesting depth %d reaches the limit of %d", depth, maxDepth), fd.Path, l.Number)
					}
				}
				braces += strings.Count(l.Text, "{") - strings.Count(l.Text, "}")
				for len(stack) > 0 && braces <= stack[len(stack)-1] {
					stack = stack[:len(stack)-1]
					depth--
				}
			}
			// Hunks are disjoint; do not carry nesting across them.
			depth, braces = 0, 0
			stack = stack[:0]
		}
	}
	return result("nested-loops", models.CheckStatusPass, "loop nesting within limits", "", 0)
}

var lookupCallRe = regexp.MustCompile(`(?i)\.(find|get|fetch|query|load|select)(One|ByID|ById|All)?\s*\(`)

// checkNPlusOne flags a lookup-style call on an added line inside a loop
// body: the classic query-per-item pattern.
func checkNPlusOne(t *Target, _ models.Thresholds) models.CheckResult {
	for _, fd := range t.Files {
		for _, h := range fd.Hunks {
			inLoop := 0
			braces := 0
			var stack []int
			for _, l := range h.Lines {
				if l.Kind == diff.LineRemoved {
					continue
				}
				if inLoop > 0 && l.Kind == diff.LineAdded && lookupCallRe.MatchString(l.Text) {
					return result("n-plus-one", models.CheckStatusWarn,
						"lookup call inside a loop; consider batching the query", fd.Path, l.Number)
				}
				if loopOpenRe.MatchString(l.Text) {
					inLoop++
					stack = append(stack, braces)
				}
				braces += strings.Count(l.Text, "{") - strings.Count(l.Text, "}")
				for len(stack) > 0 && braces <= stack[len(stack)-1] {
					stack = stack[:len(stack)-1]
					inLoop--
				}
			}
		}
	}
	return result("n-plus-one", models.CheckStatusPass, "no per-item lookups in loops detected", "", 0)
}

var (
	schemaChangeRe = regexp.MustCompile(`(?i)\b(CREATE\s+TABLE|ADD\s+COLUMN|ALTER\s+TABLE)\b`)
	indexRe        = regexp.MustCompile(`(?i)\b(CREATE\s+(UNIQUE\s+)?INDEX|PRIMARY\s+KEY)\b`)
)

func checkMissingIndex(t *Target, _ models.Thresholds) models.CheckResult {
	m, ok := firstAddedMatch(t, schemaChangeRe)
	if !ok {
		return result("missing-index", models.CheckStatusPass, "no schema changes in this changeset", "", 0)
	}
	if _, hasIndex := firstAddedMatch(t, indexRe); hasIndex {
		return result("missing-index", models.CheckStatusPass, "schema change declares an index", "", 0)
	}
	return result("missing-index", models.CheckStatusWarn,
		"schema change without an accompanying index declaration", m.path, m.line)
}

var testPathRe = regexp.MustCompile(`(_test\.go$|\.(test|spec)\.[jt]sx?$|^tests?/|/tests?/|^spec/|/spec/)`)

var codeExtRe = regexp.MustCompile(`\.(go|py|rb|java|kt|rs|c|cc|cpp|cs|php|[jt]sx?)$`)

func checkTestsMissing(t *Target, _ models.Thresholds) models.CheckResult {
	var prodFile string
	hasTests := false
	for _, ch := range t.Ctx.Changes {
		if testPathRe.MatchString(ch.Path) {
			hasTests = true
		} else if codeExtRe.MatchString(ch.Path) && prodFile == "" {
			prodFile = ch.Path
		}
	}
	if prodFile != "" && !hasTests {
		return result("tests-missing", models.CheckStatusWarn,
			"production code changed without test changes", prodFile, 0)
	}
	return result("tests-missing", models.CheckStatusPass, "test coverage accompanies the change", "", 0)
}

var (
	endpointRe = regexp.MustCompile(`(?i)(HandleFunc|\.(Get|Post|Put|Delete|Patch)\s*\(\s*["']/|@(Get|Post|Put|Delete)Mapping|app\.(get|post|put|delete)\s*\()`)
	logCallRe  = regexp.MustCompile(`(?i)\b(slog|log|logger|logging)\b.*\.(info|warn|error|debug|printf|println)\s*\(`)
)

func checkMissingLogging(t *Target, _ models.Thresholds) models.CheckResult {
	m, ok := firstAddedMatch(t, endpointRe)
	if !ok {
		return result("missing-logging", models.CheckStatusPass, "no new endpoints in this changeset", "", 0)
	}
	if _, hasLog := firstAddedMatch(t, logCallRe); hasLog {
		return result("missing-logging", models.CheckStatusPass, "new endpoints include logging", "", 0)
	}
	return result("missing-logging", models.CheckStatusWarn,
		"new endpoint added without any logging", m.path, m.line)
}

var (
	todoRe      = regexp.MustCompile(`(?i)\b(TODO|FIXME|HACK)\b`)
	todoIssueRe = regexp.MustCompile(`(?i)\b(TODO|FIXME|HACK)\b.*(#\d+|[A-Z][A-Z0-9]+-\d+|https?://)`)
)

func checkTodoNoIssue(t *Target, _ models.Thresholds) models.CheckResult {
	for _, fd := range t.Files {
		for _, l := range fd.AddedLines() {
			if todoRe.MatchString(l.Text) && !todoIssueRe.MatchString(l.Text) {
				return result("todo-no-issue", models.CheckStatusWarn,
					"TODO/FIXME added without a tracking reference", fd.Path, l.Number)
			}
		}
	}
	return result("todo-no-issue", models.CheckStatusPass, "no untracked TODOs detected", "", 0)
}
