package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrgold/goldmr/internal/models"
	"github.com/mrgold/goldmr/internal/signature"
)

func TestWriteSummary_FlaggedChecks(t *testing.T) {
	results := []models.CheckResult{
		{Key: "hardcoded-secrets", Title: "No hardcoded secrets", Category: models.CategorySecurity,
			Status: models.CheckStatusFail, Details: "possible credential committed in cfg.go", File: "cfg.go", Line: 3},
		{Key: "tests-missing", Title: "Code changes ship with tests", Category: models.CategoryTesting,
			Status: models.CheckStatusPass},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, results, 42))
	out := buf.String()

	assert.Contains(t, out, "Score 42/100")
	assert.Contains(t, out, "| SECURITY | 0 | 0 | 1 |")
	assert.Contains(t, out, "| TESTING | 1 | 0 | 0 |")
	assert.Contains(t, out, "### SECURITY")
	assert.Contains(t, out, "**No hardcoded secrets**")
	assert.Contains(t, out, "`cfg.go:3`")
	assert.NotContains(t, out, "All checks passed")
}

func TestWriteSummary_AllPass(t *testing.T) {
	results := []models.CheckResult{
		{Key: "todo-no-issue", Title: "TODOs reference an issue", Category: models.CategoryRepoHygiene,
			Status: models.CheckStatusPass},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, results, 100))
	out := buf.String()

	assert.Contains(t, out, "All checks passed")
	assert.NotContains(t, out, "### ")
}

func TestWriteSummary_CategoriesFollowFixedOrder(t *testing.T) {
	results := []models.CheckResult{
		{Key: "b", Title: "B", Category: models.CategoryTesting, Status: models.CheckStatusWarn, Details: "d"},
		{Key: "a", Title: "A", Category: models.CategorySecurity, Status: models.CheckStatusFail, Details: "d"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, results, 50))
	out := buf.String()

	assert.Less(t, strings.Index(out, "### SECURITY"), strings.Index(out, "### TESTING"))
}

func TestWritePrecedents(t *testing.T) {
	set := &signature.PrecedentSet{
		TotalFound: 5,
		Matches: []signature.Match{{
			Source: &models.KnowledgeSource{
				Title:     "Webhook hardening",
				SourceURL: "https://git.example.com/mr/9",
				Metadata:  models.KnowledgeMetadata{Score: 93},
			},
			Jaccard:       0.5,
			MatchedTokens: []string{"webhook", "payment"},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePrecedents(&buf, set))
	out := buf.String()

	assert.Contains(t, out, "(5 found)")
	assert.Contains(t, out, "Webhook hardening")
	assert.Contains(t, out, "score 93")
	assert.Contains(t, out, "`webhook`, `payment`")
	assert.Contains(t, out, "https://git.example.com/mr/9")
}

func TestWritePrecedents_NilOrEmptyWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePrecedents(&buf, nil))
	require.NoError(t, WritePrecedents(&buf, &signature.PrecedentSet{}))
	assert.Zero(t, buf.Len())
}

func TestWriteSuggestions(t *testing.T) {
	suggestions := []models.Suggestion{{
		CheckKey:  "debug-statements",
		Title:     "Remove console.log calls",
		Severity:  models.CheckStatusWarn,
		Files:     []models.SuggestionFile{{Path: "app.js", StartLine: 12, EndLine: 14}},
		Rationale: "Debug output leaks into production logs.",
		Fix:       "Delete the calls.",
		Precedents: []models.PrecedentRef{
			{KnowledgeID: "01A", Title: "Logging cleanup", URL: "https://git.example.com/mr/4"},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteSuggestions(&buf, suggestions))
	out := buf.String()

	assert.Contains(t, out, "## Suggested Fixes")
	assert.Contains(t, out, "Remove console.log calls")
	assert.Contains(t, out, "`app.js:12-14`")
	assert.Contains(t, out, "check: `debug-statements`")
	assert.Contains(t, out, "[Logging cleanup](https://git.example.com/mr/4)")
}

func TestWriteSuggestions_EmptyWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSuggestions(&buf, nil))
	assert.Zero(t, buf.Len())
}
