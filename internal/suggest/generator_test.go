package suggest

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrgold/goldmr/internal/models"
	"github.com/mrgold/goldmr/internal/signature"
)

const validResponse = `[
  {
    "check_key": "debug-statements",
    "title": "Remove leftover console.log calls",
    "severity": "WARN",
    "files": [{"path": "app.js", "start_line": 12, "end_line": 14}],
    "rationale": "Debug output leaks into production logs.",
    "fix": "Delete the console.log calls or route them through the logger."
  }
]`

func TestParseSuggestions_Valid(t *testing.T) {
	got, err := parseSuggestions(validResponse)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "debug-statements", got[0].CheckKey)
	assert.Equal(t, models.CheckStatusWarn, got[0].Severity)
	assert.Equal(t, "app.js", got[0].Files[0].Path)
}

func TestParseSuggestions_StripsMarkdownFence(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	got, err := parseSuggestions(fenced)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestParseSuggestions_NotAnArray(t *testing.T) {
	_, err := parseSuggestions(`{"oops": true}`)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "$", schemaErr.Violations[0].Path)
}

func TestParseSuggestions_MissingSeverityIsSchemaError(t *testing.T) {
	bad := `[{"check_key": "k", "title": "t", "files": [{"path": "a.go"}], "rationale": "r", "fix": "f"}]`
	_, err := parseSuggestions(bad)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Len(t, schemaErr.Violations, 1)
	assert.Contains(t, schemaErr.Violations[0].Path, "severity")
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	violations := Validate([]models.Suggestion{{}})
	paths := make([]string, len(violations))
	for i, v := range violations {
		paths[i] = v.Path
	}
	assert.Contains(t, paths, "suggestions[0].check_key")
	assert.Contains(t, paths, "suggestions[0].title")
	assert.Contains(t, paths, "suggestions[0].severity")
	assert.Contains(t, paths, "suggestions[0].files")
	assert.Contains(t, paths, "suggestions[0].rationale")
	assert.Contains(t, paths, "suggestions[0].fix")
}

func TestValidate_LineRange(t *testing.T) {
	s := models.Suggestion{
		CheckKey:  "k",
		Title:     "t",
		Severity:  models.CheckStatusFail,
		Files:     []models.SuggestionFile{{Path: "a.go", StartLine: 10, EndLine: 5}},
		Rationale: "r",
		Fix:       "f",
	}
	violations := Validate([]models.Suggestion{s})
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Path, "end_line")
}

func TestValidate_PassStatusRejected(t *testing.T) {
	s := models.Suggestion{
		CheckKey:  "k",
		Title:     "t",
		Severity:  models.CheckStatusPass,
		Files:     []models.SuggestionFile{{Path: "a.go"}},
		Rationale: "r",
		Fix:       "f",
	}
	assert.NotEmpty(t, Validate([]models.Suggestion{s}))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `[1]`, stripFences("```json\n[1]\n```"))
	assert.Equal(t, `[1]`, stripFences("```\n[1]\n```"))
	assert.Equal(t, `[1]`, stripFences("  [1]  "))
	assert.Equal(t, `[1]`, stripFences(`[1]`))
}

func TestBuildUserPrompt(t *testing.T) {
	in := Input{
		Title:       "Add payment webhook",
		Description: "Handles provider callbacks",
		Failing: []models.CheckResult{
			{Key: "missing-logging", Title: "New endpoints emit logs", Status: models.CheckStatusWarn,
				Details: "new endpoint added without any logging", File: "routes.go", Line: 40},
		},
		Snippets: []models.CodeSnippet{
			{Path: "routes.go", Content: "mux.HandleFunc(...)", StartLine: 38, EndLine: 42},
		},
		Redaction: models.RedactionReport{FilesRedacted: 1, LinesMasked: 2, PatternTypes: []string{"assignment"}},
		Precedents: &signature.PrecedentSet{Matches: []signature.Match{{
			Source: &models.KnowledgeSource{
				ID:        "01ABC",
				Title:     "Webhook hardening",
				SourceURL: "https://git.example.com/mr/9",
			},
			Jaccard:       0.42,
			MatchedTokens: []string{"webhook", "payment"},
		}}},
	}

	prompt := buildUserPrompt(in)
	assert.Contains(t, prompt, "Add payment webhook")
	assert.Contains(t, prompt, "missing-logging")
	assert.Contains(t, prompt, "routes.go:40")
	assert.Contains(t, prompt, "lines 38-42")
	assert.Contains(t, prompt, "2 line(s) masked")
	assert.Contains(t, prompt, "Webhook hardening")
	assert.Contains(t, prompt, "0.42")
}

func TestBuildUserPrompt_TruncatesLongFields(t *testing.T) {
	in := Input{
		Title: strings.Repeat("t", maxTitleChars+50),
		Failing: []models.CheckResult{
			{Key: "k", Title: "T", Status: models.CheckStatusWarn, Details: strings.Repeat("d", maxDetailChars+50)},
		},
	}
	prompt := buildUserPrompt(in)
	assert.NotContains(t, prompt, strings.Repeat("t", maxTitleChars+1))
	assert.NotContains(t, prompt, strings.Repeat("d", maxDetailChars+1))
	assert.Contains(t, prompt, "...")
}

func TestTruncate_CutsAtRuneBoundary(t *testing.T) {
	assert.Equal(t, "ab", truncate("ab", 5))
	got := truncate("日本語テキスト", 4)
	assert.Equal(t, "日...", got)
	assert.True(t, utf8.ValidString(got))
}

func TestGenerate_NoFailingChecksSkipsCall(t *testing.T) {
	g, err := NewGenerator(Config{APIKey: "test-key", Model: "test-model"})
	require.NoError(t, err)

	got, err := g.Generate(context.Background(), Input{Title: "clean"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewGenerator_RejectsBadProxyURL(t *testing.T) {
	_, err := NewGenerator(Config{ProxyURL: "://bad"})
	assert.Error(t, err)
}

func TestNewGenerator_Defaults(t *testing.T) {
	g, err := NewGenerator(Config{APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, DefaultRequestTimeout, g.timeout)
	assert.Equal(t, DefaultRetryPolicy().MaxAttempts, g.retry.MaxAttempts)
}

func TestNewGenerator_HonorsConfiguredRetry(t *testing.T) {
	retry := DefaultRetryPolicy()
	retry.MaxAttempts = 5
	g, err := NewGenerator(Config{APIKey: "k", Model: "m", Retry: retry})
	require.NoError(t, err)
	assert.Equal(t, 5, g.retry.MaxAttempts)
}
