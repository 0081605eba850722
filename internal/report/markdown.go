// Package report renders check results and precedent references as
// markdown suitable for posting as a review comment.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mrgold/goldmr/internal/models"
	"github.com/mrgold/goldmr/internal/signature"
)

// categoryCounts tallies one category's statuses.
type categoryCounts struct {
	pass, warn, fail int
}

// WriteSummary writes the category-grouped markdown summary: pass/warn/fail
// counts per category and bullet evidence for every non-passing check.
func WriteSummary(w io.Writer, results []models.CheckResult, score int) error {
	fmt.Fprintf(w, "## Merge Request Review: Score %d/100\n\n", score)

	counts := make(map[models.CheckCategory]*categoryCounts)
	byCategory := make(map[models.CheckCategory][]models.CheckResult)
	for _, r := range results {
		c, ok := counts[r.Category]
		if !ok {
			c = &categoryCounts{}
			counts[r.Category] = c
		}
		switch r.Status {
		case models.CheckStatusPass:
			c.pass++
		case models.CheckStatusWarn:
			c.warn++
		case models.CheckStatusFail:
			c.fail++
		}
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	fmt.Fprintf(w, "| Category | Pass | Warn | Fail |\n")
	fmt.Fprintf(w, "|----------|------|------|------|\n")
	for _, cat := range models.AllCategories {
		c, ok := counts[cat]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "| %s | %d | %d | %d |\n", cat, c.pass, c.warn, c.fail)
	}
	fmt.Fprintln(w)

	flagged := false
	for _, cat := range models.AllCategories {
		var lines []string
		for _, r := range byCategory[cat] {
			if r.Status == models.CheckStatusPass {
				continue
			}
			loc := ""
			if r.File != "" {
				loc = fmt.Sprintf(" (`%s:%d`)", r.File, r.Line)
			}
			lines = append(lines, fmt.Sprintf("- %s **%s**: %s%s", statusIcon(r.Status), r.Title, r.Details, loc))
		}
		if len(lines) == 0 {
			continue
		}
		flagged = true
		fmt.Fprintf(w, "### %s\n\n%s\n\n", cat, strings.Join(lines, "\n"))
	}

	if !flagged {
		fmt.Fprintln(w, "All checks passed. :white_check_mark:")
	}
	return nil
}

// WritePrecedents writes the ranked precedent-reference block.
func WritePrecedents(w io.Writer, set *signature.PrecedentSet) error {
	if set == nil || len(set.Matches) == 0 {
		return nil
	}
	fmt.Fprintf(w, "## Similar Gold Exemplars (%d found)\n\n", set.TotalFound)
	for i, m := range set.Matches {
		fmt.Fprintf(w, "%d. **%s**, similarity %.2f, score %d\n", i+1, m.Source.Title, m.Jaccard, m.Source.Metadata.Score)
		if m.Source.SourceURL != "" {
			fmt.Fprintf(w, "   %s\n", m.Source.SourceURL)
		}
		if len(m.MatchedTokens) > 0 {
			fmt.Fprintf(w, "   Matched: `%s`\n", strings.Join(m.MatchedTokens, "`, `"))
		}
	}
	fmt.Fprintln(w)
	return nil
}

// WriteSuggestions writes model-drafted fix suggestions.
func WriteSuggestions(w io.Writer, suggestions []models.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}
	fmt.Fprintf(w, "## Suggested Fixes\n\n")
	for _, s := range suggestions {
		fmt.Fprintf(w, "### %s %s\n\n", statusIcon(s.Severity), s.Title)
		var files []string
		for _, f := range s.Files {
			if f.StartLine > 0 {
				files = append(files, fmt.Sprintf("`%s:%d-%d`", f.Path, f.StartLine, f.EndLine))
			} else {
				files = append(files, fmt.Sprintf("`%s`", f.Path))
			}
		}
		fmt.Fprintf(w, "**%s** | check: `%s`\n\n", strings.Join(files, ", "), s.CheckKey)
		fmt.Fprintf(w, "%s\n\n", s.Rationale)
		fmt.Fprintf(w, "**Fix:**\n\n```\n%s\n```\n\n", s.Fix)
		for _, p := range s.Precedents {
			fmt.Fprintf(w, "> Precedent: [%s](%s)\n", p.Title, p.URL)
		}
		fmt.Fprintf(w, "---\n\n")
	}
	return nil
}

func statusIcon(s models.CheckStatus) string {
	switch s {
	case models.CheckStatusFail:
		return ":red_circle:"
	case models.CheckStatusWarn:
		return ":orange_circle:"
	default:
		return ":green_circle:"
	}
}
