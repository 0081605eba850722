package gold

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mrgold/goldmr/internal/models"
)

// maxDiffChars caps each file's diff inside the content document.
const maxDiffChars = 2000

// BuildContentDocument renders the exemplar's full content text. The layout
// is deterministic (sorted file order, fixed truncation) so the same MR
// at the same head always hashes identically.
func BuildContentDocument(mr *models.MergeRequest, results []models.CheckResult, score int, changes []models.Change) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", mr.Title)
	if mr.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", mr.Description)
	}
	fmt.Fprintf(&b, "Score: %d\n", score)

	var nonPass int
	for _, r := range results {
		if r.Status != models.CheckStatusPass {
			nonPass++
		}
	}
	fmt.Fprintf(&b, "Checks: %d run, %d flagged\n\n", len(results), nonPass)

	sorted := make([]models.Change, len(changes))
	copy(sorted, changes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	b.WriteString("## Files\n\n")
	for _, ch := range sorted {
		fmt.Fprintf(&b, "- %s\n", ch.Path)
	}
	b.WriteString("\n## Diffs\n")
	for _, ch := range sorted {
		d := ch.Diff
		if len(d) > maxDiffChars {
			cut := maxDiffChars
			for cut > 0 && !utf8.RuneStart(d[cut]) {
				cut--
			}
			d = d[:cut] + "\n... (truncated)"
		}
		fmt.Fprintf(&b, "\n### %s\n\n```\n%s\n```\n", ch.Path, d)
	}

	return b.String()
}

// HashContent returns the SHA-256 hex digest of a content document.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
