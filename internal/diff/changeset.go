package diff

import (
	"strings"

	"github.com/mrgold/goldmr/internal/models"
)

// SplitChangeset splits a multi-file unified diff (git format) into
// per-file changes. Sections begin at "diff --git" lines; the new path is
// taken from the "+++ b/" header, falling back to the "--- a/" header for
// deletions.
func SplitChangeset(text string) []models.Change {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sections []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if current.Len() > 0 && strings.TrimSpace(current.String()) != "" {
		sections = append(sections, current.String())
	}

	var changes []models.Change
	for _, sec := range sections {
		changes = append(changes, models.Change{
			Path: pathFromSection(sec),
			Diff: sec,
		})
	}
	return changes
}

func pathFromSection(section string) string {
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			return strings.TrimPrefix(line, "+++ b/")
		}
	}
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "--- a/") {
			return strings.TrimPrefix(line, "--- a/")
		}
	}
	return ""
}
