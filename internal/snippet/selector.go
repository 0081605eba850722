package snippet

import (
	"strings"
	"unicode/utf8"

	"github.com/mrgold/goldmr/internal/diff"
	"github.com/mrgold/goldmr/internal/models"
)

// Options bounds what a selection may return.
type Options struct {
	MaxTotalChars   int // global character budget across all snippets
	MaxLinesPerFile int // per-file line cap
	Radius          int // context lines either side of a line hint
	MaxFileBytes    int // hard ceiling on a file's diff size
	AllowPatterns   []string // optional allow-list; denial always wins
}

// DefaultOptions returns the stock selection budgets.
func DefaultOptions() Options {
	return Options{
		MaxTotalChars:   4000,
		MaxLinesPerFile: 40,
		Radius:          10,
		MaxFileBytes:    512 << 10,
	}
}

// denyPatterns are path substrings that must never reach an external model:
// credential files, key material, and vendored or generated trees.
var denyPatterns = []string{
	".env",
	"secret",
	"credential",
	"id_rsa",
	"id_ed25519",
	".pem",
	".key",
	".p12",
	".pfx",
	".keystore",
	"vendor/",
	"node_modules/",
	"dist/",
	"build/",
	".git/",
}

func denied(path string) bool {
	p := strings.ToLower(path)
	for _, pat := range denyPatterns {
		if strings.Contains(p, pat) {
			return true
		}
	}
	return false
}

func allowed(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pat := range patterns {
		if strings.Contains(path, pat) {
			return true
		}
	}
	return false
}

// Selection is the bounded, redacted output handed to the generator.
type Selection struct {
	Snippets   []models.CodeSnippet
	TotalChars int
	Redaction  models.RedactionReport
	Skipped    []models.SkippedFile
}

// Select extracts redacted context windows for the files named by failing
// checks, under a per-file line cap and a global character budget. Files
// that cannot be admitted are recorded as skipped, never silently dropped.
func Select(changes []models.Change, failing []models.CheckResult, opts Options) Selection {
	if opts.MaxTotalChars <= 0 {
		opts = DefaultOptions()
	}

	byPath := make(map[string]models.Change, len(changes))
	for _, ch := range changes {
		byPath[ch.Path] = ch
	}

	// First line hint per file, in failing-result order.
	var order []string
	hints := make(map[string]int)
	for _, r := range failing {
		if r.File == "" {
			continue
		}
		if _, seen := hints[r.File]; !seen {
			order = append(order, r.File)
			hints[r.File] = r.Line
		}
	}

	var sel Selection
	patternTypes := map[string]bool{}

	for _, path := range order {
		ch, ok := byPath[path]
		if !ok {
			continue
		}
		if denied(path) || !allowed(path, opts.AllowPatterns) {
			sel.Skipped = append(sel.Skipped, models.SkippedFile{Path: path, Reason: models.SkipDenylisted})
			continue
		}
		if len(ch.Diff) > opts.MaxFileBytes {
			sel.Skipped = append(sel.Skipped, models.SkippedFile{Path: path, Reason: models.SkipTooLarge})
			continue
		}
		if isBinary(ch.Diff) {
			sel.Skipped = append(sel.Skipped, models.SkippedFile{Path: path, Reason: models.SkipBinary})
			continue
		}
		fd, err := diff.ParseFile(path, ch.Diff)
		if err != nil {
			sel.Skipped = append(sel.Skipped, models.SkippedFile{Path: path, Reason: models.SkipParseFailed})
			continue
		}
		if len(fd.Hunks) == 0 {
			sel.Skipped = append(sel.Skipped, models.SkippedFile{Path: path, Reason: models.SkipNoHunks})
			continue
		}

		lines := window(fd, hints[path], opts)
		if len(lines) == 0 {
			sel.Skipped = append(sel.Skipped, models.SkippedFile{Path: path, Reason: models.SkipNoHunks})
			continue
		}
		if len(lines) > opts.MaxLinesPerFile {
			lines = lines[:opts.MaxLinesPerFile]
		}

		var sb strings.Builder
		for _, l := range lines {
			sb.WriteString(l.Text)
			sb.WriteByte('\n')
		}

		red := redactText(sb.String())
		if red.altered {
			sel.Redaction.FilesRedacted++
			sel.Redaction.LinesMasked += red.linesMasked
			for _, name := range red.patternTypes {
				patternTypes[name] = true
			}
		}

		content := red.text
		// Truncate rather than drop the snippet that would blow the budget.
		if remaining := opts.MaxTotalChars - sel.TotalChars; len(content) > remaining {
			if remaining <= 0 {
				break
			}
			content = cutAtRune(content, remaining)
		}

		sel.Snippets = append(sel.Snippets, models.CodeSnippet{
			Path:      path,
			Content:   content,
			StartLine: lines[0].Number,
			EndLine:   lines[len(lines)-1].Number,
			Redacted:  red.altered,
		})
		sel.TotalChars += len(content)
		if sel.TotalChars >= opts.MaxTotalChars {
			break
		}
	}

	for _, p := range secretPatterns {
		if patternTypes[p.name] {
			sel.Redaction.PatternTypes = append(sel.Redaction.PatternTypes, p.name)
		}
	}
	return sel
}

// window picks the context lines for one file: around the hint when the
// check reported one, otherwise the file's first added lines.
func window(fd *diff.FileDiff, hint int, opts Options) []diff.Line {
	if hint > 0 {
		if w := fd.WindowAround(hint, opts.Radius); len(w) > 0 {
			return w
		}
	}
	added := fd.AddedLines()
	if len(added) > opts.MaxLinesPerFile {
		added = added[:opts.MaxLinesPerFile]
	}
	return added
}

func isBinary(text string) bool {
	return strings.Contains(text, "Binary files ") || strings.ContainsRune(text, '\x00')
}

// cutAtRune truncates s to at most n bytes without splitting a rune.
func cutAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
