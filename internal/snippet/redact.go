// Package snippet extracts bounded, redacted code context for the
// suggestion generator. Nothing leaves this package un-redacted.
package snippet

import (
	"regexp"
	"strings"
)

const placeholder = "[REDACTED]"

// secretPattern pairs a redaction regex with a stable type name for the
// redaction report.
type secretPattern struct {
	name string
	re   *regexp.Regexp
}

var secretPatterns = []secretPattern{
	{"api-key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]{1,2}\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`)},
	{"aws-access-key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws-secret-key", regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]{1,2}\s*["']?([A-Za-z0-9/+=]{40})["']?`)},
	{"assignment", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]{1,2}\s*["']([^"']{8,})["']`)},
	{"bearer-token", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"private-key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----`)},
	{"github-token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack-token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"anthropic-key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"hex-secret", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]{1,2}\s*["']?[0-9a-f]{32,}["']?`)},
}

// redactResult describes one redaction pass over a snippet.
type redactResult struct {
	text         string
	linesMasked  int
	patternTypes []string
	altered      bool
}

// redactText masks secret patterns line by line so the report can count
// affected lines.
func redactText(text string) redactResult {
	lines := strings.Split(text, "\n")
	types := map[string]bool{}
	masked := 0

	for i, line := range lines {
		lineHit := false
		for _, p := range secretPatterns {
			if p.re.MatchString(line) {
				line = p.re.ReplaceAllString(line, placeholder)
				types[p.name] = true
				lineHit = true
			}
		}
		if lineHit {
			lines[i] = line
			masked++
		}
	}

	var names []string
	for _, p := range secretPatterns {
		if types[p.name] {
			names = append(names, p.name)
		}
	}
	return redactResult{
		text:         strings.Join(lines, "\n"),
		linesMasked:  masked,
		patternTypes: names,
		altered:      masked > 0,
	}
}
