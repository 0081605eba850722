// Package diff parses per-file unified diffs and maps hunk content to
// new-file line numbers.
package diff

import (
	"fmt"
	"strconv"
	"strings"
)

// LineKind tags a hunk line.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

// Line is a single hunk line. Number is the line's position in the new
// file; it is 0 for removed lines, which do not exist there.
type Line struct {
	Kind   LineKind
	Text   string // without the leading marker
	Number int
}

// Hunk is one @@-delimited section of a file diff.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff is the parsed unified diff for a single file.
type FileDiff struct {
	Path  string
	Hunks []Hunk
}

// ParseFile parses the unified diff text for one file. Content before the
// first hunk header (git headers, index lines) is ignored. A hunk header
// that cannot be parsed is an error; a diff with no hunk headers at all
// yields an empty FileDiff, which callers treat as "no hunks".
func ParseFile(path, text string) (*FileDiff, error) {
	fd := &FileDiff{Path: path}
	var cur *Hunk
	newLine := 0

	for _, raw := range strings.Split(text, "\n") {
		if strings.HasPrefix(raw, "@@") {
			h, err := parseHunkHeader(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			fd.Hunks = append(fd.Hunks, h)
			cur = &fd.Hunks[len(fd.Hunks)-1]
			newLine = h.NewStart
			continue
		}
		if cur == nil {
			continue
		}
		switch {
		case strings.HasPrefix(raw, "+"):
			cur.Lines = append(cur.Lines, Line{Kind: LineAdded, Text: raw[1:], Number: newLine})
			newLine++
		case strings.HasPrefix(raw, "-"):
			cur.Lines = append(cur.Lines, Line{Kind: LineRemoved, Text: raw[1:]})
		case strings.HasPrefix(raw, " "):
			cur.Lines = append(cur.Lines, Line{Kind: LineContext, Text: raw[1:], Number: newLine})
			newLine++
		case raw == "":
			// Trailing newline artifact; an empty context line arrives as " ".
		case strings.HasPrefix(raw, "\\"):
			// "\ No newline at end of file"
		default:
			// Unmarked line inside a hunk: tolerate as context.
			cur.Lines = append(cur.Lines, Line{Kind: LineContext, Text: raw, Number: newLine})
			newLine++
		}
	}
	return fd, nil
}

// parseHunkHeader parses "@@ -oldStart[,oldCount] +newStart[,newCount] @@".
func parseHunkHeader(raw string) (Hunk, error) {
	fields := strings.Fields(raw)
	if len(fields) < 3 || !strings.HasPrefix(fields[1], "-") || !strings.HasPrefix(fields[2], "+") {
		return Hunk{}, fmt.Errorf("malformed hunk header: %q", raw)
	}
	oldStart, oldCount, err := parseRange(fields[1][1:])
	if err != nil {
		return Hunk{}, fmt.Errorf("malformed hunk header: %q", raw)
	}
	newStart, newCount, err := parseRange(fields[2][1:])
	if err != nil {
		return Hunk{}, fmt.Errorf("malformed hunk header: %q", raw)
	}
	return Hunk{OldStart: oldStart, OldCount: oldCount, NewStart: newStart, NewCount: newCount}, nil
}

func parseRange(s string) (start, count int, err error) {
	count = 1
	if idx := strings.IndexByte(s, ','); idx >= 0 {
		if count, err = strconv.Atoi(s[idx+1:]); err != nil {
			return 0, 0, err
		}
		s = s[:idx]
	}
	if start, err = strconv.Atoi(s); err != nil {
		return 0, 0, err
	}
	return start, count, nil
}

// AddedLines returns every added line across all hunks, in order.
func (fd *FileDiff) AddedLines() []Line {
	var out []Line
	for _, h := range fd.Hunks {
		for _, l := range h.Lines {
			if l.Kind == LineAdded {
				out = append(out, l)
			}
		}
	}
	return out
}

// FirstAddedLine returns the new-file line number of the first added line,
// or 0 when the diff adds nothing.
func (fd *FileDiff) FirstAddedLine() int {
	for _, h := range fd.Hunks {
		for _, l := range h.Lines {
			if l.Kind == LineAdded {
				return l.Number
			}
		}
	}
	return 0
}

// WindowAround returns the added and context lines whose new-file numbers
// fall within radius of target. Removed lines never appear in a window.
func (fd *FileDiff) WindowAround(target, radius int) []Line {
	var out []Line
	for _, h := range fd.Hunks {
		for _, l := range h.Lines {
			if l.Kind == LineRemoved {
				continue
			}
			if l.Number >= target-radius && l.Number <= target+radius {
				out = append(out, l)
			}
		}
	}
	return out
}
