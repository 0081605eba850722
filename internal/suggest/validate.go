package suggest

import (
	"fmt"
	"strings"

	"github.com/mrgold/goldmr/internal/models"
)

// Violation describes a single schema violation in a model response.
type Violation struct {
	Path    string
	Message string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// SchemaError is the terminal failure for a malformed model response. A
// response that fails validation is never surfaced as suggestions.
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return "model response failed schema validation: " + strings.Join(msgs, "; ")
}

// Validate checks a parsed suggestion array against the response schema.
func Validate(suggestions []models.Suggestion) []Violation {
	var errs []Violation
	for i, s := range suggestions {
		prefix := fmt.Sprintf("suggestions[%d]", i)
		if s.CheckKey == "" {
			errs = append(errs, Violation{prefix + ".check_key", "required"})
		}
		if s.Title == "" {
			errs = append(errs, Violation{prefix + ".title", "required"})
		}
		if s.Severity != models.CheckStatusWarn && s.Severity != models.CheckStatusFail {
			errs = append(errs, Violation{prefix + ".severity", fmt.Sprintf("must be WARN or FAIL, got %q", s.Severity)})
		}
		if len(s.Files) == 0 {
			errs = append(errs, Violation{prefix + ".files", "at least one file required"})
		}
		for j, f := range s.Files {
			if f.Path == "" {
				errs = append(errs, Violation{fmt.Sprintf("%s.files[%d].path", prefix, j), "required"})
			}
			if f.EndLine != 0 && f.EndLine < f.StartLine {
				errs = append(errs, Violation{fmt.Sprintf("%s.files[%d].end_line", prefix, j), "must be >= start_line"})
			}
		}
		if s.Rationale == "" {
			errs = append(errs, Violation{prefix + ".rationale", "required"})
		}
		if s.Fix == "" {
			errs = append(errs, Violation{prefix + ".fix", "required"})
		}
	}
	return errs
}
