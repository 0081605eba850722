package models

// GoldEvaluation is the transient verdict of gold qualification.
type GoldEvaluation struct {
	Qualifies        bool
	Reason           string
	Score            int
	SecurityFail     bool
	ApprovalState    ApprovalState
	ApprovalsUnknown bool
}

// SuggestionFile names a file a suggestion applies to.
type SuggestionFile struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}

// PrecedentRef links a suggestion back to a knowledge-corpus exemplar.
type PrecedentRef struct {
	KnowledgeID string `json:"knowledge_id"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
}

// Suggestion is one model-drafted fix suggestion.
type Suggestion struct {
	CheckKey   string           `json:"check_key"`
	Title      string           `json:"title"`
	Severity   CheckStatus      `json:"severity"` // WARN or FAIL
	Files      []SuggestionFile `json:"files"`
	Rationale  string           `json:"rationale"`
	Fix        string           `json:"fix"`
	Precedents []PrecedentRef   `json:"precedents,omitempty"`
}

// CodeSnippet is a redacted extract of diff context around a finding.
type CodeSnippet struct {
	Path      string
	Content   string
	StartLine int
	EndLine   int
	Redacted  bool // true when redaction altered the content
}

// RedactionReport summarizes what redaction changed across a selection.
// It travels with any suggestion-generation call so a reviewer knows the
// model saw altered content.
type RedactionReport struct {
	FilesRedacted int
	LinesMasked   int
	PatternTypes  []string
}

// Skip reason codes for files excluded from snippet selection.
const (
	SkipDenylisted  = "denylisted"
	SkipBinary      = "binary"
	SkipTooLarge    = "too-large"
	SkipNoHunks     = "no-hunks"
	SkipParseFailed = "parse-failed"
)

// SkippedFile records a file excluded from snippet selection and why.
type SkippedFile struct {
	Path   string
	Reason string
}
