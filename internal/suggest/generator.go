package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mrgold/goldmr/internal/models"
	"github.com/mrgold/goldmr/internal/signature"
)

const (
	maxTitleChars       = 200
	maxDescriptionChars = 1000
	maxDetailChars      = 300
	maxSnippetChars     = 1500

	// DefaultRequestTimeout bounds one completion request.
	DefaultRequestTimeout = 120 * time.Second
)

// Config holds generator settings.
type Config struct {
	APIKey   string
	Model    string
	ProxyURL string // optional HTTP(S) proxy for the outbound call
	Timeout  time.Duration
	Retry    RetryPolicy
}

// Generator wraps the external completion API with timeout, retry/backoff,
// and response schema validation.
type Generator struct {
	api     *anthropic.Client
	model   anthropic.Model
	timeout time.Duration
	retry   RetryPolicy
}

// NewGenerator creates a generator. SDK-internal retries are disabled; the
// explicit RetryPolicy is the single retry authority.
func NewGenerator(cfg Config) (*Generator, error) {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxy)},
		}))
	}

	client := anthropic.NewClient(opts...)
	g := &Generator{
		api:     &client,
		model:   anthropic.Model(cfg.Model),
		timeout: cfg.Timeout,
		retry:   cfg.Retry,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultRequestTimeout
	}
	if g.retry.MaxAttempts <= 0 {
		g.retry = DefaultRetryPolicy()
	}
	return g, nil
}

// Input is everything one suggestion-generation call may see. Snippets are
// already redacted; the redaction report travels along so the consumer
// knows content was altered.
type Input struct {
	Title       string
	Description string
	Failing     []models.CheckResult
	Snippets    []models.CodeSnippet
	Precedents  *signature.PrecedentSet
	Redaction   models.RedactionReport
}

const systemPrompt = `You draft fix suggestions for merge-request review findings. Return ONLY a JSON array of objects with these fields:
- "check_key": the key of the failing check this suggestion addresses
- "title": concise suggestion title
- "severity": "WARN" or "FAIL", matching the finding's severity
- "files": array of {"path", "start_line", "end_line"} the fix applies to
- "rationale": why this change matters, grounded in the finding's evidence
- "fix": the suggested change as text (code where appropriate)
- "precedents": optional array of {"knowledge_id", "title", "url"} referencing the provided exemplars

Rules:
- One suggestion per failing check at most; skip checks you cannot ground in the provided snippets
- Never invent file paths; only reference files present in the findings or snippets
- Code snippets may contain [REDACTED] markers; never reproduce or guess redacted values
- Return valid JSON only, no markdown fencing or explanation`

// buildUserPrompt assembles the bounded prompt body.
func buildUserPrompt(in Input) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Merge request: %s\n", truncate(in.Title, maxTitleChars))
	if in.Description != "" {
		fmt.Fprintf(&sb, "\nDescription:\n%s\n", truncate(in.Description, maxDescriptionChars))
	}

	sb.WriteString("\nFailing checks:\n")
	for _, r := range in.Failing {
		fmt.Fprintf(&sb, "- [%s] %s (%s): %s", r.Key, r.Title, r.Status, truncate(r.Details, maxDetailChars))
		if r.File != "" {
			fmt.Fprintf(&sb, " at %s:%d", r.File, r.Line)
		}
		sb.WriteByte('\n')
	}

	if len(in.Snippets) > 0 {
		sb.WriteString("\nCode context (redacted):\n")
		for _, sn := range in.Snippets {
			fmt.Fprintf(&sb, "\n--- %s (lines %d-%d) ---\n%s\n",
				sn.Path, sn.StartLine, sn.EndLine, truncate(sn.Content, maxSnippetChars))
		}
	}
	if in.Redaction.FilesRedacted > 0 {
		fmt.Fprintf(&sb, "\nNote: %d file(s) had %d line(s) masked (%s) before inclusion.\n",
			in.Redaction.FilesRedacted, in.Redaction.LinesMasked, strings.Join(in.Redaction.PatternTypes, ", "))
	}

	if in.Precedents != nil && len(in.Precedents.Matches) > 0 {
		sb.WriteString("\nSimilar gold-standard precedents:\n")
		for _, m := range in.Precedents.Matches {
			fmt.Fprintf(&sb, "- %s (id %s, similarity %.2f, tokens: %s)",
				m.Source.Title, m.Source.ID, m.Jaccard, strings.Join(m.MatchedTokens, ", "))
			if m.Source.SourceURL != "" {
				fmt.Fprintf(&sb, " %s", m.Source.SourceURL)
			}
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

// Generate performs one completion call under the retry policy and
// validates the response. A malformed response is a terminal *SchemaError,
// never partial suggestions.
func (g *Generator) Generate(ctx context.Context, in Input) ([]models.Suggestion, error) {
	if len(in.Failing) == 0 {
		return nil, nil
	}
	userPrompt := buildUserPrompt(in)

	var text string
	err := g.retry.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		msg, err := g.api.Messages.New(callCtx, anthropic.MessageNewParams{
			Model:     g.model,
			MaxTokens: 4096,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
			},
		})
		if err != nil {
			return classify(err)
		}

		text = ""
		for _, block := range msg.Content {
			if block.Type == "text" {
				text = block.Text
				break
			}
		}
		if text == "" {
			return fmt.Errorf("no text content in API response")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("completion call: %w", err)
	}

	return parseSuggestions(text)
}

// parseSuggestions strips markdown fencing, parses the JSON array, and
// validates it against the suggestion schema.
func parseSuggestions(text string) ([]models.Suggestion, error) {
	text = stripFences(text)

	var suggestions []models.Suggestion
	if err := json.Unmarshal([]byte(text), &suggestions); err != nil {
		return nil, &SchemaError{Violations: []Violation{{Path: "$", Message: fmt.Sprintf("not a valid JSON array: %v", err)}}}
	}
	if violations := Validate(suggestions); len(violations) > 0 {
		return nil, &SchemaError{Violations: violations}
	}
	return suggestions, nil
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
