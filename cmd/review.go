package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrgold/goldmr/internal/diff"
	"github.com/mrgold/goldmr/internal/models"
	"github.com/mrgold/goldmr/internal/report"
	"github.com/mrgold/goldmr/internal/review"
	"github.com/mrgold/goldmr/internal/suggest"
)

var (
	reviewDiffPath    string
	reviewTitle       string
	reviewDescription string
	reviewProvider    string
	reviewProviderID  string
	reviewWebURL      string
	reviewHeadSHA     string
	reviewMergeSHA    string
	reviewMergedBy    string
	reviewMergedAt    string
	reviewApprovals   int
	reviewSuggest     bool
	reviewMarkdown    bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run the review pipeline against a merge request's diff",
	Long: `Run checks, score the changeset, evaluate gold qualification, match
precedents, and optionally draft fix suggestions.

The diff is read from --diff (a git-format unified diff file, or '-' for
stdin).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRun(cmd)
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewDiffPath, "diff", "-", "Unified diff file ('-' for stdin)")
	reviewCmd.Flags().StringVar(&reviewTitle, "title", "", "Merge request title")
	reviewCmd.Flags().StringVar(&reviewDescription, "description", "", "Merge request description")
	reviewCmd.Flags().StringVar(&reviewProvider, "provider", "gitlab", "Source-control provider")
	reviewCmd.Flags().StringVar(&reviewProviderID, "id", "", "Provider-assigned merge request id")
	reviewCmd.Flags().StringVar(&reviewWebURL, "url", "", "Merge request web URL")
	reviewCmd.Flags().StringVar(&reviewHeadSHA, "head", "", "Head commit SHA")
	reviewCmd.Flags().StringVar(&reviewMergeSHA, "merge-commit", "", "Merge commit SHA")
	reviewCmd.Flags().StringVar(&reviewMergedBy, "merged-by", "", "Merger identity, if known")
	reviewCmd.Flags().StringVar(&reviewMergedAt, "merged-at", "", "Merge timestamp (RFC3339)")
	reviewCmd.Flags().IntVar(&reviewApprovals, "approvals", -1, "Approvals count (-1 = unknown)")
	reviewCmd.Flags().BoolVar(&reviewSuggest, "suggest", false, "Draft fix suggestions via the completion API")
	reviewCmd.Flags().BoolVar(&reviewMarkdown, "markdown", true, "Print the markdown report")
	_ = reviewCmd.MarkFlagRequired("title")
	_ = reviewCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(reviewCmd)
}

func reviewRun(cmd *cobra.Command) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	diffText, err := readDiff(reviewDiffPath)
	if err != nil {
		return err
	}
	changes := diff.SplitChangeset(diffText)

	mr := models.MergeRequest{
		Provider:       reviewProvider,
		ProviderID:     reviewProviderID,
		Title:          reviewTitle,
		Description:    reviewDescription,
		HeadSHA:        reviewHeadSHA,
		MergeCommitSHA: reviewMergeSHA,
		WebURL:         reviewWebURL,
		MergedBy:       reviewMergedBy,
	}
	if reviewApprovals >= 0 {
		n := reviewApprovals
		mr.ApprovalsCount = &n
	}
	if reviewMergedAt != "" {
		t, err := time.Parse(time.RFC3339, reviewMergedAt)
		if err != nil {
			return fmt.Errorf("parse --merged-at: %w", err)
		}
		mr.MergedAt = &t
	}

	var generator review.Generator
	if reviewSuggest {
		g, err := suggest.NewGenerator(suggestConfig())
		if err != nil {
			return fmt.Errorf("configure suggestion generator: %w", err)
		}
		generator = g
	}

	pipeline := review.New(s, generator, review.DefaultConfig())
	res, err := pipeline.Run(cmd.Context(), review.Request{MR: mr, Changes: changes})
	if err != nil {
		return err
	}

	printReviewResult(res)
	return nil
}

func printReviewResult(res *review.Result) {
	if reviewMarkdown {
		_ = report.WriteSummary(ui.Out, res.Results, res.Score)
		_ = report.WritePrecedents(ui.Out, res.Precedents)
		_ = report.WriteSuggestions(ui.Out, res.Suggestions)
	}

	if res.Evaluation.Qualifies {
		switch {
		case res.Promotion != nil && res.Promotion.Created:
			ui.Success("Promoted as gold exemplar %s", res.Promotion.Source.ID)
		case res.Promotion != nil && res.Promotion.Updated:
			ui.Success("Updated gold exemplar %s with higher score", res.Promotion.Source.ID)
		case res.Promotion != nil:
			ui.Info("Already promoted as %s, stored record unchanged", res.Promotion.Source.ID)
		}
		if res.Evaluation.ApprovalsUnknown {
			ui.Warning("Approvals could not be determined for this MR")
		}
	} else {
		ui.Info("Not promoted: %s", res.Evaluation.Reason)
	}

	for _, sk := range res.Selection.Skipped {
		ui.VerboseLog("snippet skipped: %s (%s)", sk.Path, sk.Reason)
	}
	if res.Selection.Redaction.FilesRedacted > 0 {
		ui.Warning("Redacted %d line(s) across %d file(s) before any external call",
			res.Selection.Redaction.LinesMasked, res.Selection.Redaction.FilesRedacted)
	}
	if res.SuggestionsErr != nil {
		ui.Warning("Checks complete, suggestions unavailable: %v", res.SuggestionsErr)
	}
}

// suggestConfig assembles generator settings from viper, including the
// configured retry ceiling.
func suggestConfig() suggest.Config {
	retry := suggest.DefaultRetryPolicy()
	retry.MaxAttempts = viper.GetInt("suggest.max_attempts")
	return suggest.Config{
		APIKey:   viper.GetString("anthropic.api_key"),
		Model:    viper.GetString("anthropic.model"),
		ProxyURL: viper.GetString("suggest.proxy_url"),
		Timeout:  time.Duration(viper.GetInt("suggest.timeout_seconds")) * time.Second,
		Retry:    retry,
	}
}

func readDiff(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read diff from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read diff file: %w", err)
	}
	return string(data), nil
}
