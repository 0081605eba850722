package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrgold/goldmr/internal/models"
	"github.com/mrgold/goldmr/internal/output"
)

var knowledgeCmd = &cobra.Command{
	Use:     "knowledge",
	Aliases: []string{"k"},
	Short:   "Inspect the gold exemplar corpus",
}

var knowledgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored gold exemplars for the tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		tenant := viper.GetString("tenant")
		sources, err := s.ListKnowledgeSources(cmd.Context(), tenant, models.KnowledgeTypeGoldMR)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			ui.Info("No gold exemplars stored for tenant %q", tenant)
			return nil
		}

		table := ui.Table([]string{"ID", "Provider", "MR", "Title", "Score", "Merged"})
		for _, src := range sources {
			merged := "-"
			if src.Metadata.MergedAt != nil {
				merged = src.Metadata.MergedAt.Format("2006-01-02")
			}
			table.Append([]string{
				src.ID,
				src.Provider,
				src.ProviderID,
				truncateCell(src.Title, 48),
				output.ScoreColor(src.Metadata.Score),
				merged,
			})
		}
		table.Render()
		return nil
	},
}

var knowledgeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one exemplar including its stored metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		src, err := s.GetKnowledgeSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("ID:"), src.ID)
		fmt.Fprintf(ui.Out, "%s %s/%s\n", output.Cyan("Ref:"), src.Provider, src.ProviderID)
		fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("Title:"), src.Title)
		if src.SourceURL != "" {
			fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("URL:"), src.SourceURL)
		}
		fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("Score:"), output.ScoreColor(src.Metadata.Score))
		fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("Approvals:"), formatApprovals(src.Metadata))
		if src.Metadata.MergedAt != nil {
			fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("Merged:"), src.Metadata.MergedAt.Format(time.RFC3339))
		}
		if len(src.Metadata.SignatureTokens) > 0 {
			fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("Signature:"), strings.Join(src.Metadata.SignatureTokens, " "))
		}
		if len(src.Metadata.CategoryBreakdown) > 0 {
			fmt.Fprintf(ui.Out, "%s\n", output.Cyan("Flagged by category:"))
			for _, cat := range models.AllCategories {
				if n := src.Metadata.CategoryBreakdown[string(cat)]; n > 0 {
					fmt.Fprintf(ui.Out, "  %s: %d\n", cat, n)
				}
			}
		}
		fmt.Fprintf(ui.Out, "\n%s\n%s\n", output.Cyan("Content:"), src.Content)
		return nil
	},
}

func init() {
	knowledgeCmd.AddCommand(knowledgeListCmd)
	knowledgeCmd.AddCommand(knowledgeShowCmd)
	rootCmd.AddCommand(knowledgeCmd)
}

func formatApprovals(md models.KnowledgeMetadata) string {
	switch md.ApprovalState {
	case models.ApprovalKnownYes:
		if md.ApprovalsCount != nil {
			return fmt.Sprintf("%d", *md.ApprovalsCount)
		}
		return "approved"
	case models.ApprovalKnownNo:
		return "none"
	default:
		return "unknown"
	}
}

func truncateCell(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
