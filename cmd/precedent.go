package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrgold/goldmr/internal/diff"
	"github.com/mrgold/goldmr/internal/models"
	"github.com/mrgold/goldmr/internal/output"
	"github.com/mrgold/goldmr/internal/signature"
)

var (
	precedentTitle       string
	precedentDescription string
	precedentDiffPath    string
)

var precedentCmd = &cobra.Command{
	Use:   "precedent",
	Short: "Find gold exemplars similar to a hypothetical merge request",
	Long: `Derive the feature signature for the given title, description, and
optional diff, then rank stored gold exemplars by token overlap.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		var changes []models.Change
		if precedentDiffPath != "" {
			text, err := readDiff(precedentDiffPath)
			if err != nil {
				return err
			}
			changes = diff.SplitChangeset(text)
		}

		sig := signature.Derive(precedentTitle, precedentDescription, changes)
		if len(sig.Tokens) == 0 {
			ui.Warning("Signature is empty, nothing to match against")
			return nil
		}
		ui.VerboseLog("signature: %s", strings.Join(sig.Tokens, " "))

		matcher := signature.NewMatcher(s,
			viper.GetInt("precedent.min_overlap"),
			viper.GetInt("precedent.limit"))
		set, err := matcher.FindGoldPrecedents(cmd.Context(), viper.GetString("tenant"), sig)
		if err != nil {
			return err
		}
		if len(set.Matches) == 0 {
			ui.Info("No precedents matched the signature")
			return nil
		}

		table := ui.Table([]string{"Rank", "ID", "Title", "Similarity", "Score", "Overlap"})
		for i, m := range set.Matches {
			table.Append([]string{
				fmt.Sprintf("%d", i+1),
				m.Source.ID,
				truncateCell(m.Source.Title, 48),
				fmt.Sprintf("%.3f", m.Jaccard),
				output.ScoreColor(m.Source.Metadata.Score),
				fmt.Sprintf("%d", len(m.MatchedTokens)),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	precedentCmd.Flags().StringVar(&precedentTitle, "title", "", "Merge request title")
	precedentCmd.Flags().StringVar(&precedentDescription, "description", "", "Merge request description")
	precedentCmd.Flags().StringVar(&precedentDiffPath, "diff", "", "Optional unified diff file ('-' for stdin)")
	_ = precedentCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(precedentCmd)
}
