package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mrgold/goldmr/internal/checks"
	"github.com/mrgold/goldmr/internal/models"
	"github.com/mrgold/goldmr/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or load review configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration for the tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		tenant := viper.GetString("tenant")

		fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("Tenant:"), tenant)
		fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("Database:"), viper.GetString("db_path"))
		fmt.Fprintf(ui.Out, "%s %d\n", output.Cyan("Gold threshold:"), viper.GetInt("gold.threshold"))
		fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("Model:"), viper.GetString("anthropic.model"))

		weights, err := s.GetCategoryWeights(cmd.Context(), tenant)
		if err != nil {
			return err
		}
		fmt.Fprintf(ui.Out, "\n%s\n", output.Cyan("Category weights:"))
		for _, cat := range models.AllCategories {
			fmt.Fprintf(ui.Out, "  %-14s %.1f\n", cat, weights[cat])
		}

		stored, err := s.ListCheckConfigs(cmd.Context(), tenant)
		if err != nil {
			return err
		}
		overrides := make(map[string]*models.CheckConfig, len(stored))
		for _, cfg := range stored {
			overrides[cfg.CheckKey] = cfg
		}

		table := ui.Table([]string{"Check", "Category", "Enabled", "Severity Override"})
		for _, def := range checks.Registry() {
			enabled := "yes"
			override := "-"
			if cfg, ok := overrides[def.Key]; ok {
				if !cfg.Enabled {
					enabled = output.Red("no")
				}
				if cfg.SeverityOverride != "" {
					override = output.StatusColor(string(cfg.SeverityOverride))
				}
			}
			table.Append([]string{def.Key, string(def.Category), enabled, override})
		}
		table.Render()
		return nil
	},
}

// checkPack is the yaml document accepted by `config load`.
type checkPack struct {
	Checks map[string]struct {
		Enabled    *bool          `yaml:"enabled"`
		Severity   string         `yaml:"severity"`
		Thresholds map[string]int `yaml:"thresholds"`
	} `yaml:"checks"`
	Weights map[string]float64 `yaml:"weights"`
}

var configLoadCmd = &cobra.Command{
	Use:   "load <pack.yaml>",
	Short: "Load check configuration and category weights from a yaml pack",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		tenant := viper.GetString("tenant")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read pack: %w", err)
		}
		var pack checkPack
		if err := yaml.Unmarshal(data, &pack); err != nil {
			return fmt.Errorf("parse pack: %w", err)
		}

		keys := make([]string, 0, len(pack.Checks))
		for key := range pack.Checks {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if _, ok := checks.Lookup(key); !ok {
				return fmt.Errorf("unknown check %q", key)
			}
			entry := pack.Checks[key]
			if entry.Severity != "" &&
				entry.Severity != string(models.CheckStatusWarn) && entry.Severity != string(models.CheckStatusFail) {
				return fmt.Errorf("check %q: severity must be WARN or FAIL, got %q", key, entry.Severity)
			}
			cfg := &models.CheckConfig{
				Tenant:           tenant,
				CheckKey:         key,
				Enabled:          entry.Enabled == nil || *entry.Enabled,
				SeverityOverride: models.CheckStatus(entry.Severity),
				Thresholds:       entry.Thresholds,
			}
			if err := s.UpsertCheckConfig(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("store config for %q: %w", key, err)
			}
		}

		cats := make([]string, 0, len(pack.Weights))
		for cat := range pack.Weights {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			weight := pack.Weights[cat]
			if !validCategory(models.CheckCategory(cat)) {
				return fmt.Errorf("unknown category %q", cat)
			}
			if weight <= 0 {
				return fmt.Errorf("category %q: weight must be positive, got %v", cat, weight)
			}
			if err := s.SetCategoryWeight(cmd.Context(), tenant, models.CheckCategory(cat), weight); err != nil {
				return fmt.Errorf("store weight for %q: %w", cat, err)
			}
		}

		ui.Success("Loaded %d check config(s) and %d weight(s) for tenant %q",
			len(pack.Checks), len(pack.Weights), tenant)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configLoadCmd)
	rootCmd.AddCommand(configCmd)
}

func validCategory(cat models.CheckCategory) bool {
	for _, c := range models.AllCategories {
		if c == cat {
			return true
		}
	}
	return false
}
