// Package review orchestrates one merge-request review: checks, scoring,
// gold evaluation, precedent retrieval, snippet selection, and suggestion
// generation.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/mrgold/goldmr/internal/checks"
	"github.com/mrgold/goldmr/internal/gold"
	"github.com/mrgold/goldmr/internal/models"
	"github.com/mrgold/goldmr/internal/signature"
	"github.com/mrgold/goldmr/internal/snippet"
	"github.com/mrgold/goldmr/internal/store"
	"github.com/mrgold/goldmr/internal/suggest"
)

// Config holds pipeline tuning.
type Config struct {
	Tenant        string
	GoldThreshold int
	MinOverlap    int
	MaxPrecedents int
	Snippets      snippet.Options
}

// DefaultConfig returns the pipeline config, reading from viper when
// available.
func DefaultConfig() Config {
	cfg := Config{
		Tenant:        viper.GetString("tenant"),
		GoldThreshold: viper.GetInt("gold.threshold"),
		MinOverlap:    viper.GetInt("precedent.min_overlap"),
		MaxPrecedents: viper.GetInt("precedent.limit"),
		Snippets:      snippet.DefaultOptions(),
	}
	if cfg.Tenant == "" {
		cfg.Tenant = "default"
	}
	if cfg.GoldThreshold <= 0 {
		cfg.GoldThreshold = gold.DefaultScoreThreshold
	}
	if v := viper.GetInt("snippet.max_total_chars"); v > 0 {
		cfg.Snippets.MaxTotalChars = v
	}
	if v := viper.GetInt("snippet.max_lines_per_file"); v > 0 {
		cfg.Snippets.MaxLinesPerFile = v
	}
	return cfg
}

// Generator is the suggestion stage's contract; nil disables it.
type Generator interface {
	Generate(ctx context.Context, in suggest.Input) ([]models.Suggestion, error)
}

// Request is one review invocation.
type Request struct {
	MR      models.MergeRequest
	Changes []models.Change
}

// Result is everything a review produced. SuggestionsErr is non-nil when
// the suggestion stage failed; checks and score are still valid then.
type Result struct {
	Results     []models.CheckResult
	Score       int
	Signature   models.FeatureSignature
	Evaluation  models.GoldEvaluation
	Promotion   *gold.PromotionResult
	Precedents  *signature.PrecedentSet
	Selection   snippet.Selection
	Suggestions []models.Suggestion

	SuggestionsErr error
}

// Pipeline wires the review stages over a shared store.
type Pipeline struct {
	store     store.Store
	matcher   *signature.Matcher
	promoter  *gold.Promoter
	generator Generator
	cfg       Config
}

// New creates a pipeline. generator may be nil, which degrades reviews to
// "checks complete, suggestions unavailable".
func New(s store.Store, generator Generator, cfg Config) *Pipeline {
	return &Pipeline{
		store:     s,
		matcher:   signature.NewMatcher(s, cfg.MinOverlap, cfg.MaxPrecedents),
		promoter:  gold.NewPromoter(s),
		generator: generator,
		cfg:       cfg,
	}
}

// Run executes the pipeline for one merge request. Check execution and
// scoring must succeed for the review to count; precedent matching runs
// concurrently with them since it has no ordering dependency. Re-running
// for the same MR at the same head is idempotent: the promoter's hash and
// provider-ref rules prevent duplicates and the scorer is pure.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	configs, err := p.loadCheckConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load check configs: %w", err)
	}
	weights, err := p.store.GetCategoryWeights(ctx, p.cfg.Tenant)
	if err != nil {
		return nil, fmt.Errorf("load category weights: %w", err)
	}

	res := &Result{
		Signature: signature.Derive(req.MR.Title, req.MR.Description, req.Changes),
	}

	// Precedent lookup is independent of check execution.
	type precedentOut struct {
		set *signature.PrecedentSet
		err error
	}
	precedentCh := make(chan precedentOut, 1)
	go func() {
		set, err := p.matcher.FindGoldPrecedents(ctx, p.cfg.Tenant, res.Signature)
		precedentCh <- precedentOut{set, err}
	}()

	checkCtx := &models.CheckContext{
		Changes:     req.Changes,
		Title:       req.MR.Title,
		Description: req.MR.Description,
	}
	res.Results = checks.Run(checkCtx, configs)
	res.Score = checks.Score(res.Results, weights)

	res.Evaluation = gold.Evaluate(res.Results, res.Score, &req.MR, p.cfg.GoldThreshold)
	if res.Evaluation.Qualifies {
		promo, err := p.promoter.Promote(ctx, p.cfg.Tenant, &req.MR, res.Evaluation, res.Signature, res.Results, req.Changes)
		if err != nil {
			return nil, fmt.Errorf("promote exemplar: %w", err)
		}
		res.Promotion = promo
	}

	pr := <-precedentCh
	if pr.err != nil {
		// Precedents enrich suggestions but are not required for the review.
		slog.Warn("precedent lookup failed", "tenant", p.cfg.Tenant, "err", pr.err)
	} else {
		res.Precedents = pr.set
	}

	failing := checks.Failing(res.Results)
	res.Selection = snippet.Select(req.Changes, failing, p.cfg.Snippets)
	for _, sk := range res.Selection.Skipped {
		slog.Debug("snippet skipped", "path", sk.Path, "reason", sk.Reason)
	}

	if p.generator != nil && len(failing) > 0 {
		suggestions, err := p.generator.Generate(ctx, suggest.Input{
			Title:       req.MR.Title,
			Description: req.MR.Description,
			Failing:     failing,
			Snippets:    res.Selection.Snippets,
			Precedents:  res.Precedents,
			Redaction:   res.Selection.Redaction,
		})
		if err != nil {
			res.SuggestionsErr = err
		} else {
			res.Suggestions = suggestions
		}
	}

	return res, nil
}

// loadCheckConfigs maps the tenant's stored configs by check key.
func (p *Pipeline) loadCheckConfigs(ctx context.Context) (map[string]models.CheckConfig, error) {
	list, err := p.store.ListCheckConfigs(ctx, p.cfg.Tenant)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.CheckConfig, len(list))
	for _, cfg := range list {
		out[cfg.CheckKey] = *cfg
	}
	return out, nil
}
