package gold

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrgold/goldmr/internal/checks"
	"github.com/mrgold/goldmr/internal/models"
	"github.com/mrgold/goldmr/internal/store"
)

// PromotionResult reports what the upsert did.
type PromotionResult struct {
	Source  *models.KnowledgeSource
	Created bool
	Updated bool
}

// Promoter writes qualified reviews into the knowledge corpus.
type Promoter struct {
	store store.Store
}

// NewPromoter creates a promoter backed by the given store.
func NewPromoter(s store.Store) *Promoter {
	return &Promoter{store: s}
}

// Promote performs the idempotent upsert. Order matters:
//
//  1. same content hash for the tenant: content-identical duplicate,
//     return the stored record unchanged;
//  2. same (type, provider, providerID): update only when the new score
//     strictly exceeds the stored one, otherwise leave it untouched;
//  3. no match: create a new exemplar.
//
// This keeps at most one live exemplar per external MR per tenant, with a
// monotonically non-decreasing stored score.
func (p *Promoter) Promote(ctx context.Context, tenant string, mr *models.MergeRequest, eval models.GoldEvaluation, sig models.FeatureSignature, results []models.CheckResult, changes []models.Change) (*PromotionResult, error) {
	if !eval.Qualifies {
		return nil, fmt.Errorf("cannot promote a disqualified review: %s", eval.Reason)
	}

	content := BuildContentDocument(mr, results, eval.Score, changes)
	contentHash := HashContent(content)

	existing, err := p.store.GetKnowledgeSourceByContentHash(ctx, tenant, contentHash)
	if err == nil {
		return &PromotionResult{Source: existing}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup by content hash: %w", err)
	}

	meta := models.KnowledgeMetadata{
		SignatureTokens:   sig.Tokens,
		SignatureHash:     sig.Hash,
		Score:             eval.Score,
		CategoryBreakdown: checks.CategoryBreakdown(results),
		ApprovalsCount:    mr.ApprovalsCount,
		ApprovalState:     eval.ApprovalState,
		MergedAt:          mr.MergedAt,
		MergeCommitSHA:    mr.MergeCommitSHA,
	}

	prior, err := p.store.GetKnowledgeSourceByProviderRef(ctx, tenant, models.KnowledgeTypeGoldMR, mr.Provider, mr.ProviderID)
	if err == nil {
		if eval.Score <= prior.Metadata.Score {
			// A higher- or equal-scored exemplar already exists; no-op.
			return &PromotionResult{Source: prior}, nil
		}
		prior.Title = mr.Title
		prior.SourceURL = mr.WebURL
		prior.Content = content
		prior.ContentHash = contentHash
		prior.Metadata = meta
		if err := p.store.UpdateKnowledgeSource(ctx, prior); err != nil {
			return nil, fmt.Errorf("update exemplar: %w", err)
		}
		return &PromotionResult{Source: prior, Updated: true}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup by provider ref: %w", err)
	}

	src := &models.KnowledgeSource{
		Tenant:      tenant,
		SourceType:  models.KnowledgeTypeGoldMR,
		Provider:    mr.Provider,
		ProviderID:  mr.ProviderID,
		Title:       mr.Title,
		SourceURL:   mr.WebURL,
		Content:     content,
		ContentHash: contentHash,
		Metadata:    meta,
	}
	if err := p.store.CreateKnowledgeSource(ctx, src); err != nil {
		return nil, fmt.Errorf("create exemplar: %w", err)
	}
	return &PromotionResult{Source: src, Created: true}, nil
}
