// Package gold decides whether a completed review qualifies as a reusable
// exemplar and promotes it into the knowledge corpus.
package gold

import (
	"fmt"

	"github.com/mrgold/goldmr/internal/checks"
	"github.com/mrgold/goldmr/internal/models"
)

// DefaultScoreThreshold is the minimum score for gold qualification.
const DefaultScoreThreshold = 85

// Evaluate applies the qualification rules in order: a SECURITY fail
// disqualifies regardless of score; then the score threshold; then
// approvals. Approvals use the MR's tri-state answer: a known zero
// disqualifies, an unknown answer qualifies but is flagged for downstream
// transparency. Each call is a fresh, stateless decision.
func Evaluate(results []models.CheckResult, score int, mr *models.MergeRequest, threshold int) models.GoldEvaluation {
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}

	eval := models.GoldEvaluation{
		Score:         score,
		ApprovalState: mr.ApprovalState(),
	}

	if checks.HasSecurityFail(results) {
		eval.SecurityFail = true
		eval.Reason = "disqualified: SECURITY check failed"
		return eval
	}
	if score < threshold {
		eval.Reason = fmt.Sprintf("disqualified: score %d below threshold %d", score, threshold)
		return eval
	}

	switch eval.ApprovalState {
	case models.ApprovalKnownNo:
		eval.Reason = "disqualified: merged without any approval"
		return eval
	case models.ApprovalUnknown:
		eval.ApprovalsUnknown = true
		eval.Qualifies = true
		eval.Reason = fmt.Sprintf("qualified: score %d meets threshold %d (approvals unknown)", score, threshold)
	default:
		eval.Qualifies = true
		eval.Reason = fmt.Sprintf("qualified: score %d meets threshold %d", score, threshold)
	}
	return eval
}
