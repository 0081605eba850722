package signature

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mrgold/goldmr/internal/models"
)

const (
	// DefaultMinOverlap admits a candidate on raw token overlap alone.
	DefaultMinOverlap = 2
	// DefaultLimit caps how many precedents are returned.
	DefaultLimit = 3
	// jaccardAdmit admits a candidate regardless of overlap count.
	jaccardAdmit = 0.15
	// jaccardTie treats similarities within this delta as equal when ranking.
	jaccardTie = 0.001
)

// CorpusReader is the slice of the knowledge store the matcher needs.
type CorpusReader interface {
	ListKnowledgeSources(ctx context.Context, tenant string, st models.KnowledgeSourceType) ([]*models.KnowledgeSource, error)
}

// Match is one admitted precedent with its similarity evidence.
type Match struct {
	Source        *models.KnowledgeSource
	Overlap       int
	Jaccard       float64
	MatchedTokens []string
}

// PrecedentSet is the ranked result of a precedent lookup.
type PrecedentSet struct {
	Matches    []Match
	TotalFound int // admitted candidates before the limit was applied
}

// Matcher retrieves similar gold exemplars by token overlap. It is a
// linear scan over the tenant's corpus; corpora are small per tenant.
type Matcher struct {
	corpus     CorpusReader
	minOverlap int
	limit      int
}

// NewMatcher creates a matcher with the given admission and limit knobs.
// Zero values fall back to defaults.
func NewMatcher(corpus CorpusReader, minOverlap, limit int) *Matcher {
	if minOverlap <= 0 {
		minOverlap = DefaultMinOverlap
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Matcher{corpus: corpus, minOverlap: minOverlap, limit: limit}
}

// FindGoldPrecedents scans the tenant's promoted exemplars and returns the
// top matches by Jaccard similarity, then stored score, then recency.
func (m *Matcher) FindGoldPrecedents(ctx context.Context, tenant string, sig models.FeatureSignature) (*PrecedentSet, error) {
	sources, err := m.corpus.ListKnowledgeSources(ctx, tenant, models.KnowledgeTypeGoldMR)
	if err != nil {
		return nil, fmt.Errorf("list gold exemplars: %w", err)
	}

	query := make(map[string]bool, len(sig.Tokens))
	for _, tok := range sig.Tokens {
		query[tok] = true
	}

	var admitted []Match
	for _, src := range sources {
		overlap, jaccard, matched := similarity(query, len(sig.Tokens), src.Metadata.SignatureTokens)
		if overlap >= m.minOverlap || jaccard >= jaccardAdmit {
			admitted = append(admitted, Match{
				Source:        src,
				Overlap:       overlap,
				Jaccard:       jaccard,
				MatchedTokens: matched,
			})
		}
	}

	sort.SliceStable(admitted, func(i, j int) bool {
		a, b := admitted[i], admitted[j]
		if a.Jaccard-b.Jaccard > jaccardTie {
			return true
		}
		if b.Jaccard-a.Jaccard > jaccardTie {
			return false
		}
		if a.Source.Metadata.Score != b.Source.Metadata.Score {
			return a.Source.Metadata.Score > b.Source.Metadata.Score
		}
		return mergedAfter(a.Source.Metadata.MergedAt, b.Source.Metadata.MergedAt)
	})

	set := &PrecedentSet{TotalFound: len(admitted)}
	if len(admitted) > m.limit {
		admitted = admitted[:m.limit]
	}
	set.Matches = admitted
	return set, nil
}

// similarity computes overlap count and Jaccard between the query token
// set and a candidate token list, returning the matched subset in the
// candidate's order.
func similarity(query map[string]bool, querySize int, candidate []string) (int, float64, []string) {
	var matched []string
	seen := make(map[string]bool, len(candidate))
	for _, tok := range candidate {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		if query[tok] {
			matched = append(matched, tok)
		}
	}
	overlap := len(matched)
	union := querySize + len(seen) - overlap
	if union == 0 {
		return 0, 0, nil
	}
	return overlap, float64(overlap) / float64(union), matched
}

// mergedAfter orders timestamps descending with nils last.
func mergedAfter(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}
