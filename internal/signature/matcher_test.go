package signature

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrgold/goldmr/internal/models"
)

type fakeCorpus struct {
	sources []*models.KnowledgeSource
	err     error
}

func (f *fakeCorpus) ListKnowledgeSources(ctx context.Context, tenant string, st models.KnowledgeSourceType) ([]*models.KnowledgeSource, error) {
	return f.sources, f.err
}

func exemplar(id string, score int, tokens ...string) *models.KnowledgeSource {
	return &models.KnowledgeSource{
		ID: id,
		Metadata: models.KnowledgeMetadata{
			SchemaVersion:   models.KnowledgeMetadataVersion,
			SignatureTokens: tokens,
			Score:           score,
		},
	}
}

func querySig(tokens ...string) models.FeatureSignature {
	return models.FeatureSignature{Tokens: tokens, Hash: hashTokens(tokens)}
}

func TestFindGoldPrecedents_IdenticalSignatureRanksFirst(t *testing.T) {
	corpus := &fakeCorpus{sources: []*models.KnowledgeSource{
		exemplar("partial", 95, "session", "rotation", "cleanup", "worker"),
		exemplar("exact", 80, "session", "rotation", "token"),
	}}
	m := NewMatcher(corpus, 2, 3)

	set, err := m.FindGoldPrecedents(context.Background(), "default", querySig("session", "rotation", "token"))
	require.NoError(t, err)
	require.Len(t, set.Matches, 2)
	assert.Equal(t, "exact", set.Matches[0].Source.ID)
	assert.InDelta(t, 1.0, set.Matches[0].Jaccard, 0.0001)
	assert.ElementsMatch(t, []string{"session", "rotation", "token"}, set.Matches[0].MatchedTokens)
}

func TestFindGoldPrecedents_AdmissionByOverlapOrJaccard(t *testing.T) {
	corpus := &fakeCorpus{sources: []*models.KnowledgeSource{
		// Overlap 1, but Jaccard 1/3 >= 0.15: admitted.
		exemplar("small", 90, "auth", "middleware"),
		// Overlap 1, Jaccard 1/11 < 0.15: rejected.
		exemplar("noisy", 90, "auth", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9"),
	}}
	m := NewMatcher(corpus, 2, 3)

	set, err := m.FindGoldPrecedents(context.Background(), "default", querySig("auth", "login"))
	require.NoError(t, err)
	require.Len(t, set.Matches, 1)
	assert.Equal(t, "small", set.Matches[0].Source.ID)
}

func TestFindGoldPrecedents_TieBreaksOnScoreThenRecency(t *testing.T) {
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	lowOld := exemplar("low-old", 85, "cache", "eviction")
	lowOld.Metadata.MergedAt = &old
	lowRecent := exemplar("low-recent", 85, "cache", "eviction")
	lowRecent.Metadata.MergedAt = &recent
	high := exemplar("high", 99, "cache", "eviction")

	corpus := &fakeCorpus{sources: []*models.KnowledgeSource{lowOld, lowRecent, high}}
	m := NewMatcher(corpus, 2, 3)

	set, err := m.FindGoldPrecedents(context.Background(), "default", querySig("cache", "eviction"))
	require.NoError(t, err)
	require.Len(t, set.Matches, 3)
	assert.Equal(t, "high", set.Matches[0].Source.ID)
	assert.Equal(t, "low-recent", set.Matches[1].Source.ID)
	assert.Equal(t, "low-old", set.Matches[2].Source.ID)
}

func TestFindGoldPrecedents_NilMergedAtSortsLast(t *testing.T) {
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	dated := exemplar("dated", 90, "queue", "retry")
	dated.Metadata.MergedAt = &ts
	undated := exemplar("undated", 90, "queue", "retry")

	corpus := &fakeCorpus{sources: []*models.KnowledgeSource{undated, dated}}
	m := NewMatcher(corpus, 2, 3)

	set, err := m.FindGoldPrecedents(context.Background(), "default", querySig("queue", "retry"))
	require.NoError(t, err)
	require.Len(t, set.Matches, 2)
	assert.Equal(t, "dated", set.Matches[0].Source.ID)
}

func TestFindGoldPrecedents_LimitKeepsTotalFound(t *testing.T) {
	corpus := &fakeCorpus{sources: []*models.KnowledgeSource{
		exemplar("a", 90, "billing", "invoice"),
		exemplar("b", 91, "billing", "invoice"),
		exemplar("c", 92, "billing", "invoice"),
		exemplar("d", 93, "billing", "invoice"),
	}}
	m := NewMatcher(corpus, 2, 3)

	set, err := m.FindGoldPrecedents(context.Background(), "default", querySig("billing", "invoice"))
	require.NoError(t, err)
	assert.Len(t, set.Matches, 3)
	assert.Equal(t, 4, set.TotalFound)
}

func TestFindGoldPrecedents_EmptyExemplarSignatureExcluded(t *testing.T) {
	corpus := &fakeCorpus{sources: []*models.KnowledgeSource{
		exemplar("empty", 100),
	}}
	m := NewMatcher(corpus, 2, 3)

	set, err := m.FindGoldPrecedents(context.Background(), "default", querySig("deploy", "rollout"))
	require.NoError(t, err)
	assert.Empty(t, set.Matches)
}

func TestFindGoldPrecedents_DuplicateCandidateTokensCountOnce(t *testing.T) {
	corpus := &fakeCorpus{sources: []*models.KnowledgeSource{
		exemplar("dup", 90, "audit", "audit", "audit", "log"),
	}}
	m := NewMatcher(corpus, 2, 3)

	set, err := m.FindGoldPrecedents(context.Background(), "default", querySig("audit", "log"))
	require.NoError(t, err)
	require.Len(t, set.Matches, 1)
	assert.Equal(t, 2, set.Matches[0].Overlap)
	assert.InDelta(t, 1.0, set.Matches[0].Jaccard, 0.0001)
}

func TestFindGoldPrecedents_StoreError(t *testing.T) {
	corpus := &fakeCorpus{err: errors.New("db locked")}
	m := NewMatcher(corpus, 2, 3)

	_, err := m.FindGoldPrecedents(context.Background(), "default", querySig("any", "thing"))
	assert.Error(t, err)
}
