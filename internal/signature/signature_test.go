package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrgold/goldmr/internal/models"
)

func TestDerive_Deterministic(t *testing.T) {
	changes := []models.Change{{Path: "internal/auth/session.go"}}
	a := Derive("Add session rotation", "rotates session tokens hourly", changes)
	b := Derive("Add session rotation", "rotates session tokens hourly", changes)

	assert.Equal(t, a.Tokens, b.Tokens)
	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEmpty(t, a.Hash)
}

func TestDerive_TokenSources(t *testing.T) {
	sig := Derive("Rate limiting", "", []models.Change{{Path: "internal/limiter/bucket.go"}})

	assert.Contains(t, sig.Tokens, "rate")
	assert.Contains(t, sig.Tokens, "limiting")
	assert.Contains(t, sig.Tokens, "internal")
	assert.Contains(t, sig.Tokens, "limiter")
	assert.Contains(t, sig.Tokens, "bucket")
	assert.Contains(t, sig.Tokens, "ext:go")
}

func TestDerive_DropsStopwordsAndShortTokens(t *testing.T) {
	sig := Derive("Fix the db io", "", nil)
	assert.NotContains(t, sig.Tokens, "fix")
	assert.NotContains(t, sig.Tokens, "the")
	assert.NotContains(t, sig.Tokens, "db")
	assert.NotContains(t, sig.Tokens, "io")
}

func TestDerive_Deduplicates(t *testing.T) {
	sig := Derive("cache cache cache", "cache warming", []models.Change{{Path: "cache/cache.go"}})
	count := 0
	for _, tok := range sig.Tokens {
		if tok == "cache" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDerive_OrderAffectsHash(t *testing.T) {
	a := Derive("alpha beta", "", nil)
	b := Derive("beta alpha", "", nil)
	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestDerive_Empty(t *testing.T) {
	sig := Derive("", "", nil)
	assert.Empty(t, sig.Tokens)
	require.NotEmpty(t, sig.Hash) // hash of the empty token list is still stable
	assert.Equal(t, Derive("", "", nil).Hash, sig.Hash)
}

func TestDerive_CaseInsensitive(t *testing.T) {
	a := Derive("Payment Webhook", "", nil)
	b := Derive("payment webhook", "", nil)
	assert.Equal(t, a.Hash, b.Hash)
}
