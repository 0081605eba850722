// Package signature derives feature signatures from merge requests and
// retrieves similar promoted exemplars from the knowledge corpus.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"regexp"
	"strings"

	"github.com/mrgold/goldmr/internal/models"
)

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

// stopwords are too common to carry signal.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "are": true, "was": true, "have": true,
	"has": true, "not": true, "but": true, "all": true,
	"add": true, "adds": true, "added": true, "fix": true, "fixes": true,
	"fixed": true, "update": true, "updates": true, "updated": true,
	"remove": true, "removes": true, "removed": true, "change": true,
	"changes": true, "changed": true, "merge": true, "request": true,
	"branch": true, "into": true, "when": true, "use": true, "new": true,
}

// Derive deterministically tokenizes an MR's title, description, and
// changed-file paths into a deduplicated, ordered token list with a
// stable content hash.
func Derive(title, description string, changes []models.Change) models.FeatureSignature {
	seen := make(map[string]bool)
	var tokens []string
	add := func(tok string) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if len(tok) < 3 || stopwords[tok] || seen[tok] {
			return
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}

	for _, w := range wordRe.FindAllString(strings.ToLower(title), -1) {
		add(w)
	}
	for _, w := range wordRe.FindAllString(strings.ToLower(description), -1) {
		add(w)
	}
	for _, ch := range changes {
		for _, seg := range strings.Split(ch.Path, "/") {
			base := seg
			if ext := path.Ext(seg); ext != "" {
				base = strings.TrimSuffix(seg, ext)
				add("ext:" + strings.TrimPrefix(ext, "."))
			}
			for _, w := range wordRe.FindAllString(strings.ToLower(base), -1) {
				add(w)
			}
		}
	}

	return models.FeatureSignature{Tokens: tokens, Hash: hashTokens(tokens)}
}

// hashTokens hashes the ordered token list, NUL-separated so token
// boundaries cannot collide.
func hashTokens(tokens []string) string {
	h := sha256.New()
	for _, tok := range tokens {
		h.Write([]byte(tok))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
