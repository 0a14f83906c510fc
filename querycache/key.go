// Package querycache implements the ownership-aware caching layer: key
// derivation, normalization, exact lookup, and a bounded fuzzy match over
// recently seen queries in the same language.
package querycache

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/langroute"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize lowercases text and collapses any run of whitespace to a single
// space, so cache keys are stable across trivial formatting differences.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	collapsed := whitespaceRun.ReplaceAllString(lower, " ")
	return strings.TrimSpace(collapsed)
}

// Key derives the cache key for a (language, family, normalized query)
// triple. The language code is present both in the hashed material and in
// the key prefix, so two different languages can never collide even if the
// normalized text happens to be byte-identical.
func Key(lang langroute.Code, family langroute.Family, normalizedQuery string) string {
	material := string(lang) + ":" + string(family) + ":" + normalizedQuery
	sum := sha256.Sum256([]byte(material))
	return "q:" + string(lang) + ":" + hex.EncodeToString(sum[:])
}
