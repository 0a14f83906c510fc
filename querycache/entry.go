package querycache

import (
	"fmt"
	"strings"

	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/langroute"
	"github.com/Climate-Resilient-Communities/climate-multilingual-chatbot-sub000/retrieve"
)

// Entry is the self-describing structured document stored under a cache
// key. It carries enough of the pipeline result to be returned as-is on a
// hit, without re-running any upstream stage.
type Entry struct {
	Response           string              `json:"response"`
	Citations          []retrieve.Citation `json:"citations"`
	FaithfulnessScore  float64             `json:"faithfulness_score"`
	LanguageCode       langroute.Code      `json:"language_code"`
	Family             langroute.Family    `json:"family"`
}

// RecentEntry is one bounded, append-only record of a recently answered
// query, used to support fuzzy cache matching. Its wire form is a single
// pipe-delimited string so it can be stored in any simple list-shaped
// backing store.
type RecentEntry struct {
	Key        string
	Normalized string
	Lang       langroute.Code
}

func (e RecentEntry) String() string {
	return fmt.Sprintf("%s|%s|%s", e.Key, e.Normalized, e.Lang)
}

// ParseRecentEntry parses the wire form String produces. Entries written
// before language-scoping existed carried only two fields; those are
// accepted and default to English, matching the backward-compatible
// behavior of the system this replaces.
func ParseRecentEntry(s string) (RecentEntry, bool) {
	parts := strings.SplitN(s, "|", 3)
	switch len(parts) {
	case 3:
		return RecentEntry{Key: parts[0], Normalized: parts[1], Lang: langroute.Code(parts[2])}, true
	case 2:
		return RecentEntry{Key: parts[0], Normalized: parts[1], Lang: langroute.English}, true
	default:
		return RecentEntry{}, false
	}
}
